// Package config loads the car configuration from a file and LINECAR_*
// environment variables. Lengths are given in millimeters, angles in degrees
// and speeds in m/s.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/control"
	"github.com/robotalks/linecar/pkg/drive"
	"github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/sim"
	"github.com/robotalks/linecar/pkg/sim/physics/bicycle"
	"github.com/robotalks/linecar/pkg/units"
)

// EnvPrefix prefixes the environment variables, e.g. LINECAR_DRIVE_LINESPEED.
const EnvPrefix = "LINECAR"

// Config is the loaded configuration.
type Config struct {
	Interval time.Duration
	Drive    drive.Config
	Sim      SimConfig
}

// SimConfig configures the simulated car.
type SimConfig struct {
	SensorHalfWidth  units.Length
	SensorResolution units.Length
	Acceleration     float64
	MaxSteering      units.Angle
}

type fileConfig struct {
	Loop struct {
		Interval time.Duration `mapstructure:"interval"`
	} `mapstructure:"loop"`
	Geometry struct {
		WheelbaseMM         float64 `mapstructure:"wheelbaseMM"`
		FrontAxleToSensorMM float64 `mapstructure:"frontAxleToSensorMM"`
		RowSpacingMM        float64 `mapstructure:"rowSpacingMM"`
	} `mapstructure:"geometry"`
	Tracker struct {
		MatchGateMM float64 `mapstructure:"matchGateMM"`
		HistorySize int     `mapstructure:"historySize"`
	} `mapstructure:"tracker"`
	SpeedPID struct {
		P        float64 `mapstructure:"p"`
		I        float64 `mapstructure:"i"`
		D        float64 `mapstructure:"d"`
		OutMin   float64 `mapstructure:"outMin"`
		OutMax   float64 `mapstructure:"outMax"`
		MaxRate  float64 `mapstructure:"maxRate"`
		Deadband float64 `mapstructure:"deadband"`
	} `mapstructure:"speedPid"`
	Drive struct {
		LineSpeed         float64       `mapstructure:"lineSpeed"`
		RampTime          time.Duration `mapstructure:"rampTime"`
		LostTimeout       time.Duration `mapstructure:"lostTimeout"`
		FinishThresholdMM float64       `mapstructure:"finishThresholdMM"`
	} `mapstructure:"drive"`
	Sim struct {
		SensorHalfWidthMM  float64 `mapstructure:"sensorHalfWidthMM"`
		SensorResolutionMM float64 `mapstructure:"sensorResolutionMM"`
		Acceleration       float64 `mapstructure:"acceleration"`
		MaxSteeringDeg     float64 `mapstructure:"maxSteeringDeg"`
	} `mapstructure:"sim"`
}

// Errors
var (
	ErrInvalidGeometry = errors.New("invalid geometry")
	ErrInvalidInterval = errors.New("invalid loop interval")
)

func setDefaults(v *viper.Viper) {
	d := drive.DefaultConfig()
	v.SetDefault("loop.interval", framework.DefaultInterval)

	v.SetDefault("geometry.wheelbaseMM", d.Geometry.Wheelbase.Millimeters())
	v.SetDefault("geometry.frontAxleToSensorMM", d.Geometry.FrontAxleToSensor.Millimeters())
	v.SetDefault("geometry.rowSpacingMM", d.Geometry.RowSpacing.Millimeters())

	v.SetDefault("tracker.matchGateMM", d.Tracker.MatchGate.Millimeters())
	v.SetDefault("tracker.historySize", d.Tracker.HistorySize)

	v.SetDefault("speedPid.p", d.SpeedPID.P)
	v.SetDefault("speedPid.i", d.SpeedPID.I)
	v.SetDefault("speedPid.d", d.SpeedPID.D)
	v.SetDefault("speedPid.outMin", d.SpeedPID.OutMin)
	v.SetDefault("speedPid.outMax", d.SpeedPID.OutMax)
	v.SetDefault("speedPid.maxRate", d.SpeedPID.MaxRate)
	v.SetDefault("speedPid.deadband", d.SpeedPID.Deadband)

	v.SetDefault("drive.lineSpeed", d.LineSpeed.MetersPerSecond())
	v.SetDefault("drive.rampTime", d.RampTime)
	v.SetDefault("drive.lostTimeout", d.LostTimeout)
	v.SetDefault("drive.finishThresholdMM", d.FinishThreshold.Millimeters())

	v.SetDefault("sim.sensorHalfWidthMM", sim.DefaultSensorHalfWidth.Millimeters())
	v.SetDefault("sim.sensorResolutionMM", sim.DefaultResolution.Millimeters())
	v.SetDefault("sim.acceleration", bicycle.DefaultAcceleration)
	v.SetDefault("sim.maxSteeringDeg", bicycle.DefaultMaxSteering.Degrees())
}

// New creates the viper instance with defaults and environment bindings.
func New() *viper.Viper {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the config file, if any, over the defaults.
func Load(path string) (*Config, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return FromViper(v)
}

// FromViper decodes the configuration.
func FromViper(v *viper.Viper) (*Config, error) {
	var f fileConfig
	if err := v.Unmarshal(&f); err != nil {
		return nil, err
	}
	if f.Loop.Interval <= 0 {
		return nil, ErrInvalidInterval
	}

	g := car.Geometry{
		Wheelbase:         units.Length(f.Geometry.WheelbaseMM) * units.Millimeter,
		FrontAxleToSensor: units.Length(f.Geometry.FrontAxleToSensorMM) * units.Millimeter,
		RowSpacing:        units.Length(f.Geometry.RowSpacingMM) * units.Millimeter,
	}
	if g.Wheelbase <= 0 || g.FrontAxleToSensor < 0 || g.RowSpacing <= 0 {
		return nil, fmt.Errorf("%w: %+v", ErrInvalidGeometry, g)
	}

	conf := &Config{
		Interval: f.Loop.Interval,
		Drive: drive.Config{
			Geometry: g,
			Tracker: line.Config{
				RowSpacing:  g.RowSpacing,
				MatchGate:   units.Length(f.Tracker.MatchGateMM) * units.Millimeter,
				HistorySize: f.Tracker.HistorySize,
			},
			SpeedPID: control.Params{
				P:        f.SpeedPID.P,
				I:        f.SpeedPID.I,
				D:        f.SpeedPID.D,
				OutMin:   f.SpeedPID.OutMin,
				OutMax:   f.SpeedPID.OutMax,
				MaxRate:  f.SpeedPID.MaxRate,
				Deadband: f.SpeedPID.Deadband,
			},
			LineSpeed:       units.Speed(f.Drive.LineSpeed) * units.MeterPerSecond,
			RampTime:        f.Drive.RampTime,
			LostTimeout:     f.Drive.LostTimeout,
			FinishThreshold: units.Length(f.Drive.FinishThresholdMM) * units.Millimeter,
		},
		Sim: SimConfig{
			SensorHalfWidth:  units.Length(f.Sim.SensorHalfWidthMM) * units.Millimeter,
			SensorResolution: units.Length(f.Sim.SensorResolutionMM) * units.Millimeter,
			Acceleration:     f.Sim.Acceleration,
			MaxSteering:      units.Degrees(f.Sim.MaxSteeringDeg),
		},
	}
	return conf, nil
}

// NewLoop creates the control loop.
func (c *Config) NewLoop() *framework.Loop {
	loop := framework.NewLoop()
	loop.Interval = c.Interval
	return loop
}

// NewDriver creates the control task.
func (c *Config) NewDriver() *drive.Driver {
	return drive.New(c.Drive)
}

// NewSimCar creates a simulated car.
func (c *Config) NewSimCar(id string) *sim.Car {
	simCar := sim.NewCar(id, c.Drive.Geometry)
	simCar.Sensor.HalfWidth = c.Sim.SensorHalfWidth
	simCar.Sensor.Resolution = c.Sim.SensorResolution
	if engine, ok := simCar.Vehicle.(*bicycle.Engine); ok {
		engine.Acceleration = c.Sim.Acceleration
		engine.MaxSteering = c.Sim.MaxSteering
	}
	return simCar
}
