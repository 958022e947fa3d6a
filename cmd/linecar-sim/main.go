package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/linecar/pkg/config"
	"github.com/robotalks/linecar/pkg/drive"
	"github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/sim"
	"github.com/robotalks/linecar/pkg/sim/visualization/see"
	"github.com/robotalks/linecar/pkg/telemetry"
	"github.com/robotalks/linecar/pkg/telemetry/sink"
	"github.com/robotalks/linecar/pkg/units"
)

var (
	configFile string
	course     = "oval"
	speed      float64
	visualize  bool
)

func init() {
	see.SetupFlags()
	sink.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "Config file of the car")
	flag.StringVar(&course, "course", course, "Course to follow: straight, oval or s")
	flag.Float64Var(&speed, "speed", speed, "Line following speed (m/s), configured if 0")
	flag.BoolVar(&visualize, "see", visualize, "Print the world for github.com/robotalks/see")
}

// buildCourse paints the course and gets the start pose of the car.
func buildCourse(name string) ([]*sim.Track, geom.Pose, bool) {
	m := units.Meter
	switch name {
	case "straight":
		return []*sim.Track{sim.StraightTrack("0", geom.V(-m, 0), geom.V(10*m, 0))}, geom.Pose{}, true
	case "oval":
		r := 80 * units.Centimeter
		return []*sim.Track{
			sim.StraightTrack("0", geom.V(-m, 0), geom.V(m, 0)),
			sim.ArcTrack("1", geom.V(m, r), geom.V(m, 0), units.PI),
			sim.StraightTrack("2", geom.V(m, 2*r), geom.V(-m, 2*r)),
			sim.ArcTrack("3", geom.V(-m, r), geom.V(-m, 2*r), units.PI),
		}, geom.Pose{Pos: geom.V(-50*units.Centimeter, 0)}, true
	case "s":
		r := 80 * units.Centimeter
		return []*sim.Track{
			sim.StraightTrack("0", geom.V(-m, 0), geom.V(0, 0)),
			sim.ArcTrack("1", geom.V(0, r), geom.V(0, 0), units.PI/2),
			sim.ArcTrack("2", geom.V(2*r, r), geom.V(r, r), -units.PI/2),
			sim.StraightTrack("3", geom.V(2*r, 2*r), geom.V(2*r+5*m, 2*r)),
		}, geom.Pose{Pos: geom.V(-80*units.Centimeter, 0)}, true
	}
	return nil, geom.Pose{}, false
}

func main() {
	flag.Parse()

	conf, err := config.Load(configFile)
	if err != nil {
		glog.Exit(err)
	}
	tracks, start, ok := buildCourse(course)
	if !ok {
		glog.Exitf("unknown course %q", course)
	}

	c := conf.NewSimCar("0")
	c.Place(start)
	world := (&sim.World{}).AddTracks(tracks...).AddCar(c)
	driver := conf.NewDriver()
	reporter, err := sink.Default().NewReporter(
		telemetry.LinesSource(driver.Tracker),
		telemetry.TrajectorySource(driver.Props, driver.Trajectory),
	)
	if err != nil {
		glog.Exit(err)
	}
	if visualize {
		see.Default().NewAdapter().Subscribe(world)
	}

	loop := conf.NewLoop().Add(world, driver, reporter)
	loop.PostMessage(drive.Command{Mode: drive.ModeLine, Speed: units.Speed(speed) * units.MeterPerSecond})
	if err := framework.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Exit(err)
	}
}
