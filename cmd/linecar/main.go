package main

//go-build: CGO_ENABLED=0

import (
	"flag"

	"github.com/golang/glog"

	"github.com/robotalks/linecar/pkg/config"
	"github.com/robotalks/linecar/pkg/drive"
	"github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/panel"
	"github.com/robotalks/linecar/pkg/panel/serialport"
	"github.com/robotalks/linecar/pkg/telemetry"
	"github.com/robotalks/linecar/pkg/telemetry/sink"
	"github.com/robotalks/linecar/pkg/units"
)

var (
	configFile string
	follow     bool
	speed      float64
)

func init() {
	serialport.SetupFlags()
	sink.SetupFlags()
	flag.StringVar(&configFile, "config", configFile, "Config file of the car")
	flag.BoolVar(&follow, "follow", follow, "Start following the line")
	flag.Float64Var(&speed, "speed", speed, "Line following speed (m/s), configured if 0")
}

func main() {
	flag.Parse()

	conf, err := config.Load(configFile)
	if err != nil {
		glog.Exit(err)
	}
	port, err := serialport.Default().Open()
	if err != nil {
		glog.Exit(err)
	}
	link := panel.NewLink(port)
	driver := conf.NewDriver()
	reporter, err := sink.Default().NewReporter(
		telemetry.LinesSource(driver.Tracker),
		telemetry.TrajectorySource(driver.Props, driver.Trajectory),
	)
	if err != nil {
		glog.Exit(err)
	}

	loop := conf.NewLoop().Add(link, driver, reporter)
	if follow {
		loop.PostMessage(drive.Command{Mode: drive.ModeLine, Speed: units.Speed(speed) * units.MeterPerSecond})
	}
	if err := framework.NewRunner().HandleSignals().Go(loop).Wait(); err != nil {
		glog.Exit(err)
	}
	stats := link.Stats()
	glog.Infof("panel link: received %d, sent %d, checksum errors %d, decode errors %d",
		stats.Received, stats.Sent, stats.ChecksumErrors, stats.DecodeErrors)
}
