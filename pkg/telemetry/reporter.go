package telemetry

import (
	"github.com/golang/glog"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/trajectory"
)

// Source produces a report in a cycle, nil if there is nothing to report.
type Source interface {
	Report(framework.ControlContext) SerializableMessage
}

// SourceFunc is the func form of Source.
type SourceFunc func(framework.ControlContext) SerializableMessage

// Report implements Source.
func (f SourceFunc) Report(ctx framework.ControlContext) SerializableMessage {
	return f(ctx)
}

// LinesSource reports the state of a line tracker.
func LinesSource(t *line.Tracker) Source {
	return SourceFunc(func(ctx framework.ControlContext) SerializableMessage {
		return NewLinesReport(ctx.Cycle(), t)
	})
}

// TrajectorySource reports the progress along a trajectory. It reports
// nothing until a start config is set.
func TrajectorySource(props func() car.Props, t *trajectory.Trajectory) Source {
	return SourceFunc(func(ctx framework.ControlContext) SerializableMessage {
		if len(t.Configs()) == 0 {
			return nil
		}
		return NewTrajectoryReport(ctx.Cycle(), props(), t)
	})
}

// Reporter publishes reports every Every cycles. Reports posted into the
// cycle as messages, e.g. ControlReport, are published along with the ones
// from Sources and removed from the cycle.
type Reporter struct {
	Publisher Publisher
	Every     uint64
	Sources   []Source
}

// NewReporter creates a Reporter.
func NewReporter(p Publisher, every uint64, sources ...Source) *Reporter {
	return &Reporter{Publisher: p, Every: every, Sources: sources}
}

// AddToLoop implements LoopAdder.
func (r *Reporter) AddToLoop(loop *framework.Loop) {
	if adder, ok := r.Publisher.(framework.LoopAdder); ok {
		loop.Add(adder)
	}
	loop.AddController(framework.PrLvReport, r)
}

// Control implements Controller.
func (r *Reporter) Control(ctx framework.ControlContext) error {
	posted := framework.Take[SerializableMessage](ctx.Messages())
	if r.Every > 1 && ctx.Cycle()%r.Every != 0 {
		return nil
	}
	var errs framework.AggregatedError
	publish := func(msg SerializableMessage) {
		if err := r.Publisher.Publish(msg); err != nil {
			errs.Add(err)
		} else if glog.V(4) {
			glog.Infof("published %T: %v", msg, msg)
		}
	}
	for _, src := range r.Sources {
		if msg := src.Report(ctx); msg != nil {
			publish(msg)
		}
	}
	for _, msg := range posted {
		publish(msg)
	}
	return errs.Aggregate()
}
