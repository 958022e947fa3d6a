// Package see is the adapter to visualize the simulated world in
// github.com/robotalks/see.
package see

import (
	"encoding/json"
	"os"

	"github.com/golang/glog"

	fx "github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/sim"
)

// Adapter is the visualization adapter to visualize using
// github.com/robotalks/see.
type Adapter struct {
	Config *Config
	Mapper ObjectMapper

	initial    bool
	scheduled  bool
	updated    []sim.Object
	removedIDs map[string]bool
}

// NewAdapter creates the adapter.
func NewAdapter(config *Config) *Adapter {
	return &Adapter{
		Config:  config,
		Mapper:  DefaultMapper,
		initial: true,
	}
}

// Subscribe is a helper to subscribe object changes.
func (a *Adapter) Subscribe(sub sim.ObjectsChangeSubscriber) *Adapter {
	sub.SubscribeObjectsChange(a)
	return a
}

// ObjectsChanged implements ObjectsChangeListener.
func (a *Adapter) ObjectsChanged(cc fx.ControlContext, objs ...sim.Object) {
	a.schedule(cc)
	for _, obj := range objs {
		a.dropUpdated(obj.Name())
		a.updated = append(a.updated, obj)
		delete(a.removedIDs, obj.Name())
	}
}

// ObjectsRemoved implements ObjectsChangeListener.
func (a *Adapter) ObjectsRemoved(cc fx.ControlContext, objs ...sim.Object) {
	a.schedule(cc)
	if a.removedIDs == nil {
		a.removedIDs = make(map[string]bool)
	}
	for _, obj := range objs {
		a.removedIDs[obj.Name()] = true
		a.dropUpdated(obj.Name())
	}
}

func (a *Adapter) dropUpdated(name string) {
	for i, obj := range a.updated {
		if obj.Name() == name {
			a.updated = append(a.updated[:i], a.updated[i+1:]...)
			return
		}
	}
}

// schedule reports the changes once the notifying level is done.
func (a *Adapter) schedule(cc fx.ControlContext) {
	if cc != nil && !a.scheduled {
		a.scheduled = true
		cc.PostRun(fx.ControlFunc(a.ReportChanges))
	}
}

// Messages collects the messages for the changes since the last call.
func (a *Adapter) Messages() []Message {
	var msgs []Message
	if a.initial {
		w, h := a.Config.W, a.Config.H
		msgs = []Message{
			{Action: ActionReset},
			{Action: ActionObject, Object: NewObject("corner", "corner-lt").With("loc", "lt").With(PropOrigin, &Pos{X: -w / 2, Y: -h / 2})},
			{Action: ActionObject, Object: NewObject("corner", "corner-lb").With("loc", "lb").With(PropOrigin, &Pos{X: -w / 2, Y: h / 2})},
			{Action: ActionObject, Object: NewObject("corner", "corner-rt").With("loc", "rt").With(PropOrigin, &Pos{X: w / 2, Y: -h / 2})},
			{Action: ActionObject, Object: NewObject("corner", "corner-rb").With("loc", "rb").With(PropOrigin, &Pos{X: w / 2, Y: h / 2})},
		}
		a.initial = false
		a.removedIDs = nil
	}

	for _, obj := range a.updated {
		for _, mapped := range a.Mapper.MapObject(obj) {
			if mapped == nil {
				continue
			}
			msgs = append(msgs, Message{
				Action: ActionObject,
				Object: mapped,
			})
		}
	}

	for id := range a.removedIDs {
		msgs = append(msgs, Message{
			Action:   ActionRemove,
			RemoveID: ObjectID(id),
		})
	}

	a.updated, a.removedIDs = nil, nil
	return msgs
}

// ReportChanges is a controller to report changes.
func (a *Adapter) ReportChanges(cc fx.ControlContext) error {
	a.scheduled = false
	msgs := a.Messages()
	if len(msgs) == 0 {
		return nil
	}
	encoded, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	out := a.Config.Output
	if out == nil {
		out = os.Stdout
	}
	if _, err := out.Write(append(encoded, '\n')); err != nil {
		glog.Warningf("see: %v", err)
		return err
	}
	return nil
}
