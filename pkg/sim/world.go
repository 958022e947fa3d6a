package sim

import (
	"github.com/robotalks/linecar/pkg/framework"
)

// World holds the tracks and the cars, and notifies listeners when
// objects change.
type World struct {
	Tracks []*Track
	Cars   []*Car

	ObjectsChangeCaster

	announced bool
}

// AddTracks adds tracks.
func (w *World) AddTracks(tracks ...*Track) *World {
	w.Tracks = append(w.Tracks, tracks...)
	w.announced = false
	return w
}

// AddCar adds a car to the world.
func (w *World) AddCar(c *Car) *World {
	c.World = w
	w.Cars = append(w.Cars, c)
	return w
}

// AddToLoop implements LoopAdder.
func (w *World) AddToLoop(loop *framework.Loop) {
	for _, c := range w.Cars {
		loop.Add(c)
	}
	loop.AddController(framework.PrLvIdle, framework.ControlFunc(w.NotifyChanges))
}

// NotifyChanges notifies listeners about tracks added and cars moved.
func (w *World) NotifyChanges(ctx framework.ControlContext) error {
	var objs []Object
	if !w.announced {
		for _, t := range w.Tracks {
			objs = append(objs, t)
		}
		w.announced = true
	}
	for _, c := range w.Cars {
		if c.Changed() {
			objs = append(objs, c)
		}
	}
	w.ObjectsChanged(ctx, objs...)
	return nil
}
