// Package sim simulates the car driving over a floor with painted lines.
//
// A simulated Car replaces the panels: each cycle it posts the odometry and
// line detections the panels would send, and applies the last actuation
// command to its vehicle model.
package sim

import (
	"github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/units"
)

// Size2D defines the rectangular size in 2D.
type Size2D struct {
	CX, CY units.Length
}

// Rect defines a rectangle in 2D, Pos is the corner with the smallest
// coordinates.
type Rect struct {
	Pos geom.Vec
	Size2D
}

// Rectangular object provides an rectangluar outline dimension in its own
// frame.
type Rectangular interface {
	OutlineRect() Rect
}

// Positionable2D object maintains a 2D pose.
type Positionable2D interface {
	Position2D() geom.Pose
}

// Object represents an object in the world.
type Object interface {
	framework.Named
}

// ObjectsChangeListener listens for object changes.
type ObjectsChangeListener interface {
	ObjectsChanged(framework.ControlContext, ...Object)
	ObjectsRemoved(framework.ControlContext, ...Object)
}

// ObjectsChangeSubscriber subscribes objects change notifications.
type ObjectsChangeSubscriber interface {
	SubscribeObjectsChange(ObjectsChangeListener)
}
