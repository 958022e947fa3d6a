package see

import (
	"strings"

	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/sim"
	"github.com/robotalks/linecar/pkg/units"
)

// VisibleObject is an object which can be visualized as a shape.
type VisibleObject interface {
	sim.Object
	sim.Rectangular
	sim.Positionable2D
}

// Object is the data model used to represents an object.
type Object map[string]interface{}

// Rect is object rect area.
type Rect struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// Pos is a position.
type Pos struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ObjectMapper maps sim.Object into Object data model.
type ObjectMapper interface {
	MapObject(sim.Object) []Object
}

// MapObjectFunc is the func form of ObjectMapper.
type MapObjectFunc func(sim.Object) []Object

// MapObject implements ObjectMapper.
func (f MapObjectFunc) MapObject(obj sim.Object) []Object {
	return f(obj)
}

// Message is the message for see.
type Message struct {
	Action   string `json:"action"`
	Object   Object `json:"object,omitempty"`
	RemoveID string `json:"id,omitempty"`
}

// Actions
const (
	ActionReset  = "reset"
	ActionObject = "object"
	ActionRemove = "remove"
)

// Properties
const (
	PropID     = "id"
	PropType   = "type"
	PropRect   = "rect"
	PropOrigin = "origin"
	PropRadius = "radius"
	PropRotate = "rotate"
	PropPoints = "points"
	PropStyle  = "style"
	PropStyles = "styles"
)

// Object types
const (
	TypeCar    = "car"
	TypeTrack  = "path"
	TypeSensor = "dot"
)

// ObjectID converts object name to ID.
func ObjectID(name string) string {
	return strings.Replace(name, "/", ".", -1)
}

// NewObject creates Object.
func NewObject(typ, id string) Object {
	o := make(Object)
	o[PropID] = id
	o[PropType] = typ
	return o
}

func mm(l units.Length) float64 {
	return l.Millimeters()
}

func posOf(v geom.Vec) Pos {
	return Pos{X: mm(v.X), Y: mm(v.Y)}
}

// ObjectFrom constructs an object from VisibleObject. The rect is in the
// local frame of the object.
func ObjectFrom(typ string, vo VisibleObject) Object {
	rc, po := vo.OutlineRect(), vo.Position2D()
	rad := rc.Pos.Norm()
	if far := rc.Pos.Add(geom.V(rc.CX, rc.CY)).Norm(); far > rad {
		rad = far
	}
	return NewObject(typ, ObjectID(vo.Name())).
		At(po.Pos).
		Rc(rc.Pos.X, rc.Pos.Y, rc.CX, rc.CY).
		Radius(rad).
		Rotate(po.Angle)
}

// Rc sets rect.
func (o Object) Rc(x, y, w, h units.Length) Object {
	o[PropRect] = &Rect{X: mm(x), Y: mm(y), W: mm(w), H: mm(h)}
	return o
}

// At sets origin.
func (o Object) At(p geom.Vec) Object {
	pos := posOf(p)
	o[PropOrigin] = &pos
	return o
}

// Radius sets radius.
func (o Object) Radius(r units.Length) Object {
	o[PropRadius] = mm(r)
	return o
}

// Rotate sets rotate.
func (o Object) Rotate(a units.Angle) Object {
	o[PropRotate] = a.Degrees()
	return o
}

// Points sets the vertices of a path.
func (o Object) Points(points []geom.Vec) Object {
	pts := make([]Pos, len(points))
	for i, p := range points {
		pts[i] = posOf(p)
	}
	o[PropPoints] = pts
	return o
}

// With sets a custom property.
func (o Object) With(key string, val interface{}) Object {
	o[key] = val
	return o
}

// DefaultMapper maps cars with their line detections and tracks.
var DefaultMapper = MapObjectFunc(func(obj sim.Object) []Object {
	switch o := obj.(type) {
	case *sim.Car:
		objs := []Object{ObjectFrom(TypeCar, o)}
		pose := o.Position2D()
		x := o.Geometry.ProjectedWheelbase()
		front, rear := o.Detections()
		addDots := func(row string, x units.Length, pos []units.Length) {
			dots := make([]Pos, len(pos))
			for i, p := range pos {
				dots[i] = posOf(pose.Transform(geom.V(x, p)))
			}
			objs = append(objs, NewObject(TypeSensor, ObjectID(o.Name())+"."+row).With(PropPoints, dots))
		}
		addDots("front", x, front)
		addDots("rear", x-o.Geometry.RowSpacing, rear)
		return objs
	case *sim.Track:
		return []Object{NewObject(TypeTrack, ObjectID(o.Name())).Points(o.Points)}
	case VisibleObject:
		return []Object{ObjectFrom("object", o)}
	}
	return nil
})
