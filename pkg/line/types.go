// Package line tracks the lines seen by the two line sensor rows.
//
// Raw detections come in per cycle as position-sorted lateral offsets for the
// front and the rear row. The Tracker pairs them into Lines, keeps their
// identities stable across cycles and selects the main line used as the
// steering reference.
package line

import (
	"time"

	"github.com/robotalks/linecar/pkg/units"
)

// MaxLines is the maximum number of simultaneously tracked lines.
const MaxLines = 3

// NoID is never assigned to a tracked line.
const NoID uint32 = 0

// Line is a tracked line. Positions are lateral offsets at the sensor rows,
// left positive. Angle is relative to the car's forward axis.
type Line struct {
	ID              uint32
	PosFront        units.Length
	PosRear         units.Length
	Angle           units.Angle
	AngularVelocity units.AngularVelocity
}

// Lines is an ordered set of at most MaxLines lines, sorted by position.
type Lines []Line

// Positions are the raw detections of one sensor row, sorted by position.
type Positions []units.Length

// StampedLines is a snapshot of tracked lines.
type StampedLines struct {
	Lines Lines
	Time  time.Time
}

// Find looks up a line by ID.
func (l Lines) Find(id uint32) (Line, bool) {
	for _, ln := range l {
		if ln.ID == id {
			return ln, true
		}
	}
	return Line{}, false
}

// Clone copies the lines.
func (l Lines) Clone() Lines {
	if l == nil {
		return nil
	}
	return append(make(Lines, 0, len(l)), l...)
}

// IsValid indicates the line has been assigned by a Tracker.
func (l Line) IsValid() bool {
	return l.ID != NoID
}

// deviation is the sum of the absolute position differences at both rows.
func (l Line) deviation(o Line) units.Length {
	return units.Abs(l.PosFront-o.PosFront) + units.Abs(l.PosRear-o.PosRear)
}

// Pattern is a semantic label of the current line configuration.
type Pattern int

// Patterns
const (
	PatternNone Pattern = iota
	PatternSingleLine
	PatternAcceleration
	PatternBrake
	PatternLaneChange
	PatternJunction
	PatternDeadEnd
)

var patternNames = map[Pattern]string{
	PatternNone:         "none",
	PatternSingleLine:   "single-line",
	PatternAcceleration: "acceleration",
	PatternBrake:        "brake",
	PatternLaneChange:   "lane-change",
	PatternJunction:     "junction",
	PatternDeadEnd:      "dead-end",
}

// String implements fmt.Stringer.
func (p Pattern) String() string {
	if name, ok := patternNames[p]; ok {
		return name
	}
	return "unknown"
}

// PatternClassifier turns tracked lines into pattern labels.
// It is provided by maneuver logic outside of this package.
type PatternClassifier interface {
	Classify(lines Lines, mainLine Line, now time.Time) Pattern
}

// ClassifyFunc is the func form of PatternClassifier.
type ClassifyFunc func(lines Lines, mainLine Line, now time.Time) Pattern

// Classify implements PatternClassifier.
func (f ClassifyFunc) Classify(lines Lines, mainLine Line, now time.Time) Pattern {
	return f(lines, mainLine, now)
}
