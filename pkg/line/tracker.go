package line

import (
	"sort"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/linecar/pkg/units"
)

// Defaults
const (
	// DefaultMatchGate is the maximum summed front+rear displacement of a line
	// between two cycles to keep its identity.
	DefaultMatchGate units.Length = 5 * units.Centimeter

	// parallelTolerance is the front/rear difference under which a line is
	// considered parallel to the car.
	parallelTolerance units.Length = units.Millimeter
)

// Config configures a Tracker.
type Config struct {
	// RowSpacing is the distance between the front and rear sensor rows.
	RowSpacing units.Length
	// MatchGate limits identity continuation, see DefaultMatchGate.
	MatchGate units.Length
	// HistorySize is the number of cycles kept in History.
	HistorySize int
	// Classifier is optional, consulted after every update.
	Classifier PatternClassifier
}

// Tracker maintains the identity of detected lines across cycles.
// It is not safe for concurrent use.
type Tracker struct {
	Config

	lines    Lines
	mainLine Line
	pattern  Pattern
	history  *History
	nextID   uint32
	lastTime time.Time
}

// NewTracker creates a Tracker.
func NewTracker(conf Config) *Tracker {
	if conf.MatchGate <= 0 {
		conf.MatchGate = DefaultMatchGate
	}
	return &Tracker{
		Config:  conf,
		lines:   make(Lines, 0, MaxLines),
		history: NewHistory(conf.HistorySize),
		nextID:  NoID + 1,
	}
}

// Lines gets the currently tracked lines.
func (t *Tracker) Lines() Lines {
	return t.lines
}

// MainLine gets the steering reference line. It keeps its last value while
// no lines are detected.
func (t *Tracker) MainLine() Line {
	return t.mainLine
}

// Pattern gets the last label from Classifier.
func (t *Tracker) Pattern() Pattern {
	return t.pattern
}

// History gets the history of tracked lines.
func (t *Tracker) History() *History {
	return t.history
}

// Update consumes the detections of one cycle.
func (t *Tracker) Update(now time.Time, front, rear Positions) {
	var dt time.Duration
	if !t.lastTime.IsZero() {
		dt = now.Sub(t.lastTime)
	}
	t.lastTime = now

	prev := t.lines
	if len(front) == 0 || len(rear) == 0 {
		t.lines = make(Lines, 0, MaxLines)
	} else {
		front = t.prune(front, prev, MaxLines, Line.front)
		rear = t.prune(rear, prev, MaxLines, Line.rear)
		front = t.prune(front, prev, len(rear), Line.front)
		rear = t.prune(rear, prev, len(front), Line.rear)
		lines := t.pair(front, rear)
		t.assignIDs(lines, prev, dt)
		t.lines = lines
		t.UpdateMainLine()
	}

	if c := t.Classifier; c != nil {
		t.pattern = c.Classify(t.lines, t.mainLine, now)
	}
	t.history.Push(StampedLines{Lines: t.lines, Time: now})
	if glog.V(4) {
		glog.Infof("lines: %+v main: %d", t.lines, t.mainLine.ID)
	}
}

// UpdateMainLine selects the main line from the tracked lines.
func (t *Tracker) UpdateMainLine() {
	switch len(t.lines) {
	case 0:
		// keep the previous main line.
	case 1:
		t.mainLine = t.lines[0]
	case 2:
		if t.lines[0].deviation(t.mainLine) <= t.lines[1].deviation(t.mainLine) {
			t.mainLine = t.lines[0]
		} else {
			t.mainLine = t.lines[1]
		}
	default:
		t.mainLine = t.lines[1]
	}
}

func (l Line) front() units.Length { return l.PosFront }
func (l Line) rear() units.Length  { return l.PosRear }

// prune removes detections until at most size remain. Each step drops the
// detection farthest from every reference line at that row.
func (t *Tracker) prune(pos Positions, refs Lines, size int, row func(Line) units.Length) Positions {
	if len(pos) <= size {
		return pos
	}
	if len(refs) == 0 {
		refs = Lines{t.mainLine}
	}
	pruned := append(make(Positions, 0, len(pos)), pos...)
	for len(pruned) > size {
		worst, worstDist := 0, units.Length(-1)
		for i, p := range pruned {
			minDist := units.Abs(p - row(refs[0]))
			for _, ref := range refs[1:] {
				if d := units.Abs(p - row(ref)); d < minDist {
					minDist = d
				}
			}
			if minDist > worstDist {
				worst, worstDist = i, minDist
			}
		}
		glog.V(4).Infof("drop detection %v", pruned[worst])
		pruned = append(pruned[:worst], pruned[worst+1:]...)
	}
	return pruned
}

// pair builds lines from same-index detections of equal sized rows.
func (t *Tracker) pair(front, rear Positions) Lines {
	lines := make(Lines, len(front), MaxLines)
	for i := range front {
		lines[i] = Line{
			PosFront: front[i],
			PosRear:  rear[i],
			Angle:    t.lineAngle(front[i], rear[i]),
		}
	}
	return lines
}

func (t *Tracker) lineAngle(front, rear units.Length) units.Angle {
	if units.Eq(front, rear, parallelTolerance) || t.RowSpacing <= 0 {
		return 0
	}
	return units.Atan2(float64(front-rear), float64(t.RowSpacing))
}

type match struct {
	cur, prev int
	cost      units.Length
}

// assignIDs matches the new lines against the previous ones, cheapest pair
// first. The sticky main line takes part when it is no longer tracked so
// that it survives detection gaps.
func (t *Tracker) assignIDs(lines, prev Lines, dt time.Duration) {
	candidates := prev
	if t.mainLine.IsValid() {
		if _, ok := prev.Find(t.mainLine.ID); !ok {
			candidates = append(prev.Clone(), t.mainLine)
		}
	}

	matches := make([]match, 0, len(lines)*len(candidates))
	for i, ln := range lines {
		for j, c := range candidates {
			if cost := ln.deviation(c); cost <= t.MatchGate {
				matches = append(matches, match{cur: i, prev: j, cost: cost})
			}
		}
	}
	sort.SliceStable(matches, func(a, b int) bool { return matches[a].cost < matches[b].cost })

	var usedCur [MaxLines]bool
	usedPrev := make([]bool, len(candidates))
	for _, m := range matches {
		if usedCur[m.cur] || usedPrev[m.prev] {
			continue
		}
		usedCur[m.cur], usedPrev[m.prev] = true, true
		old := candidates[m.prev]
		lines[m.cur].ID = old.ID
		if dt > 0 {
			lines[m.cur].AngularVelocity = (lines[m.cur].Angle - old.Angle).Over(dt)
		}
	}
	for i := range lines {
		if !usedCur[i] {
			lines[i].ID = t.nextID
			if t.nextID++; t.nextID == NoID {
				t.nextID++
			}
			glog.V(2).Infof("new line %d at %v", lines[i].ID, lines[i].PosFront)
		}
	}
}
