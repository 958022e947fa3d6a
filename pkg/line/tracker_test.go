package line

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/linecar/pkg/units"
)

const cycle = 10 * time.Millisecond

func cm(vals ...float64) Positions {
	pos := make(Positions, len(vals))
	for i, v := range vals {
		pos[i] = units.Length(v) * units.Centimeter
	}
	return pos
}

type trackerTestEnv struct {
	t       *testing.T
	tracker *Tracker
	now     time.Time
}

func newTrackerTestEnv(t *testing.T) *trackerTestEnv {
	return &trackerTestEnv{
		t:       t,
		tracker: NewTracker(Config{RowSpacing: 16 * units.Centimeter}),
		now:     time.Unix(1000, 0),
	}
}

func (e *trackerTestEnv) update(front, rear Positions) Lines {
	e.now = e.now.Add(cycle)
	e.tracker.Update(e.now, front, rear)
	return e.tracker.Lines()
}

func (e *trackerTestEnv) ids() []uint32 {
	var ids []uint32
	for _, l := range e.tracker.Lines() {
		ids = append(ids, l.ID)
	}
	return ids
}

func TestLineAngle(t *testing.T) {
	testCases := []struct {
		name   string
		front  float64
		rear   float64
		expect units.Angle
	}{
		{"parallel", 1, 1, 0},
		{"within tolerance", 1.05, 1, 0},
		{"slanting left", 2, 0, units.Atan2(2, 16)},
		{"slanting right", -2, 2, units.Atan2(-4, 16)},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTrackerTestEnv(t)
			lines := env.update(cm(tc.front), cm(tc.rear))
			require.Len(t, lines, 1)
			require.InDelta(t, tc.expect.Radians(), lines[0].Angle.Radians(), 1e-9)
			require.InDelta(t, tc.front, lines[0].PosFront.Centimeters(), 1e-9)
			require.InDelta(t, tc.rear, lines[0].PosRear.Centimeters(), 1e-9)
		})
	}
}

func TestStableIDs(t *testing.T) {
	env := newTrackerTestEnv(t)
	env.update(cm(-8, 0, 8), cm(-8, 0, 8))
	require.Equal(t, []uint32{1, 2, 3}, env.ids())
	for i := 0; i < 50; i++ {
		noise := 0.5 * math.Sin(float64(i))
		env.update(cm(-8+noise, noise, 8+noise), cm(-8-noise, -noise, 8-noise))
		require.Equal(t, []uint32{1, 2, 3}, env.ids(), "cycle %d", i)
	}
}

func TestEmptyRowClearsLines(t *testing.T) {
	testCases := []struct {
		name  string
		front Positions
		rear  Positions
	}{
		{"no front", nil, cm(0)},
		{"no rear", cm(0), nil},
		{"none", nil, nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			env := newTrackerTestEnv(t)
			env.update(cm(1), cm(1))
			main := env.tracker.MainLine()
			require.True(t, main.IsValid())
			require.Empty(t, env.update(tc.front, tc.rear))
			require.Equal(t, main, env.tracker.MainLine())
		})
	}
}

func TestMainLineSticky(t *testing.T) {
	env := newTrackerTestEnv(t)
	env.update(cm(1), cm(1))
	main := env.tracker.MainLine()
	for i := 0; i < 5; i++ {
		env.update(nil, nil)
		require.Equal(t, main.ID, env.tracker.MainLine().ID)
	}
	env.update(cm(1.5), cm(1.2))
	require.Equal(t, main.ID, env.tracker.MainLine().ID)
	require.InDelta(t, 1.5, env.tracker.MainLine().PosFront.Centimeters(), 1e-9)
}

func TestMainLineSelection(t *testing.T) {
	env := newTrackerTestEnv(t)

	env.update(cm(0), cm(0))
	require.Equal(t, uint32(1), env.tracker.MainLine().ID)

	// a second line appears on the left, the main line stays.
	env.update(cm(0, 6), cm(0, 6))
	require.Equal(t, []uint32{1, 2}, env.ids())
	require.Equal(t, uint32(1), env.tracker.MainLine().ID)

	// three lines, the middle one is always selected.
	env.update(cm(-6, 0.5, 6), cm(-6, 0.5, 6))
	require.Equal(t, []uint32{3, 1, 2}, env.ids())
	require.Equal(t, uint32(1), env.tracker.MainLine().ID)
	env.update(cm(-3, 3, 9), cm(-3, 3, 9))
	require.Equal(t, env.tracker.Lines()[1], env.tracker.MainLine())

	// back to two lines: the one closest to the previous main line.
	env.update(cm(3.5, 9), cm(3.5, 9))
	require.InDelta(t, 3.5, env.tracker.MainLine().PosFront.Centimeters(), 1e-9)
}

func TestPruneUnbalancedRows(t *testing.T) {
	env := newTrackerTestEnv(t)
	env.update(cm(0), cm(0))

	// a spurious detection on the front row only.
	lines := env.update(cm(-10, 0.2, 10), cm(0.1))
	require.Len(t, lines, 1)
	require.Equal(t, uint32(1), lines[0].ID)
	require.InDelta(t, 0.2, lines[0].PosFront.Centimeters(), 1e-9)

	// and on the rear row.
	lines = env.update(cm(0.3), cm(0.2, 12))
	require.Len(t, lines, 1)
	require.Equal(t, uint32(1), lines[0].ID)
	require.InDelta(t, 0.2, lines[0].PosRear.Centimeters(), 1e-9)
}

func TestPruneWithoutHistory(t *testing.T) {
	env := newTrackerTestEnv(t)
	lines := env.update(cm(-9, 1, 12), cm(2))
	require.Len(t, lines, 1)
	require.InDelta(t, 1, lines[0].PosFront.Centimeters(), 1e-9)
}

func TestPruneToCapacity(t *testing.T) {
	env := newTrackerTestEnv(t)
	env.update(cm(-5, 0, 5), cm(-5, 0, 5))
	lines := env.update(cm(-5, 0, 5, 15), cm(-20, -5, 0, 5))
	require.Len(t, lines, MaxLines)
	require.Equal(t, []uint32{1, 2, 3}, env.ids())
}

func TestAngularVelocity(t *testing.T) {
	env := newTrackerTestEnv(t)
	env.update(cm(0), cm(0))
	lines := env.update(cm(1.6), cm(0))
	require.Len(t, lines, 1)
	expect := units.Atan2(1.6, 16).Over(cycle)
	require.InDelta(t, expect.RadiansPerSecond(), lines[0].AngularVelocity.RadiansPerSecond(), 1e-9)
}

func TestClassifierAndHistory(t *testing.T) {
	env := newTrackerTestEnv(t)
	var calls int
	env.tracker.Classifier = ClassifyFunc(func(lines Lines, mainLine Line, now time.Time) Pattern {
		calls++
		if len(lines) == 1 {
			return PatternSingleLine
		}
		return PatternJunction
	})
	env.update(cm(0), cm(0))
	require.Equal(t, PatternSingleLine, env.tracker.Pattern())
	env.update(cm(0, 6), cm(0, 6))
	require.Equal(t, PatternJunction, env.tracker.Pattern())
	require.Equal(t, 2, calls)
	require.Equal(t, "junction", env.tracker.Pattern().String())

	h := env.tracker.History()
	require.Equal(t, 2, h.Len())
	latest, ok := h.Peek(0)
	require.True(t, ok)
	require.Len(t, latest.Lines, 2)
	require.Equal(t, env.now, latest.Time)
	prev, ok := h.FindLine(1, 1)
	require.True(t, ok)
	require.Equal(t, uint32(1), prev.ID)
	_, ok = h.Peek(2)
	require.False(t, ok)
}

func TestHistoryRing(t *testing.T) {
	h := NewHistory(3)
	for i := 0; i < 5; i++ {
		h.Push(StampedLines{Lines: Lines{{ID: uint32(i)}}})
	}
	require.Equal(t, 3, h.Len())
	for back, expect := range []uint32{4, 3, 2} {
		s, ok := h.Peek(back)
		require.True(t, ok)
		require.Equal(t, expect, s.Lines[0].ID)
	}
	_, ok := h.Peek(3)
	require.False(t, ok)
	_, ok = h.Peek(-1)
	require.False(t, ok)

	lines := Lines{{ID: 7}}
	h.Push(StampedLines{Lines: lines})
	lines[0].ID = 8
	s, _ := h.Peek(0)
	require.Equal(t, uint32(7), s.Lines[0].ID)

	h.Clear()
	require.Equal(t, 0, h.Len())
}
