package trajectory

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/units"
)

func at(x, y units.Length, angle units.Angle, speed units.Speed) Config {
	return Config{Pose: geom.Pose{Pos: geom.V(x, y), Angle: angle}, Speed: speed}
}

func straightLine(t *testing.T, length units.Length) *Trajectory {
	tr := New(car.DefaultGeometry())
	tr.SetStartConfig(at(0, 0, 0, units.MeterPerSecond), 0)
	require.NoError(t, tr.AppendLine(at(length, 0, 0, units.MeterPerSecond)))
	return tr
}

func TestStraightLinePerfectFollow(t *testing.T) {
	tr := straightLine(t, 10*units.Meter)
	require.InDelta(t, 10, tr.Length().Meters(), 1e-12)

	var prev units.Length
	for i := 0; i <= 50; i++ {
		d := units.Length(i) * 20 * units.Centimeter
		data := tr.Update(car.Props{
			Pose:     geom.Pose{Pos: geom.V(d, 0)},
			Speed:    units.MeterPerSecond,
			Distance: d,
		})
		require.InDelta(t, 1, data.Speed.MetersPerSecond(), 1e-9)
		require.InDelta(t, 0, data.LineControl.Actual.Pos.Meters(), 1e-9)
		require.InDelta(t, 0, data.LineControl.Actual.Angle.Radians(), 1e-9)
		require.Zero(t, data.LineControl.Target)
		require.Zero(t, data.RampTime)
		require.False(t, data.RearSteerEnabled)
		if i > 0 {
			require.InDelta(t, 0.2, (tr.CoveredDistance() - prev).Meters(), 1e-9)
		}
		prev = tr.CoveredDistance()
	}
	require.InDelta(t, 10, tr.CoveredDistance().Meters(), 1e-9)
}

func TestStraightLineNonperfectFollow(t *testing.T) {
	tr := straightLine(t, 10*units.Meter)
	l := car.DefaultGeometry().ProjectedWheelbase()
	for i := 0; i <= 50; i++ {
		f := float64(i) / 50
		d := units.Length(i) * 20 * units.Centimeter
		offset := units.Length(f) * 10 * units.Centimeter
		angle := units.Angle(f) * 10 * units.Degree
		data := tr.Update(car.Props{
			Pose:     geom.Pose{Pos: geom.V(d, offset), Angle: angle},
			Speed:    units.MeterPerSecond,
			Distance: d,
		})
		expect := -(offset + units.Length(l.Meters()*angle.Sin()))
		require.InDelta(t, expect.Meters(), data.LineControl.Actual.Pos.Meters(), 0.01)
		require.InDelta(t, -angle.Degrees(), data.LineControl.Actual.Angle.Degrees(), 1)
	}
}

func TestSpeedInterpolation(t *testing.T) {
	tr := New(car.DefaultGeometry())
	tr.SetStartConfig(at(0, 0, 0, 0), 0)
	require.NoError(t, tr.AppendLine(at(2*units.Meter, 0, 0, 2*units.MeterPerSecond)))
	l := car.DefaultGeometry().ProjectedWheelbase()
	data := tr.Update(car.Props{Pose: geom.Pose{Pos: geom.V(units.Meter-l, 0)}})
	require.InDelta(t, 1, data.Speed.MetersPerSecond(), 1e-9)
	data = tr.Update(car.Props{Pose: geom.Pose{Pos: geom.V(1.5*units.Meter-l, 0)}})
	require.InDelta(t, 1.5, data.Speed.MetersPerSecond(), 1e-9)
}

func TestCursorMonotonic(t *testing.T) {
	tr := New(car.DefaultGeometry())
	tr.SetStartConfig(at(0, 0, 0, units.MeterPerSecond), 0)
	for i := 1; i <= 100; i++ {
		require.NoError(t, tr.AppendLine(at(units.Length(i)*10*units.Centimeter, 0, 0, units.MeterPerSecond)))
	}
	require.Len(t, tr.Configs(), 101)
	require.InDelta(t, 10, tr.Length().Meters(), 1e-9)

	var prevCovered units.Length
	var prevSection int
	for i := 0; i <= 40; i++ {
		d := units.Length(i) * 20 * units.Centimeter
		tr.Update(car.Props{Pose: geom.Pose{Pos: geom.V(d, 0)}, Speed: units.MeterPerSecond, Distance: d})
		require.GreaterOrEqual(t, tr.CoveredDistance(), prevCovered)
		require.GreaterOrEqual(t, tr.SectionStart(), prevSection)
		if i > 0 {
			require.InDelta(t, 0.2, (tr.CoveredDistance() - prevCovered).Meters(), 1e-6)
		}
		prevCovered, prevSection = tr.CoveredDistance(), tr.SectionStart()
	}

	// a pose estimate jumping backwards never rewinds the path.
	data := tr.Update(car.Props{Pose: geom.Pose{Pos: geom.V(2*units.Meter, 0)}, Distance: 8 * units.Meter})
	require.Equal(t, prevSection, tr.SectionStart())
	require.Equal(t, prevCovered, tr.CoveredDistance())
	require.InDelta(t, 0, data.LineControl.Actual.Pos.Meters(), 1e-9)
}

func TestCircle(t *testing.T) {
	g := car.DefaultGeometry()
	tr := New(g)
	tr.SetStartConfig(at(0, 0, 0, units.MeterPerSecond), 0)
	center := geom.V(0, units.Meter)
	require.NoError(t, tr.AppendCircle(center, 90*units.Degree, 0.5*units.MeterPerSecond))

	configs := tr.Configs()
	require.Len(t, configs, 17)
	last, ok := tr.LastConfig()
	require.True(t, ok)
	require.InDelta(t, 1, last.Pose.Pos.X.Meters(), 1e-9)
	require.InDelta(t, 1, last.Pose.Pos.Y.Meters(), 1e-9)
	require.InDelta(t, 90, last.Pose.Angle.Degrees(), 1e-9)
	require.InDelta(t, 0.5, last.Speed.MetersPerSecond(), 1e-9)
	require.InDelta(t, math.Pi/2, tr.Length().Meters(), 0.002)
	for i := 1; i < len(configs); i++ {
		require.LessOrEqual(t, configs[i].Pose.Pos.Distance(configs[i-1].Pose.Pos), MaxSectionLength)
		require.InDelta(t, 1, configs[i].Pose.Pos.Distance(center).Meters(), 1e-9)
	}

	// the sensor row moves along the arc, tangent to it.
	var prevCovered units.Length
	arc := math.Pi / 2
	for s := 0.0; s <= arc; s += 0.01 {
		phi := units.Angle(s)
		ref := geom.V(units.Length(phi.Sin()), units.Length(1-phi.Cos()))
		pose := geom.Pose{Pos: ref.Sub(geom.Polar(g.ProjectedWheelbase(), phi)), Angle: phi}
		data := tr.Update(car.Props{Pose: pose, Speed: units.MeterPerSecond, Distance: units.Length(s)})
		require.InDelta(t, 0, data.LineControl.Actual.Pos.Meters(), 0.002)
		require.InDelta(t, 0, data.LineControl.Actual.Angle.Degrees(), 0.5)
		require.InDelta(t, 1-0.5*s/arc, data.Speed.MetersPerSecond(), 0.01)
		require.GreaterOrEqual(t, tr.CoveredDistance(), prevCovered)
		require.InDelta(t, s, tr.CoveredDistance().Meters(), 0.005)
		prevCovered = tr.CoveredDistance()
	}
}

func TestSineArc(t *testing.T) {
	testCases := []struct {
		name        string
		speed       units.Speed
		orientation OrientationUpdate
		midAngle    units.Angle
		endAngle    units.Angle
	}{
		{"fixed", units.MeterPerSecond, OrientationFix, 0, 0},
		{"path", units.MeterPerSecond, OrientationPath, units.Atan(0.1 * math.Pi), 0},
		{"path reversing", -units.MeterPerSecond, OrientationPath, units.PI + units.Atan(0.1*math.Pi), units.PI},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := New(car.DefaultGeometry())
			tr.SetStartConfig(at(0, 0, 0, tc.speed), 0)
			dest := at(units.Meter, 20*units.Centimeter, 0, tc.speed)
			require.NoError(t, tr.AppendSineArc(dest, 0, tc.orientation, -90*units.Degree, 90*units.Degree))

			configs := tr.Configs()
			require.Len(t, configs, 12)
			last := configs[len(configs)-1]
			require.InDelta(t, 1, last.Pose.Pos.X.Meters(), 1e-9)
			require.InDelta(t, 0.2, last.Pose.Pos.Y.Meters(), 1e-9)
			require.InDelta(t, 0, last.Pose.Angle.Diff(tc.endAngle).Radians(), 1e-9)

			for i := 1; i < len(configs); i++ {
				c := configs[i]
				require.LessOrEqual(t, c.Pose.Pos.Distance(configs[i-1].Pose.Pos).Meters(), MaxSectionLength.Meters()+1e-9)
				require.Equal(t, tc.speed, c.Speed)
				require.InDelta(t, 0.1*(1-math.Cos(math.Pi*c.Pose.Pos.X.Meters())), c.Pose.Pos.Y.Meters(), 1e-9)
			}

			// the sine is steepest at the middle of the transition.
			var steepest units.Angle
			for _, c := range configs[1:] {
				if a := c.Pose.Angle.Diff(tc.endAngle); units.Abs(a) > units.Abs(steepest) {
					steepest = a
				}
			}
			require.InDelta(t, 0, (tc.endAngle + steepest).Diff(tc.midAngle).Radians(), 0.01)
			require.InDelta(t, 1.024, tr.Length().Meters(), 0.005)
		})
	}
}

// sensorAt places the car so its sensor row is at p, heading angle.
func sensorAt(p geom.Vec, angle units.Angle) car.Props {
	l := car.DefaultGeometry().ProjectedWheelbase()
	return car.Props{Pose: geom.Pose{Pos: p.Sub(geom.Polar(l, angle)), Angle: angle}, Speed: units.MeterPerSecond}
}

func TestOffsetFromSection(t *testing.T) {
	diagonal := func(t *testing.T) *Trajectory {
		tr := New(car.DefaultGeometry())
		tr.SetStartConfig(at(0, 0, 0, units.MeterPerSecond), 0)
		require.NoError(t, tr.AppendLine(at(units.Meter, units.Meter, 0, units.MeterPerSecond)))
		return tr
	}
	laneChange := func(t *testing.T) *Trajectory {
		tr := New(car.DefaultGeometry())
		tr.SetStartConfig(at(0, 0, 0, units.MeterPerSecond), 0)
		dest := at(units.Meter, 30*units.Centimeter, 0, units.MeterPerSecond)
		require.NoError(t, tr.AppendSineArc(dest, 0, OrientationFix, -90*units.Degree, 90*units.Degree))
		return tr
	}

	testCases := []struct {
		name   string
		build  func(*testing.T) *Trajectory
		offset units.Length
	}{
		{"diagonal left", diagonal, 10 * units.Centimeter},
		{"diagonal right", diagonal, -10 * units.Centimeter},
		{"lane change left", laneChange, 5 * units.Centimeter},
		{"lane change right", laneChange, -5 * units.Centimeter},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tr := tc.build(t)
			configs := tr.Configs()
			// the section around the middle of the path.
			i := 0
			for i+2 < len(configs) && configs[i+1].Pose.Pos.X < 50*units.Centimeter {
				i++
			}
			start, end := configs[i].Pose.Pos, configs[i+1].Pose.Pos
			dir := end.Sub(start).Unit()
			mid := start.Add(end.Sub(start).Scale(0.5))
			normal := geom.V(-dir.Y, dir.X)
			props := sensorAt(mid.Add(normal.Scale(float64(tc.offset))), units.Atan2(float64(dir.Y), float64(dir.X)))

			data := tr.Update(props)
			require.Equal(t, i, tr.SectionStart())
			require.InDelta(t, -tc.offset.Meters(), data.LineControl.Actual.Pos.Meters(), 1e-6)
		})
	}
}

func TestFinishedFromSensorPosition(t *testing.T) {
	tr := straightLine(t, units.Meter)
	lines := line.Lines{{ID: 1}}

	// the odometer has not moved, the sensor row is half way.
	props := sensorAt(geom.V(50*units.Centimeter, 0), 0)
	tr.Update(props)
	require.False(t, tr.Finished(props, lines, 40*units.Centimeter))
	require.False(t, tr.Finished(props, nil, 60*units.Centimeter))
	require.True(t, tr.Finished(props, lines, 60*units.Centimeter))

	props = sensorAt(geom.V(units.Meter+units.Centimeter, 0), 0)
	tr.Update(props)
	require.True(t, tr.Finished(props, nil, 0))
}

func TestSineArcRotatedFrame(t *testing.T) {
	tr := New(car.DefaultGeometry())
	tr.SetStartConfig(at(units.Meter, units.Meter, 90*units.Degree, units.MeterPerSecond), 0)
	dest := at(0.9*units.Meter, 2*units.Meter, 0, units.MeterPerSecond)
	require.NoError(t, tr.AppendSineArc(dest, 90*units.Degree, OrientationPath, 0, 90*units.Degree))
	last, _ := tr.LastConfig()
	require.InDelta(t, 0.9, last.Pose.Pos.X.Meters(), 1e-9)
	require.InDelta(t, 2, last.Pose.Pos.Y.Meters(), 1e-9)
	require.InDelta(t, 90, last.Pose.Angle.Degrees(), 1e-6)
	first := tr.Configs()[1]
	require.Greater(t, first.Pose.Angle.Degrees(), 90.0)
}

func TestBuilderErrors(t *testing.T) {
	tr := New(car.DefaultGeometry())
	require.ErrorIs(t, tr.AppendLine(at(units.Meter, 0, 0, 0)), ErrNoStartConfig)
	require.ErrorIs(t, tr.AppendCircle(geom.V(0, units.Meter), units.PI, 0), ErrNoStartConfig)
	require.ErrorIs(t, tr.AppendSineArc(at(units.Meter, 0, 0, 0), 0, OrientationFix, 0, units.PI/2), ErrNoStartConfig)

	tr.SetStartConfig(at(0, 0, 0, units.MeterPerSecond), 0)
	tr.SetStartConfig(at(units.Meter, units.Meter, units.PI, 0), 0)
	require.Len(t, tr.Configs(), 1)
	require.Equal(t, units.MeterPerSecond, tr.Update(car.Props{}).Speed)

	require.ErrorIs(t, tr.AppendSineArc(at(units.Meter, 0, 0, 0), 0, OrientationFix, 0, units.PI), ErrDegenerate)

	for i := 1; i < MaxConfigs-10; i++ {
		require.NoError(t, tr.AppendLine(at(units.Length(i)*units.Centimeter, 0, 0, units.MeterPerSecond)))
	}
	length := tr.Length()
	// 20 sections do not fit, nothing is appended.
	last, _ := tr.LastConfig()
	require.ErrorIs(t, tr.AppendCircle(last.Pose.Pos.Add(geom.V(0, units.Meter)), 2*units.Radian, 0), ErrFull)
	require.Len(t, tr.Configs(), MaxConfigs-10)
	require.Equal(t, length, tr.Length())

	for len(tr.Configs()) < MaxConfigs {
		require.NoError(t, tr.AppendLine(last))
	}
	require.ErrorIs(t, tr.AppendLine(last), ErrFull)
}

func TestFinishedAndClear(t *testing.T) {
	tr := straightLine(t, units.Meter)
	l := car.DefaultGeometry().ProjectedWheelbase()
	lines := line.Lines{{ID: 1}}

	props := car.Props{Pose: geom.Pose{Pos: geom.V(50*units.Centimeter-l, 0)}, Distance: 50 * units.Centimeter}
	tr.Update(props)
	require.False(t, tr.Finished(props, nil, 60*units.Centimeter))
	require.False(t, tr.Finished(props, lines, 40*units.Centimeter))
	require.True(t, tr.Finished(props, lines, 60*units.Centimeter))

	props = car.Props{Pose: geom.Pose{Pos: geom.V(units.Meter, 0)}, Distance: units.Meter}
	tr.Update(props)
	require.True(t, tr.Finished(props, nil, 0))

	tr.Clear()
	require.Zero(t, tr.Length())
	require.Zero(t, tr.CoveredDistance())
	_, ok := tr.LastConfig()
	require.False(t, ok)
	require.Zero(t, tr.Update(props))
	require.ErrorIs(t, tr.AppendLine(at(units.Meter, 0, 0, 0)), ErrNoStartConfig)

	tr.SetStartConfig(at(0, 0, 0, units.MeterPerSecond), units.Meter)
	require.NoError(t, tr.AppendLine(at(units.Meter, 0, 0, units.MeterPerSecond)))
	tr.Update(car.Props{Distance: 1.25 * units.Meter})
	require.InDelta(t, 0.25, tr.CoveredDistance().Meters(), 1e-9)
}
