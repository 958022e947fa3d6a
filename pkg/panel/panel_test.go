package panel

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/units"
)

func encode(t *testing.T, frames ...*Frame) []byte {
	var buf bytes.Buffer
	for _, f := range frames {
		_, err := f.WriteTo(&buf)
		require.NoError(t, err)
	}
	return buf.Bytes()
}

func parseAll(p *Parser, in []byte) (frames []*Frame, errs []error) {
	for _, b := range in {
		f, err := p.Parse(b)
		if err != nil {
			errs = append(errs, err)
		}
		if f != nil {
			frames = append(frames, f)
		}
	}
	return
}

func TestCRC8(t *testing.T) {
	require.Equal(t, byte(0xBC), crc8(0, []byte("123456789")...))
	require.Equal(t, byte(0), crc8(0))
}

func TestFrame(t *testing.T) {
	testCases := []struct {
		name  string
		frame Frame
		head  []byte
	}{
		{"no data", Frame{Code: CodeActuate}, []byte{0xA5, 0x02, 0}},
		{"data", Frame{Code: CodeLineDetect, Data: []byte{1, 2, 3}}, []byte{0xA5, 0x01, 3, 1, 2, 3}},
		{"sync in data", Frame{Code: CodeOdometry, Data: []byte{0xA5, 0xA5}}, []byte{0xA5, 0x03, 2, 0xA5, 0xA5}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b, err := tc.frame.Bytes()
			require.NoError(t, err)
			require.Equal(t, tc.head, b[:len(b)-1])
			require.Equal(t, crc8(0, tc.head[1:]...), b[len(b)-1])

			var buf bytes.Buffer
			n, err := tc.frame.WriteTo(&buf)
			require.NoError(t, err)
			require.Equal(t, b, buf.Bytes())
			require.Equal(t, int64(len(b)), n)

			var p Parser
			frames, errs := parseAll(&p, b)
			require.Empty(t, errs)
			require.Len(t, frames, 1)
			require.Equal(t, tc.frame.Code, frames[0].Code)
			require.Equal(t, len(tc.frame.Data), len(frames[0].Data))
			require.False(t, p.Receiving())
		})
	}

	_, err := (&Frame{Data: make([]byte, MaxDataLen+1)}).Bytes()
	require.ErrorIs(t, err, ErrTooLarge)
	require.Equal(t, "odometry", CodeOdometry.String())
	require.Equal(t, "code-7f", Code(0x7f).String())
}

func TestParserRecovers(t *testing.T) {
	f1 := &Frame{Code: CodeLineDetect, Data: []byte{1, 0}}
	f2 := &Frame{Code: CodeOdometry, Data: []byte{9}}
	good := encode(t, f1)
	bad := encode(t, f2)
	bad[3] ^= 0xff

	var stream []byte
	stream = append(stream, 0x00, 0x13, 0x37)
	stream = append(stream, good...)
	stream = append(stream, bad...)
	stream = append(stream, good...)

	var p Parser
	frames, errs := parseAll(&p, stream)
	require.Len(t, frames, 2)
	require.Equal(t, f1, frames[0])
	require.Equal(t, f1, frames[1])
	require.Len(t, errs, 1)
	var csErr *ChecksumError
	require.ErrorAs(t, errs[0], &csErr)
	require.Equal(t, CodeOdometry, csErr.Code)

	p.Parse(SyncByte)
	require.True(t, p.Receiving())
	p.Reset()
	require.False(t, p.Receiving())
}

func TestPayloads(t *testing.T) {
	testCases := []struct {
		name    string
		payload Payload
		expect  Payload
	}{
		{
			name: "line detect",
			payload: LineDetect{
				Front: line.Positions{-2 * units.Centimeter, 0, 1.23 * units.Centimeter},
				Rear:  line.Positions{0.5 * units.Millimeter},
			},
			expect: LineDetect{
				Front: line.Positions{-2 * units.Centimeter, 0, 1.23 * units.Centimeter},
				Rear:  line.Positions{0.5 * units.Millimeter},
			},
		},
		{
			name:    "no lines",
			payload: LineDetect{},
			expect:  LineDetect{Front: line.Positions{}, Rear: line.Positions{}},
		},
		{
			name:    "actuate",
			payload: Actuate{Speed: -1.5 * units.MeterPerSecond, Steering: units.Degrees(-12.34), RearSteer: true},
			expect:  Actuate{Speed: -1.5 * units.MeterPerSecond, Steering: units.Degrees(-12.34), RearSteer: true},
		},
		{
			name:    "actuate saturated",
			payload: Actuate{Speed: 100 * units.MeterPerSecond, Steering: units.Degrees(400)},
			expect:  Actuate{Speed: 32.767 * units.MeterPerSecond, Steering: units.Degrees(327.67)},
		},
		{
			name: "odometry",
			payload: Odometry{
				Pose:     geom.Pose{Pos: geom.V(-3*units.Meter, 12.5*units.Meter), Angle: units.Degrees(-135)},
				Speed:    0.8 * units.MeterPerSecond,
				Distance: 42 * units.Meter,
			},
			expect: Odometry{
				Pose:     geom.Pose{Pos: geom.V(-3*units.Meter, 12.5*units.Meter), Angle: units.Degrees(-135)},
				Speed:    0.8 * units.MeterPerSecond,
				Distance: 42 * units.Meter,
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFrame(tc.payload)
			require.NoError(t, err)
			require.Equal(t, tc.payload.Code(), f.Code)
			decoded, err := Decode(f)
			require.NoError(t, err)
			requirePayload(t, tc.expect, decoded)
		})
	}
}

func requirePayload(t *testing.T, expect, actual Payload) {
	const eps = 1e-9
	switch e := expect.(type) {
	case LineDetect:
		a := actual.(LineDetect)
		require.Len(t, a.Front, len(e.Front))
		require.Len(t, a.Rear, len(e.Rear))
		for i := range e.Front {
			require.InDelta(t, e.Front[i].Meters(), a.Front[i].Meters(), eps)
		}
		for i := range e.Rear {
			require.InDelta(t, e.Rear[i].Meters(), a.Rear[i].Meters(), eps)
		}
	case Actuate:
		a := actual.(Actuate)
		require.InDelta(t, e.Speed.MetersPerSecond(), a.Speed.MetersPerSecond(), eps)
		require.InDelta(t, e.Steering.Degrees(), a.Steering.Degrees(), eps)
		require.Equal(t, e.RearSteer, a.RearSteer)
	case Odometry:
		a := actual.(Odometry)
		require.InDelta(t, e.Pose.Pos.X.Meters(), a.Pose.Pos.X.Meters(), eps)
		require.InDelta(t, e.Pose.Pos.Y.Meters(), a.Pose.Pos.Y.Meters(), eps)
		require.InDelta(t, e.Pose.Angle.Degrees(), a.Pose.Angle.Degrees(), eps)
		require.InDelta(t, e.Speed.MetersPerSecond(), a.Speed.MetersPerSecond(), eps)
		require.InDelta(t, e.Distance.Meters(), a.Distance.Meters(), eps)
	default:
		t.Fatalf("unexpected payload %T", expect)
	}
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		name  string
		frame Frame
	}{
		{"line detect header", Frame{Code: CodeLineDetect, Data: []byte{1}}},
		{"line detect data", Frame{Code: CodeLineDetect, Data: []byte{1, 1, 0, 0}}},
		{"actuate", Frame{Code: CodeActuate, Data: []byte{1, 2, 3}}},
		{"odometry", Frame{Code: CodeOdometry}},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(&tc.frame)
			require.ErrorIs(t, err, ErrShortPayload)
		})
	}

	_, err := Decode(&Frame{Code: 0x42})
	var unknown *UnknownCodeError
	require.ErrorAs(t, err, &unknown)
	require.Equal(t, Code(0x42), unknown.Code)
}

func TestLineDetectSorted(t *testing.T) {
	f, err := NewFrame(LineDetect{
		Front: line.Positions{units.Centimeter, -units.Centimeter},
		Rear:  line.Positions{},
	})
	require.NoError(t, err)
	p, err := Decode(f)
	require.NoError(t, err)
	front := p.(LineDetect).Front
	require.True(t, front[0] < front[1])
}

type fakeChannel struct {
	in  io.Reader
	out bytes.Buffer
}

func (c *fakeChannel) Read(b []byte) (int, error)  { return c.in.Read(b) }
func (c *fakeChannel) Write(b []byte) (int, error) { return c.out.Write(b) }

func TestLinkReceive(t *testing.T) {
	detect, err := NewFrame(LineDetect{Front: line.Positions{0}, Rear: line.Positions{0}})
	require.NoError(t, err)
	corrupted := encode(t, detect)
	corrupted[len(corrupted)-1] ^= 1

	var stream []byte
	stream = append(stream, encode(t, detect)...)
	stream = append(stream, corrupted...)
	stream = append(stream, encode(t, &Frame{Code: 0x42})...)

	var received []*Frame
	l := NewLink(&fakeChannel{in: bytes.NewReader(stream)})
	l.Handler = HandleFrameFunc(func(ctx context.Context, f *Frame) {
		received = append(received, f)
	})
	require.ErrorIs(t, l.Run(context.Background()), io.EOF)
	require.Len(t, received, 2)
	require.Equal(t, CodeLineDetect, received[0].Code)
	require.Equal(t, Stats{Received: 2, ChecksumErrors: 1}, l.Stats())
}

func TestLinkInLoop(t *testing.T) {
	odo := Odometry{Speed: units.MeterPerSecond, Distance: 2 * units.Meter}
	detect := LineDetect{Front: line.Positions{units.Centimeter}, Rear: line.Positions{units.Centimeter}}
	var stream []byte
	for _, p := range []Payload{odo, Actuate{Speed: units.MeterPerSecond}, detect} {
		f, err := NewFrame(p)
		require.NoError(t, err)
		stream = append(stream, encode(t, f)...)
	}
	ch := &fakeChannel{in: bytes.NewReader(stream)}
	l := NewLink(ch)

	loop := &framework.Loop{Interval: time.Millisecond}
	got := make(chan []framework.Message, 8)
	loop.AddController(framework.PrLvSense, framework.ControlFunc(func(ctx framework.ControlContext) error {
		var msgs []framework.Message
		ctx.Messages().ProcessMessages(framework.ProcessMessageFunc(func(mc framework.MessageProcessingContext) {
			msgs = append(msgs, mc.CurrentMessage())
			mc.MessageTaken()
		}))
		if len(msgs) > 0 {
			got <- msgs
		}
		return nil
	}))
	loop.Add(l)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	var msgs []framework.Message
	for len(msgs) < 2 {
		select {
		case m := <-got:
			msgs = append(msgs, m...)
		case <-time.After(5 * time.Second):
			t.Fatal("timeout")
		}
	}
	cancel()
	<-done
	require.Len(t, msgs, 2)
	require.IsType(t, Odometry{}, msgs[0])
	require.IsType(t, LineDetect{}, msgs[1])
	require.Equal(t, uint64(3), l.Stats().Received)
}

func TestLinkSendsActuation(t *testing.T) {
	ch := &fakeChannel{in: bytes.NewReader(nil)}
	l := NewLink(ch)
	loop := framework.NewLoop()
	loop.AddController(framework.PrLvControl, framework.ControlFunc(func(ctx framework.ControlContext) error {
		ctx.Messages().AddMessages(
			Actuate{Speed: units.MeterPerSecond},
			Actuate{Speed: 2 * units.MeterPerSecond, Steering: units.Degrees(10)},
		)
		return nil
	}))
	loop.Add(l)
	loop.Step(context.Background(), time.Now())
	loop.Step(context.Background(), time.Now())

	var p Parser
	frames, errs := parseAll(&p, ch.out.Bytes())
	require.Empty(t, errs)
	require.Len(t, frames, 2)
	for _, f := range frames {
		payload, err := Decode(f)
		require.NoError(t, err)
		requirePayload(t, Actuate{Speed: 2 * units.MeterPerSecond, Steering: units.Degrees(10)}, payload)
	}
	require.Equal(t, uint64(2), l.Stats().Sent)
}
