package see

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/linecar/pkg/car"
	"github.com/robotalks/linecar/pkg/framework"
	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/panel"
	"github.com/robotalks/linecar/pkg/sim"
	"github.com/robotalks/linecar/pkg/units"
)

type decodedMessage struct {
	Action string                 `json:"action"`
	Object map[string]interface{} `json:"object"`
	ID     string                 `json:"id"`
}

func decodeLines(t *testing.T, out *bytes.Buffer) [][]decodedMessage {
	var res [][]decodedMessage
	for _, ln := range bytes.Split(bytes.TrimSpace(out.Bytes()), []byte("\n")) {
		if len(ln) == 0 {
			continue
		}
		var msgs []decodedMessage
		require.NoError(t, json.Unmarshal(ln, &msgs))
		res = append(res, msgs)
	}
	out.Reset()
	return res
}

func TestAdapterReportsWorld(t *testing.T) {
	var out bytes.Buffer
	conf := NewConfig()
	conf.Output = &out

	c := sim.NewCar("0", car.DefaultGeometry())
	c.Place(geom.Pose{Pos: geom.V(units.Meter, 0), Angle: units.PI / 2})
	world := (&sim.World{}).
		AddTracks(sim.StraightTrack("x", geom.V(units.Meter, -units.Meter), geom.V(units.Meter, units.Meter))).
		AddCar(c)
	conf.NewAdapter().Subscribe(world)

	loop := framework.NewLoop().Add(world)
	now := time.Unix(0, 0)
	loop.Step(context.Background(), now)

	lines := decodeLines(t, &out)
	require.Len(t, lines, 1)
	msgs := lines[0]
	require.Len(t, msgs, 9)
	require.Equal(t, ActionReset, msgs[0].Action)
	for _, msg := range msgs[1:5] {
		require.Equal(t, "corner", msg.Object[PropType])
	}

	track := msgs[5].Object
	require.Equal(t, "track.x", track[PropID])
	require.Equal(t, TypeTrack, track[PropType])
	require.Len(t, track[PropPoints], 2)

	carObj := msgs[6].Object
	require.Equal(t, "car.0", carObj[PropID])
	require.InDelta(t, 90, carObj[PropRotate], 1e-9)
	origin := carObj[PropOrigin].(map[string]interface{})
	require.InDelta(t, 1000, origin["x"], 1e-6)
	require.InDelta(t, 0, origin["y"], 1e-6)

	front := msgs[7].Object
	require.Equal(t, "car.0.front", front[PropID])
	require.Len(t, front[PropPoints], 1)
	dot := front[PropPoints].([]interface{})[0].(map[string]interface{})
	require.InDelta(t, 1000, dot["x"], 1e-6)
	require.InDelta(t, 377, dot["y"], 1e-6)
	rear := msgs[8].Object
	require.Equal(t, "car.0.rear", rear[PropID])
	dot = rear[PropPoints].([]interface{})[0].(map[string]interface{})
	require.InDelta(t, 217, dot["y"], 1e-6)

	// nothing moves, nothing reported.
	now = now.Add(loop.Interval)
	loop.Step(context.Background(), now)
	require.Empty(t, decodeLines(t, &out))

	loop.PostMessage(panel.Actuate{Speed: units.MeterPerSecond})
	for i := 0; i < 3; i++ {
		now = now.Add(loop.Interval)
		loop.Step(context.Background(), now)
	}
	// the command applies from the next cycle.
	lines = decodeLines(t, &out)
	require.Len(t, lines, 2)
	require.Equal(t, "car.0", lines[0][0].Object[PropID])
}

func TestAdapterRemove(t *testing.T) {
	a := NewAdapter(&Config{Output: &bytes.Buffer{}})
	track := sim.StraightTrack("a", geom.V(0, 0), geom.V(units.Meter, 0))
	a.ObjectsChanged(nil, track)
	a.ObjectsRemoved(nil, track)
	msgs := a.Messages()
	require.Equal(t, ActionReset, msgs[0].Action)
	require.Len(t, msgs, 5)

	a.ObjectsChanged(nil, track)
	a.ObjectsChanged(nil, track)
	require.Len(t, a.Messages(), 1)

	a.ObjectsRemoved(nil, track)
	msgs = a.Messages()
	require.Len(t, msgs, 1)
	require.Equal(t, Message{Action: ActionRemove, RemoveID: "track.a"}, msgs[0])
}

func TestObjectID(t *testing.T) {
	require.Equal(t, "car.0", ObjectID("car/0"))
	require.Equal(t, "a.b.c", ObjectID("a/b/c"))
}
