package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBroadcaster(t *testing.T) {
	b := NewBroadcaster("")
	server := httptest.NewServer(b.Handler())
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	var clients []*ReadWriter
	for i := 0; i < 2; i++ {
		c, err := Dial(url)
		require.NoError(t, err)
		defer c.Close()
		clients = append(clients, c)
	}
	require.Eventually(t, func() bool { return b.Clients() == 2 }, 5*time.Second, 10*time.Millisecond)

	require.NoError(t, b.WritePacket([]byte{1, 2, 3}))
	for _, c := range clients {
		pkt, err := c.ReadPacket()
		require.NoError(t, err)
		require.Equal(t, []byte{1, 2, 3}, pkt)
	}

	clients[0].Close()
	require.Eventually(t, func() bool { return b.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)
	require.NoError(t, b.WritePacket([]byte{4}))
	pkt, err := clients[1].ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{4}, pkt)

	require.NoError(t, b.Close())
	require.Zero(t, b.Clients())
}
