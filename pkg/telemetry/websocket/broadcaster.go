package websocket

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/golang/glog"
	"golang.org/x/net/websocket"

	"github.com/robotalks/linecar/pkg/framework"
)

// DefaultPath is where Broadcaster accepts connections.
const DefaultPath = "/telemetry"

// Broadcaster implements PacketWriter by sending each packet to all
// connected websocket clients. Clients failing to receive are dropped.
type Broadcaster struct {
	// Addr is the listening address used by Run.
	Addr string

	lock  sync.Mutex
	conns map[*websocket.Conn]chan struct{}
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster(addr string) *Broadcaster {
	return &Broadcaster{Addr: addr}
}

// Handler accepts websocket clients.
func (b *Broadcaster) Handler() http.Handler {
	return websocket.Handler(b.serve)
}

// Clients gets the number of connected clients.
func (b *Broadcaster) Clients() int {
	b.lock.Lock()
	defer b.lock.Unlock()
	return len(b.conns)
}

func (b *Broadcaster) serve(conn *websocket.Conn) {
	done := make(chan struct{})
	b.lock.Lock()
	if b.conns == nil {
		b.conns = make(map[*websocket.Conn]chan struct{})
	}
	b.conns[conn] = done
	b.lock.Unlock()
	glog.Infof("telemetry client connected: %s", conn.Request().RemoteAddr)
	// the handler must not return before the connection is dropped.
	go func() {
		var discard []byte
		for websocket.Message.Receive(conn, &discard) == nil {
		}
		b.drop(conn)
	}()
	<-done
}

func (b *Broadcaster) drop(conn *websocket.Conn) {
	b.lock.Lock()
	done, ok := b.conns[conn]
	delete(b.conns, conn)
	b.lock.Unlock()
	if ok {
		conn.Close()
		close(done)
		glog.Infof("telemetry client disconnected: %s", conn.Request().RemoteAddr)
	}
}

// WritePacket implements PacketWriter.
func (b *Broadcaster) WritePacket(pkt []byte) error {
	b.lock.Lock()
	conns := make([]*websocket.Conn, 0, len(b.conns))
	for conn := range b.conns {
		conns = append(conns, conn)
	}
	b.lock.Unlock()
	for _, conn := range conns {
		if err := websocket.Message.Send(conn, pkt); err != nil {
			glog.V(2).Infof("telemetry client %s: %v", conn.Request().RemoteAddr, err)
			b.drop(conn)
		}
	}
	return nil
}

// Close drops all clients.
func (b *Broadcaster) Close() error {
	b.lock.Lock()
	conns := make([]*websocket.Conn, 0, len(b.conns))
	for conn := range b.conns {
		conns = append(conns, conn)
	}
	b.lock.Unlock()
	for _, conn := range conns {
		b.drop(conn)
	}
	return nil
}

// Run implements Runnable. It serves Handler at DefaultPath on Addr.
func (b *Broadcaster) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", b.Addr)
	if err != nil {
		return err
	}
	glog.Infof("telemetry websocket on ws://%s%s", ln.Addr(), DefaultPath)
	mux := http.NewServeMux()
	mux.Handle(DefaultPath, b.Handler())
	server := &http.Server{Handler: mux}
	err = framework.RunWithContextCloser(ctx, server, func() error {
		return server.Serve(ln)
	})
	b.Close()
	return err
}
