package panel

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"

	"github.com/golang/glog"

	"github.com/robotalks/linecar/pkg/framework"
)

// FrameHandler is called when a frame is received.
type FrameHandler interface {
	HandleFrame(context.Context, *Frame)
}

// HandleFrameFunc is func type of FrameHandler.
type HandleFrameFunc func(context.Context, *Frame)

// HandleFrame implements FrameHandler.
func (f HandleFrameFunc) HandleFrame(ctx context.Context, frame *Frame) {
	f(ctx, frame)
}

// Stats are the counters of a Link.
type Stats struct {
	Received       uint64
	Sent           uint64
	ChecksumErrors uint64
	DecodeErrors   uint64
}

// Link exchanges frames with the panels over a serial channel.
//
// Without a Handler, received payloads are posted into the Loop running the
// Link. As a Controller it sends the last Actuate message of each cycle.
type Link struct {
	ReadWriter io.ReadWriter
	Handler    FrameHandler

	parser    Parser
	writeLock sync.Mutex

	received       atomic.Uint64
	sent           atomic.Uint64
	checksumErrors atomic.Uint64
	decodeErrors   atomic.Uint64
}

// NewLink creates a Link.
func NewLink(rw io.ReadWriter) *Link {
	return &Link{ReadWriter: rw}
}

// AddToLoop implements framework.LoopAdder.
func (l *Link) AddToLoop(loop *framework.Loop) {
	loop.AddController(framework.PrLvActuate, l)
}

// Stats gets a snapshot of the counters.
func (l *Link) Stats() Stats {
	return Stats{
		Received:       l.received.Load(),
		Sent:           l.sent.Load(),
		ChecksumErrors: l.checksumErrors.Load(),
		DecodeErrors:   l.decodeErrors.Load(),
	}
}

// Send sends a frame.
func (l *Link) Send(f *Frame) error {
	l.writeLock.Lock()
	defer l.writeLock.Unlock()
	if _, err := f.WriteTo(l.ReadWriter); err != nil {
		return err
	}
	l.sent.Add(1)
	return nil
}

// SendPayload encodes and sends a payload.
func (l *Link) SendPayload(p Payload) error {
	f, err := NewFrame(p)
	if err != nil {
		return err
	}
	return l.Send(f)
}

// Control implements framework.Controller.
func (l *Link) Control(ctx framework.ControlContext) error {
	if cmd, ok := framework.TakeLast[Actuate](ctx.Messages()); ok {
		return l.SendPayload(cmd)
	}
	return nil
}

// Run implements framework.Runnable. It receives until the channel fails
// or ctx is done. A ReadWriter which is also an io.Closer is closed on
// return.
func (l *Link) Run(ctx context.Context) error {
	receive := func() error {
		buf := make([]byte, 64)
		for {
			n, err := l.ReadWriter.Read(buf)
			for _, b := range buf[:n] {
				l.consume(ctx, b)
			}
			if err != nil {
				return err
			}
			if err = ctx.Err(); err != nil {
				return err
			}
		}
	}
	if closer, ok := l.ReadWriter.(io.Closer); ok {
		return framework.RunWithContextCloser(ctx, closer, receive)
	}
	return receive()
}

func (l *Link) consume(ctx context.Context, b byte) {
	frame, err := l.parser.Parse(b)
	if err != nil {
		l.checksumErrors.Add(1)
		glog.Warningf("panel link: %v", err)
		return
	}
	if frame == nil {
		return
	}
	l.received.Add(1)
	if h := l.Handler; h != nil {
		h.HandleFrame(ctx, frame)
		return
	}
	l.post(ctx, frame)
}

func (l *Link) post(ctx context.Context, frame *Frame) {
	payload, err := Decode(frame)
	if err != nil {
		l.decodeErrors.Add(1)
		var unknown *UnknownCodeError
		if errors.As(err, &unknown) {
			glog.V(2).Infof("panel link: %v", err)
		} else {
			glog.Warningf("panel link: %v: %v", frame.Code, err)
		}
		return
	}
	if _, ok := payload.(Actuate); ok {
		// only sent from this side.
		return
	}
	if loop := framework.LoopControlFrom(ctx); loop != nil {
		loop.PostMessage(payload)
	}
}
