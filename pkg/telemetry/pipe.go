package telemetry

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/golang/glog"

	"github.com/robotalks/linecar/pkg/framework"
)

// Publisher publishes reports.
type Publisher interface {
	Publish(SerializableMessage) error
}

// TypedMsgHandler handles a received message.
type TypedMsgHandler interface {
	HandleTypedMsg(context.Context, SerializableMessage, *Typed) error
}

// HandleTypedMsgFunc is func form of TypedMsgHandler.
type HandleTypedMsgFunc func(context.Context, SerializableMessage, *Typed) error

// HandleTypedMsg implements TypedMsgHandler.
func (f HandleTypedMsgFunc) HandleTypedMsg(ctx context.Context, msg SerializableMessage, typed *Typed) error {
	return f(ctx, msg, typed)
}

// Received is posted into the Loop for each message received by a Pipe
// without Handler.
type Received struct {
	Source string
	Msg    SerializableMessage
}

// Pipe sends and receives Typed messages as packets.
type Pipe struct {
	Writer  PacketWriter
	Reader  PacketReader
	Source  string
	Handler TypedMsgHandler

	seq      uint32
	sendLock sync.Mutex
}

// NewPipe creates a Pipe with given PacketReadWriter.
func NewPipe(rw PacketReadWriter) *Pipe {
	return &Pipe{Writer: rw, Reader: rw}
}

// NewPublisher creates a send-only Pipe.
func NewPublisher(w PacketWriter, source string) *Pipe {
	return &Pipe{Writer: w, Source: source}
}

// Publish implements Publisher.
func (p *Pipe) Publish(msg SerializableMessage) error {
	typed, err := TypedFrom(msg)
	if err != nil {
		return err
	}
	typed.Source = p.Source
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	p.seq++
	typed.Sequence = p.seq
	return p.writeTyped(typed)
}

// SendTyped send a Typed message as is.
func (p *Pipe) SendTyped(typed *Typed) error {
	p.sendLock.Lock()
	defer p.sendLock.Unlock()
	return p.writeTyped(typed)
}

func (p *Pipe) writeTyped(typed *Typed) error {
	pkt, err := typed.Encode()
	if err != nil {
		return err
	}
	return p.Writer.WritePacket(pkt)
}

// Run implements Runnable. Without a Reader it only waits for ctx.
func (p *Pipe) Run(ctx context.Context) error {
	defer p.Close()
	if p.Reader == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		pkt, err := p.Reader.ReadPacket()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		typed, err := DecodeTyped(pkt)
		if err != nil {
			glog.Warningf("drop packet: %v", err)
			continue
		}
		msg, err := typed.Decode()
		if err != nil {
			var unknown *ErrUnknownType
			if !errors.As(err, &unknown) {
				glog.Warningf("drop message from %s: %v", typed.Source, err)
			}
			continue
		}
		if h := p.Handler; h != nil {
			if err = h.HandleTypedMsg(ctx, msg, typed); err != nil {
				return err
			}
		} else if loop := framework.LoopControlFrom(ctx); loop != nil {
			loop.PostMessage(Received{Source: typed.Source, Msg: msg})
		}
	}
}

// Close implements io.Closer.
func (p *Pipe) Close() error {
	var errs framework.AggregatedError
	wc, _ := p.Writer.(io.Closer)
	if wc != nil {
		errs.Add(wc.Close())
	}
	if rc, ok := p.Reader.(io.Closer); ok && rc != wc {
		errs.Add(rc.Close())
	}
	return errs.Aggregate()
}

// AddToLoop implements LoopAdder.
func (p *Pipe) AddToLoop(loop *framework.Loop) {
	for _, rw := range []interface{}{p.Writer, p.Reader} {
		if adder, ok := rw.(framework.LoopAdder); ok {
			loop.Add(adder)
			break
		} else if runnable, ok := rw.(framework.Runnable); ok {
			loop.AddRunnable(runnable)
			break
		}
	}
	loop.AddRunnable(p)
}

// PublisherMux publishes to multiple Publishers.
type PublisherMux struct {
	Publishers []Publisher
}

// Publish implements Publisher.
func (m *PublisherMux) Publish(msg SerializableMessage) error {
	var errs framework.AggregatedError
	for _, p := range m.Publishers {
		errs.Add(p.Publish(msg))
	}
	return errs.Aggregate()
}

// Add adds more publishers.
func (m *PublisherMux) Add(publishers ...Publisher) {
	m.Publishers = append(m.Publishers, publishers...)
}

// AddToLoop implements LoopAdder.
func (m *PublisherMux) AddToLoop(loop *framework.Loop) {
	for _, p := range m.Publishers {
		if adder, ok := p.(framework.LoopAdder); ok {
			loop.Add(adder)
		}
	}
}
