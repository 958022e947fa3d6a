package mqtt

import (
	"context"
	"io"

	"github.com/golang/glog"
)

// TelemetryTopic is the topic a car publishes telemetry on. Use "+" as
// carID to subscribe to all cars.
func TelemetryTopic(carID string) string {
	return "linecar/" + carID + "/telemetry"
}

// ReadWriter implements PacketReadWriter.
type ReadWriter struct {
	Queue    *Queue
	SubTopic string
	PubTopic string

	packetCh chan []byte
	doneCh   chan struct{}
}

// NewPacketReadWriter creates the ReadWriter.
func NewPacketReadWriter(q *Queue) *ReadWriter {
	return &ReadWriter{
		Queue:    q,
		packetCh: make(chan []byte, 16),
		doneCh:   make(chan struct{}),
	}
}

// WithTopics specifies the topics.
func (p *ReadWriter) WithTopics(sub, pub string) *ReadWriter {
	p.SubTopic, p.PubTopic = sub, pub
	return p
}

// ForCar publishes the telemetry of a car.
func (p *ReadWriter) ForCar(carID string) *ReadWriter {
	return p.WithTopics("", TelemetryTopic(carID))
}

// ForMonitor receives the telemetry of a car, or all cars with "+".
func (p *ReadWriter) ForMonitor(carID string) *ReadWriter {
	return p.WithTopics(TelemetryTopic(carID), "")
}

// ReadPacket implements PacketReader.
func (p *ReadWriter) ReadPacket() ([]byte, error) {
	select {
	case pkt := <-p.packetCh:
		return pkt, nil
	case <-p.doneCh:
		return nil, io.EOF
	}
}

// WritePacket implements PacketWriter.
func (p *ReadWriter) WritePacket(pkt []byte) error {
	token := p.Queue.Pub(p.PubTopic, pkt)
	token.Wait()
	return token.Error()
}

// Run implements Runnable. It connects the Queue and subscribes SubTopic
// until ctx is done.
func (p *ReadWriter) Run(ctx context.Context) error {
	defer close(p.doneCh)
	if p.SubTopic != "" {
		sub := p.Queue.Sub(p.SubTopic, Handler(p.handleMsg))
		defer sub.Close()
	}
	if token := p.Queue.Connect(); token.Wait() && token.Error() != nil {
		glog.Warningf("mqtt connect: %v", token.Error())
	}
	defer p.Queue.Close()
	<-ctx.Done()
	return ctx.Err()
}

func (p *ReadWriter) handleMsg(_ string, payload []byte) {
	select {
	case p.packetCh <- payload:
	case <-p.doneCh:
	default:
		glog.Warning("telemetry packet dropped")
	}
}
