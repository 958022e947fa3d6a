package panel

import (
	"encoding/binary"
	"math"
	"slices"

	"github.com/robotalks/linecar/pkg/geom"
	"github.com/robotalks/linecar/pkg/line"
	"github.com/robotalks/linecar/pkg/units"
)

// Wire resolutions.
const (
	positionUnit = 0.1 * units.Millimeter
	speedUnit    = units.MillimeterPerSecond
	lengthUnit   = units.Millimeter
	angleUnit    = units.Degree / 100
)

// Payload is the typed content of a frame.
type Payload interface {
	Code() Code
	MarshalBinary() ([]byte, error)
}

// LineDetect is sent by the line sensor panel every cycle.
type LineDetect struct {
	Front line.Positions
	Rear  line.Positions
}

// Actuate is sent to the motor panel.
type Actuate struct {
	Speed     units.Speed
	Steering  units.Angle
	RearSteer bool
}

// Odometry is sent by the motor panel.
type Odometry struct {
	Pose     geom.Pose
	Speed    units.Speed
	Distance units.Length
}

// NewFrame encodes a payload into a frame.
func NewFrame(p Payload) (*Frame, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return nil, err
	}
	if len(data) > MaxDataLen {
		return nil, ErrTooLarge
	}
	return &Frame{Code: p.Code(), Data: data}, nil
}

// Decode decodes the payload of a frame.
func Decode(f *Frame) (Payload, error) {
	var p interface {
		Payload
		unmarshal([]byte) error
	}
	switch f.Code {
	case CodeLineDetect:
		p = &LineDetect{}
	case CodeActuate:
		p = &Actuate{}
	case CodeOdometry:
		p = &Odometry{}
	default:
		return nil, &UnknownCodeError{Code: f.Code}
	}
	if err := p.unmarshal(f.Data); err != nil {
		return nil, err
	}
	return deref(p), nil
}

// deref gets the payload by value, the form it is posted and sent in.
func deref(p Payload) Payload {
	switch v := p.(type) {
	case *LineDetect:
		return *v
	case *Actuate:
		return *v
	case *Odometry:
		return *v
	}
	return p
}

// Code implements Payload.
func (p LineDetect) Code() Code { return CodeLineDetect }

// MarshalBinary implements Payload.
func (p LineDetect) MarshalBinary() ([]byte, error) {
	if len(p.Front) > math.MaxUint8 || len(p.Rear) > math.MaxUint8 {
		return nil, ErrTooLarge
	}
	b := make([]byte, 0, 2+2*(len(p.Front)+len(p.Rear)))
	b = append(b, byte(len(p.Front)), byte(len(p.Rear)))
	for _, pos := range p.Front {
		b = appendInt16(b, float64(pos/positionUnit))
	}
	for _, pos := range p.Rear {
		b = appendInt16(b, float64(pos/positionUnit))
	}
	return b, nil
}

// unmarshal decodes the positions, sorted.
func (p *LineDetect) unmarshal(b []byte) error {
	if len(b) < 2 {
		return ErrShortPayload
	}
	nFront, nRear := int(b[0]), int(b[1])
	b = b[2:]
	if len(b) < 2*(nFront+nRear) {
		return ErrShortPayload
	}
	read := func(n int) line.Positions {
		pos := make(line.Positions, n)
		for i := range pos {
			pos[i] = units.Length(int16(binary.LittleEndian.Uint16(b))) * positionUnit
			b = b[2:]
		}
		slices.Sort(pos)
		return pos
	}
	p.Front, p.Rear = read(nFront), read(nRear)
	return nil
}

// Code implements Payload.
func (p Actuate) Code() Code { return CodeActuate }

// MarshalBinary implements Payload.
func (p Actuate) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 5)
	b = appendInt16(b, float64(p.Speed/speedUnit))
	b = appendInt16(b, float64(p.Steering/angleUnit))
	var flags byte
	if p.RearSteer {
		flags |= 1
	}
	return append(b, flags), nil
}

func (p *Actuate) unmarshal(b []byte) error {
	if len(b) < 5 {
		return ErrShortPayload
	}
	p.Speed = units.Speed(int16(binary.LittleEndian.Uint16(b))) * speedUnit
	p.Steering = units.Angle(int16(binary.LittleEndian.Uint16(b[2:]))) * angleUnit
	p.RearSteer = b[4]&1 != 0
	return nil
}

// Code implements Payload.
func (p Odometry) Code() Code { return CodeOdometry }

// MarshalBinary implements Payload.
func (p Odometry) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 16)
	b = appendInt16(b, float64(p.Speed/speedUnit))
	b = binary.LittleEndian.AppendUint32(b, uint32(math.Round(float64(p.Distance/lengthUnit))))
	b = binary.LittleEndian.AppendUint32(b, uint32(int32(math.Round(float64(p.Pose.Pos.X/lengthUnit)))))
	b = binary.LittleEndian.AppendUint32(b, uint32(int32(math.Round(float64(p.Pose.Pos.Y/lengthUnit)))))
	return appendInt16(b, float64(p.Pose.Angle.Normalize()/angleUnit)), nil
}

func (p *Odometry) unmarshal(b []byte) error {
	if len(b) < 16 {
		return ErrShortPayload
	}
	p.Speed = units.Speed(int16(binary.LittleEndian.Uint16(b))) * speedUnit
	p.Distance = units.Length(binary.LittleEndian.Uint32(b[2:])) * lengthUnit
	p.Pose.Pos.X = units.Length(int32(binary.LittleEndian.Uint32(b[6:]))) * lengthUnit
	p.Pose.Pos.Y = units.Length(int32(binary.LittleEndian.Uint32(b[10:]))) * lengthUnit
	p.Pose.Angle = units.Angle(int16(binary.LittleEndian.Uint16(b[14:]))) * angleUnit
	return nil
}

// appendInt16 appends v rounded and saturated to int16.
func appendInt16(b []byte, v float64) []byte {
	v = math.Max(math.MinInt16, math.Min(math.MaxInt16, math.Round(v)))
	return binary.LittleEndian.AppendUint16(b, uint16(int16(v)))
}
