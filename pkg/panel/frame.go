package panel

import (
	"fmt"
	"io"
)

// SyncByte starts every frame.
const SyncByte byte = 0xA5

// MaxDataLen is the max data length of a frame.
const MaxDataLen = 0xff

// Code identifies the payload of a frame.
type Code byte

// Frame codes.
const (
	// CodeLineDetect carries the line detections of both sensor rows.
	CodeLineDetect Code = 0x01
	// CodeActuate carries speed and steering commands.
	CodeActuate Code = 0x02
	// CodeOdometry carries the car state estimated by the motor panel.
	CodeOdometry Code = 0x03
)

var codeNames = map[Code]string{
	CodeLineDetect: "line-detect",
	CodeActuate:    "actuate",
	CodeOdometry:   "odometry",
}

// String implements fmt.Stringer.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("code-%02x", byte(c))
}

// Frame is a decoded frame.
type Frame struct {
	Code Code
	Data []byte
}

// Checksum computes the CRC of the frame.
func (f *Frame) Checksum() byte {
	crc := crc8(0, byte(f.Code), byte(len(f.Data)))
	return crc8(crc, f.Data...)
}

// Bytes returns encoded bytes for sending.
func (f *Frame) Bytes() ([]byte, error) {
	if len(f.Data) > MaxDataLen {
		return nil, ErrTooLarge
	}
	b := make([]byte, 0, len(f.Data)+4)
	b = append(b, SyncByte, byte(f.Code), byte(len(f.Data)))
	b = append(b, f.Data...)
	return append(b, f.Checksum()), nil
}

// WriteTo writes the encoded frame in a single Write.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	b, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// crc8 continues a CRC-8/DVB-S2 computation.
func crc8(crc byte, data ...byte) byte {
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0xD5
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
