package panel

import (
	"errors"
	"fmt"
)

var (
	// ErrShortPayload indicates the frame data is shorter than its payload.
	ErrShortPayload = errors.New("short payload")
	// ErrTooLarge indicates the data does not fit in a frame.
	ErrTooLarge = errors.New("frame data too large")
)

// ChecksumError is reported for frames failing the CRC check.
type ChecksumError struct {
	Code     Code
	Expected byte
	Actual   byte
}

// Error implements error.
func (e *ChecksumError) Error() string {
	return fmt.Sprintf("checksum mismatch on %v: expect %02x, got %02x", e.Code, e.Expected, e.Actual)
}

// UnknownCodeError is returned when decoding a frame with an unknown code.
type UnknownCodeError struct {
	Code Code
}

// Error implements error.
func (e *UnknownCodeError) Error() string {
	return fmt.Sprintf("unknown frame code %02x", byte(e.Code))
}
