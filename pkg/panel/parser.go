package panel

// Parser decodes frames from a byte stream, one byte at a time.
type Parser struct {
	state   parseState
	frame   *Frame
	recvLen int
}

type parseState int

const (
	stateSync parseState = iota // hunting for SyncByte
	stateCode                   // waiting for code
	stateLen                    // waiting for data length
	stateData                   // waiting for data
	stateCRC                    // waiting for checksum
)

// Receiving indicates a frame is partially received.
func (p *Parser) Receiving() bool {
	return p.state != stateSync
}

// Reset drops any partially received frame.
func (p *Parser) Reset() {
	p.state, p.frame, p.recvLen = stateSync, nil, 0
}

// Parse consumes one byte. It returns the frame once complete, or a
// *ChecksumError when the frame is corrupted.
func (p *Parser) Parse(b byte) (*Frame, error) {
	switch p.state {
	case stateSync:
		if b == SyncByte {
			p.state = stateCode
		}
	case stateCode:
		p.frame = &Frame{Code: Code(b)}
		p.state = stateLen
	case stateLen:
		if b == 0 {
			p.state = stateCRC
			break
		}
		p.frame.Data, p.recvLen = make([]byte, b), 0
		p.state = stateData
	case stateData:
		p.frame.Data[p.recvLen] = b
		if p.recvLen++; p.recvLen >= len(p.frame.Data) {
			p.state = stateCRC
		}
	case stateCRC:
		frame := p.frame
		p.Reset()
		if sum := frame.Checksum(); sum != b {
			return nil, &ChecksumError{Code: frame.Code, Expected: sum, Actual: b}
		}
		return frame, nil
	}
	return nil, nil
}
