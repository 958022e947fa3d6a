package stream

import (
	"bytes"
	"encoding/binary"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWriter(t *testing.T) {
	var buf bytes.Buffer
	rw := New(&buf)
	require.NoError(t, rw.WritePacket([]byte("hello")))
	require.NoError(t, rw.WritePacket(nil))
	require.Equal(t, 4+5+4, buf.Len())

	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte("hello"), pkt)
	pkt, err = rw.ReadPacket()
	require.NoError(t, err)
	require.Empty(t, pkt)
	_, err = rw.ReadPacket()
	require.ErrorIs(t, err, io.EOF)
}

func TestReadErrors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
		err  error
	}{
		{"truncated", []byte{4, 0, 0, 0, 1, 2}, io.ErrUnexpectedEOF},
		{"too large", binary.LittleEndian.AppendUint32(nil, MaxPacketSize+1), ErrPacketTooLarge},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(bytes.NewBuffer(tc.data)).ReadPacket()
			require.ErrorIs(t, err, tc.err)
		})
	}
	require.ErrorIs(t, New(&bytes.Buffer{}).WritePacket(make([]byte, MaxPacketSize+1)), ErrPacketTooLarge)
}
