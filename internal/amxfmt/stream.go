// AMX cell stream reader.
// All multi-byte values in AMX and AMXX files are little-endian.
package amxfmt

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// CellSize is the only VM word width this tool understands.
const CellSize = 4

var (
	ErrStreamEOF = errors.New("stream: unexpected end of data")
)

// Stream reads little-endian values from a byte slice with explicit bounds checks.
type Stream struct {
	data []byte
	pos  int
	end  int
}

// NewStream creates a stream over the given data.
func NewStream(data []byte) *Stream {
	return &Stream{data: data, pos: 0, end: len(data)}
}

// NewStreamAt creates a stream starting at offset within data.
func NewStreamAt(data []byte, offset int) *Stream {
	if offset < 0 {
		offset = 0
	}
	if offset > len(data) {
		offset = len(data)
	}
	return &Stream{data: data, pos: offset, end: len(data)}
}

// Position returns the current read position.
func (s *Stream) Position() int { return s.pos }

// Remaining returns bytes left to read.
func (s *Stream) Remaining() int { return s.end - s.pos }

// ReadCell reads one little-endian 4-byte VM cell.
func (s *Stream) ReadCell() (uint32, error) {
	if s.pos+CellSize > s.end {
		return 0, ErrStreamEOF
	}
	v := binary.LittleEndian.Uint32(s.data[s.pos:])
	s.pos += CellSize
	return v, nil
}

// ReadCString reads a null-terminated string.
func (s *Stream) ReadCString() (string, error) {
	start := s.pos
	for s.pos < s.end {
		if s.data[s.pos] == 0 {
			str := string(s.data[start:s.pos])
			s.pos++ // skip null terminator
			return str, nil
		}
		s.pos++
	}
	s.pos = start
	return "", fmt.Errorf("stream: unterminated string at offset %d", start)
}
