package stt

import (
	"bufio"
	"errors"
	"io"
)

// maxObjectSize bounds one transcript object. Larger objects are skipped.
const maxObjectSize = 1 << 20

// errObjectTooLarge is returned by Next for an object over the size limit,
// along with its first bytes.
var errObjectTooLarge = errors.New("object exceeds size limit")

// objectScanner splits a byte stream into top-level JSON objects by
// tracking brace depth. Anything between objects is skipped, which covers
// CRLF separators, NUL and record-separator bytes, and SSE "data:"
// prefixes. Braces inside string literals are not counted.
type objectScanner struct {
	r        *bufio.Reader
	limit    int
	buf      []byte
	depth    int
	inString bool
	escaped  bool

	// oversized is set once buf passed limit; the rest of the object is
	// parsed for depth but not kept.
	oversized bool
}

func newObjectScanner(r io.Reader) *objectScanner {
	return &objectScanner{r: bufio.NewReader(r), limit: maxObjectSize}
}

// Next returns the next complete object. At end of input it returns
// io.EOF, or io.ErrUnexpectedEOF with the partial bytes if an object was
// left open. An object larger than the limit yields errObjectTooLarge and
// a short prefix; scanning resumes after it.
func (s *objectScanner) Next() ([]byte, error) {
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) && s.depth > 0 {
				partial := s.buf
				s.reset()
				return partial, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		if s.depth == 0 {
			if b == '{' {
				s.depth = 1
				s.buf = append(s.buf[:0], b)
			}
			continue
		}

		if !s.oversized {
			s.buf = append(s.buf, b)
			if len(s.buf) > s.limit {
				s.oversized = true
				s.buf = s.buf[:min(len(s.buf), 64)]
			}
		}
		switch {
		case s.inString:
			switch {
			case s.escaped:
				s.escaped = false
			case b == '\\':
				s.escaped = true
			case b == '"':
				s.inString = false
			}
		case b == '"':
			s.inString = true
		case b == '{':
			s.depth++
		case b == '}':
			s.depth--
			if s.depth == 0 {
				obj := make([]byte, len(s.buf))
				copy(obj, s.buf)
				s.buf = s.buf[:0]
				if s.oversized {
					s.oversized = false
					return obj, errObjectTooLarge
				}
				return obj, nil
			}
		}
	}
}

func (s *objectScanner) reset() {
	s.buf = nil
	s.depth = 0
	s.inString = false
	s.escaped = false
	s.oversized = false
}
