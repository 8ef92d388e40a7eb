package chat

import (
	"bufio"
	"errors"
	"io"
	"strings"
)

// sseReader extracts the payload of "data:" lines from a server-sent
// event stream. Event names, ids and comments are ignored.
type sseReader struct {
	r *bufio.Reader
}

func newSSEReader(r io.Reader) *sseReader {
	return &sseReader{r: bufio.NewReader(r)}
}

// Next returns the next data payload, or io.EOF at end of stream.
func (s *sseReader) Next() (string, error) {
	for {
		line, err := s.r.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		if line == "" && err != nil {
			return "", io.EOF
		}

		line = strings.TrimRight(line, "\r\n")
		if data, ok := strings.CutPrefix(line, "data:"); ok {
			return strings.TrimPrefix(data, " "), nil
		}
		if errors.Is(err, io.EOF) {
			return "", io.EOF
		}
	}
}
