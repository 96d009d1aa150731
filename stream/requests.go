package stream

import (
	"bufio"
	"io"
)

const requestDelimiter = 0

// RequestScanner splits a request artifact into NUL-delimited records.
//
// The final record does not need a trailing delimiter. An empty record, i.e. two adjacent
// delimiters or a delimiter at the very end, terminates the scan.
type RequestScanner struct {
	r      *bufio.Reader
	tagger tagger
	rec    Record
	done   bool
	err    error
}

func NewRequestScanner(r io.Reader) *RequestScanner {
	return &RequestScanner{r: bufio.NewReader(r)}
}

func (s *RequestScanner) Scan() bool {
	if s.done {
		return false
	}
	var data []byte
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if err != io.EOF {
				s.err = err
				s.done = true
				return false
			}
			break
		}
		if b == requestDelimiter {
			break
		}
		data = append(data, b)
	}
	if len(data) == 0 {
		s.done = true
		return false
	}
	s.rec = s.tagger.tag(data)
	return true
}

func (s *RequestScanner) Record() Record { return s.rec }

func (s *RequestScanner) Err() error { return s.err }

// ReadRequests returns the genuine requests of an artifact in order.
func ReadRequests(r io.Reader) ([][]byte, error) {
	return GenuineOnly(NewRequestScanner(r))
}
