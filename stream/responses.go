package stream

import (
	"bufio"
	"io"
	"strconv"
)

// ResponseScanner splits a response artifact into length-prefixed records.
//
// Each record is a run of ASCII digits giving the payload size in bytes, immediately followed
// by the payload. Bytes that precede the first digit of a length are padding and are skipped.
// A missing, zero or unparsable length ends the scan. If the artifact ends in the middle of a
// payload, whatever was read is returned as the last record.
type ResponseScanner struct {
	r      *bufio.Reader
	tagger tagger
	rec    Record
	done   bool
	err    error
}

func NewResponseScanner(r io.Reader) *ResponseScanner {
	return &ResponseScanner{r: bufio.NewReader(r)}
}

func (s *ResponseScanner) Scan() bool {
	if s.done {
		return false
	}
	length, ok := s.readLength()
	if !ok {
		s.done = true
		return false
	}
	data, err := io.ReadAll(io.LimitReader(s.r, int64(length)))
	if err != nil {
		s.err = err
		s.done = true
		return false
	}
	if len(data) < length {
		s.done = true
		if len(data) == 0 {
			return false
		}
	}
	s.rec = s.tagger.tag(data)
	return true
}

func (s *ResponseScanner) readLength() (int, bool) {
	var digits []byte
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if err != io.EOF {
				s.err = err
				return 0, false
			}
			break
		}
		if b >= '0' && b <= '9' {
			digits = append(digits, b)
			continue
		}
		if len(digits) == 0 {
			continue
		}
		// first payload byte
		_ = s.r.UnreadByte()
		break
	}
	if len(digits) == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(string(digits))
	if err != nil || n == 0 {
		return 0, false
	}
	return n, true
}

func (s *ResponseScanner) Record() Record { return s.rec }

func (s *ResponseScanner) Err() error { return s.err }

// ReadResponses returns the genuine responses of an artifact in order.
func ReadResponses(r io.Reader) ([][]byte, error) {
	return GenuineOnly(NewResponseScanner(r))
}
