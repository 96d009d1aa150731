// Package decoder turns captured response bytes into a structured HTTP response.
//
// Decoding never returns an error. A response that cannot be decoded is reported as a Result
// carrying a Failure, because for WAF rule tests a mangled or refused response is often the
// expected outcome rather than an exceptional one.
package decoder

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

// Response is a successfully decoded HTTP response. Body is the payload after transfer and
// content decoding.
type Response struct {
	Protocol string
	Status   int
	Reason   string
	Header   http.Header
	Body     []byte
}

// Failure explains why a response could not be decoded.
type Failure struct {
	Reason string
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return f.Reason
	}
	return fmt.Sprintf("%s: %s", f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Result holds exactly one of Response or Failure.
type Result struct {
	Response *Response
	Failure  *Failure
}

func Decoded(resp *Response) Result {
	return Result{Response: resp}
}

func Failed(reason string, err error) Result {
	return Result{Failure: &Failure{Reason: reason, Err: err}}
}

// OK returns true if the response was decoded.
func (r Result) OK() bool {
	return r.Response != nil
}

// Decoder is the capability the comparison needs from an HTTP response parser.
type Decoder interface {
	Decode(raw []byte) Result
}

// DecoderFunc adapts a function to the Decoder interface.
type DecoderFunc func(raw []byte) Result

func (f DecoderFunc) Decode(raw []byte) Result {
	return f(raw)
}

// HTTPDecoder decodes HTTP/1.x responses. The whole message must be present: a body shorter than
// its Content-Length, a broken chunked encoding, or a corrupt gzip/deflate payload are all
// decode failures.
type HTTPDecoder struct{}

func (HTTPDecoder) Decode(raw []byte) Result {
	if len(bytes.TrimSpace(raw)) == 0 {
		return Failed("empty response", nil)
	}
	resp, err := http.ReadResponse(bufio.NewReader(bytes.NewReader(raw)), nil)
	if err != nil {
		return Failed("invalid status line or headers", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Failed("incomplete response body", err)
	}
	encoding := resp.Header.Get("Content-Encoding")
	if body, err = decodeContent(encoding, body); err != nil {
		return Failed(fmt.Sprintf("invalid %s content encoding", encoding), err)
	}

	return Decoded(&Response{
		Protocol: resp.Proto,
		Status:   resp.StatusCode,
		Reason:   strings.TrimSpace(strings.TrimPrefix(resp.Status, fmt.Sprint(resp.StatusCode))),
		Header:   resp.Header,
		Body:     body,
	})
}

func decodeContent(encoding string, body []byte) ([]byte, error) {
	if len(body) == 0 {
		return body, nil
	}
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		defer zr.Close()
		return io.ReadAll(zr)
	case "deflate":
		// Servers disagree on whether deflate means zlib-wrapped or raw
		if zr, err := zlib.NewReader(bytes.NewReader(body)); err == nil {
			defer zr.Close()
			return io.ReadAll(zr)
		}
		fr := flate.NewReader(bytes.NewReader(body))
		defer fr.Close()
		return io.ReadAll(fr)
	default:
		return body, nil
	}
}
