// Package evaluator checks the expect_error and status conditions of a test case against its
// captured response.
package evaluator

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/launchdarkly/ftw-comparator/conditions"
	"github.com/launchdarkly/ftw-comparator/decoder"
	"github.com/launchdarkly/ftw-comparator/logging"
)

// Outcome is the response verdict for a single request.
type Outcome struct {
	ErrorOK bool
	// Diagnostic explains an ErrorOK of false. It can be empty.
	Diagnostic string
	StatusOK   bool
	Result     decoder.Result
}

// Evaluator decodes one response at a time and evaluates it. The decoded response is only
// returned in the Outcome; nothing is retained between calls.
type Evaluator struct {
	decoder decoder.Decoder
	logger  *slog.Logger
}

func New(d decoder.Decoder, logger *slog.Logger) *Evaluator {
	if d == nil {
		d = decoder.HTTPDecoder{}
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Evaluator{decoder: d, logger: logger}
}

func (e *Evaluator) Evaluate(rec conditions.Record, raw []byte) Outcome {
	result := e.decoder.Decode(raw)
	errorOK, diagnostic := e.checkExpectError(rec, raw, result)
	return Outcome{
		ErrorOK:    errorOK,
		Diagnostic: diagnostic,
		StatusOK:   e.checkStatus(rec, result),
		Result:     result,
	}
}

// A successful decode is definitive: when the response decoded, an expect_error pattern is
// never consulted.
func (e *Evaluator) checkExpectError(rec conditions.Record, raw []byte, result decoder.Result) (bool, string) {
	expectation, pattern := rec.ErrorExpectation()
	if result.OK() {
		switch expectation {
		case conditions.ErrorUnspecified, conditions.ErrorNotExpected:
			return true, ""
		default:
			return false, "Expected an error but none occurred"
		}
	}

	switch expectation {
	case conditions.ErrorUnspecified:
		return false, "Caught an unexpected error:\n" + failureText(result)
	case conditions.ErrorNotExpected:
		return false, "Caught an error but none was expected:\n" + failureText(result)
	case conditions.ErrorExpected:
		return true, ""
	}
	if e.search(pattern, rec, raw) {
		return true, ""
	}
	return false, fmt.Sprintf("Caught an error but the response did not match expect_error %q:\n%s",
		pattern.String(), failureText(result))
}

func (e *Evaluator) checkStatus(rec conditions.Record, result decoder.Result) bool {
	pattern := rec.StatusPattern()
	if pattern == nil {
		return true
	}
	if !result.OK() {
		return false
	}
	return e.search(pattern, rec, []byte(strconv.Itoa(result.Response.Status)))
}

func (e *Evaluator) search(p *conditions.Pattern, rec conditions.Record, b []byte) bool {
	matched, err := p.SearchBytes(b)
	if err != nil {
		e.logger.Warn("Pattern search abandoned, treating as no match",
			"test", rec.TestTitle, "pattern", p.String(), "error", err)
		return false
	}
	return matched
}

func failureText(result decoder.Result) string {
	if result.Failure == nil {
		return "response could not be decoded"
	}
	return result.Failure.Error()
}
