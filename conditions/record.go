package conditions

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// ErrorExpectation is the interpretation of a record's expect_error field.
type ErrorExpectation int

const (
	// ErrorUnspecified means expect_error was not declared.
	ErrorUnspecified ErrorExpectation = iota
	// ErrorExpected means expect_error was "True".
	ErrorExpected
	// ErrorNotExpected means expect_error was "False".
	ErrorNotExpected
	// ErrorMatching means expect_error is a pattern for the raw response bytes.
	ErrorMatching
)

var ErrMissingTitle = errors.New("missing test_title")

// Record holds the expectations for one test case, as written by the test generator.
//
// Optional fields that are absent or null are not declared. expect_error and status may be
// JSON strings, booleans or numbers; they are compared in their text form, so true and "True"
// are equivalent, as are 200 and "200".
type Record struct {
	TestTitle     string                 `json:"test_title"`
	LogContains   ldvalue.OptionalString `json:"log_contains"`
	NoLogContains ldvalue.OptionalString `json:"no_log_contains"`
	ExpectError   ldvalue.Value          `json:"expect_error"`
	Status        ldvalue.Value          `json:"status"`

	compiled compiledPatterns
}

type compiledPatterns struct {
	logContains   *Pattern
	noLogContains *Pattern
	expectError   *Pattern
	status        *Pattern
}

// FieldError describes a conditions record that cannot be used.
type FieldError struct {
	Line  int
	Title string
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	msg := fmt.Sprintf("conditions line %d", e.Line)
	if e.Title != "" {
		msg += fmt.Sprintf(" (%q)", e.Title)
	}
	if e.Field != "" {
		msg += ": " + e.Field
	}
	return msg + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// Compile validates the record and prepares its patterns. It must be called before any of the
// pattern accessors are used.
func (r *Record) Compile(timeout time.Duration) error {
	if r.TestTitle == "" {
		return &FieldError{Field: "test_title", Err: ErrMissingTitle}
	}
	var err error
	if r.LogContains.IsDefined() {
		if r.compiled.logContains, err = CompilePattern(r.LogContains.StringValue(), timeout); err != nil {
			return &FieldError{Title: r.TestTitle, Field: "log_contains", Err: err}
		}
	}
	if r.NoLogContains.IsDefined() {
		if r.compiled.noLogContains, err = CompilePattern(r.NoLogContains.StringValue(), timeout); err != nil {
			return &FieldError{Title: r.TestTitle, Field: "no_log_contains", Err: err}
		}
	}
	if !isScalar(r.ExpectError) {
		return &FieldError{Title: r.TestTitle, Field: "expect_error", Err: fmt.Errorf("unsupported value %s", r.ExpectError.JSONString())}
	}
	if exp, _ := r.ErrorExpectation(); exp == ErrorMatching {
		if r.compiled.expectError, err = CompilePattern(r.ExpectErrorText(), timeout); err != nil {
			return &FieldError{Title: r.TestTitle, Field: "expect_error", Err: err}
		}
	}
	if !isScalar(r.Status) {
		return &FieldError{Title: r.TestTitle, Field: "status", Err: fmt.Errorf("unsupported value %s", r.Status.JSONString())}
	}
	if text := r.StatusText(); text != "" {
		if r.compiled.status, err = CompilePattern(text, timeout); err != nil {
			return &FieldError{Title: r.TestTitle, Field: "status", Err: err}
		}
	}
	return nil
}

// LogContainsPattern returns the log_contains pattern, or nil if it was not declared. An empty
// pattern is returned as a Pattern with an empty source.
func (r Record) LogContainsPattern() *Pattern {
	return r.compiled.logContains
}

// NoLogContainsPattern returns the no_log_contains pattern, or nil if it was not declared. An
// empty pattern matches every line.
func (r Record) NoLogContainsPattern() *Pattern {
	return r.compiled.noLogContains
}

// ErrorExpectation returns how expect_error should be evaluated, along with the pattern when
// the expectation is ErrorMatching.
func (r Record) ErrorExpectation() (ErrorExpectation, *Pattern) {
	if r.ExpectError.IsNull() {
		return ErrorUnspecified, nil
	}
	switch r.ExpectErrorText() {
	case "True":
		return ErrorExpected, nil
	case "False":
		return ErrorNotExpected, nil
	default:
		return ErrorMatching, r.compiled.expectError
	}
}

// StatusPattern returns the status pattern, or nil when the status condition is vacuous
// (undeclared or empty).
func (r Record) StatusPattern() *Pattern {
	return r.compiled.status
}

func (r Record) ExpectErrorText() string {
	return conditionText(r.ExpectError)
}

func (r Record) StatusText() string {
	return conditionText(r.Status)
}

func isScalar(v ldvalue.Value) bool {
	switch v.Type() {
	case ldvalue.ArrayType, ldvalue.ObjectType:
		return false
	default:
		return true
	}
}

func conditionText(v ldvalue.Value) string {
	switch v.Type() {
	case ldvalue.NullType:
		return ""
	case ldvalue.BoolType:
		if v.BoolValue() {
			return "True"
		}
		return "False"
	case ldvalue.StringType:
		return v.StringValue()
	case ldvalue.NumberType:
		if v.IsInt() {
			return strconv.Itoa(v.IntValue())
		}
		return strconv.FormatFloat(v.Float64Value(), 'f', -1, 64)
	default:
		return v.JSONString()
	}
}
