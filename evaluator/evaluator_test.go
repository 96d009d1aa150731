package evaluator

import (
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/ftw-comparator/conditions"
	"github.com/launchdarkly/ftw-comparator/decoder"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDecoder recognizes two canned responses and fails on everything else.
var fakeDecoder = decoder.DecoderFunc(func(raw []byte) decoder.Result {
	switch string(raw) {
	case "HELLO":
		return decoder.Decoded(&decoder.Response{Status: 200})
	case "NOT FOUND":
		return decoder.Decoded(&decoder.Response{Status: 404})
	default:
		return decoder.Failed("unparseable response", nil)
	}
})

func record(t *testing.T, json string) conditions.Record {
	records, err := conditions.Load(strings.NewReader(json), time.Second)
	require.NoError(t, err)
	require.Len(t, records, 1)
	return records[0]
}

func evaluate(t *testing.T, json, raw string) Outcome {
	return New(fakeDecoder, nil).Evaluate(record(t, json), []byte(raw))
}

func TestExpectErrorOnDecodeFailure(t *testing.T) {
	for _, tc := range []struct {
		name       string
		json       string
		errorOK    bool
		diagnostic string
	}{
		{"absent", `{"test_title": "t"}`, false, "Caught an unexpected error"},
		{"False", `{"test_title": "t", "expect_error": "False"}`, false, "Caught an error but none was expected"},
		{"boolean false", `{"test_title": "t", "expect_error": false}`, false, "Caught an error but none was expected"},
		{"True", `{"test_title": "t", "expect_error": "True"}`, true, ""},
		{"boolean true", `{"test_title": "t", "expect_error": true}`, true, ""},
		{"matching pattern", `{"test_title": "t", "expect_error": "Bad\\s+Gate"}`, true, ""},
		{"non-matching pattern", `{"test_title": "t", "expect_error": "nope"}`, false, `did not match expect_error "nope"`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := evaluate(t, tc.json, "502 Bad  Gateway garbage")
			assert.Equal(t, tc.errorOK, o.ErrorOK)
			if tc.diagnostic == "" {
				assert.Empty(t, o.Diagnostic)
			} else {
				assert.Contains(t, o.Diagnostic, tc.diagnostic)
				assert.Contains(t, o.Diagnostic, "unparseable response")
			}
			assert.False(t, o.Result.OK())
		})
	}
}

func TestExpectErrorOnDecodeSuccess(t *testing.T) {
	for _, tc := range []struct {
		name    string
		json    string
		errorOK bool
	}{
		{"absent", `{"test_title": "t"}`, true},
		{"False", `{"test_title": "t", "expect_error": "False"}`, true},
		{"True", `{"test_title": "t", "expect_error": "True"}`, false},
		{"pattern matching the raw bytes", `{"test_title": "t", "expect_error": "HELLO"}`, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			o := evaluate(t, tc.json, "HELLO")
			assert.Equal(t, tc.errorOK, o.ErrorOK)
			if !tc.errorOK {
				assert.Equal(t, "Expected an error but none occurred", o.Diagnostic)
			}
			assert.True(t, o.Result.OK())
		})
	}
}

func TestStatus(t *testing.T) {
	for _, tc := range []struct {
		name     string
		json     string
		raw      string
		statusOK bool
	}{
		{"200 against 200", `{"test_title": "t", "status": "200"}`, "HELLO", true},
		{"200 against 404", `{"test_title": "t", "status": "200"}`, "NOT FOUND", false},
		{"numeric status", `{"test_title": "t", "status": 404}`, "NOT FOUND", true},
		{"alternation", `{"test_title": "t", "status": "403|404"}`, "NOT FOUND", true},
		{"partial match is a search", `{"test_title": "t", "status": "0"}`, "HELLO", true},
		{"absent", `{"test_title": "t"}`, "garbage", true},
		{"empty", `{"test_title": "t", "status": ""}`, "garbage", true},
		{"decode failed", `{"test_title": "t", "status": ".*"}`, "garbage", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.statusOK, evaluate(t, tc.json, tc.raw).StatusOK)
		})
	}
}

func TestOutcomeCarriesDecodeResult(t *testing.T) {
	e := New(fakeDecoder, nil)
	rec := record(t, `{"test_title": "t"}`)

	o := e.Evaluate(rec, []byte("HELLO"))
	require.True(t, o.Result.OK())
	assert.Equal(t, 200, o.Result.Response.Status)

	o = e.Evaluate(rec, []byte("garbage"))
	assert.False(t, o.Result.OK())
}

func TestExpectErrorMatchesRawBytes(t *testing.T) {
	for _, tc := range []struct {
		name    string
		json    string
		raw     string
		errorOK bool
	}{
		{"hex escape matches a non-UTF-8 byte", `{"test_title": "t", "expect_error": "\\xff"}`, "HTTP\xff", true},
		{"byte class", `{"test_title": "t", "expect_error": "[\\x80-\\xff]{2}"}`, "\x1f\x8b\x08\xfe\xfd", true},
		{"non-ASCII literal matches its encoding", `{"test_title": "t", "expect_error": "caf\u00e9"}`, "caf\xc3\xa9", true},
		{"non-ASCII literal does not match Latin-1", `{"test_title": "t", "expect_error": "caf\u00e9"}`, "caf\xe9", false},
		{"absent byte", `{"test_title": "t", "expect_error": "\\xfe"}`, "HTTP\xff", false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.errorOK, evaluate(t, tc.json, tc.raw).ErrorOK)
		})
	}
}

func TestZeroResultIsTreatedAsFailure(t *testing.T) {
	d := decoder.DecoderFunc(func([]byte) decoder.Result { return decoder.Result{} })
	o := New(d, nil).Evaluate(record(t, `{"test_title": "t"}`), []byte("x"))
	assert.False(t, o.ErrorOK)
	assert.Contains(t, o.Diagnostic, "response could not be decoded")
}

func TestDefaultDecoder(t *testing.T) {
	o := New(nil, nil).Evaluate(record(t, `{"test_title": "t", "status": "403"}`),
		[]byte("HTTP/1.1 403 Forbidden\r\nContent-Length: 0\r\n\r\n"))
	assert.True(t, o.ErrorOK)
	assert.True(t, o.StatusOK)
}
