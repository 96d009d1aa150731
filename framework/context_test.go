package framework

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTestLogger struct {
	events []string
	debug  map[TestID]CapturedOutput
}

func (r *recordingTestLogger) TestStarted(id TestID) {
	r.events = append(r.events, "started "+id.String())
}

func (r *recordingTestLogger) TestError(id TestID, err error) {
	r.events = append(r.events, "error "+id.String()+": "+err.Error())
}

func (r *recordingTestLogger) TestFinished(id TestID, failed bool, debugOutput CapturedOutput) {
	r.events = append(r.events, fmt.Sprintf("finished %s failed=%t", id, failed))
	if r.debug == nil {
		r.debug = make(map[TestID]CapturedOutput)
	}
	r.debug[id] = debugOutput
}

func (r *recordingTestLogger) TestSkipped(id TestID, reason string) {
	r.events = append(r.events, "skipped "+id.String()+": "+reason)
}

func TestRunRecordsPassesAndFailures(t *testing.T) {
	logger := &recordingTestLogger{}
	var second TestResult
	results := Run(nil, logger, func(c *Context) {
		c.Run(TestID{Index: 0, Title: "a"}, func(c *Context) {
			c.Debug("looked at %d lines", 3)
		})
		second = c.Run(TestID{Index: 1, Title: "b"}, func(c *Context) {
			c.Errorf("first problem")
			c.Errorf("second problem")
		})
	})

	assert.False(t, results.OK())
	require.Len(t, results.Tests, 2)
	require.Len(t, results.Failures, 1)
	assert.Equal(t, "b", results.Failures[0].TestID.Title)
	assert.True(t, second.Failed())
	require.Len(t, second.Errors, 2)
	assert.Equal(t, "second problem", second.Errors[1].Error())
	assert.False(t, results.Tests[0].Failed())

	assert.Equal(t, []string{
		`started "a" Index: 0`,
		`finished "a" Index: 0 failed=false`,
		`started "b" Index: 1`,
		`error "b" Index: 1: first problem`,
		`error "b" Index: 1: second problem`,
		`finished "b" Index: 1 failed=true`,
	}, logger.events)
	assert.Equal(t, CapturedOutput{"looked at 3 lines"}, logger.debug[TestID{Index: 0, Title: "a"}])
}

func TestPanicBecomesFailure(t *testing.T) {
	results := Run(nil, nil, func(c *Context) {
		c.Run(TestID{Title: "boom"}, func(c *Context) {
			var m map[string]int
			m["x"]++
		})
	})
	require.Len(t, results.Failures, 1)
	assert.Contains(t, results.Failures[0].Errors[0].Error(), "unexpected panic")
}

func TestFilterSkipsCases(t *testing.T) {
	var filters RegexFilters
	require.NoError(t, filters.MustNotMatch.Set("^9201"))
	logger := &recordingTestLogger{}
	ran := 0
	results := Run(filters.AsFilter, logger, func(c *Context) {
		for i, title := range []string{"920100-1", "941100-1"} {
			c.Run(TestID{Index: i, Title: title}, func(c *Context) { ran++ })
		}
	})
	assert.Equal(t, 1, ran)
	require.Len(t, results.Skipped, 1)
	assert.Equal(t, "920100-1", results.Skipped[0].TestID.Title)
	assert.True(t, results.OK())
	assert.Contains(t, logger.events, `skipped "920100-1" Index: 0: excluded by filter parameters`)
}

func TestRegexFilters(t *testing.T) {
	var filters RegexFilters
	assert.True(t, filters.AsFilter(TestID{Title: "anything"}))

	require.NoError(t, filters.MustMatch.Set("^942"))
	require.NoError(t, filters.MustNotMatch.Set("-3$"))
	assert.True(t, filters.AsFilter(TestID{Title: "942100-1"}))
	assert.False(t, filters.AsFilter(TestID{Title: "942100-3"}))
	assert.False(t, filters.AsFilter(TestID{Title: "941100-1"}))

	assert.Error(t, filters.MustMatch.Set("("))

	var buf bytes.Buffer
	PrintFilterDescription(&buf, filters)
	assert.Contains(t, buf.String(), `skip any title not matching "^942"`)
	assert.Contains(t, buf.String(), `skip any title matching "-3$"`)
}

func TestCapturedOutputDump(t *testing.T) {
	var l CapturingLogger
	l.Printf("one")
	l.Printf("two\nthree\n")
	var buf bytes.Buffer
	l.Output().Dump(&buf, "    DEBUG ")
	assert.Equal(t, "    DEBUG one\n    DEBUG two\n    DEBUG three\n", buf.String())
}

func TestIDStringKeepsTitleVerbatim(t *testing.T) {
	assert.Equal(t, `"say "hi" C:\tmp" Index: 2`, TestID{Index: 2, Title: `say "hi" C:\tmp`}.String())
}
