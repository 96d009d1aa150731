package serverlog

import (
	"strings"
	"testing"
	"time"

	"github.com/launchdarkly/ftw-comparator/conditions"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeRecords(t *testing.T, lines ...string) []conditions.Record {
	records, err := conditions.Load(strings.NewReader(strings.Join(lines, "\n")), time.Second)
	require.NoError(t, err)
	return records
}

func attribute(t *testing.T, log string, records []conditions.Record) []Outcome {
	outcomes, err := NewAttributor("", nil).Attribute(strings.NewReader(log), records)
	require.NoError(t, err)
	require.Len(t, outcomes, len(records))
	return outcomes
}

const sentinelLine = "GET /WB_Dummy_Request_URI HTTP/1.1\n"

func TestNoLogConditionsAreVacuouslySatisfied(t *testing.T) {
	outcomes := attribute(t, "anything\n", makeRecords(t, `{"test_title": "a"}`))
	assert.True(t, outcomes[0].LogContainsOK)
	assert.True(t, outcomes[0].NoLogContainsOK)
	assert.Equal(t, 1, outcomes[0].Lines)
}

func TestLogContainsMatchesWithinOwnSegment(t *testing.T) {
	records := makeRecords(t,
		`{"test_title": "a", "log_contains": "id \"942100\""}`,
		`{"test_title": "b", "log_contains": "id \"942100\""}`,
	)
	log := `[id "942100"] blocked` + "\n" + sentinelLine + "nothing here\n" + sentinelLine
	outcomes := attribute(t, log, records)
	assert.True(t, outcomes[0].LogContainsOK)
	assert.Equal(t, `[id "942100"] blocked`, outcomes[0].Matched)
	assert.False(t, outcomes[1].LogContainsOK)
}

func TestLogContainsAnyLineIsEnough(t *testing.T) {
	records := makeRecords(t, `{"test_title": "a", "log_contains": "ERROR"}`)
	outcomes := attribute(t, "info\nERROR boom\ninfo\n", records)
	assert.True(t, outcomes[0].LogContainsOK)
	assert.Equal(t, 3, outcomes[0].Lines)
}

func TestEmptyLogContainsIsAlwaysSatisfied(t *testing.T) {
	records := makeRecords(t, `{"test_title": "a", "log_contains": ""}`, `{"test_title": "b", "log_contains": ""}`)
	for _, log := range []string{"", "unrelated\n", sentinelLine} {
		outcomes := attribute(t, log, records)
		assert.True(t, outcomes[0].LogContainsOK, "log %q", log)
		assert.True(t, outcomes[1].LogContainsOK, "log %q", log)
	}
}

func TestNoLogContainsFailsOnAnyMatch(t *testing.T) {
	records := makeRecords(t,
		`{"test_title": "a", "no_log_contains": "id \"920\\d+\""}`,
		`{"test_title": "b", "no_log_contains": "id \"920\\d+\""}`,
	)
	log := "ok\n" + `[id "920350"]` + "\nok\n" + sentinelLine + `[id "941100"]` + "\n"
	outcomes := attribute(t, log, records)
	assert.False(t, outcomes[0].NoLogContainsOK)
	assert.Equal(t, `[id "920350"]`, outcomes[0].Forbidden)
	assert.True(t, outcomes[1].NoLogContainsOK)
}

func TestEmptyNoLogContainsMatchesAnyLine(t *testing.T) {
	records := makeRecords(t,
		`{"test_title": "a", "no_log_contains": ""}`,
		`{"test_title": "b", "no_log_contains": ""}`,
	)
	outcomes := attribute(t, "some line\n"+sentinelLine, records)
	assert.False(t, outcomes[0].NoLogContainsOK)
	assert.True(t, outcomes[1].NoLogContainsOK, "a segment with no lines cannot match")
}

func TestSentinelLinesAreNotMatched(t *testing.T) {
	records := makeRecords(t, `{"test_title": "a", "no_log_contains": "Dummy"}`, `{"test_title": "b"}`)
	outcomes := attribute(t, sentinelLine, records)
	assert.True(t, outcomes[0].NoLogContainsOK)
	assert.Equal(t, 0, outcomes[0].Lines)
}

func TestLinesPastLastRequestAreIgnored(t *testing.T) {
	records := makeRecords(t, `{"test_title": "a", "log_contains": "late"}`)
	outcomes := attribute(t, "early\n"+sentinelLine+"late\n"+sentinelLine+"later\n", records)
	assert.False(t, outcomes[0].LogContainsOK)
}

func TestCustomSentinel(t *testing.T) {
	records := makeRecords(t, `{"test_title": "a", "log_contains": "x"}`, `{"test_title": "b", "log_contains": "y"}`)
	outcomes, err := NewAttributor("--boundary--", nil).Attribute(strings.NewReader("x\n--boundary--\ny"), records)
	require.NoError(t, err)
	assert.True(t, outcomes[0].LogContainsOK)
	assert.True(t, outcomes[1].LogContainsOK)
}

func TestWindowsLineEndings(t *testing.T) {
	records := makeRecords(t, `{"test_title": "a", "log_contains": "denied$"}`)
	outcomes := attribute(t, "access denied\r\n", records)
	assert.True(t, outcomes[0].LogContainsOK)
}

func TestLogLinesMatchAsBytes(t *testing.T) {
	records := makeRecords(t,
		`{"test_title": "a", "log_contains": "arg=\\xc0\\xaf"}`,
		`{"test_title": "b", "no_log_contains": "\\xc0"}`,
	)
	log := "ModSecurity: arg=\xc0\xaf invalid UTF-8\n" + sentinelLine + "clean line\n" + sentinelLine
	outcomes := attribute(t, log, records)
	assert.True(t, outcomes[0].LogContainsOK)
	assert.True(t, outcomes[1].NoLogContainsOK)
}
