// Package serverlog attributes server log lines to test requests and evaluates the log_contains
// and no_log_contains conditions.
//
// The capture tool sends a dummy request after every test request. The server logs the dummy
// request's URI, and that line (the sentinel) marks the boundary between the log output of
// one test request and the next.
package serverlog

import (
	"bufio"
	"io"
	"log/slog"
	"strings"

	"github.com/launchdarkly/ftw-comparator/conditions"
	"github.com/launchdarkly/ftw-comparator/logging"
)

const DefaultSentinel = "WB_Dummy_Request_URI"

// Outcome is the log verdict for a single request.
type Outcome struct {
	LogContainsOK   bool
	NoLogContainsOK bool

	// Lines is the number of log lines attributed to the request.
	Lines int
	// Matched is the first line that satisfied log_contains, if any.
	Matched string
	// Forbidden is the first line that matched no_log_contains, if any.
	Forbidden string
}

type Attributor struct {
	sentinel string
	logger   *slog.Logger
}

func NewAttributor(sentinel string, logger *slog.Logger) *Attributor {
	if sentinel == "" {
		sentinel = DefaultSentinel
	}
	if logger == nil {
		logger = logging.Discard()
	}
	return &Attributor{sentinel: sentinel, logger: logger}
}

// Attribute scans the log and returns one Outcome per record, indexed like records.
//
// Lines before the first sentinel belong to request 0, lines after the k-th sentinel belong to
// request k. Lines attributed to an index that has no record are ignored.
func (a *Attributor) Attribute(log io.Reader, records []conditions.Record) ([]Outcome, error) {
	outcomes := make([]Outcome, len(records))
	for i, rec := range records {
		outcomes[i] = Outcome{
			LogContainsOK:   !nonEmpty(rec.LogContainsPattern()),
			NoLogContainsOK: true,
		}
	}

	br := bufio.NewReader(log)
	cursor, unattributed := 0, 0
	for {
		line, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if line != "" {
			line = strings.TrimRight(line, "\r\n")
			switch {
			case strings.Contains(line, a.sentinel):
				cursor++
			case cursor >= len(records):
				unattributed++
			default:
				a.match(&outcomes[cursor], records[cursor], line)
			}
		}
		if err == io.EOF {
			break
		}
	}

	if cursor != len(records) {
		a.logger.Debug("Sentinel count differs from number of conditions",
			"sentinels", cursor, "conditions", len(records))
	}
	if unattributed > 0 {
		a.logger.Debug("Ignored log lines past the last request", "lines", unattributed)
	}
	return outcomes, nil
}

func (a *Attributor) match(o *Outcome, rec conditions.Record, line string) {
	o.Lines++
	if p := rec.LogContainsPattern(); !o.LogContainsOK && nonEmpty(p) && a.search(p, rec, line) {
		o.LogContainsOK = true
		o.Matched = line
	}
	// an empty no_log_contains pattern matches every line
	if p := rec.NoLogContainsPattern(); p != nil && o.NoLogContainsOK && a.search(p, rec, line) {
		o.NoLogContainsOK = false
		o.Forbidden = line
	}
}

func (a *Attributor) search(p *conditions.Pattern, rec conditions.Record, line string) bool {
	matched, err := p.SearchBytes([]byte(line))
	if err != nil {
		a.logger.Warn("Pattern search abandoned, treating as no match",
			"test", rec.TestTitle, "pattern", p.String(), "error", err)
		return false
	}
	return matched
}

func nonEmpty(p *conditions.Pattern) bool {
	return p != nil && p.String() != ""
}
