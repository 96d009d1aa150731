// Package report combines the log and response verdicts for every test case into the text and
// JSON comparison reports.
package report

import (
	"fmt"
	"io"

	"github.com/bytedance/sonic"
	"github.com/life4/genesis/slices"

	"github.com/launchdarkly/ftw-comparator/framework"
)

// Entries embed raw response bytes, which need not be UTF-8. ValidateString replaces invalid
// bytes with U+FFFD so the report is always valid UTF-8.
var jsonAPI = sonic.Config{
	EscapeHTML:     false,
	SortMapKeys:    true,
	ValidateString: true,
}.Froze()

// Entry is the report text for one evaluated test case: its PASS or FAIL block followed by the
// scenario, request and response dumps.
type Entry struct {
	ID     framework.TestID
	Passed bool
	// Errors are the failed conditions, in report order.
	Errors []error
	Text   string
}

// Report is the outcome of a comparison run.
type Report struct {
	Entries []Entry
	// ByTitle maps each test title to the text of its entry. When titles repeat, the last
	// entry wins.
	ByTitle map[string]string

	// Requests is the number of genuine requests in the capture.
	Requests int
	Failures int
	Skipped  int

	// CountMismatch is set when the capture had a different number of requests and responses.
	CountMismatch bool

	// Starved is set when evaluation stopped early because there were fewer responses (or
	// conditions) than requests. StoppedAt is the first index that was not evaluated.
	Starved   bool
	StoppedAt int
}

func newReport(requests int) *Report {
	return &Report{
		ByTitle:   make(map[string]string),
		Requests:  requests,
		StoppedAt: -1,
	}
}

// OK returns true if every evaluated case passed and nothing was left unevaluated.
func (r *Report) OK() bool {
	return r.Failures == 0 && !r.Starved
}

// FailedTitles returns the titles of failed cases in evaluation order.
func (r *Report) FailedTitles() []string {
	failed := slices.Filter(r.Entries, func(e Entry) bool { return !e.Passed })
	return slices.Map(failed, func(e Entry) string { return e.ID.Title })
}

// WriteText writes every entry followed by the summary.
func (r *Report) WriteText(w io.Writer) error {
	for _, e := range r.Entries {
		if _, err := io.WriteString(w, e.Text); err != nil {
			return err
		}
	}
	return r.WriteSummary(w)
}

// WriteJSON writes the title to entry mapping as a single JSON object with sorted keys.
func (r *Report) WriteJSON(w io.Writer) error {
	data, err := jsonAPI.Marshal(r.ByTitle)
	if err != nil {
		return fmt.Errorf("failed to encode JSON report: %w", err)
	}
	_, err = w.Write(data)
	return err
}

func (r *Report) WriteSummary(w io.Writer) error {
	ew := &errWriter{w: w}
	ew.printf("\n***************************Result Overview********************************\n")
	ew.printf("Number of total   requests: %d\n", r.Requests)
	ew.printf("Number of unmatch requests: %d\n", r.Failures)
	if r.Skipped > 0 {
		ew.printf("Number of skipped requests: %d\n", r.Skipped)
	}
	if r.Starved {
		ew.printf("Evaluation stopped at index %d: %d requests were not evaluated\n",
			r.StoppedAt, r.Requests-r.StoppedAt)
	}
	for _, title := range r.FailedTitles() {
		ew.printf("  unmatched: %s\n", title)
	}
	return ew.err
}

type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err == nil {
		_, e.err = fmt.Fprintf(e.w, format, args...)
	}
}
