package report

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/launchdarkly/ftw-comparator/conditions"
	"github.com/launchdarkly/ftw-comparator/decoder"
	"github.com/launchdarkly/ftw-comparator/evaluator"
	"github.com/launchdarkly/ftw-comparator/framework"
	"github.com/launchdarkly/ftw-comparator/logging"
	"github.com/launchdarkly/ftw-comparator/serverlog"
)

// Input is everything the aggregator needs, aligned by request index. Log must have one
// outcome per record in Conditions.
type Input struct {
	Conditions []conditions.Record
	Scenarios  conditions.Scenarios
	Requests   [][]byte
	Responses  [][]byte
	Log        []serverlog.Outcome
}

type Options struct {
	// Decoder defaults to decoder.HTTPDecoder.
	Decoder    decoder.Decoder
	Filter     framework.Filter
	TestLogger framework.TestLogger
	Logger     *slog.Logger
}

type Aggregator struct {
	evaluator  *evaluator.Evaluator
	filter     framework.Filter
	testLogger framework.TestLogger
	logger     *slog.Logger
}

func NewAggregator(opts Options) *Aggregator {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Aggregator{
		evaluator:  evaluator.New(opts.Decoder, logger),
		filter:     opts.Filter,
		testLogger: opts.TestLogger,
		logger:     logger,
	}
}

// Aggregate evaluates every request in order. If the responses or conditions run out before
// the requests do, it stops there; the report still contains every case evaluated so far.
func (a *Aggregator) Aggregate(in Input) *Report {
	r := newReport(len(in.Requests))
	if len(in.Requests) != len(in.Responses) {
		r.CountMismatch = true
		a.logger.Warn("The number of requests and responses differ",
			"requests", len(in.Requests), "responses", len(in.Responses))
	}
	firstIndex := make(map[string]int)

	results := framework.Run(a.filter, a.testLogger, func(c *framework.Context) {
		for i := range in.Requests {
			if i >= len(in.Responses) || i >= len(in.Conditions) {
				a.logger.Warn("The number of responses is less than requests, stopping",
					"index", i, "requests", len(in.Requests), "responses", len(in.Responses),
					"conditions", len(in.Conditions))
				r.Starved = true
				r.StoppedAt = i
				return
			}
			rec := in.Conditions[i]
			id := framework.TestID{Index: i, Title: rec.TestTitle}
			result := c.Run(id, func(c *framework.Context) {
				a.check(c, rec, in.Log[i], in.Responses[i])
			})
			if result.Skipped {
				continue
			}

			entry := Entry{ID: id, Passed: !result.Failed(), Errors: result.Errors}
			entry.Text = formatBlock(id, result.Errors) +
				formatDump(a.scenario(in.Scenarios, rec.TestTitle), in.Requests[i], in.Responses[i])
			if prev, ok := firstIndex[rec.TestTitle]; ok {
				a.logger.Warn("Duplicate test title, the JSON report keeps only the last one",
					"title", rec.TestTitle, "first_index", prev, "index", i)
			} else {
				firstIndex[rec.TestTitle] = i
			}
			r.Entries = append(r.Entries, entry)
			r.ByTitle[rec.TestTitle] = entry.Text
		}
	})
	r.Failures = len(results.Failures)
	r.Skipped = len(results.Skipped)
	return r
}

// check reports each failed condition with Errorf, in a fixed order: expect_error,
// log_contains, no_log_contains, status.
func (a *Aggregator) check(c *framework.Context, rec conditions.Record, log serverlog.Outcome, raw []byte) {
	outcome := a.evaluator.Evaluate(rec, raw)

	c.Debug("%d log lines attributed", log.Lines)
	if log.Matched != "" {
		c.Debug("log_contains matched: %s", log.Matched)
	}
	if outcome.Result.OK() {
		c.Debug("decoded response status %d", outcome.Result.Response.Status)
	} else if outcome.Result.Failure != nil {
		c.Debug("response did not decode: %s", outcome.Result.Failure)
	}

	if !outcome.ErrorOK {
		c.Errorf("%s", outcome.Diagnostic)
	}
	if !log.LogContainsOK {
		c.Errorf("Log_contains check error. Log_contains condition = %s", rec.LogContains.StringValue())
	}
	if !log.NoLogContainsOK {
		c.Debug("no_log_contains matched: %s", log.Forbidden)
		c.Errorf("No_log_contains check error. No_log_contains condition = %s", rec.NoLogContains.StringValue())
	}
	if !outcome.StatusOK {
		actual := "Actual there is no status!"
		if outcome.Result.OK() {
			actual = fmt.Sprintf("Actual Response Status: %d", outcome.Result.Response.Status)
		}
		c.Errorf("Expected Response Status: %s\n%s", rec.StatusText(), actual)
	}
}

func (a *Aggregator) scenario(scenarios conditions.Scenarios, title string) string {
	text, ok := scenarios[title]
	if !ok {
		a.logger.Warn("No raw scenario recorded for test", "title", title)
	}
	return text
}

func formatBlock(id framework.TestID, errs []error) string {
	var b strings.Builder
	if len(errs) == 0 {
		fmt.Fprintf(&b, "\n=====ASSERT PASSED: \"%s\"; Index: %d=====\n", id.Title, id.Index)
		return b.String()
	}
	fmt.Fprintf(&b, "\n=====ASSERT FAILED: \"%s\" Index: %d=====\n", id.Title, id.Index)
	for _, err := range errs {
		b.WriteString(err.Error())
		b.WriteString("\n")
	}
	return b.String()
}

func formatDump(scenario string, request, response []byte) string {
	var b strings.Builder
	b.WriteString("The raw yaml is: \n")
	b.WriteString(scenario + "\n")
	b.WriteString("The request package is:\n")
	b.Write(request)
	b.WriteString("\n\n")
	b.WriteString("The response package is:\n")
	b.Write(response)
	b.WriteString("\n")
	return b.String()
}
