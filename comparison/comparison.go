// Package comparison runs a whole comparison: it opens the capture artifacts, demuxes the
// streams, attributes the server log, evaluates every case and writes both reports.
package comparison

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/launchdarkly/ftw-comparator/conditions"
	"github.com/launchdarkly/ftw-comparator/decoder"
	"github.com/launchdarkly/ftw-comparator/framework"
	"github.com/launchdarkly/ftw-comparator/logging"
	"github.com/launchdarkly/ftw-comparator/report"
	"github.com/launchdarkly/ftw-comparator/serverlog"
	"github.com/launchdarkly/ftw-comparator/stream"
)

var ErrMissingLogPath = errors.New("the server log path is required")

// FileAccessError means an input could not be opened for reading or an output could not be
// opened for writing.
type FileAccessError struct {
	Role string
	Path string
	Err  error
}

func (e *FileAccessError) Error() string {
	return fmt.Sprintf("cannot open %s file %q: %s", e.Role, e.Path, e.Err)
}

func (e *FileAccessError) Unwrap() error {
	return e.Err
}

type Paths struct {
	Requests   string
	Responses  string
	RawYAML    string
	ServerLog  string
	Conditions string
	TextOutput string
	JSONOutput string
}

type Options struct {
	Paths        Paths
	Sentinel     string
	RegexTimeout time.Duration
	Decoder      decoder.Decoder
	Filter       framework.Filter
	TestLogger   framework.TestLogger
	Logger       *slog.Logger
}

type files struct {
	requests, responses, rawYAML, serverLog, conditions *os.File
	text, json                                          *os.File
	// created lists the output paths that did not exist before the run.
	created []string
}

func (f *files) close() {
	for _, file := range []*os.File{f.requests, f.responses, f.rawYAML, f.serverLog, f.conditions, f.text, f.json} {
		if file != nil {
			_ = file.Close()
		}
	}
}

// removeCreated closes the outputs and deletes the ones this run created, so that a run that
// fails before writing its reports leaves no empty report files behind.
func (f *files) removeCreated() {
	for _, file := range []**os.File{&f.text, &f.json} {
		if *file != nil {
			_ = (*file).Close()
			*file = nil
		}
	}
	for _, path := range f.created {
		_ = os.Remove(path)
	}
	f.created = nil
}

// Run performs the comparison and writes both reports. Every file is opened before any of them
// is read, so an inaccessible file aborts the run without producing reports.
//
// The returned report is complete even if evaluation stopped early because responses ran out;
// check Report.Starved.
func Run(opts Options) (*report.Report, error) {
	if opts.Paths.ServerLog == "" {
		return nil, ErrMissingLogPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	if opts.RegexTimeout <= 0 {
		opts.RegexTimeout = conditions.DefaultMatchTimeout
	}

	f, err := openAll(opts.Paths)
	if err != nil {
		return nil, err
	}
	defer f.close()

	in, err := load(f, opts, logger)
	if err != nil {
		f.removeCreated()
		return nil, err
	}

	r := report.NewAggregator(report.Options{
		Decoder:    opts.Decoder,
		Filter:     opts.Filter,
		TestLogger: opts.TestLogger,
		Logger:     logger,
	}).Aggregate(in)

	if err := writeOutput(f.text, r.WriteText); err != nil {
		return r, fmt.Errorf("failed to write text report: %w", err)
	}
	if err := writeOutput(f.json, r.WriteJSON); err != nil {
		return r, fmt.Errorf("failed to write JSON report: %w", err)
	}
	logger.Debug("Reports written", "text", opts.Paths.TextOutput, "json", opts.Paths.JSONOutput)
	return r, nil
}

func openAll(p Paths) (*files, error) {
	f := &files{}
	inputs := []struct {
		role string
		path string
		dest **os.File
	}{
		{"request stream", p.Requests, &f.requests},
		{"response stream", p.Responses, &f.responses},
		{"raw scenario", p.RawYAML, &f.rawYAML},
		{"server log", p.ServerLog, &f.serverLog},
		{"conditions", p.Conditions, &f.conditions},
	}
	for _, in := range inputs {
		file, err := os.Open(in.path)
		if err != nil {
			f.close()
			return nil, &FileAccessError{Role: in.role, Path: in.path, Err: err}
		}
		*in.dest = file
	}

	// Outputs are not truncated until the reports are ready.
	outputs := []struct {
		role string
		path string
		dest **os.File
	}{
		{"text report", p.TextOutput, &f.text},
		{"JSON report", p.JSONOutput, &f.json},
	}
	for _, out := range outputs {
		_, statErr := os.Stat(out.path)
		file, err := os.OpenFile(out.path, os.O_WRONLY|os.O_CREATE, logging.FilePermission)
		if err != nil {
			f.removeCreated()
			f.close()
			return nil, &FileAccessError{Role: out.role, Path: out.path, Err: err}
		}
		*out.dest = file
		if errors.Is(statErr, fs.ErrNotExist) {
			f.created = append(f.created, out.path)
		}
	}
	return f, nil
}

func load(f *files, opts Options, logger *slog.Logger) (report.Input, error) {
	var in report.Input
	var err error

	if in.Requests, err = stream.ReadRequests(f.requests); err != nil {
		return in, fmt.Errorf("failed to read request stream: %w", err)
	}
	if in.Responses, err = stream.ReadResponses(f.responses); err != nil {
		return in, fmt.Errorf("failed to read response stream: %w", err)
	}
	if in.Scenarios, err = conditions.LoadScenarios(f.rawYAML); err != nil {
		return in, fmt.Errorf("failed to read raw scenarios: %w", err)
	}
	if in.Conditions, err = conditions.Load(f.conditions, opts.RegexTimeout); err != nil {
		return in, err
	}
	logger.Info("Loaded capture",
		"requests", len(in.Requests), "responses", len(in.Responses), "conditions", len(in.Conditions))

	in.Log, err = serverlog.NewAttributor(opts.Sentinel, logger).Attribute(f.serverLog, in.Conditions)
	if err != nil {
		return in, fmt.Errorf("failed to read server log: %w", err)
	}
	return in, nil
}

func writeOutput(f *os.File, write func(io.Writer) error) error {
	if err := f.Truncate(0); err != nil {
		return err
	}
	if err := write(f); err != nil {
		return err
	}
	return f.Sync()
}
