package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/launchdarkly/ftw-comparator/comparison"
	"github.com/launchdarkly/ftw-comparator/framework"
	"github.com/launchdarkly/ftw-comparator/logging"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	var params commandParams
	if !params.Read(args) {
		return 1
	}
	if params.noColor {
		color.NoColor = true
		logging.NoColor = true
	}

	w, logFile, err := logging.SetupLogWriter(params.harnessLog)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if logFile != nil {
		defer logFile.Close()
	}
	logger := logging.New(w, params.verbose)
	logger.Info("Starting comparison", "command", params.commandLine(args[0]).String())

	fmt.Println()
	framework.PrintFilterDescription(os.Stdout, params.filters)

	testLogger := &ConsoleTestLogger{
		Out:                  os.Stdout,
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	r, err := comparison.Run(comparison.Options{
		Paths:        params.paths(),
		Sentinel:     params.cfg.Sentinel,
		RegexTimeout: params.cfg.RegexTimeout,
		Filter:       params.filters.AsFilter,
		TestLogger:   testLogger,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("Comparison failed", "error", err)
		return 1
	}

	var summary strings.Builder
	_ = r.WriteSummary(&summary)
	color.New(color.FgYellow).Print(summary.String())
	if !r.OK() {
		return 1
	}
	return 0
}
