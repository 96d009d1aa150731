package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/alessio/shellescape"

	"github.com/launchdarkly/ftw-comparator/comparison"
	"github.com/launchdarkly/ftw-comparator/config"
	"github.com/launchdarkly/ftw-comparator/framework"
)

type commandParams struct {
	configPath string
	cfg        *config.Config
	filters    framework.RegexFilters
	debug      bool
	debugAll   bool
	verbose    bool
	noColor    bool
	harnessLog string
}

type stringSetting struct {
	name  string
	short string
	usage string
	field func(*config.Config) *string
}

var stringSettings = []stringSetting{
	{"requests", "q", "request stream file",
		func(c *config.Config) *string { return &c.Inputs.Requests }},
	{"responses", "r", "response stream file",
		func(c *config.Config) *string { return &c.Inputs.Responses }},
	{"raw-yaml", "y", "raw scenario file",
		func(c *config.Config) *string { return &c.Inputs.RawYAML }},
	{"server-log", "L", "server log file (required)",
		func(c *config.Config) *string { return &c.Inputs.ServerLog }},
	{"conditions", "c", "conditions file",
		func(c *config.Config) *string { return &c.Inputs.Conditions }},
	{"output", "o", "text report file",
		func(c *config.Config) *string { return &c.Outputs.Text }},
	{"output-json", "j", "JSON report file",
		func(c *config.Config) *string { return &c.Outputs.JSON }},
	{"sentinel", "", "log line marker that separates one request's log output from the next",
		func(c *config.Config) *string { return &c.Sentinel }},
}

// Read parses the command line. Settings come from the built-in defaults, then the -config
// file, then any flags that were given explicitly.
func (c *commandParams) Read(args []string) bool {
	fs := flag.NewFlagSet("", flag.ExitOnError)
	flagValues := config.Defaults()
	overrides := make(map[string]func(*config.Config))

	for _, s := range stringSettings {
		p := s.field(flagValues)
		fs.StringVar(p, s.name, *p, s.usage)
		apply := func(cfg *config.Config) { *s.field(cfg) = *p }
		overrides[s.name] = apply
		if s.short != "" {
			fs.StringVar(p, s.short, *p, "shorthand for -"+s.name)
			overrides[s.short] = apply
		}
	}
	fs.DurationVar(&flagValues.RegexTimeout, "regex-timeout", flagValues.RegexTimeout,
		"maximum time for a single pattern match")
	overrides["regex-timeout"] = func(cfg *config.Config) { cfg.RegexTimeout = flagValues.RegexTimeout }

	fs.StringVar(&c.configPath, "config", "", "YAML config file")
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select test titles to evaluate")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select test titles not to evaluate")
	fs.BoolVar(&c.debug, "debug", false, "show debug output for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "show debug output for all tests")
	fs.BoolVar(&c.verbose, "verbose", false, "enable debug logging")
	fs.StringVar(&c.harnessLog, "harness-log", "", "also write log output to this file")
	fs.BoolVar(&c.noColor, "no-color", false, "disable colored output")

	if err := fs.Parse(args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		fs.Usage()
		return false
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "unexpected arguments: %s\n", strings.Join(fs.Args(), " "))
		fs.Usage()
		return false
	}

	c.cfg = config.Defaults()
	if c.configPath != "" {
		cfg, err := config.Load(c.configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return false
		}
		c.cfg = cfg
	}
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := overrides[f.Name]; ok {
			apply(c.cfg)
		}
	})
	if err := c.cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid parameters: %s\n", err)
		return false
	}
	return true
}

func (c *commandParams) paths() comparison.Paths {
	return comparison.Paths{
		Requests:   c.cfg.Inputs.Requests,
		Responses:  c.cfg.Inputs.Responses,
		RawYAML:    c.cfg.Inputs.RawYAML,
		ServerLog:  c.cfg.Inputs.ServerLog,
		Conditions: c.cfg.Inputs.Conditions,
		TextOutput: c.cfg.Outputs.Text,
		JSONOutput: c.cfg.Outputs.JSON,
	}
}

// commandLine returns an equivalent command line with every effective setting spelled out.
func (c *commandParams) commandLine(program string) commandBuilder {
	var b commandBuilder
	b.add(program)
	for _, s := range stringSettings {
		if value := *s.field(c.cfg); value != "" {
			b.add("-"+s.name, value)
		}
	}
	b.add("-regex-timeout", c.cfg.RegexTimeout.String())
	for _, p := range c.filters.MustMatch.Patterns() {
		b.add("-run", p)
	}
	for _, p := range c.filters.MustNotMatch.Patterns() {
		b.add("-skip", p)
	}
	return b
}

type commandBuilder []string

func (b *commandBuilder) add(args ...string) {
	for _, a := range args {
		*b = append(*b, shellescape.Quote(a))
	}
}

func (b commandBuilder) String() string {
	return strings.Join(b, " ")
}
