// Package config holds the settings for a comparison run, which can come from a YAML file as
// well as from command line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/launchdarkly/ftw-comparator/conditions"
	"github.com/launchdarkly/ftw-comparator/serverlog"
)

type Config struct {
	Inputs       InputsConfig  `yaml:"inputs"`
	Outputs      OutputsConfig `yaml:"outputs"`
	Sentinel     string        `yaml:"sentinel"`
	RegexTimeout time.Duration `yaml:"regex_timeout"`
}

type InputsConfig struct {
	Requests   string `yaml:"requests"`
	Responses  string `yaml:"responses"`
	RawYAML    string `yaml:"raw_yaml"`
	ServerLog  string `yaml:"server_log"`
	Conditions string `yaml:"conditions"`
}

type OutputsConfig struct {
	Text string `yaml:"text"`
	JSON string `yaml:"json"`
}

// Defaults returns the built-in settings. There is no default server log path.
func Defaults() *Config {
	return &Config{
		Inputs: InputsConfig{
			Requests:   "temp_requests.dat",
			Responses:  "temp_responses.dat",
			RawYAML:    "temp_raw_yaml.dat",
			Conditions: "temp_conditions.dat",
		},
		Outputs: OutputsConfig{
			Text: "comp_output.dat",
			JSON: "comp_output.dat.json",
		},
		Sentinel:     serverlog.DefaultSentinel,
		RegexTimeout: conditions.DefaultMatchTimeout,
	}
}

// Load reads a YAML config file on top of the defaults. Environment variables in the file are
// expanded.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	expanded := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that do not depend on the file system. A missing server log
// path is not reported here, since it may still be supplied on the command line.
func (c *Config) Validate() error {
	if c.Inputs.Requests == "" {
		return errors.New("inputs.requests must not be empty")
	}
	if c.Inputs.Responses == "" {
		return errors.New("inputs.responses must not be empty")
	}
	if c.Inputs.RawYAML == "" {
		return errors.New("inputs.raw_yaml must not be empty")
	}
	if c.Inputs.Conditions == "" {
		return errors.New("inputs.conditions must not be empty")
	}
	if c.Outputs.Text == "" || c.Outputs.JSON == "" {
		return errors.New("outputs.text and outputs.json must not be empty")
	}
	if c.Outputs.Text == c.Outputs.JSON {
		return fmt.Errorf("outputs.text and outputs.json are both %q", c.Outputs.Text)
	}
	if c.Sentinel == "" {
		return errors.New("sentinel must not be empty")
	}
	if c.RegexTimeout <= 0 {
		return fmt.Errorf("regex_timeout must be positive, got %s", c.RegexTimeout)
	}
	return nil
}
