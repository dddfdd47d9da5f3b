package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/imdario/mergo"

	"github.com/jeffrom/autosync/vcs"
)

const (
	DefaultRemote        = "origin"
	DefaultBranch        = "master"
	DefaultMessagePrefix = "auto sync:"
	DefaultTimeFormat    = time.UnixDate
)

type Config struct {
	Verbose         bool       `json:"verbose,omitempty"`
	Dryrun          bool       `json:"dryrun,omitempty"`
	Quiet           bool       `json:"quiet,omitempty"`
	Remote          string     `json:"remote,omitempty"`
	Branch          string     `json:"branch,omitempty"`
	MessagePrefix   string     `json:"message_prefix,omitempty"`
	MessageTemplate string     `json:"message_template,omitempty"`
	TimeFormat      string     `json:"time_format,omitempty"`
	Dir             string     `json:"dir,omitempty"`
	FailFast        bool       `json:"fail_fast,omitempty"`
	PullStrategy    string     `json:"pull_strategy,omitempty"`
	Color           bool       `json:"-"`
	Term            TerminalIO `json:"-"`
}

func New(overrides *Config) Config {
	return NewWithTerminalIO(overrides, nil)
}

func NewWithTerminalIO(overrides *Config, termio *TerminalIO) Config {
	cfg := GetDefault()
	if termio == nil {
		termio = &DefaultTermIO
	}
	cfg.Term = *termio

	if overrides != nil {
		if err := mergo.Merge(&cfg, overrides, mergo.WithOverride); err != nil {
			panic(err)
		}
	}
	return cfg
}

func GetDefault() Config {
	return Config{
		Remote:        DefaultRemote,
		Branch:        DefaultBranch,
		MessagePrefix: DefaultMessagePrefix,
		TimeFormat:    DefaultTimeFormat,
	}
}

// Validate reports configuration that would produce an unusable git
// invocation.
func (c Config) Validate() error {
	if c.Remote == "" {
		return errors.New("config: remote is required")
	}
	if strings.HasPrefix(c.Remote, "-") {
		return fmt.Errorf("config: invalid remote %q", c.Remote)
	}
	if c.Branch == "" {
		return errors.New("config: branch is required")
	}
	if strings.HasPrefix(c.Branch, "-") || strings.ContainsAny(c.Branch, " ~^:?*[\\") {
		return fmt.Errorf("config: invalid branch %q", c.Branch)
	}
	if c.TimeFormat == "" {
		return errors.New("config: time format is required")
	}
	if c.PullStrategy != vcs.PullDefault && !validPullStrategy(c.PullStrategy) {
		return fmt.Errorf("config: invalid pull strategy %q (want one of %s)", c.PullStrategy, strings.Join(vcs.PullStrategies, ", "))
	}
	if c.Quiet && c.Verbose {
		return errors.New("config: --quiet and --verbose are mutually exclusive")
	}
	return nil
}

func validPullStrategy(s string) bool {
	for _, strategy := range vcs.PullStrategies {
		if s == strategy {
			return true
		}
	}
	return false
}

func (c Config) Printf(msg string, args ...interface{}) {
	if c.Quiet {
		return
	}
	fmt.Fprintf(c.Term.Stdout, msg+"\n", args...)
}

func (c Config) Errorf(msg string, args ...interface{}) {
	fmt.Fprintf(c.Term.Stderr, msg+"\n", args...)
}

func (c Config) Debugf(msg string, args ...interface{}) {
	if !c.Verbose {
		return
	}
	c.Printf(msg, args...)
}
