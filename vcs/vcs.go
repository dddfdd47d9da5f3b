// Package vcs abstracts version control systems. Currently just git.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ExitError is returned when a version control command exits non-zero or
// could not be started.
type ExitError struct {
	Args []string
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("vcs: %s exited %d: %v", strings.Join(e.Args, " "), e.Code, e.Err)
}

func (e *ExitError) Unwrap() error { return e.Err }

// ExitCode returns the process exit code carried by err, 0 for nil and 1 for
// errors that carry none.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.Code
	}
	return 1
}

type Interface interface {
	StageAll(ctx context.Context) error
	Commit(ctx context.Context, opts CommitOpts) error
	Push(ctx context.Context, remote, branch string) error
	Pull(ctx context.Context, remote, branch string, opts PullOpts) error
}

type CommitOpts struct {
	Message string
}

// Pull strategies. PullDefault leaves the choice to the repository's own
// pull.rebase and pull.ff settings.
const (
	PullDefault = ""
	PullMerge   = "merge"
	PullRebase  = "rebase"
	PullFFOnly  = "ff-only"
)

var PullStrategies = []string{PullMerge, PullRebase, PullFFOnly}

type PullOpts struct {
	Strategy string
}

// PullArgs returns the git pull flag selecting strategy, if any.
func PullArgs(strategy string) []string {
	switch strategy {
	case PullMerge:
		return []string{"--no-rebase"}
	case PullRebase:
		return []string{"--rebase"}
	case PullFFOnly:
		return []string{"--ff-only"}
	default:
		return nil
	}
}
