// Package runner manages command-line execution
package runner

import (
	"context"
	"fmt"
	"time"

	"github.com/logrusorgru/aurora"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/jeffrom/autosync/commit"
	"github.com/jeffrom/autosync/config"
	"github.com/jeffrom/autosync/model"
	"github.com/jeffrom/autosync/vcs"
)

type Runner struct {
	cfg config.Config
	vcs vcs.Interface
	now func() time.Time
}

func New(cfg config.Config, vcs vcs.Interface) *Runner {
	return &Runner{
		cfg: cfg,
		vcs: vcs,
		now: time.Now,
	}
}

// WithClock replaces the clock used to timestamp commit messages.
func (r *Runner) WithClock(now func() time.Time) *Runner {
	r.now = now
	return r
}

// Message renders the commit message for time t.
func (r *Runner) Message(t time.Time) (string, error) {
	msg, err := commit.NewMessage(r.cfg.MessageTemplate, r.cfg.TimeFormat)
	if err != nil {
		return "", fmt.Errorf("runner: message template: %w", err)
	}
	return msg.ExecuteString(commit.MessageData{
		Prefix: r.cfg.MessagePrefix,
		Time:   t,
	})
}

// Sync stages, commits, pushes and pulls, in that order. Every step runs
// regardless of how the previous ones went, unless FailFast is set. Step
// failures are recorded in the report, not returned.
func (r *Runner) Sync(ctx context.Context) (*model.Report, error) {
	started := r.now()
	message, err := r.Message(started)
	if err != nil {
		return nil, err
	}

	report := &model.Report{Message: message, Started: started}
	remote, branch := r.cfg.Remote, r.cfg.Branch
	ops := []struct {
		step model.Step
		fn   func() error
	}{
		{model.StepStage, func() error {
			return r.vcs.StageAll(ctx)
		}},
		{model.StepCommit, func() error {
			return r.vcs.Commit(ctx, vcs.CommitOpts{Message: message})
		}},
		{model.StepPush, func() error {
			return r.vcs.Push(ctx, remote, branch)
		}},
		{model.StepPull, func() error {
			return r.vcs.Pull(ctx, remote, branch, vcs.PullOpts{Strategy: r.cfg.PullStrategy})
		}},
	}

	for _, op := range ops {
		if r.cfg.FailFast && report.Failed() {
			report.Results = append(report.Results, model.StepResult{Step: op.step, Skipped: true})
			continue
		}

		r.progress(op.step)
		start := time.Now()
		err := op.fn()
		res := model.StepResult{
			Step:     op.step,
			Err:      err,
			ExitCode: vcs.ExitCode(err),
			Duration: time.Since(start),
		}
		report.Results = append(report.Results, res)
	}

	r.summarize(report)
	return report, nil
}

var titler = cases.Title(language.English)

func (r *Runner) progress(step model.Step) {
	line := fmt.Sprintf("==> %s", titler.String(step.String()))
	if r.cfg.Color {
		r.cfg.Debugf("%s", aurora.Bold(aurora.Cyan(line)))
		return
	}
	r.cfg.Debugf("%s", line)
}

func (r *Runner) summarize(report *model.Report) {
	for _, res := range report.Results {
		name := titler.String(res.Step.String())
		switch {
		case res.Skipped:
			r.cfg.Debugf("%-7s skipped", name)
		case res.Failed():
			status := fmt.Sprintf("failed (exit %d)", res.ExitCode)
			if r.cfg.Color {
				r.cfg.Debugf("%-7s %s", name, aurora.Red(status))
			} else {
				r.cfg.Debugf("%-7s %s", name, status)
			}
		default:
			status := fmt.Sprintf("ok (%s)", res.Duration.Round(time.Millisecond))
			if r.cfg.Color {
				r.cfg.Debugf("%-7s %s", name, aurora.Green(status))
			} else {
				r.cfg.Debugf("%-7s %s", name, status)
			}
		}
	}
}
