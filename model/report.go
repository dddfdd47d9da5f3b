package model

import "time"

type StepResult struct {
	Step     Step
	ExitCode int
	Err      error
	Skipped  bool
	Duration time.Duration
}

func (r StepResult) Failed() bool {
	return !r.Skipped && (r.Err != nil || r.ExitCode != 0)
}

// Report collects the outcome of a sync run.
type Report struct {
	Message string
	Started time.Time
	Results []StepResult
}

// ExitCode returns the exit code of the last step that actually ran.
func (r *Report) ExitCode() int {
	for i := len(r.Results) - 1; i >= 0; i-- {
		if r.Results[i].Skipped {
			continue
		}
		return r.Results[i].ExitCode
	}
	return 0
}

// Failed reports whether any step that ran failed.
func (r *Report) Failed() bool {
	for _, res := range r.Results {
		if res.Failed() {
			return true
		}
	}
	return false
}

func (r *Report) Result(step Step) (StepResult, bool) {
	for _, res := range r.Results {
		if res.Step == step {
			return res, true
		}
	}
	return StepResult{}, false
}
