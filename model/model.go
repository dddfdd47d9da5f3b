// Package model contains abstract data models.
package model

import "time"

// Step is one of the four sync operations, in execution order.
type Step int

const (
	StepStage Step = iota
	StepCommit
	StepPush
	StepPull
)

// Steps lists every step in the order they run.
var Steps = []Step{StepStage, StepCommit, StepPush, StepPull}

func (s Step) String() string {
	switch s {
	case StepStage:
		return "stage"
	case StepCommit:
		return "commit"
	case StepPush:
		return "push"
	case StepPull:
		return "pull"
	default:
		return "unknown"
	}
}

// Remote is a configured remote as recorded in the repository config.
type Remote struct {
	Name string   `json:"name"`
	URLs []string `json:"urls"`
}

// RepoState describes the local repository at a point in time.
type RepoState struct {
	Branch   string    `json:"branch,omitempty"`
	Head     string    `json:"head,omitempty"`
	Detached bool      `json:"detached,omitempty"`
	Changes  int       `json:"changes"`
	Remotes  []Remote  `json:"remotes,omitempty"`
	ReadAt   time.Time `json:"read_at"`

	// PullRebase is the effective pull.rebase setting, empty when unset.
	PullRebase string `json:"pull_rebase,omitempty"`
}

func (s *RepoState) ShortHead() string {
	if len(s.Head) < 8 {
		return s.Head
	}
	return s.Head[:8]
}
