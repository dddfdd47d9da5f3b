package vcs

import (
	"context"
	"sync"
)

// Call is a single recorded Mock invocation.
type Call struct {
	Op     string
	Remote string
	Branch string
	Commit CommitOpts
	Pull   PullOpts
}

type Mock struct {
	mu    sync.Mutex
	errs  map[string]error
	calls []Call
}

func NewMock() *Mock {
	return &Mock{
		errs: make(map[string]error),
	}
}

// SetError makes the named operation ("add", "commit", "push", "pull")
// return err.
func (m *Mock) SetError(op string, err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errs[op] = err
	return m
}

func (m *Mock) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	calls := make([]Call, len(m.calls))
	copy(calls, m.calls)
	return calls
}

func (m *Mock) record(c Call) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, c)
	return m.errs[c.Op]
}

func (m *Mock) StageAll(ctx context.Context) error {
	return m.record(Call{Op: "add"})
}

func (m *Mock) Commit(ctx context.Context, opts CommitOpts) error {
	return m.record(Call{Op: "commit", Commit: opts})
}

func (m *Mock) Push(ctx context.Context, remote, branch string) error {
	return m.record(Call{Op: "push", Remote: remote, Branch: branch})
}

func (m *Mock) Pull(ctx context.Context, remote, branch string, opts PullOpts) error {
	return m.record(Call{Op: "pull", Remote: remote, Branch: branch, Pull: opts})
}
