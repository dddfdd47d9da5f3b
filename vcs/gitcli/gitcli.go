// Package gitcli implements vcs.Interface using the git commandline tool.
package gitcli

import (
	"context"
	"strings"

	"github.com/jeffrom/autosync/config"
	"github.com/jeffrom/autosync/vcs"
)

// Git implements vcs.Interface using the git commandline tool.
type Git struct {
	cfg config.Config
	wd  string
}

func New(cfg config.Config, wd string) *Git {
	return &Git{
		cfg: cfg,
		wd:  wd,
	}
}

func (g *Git) StageAll(ctx context.Context) error {
	return g.run(ctx, []string{"add", "-A"})
}

func (g *Git) Commit(ctx context.Context, opts vcs.CommitOpts) error {
	return g.run(ctx, []string{"commit", "-m", opts.Message})
}

func (g *Git) Push(ctx context.Context, remote, branch string) error {
	if remote == "" {
		remote = config.DefaultRemote
	}
	return g.run(ctx, []string{"push", remote, branch})
}

// Pull runs "git pull remote branch". Without a strategy, git's own pull.rebase
// and pull.ff settings decide between merging and rebasing.
func (g *Git) Pull(ctx context.Context, remote, branch string, opts vcs.PullOpts) error {
	args := append([]string{"pull"}, vcs.PullArgs(opts.Strategy)...)
	if remote == "" {
		remote = config.DefaultRemote
	}
	args = append(args, remote, branch)
	return g.run(ctx, args)
}

// Version returns the output of "git --version". It is read-only and not part
// of a sync.
func (g *Git) Version(ctx context.Context) (string, error) {
	b, err := g.output(ctx, []string{"--version"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
