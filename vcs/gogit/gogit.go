// Package gogit reads local repository state using go-git, without invoking
// the git binary.
package gogit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/jeffrom/autosync/model"
)

// Inspector reads the state of an opened repository.
type Inspector struct {
	repo *git.Repository
	now  func() time.Time
}

// Open opens the repository containing dir. Parent directories are searched
// for a .git directory.
func Open(dir string) (*Inspector, error) {
	if dir == "" {
		dir = "."
	}
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("gogit: open %s: %w", dir, err)
	}
	return &Inspector{repo: repo, now: time.Now}, nil
}

func (in *Inspector) State(ctx context.Context) (*model.RepoState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st := &model.RepoState{ReadAt: in.now()}

	if err := in.readHead(st); err != nil {
		return nil, err
	}

	changes, err := in.changes()
	if err != nil {
		return nil, err
	}
	st.Changes = changes

	remotes, err := in.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("gogit: read remotes: %w", err)
	}
	for _, r := range remotes {
		c := r.Config()
		st.Remotes = append(st.Remotes, model.Remote{Name: c.Name, URLs: c.URLs})
	}
	sort.Slice(st.Remotes, func(i, j int) bool {
		return st.Remotes[i].Name < st.Remotes[j].Name
	})

	st.PullRebase = in.pullRebase()
	return st, nil
}

// pullRebase looks up pull.rebase in the repository config, then the global
// and system configs, the same precedence git uses.
func (in *Inspector) pullRebase() string {
	if cfg, err := in.repo.Config(); err == nil {
		if v, ok := rawOption(cfg, "pull", "rebase"); ok {
			return v
		}
	}
	for _, scope := range []gitconfig.Scope{gitconfig.GlobalScope, gitconfig.SystemScope} {
		cfg, err := gitconfig.LoadConfig(scope)
		if err != nil {
			continue
		}
		if v, ok := rawOption(cfg, "pull", "rebase"); ok {
			return v
		}
	}
	return ""
}

func rawOption(cfg *gitconfig.Config, section, key string) (string, bool) {
	if cfg == nil || cfg.Raw == nil || !cfg.Raw.HasSection(section) {
		return "", false
	}
	s := cfg.Raw.Section(section)
	if !s.HasOption(key) {
		return "", false
	}
	return s.Option(key), true
}

func (in *Inspector) readHead(st *model.RepoState) error {
	head, err := in.repo.Head()
	if err != nil {
		if !errors.Is(err, plumbing.ErrReferenceNotFound) {
			return fmt.Errorf("gogit: read HEAD: %w", err)
		}
		// unborn branch: HEAD is symbolic but points at nothing yet.
		sym, serr := in.repo.Storer.Reference(plumbing.HEAD)
		if serr != nil {
			return fmt.Errorf("gogit: read HEAD: %w", serr)
		}
		if sym.Type() == plumbing.SymbolicReference {
			st.Branch = sym.Target().Short()
		}
		return nil
	}

	st.Head = head.Hash().String()
	if head.Name().IsBranch() {
		st.Branch = head.Name().Short()
	} else {
		st.Detached = true
	}
	return nil
}

func (in *Inspector) changes() (int, error) {
	wt, err := in.repo.Worktree()
	if err != nil {
		if errors.Is(err, git.ErrIsBareRepository) {
			return 0, nil
		}
		return 0, fmt.Errorf("gogit: open worktree: %w", err)
	}
	status, err := wt.Status()
	if err != nil {
		return 0, fmt.Errorf("gogit: worktree status: %w", err)
	}

	n := 0
	for _, fs := range status {
		if fs.Staging != git.Unmodified || fs.Worktree != git.Unmodified {
			n++
		}
	}
	return n, nil
}
