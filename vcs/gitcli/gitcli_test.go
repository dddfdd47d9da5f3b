package gitcli

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"syscall"
	"testing"

	"github.com/jeffrom/autosync/config"
	"github.com/jeffrom/autosync/vcs"
)

// fakeGit replaces CommandContext, recording git invocations. "--version"
// answers with version, fail makes every other command exit 1.
func fakeGit(t *testing.T, version string, fail bool) *[][]string {
	t.Helper()
	var calls [][]string
	orig := CommandContext
	t.Cleanup(func() { CommandContext = orig })

	CommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		if name != "git" {
			t.Fatalf("expected git, got %s", name)
		}
		calls = append(calls, args)
		if len(args) == 1 && args[0] == "--version" {
			return exec.CommandContext(ctx, "echo", version)
		}
		if fail {
			return exec.CommandContext(ctx, "sh", "-c", "echo 'fatal: something broke' >&2; exit 1")
		}
		return exec.CommandContext(ctx, "true")
	}
	return &calls
}

// lockedBuffer is shared by a child's stdout and stderr copiers.
type lockedBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuffer) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func (l *lockedBuffer) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.String()
}

func newTestGit(overrides *config.Config) (*Git, *lockedBuffer) {
	out := &lockedBuffer{}
	cfg := config.NewWithTerminalIO(overrides, &config.TerminalIO{Stdout: out, Stderr: out})
	return New(cfg, ""), out
}

func TestCommands(t *testing.T) {
	calls := fakeGit(t, "git version 2.39.2", false)
	g, _ := newTestGit(nil)
	ctx := context.Background()

	if err := g.StageAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := g.Commit(ctx, vcs.CommitOpts{Message: "auto sync: now"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Push(ctx, "", "master"); err != nil {
		t.Fatal(err)
	}
	if err := g.Pull(ctx, "origin", "master", vcs.PullOpts{}); err != nil {
		t.Fatal(err)
	}

	// a plain pull leaves pull.rebase to the repository's configuration.
	expect := []string{
		"add -A",
		`commit -m "auto sync: now"`,
		"push origin master",
		"pull origin master",
	}
	if len(*calls) != len(expect) {
		t.Fatalf("expected %d calls, got %d: %q", len(expect), len(*calls), *calls)
	}
	for i, args := range *calls {
		if got := ArgsString(args); got != expect[i] {
			t.Fatalf("call %d: expected %q, got %q", i, expect[i], got)
		}
	}
}

func TestPullStrategy(t *testing.T) {
	tcs := []struct {
		strategy string
		expect   string
	}{
		{strategy: vcs.PullDefault, expect: "pull origin master"},
		{strategy: vcs.PullMerge, expect: "pull --no-rebase origin master"},
		{strategy: vcs.PullRebase, expect: "pull --rebase origin master"},
		{strategy: vcs.PullFFOnly, expect: "pull --ff-only origin master"},
	}

	for _, tc := range tcs {
		t.Run("strategy-"+tc.strategy, func(t *testing.T) {
			calls := fakeGit(t, "git version 2.39.2", false)
			g, _ := newTestGit(nil)
			if err := g.Pull(context.Background(), "origin", "master", vcs.PullOpts{Strategy: tc.strategy}); err != nil {
				t.Fatal(err)
			}
			if len(*calls) != 1 {
				t.Fatalf("expected a single git invocation, got %q", *calls)
			}
			if got := ArgsString((*calls)[0]); got != tc.expect {
				t.Fatalf("expected %q, got %q", tc.expect, got)
			}
		})
	}
}

func TestExitError(t *testing.T) {
	fakeGit(t, "git version 2.39.2", true)
	g, out := newTestGit(nil)

	err := g.Push(context.Background(), "origin", "master")
	var ee *vcs.ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *vcs.ExitError, got %v", err)
	}
	if ee.Code != 1 {
		t.Fatalf("expected exit code 1, got %d", ee.Code)
	}
	if !strings.Contains(ee.Error(), "fatal: something broke") {
		t.Fatalf("expected stderr in error, got %q", ee.Error())
	}
	if !strings.Contains(out.String(), "fatal: something broke") {
		t.Fatalf("expected stderr to reach the terminal, got %q", out.String())
	}
}

func TestGitNotFound(t *testing.T) {
	orig := CommandContext
	t.Cleanup(func() { CommandContext = orig })
	CommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "autosync-no-such-binary", args...)
	}

	g, _ := newTestGit(nil)
	err := g.StageAll(context.Background())
	if code := vcs.ExitCode(err); code != 127 {
		t.Fatalf("expected exit code 127, got %d (%v)", code, err)
	}
}

func TestDryrun(t *testing.T) {
	calls := fakeGit(t, "git version 2.39.2", false)
	g, out := newTestGit(&config.Config{Dryrun: true})
	ctx := context.Background()

	if err := g.StageAll(ctx); err != nil {
		t.Fatal(err)
	}
	if err := g.Commit(ctx, vcs.CommitOpts{Message: "a b"}); err != nil {
		t.Fatal(err)
	}
	if err := g.Push(ctx, "origin", "master"); err != nil {
		t.Fatal(err)
	}
	if err := g.Pull(ctx, "origin", "master", vcs.PullOpts{}); err != nil {
		t.Fatal(err)
	}
	if err := g.Pull(ctx, "origin", "master", vcs.PullOpts{Strategy: vcs.PullRebase}); err != nil {
		t.Fatal(err)
	}
	if len(*calls) != 0 {
		t.Fatalf("expected dry run to start no git processes, got %q", *calls)
	}
	expect := "+ git add -A (dryrun)\n" +
		"+ git commit -m \"a b\" (dryrun)\n" +
		"+ git push origin master (dryrun)\n" +
		"+ git pull origin master (dryrun)\n" +
		"+ git pull --rebase origin master (dryrun)\n"
	if out.String() != expect {
		t.Fatalf("expected %q, got %q", expect, out.String())
	}
}

func TestKilledBySignal(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("no signals on windows")
	}
	orig := CommandContext
	t.Cleanup(func() { CommandContext = orig })
	CommandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		return exec.CommandContext(ctx, "sh", "-c", "kill -TERM $$")
	}

	g, _ := newTestGit(nil)
	err := g.Pull(context.Background(), "origin", "master", vcs.PullOpts{})
	if code := vcs.ExitCode(err); code != 128+int(syscall.SIGTERM) {
		t.Fatalf("expected exit code %d, got %d (%v)", 128+int(syscall.SIGTERM), code, err)
	}
}

func TestVersion(t *testing.T) {
	calls := fakeGit(t, "git version 2.39.2", false)
	g, _ := newTestGit(&config.Config{Dryrun: true})
	v, err := g.Version(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if v != "git version 2.39.2" {
		t.Fatalf("unexpected version %q", v)
	}
	if len(*calls) != 1 {
		t.Fatalf("expected one git invocation, got %q", *calls)
	}
}

func TestVersionReal(t *testing.T) {
	if testing.Short() {
		t.Skip("-short")
	}
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	g, _ := newTestGit(nil)
	v, err := g.Version(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(v, "git version ") {
		t.Fatalf("unexpected version output %q", v)
	}
}

func TestArgsString(t *testing.T) {
	got := ArgsString([]string{"commit", "-m", "auto sync: Mon Jan  2"})
	expect := `commit -m "auto sync: Mon Jan  2"`
	if got != expect {
		t.Fatalf("expected %q, got %q", expect, got)
	}
}
