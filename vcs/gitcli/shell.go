package gitcli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"syscall"

	"github.com/logrusorgru/aurora"

	"github.com/jeffrom/autosync/vcs"
)

var CommandContext = exec.CommandContext

// run executes git with the terminal attached, so git's own diagnostics reach
// the user unchanged.
func (g *Git) run(ctx context.Context, args []string) error {
	if g.cfg.Dryrun {
		g.echo(args, " (dryrun)")
		return nil
	}
	g.echo(args, "")

	cmd := CommandContext(ctx, "git", args...)
	cmd.Dir = g.wd
	cmd.Stdin = g.cfg.Term.Stdin
	cmd.Stdout = g.cfg.Term.Stdout

	tail := &tailBuffer{}
	if g.cfg.Term.Stderr != nil {
		cmd.Stderr = io.MultiWriter(g.cfg.Term.Stderr, tail)
	} else {
		cmd.Stderr = tail
	}

	return exitError(args, cmd.Run(), tail.LastLine())
}

// output executes git and returns its stdout.
func (g *Git) output(ctx context.Context, args []string) ([]byte, error) {
	cmd := CommandContext(ctx, "git", args...)
	cmd.Dir = g.wd

	eb := &bytes.Buffer{}
	ob := &bytes.Buffer{}
	cmd.Stderr = eb
	cmd.Stdout = ob

	if err := cmd.Run(); err != nil {
		return nil, exitError(args, err, strings.TrimSpace(eb.String()))
	}
	return ob.Bytes(), nil
}

func (g *Git) echo(args []string, suffix string) {
	if !g.cfg.Verbose && !g.cfg.Dryrun {
		return
	}
	line := fmt.Sprintf("+ git %s%s", ArgsString(args), suffix)
	if g.cfg.Color {
		g.cfg.Printf("%s", aurora.Faint(line))
		return
	}
	g.cfg.Printf("%s", line)
}

func exitError(args []string, err error, stderr string) error {
	if err == nil {
		return nil
	}
	full := append([]string{"git"}, args...)
	if stderr != "" {
		err = fmt.Errorf("%s (%w)", stderr, err)
	}

	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return &vcs.ExitError{Args: full, Code: exitCode(ee), Err: err}
	}
	// the process never started, most likely git is not on PATH.
	return &vcs.ExitError{Args: full, Code: 127, Err: err}
}

// exitCode follows the shell convention of 128+N for a child killed by
// signal N.
func exitCode(ee *exec.ExitError) int {
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return 128 + int(ws.Signal())
	}
	if code := ee.ExitCode(); code >= 0 {
		return code
	}
	return 1
}

// ArgsString returns a string suitable for copy/paste into the terminal.
func ArgsString(args []string) string {
	b := &bytes.Buffer{}

	for i, arg := range args {
		if strings.ContainsAny(arg, " \t") {
			b.WriteString(`"`)
			b.WriteString(arg)
			b.WriteString(`"`)
		} else {
			b.WriteString(arg)
		}

		if i < len(args)-1 {
			b.WriteString(" ")
		}
	}

	return b.String()
}

const tailSize = 4096

// tailBuffer keeps the last few KB written to it.
type tailBuffer struct {
	b []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.b = append(t.b, p...)
	if len(t.b) > tailSize {
		t.b = t.b[len(t.b)-tailSize:]
	}
	return len(p), nil
}

func (t *tailBuffer) LastLine() string {
	s := strings.TrimSpace(string(t.b))
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		s = s[i+1:]
	}
	return strings.TrimSpace(s)
}
