package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/mattn/go-isatty"
	"github.com/spf13/pflag"

	"github.com/jeffrom/autosync/commit"
	"github.com/jeffrom/autosync/config"
	"github.com/jeffrom/autosync/model"
	"github.com/jeffrom/autosync/runner"
	"github.com/jeffrom/autosync/vcs/gitcli"
	"github.com/jeffrom/autosync/vcs/gogit"
)

// Version is overridden by go build -X
var Version = "dev"

const configFileName = "autosync.yaml"

func main() {
	code, err := run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	os.Exit(code)
}

// run returns the exit code of the sync, which is the exit code of its last
// step. Errors are reserved for problems before any git command runs.
func run(rawArgs []string) (int, error) {
	return runWithTerminalIO(rawArgs, nil)
}

func runWithTerminalIO(rawArgs []string, termio *config.TerminalIO) (int, error) {
	flagCfg := config.NewWithTerminalIO(nil, termio)

	var help bool
	var version bool
	var cfgFile string
	var printConfig bool
	var status bool
	flags := pflag.NewFlagSet("autosync", pflag.ContinueOnError)
	flags.SetOutput(flagCfg.Term.Stderr)
	flags.BoolVarP(&help, "help", "h", false, "show help")
	flags.BoolVarP(&version, "version", "V", false, "print version and exit")
	flags.BoolVarP(&flagCfg.Dryrun, "dry-run", "n", false, "print git commands instead of running them")
	flags.StringVarP(&flagCfg.Remote, "remote", "r", flagCfg.Remote, "push to and pull from remote `name`")
	flags.StringVarP(&flagCfg.Branch, "branch", "b", flagCfg.Branch, "push to and pull from branch `name`")
	flags.StringVarP(&flagCfg.MessagePrefix, "message-prefix", "m", flagCfg.MessagePrefix, "commit message `prefix`")
	flags.StringVar(&flagCfg.MessageTemplate, "message-template", "", "go text/template for the commit message `format`")
	flags.StringVar(&flagCfg.TimeFormat, "time-format", flagCfg.TimeFormat, "go time `layout` for the commit message timestamp")
	flags.StringVarP(&flagCfg.Dir, "dir", "C", "", "run as if started in `path`")
	flags.BoolVar(&flagCfg.FailFast, "fail-fast", false, "stop at the first failing step (changes the default behavior)")
	flags.StringVar(&flagCfg.PullStrategy, "pull-strategy", "", "pull with `strategy` merge, rebase or ff-only instead of git's configured default (changes the default behavior)")
	flags.BoolVar(&status, "status", false, "print repository state and exit")
	flags.BoolVarP(&flagCfg.Verbose, "verbose", "v", false, "print progress and debugging info")
	flags.BoolVarP(&flagCfg.Quiet, "quiet", "q", false, "print as little as necessary")
	flags.StringVarP(&cfgFile, "config", "c", "", "specify config `file`")
	flags.BoolVar(&printConfig, "print-config", false, "print configuration and exit")

	if err := flags.Parse(rawArgs); err != nil {
		return 0, err
	}
	if args := flags.Args(); len(args) > 1 {
		return 0, fmt.Errorf("unexpected arguments: %s", strings.Join(args[1:], " "))
	}

	if help {
		usage(flagCfg, flags)
		return 0, nil
	}
	if version {
		flagCfg.Printf("%s", Version)
		return 0, nil
	}

	fileCfg, err := readConfigYAML(cfgFile, flagCfg.Dir)
	if err != nil {
		return 0, err
	}
	cfg := config.NewWithTerminalIO(fileCfg, &flagCfg.Term)
	applyEnv(&cfg, os.Getenv)
	applyFlags(&cfg, flagCfg, flags)
	cfg.Color = useColor(cfg.Term)

	if printConfig {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return 0, err
		}
		cfg.Printf("%s", strings.TrimSuffix(string(b), "\n"))
		return 0, nil
	}
	if err := cfg.Validate(); err != nil {
		return 0, err
	}
	if cfg.Verbose {
		b, err := json.MarshalIndent(cfg, "", "  ")
		die(err)
		cfg.Debugf("config: %s", string(b))
	}
	// done setting up config

	ctx := context.Background()
	if status {
		st, err := readState(ctx, cfg.Dir)
		if err != nil {
			return 0, err
		}
		printState(cfg, st)
		printGit(ctx, cfg, st)
		return 0, nil
	}
	if cfg.Verbose {
		if st, err := readState(ctx, cfg.Dir); err != nil {
			cfg.Debugf("could not read repository state: %v", err)
		} else {
			printState(cfg, st)
		}
	}

	git := gitcli.New(cfg, cfg.Dir)
	report, err := runner.New(cfg, git).Sync(ctx)
	if err != nil {
		return 0, err
	}
	return report.ExitCode(), nil
}

func die(err error) {
	if err != nil {
		panic(err)
	}
}

// applyFlags copies every flag the user set over cfg, so explicit flags beat
// the config file and the environment.
func applyFlags(cfg *config.Config, flagCfg config.Config, flags *pflag.FlagSet) {
	flags.Visit(func(fl *pflag.Flag) {
		switch fl.Name {
		case "dry-run":
			cfg.Dryrun = flagCfg.Dryrun
		case "remote":
			cfg.Remote = flagCfg.Remote
		case "branch":
			cfg.Branch = flagCfg.Branch
		case "message-prefix":
			cfg.MessagePrefix = flagCfg.MessagePrefix
		case "message-template":
			cfg.MessageTemplate = flagCfg.MessageTemplate
		case "time-format":
			cfg.TimeFormat = flagCfg.TimeFormat
		case "dir":
			cfg.Dir = flagCfg.Dir
		case "fail-fast":
			cfg.FailFast = flagCfg.FailFast
		case "pull-strategy":
			cfg.PullStrategy = flagCfg.PullStrategy
		case "verbose":
			cfg.Verbose = flagCfg.Verbose
		case "quiet":
			cfg.Quiet = flagCfg.Quiet
		}
	})
}

func applyEnv(cfg *config.Config, getenv func(string) string) {
	if v := getenv("AUTOSYNC_REMOTE"); v != "" {
		cfg.Remote = v
	}
	if v := getenv("AUTOSYNC_BRANCH"); v != "" {
		cfg.Branch = v
	}
}

func useColor(term config.TerminalIO) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := term.Stdout.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func readState(ctx context.Context, dir string) (*model.RepoState, error) {
	in, err := gogit.Open(dir)
	if err != nil {
		return nil, err
	}
	return in.State(ctx)
}

func printState(cfg config.Config, st *model.RepoState) {
	branch := st.Branch
	if st.Detached {
		branch = "(detached)"
	}
	head := st.ShortHead()
	if head == "" {
		head = "(no commits)"
	}
	cfg.Printf("branch:  %s", branch)
	cfg.Printf("head:    %s", head)
	cfg.Printf("changes: %d", st.Changes)
	for _, r := range st.Remotes {
		cfg.Printf("remote:  %s %s", r.Name, strings.Join(r.URLs, " "))
	}
}

// printGit reports the installed git and whether a plain pull can reconcile
// diverged branches with it.
func printGit(ctx context.Context, cfg config.Config, st *model.RepoState) {
	out, err := gitcli.New(cfg, cfg.Dir).Version(ctx)
	if err != nil {
		cfg.Printf("git:     (%v)", err)
		return
	}
	rebase := st.PullRebase
	if rebase == "" {
		rebase = "(unset)"
	}
	cfg.Printf("git:     %s", strings.TrimPrefix(out, "git version "))
	cfg.Printf("pull:    rebase=%s", rebase)

	v, err := commit.ParseGitVersion(out)
	if err != nil {
		cfg.Debugf("%v", err)
		return
	}
	if st.PullRebase == "" && cfg.PullStrategy == "" && commit.NeedsPullStrategy(v) {
		cfg.Printf("hint:    pull.rebase is unset, so this git may refuse to pull diverged branches; set it or pass --pull-strategy")
	}
}

func usage(cfg config.Config, flags *pflag.FlagSet) {
	cfg.Printf(`%s [flags]

Stage every change, commit it with a timestamped message, push it, then pull.
All four steps always run, and the exit code is the exit code of the pull.

FLAGS
%s
EXAMPLES

# sync the current repository with origin/master
$ autosync

# sync another repository against origin/main
$ autosync -C ~/notes -b main

# show what would run
$ autosync --dry-run

# stop as soon as a step fails
$ autosync --fail-fast

# rebase local commits onto the remote branch when pulling
$ autosync --pull-strategy rebase
`, filepath.Base(os.Args[0]), flags.FlagUsages())
}

// readConfigYAML reads p, or the first autosync.yaml found walking up from
// dir (or the working directory). A missing file is not an error, and neither
// is a directory named autosync.yaml. A file that exists but can't be read
// or decoded is.
func readConfigYAML(p, dir string) (*config.Config, error) {
	if p != "" {
		return decodeConfigYAML(p)
	}

	wd := dir
	if wd == "" {
		var err error
		wd, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}
	wd, err := filepath.Abs(wd)
	if err != nil {
		return nil, err
	}

	for {
		p := filepath.Join(wd, configFileName)
		fi, err := os.Stat(p)
		if err == nil && !fi.IsDir() {
			return decodeConfigYAML(p)
		}
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		parent := filepath.Dir(wd)
		if parent == wd {
			return nil, nil
		}
		wd = parent
	}
}

func decodeConfigYAML(p string) (*config.Config, error) {
	b, err := os.ReadFile(p)
	if err != nil {
		return nil, err
	}
	cfg := &config.Config{}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", p, err)
	}
	return cfg, nil
}
