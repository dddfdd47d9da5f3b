// Package autosync stages, commits, pushes and pulls a git working tree in one
// fixed, unconditional sequence.
//
// Related packages: config, commit, runner, model, vcs, vcs/gitcli, vcs/gogit
package autosync

import "github.com/jeffrom/autosync/config"

// Config holds the configuration variables for autosync. Its zero value is
// not usable; start from config.New.
//
// See "go doc github.com/jeffrom/autosync/config Config" for more information.
type Config = config.Config
