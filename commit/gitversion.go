package commit

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/blang/semver/v4"
)

// PullStrategyVersion is the first git release whose pull warns (and, from
// 2.33, refuses) to reconcile diverged branches without pull.rebase set.
var PullStrategyVersion = semver.MustParse("2.27.0")

// gitVersionRE matches the numeric core of "git version X.Y.Z" output,
// ignoring vendor suffixes like ".windows.1" or " (Apple Git-137.1)".
var gitVersionRE = regexp.MustCompile(`(?P<major>0|[1-9]\d*)\.(?P<minor>0|[1-9]\d*)(?:\.(?P<patch>0|[1-9]\d*))?`)

// ParseGitVersion extracts a semantic version from the output of
// "git --version".
func ParseGitVersion(s string) (semver.Version, error) {
	m := gitVersionRE.FindStringSubmatch(s)
	if m == nil {
		return semver.Version{}, fmt.Errorf("commit: failed to parse git version from %q", s)
	}

	v := semver.Version{}
	for i, name := range gitVersionRE.SubexpNames() {
		if name == "" || m[i] == "" {
			continue
		}
		n, err := strconv.ParseUint(m[i], 10, 32)
		if err != nil {
			return semver.Version{}, err
		}
		switch name {
		case "major":
			v.Major = n
		case "minor":
			v.Minor = n
		case "patch":
			v.Patch = n
		}
	}

	if err := v.Validate(); err != nil {
		return semver.Version{}, err
	}
	return v, nil
}

// NeedsPullStrategy reports whether git v wants pull.rebase configured before
// it will pull into a diverged branch.
func NeedsPullStrategy(v semver.Version) bool {
	return v.GTE(PullStrategyVersion)
}
