// Package version reports the coursebot build and compares release versions.
package version

import (
	"cmp"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
)

// Version, CommitSHA and BuildDate are set with -ldflags at release time:
//
//	-X github.com/barun-bash/coursebot/internal/version.Version=0.2.0
var (
	Version   = "0.1.0"
	CommitSHA = "dev"
	BuildDate = "unknown"
)

// Info returns "0.1.0" for dev builds and "0.1.0 (abc1234, 2026-02-26)"
// for release builds.
func Info() string {
	v := strings.TrimPrefix(Version, "v")
	if CommitSHA == "dev" || CommitSHA == "" {
		return v
	}
	return fmt.Sprintf("%s (%s, %s)", v, CommitSHA, BuildDate)
}

// Detail returns Info followed by the Go toolchain and platform, plus the VCS
// revision embedded by the go command when no commit was stamped.
func Detail() string {
	var b strings.Builder
	fmt.Fprintf(&b, "coursebot %s\n", Info())
	fmt.Fprintf(&b, "go: %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	if CommitSHA == "dev" || CommitSHA == "" {
		if rev := vcsRevision(); rev != "" {
			fmt.Fprintf(&b, "revision: %s\n", rev)
		}
	}
	return b.String()
}

func vcsRevision() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev, dirty string
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				dirty = "+dirty"
			}
		}
	}
	if len(rev) > 7 {
		rev = rev[:7]
	}
	if rev == "" {
		return ""
	}
	return rev + dirty
}

// SemVer is a parsed major.minor.patch version.
type SemVer struct {
	Major int
	Minor int
	Patch int
}

// Parse parses "0.4.0" or "v0.4.0"; a pre-release suffix is ignored.
func Parse(s string) (SemVer, error) {
	s = strings.TrimPrefix(s, "v")
	s, _, _ = strings.Cut(s, "-")

	segments := strings.Split(s, ".")
	if len(segments) != 3 {
		return SemVer{}, fmt.Errorf("invalid version %q: expected major.minor.patch", s)
	}

	var nums [3]int
	for i, seg := range segments {
		n, err := strconv.Atoi(seg)
		if err != nil {
			return SemVer{}, fmt.Errorf("invalid version segment %q: %w", seg, err)
		}
		nums[i] = n
	}
	return SemVer{Major: nums[0], Minor: nums[1], Patch: nums[2]}, nil
}

func (v SemVer) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Compare returns -1, 0 or 1 as v is older than, equal to or newer than
// other.
func (v SemVer) Compare(other SemVer) int {
	if c := cmp.Compare(v.Major, other.Major); c != 0 {
		return c
	}
	if c := cmp.Compare(v.Minor, other.Minor); c != 0 {
		return c
	}
	return cmp.Compare(v.Patch, other.Patch)
}

// IsNewerThan reports whether latest is a newer version than current. Either
// side failing to parse yields false.
func IsNewerThan(latest, current string) bool {
	l, err := Parse(latest)
	if err != nil {
		return false
	}
	c, err := Parse(current)
	if err != nil {
		return false
	}
	return l.Compare(c) > 0
}
