// Copyright 2026 The Strata Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports what build of strata is running.
//
// The semantic version is stamped at release time:
//
//	go build -ldflags "-X github.com/strata-foundation/strata/lib/version.Version=1.2.0"
//
// Commit, dirty-tree, and build-time details come from the VCS
// metadata the Go toolchain embeds in the binary, so development
// builds report their provenance without any ldflags wiring.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
)

// Version is the semantic version, overridden via -ldflags for
// release builds.
var Version = "0.1.0-dev"

// Build describes the binary's provenance.
type Build struct {
	// Version is the semantic version string.
	Version string

	// Commit is the VCS revision the binary was built from, empty
	// when the binary was built outside a checkout.
	Commit string

	// Dirty reports uncommitted changes in the build checkout.
	Dirty bool

	// Time is the commit timestamp in RFC 3339 form, empty when
	// unknown.
	Time string
}

// Current returns the running binary's build description.
func Current() Build {
	build := Build{Version: Version}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return build
	}
	for _, setting := range info.Settings {
		switch setting.Key {
		case "vcs.revision":
			build.Commit = setting.Value
			if len(build.Commit) > 12 {
				build.Commit = build.Commit[:12]
			}
		case "vcs.modified":
			build.Dirty = setting.Value == "true"
		case "vcs.time":
			build.Time = setting.Value
		}
	}
	return build
}

// String formats the build as a single line: the version, followed by
// the commit (suffixed "-dirty" when modified) and commit time when
// known.
func (b Build) String() string {
	if b.Commit == "" {
		return b.Version
	}
	commit := b.Commit
	if b.Dirty {
		commit += "-dirty"
	}
	if b.Time == "" {
		return fmt.Sprintf("%s (%s)", b.Version, commit)
	}
	return fmt.Sprintf("%s (%s, %s)", b.Version, commit, b.Time)
}

// Full returns the multi-line form used by "strata version": the
// build line plus the Go toolchain and target platform.
func Full() string {
	return fmt.Sprintf("%s\n  Go: %s\n  Platform: %s/%s",
		Current(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
}
