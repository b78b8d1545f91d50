// Copyright 2026 The Podstr Authors
// SPDX-License-Identifier: Apache-2.0

package version

import (
	"strings"
	"testing"
)

func TestInfoIncludesCommitAndDirtyMarker(t *testing.T) {
	defer func(commit, dirty string) {
		GitCommit, GitDirty = commit, dirty
	}(GitCommit, GitDirty)

	GitCommit = "abc1234"
	GitDirty = "false"
	if info := Info(); !strings.Contains(info, "abc1234") || strings.Contains(info, "-dirty") {
		t.Errorf("Info() = %q, want commit without dirty marker", info)
	}

	GitDirty = "true"
	if info := Info(); !strings.Contains(info, "abc1234-dirty") {
		t.Errorf("Info() = %q, want dirty marker appended to commit", info)
	}
}

func TestFullIncludesInfoAndPlatform(t *testing.T) {
	full := Full()
	if !strings.Contains(full, Info()) {
		t.Errorf("Full() = %q, should embed Info()", full)
	}
	if !strings.Contains(full, "Go: ") || !strings.Contains(full, "Platform: ") {
		t.Errorf("Full() = %q, should report Go version and platform", full)
	}
}
