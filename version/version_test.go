package version

import (
	"strings"
	"testing"
)

func stashBuildVars(t *testing.T) {
	t.Helper()
	origVersion, origCommit, origBranch, origBuildTime, origGoVersion :=
		Version, GitCommit, GitBranch, BuildTime, GoVersion
	t.Cleanup(func() {
		Version = origVersion
		GitCommit = origCommit
		GitBranch = origBranch
		BuildTime = origBuildTime
		GoVersion = origGoVersion
	})
}

func TestVersionInfoDevDefaults(t *testing.T) {
	stashBuildVars(t)
	Version, GitCommit, GitBranch, BuildTime, GoVersion = "dev", "", "", "", ""

	info := GetVersionInfo()
	if info.Version != "dev" {
		t.Errorf("version = %q, want dev", info.Version)
	}
	if info.IsRelease {
		t.Error("dev build must not be a release")
	}
	if info.BuildDate.IsZero() {
		t.Error("build date should always be filled")
	}
}

func TestVersionInfoFromLdflags(t *testing.T) {
	stashBuildVars(t)
	Version = "1.2.0"
	GitCommit = "abc1234"
	GitBranch = "main"
	BuildTime = "2026-03-01T08:00:00Z"
	GoVersion = "go1.26.0"

	info := GetVersionInfo()
	if !info.IsRelease {
		t.Error("tagged version should be a release")
	}
	if info.GitCommit != "abc1234" || info.GoVersion != "go1.26.0" {
		t.Errorf("info = %+v", info)
	}
	if info.BuildDate.Year() != 2026 {
		t.Errorf("build year = %d", info.BuildDate.Year())
	}
}

func TestVersionInfoDirtyIsNotRelease(t *testing.T) {
	stashBuildVars(t)
	Version = "1.2.0-dirty"

	if GetVersionInfo().IsRelease {
		t.Error("dirty version must not be a release")
	}
}

func TestShortVersion(t *testing.T) {
	stashBuildVars(t)
	Version, GitCommit, GitBranch, BuildTime, GoVersion = "dev", "", "", "", ""
	if sv := GetShortVersion(); !strings.Contains(sv, "dev") {
		t.Errorf("short version = %q", sv)
	}

	Version = "1.2.0"
	GitCommit = "abc1234"
	BuildTime = "2026-03-01T08:00:00Z"
	GoVersion = "go1.26.0"
	if sv := GetShortVersion(); sv != "1.2.0-abc1234" {
		t.Errorf("short version = %q, want 1.2.0-abc1234", sv)
	}
}

func TestFullVersionOmitsDefaultBranch(t *testing.T) {
	stashBuildVars(t)
	Version = "1.2.0"
	GitCommit = "abc1234"
	GitBranch = "main"
	BuildTime = "2026-03-01T08:00:00Z"
	GoVersion = "go1.26.0"

	fv := GetFullVersion()
	if !strings.Contains(fv, "1.2.0") || !strings.Contains(fv, "abc1234") {
		t.Errorf("full version = %q", fv)
	}
	if strings.Contains(fv, "main") {
		t.Errorf("main branch should be omitted, got %q", fv)
	}
	if !strings.Contains(fv, "built") {
		t.Errorf("expected build timestamp suffix, got %q", fv)
	}
}

func TestFullVersionKeepsFeatureBranch(t *testing.T) {
	stashBuildVars(t)
	Version = "1.2.0"
	GitCommit = "abc1234"
	GitBranch = "feature/patch-reattribution"
	BuildTime = "2026-03-01T08:00:00Z"
	GoVersion = "go1.26.0"

	if fv := GetFullVersion(); !strings.Contains(fv, "feature/patch-reattribution") {
		t.Errorf("full version = %q", fv)
	}
}

func TestFullVersionWithoutCommit(t *testing.T) {
	stashBuildVars(t)
	Version, GitCommit, GitBranch, BuildTime, GoVersion = "dev", "", "", "", ""

	if fv := GetFullVersion(); !strings.HasPrefix(fv, "dev") {
		t.Errorf("full version = %q, want dev prefix", fv)
	}
}
