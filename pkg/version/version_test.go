package version

import "testing"

func TestGetInfo(t *testing.T) {
	info := GetInfo()
	if info.Version == "" || info.GitCommit == "" || info.BuildDate == "" {
		t.Fatalf("expected non-empty version info, got %+v", info)
	}
}

func TestGetShortCommit(t *testing.T) {
	original := GitCommit
	defer func() { GitCommit = original }()

	GitCommit = "0123456789abcdef"
	if got := GetShortCommit(); got != "0123456" {
		t.Errorf("GetShortCommit() = %q, want %q", got, "0123456")
	}

	GitCommit = "abc"
	if got := GetShortCommit(); got != "abc" {
		t.Errorf("GetShortCommit() = %q, want %q", got, "abc")
	}
}
