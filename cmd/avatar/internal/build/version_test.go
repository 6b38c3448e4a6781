package build

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, "avatar "+Version+" ") {
		t.Errorf("String() = %q, want avatar %s prefix", s, Version)
	}
	if !strings.HasSuffix(s, runtime.GOOS+"/"+runtime.GOARCH) {
		t.Errorf("String() = %q, want %s/%s suffix", s, runtime.GOOS, runtime.GOARCH)
	}
}

func TestFromSettings(t *testing.T) {
	vcs := []debug.BuildSetting{
		{Key: "vcs", Value: "git"},
		{Key: "vcs.revision", Value: "0123456789abcdef"},
		{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
	}
	tests := []struct {
		name       string
		settings   []debug.BuildSetting
		commit     string
		date       string
		wantCommit string
		wantDate   string
	}{
		{"fills unknowns", vcs, "unknown", "unknown", "0123456", "2026-01-02T03:04:05Z"},
		{"ldflags win", vcs, "abc1234", "2025-12-31", "abc1234", "2025-12-31"},
		{"no vcs stamp", nil, "unknown", "unknown", "unknown", "unknown"},
		{"short revision", []debug.BuildSetting{{Key: "vcs.revision", Value: "abc"}}, "unknown", "unknown", "abc", "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			commit, date := fromSettings(tt.settings, tt.commit, tt.date)
			if commit != tt.wantCommit || date != tt.wantDate {
				t.Errorf("fromSettings() = %q, %q; want %q, %q", commit, date, tt.wantCommit, tt.wantDate)
			}
		})
	}
}
