package version

import "testing"

func TestFormat(t *testing.T) {
	tests := []struct {
		version, commit, date string
		want                  string
	}{
		{"dev", "none", "unknown", "dev (development build)"},
		{"v0.3.0", "abc1234", "2026-10-15", "v0.3.0 (commit: abc1234, built: 2026-10-15)"},
	}

	for _, tt := range tests {
		if got := Format(tt.version, tt.commit, tt.date); got != tt.want {
			t.Errorf("Format(%q, %q, %q) = %q, want %q", tt.version, tt.commit, tt.date, got, tt.want)
		}
	}
}

func TestString(t *testing.T) {
	if got := String(); got != Format(Version, Commit, Date) {
		t.Errorf("String() = %q", got)
	}
}
