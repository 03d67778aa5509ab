package core

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/Digital-Shane/title-sieve/internal/config"
)

func TestSanitize(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		profile string
		want    string
	}{
		{"WindowsAll", `a<b>c:d"e/f\g|h?i*j`, config.ProfileWindows, `a❮b❯c：d″e／f＼g｜h？i꘎j`},
		{"DarwinColonOnly", `Title: Part/1?`, config.ProfileDarwin, `Title： Part/1?`},
		{"LinuxSlashOnly", `AC/DC: Live?`, config.ProfileLinux, `AC／DC: Live?`},
		{"DotRun", "Wait... what", config.ProfileLinux, "Wait… what"},
		{"ParentReference", "..", config.ProfileWindows, "…"},
		{"SingleDotKept", "v1.2", config.ProfileWindows, "v1.2"},
		{"UnknownProfileIsLinux", "a/b:c", "amiga", "a／b:c"},
		{"Empty", "", config.ProfileWindows, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Sanitize(tt.in, tt.profile); got != tt.want {
				t.Errorf("Sanitize(%q, %q) = %q, want %q", tt.in, tt.profile, got, tt.want)
			}
		})
	}
}

func TestResolveProfile(t *testing.T) {
	want := config.ProfileLinux
	switch runtime.GOOS {
	case "windows":
		want = config.ProfileWindows
	case "darwin":
		want = config.ProfileDarwin
	}
	if got, err := ResolveProfile(config.ProfileAuto); err != nil || got != want {
		t.Errorf("ResolveProfile(auto) = %q, %v, want %q", got, err, want)
	}
	if got, err := ResolveProfile(config.ProfileDarwin); err != nil || got != config.ProfileDarwin {
		t.Errorf("ResolveProfile(darwin) = %q, %v", got, err)
	}
	if _, err := ResolveProfile("amiga"); err == nil {
		t.Error("ResolveProfile(amiga) error = nil, want error")
	}
}

func TestRemainingPathLength(t *testing.T) {
	dir := t.TempDir()
	ascii := filepath.Join(dir, "abc")
	wide := filepath.Join(dir, "片段")

	if got, want := RemainingPathLength(ascii, true, 250), 250-len(ascii); got != want {
		t.Errorf("RemainingPathLength(bytes) = %d, want %d", got, want)
	}
	if got, want := RemainingPathLength(wide, true, 250), 250-len(dir)-1-6; got != want {
		t.Errorf("RemainingPathLength(wide, bytes) = %d, want %d", got, want)
	}
	if got, want := RemainingPathLength(wide, false, 250), 250-len(dir)-1-2; got != want {
		t.Errorf("RemainingPathLength(wide, chars) = %d, want %d", got, want)
	}
	if got := RemainingPathLength(ascii, true, 1); got >= 0 {
		t.Errorf("RemainingPathLength() over limit = %d, want negative", got)
	}
}

func TestRemainingPathLengthRelative(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd() error = %v", err)
	}
	want := 500 - len(filepath.Join(wd, "movie"))
	if got := RemainingPathLength("movie", true, 500); got != want {
		t.Errorf("RemainingPathLength(relative) = %d, want %d", got, want)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{500, "500 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{232 * 1024 * 1024, "232 MiB"},
		{-1, "0 B"},
	}
	for _, tt := range tests {
		if got := FormatSize(tt.in); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTotalSize(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.mp4")
	b := filepath.Join(dir, "b.mp4")
	if err := os.WriteFile(a, []byte(strings.Repeat("x", 10)), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(b, []byte(strings.Repeat("x", 5)), 0644); err != nil {
		t.Fatal(err)
	}

	if got := TotalSize([]string{a, b, filepath.Join(dir, "missing.mp4")}); got != 15 {
		t.Errorf("TotalSize() = %d, want 15", got)
	}
}
