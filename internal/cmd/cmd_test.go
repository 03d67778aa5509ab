package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Digital-Shane/title-sieve/internal/avid"
	"github.com/Digital-Shane/title-sieve/internal/config"
	"github.com/Digital-Shane/title-sieve/internal/library"
	"github.com/Digital-Shane/title-sieve/internal/log"
	"github.com/Digital-Shane/title-sieve/internal/scan"
	"github.com/google/go-cmp/cmp"
)

const (
	bigFile   = 4096
	smallFile = 16
)

func writeFiles(t *testing.T, root string, files map[string]int) {
	t.Helper()
	for rel, size := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatalf("MkdirAll(%q) error = %v", path, err)
		}
		if err := os.WriteFile(path, make([]byte, size), 0644); err != nil {
			t.Fatalf("WriteFile(%q) error = %v", path, err)
		}
	}
}

// setupEnv isolates HOME and writes a config whose library lives in its own
// temporary directory. It returns the config path and the library root.
func setupEnv(t *testing.T, mutate func(*config.Config)) (string, string) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)

	lib := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.Scanner.MinimumSize = "1KiB"
	cfg.Summarizer.Path.OutputFolderPattern = filepath.ToSlash(lib) + "/{actress}/[{num}] {title}"
	cfg.Summarizer.Path.FilesystemProfile = config.ProfileLinux
	if mutate != nil {
		mutate(cfg)
	}

	path := filepath.Join(home, "config.json")
	if err := cfg.SaveFile(path); err != nil {
		t.Fatalf("SaveFile() error = %v", err)
	}
	return path, lib
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), errOut.String(), err
}

// writeLibraryFixture lays out a scan root exercising every report section.
func writeLibraryFixture(t *testing.T, root, lib string) {
	t.Helper()
	writeFiles(t, root, map[string]int{
		"ABC-123/ABC-123A.mp4": bigFile,
		"ABC-123/ABC-123B.mp4": bigFile,
		"ABC-123/ABC-123.srt":  smallFile,
		"ABC-00123.mp4":        bigFile,
		"abc00123.mp4":         bigFile,
		"XYZ-007.mkv":          bigFile,
		"holiday.mp4":          bigFile,
		"tiny/DEF-456.mp4":     smallFile,
	})
	if err := os.MkdirAll(filepath.Join(lib, "Someone", "[XYZ-007] A Title"), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestScanCommandJSON(t *testing.T) {
	cfgPath, lib := setupEnv(t, nil)
	root := t.TempDir()
	writeLibraryFixture(t, root, lib)

	out, stderr, err := execute(t, "--config", cfgPath, "scan", root, "--json", "--skip-existing", "--preview")
	if err != nil {
		t.Fatalf("scan error = %v\nstderr: %s", err, stderr)
	}

	var got scanReport
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("json.Unmarshal() error = %v\noutput: %s", err, out)
	}

	var ids []string
	for _, m := range got.Movies {
		ids = append(ids, m.ID())
	}
	if diff := cmp.Diff([]string{"ABC-00123", "ABC-123"}, ids); diff != "" {
		t.Errorf("movie ids mismatch (-want +got):\n%s", diff)
	}

	sliced := got.Movies[1]
	wantFiles := []string{
		filepath.Join(root, "ABC-123", "ABC-123A.mp4"),
		filepath.Join(root, "ABC-123", "ABC-123B.mp4"),
	}
	if diff := cmp.Diff(wantFiles, sliced.Files); diff != "" {
		t.Errorf("slice files mismatch (-want +got):\n%s", diff)
	}
	if sliced.Size != 2*bigFile {
		t.Errorf("Size = %d, want %d", sliced.Size, 2*bigFile)
	}
	if want := filepath.Join(root, "ABC-123", "ABC-123.srt"); sliced.Subtitle != want {
		t.Errorf("Subtitle = %q, want %q", sliced.Subtitle, want)
	}
	if !strings.HasSuffix(sliced.Destination, "/[ABC-123] {title}") {
		t.Errorf("Destination = %q, want rendered num", sliced.Destination)
	}
	if sliced.Remaining == nil || *sliced.Remaining <= 0 {
		t.Errorf("Remaining = %v, want positive budget", sliced.Remaining)
	}
	if got.Movies[0].Subtitle != "" {
		t.Errorf("ABC-00123 Subtitle = %q, want none", got.Movies[0].Subtitle)
	}

	wantFailed := []scan.FailedItem{{Files: []string{filepath.Join(root, "holiday.mp4")}, Reason: scan.ReasonUnrecognized}}
	if diff := cmp.Diff(wantFailed, got.Failed); diff != "" {
		t.Errorf("Failed mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{filepath.Join(root, "tiny", "DEF-456.mp4")}, got.Skipped); diff != "" {
		t.Errorf("Skipped mismatch (-want +got):\n%s", diff)
	}
	if len(got.Existing) != 1 || got.Existing[0].DVDID != "XYZ-007" {
		t.Errorf("Existing = %+v, want XYZ-007", got.Existing)
	}
	if len(got.Collapsed) != 1 || got.Collapsed[0].CID != "abc00123" || got.Collapsed[0].Source != avid.SourceCID {
		t.Errorf("Collapsed = %+v, want the cid copy of ABC-00123", got.Collapsed)
	}

	if !strings.Contains(stderr, "already in library") {
		t.Errorf("stderr = %q, want existing title logged", stderr)
	}
}

func TestScanCommandWritesSession(t *testing.T) {
	cfgPath, lib := setupEnv(t, nil)
	root := t.TempDir()
	writeLibraryFixture(t, root, lib)

	if _, stderr, err := execute(t, "--config", cfgPath, "scan", root, "--skip-existing"); err != nil {
		t.Fatalf("scan error = %v\nstderr: %s", err, stderr)
	}

	sessions, err := log.ReadSessions(0)
	if err != nil {
		t.Fatalf("ReadSessions() error = %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("ReadSessions() = %d sessions, want 1", len(sessions))
	}
	meta := sessions[0].Metadata
	if meta.Root != root {
		t.Errorf("Root = %q, want %q", meta.Root, root)
	}
	// skipped counts the small file, the existing title and the collapsed copy
	if meta.Movies != 2 || meta.Failed != 1 || meta.Duplicates != 0 || meta.Skipped != 3 {
		t.Errorf("metadata = %+v, want 2 movies, 1 failed, 0 duplicates, 3 skipped", meta)
	}
}

func TestScanCommandLoggingDisabled(t *testing.T) {
	cfgPath, _ := setupEnv(t, func(c *config.Config) { c.EnableLogging = false })
	root := t.TempDir()
	writeFiles(t, root, map[string]int{"ABC-123.mp4": bigFile})

	if _, _, err := execute(t, "--config", cfgPath, "scan", root); err != nil {
		t.Fatalf("scan error = %v", err)
	}
	sessions, err := log.ReadSessions(0)
	if err != nil {
		t.Fatalf("ReadSessions() error = %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("ReadSessions() = %d sessions, want 0 with logging disabled", len(sessions))
	}
}

func TestScanCommandTextReport(t *testing.T) {
	cfgPath, lib := setupEnv(t, nil)
	root := t.TempDir()
	writeLibraryFixture(t, root, lib)

	out, stderr, err := execute(t, "--config", cfgPath, "scan", root)
	if err != nil {
		t.Fatalf("scan error = %v\nstderr: %s", err, stderr)
	}

	for _, want := range []string{
		"Scan Report",
		"ABC-123",
		"2 slices",
		filepath.Join("ABC-123", "ABC-123A.mp4"),
		"XYZ-007",
		"Unrecognized (1)",
		"holiday.mp4",
		"Below minimum size (1)",
		filepath.Join("tiny", "DEF-456.mp4"),
		"Duplicate copies ignored (1)",
		"3 movies, 1 unrecognized, 0 conflicting, 1 skipped",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q\noutput:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Already in library") {
		t.Errorf("report lists existing titles without --skip-existing:\n%s", out)
	}
}

func TestScanCommandConflictingIdentifiers(t *testing.T) {
	cfgPath, _ := setupEnv(t, nil)
	root := t.TempDir()
	writeFiles(t, root, map[string]int{
		"one/ABC-123.mp4": bigFile,
		"two/ABC-123.mp4": bigFile,
	})

	out, stderr, err := execute(t, "--config", cfgPath, "scan", root)
	if err != nil {
		t.Fatalf("scan error = %v", err)
	}
	if !strings.Contains(out, "Conflicting identifiers (1)") || !strings.Contains(out, filepath.Join("two", "ABC-123.mp4")) {
		t.Errorf("report missing conflict section:\n%s", out)
	}
	if !strings.Contains(stderr, "ABC-123") {
		t.Errorf("stderr = %q, want consolidated error naming ABC-123", stderr)
	}
}

func TestScanCommandInvalidRoot(t *testing.T) {
	cfgPath, _ := setupEnv(t, nil)

	_, _, err := execute(t, "--config", cfgPath, "scan", filepath.Join(t.TempDir(), "missing"))
	if !errors.Is(err, scan.ErrInvalidRoot) {
		t.Errorf("scan error = %v, want ErrInvalidRoot", err)
	}
}

func TestScanCommandBadLogLevel(t *testing.T) {
	cfgPath, _ := setupEnv(t, nil)

	if _, _, err := execute(t, "--config", cfgPath, "--log-level", "loud", "scan", t.TempDir()); err == nil {
		t.Error("scan with bad --log-level error = nil, want error")
	}
}

func TestScanCommandDebugLogLevel(t *testing.T) {
	cfgPath, _ := setupEnv(t, nil)
	root := t.TempDir()
	writeFiles(t, root, map[string]int{"ABC-123.mp4": bigFile})

	_, stderr, err := execute(t, "--config", cfgPath, "--log-level", "debug", "scan", root)
	if err != nil {
		t.Fatalf("scan error = %v", err)
	}
	if !strings.Contains(stderr, "session report written") {
		t.Errorf("stderr = %q, want debug session message", stderr)
	}
	if !strings.Contains(stderr, "identifier extraction") || !strings.Contains(stderr, "names=1") {
		t.Errorf("stderr = %q, want shared extractor cache size logged", stderr)
	}
}

func TestUseProgressScreen(t *testing.T) {
	var buf bytes.Buffer
	if useProgressScreen(&buf, &scanOptions{}) {
		t.Error("useProgressScreen(buffer) = true, want false")
	}
	if useProgressScreen(os.Stdout, &scanOptions{noProgress: true}) {
		t.Error("useProgressScreen(--no-progress) = true, want false")
	}
	if useProgressScreen(os.Stdout, &scanOptions{jsonOutput: true}) {
		t.Error("useProgressScreen(--json) = true, want false")
	}
}

func TestPreviewValues(t *testing.T) {
	tests := []struct {
		name  string
		movie scan.Movie
		want  map[string]string
	}{
		{
			name:  "dvdid with attr",
			movie: scan.Movie{DVDID: "SSIS-001", Attr: "-C"},
			want:  map[string]string{"num": "SSIS-001-C"},
		},
		{
			name:  "cid",
			movie: scan.Movie{DVDID: "ABC-00123", CID: "abc00123"},
			want:  map[string]string{"num": "ABC-00123", "cid": "abc00123"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, previewValues(tt.movie)); diff != "" {
				t.Errorf("previewValues() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestExistingCommand(t *testing.T) {
	cfgPath, lib := setupEnv(t, nil)
	for _, dir := range []string{"B/[XYZ-007-C] Title", "A/[ABC-123] Other", "A/unrelated"} {
		if err := os.MkdirAll(filepath.Join(lib, filepath.FromSlash(dir)), 0755); err != nil {
			t.Fatal(err)
		}
	}

	out, _, err := execute(t, "--config", cfgPath, "existing")
	if err != nil {
		t.Fatalf("existing error = %v", err)
	}
	if diff := cmp.Diff("ABC-123\nXYZ-007\n", out); diff != "" {
		t.Errorf("existing output mismatch (-want +got):\n%s", diff)
	}

	out, _, err = execute(t, "--config", cfgPath, "existing", "--pattern", filepath.ToSlash(lib)+"/A/[{num}] {title}")
	if err != nil {
		t.Fatalf("existing --pattern error = %v", err)
	}
	if diff := cmp.Diff("ABC-123\n", out); diff != "" {
		t.Errorf("existing --pattern output mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigCommands(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	path := filepath.Join(home, "nested", "config.json")

	out, _, err := execute(t, "--config", path, "config", "path")
	if err != nil {
		t.Fatalf("config path error = %v", err)
	}
	if strings.TrimSpace(out) != path {
		t.Errorf("config path = %q, want %q", out, path)
	}

	if _, _, err := execute(t, "--config", path, "config", "init"); err != nil {
		t.Fatalf("config init error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("config init did not write %s: %v", path, err)
	}
	if _, _, err := execute(t, "--config", path, "config", "init"); err == nil {
		t.Error("second config init error = nil, want refusal to overwrite")
	}
	if _, _, err := execute(t, "--config", path, "config", "init", "--force"); err != nil {
		t.Errorf("config init --force error = %v", err)
	}

	out, _, err = execute(t, "--config", path, "config", "show")
	if err != nil {
		t.Fatalf("config show error = %v", err)
	}
	var shown config.Config
	if err := json.Unmarshal([]byte(out), &shown); err != nil {
		t.Fatalf("config show output is not JSON: %v", err)
	}
	if diff := cmp.Diff(config.DefaultConfig(), &shown); diff != "" {
		t.Errorf("config show mismatch (-want +got):\n%s", diff)
	}

	out, _, err = execute(t, "--config", path, "config", "validate")
	if err != nil || !strings.Contains(out, "valid") {
		t.Errorf("config validate = %q, %v, want valid", out, err)
	}
}

func TestConfigVariablesCommand(t *testing.T) {
	cfgPath, _ := setupEnv(t, nil)

	out, _, err := execute(t, "--config", cfgPath, "config", "variables")
	if err != nil {
		t.Fatalf("config variables error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != len(library.Variables) {
		t.Errorf("config variables printed %d lines, want %d", len(lines), len(library.Variables))
	}
	if want := "{num}\tTitle identifier (Example: ABC-123)"; lines[0] != want {
		t.Errorf("first line = %q, want %q", lines[0], want)
	}
}

func TestConfigValidatePointsAtVariables(t *testing.T) {
	cfgPath, _ := setupEnv(t, func(c *config.Config) {
		c.Summarizer.Path.OutputFolderPattern = "#sorted/{studio}/[{num}]"
	})

	_, _, err := execute(t, "--config", cfgPath, "config", "validate")
	if err == nil || !strings.Contains(err.Error(), "{studio}") || !strings.Contains(err.Error(), "config variables") {
		t.Errorf("config validate error = %v, want unknown {studio} with a pointer to config variables", err)
	}
}

func TestConfigValidateRejectsTemplateWithoutNum(t *testing.T) {
	cfgPath, _ := setupEnv(t, func(c *config.Config) {
		c.Summarizer.Path.OutputFolderPattern = "#sorted/{actress}/{title}"
	})

	if _, _, err := execute(t, "--config", cfgPath, "config", "validate"); err == nil {
		t.Error("config validate error = nil, want missing {num} error")
	}
}

func TestLoadConfigRejectsInvalidSettings(t *testing.T) {
	cfgPath, _ := setupEnv(t, func(c *config.Config) {
		c.Scanner.MinimumSize = "huge"
	})

	if _, _, err := execute(t, "--config", cfgPath, "scan", t.TempDir()); err == nil {
		t.Error("scan with invalid minimum_size error = nil, want error")
	}
}

func TestHistoryCommand(t *testing.T) {
	cfgPath, _ := setupEnv(t, nil)

	out, _, err := execute(t, "--config", cfgPath, "history")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, "No scan sessions found.") {
		t.Errorf("history output = %q, want empty message", out)
	}

	root := t.TempDir()
	writeFiles(t, root, map[string]int{"ABC-123.mp4": bigFile, "holiday.mp4": bigFile})
	if _, _, err := execute(t, "--config", cfgPath, "scan", root); err != nil {
		t.Fatalf("scan error = %v", err)
	}

	out, _, err = execute(t, "--config", cfgPath, "history", "--limit", "5")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	if !strings.Contains(out, root) || !strings.Contains(out, "1 movies, 1 unrecognized") {
		t.Errorf("history output = %q, want session for %s", out, root)
	}
}
