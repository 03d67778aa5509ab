package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
)

// Filesystem profiles select the character substitution table used when
// building destination names.
const (
	ProfileAuto    = "auto"
	ProfileWindows = "windows"
	ProfileDarwin  = "darwin"
	ProfileLinux   = "linux"
)

// Config holds every setting title-sieve reads from disk.
type Config struct {
	Scanner    ScannerConfig    `json:"scanner"`
	Summarizer SummarizerConfig `json:"summarizer"`

	LogLevel         string `json:"log_level"`
	EnableLogging    bool   `json:"enable_logging"`
	LogRetentionDays int    `json:"log_retention_days"`
}

// ScannerConfig controls which directories are walked and which files count
// as videos.
type ScannerConfig struct {
	// IgnoredFolderNamePatterns are regular expressions joined as one
	// alternation and matched at the start of each directory name.
	IgnoredFolderNamePatterns []string `json:"ignored_folder_name_pattern"`
	// SkipNFODir skips directories that directly contain an .nfo file,
	// which marks them as already organized.
	SkipNFODir         bool     `json:"skip_nfo_dir"`
	FilenameExtensions []string `json:"filename_extensions"`
	// MinimumSize is a human readable size such as "232MiB".
	MinimumSize string `json:"minimum_size"`
}

// SummarizerConfig describes the destination library layout.
type SummarizerConfig struct {
	Path PathConfig `json:"path"`
}

// PathConfig holds the output folder template and path length limits.
type PathConfig struct {
	OutputFolderPattern string `json:"output_folder_pattern"`
	LengthByByte        bool   `json:"length_by_byte"`
	LengthMaximum       int    `json:"length_maximum"`
	FilesystemProfile   string `json:"filesystem_profile"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Scanner: ScannerConfig{
			IgnoredFolderNamePatterns: []string{`^\.`, `^#`, `^@eaDir$`, `(?i)^sample$`},
			SkipNFODir:                false,
			FilenameExtensions: []string{
				".3gp", ".avi", ".f4v", ".flv", ".iso", ".m2ts", ".m4v", ".mkv", ".mov",
				".mp4", ".mpeg", ".mpg", ".rm", ".rmvb", ".ts", ".vob", ".webm", ".wmv", ".strm",
			},
			MinimumSize: "232MiB",
		},
		Summarizer: SummarizerConfig{
			Path: PathConfig{
				OutputFolderPattern: "#sorted/{actress}/[{num}] {title}",
				LengthByByte:        true,
				LengthMaximum:       250,
				FilesystemProfile:   ProfileAuto,
			},
		},
		LogLevel:         "info",
		EnableLogging:    true,
		LogRetentionDays: 30,
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".title-sieve", "config.json"), nil
}

// Load reads the configuration from disk
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFile(path)
}

// LoadFile reads the configuration stored at path. A missing file yields the
// default configuration.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Fill in any missing fields with defaults
	defaults := DefaultConfig()
	if cfg.Scanner.IgnoredFolderNamePatterns == nil {
		cfg.Scanner.IgnoredFolderNamePatterns = defaults.Scanner.IgnoredFolderNamePatterns
	}
	if len(cfg.Scanner.FilenameExtensions) == 0 {
		cfg.Scanner.FilenameExtensions = defaults.Scanner.FilenameExtensions
	}
	if cfg.Scanner.MinimumSize == "" {
		cfg.Scanner.MinimumSize = defaults.Scanner.MinimumSize
	}
	if cfg.Summarizer.Path.OutputFolderPattern == "" {
		cfg.Summarizer.Path.OutputFolderPattern = defaults.Summarizer.Path.OutputFolderPattern
	}
	if cfg.Summarizer.Path.LengthMaximum == 0 {
		cfg.Summarizer.Path.LengthMaximum = defaults.Summarizer.Path.LengthMaximum
	}
	if cfg.Summarizer.Path.FilesystemProfile == "" {
		cfg.Summarizer.Path.FilesystemProfile = defaults.Summarizer.Path.FilesystemProfile
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.LogRetentionDays == 0 {
		cfg.LogRetentionDays = defaults.LogRetentionDays
	}

	return &cfg, nil
}

// Save writes the configuration to disk
func (cfg *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return cfg.SaveFile(path)
}

// SaveFile writes the configuration to path, creating parent directories.
func (cfg *Config) SaveFile(path string) error {
	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the settings that are parsed lazily elsewhere.
func (cfg *Config) Validate() error {
	if _, err := cfg.Scanner.IgnoredFolderRegexp(); err != nil {
		return err
	}
	if _, err := cfg.Scanner.MinimumSizeBytes(); err != nil {
		return err
	}
	switch cfg.Summarizer.Path.FilesystemProfile {
	case ProfileAuto, ProfileWindows, ProfileDarwin, ProfileLinux:
	default:
		return fmt.Errorf("unknown filesystem profile %q", cfg.Summarizer.Path.FilesystemProfile)
	}
	if cfg.Summarizer.Path.LengthMaximum < 0 {
		return fmt.Errorf("length_maximum must not be negative")
	}
	return nil
}

// IgnoredFolderRegexp compiles the ignore patterns into one alternation
// anchored at the start of a name. Each pattern is grouped so inline flags
// stay local to it. It returns nil when no pattern is set.
func (sc ScannerConfig) IgnoredFolderRegexp() (*regexp.Regexp, error) {
	if len(sc.IgnoredFolderNamePatterns) == 0 {
		return nil, nil
	}
	alts := make([]string, len(sc.IgnoredFolderNamePatterns))
	for i, p := range sc.IgnoredFolderNamePatterns {
		alts[i] = "(?:" + p + ")"
	}
	expr := `^(?:` + strings.Join(alts, "|") + `)`
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, fmt.Errorf("invalid ignored_folder_name_pattern: %w", err)
	}
	return re, nil
}

// MinimumSizeBytes parses MinimumSize. An empty value means no minimum.
func (sc ScannerConfig) MinimumSizeBytes() (int64, error) {
	if strings.TrimSpace(sc.MinimumSize) == "" {
		return 0, nil
	}
	n, err := humanize.ParseBytes(sc.MinimumSize)
	if err != nil {
		return 0, fmt.Errorf("invalid minimum_size %q: %w", sc.MinimumSize, err)
	}
	return int64(n), nil
}

// ExtensionSet returns the allowed extensions, lower-cased with a leading dot.
func (sc ScannerConfig) ExtensionSet() map[string]struct{} {
	set := make(map[string]struct{}, len(sc.FilenameExtensions))
	for _, ext := range sc.FilenameExtensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	return set
}
