// Package log provides the application logger and the persistent scan
// session reports kept under ~/.title-sieve/logs.
package log

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

type EntryType string

const (
	EntryFailed    EntryType = "failed"
	EntryDuplicate EntryType = "duplicate"
	EntrySkipped   EntryType = "skipped"
	EntryExisting  EntryType = "existing"
	EntryCollapsed EntryType = "collapsed"
)

type Entry struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Type       EntryType `json:"type"`
	Identifier string    `json:"identifier,omitempty"`
	Paths      []string  `json:"paths"`
	Reason     string    `json:"reason,omitempty"`
}

type SessionMetadata struct {
	CommandArgs []string  `json:"command_args"`
	WorkingDir  string    `json:"working_dir"`
	Root        string    `json:"root"`
	Timestamp   time.Time `json:"timestamp"`
	SessionID   string    `json:"session_id"`
	Movies      int       `json:"movies"`
	Failed      int       `json:"failed"`
	Duplicates  int       `json:"duplicates"`
	Skipped     int       `json:"skipped"`
}

// Session collects what one scan could not turn into movies so the user can
// review it later with the history command.
type Session struct {
	mu       sync.Mutex
	Metadata SessionMetadata `json:"metadata"`
	Entries  []Entry         `json:"entries"`
}

// NewSession starts a session for a scan of root.
func NewSession(command string, args []string, root string) (*Session, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("failed to get working directory: %w", err)
	}

	now := time.Now()
	sessionID := fmt.Sprintf("%s_%03d", now.Format("20060102_150405"), now.Nanosecond()/1000000)

	return &Session{
		Metadata: SessionMetadata{
			CommandArgs: append([]string{command}, args...),
			WorkingDir:  wd,
			Root:        root,
			Timestamp:   now,
			SessionID:   sessionID,
		},
		Entries: []Entry{},
	}, nil
}

// Record appends an entry to the session.
func (s *Session) Record(t EntryType, identifier string, paths []string, reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Entries = append(s.Entries, Entry{
		ID:         fmt.Sprintf("%s_%d", s.Metadata.SessionID, len(s.Entries)),
		Timestamp:  time.Now(),
		Type:       t,
		Identifier: identifier,
		Paths:      paths,
		Reason:     reason,
	})
}

// SetMovies stores how many movies the scan produced.
func (s *Session) SetMovies(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Metadata.Movies = n
}

// updateStats derives the per-type counters from the entries.
func (s *Session) updateStats() {
	s.Metadata.Failed, s.Metadata.Duplicates, s.Metadata.Skipped = 0, 0, 0
	for _, e := range s.Entries {
		switch e.Type {
		case EntryFailed:
			s.Metadata.Failed++
		case EntryDuplicate:
			s.Metadata.Duplicates++
		case EntrySkipped, EntryExisting, EntryCollapsed:
			s.Metadata.Skipped++
		}
	}
}

// Count returns how many entries of type t were recorded.
func (s *Session) Count(t EntryType) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.Entries {
		if e.Type == t {
			n++
		}
	}
	return n
}

// LogDir returns the directory session reports are written to.
func LogDir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".title-sieve", "logs"), nil
}

// GetLogPath returns a fresh, timestamped report path, creating the log
// directory if needed.
func GetLogPath() (string, error) {
	logDir, err := LogDir()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create log directory: %w", err)
	}

	now := time.Now()
	filename := fmt.Sprintf("%s.%03d.json",
		now.Format("2006-01-02_150405"),
		now.Nanosecond()/1000000)

	return filepath.Join(logDir, filename), nil
}

// Write saves the session to a new file in the log directory and returns its
// path.
func (s *Session) Write() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.updateStats()

	logPath, err := GetLogPath()
	if err != nil {
		return "", fmt.Errorf("failed to get log path: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}

	if err := os.WriteFile(logPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write log file: %w", err)
	}

	return logPath, nil
}

func ReadSession(logPath string) (*Session, error) {
	data, err := os.ReadFile(logPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read log file: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &session, nil
}

// ReadSessions returns up to limit sessions, newest first. A limit of zero
// or less returns all of them.
func ReadSessions(limit int) ([]*Session, error) {
	logDir, err := LogDir()
	if err != nil {
		return nil, err
	}

	// Check if log directory exists
	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		return []*Session{}, nil
	}

	files, err := filepath.Glob(filepath.Join(logDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to list log files: %w", err)
	}

	// Sort files by name (which includes timestamp) in descending order
	sort.Sort(sort.Reverse(sort.StringSlice(files)))

	if limit > 0 && len(files) > limit {
		files = files[:limit]
	}

	sessions := make([]*Session, 0, len(files))
	for _, file := range files {
		session, err := ReadSession(file)
		if err != nil {
			// Skip corrupted files
			continue
		}
		sessions = append(sessions, session)
	}

	return sessions, nil
}

// CleanupOldLogs removes reports older than retentionDays and returns how
// many were deleted. A non-positive retention keeps everything.
func CleanupOldLogs(retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, nil
	}

	logDir, err := LogDir()
	if err != nil {
		return 0, err
	}

	if _, err := os.Stat(logDir); os.IsNotExist(err) {
		return 0, nil
	}

	files, err := filepath.Glob(filepath.Join(logDir, "*.json"))
	if err != nil {
		return 0, fmt.Errorf("failed to list log files: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(file); err != nil {
				return removed, fmt.Errorf("failed to remove old log file %s: %w", file, err)
			}
			removed++
		}
	}

	return removed, nil
}
