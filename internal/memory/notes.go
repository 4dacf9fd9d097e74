package memory

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// NoteStore is the file-backed long-term memory: curated facts in
// MEMORY.md (one per line, '#' lines are comments) and a raw daily event
// log under daily/. The files are human-editable; every read failure
// degrades to an empty result instead of failing the request.
type NoteStore struct {
	root string
	mu   sync.Mutex
}

func NewNoteStore(root string) *NoteStore {
	s := &NoteStore{root: root}
	if err := s.bootstrap(); err != nil {
		slog.Error("failed to initialize note store", "root", root, "error", err)
	}
	return s
}

func (s *NoteStore) memoryPath() string {
	return filepath.Join(s.root, "MEMORY.md")
}

func (s *NoteStore) dailyPath(day time.Time) string {
	return filepath.Join(s.root, "daily", day.Format("2006-01-02")+".md")
}

func (s *NoteStore) bootstrap() error {
	if err := os.MkdirAll(filepath.Join(s.root, "daily"), 0o755); err != nil {
		return err
	}
	if _, err := os.Stat(s.memoryPath()); os.IsNotExist(err) {
		header := "# OpenClaw Memory\n\nCurated decisions and preferences.\n"
		return os.WriteFile(s.memoryPath(), []byte(header), 0o644)
	}
	return nil
}

// RelevantMemories returns the curated fact lines, skipping comments and
// blanks. Returns an empty list on any read failure.
func (s *NoteStore) RelevantMemories() []string {
	data, err := os.ReadFile(s.memoryPath())
	if err != nil {
		slog.Warn("failed to read curated memory", "error", err)
		return nil
	}

	var facts []string
	for _, line := range strings.Split(string(data), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		facts = append(facts, trimmed)
	}
	return facts
}

// Remember appends a curated fact to MEMORY.md.
func (s *NoteStore) Remember(fact string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.memoryPath(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open curated memory: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "- %s\n", fact); err != nil {
		return fmt.Errorf("append fact: %w", err)
	}
	slog.Info("remembered new fact", "fact", fact)
	return nil
}

// LogEvent appends a timestamped line to today's daily log, creating the
// file with a header on first use.
func (s *NoteStore) LogEvent(event string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	path := s.dailyPath(now)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		header := fmt.Sprintf("# Daily Log: %s\n\n", now.Format("2006-01-02"))
		if err := os.WriteFile(path, []byte(header), 0o644); err != nil {
			return fmt.Errorf("create daily log: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open daily log: %w", err)
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "[%s] %s\n", now.Format("15:04:05"), event); err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}
