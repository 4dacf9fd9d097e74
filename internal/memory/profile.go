package memory

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Profile is the agent's identity for one request: who the user is, how
// the agent behaves, and the base system instruction. Loaded fresh per
// request since the underlying files are human-editable at runtime.
type Profile struct {
	UserName     string
	Personality  string
	SystemPrompt string
	Preferences  map[string]string
}

// Snapshot is the memory bundle handed to one reasoning cycle.
type Snapshot struct {
	RelevantMemories []string
	Preferences      map[string]string
	SoulDirective    string
	ToolsContext     string
}

// DefaultProfile is what the agent falls back to when the profile files
// cannot be read. Assembly must never fail on a missing profile.
func DefaultProfile() Profile {
	return Profile{
		UserName:     "User",
		Personality:  "Helpful Assistant",
		SystemPrompt: "You are OpenClaw, a powerful and autonomous AI agent.",
		Preferences:  map[string]string{},
	}
}

// ProfileStore reads and writes the identity documents under
// profiles/: USER.md (name + preferences), SOUL.md (personality), and
// TOOLS.md (environment facts).
type ProfileStore struct {
	dir string
	mu  sync.Mutex
}

func NewProfileStore(root string) *ProfileStore {
	s := &ProfileStore{dir: filepath.Join(root, "profiles")}
	if err := s.bootstrap(); err != nil {
		slog.Error("failed to initialize profile store", "dir", s.dir, "error", err)
	}
	return s
}

func (s *ProfileStore) userPath() string  { return filepath.Join(s.dir, "USER.md") }
func (s *ProfileStore) soulPath() string  { return filepath.Join(s.dir, "SOUL.md") }
func (s *ProfileStore) toolsPath() string { return filepath.Join(s.dir, "TOOLS.md") }

func (s *ProfileStore) bootstrap() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	defaults := map[string]string{
		s.userPath():  "User Name: User\n\nPreferences:\n- tone: Professional yet friendly\n",
		s.soulPath():  "Agent Soul: You are OpenClaw, a helpful autonomous assistant.\n",
		s.toolsPath(): "Environment: Development\n",
	}
	for path, content := range defaults {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return err
			}
		}
	}
	return nil
}

// Profile loads the full profile. Any read failure returns the default
// profile and an error the caller may log; the default is always usable.
func (s *ProfileStore) Profile() (Profile, error) {
	userData, err := os.ReadFile(s.userPath())
	if err != nil {
		return DefaultProfile(), fmt.Errorf("read user profile: %w", err)
	}
	soulData, err := os.ReadFile(s.soulPath())
	if err != nil {
		return DefaultProfile(), fmt.Errorf("read soul profile: %w", err)
	}
	toolsData, err := os.ReadFile(s.toolsPath())
	if err != nil {
		return DefaultProfile(), fmt.Errorf("read environment notes: %w", err)
	}

	userName := "User"
	preferences := map[string]string{}
	for _, line := range strings.Split(string(userData), "\n") {
		if v, ok := strings.CutPrefix(line, "User Name:"); ok && userName == "User" {
			if name := strings.TrimSpace(v); name != "" {
				userName = name
			}
			continue
		}
		if v, ok := strings.CutPrefix(line, "-"); ok {
			key, val, found := strings.Cut(v, ":")
			if found {
				preferences[strings.ToLower(strings.TrimSpace(key))] = strings.TrimSpace(val)
			}
		}
	}

	soul := strings.TrimSpace(string(soulData))
	environment := strings.TrimSpace(string(toolsData))

	personality := soul + "\n\nEnvironment Context:\n" + environment
	systemPrompt := fmt.Sprintf("You are OpenClaw. You use your tools and memory to assist %s.\n%s", userName, personality)

	return Profile{
		UserName:     userName,
		Personality:  personality,
		SystemPrompt: systemPrompt,
		Preferences:  preferences,
	}, nil
}

// UpdatePreference appends a preference line to USER.md.
func (s *ProfileStore) UpdatePreference(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := appendLine(s.userPath(), fmt.Sprintf("- %s: %s", key, value)); err != nil {
		return err
	}
	slog.Info("updated user preference", "key", key)
	return nil
}

// UpdateSoul rewrites SOUL.md wholesale.
func (s *ProfileStore) UpdateSoul(soul string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.WriteFile(s.soulPath(), []byte(soul+"\n"), 0o644); err != nil {
		return fmt.Errorf("write soul profile: %w", err)
	}
	slog.Info("updated agent soul definition")
	return nil
}

// UpdateEnvironmentFact appends an environment fact to TOOLS.md.
func (s *ProfileStore) UpdateEnvironmentFact(fact string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := appendLine(s.toolsPath(), "- "+fact); err != nil {
		return err
	}
	slog.Info("updated environment fact")
	return nil
}

func appendLine(path, line string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	_, err = fmt.Fprintln(f, line)
	return err
}
