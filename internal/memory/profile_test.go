package memory

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileStoreBootstrapsFiles(t *testing.T) {
	root := t.TempDir()
	NewProfileStore(root)

	for _, name := range []string{"USER.md", "SOUL.md", "TOOLS.md"} {
		_, err := os.Stat(filepath.Join(root, "profiles", name))
		assert.NoError(t, err, name)
	}
}

func TestProfileParsesNameAndPreferences(t *testing.T) {
	root := t.TempDir()
	s := NewProfileStore(root)

	user := "User Name: Alex\n\nPreferences:\n- Tone: casual\n- timezone: America/Chicago\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, "profiles", "USER.md"), []byte(user), 0o644))

	p, err := s.Profile()
	require.NoError(t, err)
	assert.Equal(t, "Alex", p.UserName)
	assert.Equal(t, "casual", p.Preferences["tone"])
	assert.Equal(t, "America/Chicago", p.Preferences["timezone"])
	assert.Contains(t, p.SystemPrompt, "assist Alex")
}

func TestProfileComposesPersonalityFromSoulAndEnvironment(t *testing.T) {
	root := t.TempDir()
	s := NewProfileStore(root)

	require.NoError(t, s.UpdateSoul("Be blunt and brief."))
	require.NoError(t, s.UpdateEnvironmentFact("staging cluster is at 10.0.0.5"))

	p, err := s.Profile()
	require.NoError(t, err)
	assert.Contains(t, p.Personality, "Be blunt and brief.")
	assert.Contains(t, p.Personality, "Environment Context:")
	assert.Contains(t, p.Personality, "staging cluster is at 10.0.0.5")
}

func TestProfileFallsBackToDefaultOnMissingFiles(t *testing.T) {
	root := t.TempDir()
	s := NewProfileStore(root)
	require.NoError(t, os.Remove(filepath.Join(root, "profiles", "SOUL.md")))

	p, err := s.Profile()
	assert.Error(t, err)
	assert.Equal(t, DefaultProfile(), p)
	assert.NotEmpty(t, p.SystemPrompt)
}

func TestUpdatePreferenceAppends(t *testing.T) {
	root := t.TempDir()
	s := NewProfileStore(root)

	require.NoError(t, s.UpdatePreference("language", "Go"))

	p, err := s.Profile()
	require.NoError(t, err)
	assert.Equal(t, "Go", p.Preferences["language"])
}
