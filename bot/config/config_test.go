package config

import (
	"applybot/bot/models"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresToken(t *testing.T) {
	t.Setenv("BOT_TOKEN", "")
	t.Setenv("LOG_LEVEL", "debug")

	_, err := Load(false)
	assert.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("SWEEP_INTERVAL", "")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("CLEAN_COMMANDS_AFTER_SHUTDOWN", "")

	cfg, err := Load(false)
	require.NoError(t, err)

	assert.Equal(t, "token", cfg.BotToken)
	assert.Equal(t, 60*time.Second, cfg.SweepInterval)
	assert.Equal(t, logrus.InfoLevel, cfg.Level())
	assert.False(t, cfg.CleanCommandsAfterShutdown)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("SWEEP_INTERVAL", "15s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CLEAN_COMMANDS_AFTER_SHUTDOWN", "true")
	t.Setenv("GUILD_ID", "123456789012345678")

	cfg, err := Load(false)
	require.NoError(t, err)

	assert.Equal(t, 15*time.Second, cfg.SweepInterval)
	assert.Equal(t, logrus.DebugLevel, cfg.Level())
	assert.True(t, cfg.CleanCommandsAfterShutdown)
	assert.Equal(t, "123456789012345678", cfg.GuildId)
}

func TestLoadRejectsNonPositiveInterval(t *testing.T) {
	t.Setenv("BOT_TOKEN", "token")
	t.Setenv("SWEEP_INTERVAL", "0s")

	_, err := Load(false)
	assert.Error(t, err)
}

func TestParseSettingsOverlaysDefaults(t *testing.T) {
	settings, err := ParseSettings([]byte(`
prefix: "?"
default_questions:
  - prompt: Show us your setup
    kind: image
  - prompt: Why?
`))
	require.NoError(t, err)

	assert.Equal(t, "?", settings.Prefix)
	assert.Equal(t, "112233112233", settings.ActivationCode)
	assert.Equal(t, "#65a2c4", settings.EmbedColor)
	assert.Equal(t, []models.Question{
		{Prompt: "Show us your setup", Kind: models.AnswerImage},
		{Prompt: "Why?", Kind: models.AnswerText},
	}, settings.DefaultQuestions)
}

func TestParseSettingsRejectsUnknownKind(t *testing.T) {
	_, err := ParseSettings([]byte("default_questions:\n  - prompt: Hi\n    kind: video\n"))
	assert.Error(t, err)
}

func TestLoadSettingsFromFile(t *testing.T) {
	settings, err := LoadSettings("")
	require.NoError(t, err)
	assert.Len(t, settings.DefaultQuestions, 4)

	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("activation_code: \"999\"\n"), 0o600))

	settings, err = LoadSettings(path)
	require.NoError(t, err)
	assert.Equal(t, "999", settings.ActivationCode)
	assert.Equal(t, "!", settings.Prefix)

	_, err = LoadSettings(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
