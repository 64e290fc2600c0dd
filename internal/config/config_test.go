package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWritesDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config", "afk.yaml")

	created, err := Init(path)
	require.NoError(t, err)
	assert.True(t, created)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, RegionSewers, cfg.Area)
	assert.Equal(t, ProfileNormal, cfg.Mode)
	assert.True(t, cfg.Recovery)
	assert.Equal(t, 5*time.Second, cfg.HealthCheckInterval())
	assert.Zero(t, cfg.RunLimit())

	lo, hi := cfg.MovementRange()
	assert.Equal(t, 2*time.Second, lo)
	assert.Equal(t, 5*time.Second, hi)

	created, err = Init(path)
	require.NoError(t, err)
	assert.False(t, created)
}

func TestLoadOverridesAndValidates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "afk.yaml")
	raw := `
area: " Desert "
mode: AGGRESSIVE
runTime: 30
checkInterval: -1
movementInterval: [6, 3]
screenRegion:
  x: 10
  y: 10
  width: 0
  height: 100
backend:
  kind: chrome
`
	require.NoError(t, os.WriteFile(path, []byte(raw), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, RegionDesert, cfg.Area)
	assert.Equal(t, ProfileAggressive, cfg.Mode)
	assert.Equal(t, 30*time.Minute, cfg.RunLimit())
	assert.Equal(t, 5*time.Second, cfg.HealthCheckInterval())
	assert.Equal(t, [2]float64{3, 6}, cfg.MovementInterval)
	assert.Nil(t, cfg.ScreenRegion)
	assert.Equal(t, BackendDesktop, cfg.Backend.Kind)
}

func TestLoadKeepsUnknownRegion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "afk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("area: garden\nmode: sleepy\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Region("garden"), cfg.Area)
	assert.False(t, cfg.Area.Known())
	assert.Equal(t, ProfileNormal, cfg.Mode)
}

func TestDefaultRegionIsKnown(t *testing.T) {
	assert.True(t, NormalizeRegion("DEFAULT").Known())
	assert.Equal(t, RegionDefault, NormalizeRegion(" default "))
}

func TestDiscordDisabledWithoutCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "afk.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discord:\n  enabled: true\n  useWebhook: true\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.Discord.Enabled)
}

func TestEnvOverridesSecrets(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("AFK_TELEGRAM_TOKEN=from-dotenv\nAFK_TELEGRAM_CHAT_ID=42\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("AFK_TELEGRAM_TOKEN")
		os.Unsetenv("AFK_TELEGRAM_CHAT_ID")
	})

	require.NoError(t, LoadEnv(envFile, filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, "afk.yaml")
	require.NoError(t, Save(path, Default()))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-dotenv", cfg.Telegram.Token)
	assert.Equal(t, int64(42), cfg.Telegram.ChatID)
}
