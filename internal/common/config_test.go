package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFilesDefaults(t *testing.T) {
	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "custos", config.Bot.Name)
	assert.Equal(t, 10, config.Bot.MaxList)
	assert.Equal(t, 10, config.Bot.DedupWindowSeconds)
	assert.False(t, config.Tracker.UseLegacySchema)
}

func TestLoadFromFilesOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custos.toml")
	content := `
[server]
port = 9090

[tracker]
base_url = "https://issues.example.com"
username = "bot"
password = "secret"
use_legacy_schema = true

[bot]
max_list = 5
ignored_users = ["jenkins", "buildbot"]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	config, err := LoadFromFiles(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, config.Server.Port)
	assert.Equal(t, "https://issues.example.com", config.Tracker.BaseURL)
	assert.True(t, config.Tracker.UseLegacySchema)
	assert.Equal(t, 5, config.Bot.MaxList)
	assert.Equal(t, []string{"jenkins", "buildbot"}, config.Bot.IgnoredUsers)

	// Untouched sections keep their defaults
	assert.Equal(t, "custos", config.Bot.Name)
	assert.Equal(t, "./data", config.Storage.Badger.Path)
}

func TestLoadFromFilesLaterFileWins(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "first.toml")
	second := filepath.Join(dir, "second.toml")
	require.NoError(t, os.WriteFile(first, []byte("[server]\nport = 7000\n"), 0o644))
	require.NoError(t, os.WriteFile(second, []byte("[server]\nport = 7001\n"), 0o644))

	config, err := LoadFromFiles(first, second)
	require.NoError(t, err)
	assert.Equal(t, 7001, config.Server.Port)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("CUSTOS_TRACKER_URL", "http://tracker.internal:8080")
	t.Setenv("CUSTOS_TRACKER_LEGACY_SCHEMA", "true")
	t.Setenv("CUSTOS_BOT_IGNORED_USERS", "jenkins, nightly-build")
	t.Setenv("CUSTOS_SERVER_PORT", "3000")

	config, err := LoadFromFiles()
	require.NoError(t, err)

	assert.Equal(t, "http://tracker.internal:8080", config.Tracker.BaseURL)
	assert.True(t, config.Tracker.UseLegacySchema)
	assert.Equal(t, []string{"jenkins", "nightly-build"}, config.Bot.IgnoredUsers)
	assert.Equal(t, 3000, config.Server.Port)
}

func TestValidateRejectsBadValues(t *testing.T) {
	config := NewDefaultConfig()
	config.Tracker.BaseURL = "not a url"
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Server.Port = 0
	assert.Error(t, config.Validate())

	config = NewDefaultConfig()
	config.Bot.MaxList = 0
	assert.Error(t, config.Validate())
}

func TestParsedTimeout(t *testing.T) {
	tracker := TrackerConfig{}
	assert.Equal(t, 30*time.Second, tracker.ParsedTimeout())

	tracker.RequestTimeout = "5s"
	assert.Equal(t, 5*time.Second, tracker.ParsedTimeout())

	tracker.RequestTimeout = "bogus"
	assert.Equal(t, 30*time.Second, tracker.ParsedTimeout())
}
