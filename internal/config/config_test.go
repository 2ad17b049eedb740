package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"HTTP_PORT", "STORAGE_DIR", "UPLOADS_DIR", "RUN_POLL_INTERVAL_MS", "RUN_TIMEOUT_MS", "ANALYZER_MODEL", "JANITOR_SCHEDULE", "OPENAI_API_KEY", "LOG_LEVEL", "GOGO_MODE", "ASSISTANT_ID"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.HTTPPort)
	assert.Equal(t, "db_storage", cfg.StorageDir)
	assert.Equal(t, "csv_uploads", cfg.UploadsDir)
	assert.Equal(t, time.Second, cfg.RunPollInterval)
	assert.Equal(t, 2*time.Minute, cfg.RunTimeout)
	assert.Equal(t, "gpt-4.1-nano-2025-04-14", cfg.AnalyzerModel)
	assert.Equal(t, "@every 10m", cfg.JanitorSchedule)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)
	t.Setenv("HTTP_PORT", "9100")
	t.Setenv("RUN_TIMEOUT_MS", "500")
	t.Setenv("ASSISTANT_ID", "asst_123")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.HTTPPort)
	assert.Equal(t, 500*time.Millisecond, cfg.RunTimeout)
	assert.Equal(t, "asst_123", cfg.AssistantID)
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	clearEnv(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("OPENAI_API_KEY=sk-test\nLOG_LEVEL=debug\n"), 0o600))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", cfg.OpenAIAPIKey)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadMockModeDefaultsAssistant(t *testing.T) {
	t.Chdir(t.TempDir())
	clearEnv(t)
	t.Setenv("GOGO_MODE", "MOCK")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, MockAssistantID, cfg.AssistantID)
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{
		StorageDir: filepath.Join(root, "db"),
		UploadsDir: filepath.Join(root, "up"),
	}
	require.NoError(t, cfg.EnsureDirs())

	for _, dir := range []string{cfg.StorageDir, cfg.UploadsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
