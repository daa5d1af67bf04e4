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
	for _, key := range []string{
		"GEMINI_API_KEY", "GROQ_API_KEY", "OPENAI_API_KEY", "OLLAMA_HOST",
		"FLEETMIND_DB", "FLEETMIND_ADDR", "FLEETMIND_WHATSAPP_ADDR",
		"AUTO_LOOP", "MAX_AUTO_ITERS", "STRUCTURED_OUTPUT", "FLEETMIND_DEBUG",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "fleetmind", cfg.Name)
	assert.Equal(t, "data/fleetmind.db", cfg.Store.DatabasePath)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, ":8081", cfg.WhatsApp.Addr)
	assert.Equal(t, 2, cfg.WhatsApp.MaxIterations)
	assert.Equal(t, 3, cfg.Pipeline.MaxIterations)
	assert.False(t, cfg.Pipeline.AutoLoop)
	require.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "fleetmind.yaml")
	data := `
llm:
  provider: groq
  api_key: test-key
  timeout: 30s
store:
  database_path: /tmp/test.db
server:
  addr: ":9090"
pipeline:
  auto_loop: true
  max_iterations: 5
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "groq", cfg.LLM.Provider)
	assert.Equal(t, "test-key", cfg.LLM.APIKey)
	assert.Equal(t, "/tmp/test.db", cfg.Store.DatabasePath)
	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.True(t, cfg.Pipeline.AutoLoop)
	assert.Equal(t, 5, cfg.Pipeline.MaxIterations)
	assert.Equal(t, 30*time.Second, cfg.GetLLMTimeout())

	// Unset sections keep their defaults.
	assert.Equal(t, ":8081", cfg.WhatsApp.Addr)
}

func TestLoadMalformedYAML(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: [not a map"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROQ_API_KEY", "gk-123")
	t.Setenv("FLEETMIND_DB", "/data/other.db")
	t.Setenv("AUTO_LOOP", "1")
	t.Setenv("MAX_AUTO_ITERS", "4")
	t.Setenv("STRUCTURED_OUTPUT", "json")
	t.Setenv("OLLAMA_HOST", "http://ollama:11434")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "gk-123", cfg.LLM.GroqAPIKey)
	assert.Equal(t, "/data/other.db", cfg.Store.DatabasePath)
	assert.True(t, cfg.Pipeline.AutoLoop)
	assert.Equal(t, 4, cfg.Pipeline.MaxIterations)
	assert.True(t, cfg.Pipeline.StructuredOutput)
	assert.Equal(t, "http://ollama:11434", cfg.LLM.OllamaHost)
	assert.True(t, cfg.LLM.OllamaEnabled)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)

	cfg := DefaultConfig()
	cfg.LLM.Provider = "ollama"
	cfg.Server.Addr = ":7070"

	path := filepath.Join(t.TempDir(), "nested", "fleetmind.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ollama", loaded.LLM.Provider)
	assert.Equal(t, ":7070", loaded.Server.Addr)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.Store.DatabasePath = ""
	assert.ErrorContains(t, cfg.Validate(), "database_path")

	cfg = DefaultConfig()
	cfg.Pipeline.MaxIterations = 0
	assert.ErrorContains(t, cfg.Validate(), "max_iterations")
}

func TestGetLLMTimeoutFallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.LLM.Timeout = "bogus"
	assert.Equal(t, 60*time.Second, cfg.GetLLMTimeout())
}
