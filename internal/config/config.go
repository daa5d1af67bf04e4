// Package config loads fleetmind configuration from YAML with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all fleetmind configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// LLM planner adapter
	LLM LLMConfig `yaml:"llm"`

	// SQLite store
	Store StoreConfig `yaml:"store"`

	// Web chat server
	Server ServerConfig `yaml:"server"`

	// WhatsApp webhook server
	WhatsApp WhatsAppConfig `yaml:"whatsapp"`

	// Turn pipeline behavior
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// LLMConfig configures the planner's language-model adapter.
type LLMConfig struct {
	Provider      string `yaml:"provider"` // gemini, groq, openai, ollama
	APIKey        string `yaml:"api_key"`
	Model         string `yaml:"model"`
	BaseURL       string `yaml:"base_url"`
	Timeout       string `yaml:"timeout"`
	GeminiAPIKey  string `yaml:"gemini_api_key"`
	GroqAPIKey    string `yaml:"groq_api_key"`
	OpenAIAPIKey  string `yaml:"openai_api_key"`
	OllamaHost    string `yaml:"ollama_host"`
	OllamaEnabled bool   `yaml:"ollama_enabled"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// ServerConfig configures the web chat server.
type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// WhatsAppConfig configures the webhook server.
type WhatsAppConfig struct {
	Addr          string `yaml:"addr"`
	MaxIterations int    `yaml:"max_iterations"`
}

// PipelineConfig configures turn processing.
type PipelineConfig struct {
	AutoLoop         bool `yaml:"auto_loop"`
	MaxIterations    int  `yaml:"max_iterations"`
	StructuredOutput bool `yaml:"structured_output"` // render results as JSON
}

// LoggingConfig configures the category file logger.
type LoggingConfig struct {
	DebugMode  bool            `yaml:"debug_mode"`
	Dir        string          `yaml:"dir"`
	Level      string          `yaml:"level"`
	Categories map[string]bool `yaml:"categories"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	return &Config{
		Name:    "fleetmind",
		Version: "0.1.0",

		LLM: LLMConfig{
			Provider:   "",
			Model:      "",
			Timeout:    "60s",
			OllamaHost: "http://localhost:11434",
		},

		Store: StoreConfig{
			DatabasePath: "data/fleetmind.db",
		},

		Server: ServerConfig{
			Addr: ":8080",
		},

		WhatsApp: WhatsAppConfig{
			Addr:          ":8081",
			MaxIterations: 2,
		},

		Pipeline: PipelineConfig{
			AutoLoop:      false,
			MaxIterations: 3,
		},

		Logging: LoggingConfig{
			Level: "info",
			Dir:   "data/logs",
		},
	}
}

// Load loads configuration from a YAML file, falling back to defaults
// when the file does not exist. Environment overrides always apply.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Provider API keys (the factory picks the first configured one in
	// priority order; an explicit provider in config wins).
	if key := os.Getenv("GEMINI_API_KEY"); key != "" {
		c.LLM.GeminiAPIKey = key
	}
	if key := os.Getenv("GROQ_API_KEY"); key != "" {
		c.LLM.GroqAPIKey = key
	}
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		c.LLM.OpenAIAPIKey = key
	}
	if host := os.Getenv("OLLAMA_HOST"); host != "" {
		c.LLM.OllamaHost = host
		c.LLM.OllamaEnabled = true
	}

	if path := os.Getenv("FLEETMIND_DB"); path != "" {
		c.Store.DatabasePath = path
	}
	if addr := os.Getenv("FLEETMIND_ADDR"); addr != "" {
		c.Server.Addr = addr
	}
	if addr := os.Getenv("FLEETMIND_WHATSAPP_ADDR"); addr != "" {
		c.WhatsApp.Addr = addr
	}

	if os.Getenv("AUTO_LOOP") == "1" {
		c.Pipeline.AutoLoop = true
	}
	if v := os.Getenv("MAX_AUTO_ITERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pipeline.MaxIterations = n
		}
	}
	if os.Getenv("STRUCTURED_OUTPUT") == "json" {
		c.Pipeline.StructuredOutput = true
	}
	if os.Getenv("FLEETMIND_DEBUG") == "1" {
		c.Logging.DebugMode = true
	}
}

// GetLLMTimeout returns the LLM timeout as a duration.
func (c *Config) GetLLMTimeout() time.Duration {
	d, err := time.ParseDuration(c.LLM.Timeout)
	if err != nil {
		return 60 * time.Second
	}
	return d
}

// Validate checks configuration consistency.
func (c *Config) Validate() error {
	if c.Store.DatabasePath == "" {
		return fmt.Errorf("store.database_path is required")
	}
	if c.Pipeline.MaxIterations < 1 {
		return fmt.Errorf("pipeline.max_iterations must be >= 1")
	}
	if c.WhatsApp.MaxIterations < 1 {
		return fmt.Errorf("whatsapp.max_iterations must be >= 1")
	}
	return nil
}
