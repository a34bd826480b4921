// Package config provides configuration loading and structs for the counsellor server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug     bool            `yaml:"debug"`
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Upstream  UpstreamConfig  `yaml:"upstream"`
	Provider  ProviderConfig  `yaml:"provider"`
	Session   SessionConfig   `yaml:"session"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the path for the conversation database.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// UpstreamConfig holds settings for the external student record provider.
type UpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIToken       string `yaml:"api_token"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ProviderConfig selects and configures the embedding/LLM provider.
// Name is one of "gemini", "openai", or "mock".
type ProviderConfig struct {
	Name           string `yaml:"name"`
	APIKey         string `yaml:"api_key"`
	ChatModel      string `yaml:"chat_model"`
	EmbedModel     string `yaml:"embed_model"`
	Dimensions     int    `yaml:"dimensions"`
	EmbedCacheSize int    `yaml:"embed_cache_size"`
}

// SessionConfig holds session lifecycle settings.
type SessionConfig struct {
	DurationSeconds int `yaml:"duration_seconds"`
}

// RetrievalConfig holds retrieval and index cache settings.
type RetrievalConfig struct {
	TopK           int `yaml:"top_k"`
	IndexCacheSize int `yaml:"index_cache_size"`
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	configDir := filepath.Dir(path)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	// Credentials may come from the environment rather than the file.
	if cfg.Provider.APIKey == "" {
		switch cfg.Provider.Name {
		case "openai":
			cfg.Provider.APIKey = os.Getenv("OPENAI_API_KEY")
		default:
			cfg.Provider.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
	}
	if cfg.Upstream.APIToken == "" {
		cfg.Upstream.APIToken = os.Getenv("API_TOKEN")
	}

	return &cfg, nil
}

// expandPath converts a path to absolute. Paths starting with "./" are relative to configDir;
// other relative paths are relative to the home directory.
func expandPath(path string, configDir string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}
