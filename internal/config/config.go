package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Gemini     GeminiConfig     `mapstructure:"gemini"`
	Embedding  EmbeddingConfig  `mapstructure:"embedding"`
	Index      IndexConfig      `mapstructure:"index"`
	Credential CredentialConfig `mapstructure:"credential"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Addr        string `mapstructure:"addr"`
	WatchIndex  bool   `mapstructure:"watch_index"`
	ShutdownSec int    `mapstructure:"shutdown_timeout_sec"`
}

type GeminiConfig struct {
	ChatModel   string  `mapstructure:"chat_model"`
	Temperature float32 `mapstructure:"temperature"`
	RPMLimit    int     `mapstructure:"rpm_limit"`
}

// EmbeddingConfig must describe the same embedding function the index was
// built with. The manifest written next to the index is checked against it.
type EmbeddingConfig struct {
	Provider string `mapstructure:"provider"` // gemini, ollama, openai
	Model    string `mapstructure:"model"`
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"` // openai only
}

type IndexConfig struct {
	Dir        string `mapstructure:"dir"`
	Collection string `mapstructure:"collection"`
}

type CredentialConfig struct {
	Managed     bool   `mapstructure:"managed"`
	SecretsFile string `mapstructure:"secrets_file"`
	SecretKey   string `mapstructure:"secret_key"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

// Load reads the config file at path. A missing file is not an error: the
// defaults plus LYRICBOT_* environment overrides are used instead.
func Load(path string) (*Config, error) {
	v := New()
	if err := ReadFile(v, path); err != nil {
		return nil, err
	}
	return FromViper(v)
}

// ReadFile merges the config file at path into v, tolerating a missing file.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isNotExist(err) {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}

// New returns a viper instance with defaults and env bindings applied.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("LYRICBOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// FromViper unmarshals and validates.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8501")
	v.SetDefault("server.watch_index", true)
	v.SetDefault("server.shutdown_timeout_sec", 5)

	v.SetDefault("gemini.chat_model", "gemini-pro-latest")
	v.SetDefault("gemini.temperature", 0)
	v.SetDefault("gemini.rpm_limit", 0)

	v.SetDefault("embedding.provider", "ollama")
	v.SetDefault("embedding.model", "all-minilm")
	v.SetDefault("embedding.base_url", "")
	v.SetDefault("embedding.api_key", "")

	v.SetDefault("index.dir", "chroma_db")
	v.SetDefault("index.collection", "lyrics")

	v.SetDefault("credential.managed", false)
	v.SetDefault("credential.secrets_file", "secrets.toml")
	v.SetDefault("credential.secret_key", "GOOGLE_API_KEY")

	v.SetDefault("log.level", "info")
}

func (c *Config) Validate() error {
	switch c.Embedding.Provider {
	case "gemini", "ollama", "openai":
	default:
		return fmt.Errorf("embedding.provider must be one of gemini, ollama, openai, got %q", c.Embedding.Provider)
	}
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Index.Dir == "" {
		return fmt.Errorf("index.dir is required")
	}
	if c.Index.Collection == "" {
		return fmt.Errorf("index.collection is required")
	}
	if c.Gemini.ChatModel == "" {
		return fmt.Errorf("gemini.chat_model is required")
	}
	if c.Gemini.RPMLimit < 0 {
		return fmt.Errorf("gemini.rpm_limit must be >= 0, got %d", c.Gemini.RPMLimit)
	}
	if c.Credential.SecretKey == "" {
		return fmt.Errorf("credential.secret_key is required")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level)
	}
	return nil
}
