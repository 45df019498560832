// Package config resolves CLI configuration from flags, environment, an
// optional .env file and an optional config file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/alexandernovadev/languagesai/internal/llm"
)

// EnvPrefix is prepended to every environment variable, e.g. LANGAI_DB.
const EnvPrefix = "LANGAI"

// Draft storage backends.
const (
	DraftsSQLite = "sqlite"
	DraftsRedis  = "redis"
	DraftsMemory = "memory"
)

// Config is the resolved configuration for one command invocation.
type Config struct {
	DBPath    string
	UserID    string
	LogLevel  string
	LogFormat string
	Drafts    DraftsConfig
	LLM       llm.Config

	// File is the config file that was read, if any.
	File string
}

// DraftsConfig selects where attempt drafts are kept.
type DraftsConfig struct {
	Backend  string
	RedisURL string
	TTL      time.Duration
}

// RegisterFlags adds the shared configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	def := llm.DefaultConfig()

	fs.String("db", "", "SQLite database path (default: $XDG_DATA_HOME/languagesai/languagesai.db)")
	fs.String("user", "", "User id recorded on exam attempts")
	fs.String("log-level", "info", "Log level (trace, debug, info, warn, error)")
	fs.String("log-format", "pretty", "Log format (pretty, json)")

	fs.String("drafts-backend", DraftsSQLite, "Draft storage backend (sqlite, redis, memory)")
	fs.String("redis-url", "redis://localhost:6379/0", "Redis URL for the redis draft backend")
	fs.Duration("drafts-ttl", 7*24*time.Hour, "Expiry for drafts kept in redis (0 = never)")

	fs.String("llm-provider", "", "LLM provider (anthropic, openai, gemini, openrouter, mock)")
	fs.Duration("llm-timeout", def.Timeout, "Timeout for a single LLM request including retries")
	fs.Int("llm-retries", def.Retry.MaxAttempts, "Maximum LLM attempts for transient failures")
}

// NewViper binds the command's flags to a fresh viper instance layered over
// the environment and an optional languagesai.{yaml,toml,json} file.
func NewViper(cmd *cobra.Command) (*viper.Viper, error) {
	// .env is optional.
	_ = godotenv.Load()

	v := viper.New()
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, fmt.Errorf("bind flags: %w", err)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("languagesai")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/languagesai")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}
	return v, nil
}

// Load resolves the configuration for cmd.
func Load(cmd *cobra.Command) (Config, error) {
	v, err := NewViper(cmd)
	if err != nil {
		return Config{}, err
	}
	return FromViper(v)
}

// FromViper reads a Config out of v and validates the draft backend choice.
func FromViper(v *viper.Viper) (Config, error) {
	cfg := Config{
		DBPath:    v.GetString("db"),
		UserID:    strings.TrimSpace(v.GetString("user")),
		LogLevel:  v.GetString("log-level"),
		LogFormat: v.GetString("log-format"),
		Drafts: DraftsConfig{
			Backend:  strings.ToLower(v.GetString("drafts-backend")),
			RedisURL: v.GetString("redis-url"),
			TTL:      v.GetDuration("drafts-ttl"),
		},
		LLM:  llmConfig(v),
		File: v.ConfigFileUsed(),
	}

	if cfg.Drafts.Backend == "" {
		cfg.Drafts.Backend = DraftsSQLite
	}
	switch cfg.Drafts.Backend {
	case DraftsSQLite, DraftsRedis, DraftsMemory:
	default:
		return Config{}, fmt.Errorf("unknown drafts backend: %q", cfg.Drafts.Backend)
	}

	return cfg, nil
}

// llmConfig layers viper values over the provider defaults. When no provider
// is configured, the conventional *_API_KEY variables are probed.
func llmConfig(v *viper.Viper) llm.Config {
	cfg := llm.DefaultConfig()
	if found, ok := llm.DiscoverConfig(); ok {
		cfg = found
	}

	if p := v.GetString("llm-provider"); p != "" {
		cfg.Provider = p
	}
	if d := v.GetDuration("llm-timeout"); d > 0 {
		cfg.Timeout = d
	}
	if n := v.GetInt("llm-retries"); n > 0 {
		cfg.Retry.MaxAttempts = n
	}

	setString(v, "anthropic-api-key", &cfg.Anthropic.APIKey)
	setString(v, "anthropic-model", &cfg.Anthropic.Model)
	setString(v, "openai-api-key", &cfg.OpenAI.APIKey)
	setString(v, "openai-model", &cfg.OpenAI.Model)
	setString(v, "openai-base-url", &cfg.OpenAI.BaseURL)
	setString(v, "gemini-api-key", &cfg.Gemini.APIKey)
	setString(v, "gemini-model", &cfg.Gemini.Model)
	setString(v, "openrouter-api-key", &cfg.OpenRouter.APIKey)
	setString(v, "openrouter-model", &cfg.OpenRouter.Model)
	setString(v, "openrouter-base-url", &cfg.OpenRouter.BaseURL)

	return cfg
}

func setString(v *viper.Viper, key string, dst *string) {
	if s := v.GetString(key); s != "" {
		*dst = s
	}
}
