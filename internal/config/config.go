package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Github  GithubConfig  `mapstructure:"github"`
	Kairos  KairosConfig  `mapstructure:"kairos"`
	Dedupe  DedupeConfig  `mapstructure:"dedupe"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type GithubConfig struct {
	// WebhookSecret is the shared HMAC secret GitHub signs deliveries with.
	// Verification can never succeed while this is empty.
	WebhookSecret string `mapstructure:"webhook_secret"`
	// AllowedRepos is a comma-separated owner/repo allow-list.
	// Empty means all repos are accepted.
	AllowedRepos string `mapstructure:"allowed_repos"`
}

type KairosConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	IngestEventURL string        `mapstructure:"ingest_event_url"`
	RecomputeURL   string        `mapstructure:"recompute_url"`
	Secret         string        `mapstructure:"secret"`
	// Timeout of 0 means no deadline on upstream calls, matching the
	// historical behavior of this gateway.
	Timeout time.Duration `mapstructure:"timeout"`
}

type DedupeConfig struct {
	Mode     string        `mapstructure:"mode"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// AllowedRepoList splits the configured allow-list into trimmed, non-empty
// owner/repo entries.
func (g GithubConfig) AllowedRepoList() []string {
	var out []string
	for _, part := range strings.Split(g.AllowedRepos, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("github.webhook_secret", "")
	v.SetDefault("github.allowed_repos", "")
	v.SetDefault("kairos.base_url", "")
	v.SetDefault("kairos.ingest_event_url", "")
	v.SetDefault("kairos.recompute_url", "")
	v.SetDefault("kairos.secret", "")
	v.SetDefault("kairos.timeout", "0s")
	v.SetDefault("dedupe.mode", "")
	v.SetDefault("dedupe.redis_url", "")
	v.SetDefault("dedupe.ttl", "24h")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/kairos/gateway")
	}

	// The deployment's environment variables predate this service's config
	// file, so they keep their historical names rather than a viper prefix.
	v.AutomaticEnv()
	_ = v.BindEnv("server.port", "PORT")
	_ = v.BindEnv("github.webhook_secret", "GITHUB_WEBHOOK_SECRET")
	_ = v.BindEnv("github.allowed_repos", "ALLOWED_REPOS")
	_ = v.BindEnv("kairos.base_url", "KAIROS_BASE_URL")
	_ = v.BindEnv("kairos.ingest_event_url", "KAIROS_INGEST_EVENT_URL")
	_ = v.BindEnv("kairos.recompute_url", "KAIROS_RECOMPUTE_URL")
	_ = v.BindEnv("kairos.secret", "KAIROS_INGEST_SECRET", "KAIROS_INGEST_KEY")
	_ = v.BindEnv("dedupe.mode", "DEDUPE_MODE")
	_ = v.BindEnv("dedupe.redis_url", "REDIS_URL")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")
	_ = v.BindEnv("logging.format", "LOG_FORMAT")

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
