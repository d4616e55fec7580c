package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port      int             `mapstructure:"port"`
	BaseURL   string          `mapstructure:"base_url"`
	Server    ServerConfig    `mapstructure:"server"`
	Slack     SlackConfig     `mapstructure:"slack"`
	GitHub    GitHubConfig    `mapstructure:"github"`
	Directory DirectoryConfig `mapstructure:"directory"`
	Delivery  DeliveryConfig  `mapstructure:"delivery"`
	Log       LogConfig       `mapstructure:"log"`
}

// Validate ensures required fields are present.
func (c Config) Validate() error {
	var missing []string
	if c.Slack.ClientID == "" {
		missing = append(missing, "SLACK_CLIENT_ID")
	}
	if c.Slack.ClientSecret == "" {
		missing = append(missing, "SLACK_CLIENT_SECRET")
	}
	if c.Port == 0 {
		missing = append(missing, "PORT")
	}
	if len(missing) > 0 {
		return fmt.Errorf("specify %s in environment", strings.Join(missing, ", "))
	}
	if c.Delivery.Rate < 0 {
		return errors.New("delivery.rate must not be negative")
	}
	return nil
}

// ServerAddr returns the listen address for the HTTP server.
func (c Config) ServerAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// PublicURL joins path onto the externally reachable base URL.
func (c Config) PublicURL(path string) string {
	base := strings.TrimRight(c.BaseURL, "/")
	if base == "" {
		base = fmt.Sprintf("http://localhost:%d", c.Port)
	}
	return base + path
}

// ServerConfig contains HTTP server options.
type ServerConfig struct {
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// SlackConfig contains Slack app credentials.
type SlackConfig struct {
	ClientID      string   `mapstructure:"client_id"`
	ClientSecret  string   `mapstructure:"client_secret"`
	SigningSecret string   `mapstructure:"signing_secret"`
	Scopes        []string `mapstructure:"scopes"`
}

// GitHubConfig contains GitHub OAuth app and webhook settings.
type GitHubConfig struct {
	ClientID      string   `mapstructure:"client_id"`
	ClientSecret  string   `mapstructure:"client_secret"`
	WebhookSecret string   `mapstructure:"webhook_secret"`
	EnterpriseURL string   `mapstructure:"enterprise_url"`
	NotifyActions []string `mapstructure:"notify_actions"`
}

// DirectoryConfig selects the user directory backend.
// URLs starting with redis:// or rediss:// use Redis, anything else is a sqlite path.
type DirectoryConfig struct {
	URL    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

// IsRedis reports whether the directory lives in Redis.
func (d DirectoryConfig) IsRedis() bool {
	return strings.HasPrefix(d.URL, "redis://") || strings.HasPrefix(d.URL, "rediss://")
}

// DeliveryConfig tunes the mention pipeline.
type DeliveryConfig struct {
	// Dedupe sends one message per distinct recipient instead of one per mention.
	Dedupe            bool    `mapstructure:"dedupe"`
	Rate              float64 `mapstructure:"rate"`
	Burst             int     `mapstructure:"burst"`
	LookupConcurrency int     `mapstructure:"lookup_concurrency"`
}

// LogConfig contains logger preferences.
type LogConfig struct {
	Level string `mapstructure:"level"`
}
