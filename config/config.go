// Package config loads application configuration.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envFile = ".env"

// NewConfig loads configuration from the environment using viper.
// Values from .env fill in variables the process environment does not set.
func NewConfig() (*Config, error) {
	v := viper.New()
	if envMap, err := godotenv.Read(envFile); err == nil {
		for k, val := range envMap {
			if _, exists := os.LookupEnv(k); !exists {
				_ = os.Setenv(k, val)
			}
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindEnvs(v)

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
	v.SetDefault("port", 0)
	v.SetDefault("base_url", "")

	v.SetDefault("server.shutdown_timeout", 5*time.Second)

	v.SetDefault("slack.client_id", "")
	v.SetDefault("slack.client_secret", "")
	v.SetDefault("slack.signing_secret", "")
	v.SetDefault("slack.scopes", []string{"users:read", "im:write", "im:history", "chat:write", "commands"})

	v.SetDefault("github.client_id", "")
	v.SetDefault("github.client_secret", "")
	v.SetDefault("github.webhook_secret", "")
	v.SetDefault("github.enterprise_url", "")
	v.SetDefault("github.notify_actions", []string{})

	v.SetDefault("directory.url", "relay.db")
	v.SetDefault("directory.prefix", "relay")

	v.SetDefault("delivery.dedupe", false)
	v.SetDefault("delivery.rate", 0)
	v.SetDefault("delivery.burst", 1)
	v.SetDefault("delivery.lookup_concurrency", 8)

	v.SetDefault("log.level", "info")
}

func bindEnvs(v *viper.Viper) {
	keys := []string{
		"port",
		"base_url",
		"server.shutdown_timeout",
		"slack.client_id",
		"slack.client_secret",
		"slack.signing_secret",
		"slack.scopes",
		"github.client_id",
		"github.client_secret",
		"github.webhook_secret",
		"github.enterprise_url",
		"github.notify_actions",
		"directory.url",
		"directory.prefix",
		"delivery.dedupe",
		"delivery.rate",
		"delivery.burst",
		"delivery.lookup_concurrency",
		"log.level",
	}

	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}
