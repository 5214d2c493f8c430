package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvOverrides are the environment variables that take precedence over the
// config file. The four credential names match what operators of existing
// bots already export.
type EnvOverrides struct {
	PublicKey  string `env:"PUBLIC_KEY"`
	ClientID   string `env:"CLIENT_ID"`
	Token      string `env:"TOKEN"`
	GuildID    string `env:"GUILD_ID"`
	Listen     string `env:"SLASHGW_LISTEN"`
	LogLevel   string `env:"SLASHGW_LOG_LEVEL"`
	APIBaseURL string `env:"SLASHGW_API_BASE_URL"`
	StatePath  string `env:"SLASHGW_STATE_PATH"`
	AdminToken string `env:"SLASHGW_ADMIN_TOKEN"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// applyEnv overwrites cfg with every override that is set.
func applyEnv(cfg *Config) error {
	var o EnvOverrides
	if err := ParseEnv(&o); err != nil {
		return err
	}

	set := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	set(&cfg.Platform.PublicKey, o.PublicKey)
	set(&cfg.Platform.ApplicationID, o.ClientID)
	set(&cfg.Platform.BotToken, o.Token)
	set(&cfg.Platform.GuildID, o.GuildID)
	set(&cfg.Server.Listen, o.Listen)
	set(&cfg.Service.LogLevel, o.LogLevel)
	set(&cfg.Platform.APIBaseURL, o.APIBaseURL)
	set(&cfg.State.Path, o.StatePath)
	set(&cfg.Admin.Token, o.AdminToken)
	return nil
}
