package config

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

var validLogLevels = map[string]bool{"debug": true, "info": true, "warn": true, "error": true}

// Load builds the configuration. configPath may name a file or a directory
// holding config.yaml; when empty, the standard locations are searched and a
// missing file is tolerated so that a deployment can be configured purely
// through the environment.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()

	path, err := locate(configPath)
	if err != nil {
		return nil, err
	}

	if path != "" {
		if err := verifyChecksum(path); err != nil {
			return nil, err
		}
		if err := decodeFile(path, cfg); err != nil {
			return nil, err
		}
		cfg.SourcePath = path
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func locate(configPath string) (string, error) {
	if configPath != "" {
		path, err := resolveConfigPath(configPath)
		if err != nil {
			return "", fmt.Errorf("config file not found: %s\n"+
				"Hint: Check the path or run with --config flag", configPath)
		}
		return path, nil
	}

	path, err := DiscoverConfigPath()
	if errors.Is(err, ErrNoConfig) {
		return "", nil
	}
	return path, err
}

func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}

	dec := yaml.NewDecoder(bytes.NewReader([]byte(interpolateEnv(string(data)))))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Unset variables are left in place and reported by validate.
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs validation on the fully resolved configuration.
func validate(cfg *Config) error {
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	if cfg.Server.Listen == "" {
		return fmt.Errorf("server.listen is required")
	}
	if !strings.HasPrefix(cfg.Server.EntryPath, "/") {
		return fmt.Errorf("server.entry_path must start with / (got %q)", cfg.Server.EntryPath)
	}
	if cfg.Server.RequestTimeout <= 0 {
		return fmt.Errorf("server.request_timeout must be positive")
	}
	size, err := ParseByteSize(cfg.Server.MaxBodySize)
	if err != nil {
		return fmt.Errorf("server.max_body_size: %w", err)
	}
	cfg.Server.MaxBodyBytes = size

	secrets := []struct {
		key   string
		value string
		env   string
	}{
		{"platform.public_key", cfg.Platform.PublicKey, "PUBLIC_KEY"},
		{"platform.application_id", cfg.Platform.ApplicationID, "CLIENT_ID"},
		{"platform.bot_token", cfg.Platform.BotToken, "TOKEN"},
		{"platform.guild_id", cfg.Platform.GuildID, "GUILD_ID"},
	}
	var missing []string
	for _, s := range secrets {
		if m := envVarPattern.FindStringSubmatch(s.value); m != nil {
			return fmt.Errorf("%s references unset environment variable %s", s.key, m[1])
		}
		if s.value == "" {
			missing = append(missing, fmt.Sprintf("%s (or $%s)", s.key, s.env))
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required settings: %s", strings.Join(missing, ", "))
	}

	if cfg.Platform.APIBaseURL == "" {
		return fmt.Errorf("platform.api_base_url is required")
	}
	if err := validatePublicKey(cfg.Platform.PublicKey); err != nil {
		return fmt.Errorf("platform.public_key: %w", err)
	}

	if cfg.State.Audit && cfg.State.Path == "" {
		return fmt.Errorf("state.path is required when state.audit is enabled")
	}

	if cfg.Admin.Enabled {
		if m := envVarPattern.FindStringSubmatch(cfg.Admin.Token); m != nil {
			return fmt.Errorf("admin.token references unset environment variable %s", m[1])
		}
		if cfg.Admin.Token == "" && len(cfg.Admin.Tokens) == 0 {
			return fmt.Errorf("admin.enabled requires admin.token or admin.tokens")
		}
		for i, t := range cfg.Admin.Tokens {
			if t.Token == "" {
				return fmt.Errorf("admin.tokens[%d]: token is required", i)
			}
			if len(t.Scopes) == 0 {
				return fmt.Errorf("admin.tokens[%d]: at least one scope is required", i)
			}
		}
	}
	return nil
}

func validatePublicKey(key string) error {
	if len(key) != 64 {
		return fmt.Errorf("must be 64 hex characters (got %d)", len(key))
	}
	if _, err := hex.DecodeString(key); err != nil {
		return fmt.Errorf("not valid hex: %w", err)
	}
	return nil
}

// ParseByteSize parses sizes like "1MiB", "64KB" or "65536" into bytes.
func ParseByteSize(size string) (int64, error) {
	if strings.TrimSpace(size) == "" {
		return 0, fmt.Errorf("size is required")
	}
	n, err := humanize.ParseBytes(size)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", size, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("size must be positive")
	}
	if n > 1<<40 {
		return 0, fmt.Errorf("size %q too large", size)
	}
	return int64(n), nil
}
