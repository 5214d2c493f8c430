package config

import "time"

// Config represents the complete slashgw configuration.
type Config struct {
	Service  ServiceConfig  `yaml:"service"`
	Server   ServerConfig   `yaml:"server"`
	Platform PlatformConfig `yaml:"platform"`
	State    StateConfig    `yaml:"state"`
	Admin    AdminConfig    `yaml:"admin,omitempty"`

	// SourcePath is the file the config was loaded from, or "" when it was
	// assembled from defaults and the environment alone.
	SourcePath string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name     string `yaml:"name"`
	LogLevel string `yaml:"log_level"`
}

// ServerConfig defines the interactions listener.
type ServerConfig struct {
	Listen         string        `yaml:"listen"`
	EntryPath      string        `yaml:"entry_path"`
	MaxBodySize    string        `yaml:"max_body_size"` // e.g. "1MiB", "65536"
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// MaxBodyBytes is MaxBodySize resolved to bytes during Load.
	MaxBodyBytes int64 `yaml:"-"`
}

// PlatformConfig holds the application credentials issued by the chat platform.
type PlatformConfig struct {
	APIBaseURL    string `yaml:"api_base_url"`
	ApplicationID string `yaml:"application_id"`
	GuildID       string `yaml:"guild_id"`
	BotToken      string `yaml:"bot_token"`
	// PublicKey is the hex-encoded Ed25519 key used to verify interactions.
	PublicKey string `yaml:"public_key"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path  string `yaml:"path"`
	Audit bool   `yaml:"audit"`
}

// AdminConfig defines the bearer-protected ops routes.
type AdminConfig struct {
	Enabled bool `yaml:"enabled"`
	// Token is the full-access bearer token.
	Token  string     `yaml:"token"`
	Tokens []APIToken `yaml:"tokens,omitempty"`
}

// APIToken defines a bearer token and its scopes.
type APIToken struct {
	Token  string   `yaml:"token"`
	Scopes []string `yaml:"scopes"`
}

// Default values.
const (
	DefaultServiceName    = "slashgw"
	DefaultLogLevel       = "info"
	DefaultListen         = "127.0.0.1:8080"
	DefaultEntryPath      = "/entry"
	DefaultMaxBodySize    = "1MiB"
	DefaultRequestTimeout = 3 * time.Second
	DefaultAPIBaseURL     = "https://discord.com/api/v8"
	DefaultStatePath      = "./data/state.db"
)

// Defaults returns a Config populated with every default value. Load decodes
// the config file on top of it, so keys absent from the file keep these.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:     DefaultServiceName,
			LogLevel: DefaultLogLevel,
		},
		Server: ServerConfig{
			Listen:         DefaultListen,
			EntryPath:      DefaultEntryPath,
			MaxBodySize:    DefaultMaxBodySize,
			RequestTimeout: DefaultRequestTimeout,
		},
		Platform: PlatformConfig{
			APIBaseURL: DefaultAPIBaseURL,
		},
		State: StateConfig{
			Path:  DefaultStatePath,
			Audit: true,
		},
	}
}
