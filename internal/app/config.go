package app

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CM_CONFIG"

var defaultConfigPaths = []string{"config.yaml", "config.yml"}

type ServerConfig struct {
	Port string `koanf:"port"`
}

type DatabaseConfig struct {
	URL string `koanf:"url"`
}

type AuthConfig struct {
	JWTSecret    string `koanf:"jwt_secret"`
	TokenTTLMins int    `koanf:"token_ttl_minutes"`
}

// SlotConfig describes the fixed daily slot catalog offered for booking.
type SlotConfig struct {
	OpenHour      int `koanf:"open_hour"`
	CloseHour     int `koanf:"close_hour"`
	IncrementMins int `koanf:"increment_minutes"`
}

type GoogleConfig struct {
	ClientID     string `koanf:"client_id"`
	ClientSecret string `koanf:"client_secret"`
	RedirectURL  string `koanf:"redirect_url"`
}

type SyncConfig struct {
	Cron        string `koanf:"cron"`
	HorizonDays int    `koanf:"horizon_days"`
}

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Slots    SlotConfig     `koanf:"slots"`
	Google   GoogleConfig   `koanf:"google"`
	Sync     SyncConfig     `koanf:"sync"`
}

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: "8080"},
		Auth:   AuthConfig{TokenTTLMins: 12 * 60},
		Slots: SlotConfig{
			OpenHour:      9,
			CloseHour:     18,
			IncrementMins: 30,
		},
		Sync: SyncConfig{
			Cron:        "*/15 * * * *",
			HorizonDays: 60,
		},
	}
}

// LoadConfig merges defaults, an optional YAML file and CM_-prefixed
// environment variables, in that order of increasing priority
// (e.g. CM_DATABASE_URL, CM_AUTH_JWT_SECRET).
func LoadConfig() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	paths := defaultConfigPaths
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		paths = []string{p}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := k.Load(file.Provider(p), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", p, err)
		}
		break
	}

	if err := k.Load(env.Provider("CM_", ".", func(s string) string {
		s = strings.TrimPrefix(s, "CM_")
		s = strings.ToLower(s)
		// CM_AUTH_JWT_SECRET -> auth.jwt_secret: only the first underscore
		// separates the section from the key.
		return strings.Replace(s, "_", ".", 1)
	}), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("database.url (CM_DATABASE_URL) is required")
	}
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret (CM_AUTH_JWT_SECRET) is required")
	}
	if c.Slots.OpenHour < 0 || c.Slots.CloseHour > 24 || c.Slots.OpenHour >= c.Slots.CloseHour {
		return fmt.Errorf("slots: open_hour must be before close_hour within 0..24")
	}
	if c.Slots.IncrementMins <= 0 || 60%c.Slots.IncrementMins != 0 {
		return fmt.Errorf("slots: increment_minutes must divide 60")
	}
	return nil
}
