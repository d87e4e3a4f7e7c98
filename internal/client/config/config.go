package config

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/client/lookup"
	"github.com/go-playground/validator/v10"
)

// Config holds runtime settings for the canvasser field client.
//
// Intervals and timeouts are time.Duration values; LookupRate is requests
// per second shared by Nominatim and Overpass.
type Config struct {
	ServerEndpointAddr  string        `validate:"required,hostname_port"`
	OnlineCheckInterval time.Duration `validate:"min=1s"`
	CallTimeout         time.Duration `validate:"min=1s"`

	DatabasePath string `validate:"required"`

	NominatimURL   string        `validate:"required,url"`
	OverpassURL    string        `validate:"required,url"`
	LookupRate     float64       `validate:"gt=0"`
	RedisAddr      string        `validate:"omitempty,hostname_port"`
	LookupCacheTTL time.Duration `validate:"min=0"`

	// OfflineSearch lets searches fall back to the local cache when the
	// remote store cannot be read.
	OfflineSearch bool

	// AccessToken, when set, logs in without prompting.
	AccessToken string

	LogLevel  string `validate:"oneof=debug info warn error"`
	LogFormat string `validate:"oneof=text json"`
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 10 * time.Second
	c.CallTimeout = 12 * time.Second
	c.DatabasePath = "canvasser.db"
	c.NominatimURL = lookup.DefaultNominatimURL
	c.OverpassURL = lookup.DefaultOverpassURL
	c.LookupRate = 1
	c.LookupCacheTTL = 7 * 24 * time.Hour
	c.LogLevel = "info"
	c.LogFormat = "text"
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// LoadConfig builds a Config from defaults, then an optional JSON file, then
// the environment (including a .env file), then command-line flags. Later
// sources take precedence.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()
	if err := parseJson(cfg); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
