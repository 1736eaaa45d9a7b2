package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the on-disk TOML configuration.
type Config struct {
	Server ServerConfig `toml:"server"`
	Store  StoreConfig  `toml:"store"`
	Auth   AuthConfig   `toml:"auth"`
	Relay  RelayConfig  `toml:"relay"`
	SMTP   SMTPConfig   `toml:"smtp"`
	Log    LogConfig    `toml:"log"`
}

type ServerConfig struct {
	Listen         string   `toml:"listen"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

type StoreConfig struct {
	Path string `toml:"path"`
}

type AuthConfig struct {
	JWTSecret       string `toml:"jwt_secret"`
	TokenTTLMinutes int    `toml:"token_ttl_minutes"`
	OTPTTLMinutes   int    `toml:"otp_ttl_minutes"`
}

// SMTPConfig is optional; with an empty host, mails are logged instead of
// sent.
type SMTPConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

type RelayConfig struct {
	IdleProbeSeconds int `toml:"idle_probe_seconds"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

// Default returns the configuration used when a field is absent from the
// file. The JWT secret has no default; it must be set.
func Default() Config {
	return Config{
		Server: ServerConfig{Listen: ":8080"},
		Store:  StoreConfig{Path: "sealchat.db"},
		Auth: AuthConfig{
			TokenTTLMinutes: 60,
			OTPTTLMinutes:   10,
		},
		Relay: RelayConfig{IdleProbeSeconds: 30},
		SMTP:  SMTPConfig{Port: 587},
		Log:   LogConfig{Level: "info"},
	}
}

// Load reads the TOML file at path on top of the defaults and validates the
// result.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Auth.JWTSecret == "" {
		return errors.New("auth.jwt_secret must be set")
	}
	if c.Auth.TokenTTLMinutes <= 0 {
		return errors.New("auth.token_ttl_minutes must be positive")
	}
	if c.Auth.OTPTTLMinutes <= 0 {
		return errors.New("auth.otp_ttl_minutes must be positive")
	}
	if c.Store.Path == "" {
		return errors.New("store.path must be set")
	}
	if c.SMTP.Host != "" && c.SMTP.From == "" {
		return errors.New("smtp.from must be set when smtp.host is")
	}
	return nil
}

// TokenTTL is the session token lifetime.
func (c Config) TokenTTL() time.Duration {
	return time.Duration(c.Auth.TokenTTLMinutes) * time.Minute
}

// OTPTTL is the login code validity window.
func (c Config) OTPTTL() time.Duration {
	return time.Duration(c.Auth.OTPTTLMinutes) * time.Minute
}

// IdleProbe is the session idle probe interval.
func (c Config) IdleProbe() time.Duration {
	return time.Duration(c.Relay.IdleProbeSeconds) * time.Second
}
