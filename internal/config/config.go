// Package config loads the service configuration from a YAML file and the
// environment into an explicit Config value that is passed to constructors.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

// envPrefix namespaces environment overrides, e.g. FT_AUTH_SECRET_KEY.
const envPrefix = "FT"

type Config struct {
	Port     string
	Debug    bool
	LogLevel string
	DB       DB
	Auth     Auth
	CORS     CORS
	Currency Currency
}

type DB struct {
	Path string
}

type Auth struct {
	SecretKey           string
	AccessTokenTTL      time.Duration
	RefreshTokenTTL     time.Duration
	BcryptCost          int
	CookieSecure        bool
	RevokeFamilyOnReuse bool
	SweepInterval       time.Duration
}

type CORS struct {
	Origins []string
}

type Currency struct {
	PrimaryURL  string
	FallbackURL string
	Timeout     time.Duration
}

var (
	errNoSecret       = errors.New("auth.secret_key must be set")
	errBadAccessTTL   = errors.New("auth.access_token_ttl must be positive")
	errBadRefreshTTL  = errors.New("auth.refresh_token_ttl must be positive")
	errRefreshShorter = errors.New("auth.refresh_token_ttl must not be shorter than auth.access_token_ttl")
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("debug", true)
	v.SetDefault("log_level", "info")
	v.SetDefault("db.path", "app.db")
	v.SetDefault("auth.secret_key", "")
	v.SetDefault("auth.access_token_ttl", 30*time.Minute)
	v.SetDefault("auth.refresh_token_ttl", 7*24*time.Hour)
	v.SetDefault("auth.bcrypt_cost", bcrypt.DefaultCost)
	v.SetDefault("auth.cookie_secure", false)
	v.SetDefault("auth.revoke_family_on_reuse", false)
	v.SetDefault("auth.sweep_interval", time.Hour)
	v.SetDefault("cors.origins", "http://localhost:5173,http://localhost:3000")
	v.SetDefault("currency.primary_url", "https://www.cbr-xml-daily.ru")
	v.SetDefault("currency.fallback_url", "https://open.er-api.com/v6/latest")
	v.SetDefault("currency.timeout", 10*time.Second)
}

// Load reads the YAML file at path (if it exists) and applies FT_* environment
// overrides on top of the built-in defaults. An empty path skips the file.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %q: %w", path, err)
		}
	}

	cfg := &Config{
		Port:     v.GetString("port"),
		Debug:    v.GetBool("debug"),
		LogLevel: v.GetString("log_level"),
		DB: DB{
			Path: v.GetString("db.path"),
		},
		Auth: Auth{
			SecretKey:           v.GetString("auth.secret_key"),
			AccessTokenTTL:      v.GetDuration("auth.access_token_ttl"),
			RefreshTokenTTL:     v.GetDuration("auth.refresh_token_ttl"),
			BcryptCost:          v.GetInt("auth.bcrypt_cost"),
			CookieSecure:        v.GetBool("auth.cookie_secure"),
			RevokeFamilyOnReuse: v.GetBool("auth.revoke_family_on_reuse"),
			SweepInterval:       v.GetDuration("auth.sweep_interval"),
		},
		CORS: CORS{
			Origins: splitList(v.GetString("cors.origins")),
		},
		Currency: Currency{
			PrimaryURL:  strings.TrimRight(v.GetString("currency.primary_url"), "/"),
			FallbackURL: strings.TrimRight(v.GetString("currency.fallback_url"), "/"),
			Timeout:     v.GetDuration("currency.timeout"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Auth.SecretKey) == "":
		return errNoSecret
	case c.Auth.AccessTokenTTL <= 0:
		return errBadAccessTTL
	case c.Auth.RefreshTokenTTL <= 0:
		return errBadRefreshTTL
	case c.Auth.RefreshTokenTTL < c.Auth.AccessTokenTTL:
		return errRefreshShorter
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.bcrypt_cost must be within [%d, %d]", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
