package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var _ Defaults = (*ResetConfig)(nil)
var _ Validator = (*ResetConfig)(nil)

const (
	EnvironmentStaging    = "staging"
	EnvironmentProduction = "production"
)

type ResetConfig struct {
	// Environment selects which of the two base URLs reset links point at.
	Environment   string        `mapstructure:"environment"`
	StagingURL    string        `mapstructure:"staging_url"`
	ProductionURL string        `mapstructure:"production_url"`
	Cooldown      time.Duration `mapstructure:"cooldown"`
	Expiry        time.Duration `mapstructure:"expiry"`
	// SweepInterval enables the background clearing of expired tokens. Zero disables it.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

func (r ResetConfig) Defaults() map[string]any {
	return map[string]any{
		"environment":    EnvironmentProduction,
		"cooldown":       "1m",
		"expiry":         "1h",
		"sweep_interval": "0s",
	}
}

func (r ResetConfig) Validate() error {
	if r.Environment != EnvironmentStaging && r.Environment != EnvironmentProduction {
		return ErrInvalidEnvironment
	}

	base := r.BaseURL()
	if base == "" {
		return fmt.Errorf("core.reset.%s_url is required", r.Environment)
	}

	u, err := url.Parse(base)
	if err != nil {
		return fmt.Errorf("core.reset.%s_url: %w", r.Environment, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("core.reset.%s_url must be an absolute url", r.Environment)
	}

	if r.Cooldown < 0 {
		return errors.New("core.reset.cooldown must not be negative")
	}
	if r.Expiry <= 0 {
		return errors.New("core.reset.expiry must be positive")
	}
	if r.SweepInterval < 0 {
		return errors.New("core.reset.sweep_interval must not be negative")
	}

	return nil
}

// BaseURL returns the configured base for the active environment without a trailing slash.
func (r ResetConfig) BaseURL() string {
	base := r.ProductionURL
	if r.Environment == EnvironmentStaging {
		base = r.StagingURL
	}

	return strings.TrimRight(base, "/")
}
