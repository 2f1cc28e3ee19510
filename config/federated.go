package config

import (
	"errors"
	"time"
)

var _ Defaults = (*FederatedConfig)(nil)
var _ Validator = (*FederatedConfig)(nil)

type FederatedConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// ProjectID overrides the project named in the credentials file.
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
	// DeliverLink mails provider generated links through the reset template instead of only returning them.
	DeliverLink bool          `mapstructure:"deliver_link"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

func (f FederatedConfig) Defaults() map[string]any {
	return map[string]any{
		"enabled": false,
		"timeout": "10s",
	}
}

func (f FederatedConfig) Validate() error {
	if !f.Enabled {
		return nil
	}

	if f.CredentialsFile == "" {
		return errors.New("core.federated.credentials_file is required")
	}
	if f.Timeout <= 0 {
		return errors.New("core.federated.timeout must be positive")
	}

	return nil
}
