package config

import "errors"

var (
	ErrInvalidEnvironment = errors.New("core.reset.environment must be staging or production")
)

type Defaults interface {
	Defaults() map[string]any
}

type Validator interface {
	Validate() error
}

type Manager interface {
	// Init applies defaults, loads the file and environment overrides and validates the result.
	Init() error

	// Config returns the decoded configuration. It is nil until Init succeeds.
	Config() *Config

	// Save writes the current file-backed configuration to disk.
	Save() error

	// ConfigFile returns the path of the file the manager reads and writes.
	ConfigFile() string
}

type Config struct {
	Core CoreConfig `mapstructure:"core"`
}
