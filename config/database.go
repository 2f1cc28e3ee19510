package config

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

var _ Defaults = (*DatabaseConfig)(nil)
var _ Validator = (*DatabaseConfig)(nil)
var _ Validator = (*CacheConfig)(nil)

const defaultRedisAddress = "localhost:6379"

type DatabaseConfig struct {
	Type     string       `mapstructure:"type"`
	File     string       `mapstructure:"file"`
	Charset  string       `mapstructure:"charset"`
	Host     string       `mapstructure:"host"`
	Name     string       `mapstructure:"name"`
	Password string       `mapstructure:"password"`
	Port     int          `mapstructure:"port"`
	Username string       `mapstructure:"username"`
	Cache    *CacheConfig `mapstructure:"cache"`
}

func (d DatabaseConfig) Validate() error {
	switch d.Type {
	case "sqlite":
		if d.File == "" {
			return errors.New("core.db.file is required")
		}
	case "mysql":
		if d.Host == "" {
			return errors.New("core.db.host is required")
		}
		if d.Port == 0 {
			return errors.New("core.db.port is required")
		}
		if d.Username == "" {
			return errors.New("core.db.username is required")
		}
		if d.Password == "" {
			return errors.New("core.db.password is required")
		}
		if d.Name == "" {
			return errors.New("core.db.name is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", d.Type)
	}

	return nil
}

func (d DatabaseConfig) Defaults() map[string]any {
	def := map[string]any{
		"type":    "sqlite",
		"host":    "localhost",
		"charset": "utf8mb4",
		"port":    3306,
		"name":    "passreset",
	}

	if d.Type == "sqlite" || d.Type == "" {
		def["file"] = "passreset.db"
	}

	return def
}

type CacheConfig struct {
	Mode    string `mapstructure:"mode"`
	Options any    `mapstructure:"options"`
}

func (c CacheConfig) Validate() error {
	switch c.Mode {
	case "", "none", "memory":
		return nil
	case "redis":
		rcfg, ok := c.Options.(*RedisConfig)
		if !ok {
			return errors.New("core.db.cache.options must hold a redis configuration")
		}
		return rcfg.Validate()
	}

	return fmt.Errorf("invalid cache mode: %s", c.Mode)
}

func cacheConfigHook() mapstructure.DecodeHookFuncType {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.Map || t != reflect.TypeOf(&CacheConfig{}) {
			return data, nil
		}

		var cacheConfig CacheConfig
		if err := mapstructure.WeakDecode(data, &cacheConfig); err != nil {
			return nil, err
		}

		switch cacheConfig.Mode {
		case "redis":
			redisOptions := RedisConfig{Address: defaultRedisAddress}
			if opts, ok := cacheConfig.Options.(map[string]any); ok && opts != nil {
				if err := mapstructure.WeakDecode(opts, &redisOptions); err != nil {
					return nil, err
				}
			}
			cacheConfig.Options = &redisOptions
		default:
			cacheConfig.Options = nil
		}

		return &cacheConfig, nil
	}
}
