package config

var _ Validator = (*CoreConfig)(nil)

type CoreConfig struct {
	DB        DatabaseConfig  `mapstructure:"db"`
	Log       LogConfig       `mapstructure:"log"`
	Mail      MailConfig      `mapstructure:"mail"`
	Reset     ResetConfig     `mapstructure:"reset"`
	Federated FederatedConfig `mapstructure:"federated"`
}

func (c CoreConfig) Validate() error {
	return nil
}

// RedisEnabled reports whether a redis server is configured, either for the query cache or the sweep locker.
func (c CoreConfig) RedisEnabled() bool {
	return c.Redis() != nil
}

func (c CoreConfig) Redis() *RedisConfig {
	if c.DB.Cache == nil || c.DB.Cache.Mode != "redis" {
		return nil
	}

	rcfg, ok := c.DB.Cache.Options.(*RedisConfig)
	if !ok {
		return nil
	}

	return rcfg
}
