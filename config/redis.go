package config

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var _ Validator = (*RedisConfig)(nil)

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (r *RedisConfig) Validate() error {
	if r.Address == "" {
		return errors.New("address is required")
	}
	return nil
}

func (r *RedisConfig) Client() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     r.Address,
		Password: r.Password,
		DB:       r.DB,
	})
}
