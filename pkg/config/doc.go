// Package config loads typed configuration from environment variables.
//
// Structs declare their variables with caarlos0/env tags. Load parses each
// struct type once and caches it, after reading ./.env through godotenv when
// the file exists:
//
//	type Config struct {
//		URL      string `env:"PG_URL,required"`
//		MaxConns int32  `env:"PG_MAX_CONNS" envDefault:"10"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// LoadEnv reads explicit env files instead, e.g. from a --env-file flag.
// Reload and ResetCache bypass the cache, mostly in tests.
package config
