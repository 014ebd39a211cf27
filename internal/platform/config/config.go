package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type HTTPConfig struct {
	Addr string
}

type GRPCConfig struct {
	Addr string
}

type DBConfig struct {
	URL      string
	MaxConns int32
}

type RateLimitConfig struct {
	RPS   float64 // 0 disables limiting
	Burst int
	// TrustProxy keys clients on X-Forwarded-For / X-Real-IP. Enable only
	// behind a proxy that overwrites those headers.
	TrustProxy bool
}

type AppConfig struct {
	ServiceName string
	Env         string
	LogLevel    string
	NATSURL     string
	HTTP        HTTPConfig
	GRPC        GRPCConfig
	DB          DBConfig
	RateLimit   RateLimitConfig
}

// IsProduction reports whether APP_ENV asks for production behaviour, where a
// missing database is fatal instead of falling back to the in-memory store.
func (c AppConfig) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: env("SERVICE_NAME"),
		Env:         env("APP_ENV"),
		LogLevel:    env("LOG_LEVEL"),
		NATSURL:     env("NATS_URL"),
		HTTP: HTTPConfig{
			Addr: env("HTTP_ADDR"),
		},
		GRPC: GRPCConfig{
			Addr: env("GRPC_ADDR"),
		},
		DB: DBConfig{
			URL: env("DATABASE_URL"),
		},
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "otakudb"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.GRPC.Addr == "" {
		cfg.GRPC.Addr = ":9090"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	maxConns, err := envInt("DB_MAX_CONNS", 10)
	if err != nil {
		return AppConfig{}, err
	}
	if maxConns < 1 {
		return AppConfig{}, errors.New("DB_MAX_CONNS must be at least 1")
	}
	cfg.DB.MaxConns = int32(maxConns)

	if v := env("RATE_LIMIT_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil || rps < 0 {
			return AppConfig{}, errors.New("RATE_LIMIT_RPS must be a non-negative number")
		}
		cfg.RateLimit.RPS = rps
	}
	burst, err := envInt("RATE_LIMIT_BURST", 20)
	if err != nil {
		return AppConfig{}, err
	}
	cfg.RateLimit.Burst = burst
	if v := env("RATE_LIMIT_TRUST_PROXY"); v != "" {
		trust, err := strconv.ParseBool(v)
		if err != nil {
			return AppConfig{}, errors.New("RATE_LIMIT_TRUST_PROXY must be a boolean")
		}
		cfg.RateLimit.TrustProxy = trust
	}

	if cfg.IsProduction() && cfg.DB.URL == "" {
		return AppConfig{}, errors.New("DATABASE_URL is required in production")
	}
	return cfg, nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func envInt(key string, fallback int) (int, error) {
	v := env(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.New(key + " must be an integer")
	}
	return n, nil
}
