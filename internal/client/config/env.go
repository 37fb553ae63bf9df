package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	ServerEndpointAddr  string        `env:"SERVER_ADDR"`
	OnlineCheckInterval time.Duration `env:"ONLINE_CHECK_INTERVAL"`
	DatabasePath        string        `env:"DATABASE_PATH"`
	AppBaseURL          string        `env:"APP_BASE_URL"`
	OTLPEndpoint        string        `env:"OTLP_ENDPOINT"`
	LogLevel            string        `env:"LOG_LEVEL"`
}

const envPrefix = "CODIFYR_"

// parseEnv overlays variables that are set; unset ones keep cfg's values.
func parseEnv(cfg *Config) error {
	ec := envConfig{
		ServerEndpointAddr:  cfg.ServerEndpointAddr,
		OnlineCheckInterval: cfg.OnlineCheckInterval,
		DatabasePath:        cfg.DatabasePath,
		AppBaseURL:          cfg.AppBaseURL,
		OTLPEndpoint:        cfg.OTLPEndpoint,
		LogLevel:            cfg.LogLevel,
	}
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	cfg.ServerEndpointAddr = ec.ServerEndpointAddr
	cfg.OnlineCheckInterval = ec.OnlineCheckInterval
	cfg.DatabasePath = ec.DatabasePath
	cfg.AppBaseURL = ec.AppBaseURL
	cfg.OTLPEndpoint = ec.OTLPEndpoint
	cfg.LogLevel = ec.LogLevel
	return nil
}
