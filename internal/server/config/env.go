package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type envConfig struct {
	EndpointAddrGRPC             string        `env:"GRPC_ADDR"`
	DatabaseDSN                  string        `env:"DATABASE_DSN"`
	SecretKey                    string        `env:"SECRET_KEY"`
	AccessTokenValidityDuration  time.Duration `env:"ACCESS_TOKEN_TTL"`
	RefreshTokenValidityDuration time.Duration `env:"REFRESH_TOKEN_TTL"`
	S3RootUser                   string        `env:"S3_ROOT_USER"`
	S3RootPassword               string        `env:"S3_ROOT_PASSWORD"`
	S3Bucket                     string        `env:"S3_BUCKET"`
	S3Region                     string        `env:"S3_REGION"`
	S3BaseEndpoint               string        `env:"S3_BASE_ENDPOINT"`
	UploadURLTTL                 time.Duration `env:"UPLOAD_URL_TTL"`
	RedisAddr                    string        `env:"REDIS_ADDR"`
	AppBaseURL                   string        `env:"APP_BASE_URL"`
	ConfirmationTokenTTL         time.Duration `env:"CONFIRMATION_TOKEN_TTL"`
	ResetTokenTTL                time.Duration `env:"RESET_TOKEN_TTL"`
	LoginAttempts                int64         `env:"LOGIN_ATTEMPTS"`
	LoginWindow                  time.Duration `env:"LOGIN_WINDOW"`
	MailWindow                   time.Duration `env:"MAIL_WINDOW"`
	DailyMailQuota               int64         `env:"DAILY_MAIL_QUOTA"`
	OTLPEndpoint                 string        `env:"OTLP_ENDPOINT"`
	LogLevel                     string        `env:"LOG_LEVEL"`
}

const envPrefix = "CODIFYR_"

// parseEnv overlays variables that are set; unset ones keep cfg's values.
func parseEnv(cfg *Config) error {
	ec := envConfig(*cfg)
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	*cfg = Config(ec)
	return nil
}
