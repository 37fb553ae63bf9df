package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/codifyr/internal/flagx"
	"github.com/dmitrijs2005/codifyr/internal/timex"
)

// jsonConfig mirrors Config for unmarshalling. Durations accept "15m" as
// well as integer nanoseconds. Absent keys leave the current values.
type jsonConfig struct {
	EndpointAddrGRPC             string         `json:"endpoint_addr_grpc"`
	DatabaseDSN                  string         `json:"database_dsn"`
	SecretKey                    string         `json:"secret_key"`
	AccessTokenValidityDuration  timex.Duration `json:"access_token_validity_duration"`
	RefreshTokenValidityDuration timex.Duration `json:"refresh_token_validity_duration"`
	S3RootUser                   string         `json:"s3_root_user"`
	S3RootPassword               string         `json:"s3_root_password"`
	S3Bucket                     string         `json:"s3_bucket"`
	S3Region                     string         `json:"s3_region"`
	S3BaseEndpoint               string         `json:"s3_base_endpoint"`
	UploadURLTTL                 timex.Duration `json:"upload_url_ttl"`
	RedisAddr                    string         `json:"redis_addr"`
	AppBaseURL                   string         `json:"app_base_url"`
	ConfirmationTokenTTL         timex.Duration `json:"confirmation_token_ttl"`
	ResetTokenTTL                timex.Duration `json:"reset_token_ttl"`
	LoginAttempts                int64          `json:"login_attempts"`
	LoginWindow                  timex.Duration `json:"login_window"`
	MailWindow                   timex.Duration `json:"mail_window"`
	DailyMailQuota               int64          `json:"daily_mail_quota"`
	OTLPEndpoint                 string         `json:"otlp_endpoint"`
	LogLevel                     string         `json:"log_level"`
}

func parseJSON(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.EndpointAddrGRPC, jc.EndpointAddrGRPC)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.SecretKey, jc.SecretKey)
	setString(&cfg.S3RootUser, jc.S3RootUser)
	setString(&cfg.S3RootPassword, jc.S3RootPassword)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.AppBaseURL, jc.AppBaseURL)
	setString(&cfg.OTLPEndpoint, jc.OTLPEndpoint)
	setString(&cfg.LogLevel, jc.LogLevel)

	setDuration(&cfg.AccessTokenValidityDuration, jc.AccessTokenValidityDuration)
	setDuration(&cfg.RefreshTokenValidityDuration, jc.RefreshTokenValidityDuration)
	setDuration(&cfg.UploadURLTTL, jc.UploadURLTTL)
	setDuration(&cfg.ConfirmationTokenTTL, jc.ConfirmationTokenTTL)
	setDuration(&cfg.ResetTokenTTL, jc.ResetTokenTTL)
	setDuration(&cfg.LoginWindow, jc.LoginWindow)
	setDuration(&cfg.MailWindow, jc.MailWindow)

	if jc.LoginAttempts > 0 {
		cfg.LoginAttempts = jc.LoginAttempts
	}
	if jc.DailyMailQuota > 0 {
		cfg.DailyMailQuota = jc.DailyMailQuota
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration > 0 {
		*dst = v.Duration
	}
}
