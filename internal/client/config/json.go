package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/codifyr/internal/flagx"
	"github.com/dmitrijs2005/codifyr/internal/timex"
)

// jsonConfig mirrors Config for unmarshalling. Absent keys leave the
// current values untouched.
type jsonConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	DatabasePath        string         `json:"database_path"`
	AppBaseURL          string         `json:"app_base_url"`
	OTLPEndpoint        string         `json:"otlp_endpoint"`
	LogLevel            string         `json:"log_level"`
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

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.AppBaseURL, jc.AppBaseURL)
	setString(&cfg.OTLPEndpoint, jc.OTLPEndpoint)
	setString(&cfg.LogLevel, jc.LogLevel)
	if jc.OnlineCheckInterval.Duration > 0 {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
