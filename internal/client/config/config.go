// Package config loads runtime configuration for the Codifyr CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. Environment variables prefixed with CODIFYR_.
//  4. Command-line flags.
//
// Supported flags
//
//	-a string   address:port of the identity service
//	-i int      online status check interval (seconds)
//	-d string   path to the local SQLite database
//	-u string   base URL of the web app used in email links
//
// # JSON schema
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "3s",
//	  "database_path": "codifyr.db",
//	  "app_base_url": "http://localhost:8080",
//	  "otlp_endpoint": ""
//	}
package config

import (
	"time"
)

type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	DatabasePath        string
	// AppBaseURL prefixes the redirect targets put into confirmation and
	// password reset emails.
	AppBaseURL   string
	OTLPEndpoint string
	LogLevel     string
}

func (c *Config) LoadDefaults() {
	c.ServerEndpointAddr = "127.0.0.1:50051"
	c.OnlineCheckInterval = 3 * time.Second
	c.DatabasePath = "codifyr.db"
	c.AppBaseURL = "http://localhost:8080"
	c.LogLevel = "warn"
}

// LoadConfig applies defaults, then JSON, environment and flags taken
// from args (normally os.Args[1:]).
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, args); err != nil {
		return nil, err
	}
	if err := parseEnv(cfg); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}
