package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/codifyr/internal/flagx"
)

// parseFlags reads only the flags it owns, so other flag sets (the config
// file lookup) can share the same argument list.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-a", "-i", "-d", "-u"})

	fs := flag.NewFlagSet("codifyr", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port of the identity service")
	interval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "d", cfg.DatabasePath, "path to the local database")
	fs.StringVar(&cfg.AppBaseURL, "u", cfg.AppBaseURL, "web app base URL used in email links")

	if err := fs.Parse(args); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "i" {
			cfg.OnlineCheckInterval = time.Duration(*interval) * time.Second
		}
	})
	return nil
}
