package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/protopass/internal/flagx"
)

// parseFlags populates Config fields from command-line flags.
//
// Supported flags:
//
//	-a string   base URL of the API
//	-t int      request timeout (in seconds)
//	-v int      vault operation timeout (in seconds)
//	-s string   session store: memory or sqlite
//	-d string   sqlite session database path
//	-l string   log level
//
// os.Args is filtered with flagx.FilterArgs so that -c/-config and
// unknown arguments do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-t", "-v", "-s", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerBaseURL, "a", cfg.ServerBaseURL, "base URL of the API")
	requestTimeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	vaultTimeout := fs.Int("v", int(cfg.VaultOperationTimeout.Seconds()), "vault operation timeout (in seconds)")
	fs.StringVar(&cfg.SessionStore, "s", cfg.SessionStore, "session store: memory or sqlite")
	fs.StringVar(&cfg.SessionDSN, "d", cfg.SessionDSN, "sqlite session database path")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.RequestTimeout = time.Duration(*requestTimeout) * time.Second
	cfg.VaultOperationTimeout = time.Duration(*vaultTimeout) * time.Second
}
