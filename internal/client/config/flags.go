package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/flagx"
)

var knownFlags = []string{"-a", "-i", "-db", "-redis", "-offline-search", "-log-level"}

// parseFlags populates selected Config fields from command-line flags.
//
//	-a string          address and port of the annotations server
//	-i int             online check interval in seconds
//	-db string         path of the local SQLite database
//	-redis string      address of the Redis street cache (empty disables it)
//	-offline-search    search from the local cache when the server is unreachable
//	-log-level string  debug, info, warn or error
//
// Only these flags are looked at; see flagx.FilterArgs.
func parseFlags(cfg *Config) error {
	return parseFlagsFrom(cfg, os.Args[1:])
}

func parseFlagsFrom(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "local database path")
	fs.StringVar(&cfg.RedisAddr, "redis", cfg.RedisAddr, "redis address for the street cache")
	fs.BoolVar(&cfg.OfflineSearch, "offline-search", cfg.OfflineSearch, "search from the local cache when offline")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	return nil
}
