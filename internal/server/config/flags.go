package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/canvasser/internal/flagx"
)

var knownFlags = []string{"-a", "-d", "-s", "-t", "-u", "-p", "-b", "-g", "-e", "-log-level", "-issue-token"}

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags:
//
//	-a string            gRPC bind address (e.g., ":50051")
//	-d string            PostgreSQL DSN
//	-s string            JWT HMAC secret key
//	-t int               validity of issued tokens, minutes
//	-u string            S3 root user
//	-p string            S3 root password
//	-b string            S3 bucket name (empty disables archiving)
//	-g string            S3 region
//	-e string            S3 base endpoint (e.g., "http://127.0.0.1:9000/")
//	-log-level string    debug, info, warn or error
//	-issue-token string  print a token for this user and exit
func parseFlags(cfg *Config) error {
	return parseFlagsFrom(cfg, os.Args[1:])
}

func parseFlagsFrom(config *Config, args []string) error {
	args = flagx.FilterArgs(args, knownFlags)

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")

	accessTokenValidityDuration := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access_token_validity_duration (in minutes)")

	fs.StringVar(&config.S3RootUser, "u", config.S3RootUser, "S3 root user")
	fs.StringVar(&config.S3RootPassword, "p", config.S3RootPassword, "S3 root password")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 archive bucket")
	fs.StringVar(&config.S3Region, "g", config.S3Region, "S3 region")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.LogLevel, "log-level", config.LogLevel, "log level")
	fs.StringVar(&config.IssueTokenFor, "issue-token", config.IssueTokenFor, "print an access token for this user and exit")

	if err := fs.Parse(args); err != nil {
		return err
	}

	config.AccessTokenValidityDuration = time.Duration(*accessTokenValidityDuration) * time.Minute
	return nil
}
