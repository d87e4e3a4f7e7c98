package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "CANVASSER_"

// parseEnv overlays cfg with CANVASSER_* variables, loading a .env file from
// the working directory first if there is one.
func parseEnv(cfg *Config) error {
	_ = godotenv.Load()

	setString(&cfg.EndpointAddrGRPC, getEnv("GRPC_ADDR"))
	setString(&cfg.DatabaseDSN, getEnv("DATABASE_DSN"))
	setString(&cfg.SecretKey, getEnv("SECRET_KEY"))
	setString(&cfg.S3RootUser, getEnv("S3_USER"))
	setString(&cfg.S3RootPassword, getEnv("S3_PASSWORD"))
	setString(&cfg.S3Bucket, getEnv("S3_BUCKET"))
	setString(&cfg.S3Region, getEnv("S3_REGION"))
	setString(&cfg.S3BaseEndpoint, getEnv("S3_ENDPOINT"))
	setString(&cfg.LogLevel, getEnv("LOG_LEVEL"))
	setString(&cfg.LogFormat, getEnv("LOG_FORMAT"))

	if v := getEnv("ACCESS_TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sACCESS_TOKEN_TTL: %w", envPrefix, err)
		}
		cfg.AccessTokenValidityDuration = d
	}
	return nil
}

func getEnv(name string) string {
	return os.Getenv(envPrefix + name)
}
