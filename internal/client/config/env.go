package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "CANVASSER_"

// parseEnv overlays cfg with CANVASSER_* environment variables. A .env file
// in the working directory is loaded first if present; real environment
// variables win over it.
func parseEnv(cfg *Config) error {
	_ = godotenv.Load()

	setString(&cfg.ServerEndpointAddr, getEnv("SERVER_ADDR"))
	setString(&cfg.DatabasePath, getEnv("DB_PATH"))
	setString(&cfg.NominatimURL, getEnv("NOMINATIM_URL"))
	setString(&cfg.OverpassURL, getEnv("OVERPASS_URL"))
	setString(&cfg.RedisAddr, getEnv("REDIS_ADDR"))
	setString(&cfg.AccessToken, getEnv("ACCESS_TOKEN"))
	setString(&cfg.LogLevel, getEnv("LOG_LEVEL"))
	setString(&cfg.LogFormat, getEnv("LOG_FORMAT"))

	for name, dst := range map[string]*time.Duration{
		"ONLINE_CHECK_INTERVAL": &cfg.OnlineCheckInterval,
		"CALL_TIMEOUT":          &cfg.CallTimeout,
		"LOOKUP_CACHE_TTL":      &cfg.LookupCacheTTL,
	} {
		if v := getEnv(name); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, name, err)
			}
			*dst = d
		}
	}

	if v := getEnv("LOOKUP_RATE"); v != "" {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%sLOOKUP_RATE: %w", envPrefix, err)
		}
		cfg.LookupRate = r
	}
	if v := getEnv("OFFLINE_SEARCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sOFFLINE_SEARCH: %w", envPrefix, err)
		}
		cfg.OfflineSearch = b
	}
	return nil
}

func getEnv(name string) string {
	return os.Getenv(envPrefix + name)
}
