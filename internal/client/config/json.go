package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/dmitrijs2005/canvasser/internal/flagx"
	"github.com/dmitrijs2005/canvasser/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Durations go
// through timex.Duration so they can be strings like "3s" or integer
// nanoseconds. Pointers distinguish "absent" from zero values.
type JsonConfig struct {
	ServerEndpointAddr  string          `json:"server_endpoint_addr"`
	OnlineCheckInterval *timex.Duration `json:"online_check_interval"`
	CallTimeout         *timex.Duration `json:"call_timeout"`
	DatabasePath        string          `json:"database_path"`
	NominatimURL        string          `json:"nominatim_url"`
	OverpassURL         string          `json:"overpass_url"`
	LookupRate          *float64        `json:"lookup_rate"`
	RedisAddr           string          `json:"redis_addr"`
	LookupCacheTTL      *timex.Duration `json:"lookup_cache_ttl"`
	OfflineSearch       *bool           `json:"offline_search"`
	LogLevel            string          `json:"log_level"`
	LogFormat           string          `json:"log_format"`
}

// parseJson overlays cfg with the values present in the file named by -c or
// -config. Without such a flag nothing happens.
func parseJson(cfg *Config) error {
	path := flagx.ConfigPath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}

	setString(&cfg.ServerEndpointAddr, jc.ServerEndpointAddr)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.NominatimURL, jc.NominatimURL)
	setString(&cfg.OverpassURL, jc.OverpassURL)
	setString(&cfg.RedisAddr, jc.RedisAddr)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)

	if jc.OnlineCheckInterval != nil {
		cfg.OnlineCheckInterval = jc.OnlineCheckInterval.Duration
	}
	if jc.CallTimeout != nil {
		cfg.CallTimeout = jc.CallTimeout.Duration
	}
	if jc.LookupCacheTTL != nil {
		cfg.LookupCacheTTL = jc.LookupCacheTTL.Duration
	}
	if jc.LookupRate != nil {
		cfg.LookupRate = *jc.LookupRate
	}
	if jc.OfflineSearch != nil {
		cfg.OfflineSearch = *jc.OfflineSearch
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
