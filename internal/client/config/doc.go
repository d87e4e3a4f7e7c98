// Package config loads runtime configuration for the canvasser client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c or -config.
//  3. CANVASSER_* environment variables, with a .env file loaded first.
//  4. Command-line flags.
//
// The result is validated before LoadConfig returns it.
//
// # JSON schema
//
// Durations may be strings like "3s" or integer nanoseconds:
//
//	{
//	  "server_endpoint_addr": "127.0.0.1:50051",
//	  "online_check_interval": "10s",
//	  "call_timeout": "12s",
//	  "database_path": "canvasser.db",
//	  "nominatim_url": "https://nominatim.openstreetmap.org",
//	  "overpass_url": "https://overpass-api.de/api/interpreter",
//	  "lookup_rate": 1,
//	  "redis_addr": "127.0.0.1:6379",
//	  "lookup_cache_ttl": "168h",
//	  "offline_search": false,
//	  "log_level": "info",
//	  "log_format": "text"
//	}
package config
