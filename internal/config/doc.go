// Package config provides centralized configuration management for the
// dashboard. It loads configuration from multiple sources, validates it, and
// resolves the dataset location.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//  1. ECORECOVERY_* environment variables (highest priority)
//  2. A .env file in the working directory (never overrides real variables)
//  3. The YAML configuration file (config.yaml, configs/config.yaml or
//     the path in ECORECOVERY_CONFIG_FILE)
//  4. Default values (lowest priority)
//
// # Environment Variables
//
// Nested fields are addressed by section:
//
//	ECORECOVERY_SERVER_PORT=8080
//	ECORECOVERY_DATA_URL=https://example.org/data.csv
//	ECORECOVERY_DATA_CACHE_TTL=5m
//	ECORECOVERY_LOGGING_LEVEL=debug
//	ECORECOVERY_SHEETS_API_KEY=...
//
// # Data URL
//
// The dataset location is resolved separately because it is usually kept
// out of the config file:
//
//	ECORECOVERY_DATA_URL > DATA_URL > secrets.yaml (key DATA_URL) > data.url > placeholder
//
// The placeholder points at a template repository and must be replaced
// before use; Config.DataURLIsPlaceholder lets the UI warn about it.
package config
