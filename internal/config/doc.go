// Package config loads tally's connection settings for a Finala backend.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/tally/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//
// Files ending in .yaml or .yml are parsed as YAML so tally can share a
// directory with Finala's own YAML configs. Everything else is TOML.
//
// # Default Values
//
//   - Config file: ~/.config/tally/config.toml
//   - UI URL: http://127.0.0.1:8080
//   - Poll interval: 5s
//   - Request timeout: 30s
//   - Log file: ~/.local/state/tally/tally.log
//   - Log level: info
//
// # TOML Format
//
//	ui_url = "http://finala.internal:8080"
//	api_url = ""              # empty: discovered from /api/v1/settings
//	username = "admin"
//	password = ""             # or TALLY_PASSWORD
//	poll_interval = "5s"
//	request_timeout = "30s"
//	log_file = "~/.local/state/tally/tally.log"
//	log_level = "info"
//
// All fields are optional. Durations use time.ParseDuration syntax and must
// be positive. Tilde expansion is performed for the config path and log_file.
//
// # Error Handling
//
// Load returns errors for path expansion failures, read errors (except
// os.ErrNotExist, which triggers defaults), parse errors and invalid
// durations. Missing config files are not an error.
package config
