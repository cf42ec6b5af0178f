// Package config loads atrium's TOML configuration.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided (--config), use it
//  2. Otherwise, use ~/.config/atrium/config.toml (default)
//  3. If the config file doesn't exist, fall back to defaults
//  4. If the file exists but fields are missing or empty, use defaults
//  5. ATRIUM_API_URL and ATRIUM_TOKEN override whatever was loaded
//
// # TOML Format
//
//	api_url         = "https://cms.example.com/api"
//	push_url        = ""            # derived from api_url when empty
//	token_file      = "~/.config/atrium/token"
//	page_size       = 10
//	request_timeout = "10s"
//	fallback_poll   = "15s"
//	log_file        = "~/.local/state/atrium/atrium.log"
//	log_level       = "info"
//
// Every field is optional. Tilde expansion is performed for token_file and
// log_file. Durations use Go syntax and must be positive.
//
// # Tokens
//
// Token issuance and refresh are not atrium's concern. BearerToken returns an
// inline token (file or environment) or the trimmed contents of token_file,
// and an empty string when neither is set.
//
// # Error Handling
//
// Load returns errors for:
//   - Path expansion failures (e.g., cannot determine home directory)
//   - File read errors (except os.ErrNotExist, which triggers defaults)
//   - TOML parsing errors and malformed durations
//
// Missing config files are NOT an error, so atrium works against a local API
// without any setup.
package config
