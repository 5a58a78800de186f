// Package config loads and validates the TOML configuration file.
//
// Configuration resolution order: an explicit --config path, then
// ~/.config/rotativa/config.toml, then ./rotativa.toml. Missing files
// fall back to repository defaults; a file that exists but fails to
// parse or validate aborts startup.
package config
