// Package config holds the session engine's options and loads them from a
// TOML file and environment overrides.
package config
