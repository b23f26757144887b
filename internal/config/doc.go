// Package config loads, normalizes, and validates the reelforge application
// configuration. Configuration lives in a TOML file; provider API keys may
// additionally come from the environment (including a local .env file).
package config
