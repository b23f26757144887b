// Package logging constructs the slog loggers used across reelforge and keeps
// structured attribute keys consistent. Console output is a compact
// timestamp/level/component line with key=value attrs; JSON output is
// machine-readable for log shipping.
package logging
