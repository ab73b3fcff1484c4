// Package logging provides logging utilities for vless-ctl.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs for debugging (via slog)
//   - User output: Formatted messages for end users
//
// # Debug Logging
//
// Debug logs are written using slog and controlled by verbosity settings:
//
//	logging.Debug("spawning engine", "profile", name, "binary", binary)
//	logging.Warn("skipping profile", "path", path, "error", err)
//
// # User Output
//
// User-facing messages are formatted with status indicators:
//
//	logging.UserInfo("Loading profile %s...", name)
//	logging.UserSuccess("Profile %s added", name)
//	logging.UserWarning("Could not remove config file: %v", err)
//	logging.UserError("Engine exited: %v", err)
//
// Engine output relayed during a session is written verbatim with EngineLine.
//
// Output destinations:
//   - UserInfo, UserSuccess, EngineLine: Stdout
//   - UserWarning, UserError: Stderr
//
// # Status Indicators
//
//   - ℹ (info)
//   - ✓ (success)
//   - ⚠ (warning)
//   - ✗ (error)
package logging
