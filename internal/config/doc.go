// Package config loads, normalizes, and validates vlog configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// VLOG_DESCRIBE_URL. The Config type centralizes every knob the daemon and CLI
// need: the watched directory, batch scheduler sizing, description daemon
// connection details, and log output settings.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, clamped batch parameters, and clear validation errors.
package config
