// Package logger builds the slog loggers used across the metrics module:
// text output outside production, JSON in production, with the environment
// attached to every record.
package logger
