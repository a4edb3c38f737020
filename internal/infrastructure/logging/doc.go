// Package logging provides structured logging using uber/zap.
//
// Two modes: production emits JSON for machine parsing, development
// emits colored console output. Everything user-facing in the service
// logs through this package; persistence failures in particular are
// logged here and never surfaced to the user.
//
// Example:
//
//	logger := logging.NewDefault()
//	logger.Info("server starting", zap.String("port", "8000"))
package logging
