// Package logging configures the process-wide slog logger. Everything in
// this service logs through slog's default logger; InitLogger swaps the
// default once at startup, so packages never hold a logger of their own.
package logging

import (
	"log/slog"
	"os"
)

// Logger is the configured root logger, also installed as slog's default.
var Logger *slog.Logger

// InitLogger builds the root logger from LOG_LEVEL and LOG_FORMAT. Bad
// values fall back to info/text rather than failing startup: losing debug
// output is better than not starting over a typo.
func InitLogger(level, format string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}

	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	Logger = slog.New(handler)
	slog.SetDefault(Logger)
}

// WithUser scopes a logger to one recipient, the grouping every alarm and
// notification log line shares.
func WithUser(username string) *slog.Logger {
	return slog.Default().With("username", username)
}

// WithSurvey scopes a logger to one survey.
func WithSurvey(surveyID int64) *slog.Logger {
	return slog.Default().With("survey_id", surveyID)
}
