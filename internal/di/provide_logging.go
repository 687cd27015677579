package di

import (
	"os"

	"github.com/rs/zerolog"
)

// ProvideLogger creates a new zerolog.Logger configured for the runtime environment.
// Inside a CI job (when GITHUB_ACTIONS or CI is set), it uses JSON format so
// the platform captures structured per-stage logs.
// In a terminal, it uses console format with pretty printing.
func ProvideLogger() zerolog.Logger {
	if os.Getenv("GITHUB_ACTIONS") != "" || os.Getenv("CI") != "" {
		// Running in CI - use JSON format
		return zerolog.New(os.Stdout).
			Level(zerolog.InfoLevel).
			With().
			Timestamp().
			Logger()
	}

	// Running in terminal - use console format with colors
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
		Level(zerolog.InfoLevel).
		With().
		Timestamp().
		Logger()
}
