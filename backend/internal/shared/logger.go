package shared

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger builds the root logger. Development gets a human readable console writer.
func NewLogger(config *ServiceConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(GetLogLevel(config))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if IsDevelopment(config) {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", config.ServiceName).
		Logger()
}
