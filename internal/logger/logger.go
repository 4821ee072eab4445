package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process logger.
//   - Level: trace, debug, info, warn, error, fatal, panic
//   - Format: "json" for production, "pretty" for human-readable dev output
//   - File: optional path of a rotating JSON log file written alongside stdout
type Options struct {
	Level  string
	Format string
	File   string
}

// Setup initializes the global zerolog level and returns the configured logger.
func Setup(opts Options) zerolog.Logger {
	var console io.Writer = os.Stdout
	if opts.Format == "pretty" {
		console = zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
	}

	writer := console
	if opts.File != "" {
		// The file sink always receives JSON so it stays machine readable.
		writer = zerolog.MultiLevelWriter(console, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     14,
			Compress:   true,
		})
	}

	lvl, err := zerolog.ParseLevel(opts.Level)
	if err != nil || opts.Level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	return zerolog.New(writer).
		With().
		Timestamp().
		Str("service", "railji-backend").
		Caller().
		Logger()
}
