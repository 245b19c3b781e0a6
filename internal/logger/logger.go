package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level  string
	Format string // json or console
}

// Entry is a logger carrying preset fields.
type Entry struct {
	l zerolog.Logger
}

var log = New(Config{Level: "info"}, os.Stdout)

func Init(cfg Config) {
	log = New(cfg, os.Stdout)
}

// New builds a zerolog logger writing to w.
func New(cfg Config, w io.Writer) zerolog.Logger {
	if cfg.Format == "console" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).
		Level(parseLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()
}

// SetOutput replaces the package logger, mostly for tests.
func SetOutput(w io.Writer, level string) {
	log = New(Config{Level: level}, w)
}

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

// Info logs msg with optional key/value pairs.
func Info(msg string, kv ...interface{}) {
	log.Info().Fields(kv).Msg(msg)
}

func Infof(format string, v ...interface{}) {
	log.Info().Msgf(format, v...)
}

func Warn(msg string, kv ...interface{}) {
	log.Warn().Fields(kv).Msg(msg)
}

func Warnf(format string, v ...interface{}) {
	log.Warn().Msgf(format, v...)
}

func Error(msg string, kv ...interface{}) {
	log.Error().Fields(kv).Msg(msg)
}

func Errorf(format string, v ...interface{}) {
	log.Error().Msgf(format, v...)
}

func Debug(msg string, kv ...interface{}) {
	log.Debug().Fields(kv).Msg(msg)
}

func Debugf(format string, v ...interface{}) {
	log.Debug().Msgf(format, v...)
}

func Fatalf(format string, v ...interface{}) {
	log.Fatal().Msgf(format, v...)
}

func WithError(err error) Entry {
	return Entry{l: log.With().Err(err).Logger()}
}

func WithFields(fields map[string]interface{}) Entry {
	return Entry{l: log.With().Fields(fields).Logger()}
}

func (e Entry) Info(msg string) {
	e.l.Info().Msg(msg)
}

func (e Entry) Warn(msg string) {
	e.l.Warn().Msg(msg)
}

func (e Entry) Error(msg string) {
	e.l.Error().Msg(msg)
}
