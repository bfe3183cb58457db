package logger

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger represents a structured logger
type Logger struct {
	logger zerolog.Logger
}

// Fields represents log fields
type Fields map[string]interface{}

var (
	// Default is the default logger instance
	Default *Logger
)

// Init initializes the logger with a console writer on stdout.
// Production runs default to info level, everything else to debug
func Init(production bool) {
	InitWithWriter(zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}, getLogLevel(production))

	Default.Info().
		Str("level", zerolog.GlobalLevel().String()).
		Msg("Logger initialized")
}

// InitWithWriter initializes the default logger on an arbitrary writer.
// Tests use it to capture JSON output
func InitWithWriter(w io.Writer, level zerolog.Level) {
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.SetGlobalLevel(level)

	Default = &Logger{logger: zerolog.New(w).With().Timestamp().Logger()}
}

// SetVerbose lowers the global level to debug
func SetVerbose(verbose bool) {
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// getLogLevel returns the log level from LOG_LEVEL, falling back on the environment
func getLogLevel(production bool) zerolog.Level {
	levelStr := os.Getenv("LOG_LEVEL")
	if levelStr == "" {
		if production {
			return zerolog.InfoLevel
		}
		return zerolog.DebugLevel
	}

	level, err := zerolog.ParseLevel(levelStr)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}

// WithFields creates a new logger with fields
func (l *Logger) WithFields(fields Fields) *Logger {
	newLogger := l.logger.With()
	for k, v := range fields {
		newLogger = newLogger.Interface(k, v)
	}
	return &Logger{logger: newLogger.Logger()}
}

// WithField creates a new logger with a single field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithError adds an error to the logger
func (l *Logger) WithError(err error) *Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// Debug returns a debug event
func (l *Logger) Debug() *zerolog.Event {
	return l.logger.Debug()
}

// Info returns an info event
func (l *Logger) Info() *zerolog.Event {
	return l.logger.Info()
}

// Warn returns a warn event
func (l *Logger) Warn() *zerolog.Event {
	return l.logger.Warn()
}

// Error returns an error event
func (l *Logger) Error() *zerolog.Event {
	return l.logger.Error()
}

func ensure() {
	if Default == nil {
		Init(false)
	}
}

// Info logs an info message
func Info(format string, v ...interface{}) {
	ensure()
	Default.Info().Msgf(format, v...)
}

// Error logs an error message
func Error(format string, v ...interface{}) {
	ensure()
	Default.Error().Msgf(format, v...)
}

// IsDebugEnabled returns true if debug logging is enabled
func IsDebugEnabled() bool {
	return zerolog.GlobalLevel() <= zerolog.DebugLevel
}

// ForComponent creates a logger tagged with a component name
func ForComponent(component string) *Logger {
	ensure()
	return Default.WithField("component", component)
}

// ForCrawler creates a logger for a specific crawler
func ForCrawler(crawlerName string) *Logger {
	ensure()
	return Default.WithField("crawler", crawlerName)
}

// ForSession creates a logger for the HTTP session
func ForSession() *Logger {
	return ForComponent("session")
}

// ForExtractor creates a logger for the page extractors
func ForExtractor() *Logger {
	return ForComponent("extractor")
}

// ForResolver creates a logger for the phone resolver
func ForResolver() *Logger {
	return ForComponent("resolver")
}

// ForWorker creates a logger for the worker
func ForWorker() *Logger {
	return ForComponent("worker")
}

// ForExporter creates a logger for an exporter
func ForExporter(format string) *Logger {
	return ForComponent("exporter").WithField("format", format)
}

// ForCache creates a logger for the cache
func ForCache() *Logger {
	return ForComponent("cache")
}

// ForPublisher creates a logger for the publisher
func ForPublisher() *Logger {
	return ForComponent("publisher")
}

// LogError is a convenience method for logging errors with context
func LogError(component string, err error, format string, v ...interface{}) {
	ensure()
	Default.Error().
		Str("component", component).
		Err(err).
		Msg(fmt.Sprintf(format, v...))
}
