package observability

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

type LogLevel string

const (
	LogLevelTrace LogLevel = "trace"
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

type LogFormat string

const (
	LogFormatJSON    LogFormat = "json"
	LogFormatConsole LogFormat = "console"
)

type LoggingConfig struct {
	Level      LogLevel  `yaml:"level" mapstructure:"level" validate:"omitempty,oneof=trace debug info warn error"`
	Format     LogFormat `yaml:"format" mapstructure:"format" validate:"omitempty,oneof=json console"`
	Output     string    `yaml:"output" mapstructure:"output"`
	TimeFormat string    `yaml:"time_format" mapstructure:"time_format"`
}

type Logger struct {
	logger zerolog.Logger
	config LoggingConfig
}

func NewLogger(config LoggingConfig) (*Logger, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	level, err := parseLogLevel(config.Level)
	if err != nil {
		return nil, err
	}

	var output io.Writer
	switch config.Output {
	case "stderr", "":
		output = os.Stderr
	case "stdout":
		output = os.Stdout
	default:
		file, err := os.OpenFile(config.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log output: %w", err)
		}
		output = file
	}

	return newLogger(config, output, level), nil
}

// NewLoggerWithWriter builds a logger writing to w, used by tests and
// callers that manage their own sinks
func NewLoggerWithWriter(config LoggingConfig, w io.Writer) (*Logger, error) {
	level, err := parseLogLevel(config.Level)
	if err != nil {
		return nil, err
	}
	return newLogger(config, w, level), nil
}

func newLogger(config LoggingConfig, output io.Writer, level zerolog.Level) *Logger {
	if config.Format == LogFormatConsole {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: getTimeFormat(config.TimeFormat),
		}
	}

	logger := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "worldkit").
		Logger()

	return &Logger{
		logger: logger,
		config: config,
	}
}

func (l *Logger) WithContext(ctx context.Context) *zerolog.Logger {
	logger := l.logger.With()

	if traceInfo := ExtractTraceInfo(ctx); traceInfo != nil {
		for key, value := range traceInfo {
			logger = logger.Str(key, value)
		}
	}

	contextLogger := logger.Logger()
	return &contextLogger
}

func (l *Logger) WithElement(elementType, elementID string) *zerolog.Logger {
	logger := l.logger.With().
		Str("element_type", elementType).
		Str("element_id", elementID).
		Logger()
	return &logger
}

func (l *Logger) WithOperation(operation string) *zerolog.Logger {
	logger := l.logger.With().
		Str("operation", operation).
		Logger()
	return &logger
}

func (l *Logger) WithError(err error) *zerolog.Logger {
	logger := l.logger.With().
		Stack().
		Err(err).
		Logger()
	return &logger
}

func (l *Logger) Debug(msg string) {
	l.logger.Debug().Msg(msg)
}

func (l *Logger) Info(msg string) {
	l.logger.Info().Msg(msg)
}

func (l *Logger) Warn(msg string) {
	l.logger.Warn().Msg(msg)
}

func (l *Logger) Error(msg string) {
	l.logger.Error().Msg(msg)
}

func (l *Logger) GetZerologLogger() zerolog.Logger {
	return l.logger
}

func parseLogLevel(level LogLevel) (zerolog.Level, error) {
	switch level {
	case LogLevelTrace:
		return zerolog.TraceLevel, nil
	case LogLevelDebug:
		return zerolog.DebugLevel, nil
	case LogLevelInfo, "":
		return zerolog.InfoLevel, nil
	case LogLevelWarn:
		return zerolog.WarnLevel, nil
	case LogLevelError:
		return zerolog.ErrorLevel, nil
	default:
		return zerolog.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

func getTimeFormat(format string) string {
	if format == "" {
		return time.RFC3339
	}
	return format
}

func (l *Logger) LoggingMiddleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &loggingResponseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			logger := l.WithContext(r.Context()).
				With().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Str("remote_addr", r.RemoteAddr).
				Logger()

			next.ServeHTTP(wrapped, r)

			duration := time.Since(start)
			logEvent := logger.Debug()
			if wrapped.statusCode >= 500 {
				logEvent = logger.Error()
			} else if wrapped.statusCode >= 400 {
				logEvent = logger.Warn()
			}

			logEvent.
				Int("status_code", wrapped.statusCode).
				Int64("response_size", wrapped.size).
				Dur("duration", duration).
				Msg("HTTP request completed")
		})
	}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
	size       int64
}

func (lrw *loggingResponseWriter) WriteHeader(statusCode int) {
	lrw.statusCode = statusCode
	lrw.ResponseWriter.WriteHeader(statusCode)
}

func (lrw *loggingResponseWriter) Write(data []byte) (int, error) {
	size, err := lrw.ResponseWriter.Write(data)
	lrw.size += int64(size)
	return size, err
}

func SetGlobalLogger(logger *Logger) {
	log.Logger = logger.logger
}
