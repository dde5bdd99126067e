package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with component context.
type Logger struct {
	logger    zerolog.Logger
	component string
}

var (
	globalMu     sync.RWMutex
	globalLogger = newFromConfig(defaultConfig(), "")
)

func defaultConfig() *Config {
	cfg := &Config{}
	cfg.ApplyDefaults()
	return cfg
}

// Init initializes the global logger from config. Safe to call once at
// startup before any component loggers are requested.
func Init(cfg Config) {
	cfg.ApplyDefaults()

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	globalMu.Lock()
	globalLogger = newFromConfig(&cfg, "")
	globalMu.Unlock()
}

// New creates a standalone logger instance with the given configuration,
// tagged with a component name. Used directly in tests; production code
// normally goes through Init and Get.
func New(cfg *Config, component string) *Logger {
	c := *cfg
	c.ApplyDefaults()
	return newFromConfig(&c, component)
}

func newFromConfig(cfg *Config, component string) *Logger {
	var zl zerolog.Logger
	format := strings.ToLower(cfg.Format)
	if format == "console" || format == "pretty" {
		cw := zerolog.ConsoleWriter{
			Out:        outputWriter(cfg.Output),
			TimeFormat: time.RFC3339,
			NoColor:    cfg.NoColor,
		}
		zl = zerolog.New(cw)
	} else {
		zl = zerolog.New(outputWriter(cfg.Output))
	}

	if cfg.Timestamp {
		zl = zl.With().Timestamp().Logger()
	}
	if cfg.Caller {
		zl = zl.With().Caller().Logger()
	}
	if component != "" {
		zl = zl.With().Str(FieldComponent, component).Logger()
	}

	return &Logger{logger: zl, component: component}
}

// Get returns the global logger tagged with a component name.
func Get(component string) *Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger.WithComponent(component)
}

// WithComponent returns a copy of the logger tagged with a component name.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{
		logger:    l.logger.With().Str(FieldComponent, name).Logger(),
		component: name,
	}
}

// WithFields returns a copy of the logger with fields attached to every event.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	zc := l.logger.With()
	for k, v := range fields {
		zc = zc.Interface(k, v)
	}
	return &Logger{logger: zc.Logger(), component: l.component}
}

// WithStream returns a copy of the logger tagged with a stream id.
func (l *Logger) WithStream(streamID string) *Logger {
	return &Logger{
		logger:    l.logger.With().Str(FieldStream, streamID).Logger(),
		component: l.component,
	}
}

// Debug logs a debug message with optional fields.
func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	addFields(l.logger.Debug(), fields...).Msg(msg)
}

// Info logs an info message with optional fields.
func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	addFields(l.logger.Info(), fields...).Msg(msg)
}

// Warn logs a warning message with optional fields.
func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	addFields(l.logger.Warn(), fields...).Msg(msg)
}

// Error logs an error message with optional fields.
func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	addFields(l.logger.Error(), fields...).Msg(msg)
}

// Fatal logs a fatal message and exits.
func (l *Logger) Fatal(msg string, fields ...map[string]interface{}) {
	addFields(l.logger.Fatal(), fields...).Msg(msg)
}

// Z exposes the underlying zerolog.Logger for advanced use.
func (l *Logger) Z() zerolog.Logger { return l.logger }

func addFields(event *zerolog.Event, fields ...map[string]interface{}) *zerolog.Event {
	for _, m := range fields {
		for k, v := range m {
			event = event.Interface(k, v)
		}
	}
	return event
}

func outputWriter(output string) *os.File {
	switch strings.ToLower(output) {
	case "stderr":
		return os.Stderr
	default:
		return os.Stdout
	}
}
