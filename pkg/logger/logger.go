// Package logger provides component loggers shared by the server and client.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel mirrors the levels accepted on the command line and in the environment.
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

// String returns the upper-case level name.
func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLevel converts a level name (case-insensitive) into a LogLevel.
func ParseLevel(name string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "DEBUG":
		return DEBUG, nil
	case "INFO", "":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", name)
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case DEBUG:
		return zapcore.DebugLevel
	case WARN:
		return zapcore.WarnLevel
	case ERROR:
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// globalLevel is shared by every component logger built by this package.
var globalLevel = zap.NewAtomicLevelAt(zapcore.InfoLevel)

var (
	Server = newComponent("server")
	Client = newComponent("client")
)

// Logger is a named, printf-style logger.
type Logger struct {
	component string

	mu    sync.RWMutex
	sugar *zap.SugaredLogger
	file  *os.File
}

func newComponent(component string) *Logger {
	l := &Logger{component: component}
	l.sugar = buildCore(nil).Named(component).Sugar()
	return l
}

// New wraps an existing zap logger, typically zaptest.NewLogger in tests.
func New(component string, z *zap.Logger) *Logger {
	return &Logger{component: component, sugar: z.Named(component).Sugar()}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{component: "nop", sugar: zap.NewNop().Sugar()}
}

// SetGlobalLogLevel changes the level of every component logger at once.
func SetGlobalLogLevel(level LogLevel) {
	globalLevel.SetLevel(level.zapLevel())
}

// GlobalLogLevel reports the current shared level.
func GlobalLogLevel() LogLevel {
	switch globalLevel.Level() {
	case zapcore.DebugLevel:
		return DEBUG
	case zapcore.WarnLevel:
		return WARN
	case zapcore.ErrorLevel:
		return ERROR
	}
	return INFO
}

// InitializeFileLogging points every built-in component at <dir>/<component>.log.
func InitializeFileLogging(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	for _, l := range []*Logger{Server, Client} {
		if err := l.SetFile(filepath.Join(dir, l.component+".log")); err != nil {
			return err
		}
	}
	return nil
}

func buildCore(file *os.File) *zap.Logger {
	consoleCfg := zap.NewDevelopmentEncoderConfig()
	consoleCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleCfg), zapcore.Lock(os.Stderr), globalLevel),
	}
	if file != nil {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()),
			zapcore.AddSync(file),
			globalLevel,
		))
	}
	return zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.AddCallerSkip(1))
}

// SetFile tees this logger's output into the file at path, appending.
func (l *Logger) SetFile(path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file != nil {
		l.file.Close()
	}
	l.file = f
	l.sugar = buildCore(f).Named(l.component).Sugar()
	return nil
}

// With returns a child logger carrying the given key/value pairs.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return &Logger{component: l.component, sugar: l.sugar.With(keysAndValues...)}
}

func (l *Logger) s() *zap.SugaredLogger {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.sugar
}

func (l *Logger) Debug(format string, args ...interface{}) { l.s().Debugf(format, args...) }
func (l *Logger) Info(format string, args ...interface{})  { l.s().Infof(format, args...) }
func (l *Logger) Warn(format string, args ...interface{})  { l.s().Warnf(format, args...) }
func (l *Logger) Error(format string, args ...interface{}) { l.s().Errorf(format, args...) }

// Fatal logs and exits the process.
func (l *Logger) Fatal(format string, args ...interface{}) { l.s().Fatalf(format, args...) }

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.s().Sync()
}
