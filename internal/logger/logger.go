package logger

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"camstreamer/internal/config"
)

// Logger provides leveled logging (debug/info/warning/error) to stdout/stderr
// and, when a log directory is configured, to one file per level.
type Logger struct {
	zl     *zap.Logger
	sugar  *zap.SugaredLogger
	logDir string
}

// LogFiles lists the per-level files written inside the log directory.
var LogFiles = []string{"info.log", "warning.log", "error.log"}

// NewLogger builds a Logger named after the component.
func NewLogger(cfg config.LogConfig, component string) (*Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
	}

	encoder := newEncoder(cfg.Format)

	stdoutLevels := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= level && l < zapcore.ErrorLevel
	})
	stderrLevels := zap.LevelEnablerFunc(func(l zapcore.Level) bool {
		return l >= level && l >= zapcore.ErrorLevel
	})

	cores := []zapcore.Core{
		zapcore.NewCore(encoder, zapcore.Lock(os.Stdout), stdoutLevels),
		zapcore.NewCore(encoder, zapcore.Lock(os.Stderr), stderrLevels),
	}

	if cfg.Directory != "" {
		fileCores, err := fileCores(cfg.Directory, encoder, level)
		if err != nil {
			return nil, err
		}
		cores = append(cores, fileCores...)
	}

	zl := zap.New(zapcore.NewTee(cores...)).Named(component)
	return &Logger{zl: zl, sugar: zl.Sugar(), logDir: cfg.Directory}, nil
}

// FromZap wraps an existing zap logger.
func FromZap(zl *zap.Logger) *Logger {
	return &Logger{zl: zl, sugar: zl.Sugar()}
}

// NewNop returns a Logger that discards everything.
func NewNop() *Logger {
	zl := zap.NewNop()
	return &Logger{zl: zl, sugar: zl.Sugar()}
}

func newEncoder(format string) zapcore.Encoder {
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encCfg.ConsoleSeparator = " - "

	if format == "json" {
		return zapcore.NewJSONEncoder(encCfg)
	}
	return zapcore.NewConsoleEncoder(encCfg)
}

// fileCores opens info.log, warning.log and error.log for appending, each
// receiving exactly its own level (debug lines go to info.log).
func fileCores(dir string, encoder zapcore.Encoder, min zapcore.Level) ([]zapcore.Core, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	enablers := []zap.LevelEnablerFunc{
		func(l zapcore.Level) bool { return l >= min && l < zapcore.WarnLevel },
		func(l zapcore.Level) bool { return l >= min && l == zapcore.WarnLevel },
		func(l zapcore.Level) bool { return l >= min && l >= zapcore.ErrorLevel },
	}

	cores := make([]zapcore.Core, 0, len(LogFiles))
	for i, name := range LogFiles {
		file, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", name, err)
		}
		cores = append(cores, zapcore.NewCore(encoder.Clone(), zapcore.Lock(file), enablers[i]))
	}
	return cores, nil
}

// Named returns a child logger for a sub-component.
func (l *Logger) Named(component string) *Logger {
	zl := l.zl.Named(component)
	return &Logger{zl: zl, sugar: zl.Sugar(), logDir: l.logDir}
}

// Debug writes a formatted debug-level log entry.
func (l *Logger) Debug(format string, v ...interface{}) {
	l.sugar.Debugf(format, v...)
}

// Info writes a formatted info-level log entry.
func (l *Logger) Info(format string, v ...interface{}) {
	l.sugar.Infof(format, v...)
}

// Warning writes a formatted warning-level log entry.
func (l *Logger) Warning(format string, v ...interface{}) {
	l.sugar.Warnf(format, v...)
}

// Error writes a formatted error-level log entry.
func (l *Logger) Error(format string, v ...interface{}) {
	l.sugar.Errorf(format, v...)
}

// Dir returns the log directory, empty when file logging is off.
func (l *Logger) Dir() string {
	return l.logDir
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.zl.Sync()
}
