package log

import (
	"io"
	"os"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// DefaultLogger is a global logger writing InfoLevel and above to stdout.
	DefaultLogger Logger = New(InfoLevel, os.Stdout)

	// DebugLogger is a global logger writing DebugLevel and above to stdout.
	DebugLogger Logger = New(DebugLevel, os.Stdout)

	// DiscardLogger drops every log message. It is meant for tests.
	DiscardLogger Logger = discardLogger{}
)

// Log implements Logger with zap as the underlying logging library.
type Log struct {
	logger  *zap.Logger
	sugar   *zap.SugaredLogger
	level   Level
	outputs []io.Writer
}

// enforce compilation error
var _ Logger = (*Log)(nil)

// New creates a zap-backed Logger writing to the given writers at the given
// level. When no writer is supplied, stdout is used.
func New(level Level, writers ...io.Writer) *Log {
	if len(writers) == 0 {
		writers = []io.Writer{os.Stdout}
	}

	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(syncers...),
		toZapLevel(level),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	return &Log{
		logger:  logger,
		sugar:   logger.Sugar(),
		level:   level,
		outputs: writers,
	}
}

// Debug starts a new message with debug level.
func (l *Log) Debug(v ...any) {
	l.sugar.Debug(v...)
}

// Debugf starts a new message with debug level.
func (l *Log) Debugf(format string, v ...any) {
	l.sugar.Debugf(format, v...)
}

// Info starts a new message with info level.
func (l *Log) Info(v ...any) {
	l.sugar.Info(v...)
}

// Infof starts a new message with info level.
func (l *Log) Infof(format string, v ...any) {
	l.sugar.Infof(format, v...)
}

// Warn starts a new message with warn level.
func (l *Log) Warn(v ...any) {
	l.sugar.Warn(v...)
}

// Warnf starts a new message with warn level.
func (l *Log) Warnf(format string, v ...any) {
	l.sugar.Warnf(format, v...)
}

// Error starts a new message with error level.
func (l *Log) Error(v ...any) {
	l.sugar.Error(v...)
}

// Errorf starts a new message with error level.
func (l *Log) Errorf(format string, v ...any) {
	l.sugar.Errorf(format, v...)
}

// Fatal logs a message then calls os.Exit(1).
func (l *Log) Fatal(v ...any) {
	l.sugar.Fatal(v...)
}

// Fatalf logs a message then calls os.Exit(1).
func (l *Log) Fatalf(format string, v ...any) {
	l.sugar.Fatalf(format, v...)
}

// LogLevel returns the log level being used.
func (l *Log) LogLevel() Level {
	return l.level
}

// Flush syncs the underlying zap logger. Sync failures on the individual
// outputs are combined into a single error.
func (l *Log) Flush() error {
	var err error
	err = multierr.Append(err, l.logger.Sync())
	for _, writer := range l.outputs {
		if syncer, ok := writer.(interface{ Sync() error }); ok {
			err = multierr.Append(err, syncer.Sync())
		}
	}
	return err
}

func toZapLevel(level Level) zapcore.Level {
	switch level {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarningLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}
