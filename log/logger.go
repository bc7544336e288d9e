// Package log defines the logging contract used across the runtime and a
// zap-backed implementation of it. Components receive a Logger at
// construction time; tests typically inject DiscardLogger.
package log

// Level defines the log severity.
type Level int

const (
	// InfoLevel is the default logging priority.
	InfoLevel Level = iota
	// DebugLevel is typically enabled only during development.
	DebugLevel
	// WarningLevel logs are more important than Info, but don't need
	// individual human review.
	WarningLevel
	// ErrorLevel logs are high-priority.
	ErrorLevel
	// FatalLevel logs a message and then calls os.Exit(1).
	FatalLevel
	// InvalidLevel is an unknown level.
	InvalidLevel Level = -1
)

// String returns the text representation of the level.
func (l Level) String() string {
	switch l {
	case InfoLevel:
		return "INFO"
	case DebugLevel:
		return "DEBUG"
	case WarningLevel:
		return "WARNING"
	case ErrorLevel:
		return "ERROR"
	case FatalLevel:
		return "FATAL"
	default:
		return ""
	}
}

// Logger represents an active logging object that generates lines of output.
type Logger interface {
	// Debug starts a new message with debug level.
	Debug(...any)
	// Debugf starts a new message with debug level.
	Debugf(string, ...any)
	// Info starts a new message with info level.
	Info(...any)
	// Infof starts a new message with info level.
	Infof(string, ...any)
	// Warn starts a new message with warn level.
	Warn(...any)
	// Warnf starts a new message with warn level.
	Warnf(string, ...any)
	// Error starts a new message with error level.
	Error(...any)
	// Errorf starts a new message with error level.
	Errorf(string, ...any)
	// Fatal starts a new message with fatal level. The os.Exit(1) function
	// is called afterwards, which terminates the program immediately.
	Fatal(...any)
	// Fatalf starts a new message with fatal level. The os.Exit(1) function
	// is called afterwards, which terminates the program immediately.
	Fatalf(string, ...any)
	// LogLevel returns the log level being used.
	LogLevel() Level
	// Flush drains any buffered log entries. Call it during shutdown.
	Flush() error
}
