package internal

import (
	"io"
	"log"
	"os"
	"strings"
)

// LogLevel orders verbosity from ERROR (quietest) to TRACE.
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
	LogLevelTrace
)

var levelNames = [...]string{"ERROR", "WARN", "INFO", "DEBUG", "TRACE"}

func (l LogLevel) String() string {
	if l < LogLevelError || int(l) >= len(levelNames) {
		return "INFO"
	}
	return levelNames[l]
}

// ParseLogLevel maps a LOG_LEVEL value to a level. Unknown or empty
// values mean INFO.
func ParseLogLevel(s string) LogLevel {
	s = strings.ToUpper(strings.TrimSpace(s))
	for i, name := range levelNames {
		if name == s {
			return LogLevel(i)
		}
	}
	return LogLevelInfo
}

// Logger writes "[LEVEL] [component] message" lines for every level up to
// its own. A nil sink means the standard library's default logger.
type Logger struct {
	level     LogLevel
	component string
	sink      *log.Logger
}

func NewLogger(level LogLevel) *Logger {
	return &Logger{level: level}
}

// NewDefaultLogger reads LOG_LEVEL from the environment.
func NewDefaultLogger() *Logger {
	return NewLogger(ParseLogLevel(os.Getenv("LOG_LEVEL")))
}

// WithOutput returns a copy writing to w with the standard log flags.
func (l *Logger) WithOutput(w io.Writer) *Logger {
	c := *l
	c.sink = log.New(w, "", log.LstdFlags)
	return &c
}

// With tags lines with a component. Tagging an already tagged logger
// nests the names, e.g. "API.Runs".
func (l *Logger) With(component string) *Logger {
	c := *l
	if c.component != "" {
		component = c.component + "." + component
	}
	c.component = component
	return &c
}

func (l *Logger) Error(format string, args ...interface{}) { l.logf(LogLevelError, format, args) }
func (l *Logger) Warn(format string, args ...interface{})  { l.logf(LogLevelWarn, format, args) }
func (l *Logger) Info(format string, args ...interface{})  { l.logf(LogLevelInfo, format, args) }
func (l *Logger) Debug(format string, args ...interface{}) { l.logf(LogLevelDebug, format, args) }
func (l *Logger) Trace(format string, args ...interface{}) { l.logf(LogLevelTrace, format, args) }

func (l *Logger) logf(level LogLevel, format string, args []interface{}) {
	if level > l.level {
		return
	}
	var b strings.Builder
	b.WriteString("[" + level.String() + "] ")
	if l.component != "" {
		b.WriteString("[" + l.component + "] ")
	}
	b.WriteString(format)
	if l.sink != nil {
		l.sink.Printf(b.String(), args...)
		return
	}
	log.Printf(b.String(), args...)
}

func (l *Logger) GetLevel() LogLevel {
	return l.level
}

// DefaultLogger is shared by packages that are not handed a logger.
var DefaultLogger = NewDefaultLogger()
