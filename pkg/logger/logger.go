package logger

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger keeps the printf-style API used across the services while emitting
// structured JSON through logrus.
type Logger struct {
	base  *logrus.Logger
	entry *logrus.Entry
}

func New() *Logger {
	base := logrus.New()
	base.SetOutput(os.Stdout)
	base.SetFormatter(&logrus.JSONFormatter{})
	base.SetLevel(levelFromEnv())
	return &Logger{base: base, entry: logrus.NewEntry(base)}
}

// NewWithService tags every entry with the service name.
func NewWithService(service string) *Logger {
	l := New()
	return l.WithField("service", service)
}

func (l *Logger) WithField(key string, value interface{}) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithField(key, value)}
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{base: l.base, entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *Logger) Debug(format string, args ...interface{}) {
	l.entry.Debugf(format, args...)
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.entry.Infof(format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.entry.Warnf(format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.entry.Errorf(format, args...)
}

// Level reports the active level, mostly for tests.
func (l *Logger) Level() logrus.Level {
	return l.base.GetLevel()
}

func levelFromEnv() logrus.Level {
	level, err := logrus.ParseLevel(strings.ToLower(os.Getenv("LOG_LEVEL")))
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}
