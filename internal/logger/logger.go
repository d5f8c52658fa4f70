// Package logger wraps logrus the way the teacher's pkg/logger package
// does, giving every component a consistently configured structured
// logger instead of reaching for the standard library's log package.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger embeds *logrus.Logger so call sites use the familiar
// WithField/Info/Error surface without re-exporting every method.
type Logger struct {
	*logrus.Logger
}

// Config controls level/format/output the way the teacher's
// LoggingConfig does.
type Config struct {
	Level  string
	Format string // "json" or "text"
	Output io.Writer
}

// New builds a Logger from Config, defaulting to info/text/stderr.
func New(cfg Config) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		l.SetFormatter(&logrus.JSONFormatter{})
	} else {
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	l.SetOutput(out)

	return &Logger{Logger: l}
}

// NewDefault builds a Logger tagged with component, reading level/format
// from FH_LOG_LEVEL/FH_LOG_FORMAT if set.
func NewDefault(component string) *Logger {
	l := New(Config{
		Level:  envOr("FH_LOG_LEVEL", "info"),
		Format: envOr("FH_LOG_FORMAT", "text"),
	})
	l.Logger.AddHook(componentHook{component: component})
	return l
}

type componentHook struct{ component string }

func (h componentHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h componentHook) Fire(entry *logrus.Entry) error {
	entry.Data["component"] = h.component
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
