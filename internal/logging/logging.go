// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the logrus loggers used across stages.
package logging

import (
	"io"
	"strings"

	"github.com/sirupsen/logrus"
)

// Fields is an alias so callers need not import logrus for field maps.
type Fields = logrus.Fields

// New returns a logger writing to w at the given level ("debug", "info",
// "warn", "error"; anything else is info). format "json" selects the JSON
// formatter; everything else uses the text formatter.
func New(w io.Writer, level, format string) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetLevel(ParseLevel(level))
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{DisableColors: true, FullTimestamp: true})
	}
	return logger
}

// ParseLevel maps a level name to a logrus level, defaulting to info.
func ParseLevel(value string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// OrDiscard returns l, or a discarding logger when l is nil.
func OrDiscard(l logrus.FieldLogger) logrus.FieldLogger {
	if l == nil {
		return Discard()
	}
	return l
}
