/*
 * Copyright 2025 go-proactor Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package logx is the leveled logger used throughout the proactor. It
// mirrors the six-level scheme of the original event loop (trace,
// debug, info, warning, error, critical) on top of logrus, gating each
// call on the configured level before the message is formatted so that
// hot-path Tracef/Debugf calls cost nothing when disabled.
package logx

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Level names the six severities the proactor logs at, in ascending
// order of severity.
type Level int

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarning
	LevelError
	LevelCritical
)

// ParseLevel maps the CLI's --level argument to a Level. Accepts the
// single-letter and full-word forms used by the original tool.
func ParseLevel(s string) (Level, bool) {
	switch s {
	case "t", "trace":
		return LevelTrace, true
	case "d", "debug":
		return LevelDebug, true
	case "i", "info":
		return LevelInfo, true
	case "w", "warning", "warn":
		return LevelWarning, true
	case "e", "error":
		return LevelError, true
	case "c", "critical":
		return LevelCritical, true
	default:
		return LevelInfo, false
	}
}

func (l Level) logrusLevel() logrus.Level {
	switch l {
	case LevelTrace:
		return logrus.TraceLevel
	case LevelDebug:
		return logrus.DebugLevel
	case LevelInfo:
		return logrus.InfoLevel
	case LevelWarning:
		return logrus.WarnLevel
	case LevelError:
		return logrus.ErrorLevel
	case LevelCritical:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// Logger is the interface every proactor component logs through. Each
// method is gated on the configured level and skips argument
// formatting entirely when the level is disabled.
type Logger interface {
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warningf(format string, args ...any)
	Errorf(format string, args ...any)
	Criticalf(format string, args ...any)
}

type logrusLogger struct {
	entry *logrus.Entry
}

// New builds a Logger backed by logrus, writing to w at the given
// level with logrus's key=value text formatter, using the original
// DD-MM-YYYY HH:MM:SS.nnnnnnnnn timestamp format.
func New(w io.Writer, level Level) Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level.logrusLevel())
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "02-01-2006 15:04:05.000000000",
	})
	return &logrusLogger{entry: logrus.NewEntry(l)}
}

// Default builds a Logger writing to stderr at LevelInfo, the startup
// default before CLI args are parsed.
func Default() Logger {
	return New(os.Stderr, LevelInfo)
}

func (l *logrusLogger) Tracef(format string, args ...any) {
	l.entry.Tracef(format, args...)
}

func (l *logrusLogger) Debugf(format string, args ...any) {
	l.entry.Debugf(format, args...)
}

func (l *logrusLogger) Infof(format string, args ...any) {
	l.entry.Infof(format, args...)
}

func (l *logrusLogger) Warningf(format string, args ...any) {
	l.entry.Warnf(format, args...)
}

func (l *logrusLogger) Errorf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

// Criticalf logs a critical message. It does not terminate the
// process — critical is a log level, not an abort. The line is written
// at logrus's error level, so it is labelled and filtered exactly like
// Errorf (LevelCritical also maps to logrus's error level).
func (l *logrusLogger) Criticalf(format string, args ...any) {
	l.entry.Errorf(format, args...)
}

type noopLogger struct{}

func (noopLogger) Tracef(string, ...any)    {}
func (noopLogger) Debugf(string, ...any)    {}
func (noopLogger) Infof(string, ...any)     {}
func (noopLogger) Warningf(string, ...any)  {}
func (noopLogger) Errorf(string, ...any)    {}
func (noopLogger) Criticalf(string, ...any) {}

// Noop returns a Logger that discards everything. Used as the default
// when a component is constructed without an explicit logger, e.g. in
// tests.
func Noop() Logger {
	return noopLogger{}
}
