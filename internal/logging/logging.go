/*
Copyright (C) 2023, 2026  Carl-Philip Hänsch

    This program is free software: you can redistribute it and/or modify
    it under the terms of the GNU General Public License as published by
    the Free Software Foundation, either version 3 of the License, or
    (at your option) any later version.

    This program is distributed in the hope that it will be useful,
    but WITHOUT ANY WARRANTY; without even the implied warranty of
    MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
    GNU General Public License for more details.

    You should have received a copy of the GNU General Public License
    along with this program.  If not, see <https://www.gnu.org/licenses/>.
*/

// Package logging gives cmdlogd the same leveled, severity-tagged logging
// discipline third_party/go-mysqlstack/xlog gives memcp's MySQL front end,
// built around the standard log package instead of a bespoke writer.
package logging

import (
	"io"
	"log"
	"os"
	"sync/atomic"

	units "github.com/docker/go-units"
)

// Level is a logging severity, ordered the same way xlog orders them.
type Level int32

const (
	LevelTrace Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelTrace:
		return "TRACE"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger wraps a *log.Logger with a severity floor: calls below the floor
// are skipped before formatting, so a Tracef in a hot path costs one atomic
// load when tracing is off.
type Logger struct {
	out   *log.Logger
	level atomic.Int32
}

// New builds a Logger writing to w with the given minimum level.
func New(w io.Writer, level Level) *Logger {
	l := &Logger{out: log.New(w, "", log.LstdFlags|log.Lmicroseconds)}
	l.level.Store(int32(level))
	return l
}

// Default builds a Logger writing to stderr at LevelInfo, cmdlogd's normal
// running mode (spec §6: daemon mode logs to syslog-equivalent output; here
// that's stderr, left to the caller to redirect).
func Default() *Logger {
	return New(os.Stderr, LevelInfo)
}

// SetLevel changes the minimum severity that is emitted.
func (l *Logger) SetLevel(level Level) {
	l.level.Store(int32(level))
}

func (l *Logger) enabled(level Level) bool {
	return int32(level) >= l.level.Load()
}

func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.enabled(level) {
		return
	}
	l.out.Printf("["+level.String()+"] "+format, args...)
}

func (l *Logger) Tracef(format string, args ...any) { l.logf(LevelTrace, format, args...) }
func (l *Logger) Infof(format string, args ...any)  { l.logf(LevelInfo, format, args...) }
func (l *Logger) Warnf(format string, args ...any)  { l.logf(LevelWarn, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(LevelError, format, args...) }

// HumanBytes renders n using docker/go-units, e.g. for log lines reporting
// how much of the ring an eviction reclaimed ("evicted 3.2kB").
func HumanBytes(n int) string {
	return units.HumanSize(float64(n))
}
