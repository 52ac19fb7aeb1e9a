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

// Package admin is cmdlogd's operator-facing surface: an interactive
// console built the way scm/prompt.go builds memcp's REPL, plus a
// read-only live-tail WebSocket for watching the log from a browser.
package admin

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	"github.com/launix-de/cmdlogd/internal/cmdlog"
	"github.com/launix-de/cmdlogd/internal/server"
)

const prompt = "\033[32mcmdlogd>\033[0m "

// Console is an interactive operator REPL over stdin/stdout, grounded on
// scm/prompt.go's readline.NewEx + Readline loop. Unlike the teacher's
// Scheme evaluator, the commands here are a small fixed set: stats, tail,
// workers, clear, quit.
type Console struct {
	guard *cmdlog.Guard
	sup   *server.Supervisor
}

// NewConsole builds a console over the given guard and supervisor.
func NewConsole(guard *cmdlog.Guard, sup *server.Supervisor) *Console {
	return &Console{guard: guard, sup: sup}
}

// Run starts the readline loop and blocks until the operator exits (EOF or
// the "quit" command) or an unrecoverable readline error occurs.
func (c *Console) Run() error {
	l, err := readline.NewEx(&readline.Config{
		Prompt:            prompt,
		HistoryFile:       "/tmp/.cmdlogd-history",
		InterruptPrompt:   "^C",
		EOFPrompt:         "quit",
		HistorySearchFold: true,
	})
	if err != nil {
		return fmt.Errorf("cmdlogd: admin console: %w", err)
	}
	defer l.Close()
	l.CaptureExitSignal()

	for {
		line, err := l.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("cmdlogd: admin console readline: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if c.dispatch(l.Stdout(), line) {
			return nil
		}
	}
}

// dispatch runs one command, returning true if the console should exit.
func (c *Console) dispatch(out io.Writer, line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "quit", "exit":
		return true
	case "stats":
		s := c.guard.StatsSnapshot()
		fmt.Fprintf(out, "commands=%d total_bytes=%d append_cursor=%d\n", s.Count, s.Total, s.Cursor)
	case "workers":
		if c.sup == nil {
			fmt.Fprintln(out, "no supervisor attached")
			break
		}
		for _, w := range c.sup.Registry.Snapshot() {
			fmt.Fprintf(out, "worker %d %s\n", w.ID, w.Addr)
		}
	case "tail":
		n := 256
		if len(fields) > 1 {
			if parsed, err := strconv.Atoi(fields[1]); err == nil {
				n = parsed
			}
		}
		snap := c.guard.Snapshot()
		if n > len(snap) {
			n = len(snap)
		}
		if n < 0 {
			n = 0
		}
		out.Write(snap[len(snap)-n:])
	case "clear":
		c.guard.Clear()
		fmt.Fprintln(out, "log cleared")
	default:
		fmt.Fprintf(out, "unknown command %q (try: stats, workers, tail [n], clear, quit)\n", fields[0])
	}
	return false
}
