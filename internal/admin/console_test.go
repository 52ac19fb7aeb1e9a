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

package admin

import (
	"bytes"
	"strings"
	"testing"

	"github.com/launix-de/cmdlogd/internal/cmdlog"
)

func TestConsoleStatsCommand(t *testing.T) {
	guard := cmdlog.NewGuard(1024)
	guard.AppendAndAdvance([]byte("hello\n"))

	c := NewConsole(guard, nil)
	var out bytes.Buffer
	if exit := c.dispatch(&out, "stats"); exit {
		t.Fatalf("stats should not exit the console")
	}
	if !strings.Contains(out.String(), "commands=1") {
		t.Fatalf("got %q, want it to mention commands=1", out.String())
	}
}

func TestConsoleTailCommand(t *testing.T) {
	guard := cmdlog.NewGuard(1024)
	guard.AppendAndAdvance([]byte("abcdef\n"))

	c := NewConsole(guard, nil)
	var out bytes.Buffer
	c.dispatch(&out, "tail 3")
	if out.String() != "ef\n" {
		t.Fatalf("got %q, want %q", out.String(), "ef\n")
	}
}

func TestConsoleClearCommand(t *testing.T) {
	guard := cmdlog.NewGuard(1024)
	guard.AppendAndAdvance([]byte("x\n"))

	c := NewConsole(guard, nil)
	var out bytes.Buffer
	c.dispatch(&out, "clear")
	if guard.StatsSnapshot().Count != 0 {
		t.Fatalf("log was not cleared")
	}
}

func TestConsoleQuitCommandExits(t *testing.T) {
	guard := cmdlog.NewGuard(1024)
	c := NewConsole(guard, nil)
	var out bytes.Buffer
	if exit := c.dispatch(&out, "quit"); !exit {
		t.Fatalf("quit should signal exit")
	}
}

func TestConsoleUnknownCommand(t *testing.T) {
	guard := cmdlog.NewGuard(1024)
	c := NewConsole(guard, nil)
	var out bytes.Buffer
	c.dispatch(&out, "bogus")
	if !strings.Contains(out.String(), "unknown command") {
		t.Fatalf("got %q", out.String())
	}
}
