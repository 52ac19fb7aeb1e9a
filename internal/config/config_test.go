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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path string, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cmdlogd.yaml")
	writeConfig(t, path, "listen_addr: \":7000\"\nring_capacity: 2048\n")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer s.Close()

	c := s.Current()
	if c.ListenAddr != ":7000" {
		t.Fatalf("ListenAddr = %q, want %q", c.ListenAddr, ":7000")
	}
	if c.RingCapacity != 2048 {
		t.Fatalf("RingCapacity = %d, want 2048", c.RingCapacity)
	}
	if c.StreamBlockSize != 4096 {
		t.Fatalf("StreamBlockSize = %d, want default 4096", c.StreamBlockSize)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestStoreReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cmdlogd.yaml")
	writeConfig(t, path, "ring_capacity: 100\n")

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer s.Close()

	changed := make(chan Config, 1)
	s.OnChange(func(c Config) { changed <- c })

	writeConfig(t, path, "ring_capacity: 999\n")

	select {
	case c := <-changed:
		if c.RingCapacity != 999 {
			t.Fatalf("RingCapacity = %d, want 999", c.RingCapacity)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("config reload did not fire in time")
	}
}
