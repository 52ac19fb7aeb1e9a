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

// Package config generalizes storage/settings.go's package-level,
// onexit-registered tunables struct into a YAML file cmdlogd can reload
// without a restart.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/dc0d/onexit"
	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Config holds spec.md §6's tunables plus the additive archive/admin
// knobs. Zero values are filled in by Defaults.
type Config struct {
	ListenAddr        string `yaml:"listen_addr"`
	RingCapacity      int    `yaml:"ring_capacity"`
	LineBufferInitCap int    `yaml:"line_buffer_init_capacity"`
	StreamBlockSize   int    `yaml:"stream_block_size"`
	PollIntervalMS    int    `yaml:"poll_interval_ms"`
	TimestampMS       int    `yaml:"timestamp_interval_ms"`

	AdminListenAddr string `yaml:"admin_listen_addr"`

	Archive struct {
		Enabled bool              `yaml:"enabled"`
		Scheme  string            `yaml:"scheme"`
		Codec   string            `yaml:"codec"`
		Options map[string]string `yaml:"options"`
	} `yaml:"archive"`
}

// Defaults mirrors storage/settings.go's hardcoded SettingsT initializer.
func Defaults() Config {
	var c Config
	c.ListenAddr = ":9000"
	c.RingCapacity = 1024 * 1024
	c.LineBufferInitCap = 1024
	c.StreamBlockSize = 4096
	c.PollIntervalMS = 2000
	c.TimestampMS = 10000
	c.AdminListenAddr = ":9001"
	return c
}

func load(path string) (Config, error) {
	c := Defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("cmdlogd: read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &c); err != nil {
		return Config{}, fmt.Errorf("cmdlogd: parse config %s: %w", path, err)
	}
	return c, nil
}

// Store is a hot-reloadable Config, watched via fsnotify. It's the
// generalization of storage.Settings: readers call Current(), the watcher
// goroutine swaps in freshly parsed configs as the file changes underneath
// it.
type Store struct {
	path    string
	current atomic.Pointer[Config]
	watcher *fsnotify.Watcher

	mu        sync.Mutex
	listeners []func(Config)
}

// Load reads path once, starts watching its parent directory for changes
// (editors replace-via-rename, so watching the file handle itself misses
// the new inode) and registers an onexit hook that stops the watcher,
// mirroring storage/settings.go's onexit.Register(cleanup) call.
func Load(path string) (*Store, error) {
	c, err := load(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("cmdlogd: create config watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("cmdlogd: watch config dir: %w", err)
	}

	s := &Store{path: path, watcher: w}
	s.current.Store(&c)

	go s.watch()
	onexit.Register(func() { s.watcher.Close() })

	return s, nil
}

func (s *Store) watch() {
	for {
		select {
		case ev, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != filepath.Clean(s.path) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			s.reload()
		case _, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (s *Store) reload() {
	c, err := load(s.path)
	if err != nil {
		// Keep serving the last good config; a half-written file during an
		// editor save is common and shouldn't disrupt a running server.
		return
	}
	s.current.Store(&c)

	s.mu.Lock()
	listeners := append([]func(Config){}, s.listeners...)
	s.mu.Unlock()
	for _, fn := range listeners {
		fn(c)
	}
}

// Current returns the most recently loaded Config.
func (s *Store) Current() Config {
	return *s.current.Load()
}

// OnChange registers fn to be called (with the new Config) every time the
// file is successfully reloaded. cmd/cmdlogd uses it to pass the new poll
// and timestamp intervals to the supervisor's setters; a supervisor that is
// already running keeps the tickers it started with.
func (s *Store) OnChange(fn func(Config)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Close stops the file watcher.
func (s *Store) Close() error {
	return s.watcher.Close()
}
