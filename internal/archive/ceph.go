//go:build ceph

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

// Ceph support links against librados via cgo, so it's gated behind the
// "ceph" build tag, exactly like storage/persistence-ceph.go is in the
// teacher: a default build of cmdlogd never needs librados installed.
package archive

import (
	"context"
	"fmt"
	"sync"

	"github.com/ceph/go-ceph/rados"
)

func init() {
	Register("ceph", newCephSink)
}

// CephSink writes each evicted command as one RADOS object, keyed by its
// audit UUID. Grounded on storage/persistence-ceph.go's CephStorage: a
// lazily-connected *rados.Conn bound to a single pool I/O context.
type CephSink struct {
	mu      sync.Mutex
	conn    *rados.Conn
	ioctx   *rados.IOContext
	prefix  string
	opened  bool
	cfgUser string
	cfgConf string
	cfgPool string
}

func newCephSink(cfg map[string]string) (Sink, error) {
	pool := cfg["pool"]
	if pool == "" {
		return nil, fmt.Errorf("cmdlogd: ceph archive sink requires \"pool\"")
	}
	s := &CephSink{
		prefix:  cfg["prefix"],
		cfgUser: cfg["username"],
		cfgConf: cfg["conf_file"],
		cfgPool: pool,
	}
	if err := s.open(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *CephSink) open() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.opened {
		return nil
	}

	var conn *rados.Conn
	var err error
	if s.cfgUser != "" {
		conn, err = rados.NewConnWithUser(s.cfgUser)
	} else {
		conn, err = rados.NewConn()
	}
	if err != nil {
		return fmt.Errorf("cmdlogd: ceph conn: %w", err)
	}
	if s.cfgConf != "" {
		if err := conn.ReadConfigFile(s.cfgConf); err != nil {
			return fmt.Errorf("cmdlogd: ceph read config: %w", err)
		}
	} else if err := conn.ReadDefaultConfigFile(); err != nil {
		return fmt.Errorf("cmdlogd: ceph read default config: %w", err)
	}
	if err := conn.Connect(); err != nil {
		return fmt.Errorf("cmdlogd: ceph connect: %w", err)
	}
	ioctx, err := conn.OpenIOContext(s.cfgPool)
	if err != nil {
		conn.Shutdown()
		return fmt.Errorf("cmdlogd: ceph open pool %s: %w", s.cfgPool, err)
	}

	s.conn = conn
	s.ioctx = ioctx
	s.opened = true
	return nil
}

func (s *CephSink) objectName(e Entry) string {
	if s.prefix == "" {
		return e.Key.String()
	}
	return s.prefix + "/" + e.Key.String()
}

func (s *CephSink) Store(_ context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ioctx.WriteFull(s.objectName(e), e.Payload); err != nil {
		return fmt.Errorf("cmdlogd: ceph write %s: %w", s.objectName(e), err)
	}
	return nil
}

func (s *CephSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.opened {
		return nil
	}
	s.ioctx.Destroy()
	s.conn.Shutdown()
	s.opened = false
	return nil
}
