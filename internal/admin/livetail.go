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
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/launix-de/cmdlogd/internal/cmdlog"
	"github.com/launix-de/cmdlogd/internal/logging"
)

// LiveTailPollInterval is how often the tail handler checks the guard for
// newly appended bytes.
const LiveTailPollInterval = 250 * time.Millisecond

// LiveTailHandler upgrades to a WebSocket and pushes every byte appended to
// guard from the moment of connection onward, read-only (a browser watcher
// can never seek or write). Grounded on scm/network.go's "websocket"
// builtin: same upgrader, same read-loop-detects-close shape, but here the
// server only ever writes.
type LiveTailHandler struct {
	guard *cmdlog.Guard
	log   *logging.Logger
}

func NewLiveTailHandler(guard *cmdlog.Guard, log *logging.Logger) *LiveTailHandler {
	return &LiveTailHandler{guard: guard, log: log}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

func (h *LiveTailHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnf("livetail: upgrade failed: %v", err)
		return
	}
	defer ws.Close()

	// A client-initiated close is detected on the read side, same as
	// scm/network.go's websocket read loop; we don't expect any messages
	// from the browser so the read's only purpose is noticing the close.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	cursor := h.guard.AppendCursor()
	ticker := time.NewTicker(LiveTailPollInterval)
	defer ticker.Stop()

	buf := make([]byte, 4096)
	for {
		select {
		case <-closed:
			return
		case <-ticker.C:
			for {
				n := h.guard.ReadAt(cursor, buf)
				if n == 0 {
					break
				}
				if err := ws.WriteMessage(websocket.TextMessage, buf[:n]); err != nil {
					return
				}
				cursor += n
				if n < len(buf) {
					break
				}
			}
		}
	}
}
