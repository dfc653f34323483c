/*
Copyright (C) 2026  CAST Contributors

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

// Package progress serves live block-by-block compression progress over a
// websocket, one JSON event per sealed block. The upgrade-then-write-loop
// shape is grounded on the teacher's scm/network.go "websocket" builtin.
package progress

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Event is one progress update, emitted each time a block finishes.
type Event struct {
	RunID       uuid.UUID `json:"run_id"`
	BlockIndex  int       `json:"block_index"`
	BlocksTotal int       `json:"blocks_total,omitempty"`
	BytesIn     int64     `json:"bytes_in"`
	BytesOut    int64     `json:"bytes_out"`
	Done        bool      `json:"done,omitempty"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// Hub fans Event values out to every connected websocket client.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]struct{}
}

// NewHub returns an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: map[*websocket.Conn]struct{}{}}
}

// ServeHTTP upgrades the request to a websocket and registers it as a
// listener until the client disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, conn)
		h.mu.Unlock()
		conn.Close()
	}()

	// drain and discard incoming frames so ReadMessage notices a close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// Publish fans ev out to every currently connected client. Write errors
// disconnect that client on its own read loop; Publish never blocks on a
// slow reader beyond one message.
func (h *Hub) Publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.clients {
		_ = conn.WriteMessage(websocket.TextMessage, payload)
	}
}

// OnProgress matches container.Options.OnProgress's signature, so a Hub
// can be wired directly into a Compress call.
func (h *Hub) OnProgress(runID uuid.UUID) func(blockIndex, blocksSoFar int, bytesIn, bytesOut int64, done bool) {
	return func(blockIndex, blocksSoFar int, bytesIn, bytesOut int64, done bool) {
		h.Publish(Event{
			RunID:       runID,
			BlockIndex:  blockIndex,
			BlocksTotal: blocksSoFar,
			BytesIn:     bytesIn,
			BytesOut:    bytesOut,
			Done:        done,
		})
	}
}
