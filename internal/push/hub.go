// Package push serves live task updates over WebSocket. A file watcher
// detects edits to any of the supervised task files and the hub rebroadcasts
// a fresh snapshot to every connected dashboard client.
package push

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// Frame is the wire envelope sent to clients. Type is "tasks-update" or
// "projects-update"; Data carries the full snapshot, never a delta.
type Frame struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// SnapshotFunc produces the frames a newly connected client should receive.
type SnapshotFunc func() []Frame

// Hub tracks connected WebSocket clients and fans frames out to them.
type Hub struct {
	snapshot SnapshotFunc

	mu      sync.RWMutex
	clients map[string]*websocket.Conn
}

// NewHub creates a Hub. snapshot may be nil, in which case new clients
// receive nothing until the next broadcast.
func NewHub(snapshot SnapshotFunc) *Hub {
	return &Hub{
		snapshot: snapshot,
		clients:  map[string]*websocket.Conn{},
	}
}

// HandleWS upgrades the request, sends the initial snapshot, and holds the
// connection open until the client goes away. Inbound messages are drained
// and ignored: the protocol is one-way.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return
	}

	id := uuid.NewString()
	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
		_ = conn.Close(websocket.StatusNormalClosure, "")
	}()

	ctx := r.Context()
	if h.snapshot != nil {
		for _, frame := range h.snapshot() {
			if err := writeFrame(ctx, conn, frame); err != nil {
				return
			}
		}
	}

	for {
		if _, _, err := conn.Read(ctx); err != nil {
			return
		}
	}
}

// Broadcast sends a frame to every connected client. A client that cannot be
// written to within the timeout is skipped; it will catch up on its next
// reconnect.
func (h *Hub) Broadcast(frame Frame) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.clients))
	for _, c := range h.clients {
		conns = append(conns, c)
	}
	h.mu.RUnlock()

	for _, c := range conns {
		ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
		_ = writeFrame(ctx, c, frame)
		cancel()
	}
}

// ClientCount returns the number of currently connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func writeFrame(ctx context.Context, conn *websocket.Conn, frame Frame) error {
	msg, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return conn.Write(ctx, websocket.MessageText, msg)
}
