package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/solvetrack/tagstat-engine/internal/tagstats"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Hub fans refresh events out to websocket subscribers. Implements
// tagstats.EventSink.
type Hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]bool
}

// NewHub creates an empty event hub
func NewHub() *Hub {
	return &Hub{
		conns: make(map[*websocket.Conn]bool),
	}
}

// PublishRefresh broadcasts one refresh event to all subscribers.
// Connections that fail to accept the write are dropped.
func (h *Hub) PublishRefresh(event tagstats.RefreshEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal refresh event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Debug("dropping event subscriber", "error", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

func (h *Hub) add(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[conn] = true
}

func (h *Hub) remove(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[conn] {
		delete(h.conns, conn)
		conn.Close()
	}
}

// handleEventsWS upgrades the connection and streams refresh events until
// the client goes away. Inbound messages are ignored.
func (s *Server) handleEventsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	s.hub.add(conn)
	slog.Info("event subscriber connected", "remote_addr", r.RemoteAddr)

	defer func() {
		s.hub.remove(conn)
		slog.Info("event subscriber disconnected", "remote_addr", r.RemoteAddr)
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				slog.Debug("websocket read error", "error", err)
			}
			return
		}
	}
}
