package server

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/brk3/fifty/internal/logger"
	"github.com/brk3/fifty/internal/tracker"
)

// Hub fans tracker change events out to every websocket connection a user has
// open, so multiple devices stay in step without polling.
type Hub struct {
	mu    sync.Mutex
	conns map[string][]*websocket.Conn
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string][]*websocket.Conn)}
}

func (h *Hub) Add(uid string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[uid] = append(h.conns[uid], conn)
	logger.Debug("Websocket connection added", "user_id", uid, "connections", len(h.conns[uid]))
}

func (h *Hub) Remove(uid string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(uid, conn)
}

func (h *Hub) removeLocked(uid string, conn *websocket.Conn) {
	conns := h.conns[uid]
	for i, c := range conns {
		if c == conn {
			h.conns[uid] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[uid]) == 0 {
		delete(h.conns, uid)
	}
}

// Send pushes an event to all of the user's connections. A connection that
// fails to write is closed and dropped.
func (h *Hub) Send(uid string, ev tracker.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.conns[uid]
	if !ok {
		return
	}

	data, err := json.Marshal(ev)
	if err != nil {
		logger.Error("Failed to marshal websocket event", "user_id", uid, "error", err)
		return
	}

	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			logger.Debug("Websocket write failed, dropping connection", "user_id", uid, "error", err)
			_ = conn.Close()
			h.removeLocked(uid, conn)
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Origin checks are the CORS layer's problem for the API; the mobile
		// client sends no Origin header at all.
		return true
	},
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	user := s.identityFromRequest(r)

	// Make sure a tracker exists so this user's events start flowing.
	if _, err := s.trackerFor(r.Context(), user); err != nil {
		logger.Error("Failed to load tracker", "user_id", user.UID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Websocket upgrade failed", "user_id", user.UID, "error", err)
		return
	}

	s.hub.Add(user.UID, conn)
	websocketClients.Inc()
	defer func() {
		s.hub.Remove(user.UID, conn)
		websocketClients.Dec()
		_ = conn.Close()
		logger.Debug("Websocket connection closed", "user_id", user.UID)
	}()

	// Drain the read side until the peer goes away. Clients only listen.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
