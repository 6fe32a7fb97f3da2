package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"

	"github.com/conneroisu/pagecraft/internal/editor"
	"github.com/conneroisu/pagecraft/internal/logging"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	// Clients only listen; anything they send is discarded.
	maxMessageSize = 512

	sendBuffer = 64
)

// UpdateMessage is what the change feed sends to browsers.
type UpdateMessage struct {
	Type      string              `json:"type"`
	Event     *editor.ChangeEvent `json:"event,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// hub fans engine change events out to websocket clients.
type hub struct {
	clients        map[*client]struct{}
	originPatterns []string
	logger         logging.Logger
	closed         bool
	mutex          sync.RWMutex
}

func newHub(originPatterns []string, logger logging.Logger) *hub {
	return &hub{
		clients:        make(map[*client]struct{}),
		originPatterns: originPatterns,
		logger:         logger,
	}
}

// run forwards engine events until ctx is done.
func (h *hub) run(ctx context.Context, engine *editor.Engine) {
	events := engine.Watch()
	defer engine.Unwatch(events)

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			h.broadcast(UpdateMessage{Type: "change", Event: &event, Timestamp: event.Timestamp})
		}
	}
}

func (h *hub) broadcast(msg UpdateMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Warn(context.Background(), err, "Failed to marshal message")
		return
	}

	h.mutex.RLock()
	var slow []*client
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mutex.RUnlock()

	for _, c := range slow {
		h.logger.Warn(context.Background(), nil, "Dropping slow websocket client")
		h.remove(c)
		go c.conn.Close(websocket.StatusTryAgainLater, "client too slow")
	}
}

func (h *hub) add(c *client) bool {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *hub) remove(c *client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	delete(h.clients, c)
}

func (h *hub) count() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

func (h *hub) closeAll() {
	h.mutex.Lock()
	clients := h.clients
	h.clients = make(map[*client]struct{})
	h.closed = true
	h.mutex.Unlock()

	// Close waits for the peer's close frame, so don't hold shutdown on it.
	for c := range clients {
		go c.conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: s.hub.originPatterns,
	})
	if err != nil {
		s.logger.Warn(r.Context(), err, "WebSocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxMessageSize)

	c := &client{conn: conn, send: make(chan []byte, sendBuffer)}
	if !s.hub.add(c) {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer s.hub.remove(c)
	s.logger.Debug(r.Context(), "Client connected", "clients", s.hub.count())

	ctx := conn.CloseRead(r.Context())
	hello, _ := json.Marshal(UpdateMessage{Type: "connected", Timestamp: time.Now()})
	if err := write(ctx, conn, hello); err != nil {
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case message := <-c.send:
			if err := write(ctx, conn, message); err != nil {
				if websocket.CloseStatus(err) == -1 {
					s.logger.Debug(ctx, "WebSocket write failed", "error", err)
				}
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeWait)
			err := conn.Ping(pingCtx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, message []byte) error {
	writeCtx, cancel := context.WithTimeout(ctx, writeWait)
	defer cancel()
	return conn.Write(writeCtx, websocket.MessageText, message)
}
