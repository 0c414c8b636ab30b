package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vitalgraph/vitalgraph/internal/alerts"
	"github.com/vitalgraph/vitalgraph/internal/logging"
)

const wsWriteTimeout = 10 * time.Second

// WSHub pushes escalation alerts to connected websocket clients. It
// registers itself with the alert service as a single subscriber and fans
// alerts out to every open connection.
type WSHub struct {
	upgrader websocket.Upgrader
	conns    map[*websocket.Conn]struct{}
	mu       sync.Mutex
	closed   bool
}

// NewWSHub creates an empty hub.
func NewWSHub() *WSHub {
	return &WSHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Local single-user daemon, origin checks add nothing here.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		conns: make(map[*websocket.Conn]struct{}),
	}
}

// ID implements alerts.Subscriber.
func (h *WSHub) ID() string { return "ws-hub" }

// Send implements alerts.Subscriber by broadcasting the alert to every
// connected client. Dead connections are dropped.
func (h *WSHub) Send(alert alerts.Alert) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
		if err := conn.WriteJSON(alert); err != nil {
			logging.WithField("error", err.Error()).Warn("ws alert write failed, dropping client")
			conn.Close()
			delete(h.conns, conn)
		}
	}
	return nil
}

// HandleWS upgrades the request and keeps the connection registered until
// the client goes away.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.WithField("error", err.Error()).Warn("ws upgrade failed")
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.conns[conn] = struct{}{}
	h.mu.Unlock()

	// Clients only listen; the read loop exists to notice disconnects.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		h.mu.Lock()
		delete(h.conns, conn)
		h.mu.Unlock()
		conn.Close()
	}()
}

// Close drops all connections and rejects new ones.
func (h *WSHub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}
