package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/samber/lo"

	"github.com/0x0806/securechat/internal/matchmaking"
)

// outboxSize is the per-client buffered send queue. A client that falls
// this far behind is treated as gone.
const outboxSize = 256

// newUpgrader configures the websocket upgrader. With no allowed
// origins configured, every origin is accepted (development).
func newUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB

		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			return lo.Contains(allowedOrigins, r.Header.Get("Origin"))
		},
	}
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
// It takes the hub as a dependency.
func ServeWs(hub *matchmaking.Hub, allowedOrigins []string) http.HandlerFunc {
	upgrader := newUpgrader(allowedOrigins)

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			slog.Warn("failed to upgrade connection", "error", err)
			return
		}

		client := &matchmaking.Client{
			Hub:  hub,
			Conn: conn,
			ID:   uuid.NewString(),
			Send: make(chan *matchmaking.Message, outboxSize),
		}

		// Register the client with the hub; the hub assigns its
		// ephemeral handle.
		client.Hub.Register <- client

		// Start the client's read and write pumps in separate
		// goroutines. These handle the client's lifecycle.
		go client.WritePump()
		go client.ReadPump()
	}
}

// Health is a plain liveness endpoint.
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("SecureChat server is healthy."))
}

// Stats reports hub occupancy as JSON.
func Stats(hub *matchmaking.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(hub.Snapshot()); err != nil {
			slog.Debug("stats encode failed", "error", err)
		}
	}
}
