package main

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// newUpgrader accepts same-origin requests, or any of the listed origins
// when some are configured.
func newUpgrader(allowed []string) websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if len(allowed) == 0 {
		return upgrader
	}

	origins := make(map[string]bool, len(allowed))
	for _, origin := range allowed {
		origins[origin] = true
	}
	upgrader.CheckOrigin = func(r *http.Request) bool {
		return origins["*"] || origins[r.Header.Get("Origin")]
	}
	return upgrader
}

// handleWebSocket handles WebSocket connections
func (app *application) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	// Upgrade HTTP connection to WebSocket
	ws, err := app.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		app.Logger.Error("Failed to upgrade to WebSocket", zap.Error(err))
		return
	}

	conn := app.Hub.Serve(ws)

	app.Logger.Info("WebSocket connection established",
		zap.String("connection_id", conn.ID.String()),
		zap.String("remote_addr", r.RemoteAddr))
}
