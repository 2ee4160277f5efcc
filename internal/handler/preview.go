package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"

	"camstreamer/internal/logger"
	"camstreamer/internal/preview"
)

var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// PreviewWebsocketHandler upgrades the request and hands the viewer to the
// hub until the viewer goes away.
func PreviewWebsocketHandler(hub *preview.Hub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Warning("WebSocket upgrade error: %v", err)
			return
		}
		hub.Serve(connection)
	}
}

// PreviewStatusHandler returns the monitor snapshot as JSON.
func PreviewStatusHandler(monitor *preview.Monitor, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")
		if err := json.NewEncoder(w).Encode(monitor.Status()); err != nil {
			logger.Error("Failed to write preview status: %v", err)
		}
	}
}
