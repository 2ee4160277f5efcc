package route

import (
	"net/http"

	"github.com/rs/cors"

	"camstreamer/internal/config"
	"camstreamer/internal/handler"
	"camstreamer/internal/logger"
	"camstreamer/internal/middleware"
	"camstreamer/internal/preview"
)

// SetupRoutes registers the preview endpoints and log endpoints, then wraps
// the mux with CORS and the token middleware.
func SetupRoutes(hub *preview.Hub, monitor *preview.Monitor, cfg config.PreviewConfig, logger *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Preview endpoints
	mux.HandleFunc("/api/preview", handler.PreviewWebsocketHandler(hub, logger))
	mux.HandleFunc("/api/preview/status", handler.PreviewStatusHandler(monitor, logger))

	// Log endpoints
	mux.HandleFunc("/logs/info", handler.ShowInfoLogsHandler(logger))
	mux.HandleFunc("/logs/warning", handler.ShowWarningLogsHandler(logger))
	mux.HandleFunc("/logs/error", handler.ShowErrorLogsHandler(logger))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{middleware.TokenHeader},
		MaxAge:         86400,
	})

	return middleware.TokenMiddleware(cfg.Token)(corsHandler.Handler(mux))
}
