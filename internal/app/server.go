package app

import (
	"net/http"
	"time"

	"gomate/internal/config"
	"gomate/internal/logger"
)

// StreamPaths are served without the server write timeout.
var StreamPaths = []string{"/v1/connectivity/stream"}

// NewServer creates the HTTP server for handler.
func NewServer(cfg config.ServerConfig, handler http.Handler, log logger.Logger) *http.Server {
	return &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      withoutWriteDeadline(handler, log, StreamPaths...),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

// withoutWriteDeadline clears the connection write deadline for requests to
// paths, so server-sent event streams outlive WriteTimeout.
func withoutWriteDeadline(next http.Handler, log logger.Logger, paths ...string) http.Handler {
	streams := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		streams[p] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := streams[r.URL.Path]; ok {
			if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil {
				log.Warn("Failed to clear write deadline for stream", "path", r.URL.Path, "error", err)
			}
		}
		next.ServeHTTP(w, r)
	})
}
