// Package server exposes the relay over HTTP: websocket upgrades plus health,
// stats and metrics endpoints.
package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"slices"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/onair/internal/config"
	"github.com/BioHazard786/onair/internal/metrics"
	"github.com/BioHazard786/onair/internal/signaling"
)

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Rooms       int `json:"rooms"`
	Members     int `json:"members"`
	Connections int `json:"connections"`
}

// NewRouter wires every route the relay serves.
func NewRouter(hub *signaling.Hub, m *metrics.Metrics, cfg *config.Server, logger *slog.Logger) http.Handler {
	upgrader := newUpgrader(cfg.AllowedOrigins)
	ws := ServeWs(hub, upgrader, logger)

	mux := http.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/api/ws", ws)
	mux.HandleFunc("GET /health", healthHandler)
	mux.Handle("GET /stats", statsHandler(hub))
	mux.Handle("GET /metrics", metrics.PrometheusHandler(m))

	return withCORS(cfg, mux)
}

func newUpgrader(allowed []string) *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  64 * 1024, // 64 KB
		WriteBufferSize: 64 * 1024, // 64 KB
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			// Non-browser clients send no Origin.
			return origin == "" || originAllowed(allowed, origin)
		},
	}
}

// ServeWs returns an http.HandlerFunc that handles websocket requests.
// It takes the hub as a dependency.
func ServeWs(hub *signaling.Hub, upgrader *websocket.Upgrader, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !websocket.IsWebSocketUpgrade(r) {
			http.Error(w, "Expected WebSocket", http.StatusUpgradeRequired)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Debug("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
			return
		}

		client := signaling.NewClient(hub, conn)
		if !hub.Register(client) {
			conn.Close()
			return
		}

		// The pumps own the connection from here on.
		go client.WritePump()
		go client.ReadPump()
	}
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func statsHandler(hub *signaling.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s := hub.Registry().Stats()
		writeJSON(w, http.StatusOK, StatsResponse{
			Rooms:       s.Rooms,
			Members:     s.Members,
			Connections: hub.Connections(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func withCORS(cfg *config.Server, next http.Handler) http.Handler {
	anyOrigin := cfg.AllowsAnyOrigin()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		switch {
		case anyOrigin:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && originAllowed(cfg.AllowedOrigins, origin):
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}

		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func originAllowed(allowed []string, origin string) bool {
	return slices.Contains(allowed, "*") || slices.Contains(allowed, origin)
}
