// Package monitor exposes a debugging HTTP surface over a running engine:
// JSON state endpoints plus rendered charts of the motion trail and gate
// confidence. It reads only published snapshots, never engine internals.
package monitor

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/flowbox-vr/flowbox/internal/engine"
	"github.com/flowbox-vr/flowbox/internal/monitoring"
	"github.com/flowbox-vr/flowbox/internal/version"
)

// WebServer handles the HTTP monitoring interface for a running engine.
type WebServer struct {
	address string
	engine  *engine.Engine
	server  *http.Server
}

// WebServerConfig contains configuration options for the web server.
type WebServerConfig struct {
	Address string
	Engine  *engine.Engine
}

// NewWebServer creates a new web server with the provided configuration.
func NewWebServer(config WebServerConfig) *WebServer {
	ws := &WebServer{
		address: config.Address,
		engine:  config.Engine,
	}
	ws.server = &http.Server{
		Addr:    ws.address,
		Handler: ws.setupRoutes(),
	}
	return ws
}

// Start begins the HTTP server in a goroutine and shuts it down when the
// context is cancelled.
func (ws *WebServer) Start(ctx context.Context) error {
	go func() {
		monitoring.Logf("monitor: listening on %s", ws.address)
		if err := ws.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			monitoring.Logf("monitor: server error: %v", err)
		}
	}()

	<-ctx.Done()
	monitoring.Logf("monitor: shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()

	if err := ws.server.Shutdown(shutdownCtx); err != nil {
		if err := ws.server.Close(); err != nil {
			monitoring.Logf("monitor: force close error: %v", err)
		}
	}
	return nil
}

func (ws *WebServer) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", ws.handleHealth)
	mux.HandleFunc("/api/engine/stats", ws.handleStats)
	mux.HandleFunc("/api/engine/pattern", ws.handlePattern)
	mux.HandleFunc("/api/engine/preference", ws.handlePreference)
	mux.HandleFunc("/api/engine/targets", ws.handleTargets)
	mux.HandleFunc("/debug/charts/motion", ws.handleMotionChart)
	mux.HandleFunc("/debug/charts/confidence", ws.handleConfidenceChart)

	return mux
}

func (ws *WebServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		monitoring.Logf("monitor: encode response: %v", err)
	}
}

func (ws *WebServer) writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, map[string]string{
		"status":  "ok",
		"version": version.String(),
	})
}

func (ws *WebServer) handleStats(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, ws.engine.Stats())
}

func (ws *WebServer) handlePattern(w http.ResponseWriter, r *http.Request) {
	p := ws.engine.MovementPattern()
	ws.writeJSON(w, map[string]any{
		"type":           p.Type,
		"avg_position":   p.AvgPosition,
		"trend":          p.Trend,
		"rotation_trend": p.RotationTrend,
		"speed":          p.Speed,
		"confidence":     p.Confidence,
	})
}

func (ws *WebServer) handlePreference(w http.ResponseWriter, r *http.Request) {
	p := ws.engine.StancePreference()
	ws.writeJSON(w, map[string]any{
		"preferred":            p.Preferred,
		"stability":            p.Stability,
		"transition_frequency": p.TransitionFrequency,
		"optimal_zone":         p.OptimalZone,
		"reach_distance":       p.ReachDistance,
	})
}

func (ws *WebServer) handleTargets(w http.ResponseWriter, r *http.Request) {
	ws.writeJSON(w, ws.engine.QueuedTargets())
}
