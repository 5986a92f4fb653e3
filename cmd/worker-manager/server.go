// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"member-pipeline/internal/common/camunda"
)

type topologySource interface {
	Topology(ctx context.Context) (*camunda.Topology, error)
}

// newOpsRouter serves liveness, readiness and Prometheus metrics. Readiness
// requires at least one broker in the gateway topology.
func newOpsRouter(gateway topologySource, workers int) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeStatus(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
	})
	r.Get("/ready", func(w http.ResponseWriter, req *http.Request) {
		topology, err := gateway.Topology(req.Context())
		if err != nil || topology.Brokers == 0 {
			writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "broker unavailable"})
			return
		}
		writeStatus(w, http.StatusOK, map[string]interface{}{
			"status":   "ready",
			"topology": topology,
			"workers":  workers,
		})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	return r
}

func writeStatus(w http.ResponseWriter, code int, body map[string]interface{}) {
	body["time"] = time.Now().Format(time.RFC3339)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
