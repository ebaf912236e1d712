package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"menu-recommender/internal/catalog"
	"menu-recommender/internal/common/logger"
)

const readyTimeout = 3 * time.Second

// newStatusMux serves /health (process up), /ready (every check passes and a
// catalog is loaded) and /metrics.
func newStatusMux(checks map[string]func(context.Context) error, holder *catalog.Holder, log logger.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
	})

	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
		defer cancel()

		status := http.StatusOK
		results := make(map[string]string, len(checks)+1)
		for name, check := range checks {
			if err := check(ctx); err != nil {
				results[name] = err.Error()
				status = http.StatusServiceUnavailable
				log.Warn("readiness check failed", map[string]interface{}{"check": name, "error": err.Error()})
				continue
			}
			results[name] = "ok"
		}

		body := map[string]interface{}{"checks": results}
		if store := holder.Current(); store != nil {
			results["catalog"] = "ok"
			body["catalogItems"] = store.Len()
		} else {
			results["catalog"] = "not loaded"
			status = http.StatusServiceUnavailable
		}

		if status == http.StatusOK {
			body["status"] = "ready"
		} else {
			body["status"] = "not ready"
		}
		writeJSON(w, status, body)
	})

	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
