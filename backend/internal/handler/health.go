package handler

import (
	"net/http"

	"github.com/itchan-dev/msgboard/shared/logger"
)

// Health is a liveness probe endpoint.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// Ready returns 503 naming a dependency whose probe fails.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	for name, checker := range h.health {
		if err := checker.Ping(); err != nil {
			logger.Log.Warn("readiness check failed", "dependency", name, "error", err)
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(name + " unavailable"))
			return
		}
	}

	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
