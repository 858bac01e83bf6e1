package httpapi

import "net/http"

// handleHealth answers liveness/readiness probes with an empty 200.
func (*Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
