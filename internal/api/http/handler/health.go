package handler

import "net/http"

// Health reports process liveness. Store reachability is exposed on the
// admin gRPC health service.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}
