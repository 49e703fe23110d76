package handlers

import "net/http"

// Health handles GET /health - simple liveness probe.
//
// Returns 200 OK as long as the HTTP server is responsive.
func Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
