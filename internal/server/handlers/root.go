package handlers

import (
	"encoding/json"
	"net/http"
)

// RootHandler answers the service banner used by clients as a
// connectivity check.
func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "VibeCheck API is running"})
}
