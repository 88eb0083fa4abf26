package handlers

import (
	"encoding/json"
	"net/http"
)

// ErrorResponder writes err as an error response for r.
type ErrorResponder func(w http.ResponseWriter, r *http.Request, err error)

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
