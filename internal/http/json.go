package http

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as the response body. Every handler in this package
// responds through it, success and error alike, so callers always get
// the same content type.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	// encode errors past this point mean the client went away
	_ = json.NewEncoder(w).Encode(v)
}
