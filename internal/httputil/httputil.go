// Package httputil holds the small JSON response helpers every handler
// package in this module shares.
package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// ErrorResponse is the JSON body written for any non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// WriteJSON writes status and the JSON encoding of body to w, setting the
// Content-Type header first. Encoding failures are logged; the response
// has already been committed by the time they could occur, so there is
// nothing left to recover.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[httputil] write response: %v", err)
	}
}
