// Package errors provides the JSON error responses shared by every
// feature handler, plus the ErrorLogger handlers use to report
// internal failures without leaking details to clients.
package errors

import (
	"encoding/json"
	"net/http"
)

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error string `json:"error"`
}

// Render writes a JSON error with the given status and message.
func Render(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorBody{Error: msg})
}

// RenderUnauthorized writes a 401 for requests without a signed-in user.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request) {
	Render(w, http.StatusUnauthorized, "authentication required")
}

// RenderForbidden writes a 403 with the given message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg string) {
	if msg == "" {
		msg = "you don't have permission to do that"
	}
	Render(w, http.StatusForbidden, msg)
}

// RenderNotFound writes a 404 with the given message.
func RenderNotFound(w http.ResponseWriter, msg string) {
	if msg == "" {
		msg = "not found"
	}
	Render(w, http.StatusNotFound, msg)
}

// RenderBadRequest writes a 400 with the given message.
func RenderBadRequest(w http.ResponseWriter, msg string) {
	Render(w, http.StatusBadRequest, msg)
}

// RenderConflict writes a 409 with the given message.
func RenderConflict(w http.ResponseWriter, msg string) {
	Render(w, http.StatusConflict, msg)
}

// RenderInternal writes a generic 500 without exposing the underlying
// error to the client.
func RenderInternal(w http.ResponseWriter) {
	Render(w, http.StatusInternalServerError, "internal server error")
}
