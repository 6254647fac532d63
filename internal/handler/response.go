// Package handler contains the HTTP API handlers.
//
// All responses use a common envelope:
//
//	{"success": true, "data": {...}}
//	{"success": false, "error": "message", "code": "invalid"}
//
// Domain errors are translated to HTTP status codes in error.go; raw
// internal error text never reaches the client.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// envelope is the common response shape.
type envelope struct {
	Success bool              `json:"success"`
	Data    any               `json:"data,omitempty"`
	Error   string            `json:"error,omitempty"`
	Code    string            `json:"code,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeJSON writes a success envelope.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Data: data}); err != nil {
		slog.Default().Error("failed to encode response", "error", err)
	}
}

// writeErrorEnvelope writes a failure envelope with the given status.
func writeErrorEnvelope(w http.ResponseWriter, status int, code, message string, fields map[string]string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{
		Success: false,
		Error:   message,
		Code:    code,
		Fields:  fields,
	})
}

// decodeJSON decodes a request body into dst, limited to 1MB.
func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}
