package utils

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Error("failed to write JSON", "error", err)
	}
}

// WriteError writes {"error": <status text>, "message": msg}.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, map[string]any{
		"error":   http.StatusText(status),
		"message": msg,
	})
}

// WriteHTML writes an already rendered page.
func WriteHTML(w http.ResponseWriter, b []byte) {
	writeBody(w, "text/html; charset=utf-8", b)
}

// WritePNG writes a rendered chart. Charts follow the live snapshot, so they
// are never cached.
func WritePNG(w http.ResponseWriter, b []byte) {
	w.Header().Set("Cache-Control", "no-store")
	writeBody(w, "image/png", b)
}

func writeBody(w http.ResponseWriter, contentType string, b []byte) {
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(b); err != nil {
		slog.Error("failed to write response", "content_type", contentType, "error", err)
	}
}
