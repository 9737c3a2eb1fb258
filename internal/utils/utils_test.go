package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestWriteJSON(t *testing.T) {
	t.Run("sets content-type and status", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := map[string]string{"key": "value"}
		WriteJSON(w, http.StatusOK, body)

		if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
			t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
		}
		if w.Code != http.StatusOK {
			t.Errorf("Code = %d; want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("encodes body as JSON", func(t *testing.T) {
		w := httptest.NewRecorder()
		body := map[string]string{"foo": "bar"}
		WriteJSON(w, http.StatusCreated, body)

		var got map[string]string
		if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
			t.Fatalf("body is not valid JSON: %v", err)
		}
		if got["foo"] != "bar" {
			t.Errorf("body[foo] = %q; want bar", got["foo"])
		}
	})
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	status := http.StatusBadRequest
	msg := "invalid input"
	WriteError(w, status, msg)

	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q; want application/json; charset=utf-8", got)
	}
	if w.Code != status {
		t.Errorf("Code = %d; want %d", w.Code, status)
	}

	var got map[string]any
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("body is not valid JSON: %v", err)
	}
	if got["error"] != http.StatusText(status) {
		t.Errorf("error = %q; want %q", got["error"], http.StatusText(status))
	}
	if got["message"] != msg {
		t.Errorf("message = %q; want %q", got["message"], msg)
	}
}

func TestWriteHTML(t *testing.T) {
	w := httptest.NewRecorder()
	WriteHTML(w, []byte("<h1>Dashboard</h1>"))

	if got := w.Header().Get("Content-Type"); got != "text/html; charset=utf-8" {
		t.Errorf("Content-Type = %q; want text/html; charset=utf-8", got)
	}
	if w.Code != http.StatusOK {
		t.Errorf("Code = %d; want %d", w.Code, http.StatusOK)
	}
	if got := w.Body.String(); got != "<h1>Dashboard</h1>" {
		t.Errorf("body = %q", got)
	}
}

func TestWritePNG(t *testing.T) {
	w := httptest.NewRecorder()
	png := []byte{0x89, 'P', 'N', 'G'}
	WritePNG(w, png)

	if got := w.Header().Get("Content-Type"); got != "image/png" {
		t.Errorf("Content-Type = %q; want image/png", got)
	}
	if got := w.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q; want no-store", got)
	}
	if got := w.Body.Len(); got != len(png) {
		t.Errorf("body length = %d; want %d", got, len(png))
	}
}
