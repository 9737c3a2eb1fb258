package httpapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"airq-dashboard/internal/config"
	"airq-dashboard/internal/modules/airquality/store"
	"airq-dashboard/internal/modules/airquality/types"
)

type fakeData struct{ snap *store.Snapshot }

func (f fakeData) Snapshot() *store.Snapshot { return f.snap }

type fakeConn bool

func (f fakeConn) IsConnected() bool { return bool(f) }

func getHealthz(t *testing.T, data Snapshotter, conn ConnectionStatus) (*httptest.ResponseRecorder, healthResponse) {
	t.Helper()
	mux := NewMux(data, conn)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	var body healthResponse
	if rr.Code == http.StatusOK {
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode: %v", err)
		}
	}
	return rr, body
}

func TestHealthz_notLoaded(t *testing.T) {
	rr, _ := getHealthz(t, fakeData{}, nil)
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d; want 503", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "not loaded") {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestHealthz_ok(t *testing.T) {
	snap := &store.Snapshot{
		Source:     "csv:merged:x.csv",
		Generation: 2,
		Table:      types.Table{Readings: []types.Reading{{Station: "A", Year: 2014, Month: 1}}},
	}
	rr, body := getHealthz(t, fakeData{snap: snap}, fakeConn(true))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rr.Code)
	}
	want := healthResponse{Status: "ok", Source: "csv:merged:x.csv", Rows: 1, Generation: 2, MQTT: "connected"}
	if body != want {
		t.Errorf("body = %+v; want %+v", body, want)
	}
}

func TestHealthz_noDataStillOK(t *testing.T) {
	snap := &store.Snapshot{Err: types.ErrNoDataFound}
	rr, body := getHealthz(t, fakeData{snap: snap}, fakeConn(false))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d; want 200", rr.Code)
	}
	if body.DataError != "no data found" || body.MQTT != "disconnected" {
		t.Errorf("body = %+v", body)
	}
}

func TestHealthz_mqttDisabled(t *testing.T) {
	_, body := getHealthz(t, fakeData{snap: &store.Snapshot{}}, nil)
	if body.MQTT != "disabled" {
		t.Errorf("mqtt = %q; want disabled", body.MQTT)
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := requestLogger(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("short and stout"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pot", nil))

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["msg"] != "http request" || entry["path"] != "/pot" || entry["status"] != float64(http.StatusTeapot) || entry["bytes"] != float64(15) {
		t.Errorf("log entry = %v", entry)
	}
	if entry["level"] != "INFO" {
		t.Errorf("level = %v; want INFO", entry["level"])
	}
}

func TestRequestLogger_serverErrorsLogAtError(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	h := requestLogger(logger, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, errors.New("boom").Error(), http.StatusInternalServerError)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !strings.Contains(buf.String(), `"level":"ERROR"`) {
		t.Errorf("log = %q; want ERROR level", buf.String())
	}
}

func TestNewServer(t *testing.T) {
	srv := NewServer(config.Config{HTTPAddr: ":9999"}, http.NewServeMux(), nil)
	if srv.Addr != ":9999" {
		t.Errorf("Addr = %q; want :9999", srv.Addr)
	}
	if srv.Handler == nil || srv.ReadHeaderTimeout == 0 {
		t.Errorf("server not fully configured: %+v", srv)
	}
}
