package httpapi

import (
	"net/http"

	"airq-dashboard/internal/modules/airquality/store"
	"airq-dashboard/internal/utils"
)

// Snapshotter exposes the currently loaded data.
type Snapshotter interface {
	Snapshot() *store.Snapshot
}

// ConnectionStatus reports broker connectivity.
type ConnectionStatus interface {
	IsConnected() bool
}

type healthchecker interface {
	handleHealthz(w http.ResponseWriter, r *http.Request)
}

type healthcheckerImpl struct {
	data Snapshotter
	mqtt ConnectionStatus
}

type healthResponse struct {
	Status     string `json:"status"`
	Source     string `json:"source,omitempty"`
	Rows       int    `json:"rows"`
	Generation int    `json:"generation"`
	DataError  string `json:"dataError,omitempty"`
	MQTT       string `json:"mqtt"`
}

func NewHealthchecker(data Snapshotter, mqtt ConnectionStatus) healthchecker {
	return &healthcheckerImpl{data: data, mqtt: mqtt}
}

func (h *healthcheckerImpl) handleHealthz(w http.ResponseWriter, r *http.Request) {
	snap := h.data.Snapshot()
	if snap == nil {
		utils.WriteError(w, http.StatusServiceUnavailable, "data not loaded yet")
		return
	}

	resp := healthResponse{
		Status:     "ok",
		Source:     snap.Source,
		Rows:       snap.Table.Len(),
		Generation: snap.Generation,
		MQTT:       "disabled",
	}
	if snap.Err != nil {
		resp.DataError = snap.Err.Error()
	}
	if h.mqtt != nil {
		resp.MQTT = "disconnected"
		if h.mqtt.IsConnected() {
			resp.MQTT = "connected"
		}
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

func registerHealthcheck(mux *http.ServeMux, data Snapshotter, mqtt ConnectionStatus) {
	healthchecker := NewHealthchecker(data, mqtt)
	mux.HandleFunc("GET /healthz", healthchecker.handleHealthz)
}
