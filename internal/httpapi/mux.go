package httpapi

import (
	"net/http"
)

// NewMux returns a mux with the health check registered. mqtt may be nil
// when reload notifications are disabled.
func NewMux(data Snapshotter, mqtt ConnectionStatus) *http.ServeMux {
	mux := http.NewServeMux()
	registerHealthcheck(mux, data, mqtt)
	return mux
}
