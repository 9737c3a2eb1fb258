package airquality

import (
	"log/slog"
	"net/http"

	"airq-dashboard/internal/modules/airquality/controller"
	"airq-dashboard/internal/modules/airquality/service"
	"airq-dashboard/internal/modules/airquality/store"
	"airq-dashboard/internal/mqtt"
)

// RegisterFeature wires the air quality routes onto mux. subscriber may be
// nil when reload notifications are disabled.
func RegisterFeature(mux *http.ServeMux, st *store.Store, subscriber mqtt.MQTTSubscriber, logger *slog.Logger) *service.Service {
	svc := service.NewService(st, logger)
	if subscriber != nil {
		svc.Register(subscriber)
	}
	controller.NewAirQualityController(svc).RegisterRoutes(mux)
	return svc
}
