package controller

import (
	"context"
	"net/http"

	"airq-dashboard/internal/modules/airquality/service"
	"airq-dashboard/internal/modules/airquality/store"
)

// DashboardService is what the controller needs from service.Service.
type DashboardService interface {
	Snapshot() *store.Snapshot
	Dashboard(req service.Request) service.DashboardView
	Reload(ctx context.Context) (*store.Snapshot, error)
}

type AirQualityController interface {
	RegisterRoutes(mux *http.ServeMux)
}

type airQualityControllerImpl struct {
	service DashboardService
}

func NewAirQualityController(service DashboardService) AirQualityController {
	return &airQualityControllerImpl{service: service}
}

func (c *airQualityControllerImpl) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", c.handleDashboard)
	mux.HandleFunc("GET /charts/trend.png", c.handleTrendChart)
	mux.HandleFunc("GET /charts/compare/{file}", c.handleComparisonChart)

	mux.HandleFunc("GET /api/v1/stations", c.handleStations)
	mux.HandleFunc("GET /api/v1/stations/{station}/yearly", c.handleYearly)
	mux.HandleFunc("GET /api/v1/stations/{station}/extremes", c.handleStationExtremes)
	mux.HandleFunc("GET /api/v1/extremes", c.handleAllExtremes)
	mux.HandleFunc("GET /api/v1/compare", c.handleCompare)
	mux.HandleFunc("POST /api/v1/reload", c.handleReload)
}
