package controller

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"airq-dashboard/internal/modules/airquality/aggregate"
	"airq-dashboard/internal/modules/airquality/charts"
	"airq-dashboard/internal/modules/airquality/service"
	"airq-dashboard/internal/modules/airquality/views"
	"airq-dashboard/internal/utils"
)

func (c *airQualityControllerImpl) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	req, err := parseDashboardQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := c.service.Dashboard(req)
	var buf bytes.Buffer
	if err := views.RenderDashboard(&buf, views.NewDashboardData(view)); err != nil {
		slog.Error("dashboard template render failed", "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render page")
		return
	}
	utils.WriteHTML(w, buf.Bytes())
}

func (c *airQualityControllerImpl) handleTrendChart(w http.ResponseWriter, r *http.Request) {
	req, err := parseDashboardQuery(r)
	if err != nil {
		utils.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	view := c.service.Dashboard(req)
	var buf bytes.Buffer
	err = charts.RenderTrend(&buf, view.SelectedStation, view.Trend)
	if errors.Is(err, charts.ErrNothingToRender) {
		utils.WriteError(w, http.StatusNotFound, "no trend data for the selected station and range")
		return
	}
	if err != nil {
		slog.Error("trend chart render failed", "station", view.SelectedStation, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	utils.WritePNG(w, buf.Bytes())
}

func (c *airQualityControllerImpl) handleComparisonChart(w http.ResponseWriter, r *http.Request) {
	name, ok := strings.CutSuffix(r.PathValue("file"), ".png")
	if !ok {
		http.NotFound(w, r)
		return
	}
	kind, err := charts.ParseKind(name)
	if err != nil {
		utils.WriteError(w, http.StatusNotFound, err.Error())
		return
	}

	snap := c.service.Snapshot()
	if !hasData(snap) {
		utils.WriteError(w, http.StatusServiceUnavailable, noDataMessage(snap))
		return
	}
	cmp := aggregate.CompareStations(snap.Table, aggregate.Stations(snap.Table), service.ComparisonPollutant)

	var buf bytes.Buffer
	err = charts.RenderComparison(&buf, kind, cmp.Results)
	if errors.Is(err, charts.ErrNothingToRender) {
		utils.WriteError(w, http.StatusNotFound, "no station has enough PM2.5 data")
		return
	}
	if err != nil {
		slog.Error("comparison chart render failed", "kind", kind, "error", err)
		utils.WriteError(w, http.StatusInternalServerError, "failed to render chart")
		return
	}
	utils.WritePNG(w, buf.Bytes())
}
