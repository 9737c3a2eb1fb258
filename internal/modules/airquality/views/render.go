package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
	"net/url"
	"strconv"

	"airq-dashboard/internal/modules/airquality/service"
)

var dashboardTmpl *template.Template

var funcs = template.FuncMap{
	"fmt1": func(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) },
}

// loadTemplatesFromFS loads dashboard templates from the given fs and dir.
// Used by LoadTemplates and by tests to simulate failure scenarios.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.New("dashboard").Funcs(funcs).ParseFS(sub, "*.html", "partials/*.html")
	if err != nil {
		return err
	}
	dashboardTmpl = tmpl
	return nil
}

// LoadTemplates loads embedded dashboard templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// DashboardData is the view model of the dashboard page.
type DashboardData struct {
	View service.DashboardView

	TrendURL string
	BestURL  string
	WorstURL string
}

// NewDashboardData derives the chart URLs for v. Charts whose data is
// missing get no URL and are not shown.
func NewDashboardData(v service.DashboardView) *DashboardData {
	d := &DashboardData{View: v}
	if len(v.Trend) > 0 {
		q := url.Values{}
		q.Set("station", v.SelectedStation)
		q.Set("from", strconv.Itoa(v.Range.From))
		q.Set("to", strconv.Itoa(v.Range.To))
		d.TrendURL = "/charts/trend.png?" + q.Encode()
	}
	if v.Comparison != nil && len(v.Comparison.Results) > 0 {
		d.BestURL = "/charts/compare/best.png"
		d.WorstURL = "/charts/compare/worst.png"
	}
	return d
}

func RenderDashboard(w io.Writer, data *DashboardData) error {
	if dashboardTmpl == nil {
		return errors.New("dashboard template not loaded: call views.LoadTemplates during startup")
	}
	if data == nil {
		data = &DashboardData{}
	}
	return dashboardTmpl.ExecuteTemplate(w, "dashboard.html", data)
}
