package views

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"testing/fstest"

	"airq-dashboard/internal/modules/airquality/service"
	"airq-dashboard/internal/modules/airquality/types"
)

func TestLoadTemplates_success(t *testing.T) {
	err := LoadTemplates()
	if err != nil {
		t.Fatalf("LoadTemplates() = %v; want nil", err)
	}
	if dashboardTmpl == nil {
		t.Fatal("LoadTemplates() left dashboardTmpl nil")
	}
}

func TestLoadTemplates_failure_sub(t *testing.T) {
	// Empty FS has no "templates" directory; fs.Sub fails.
	emptyFS := fstest.MapFS{}
	err := loadTemplatesFromFS(emptyFS, "templates")
	if err == nil {
		t.Fatal("loadTemplatesFromFS(emptyFS, \"templates\") = nil; want error")
	}
}

func TestLoadTemplates_failure_parse(t *testing.T) {
	badFS := fstest.MapFS{
		"templates/base.html":           {Data: []byte("{{ .")},
		"templates/partials/notes.html": {Data: []byte("ok")},
	}
	err := loadTemplatesFromFS(badFS, "templates")
	if err == nil {
		t.Fatal("loadTemplatesFromFS(badFS, \"templates\") = nil; want error")
	}
}

func TestRenderDashboard_notLoaded(t *testing.T) {
	prev := dashboardTmpl
	dashboardTmpl = nil
	t.Cleanup(func() { dashboardTmpl = prev })

	var buf bytes.Buffer
	err := RenderDashboard(&buf, nil)
	if err == nil {
		t.Fatal("RenderDashboard() = nil; want error when templates not loaded")
	}
	if !strings.Contains(err.Error(), "not loaded") {
		t.Errorf("err = %q; want message containing \"not loaded\"", err.Error())
	}
}

func TestRenderDashboard_emptyData(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}

	var buf bytes.Buffer
	if err := RenderDashboard(&buf, nil); err != nil {
		t.Fatalf("RenderDashboard(nil) = %v; want nil", err)
	}
	out := buf.String()
	for _, want := range []string{"<!DOCTYPE html>", "Air Quality Dashboard", "<main"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q; got %q", want, out)
		}
	}
	if strings.Contains(out, "station-selector") {
		t.Error("station selector rendered without stations")
	}
}

func sampleView() service.DashboardView {
	best := types.ExtremumMonth{YearMonth: types.YearMonth{Year: 2015, Month: 8}, Value: 31.25}
	worst := types.ExtremumMonth{YearMonth: types.YearMonth{Year: 2014, Month: 1}, Value: 180}
	return service.DashboardView{
		Source:          "csv:merged:merged_air_quality.csv",
		Stations:        []string{"Dongsi", "Tiantan"},
		SelectedStation: "Tiantan",
		Bounds:          types.YearRange{From: 2013, To: 2017},
		Range:           types.YearRange{From: 2014, To: 2016},
		Rows:            36,
		Trend:           []service.TrendSeries{{Pollutant: types.PM25, Points: []service.TrendPoint{{Year: 2014, Value: 90}}}},
		Best:            &best,
		Worst:           &worst,
		Comparison: &types.Comparison{Results: []types.StationResult{
			{Station: "Dongsi", Best: best, Worst: worst},
		}},
		Notices: []service.Notice{{Kind: service.NoticeMissingColumns, Source: "Broken.csv", Message: "Broken.csv: missing columns: year"}},
	}
}

func TestNewDashboardData(t *testing.T) {
	d := NewDashboardData(sampleView())
	if d.TrendURL != "/charts/trend.png?from=2014&station=Tiantan&to=2016" {
		t.Errorf("TrendURL = %q", d.TrendURL)
	}
	if d.BestURL != "/charts/compare/best.png" || d.WorstURL != "/charts/compare/worst.png" {
		t.Errorf("comparison URLs = %q, %q", d.BestURL, d.WorstURL)
	}

	empty := NewDashboardData(service.DashboardView{SelectedStation: "Dongsi"})
	if empty.TrendURL != "" || empty.BestURL != "" {
		t.Errorf("URLs set without data: %+v", empty)
	}
}

func TestRenderDashboard_withData(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}

	var buf bytes.Buffer
	if err := RenderDashboard(&buf, NewDashboardData(sampleView())); err != nil {
		t.Fatalf("RenderDashboard(data) = %v; want nil", err)
	}
	out := buf.String()
	for _, want := range []string{
		"<!DOCTYPE html>",
		"station-selector",
		`<option value="Tiantan" selected>`,
		`name="from" min="2013" max="2017" value="2014"`,
		`name="to" min="2013" max="2017" value="2016"`,
		"/charts/trend.png?from=2014&amp;station=Tiantan&amp;to=2016",
		"/charts/compare/best.png",
		"2015-8",
		"31.2",
		"2014-1",
		"Broken.csv",
		"missing_columns",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderDashboard_escapesStationNames(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}
	v := service.DashboardView{
		Stations:        []string{"<script>"},
		SelectedStation: "<script>",
		Notices:         []service.Notice{},
	}
	var buf bytes.Buffer
	if err := RenderDashboard(&buf, NewDashboardData(v)); err != nil {
		t.Fatalf("RenderDashboard() = %v", err)
	}
	if strings.Contains(buf.String(), "<script>") {
		t.Error("station name was not escaped")
	}
}

// Ensure RenderDashboard propagates write errors (e.g. closed writer).
func TestRenderDashboard_writeError(t *testing.T) {
	if err := LoadTemplates(); err != nil {
		t.Fatalf("LoadTemplates(): %v", err)
	}

	w := &failingWriter{err: io.ErrClosedPipe}
	err := RenderDashboard(w, &DashboardData{})
	if err == nil {
		t.Fatal("RenderDashboard(failingWriter) = nil; want error")
	}
	if err != io.ErrClosedPipe {
		t.Errorf("RenderDashboard() = %v; want %v", err, io.ErrClosedPipe)
	}
}

type failingWriter struct{ err error }

func (f *failingWriter) Write([]byte) (int, error) { return 0, f.err }
