package controller

import (
	"net/http/httptest"
	"reflect"
	"testing"

	"airq-dashboard/internal/modules/airquality/types"
)

func TestParseYearRange(t *testing.T) {
	bounds := types.YearRange{From: 2013, To: 2017}
	tests := []struct {
		name    string
		query   string
		want    types.YearRange
		wantErr string
	}{
		{name: "defaults to bounds", query: "", want: bounds},
		{name: "from only", query: "from=2015", want: types.YearRange{From: 2015, To: 2017}},
		{name: "to only", query: "to=2014", want: types.YearRange{From: 2013, To: 2014}},
		{name: "both", query: "from=2014&to=2014", want: types.YearRange{From: 2014, To: 2014}},
		{name: "outside bounds is kept", query: "from=2000&to=2001", want: types.YearRange{From: 2000, To: 2001}},
		{name: "invalid from", query: "from=x", wantErr: "invalid 'from' (expected year)"},
		{name: "invalid to", query: "to=2014.5", wantErr: "invalid 'to' (expected year)"},
		{name: "inverted", query: "from=2016&to=2014", wantErr: "'from' must be <= 'to'"},
		{name: "from after bounds end", query: "from=2020", wantErr: "'from' must be <= 'to'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/x?"+tt.query, nil)
			got, err := parseYearRange(req, bounds)
			if tt.wantErr != "" {
				if err == nil || err.Error() != tt.wantErr {
					t.Fatalf("err = %v; want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("err = %v; want nil", err)
			}
			if got != tt.want {
				t.Errorf("got %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestParseDashboardQuery(t *testing.T) {
	req := httptest.NewRequest("GET", "/?station=+Dongsi+&from=2014", nil)
	got, err := parseDashboardQuery(req)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if got.Station != "Dongsi" || got.From == nil || *got.From != 2014 || got.To != nil || got.RangeFor != "" {
		t.Errorf("got %+v", got)
	}

	req = httptest.NewRequest("GET", "/?station=Tiantan&from=2014&to=2015&range_for=Dongsi", nil)
	got, err = parseDashboardQuery(req)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if got.RangeFor != "Dongsi" {
		t.Errorf("RangeFor = %q; want Dongsi", got.RangeFor)
	}
}

func TestParsePollutants(t *testing.T) {
	req := httptest.NewRequest("GET", "/x?pollutant=pm2.5,NO2", nil)
	got, err := parsePollutants(req)
	if err != nil {
		t.Fatalf("err = %v", err)
	}
	if !reflect.DeepEqual(got, []types.Pollutant{types.PM25, types.NO2}) {
		t.Errorf("got %v", got)
	}

	if got, err := parsePollutants(httptest.NewRequest("GET", "/x", nil)); err != nil || got != nil {
		t.Errorf("empty query = %v, %v; want nil, nil", got, err)
	}
	if _, err := parsePollutants(httptest.NewRequest("GET", "/x?pollutant=CO", nil)); err == nil {
		t.Error("unknown pollutant err = nil")
	}
}

func TestParsePollutant_default(t *testing.T) {
	got, err := parsePollutant(httptest.NewRequest("GET", "/x", nil))
	if err != nil || got != types.PM25 {
		t.Errorf("got %v, %v; want PM2.5", got, err)
	}
}

func TestParseStations(t *testing.T) {
	req := httptest.NewRequest("GET", "/x?stations=A,+B&stations=C,", nil)
	if got := parseStations(req); !reflect.DeepEqual(got, []string{"A", "B", "C"}) {
		t.Errorf("got %v", got)
	}
}
