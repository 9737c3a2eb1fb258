package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"airq-dashboard/internal/modules/airquality/service"
	"airq-dashboard/internal/modules/airquality/types"
)

func parseYear(q string, name string) (*int, error) {
	if q == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(q)
	if err != nil {
		return nil, fmt.Errorf("invalid '%s' (expected year)", name)
	}
	return &n, nil
}

func parseYearBounds(r *http.Request) (from, to *int, err error) {
	q := r.URL.Query()
	if from, err = parseYear(q.Get("from"), "from"); err != nil {
		return nil, nil, err
	}
	if to, err = parseYear(q.Get("to"), "to"); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && *from > *to {
		return nil, nil, errors.New("'from' must be <= 'to'")
	}
	return from, to, nil
}

func parseDashboardQuery(r *http.Request) (service.Request, error) {
	from, to, err := parseYearBounds(r)
	if err != nil {
		return service.Request{}, err
	}
	q := r.URL.Query()
	return service.Request{
		Station:  strings.TrimSpace(q.Get("station")),
		From:     from,
		To:       to,
		RangeFor: strings.TrimSpace(q.Get("range_for")),
	}, nil
}

// parseYearRange fills missing bounds from the data's own bounds.
func parseYearRange(r *http.Request, bounds types.YearRange) (types.YearRange, error) {
	from, to, err := parseYearBounds(r)
	if err != nil {
		return types.YearRange{}, err
	}
	rng := bounds
	if from != nil {
		rng.From = *from
	}
	if to != nil {
		rng.To = *to
	}
	if rng.From > rng.To {
		return types.YearRange{}, errors.New("'from' must be <= 'to'")
	}
	return rng, nil
}

// parsePollutant reads a single pollutant, PM2.5 when absent.
func parsePollutant(r *http.Request) (types.Pollutant, error) {
	s := r.URL.Query().Get("pollutant")
	if s == "" {
		return service.ComparisonPollutant, nil
	}
	return types.ParsePollutant(s)
}

// parsePollutants reads a comma-separated pollutant list; nil means all.
func parsePollutants(r *http.Request) ([]types.Pollutant, error) {
	s := r.URL.Query().Get("pollutant")
	if s == "" {
		return nil, nil
	}
	var out []types.Pollutant
	for _, part := range strings.Split(s, ",") {
		p, err := types.ParsePollutant(part)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

func parseStations(r *http.Request) []string {
	var out []string
	for _, v := range r.URL.Query()["stations"] {
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
