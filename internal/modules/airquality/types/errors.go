package types

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoDataFound means no input file could be located.
	ErrNoDataFound = errors.New("no data found")
	// ErrMissingColumns is matched by every *MissingColumnsError.
	ErrMissingColumns = errors.New("missing columns")
	// ErrEmptyRange means the selected year range holds no rows.
	ErrEmptyRange = errors.New("no rows in selected year range")
	// ErrEmptyResult means no row matched the requested station.
	ErrEmptyResult = errors.New("no rows for station")
	// ErrInsufficientData means no row could contribute to an extremum.
	ErrInsufficientData = errors.New("insufficient data")

	ErrUnknownPollutant = errors.New("unknown pollutant")
	ErrInvalidExtremum  = errors.New("invalid extremum")
)

// MissingColumnsError reports required columns absent from a source.
type MissingColumnsError struct {
	Source  string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("%s: missing columns: %s", e.Source, strings.Join(e.Columns, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// LoadProblem is a non-fatal failure to load one source file. The file's rows
// are left out of the table.
type LoadProblem struct {
	Source string `json:"source"`
	Err    error  `json:"-"`
}

func (p LoadProblem) Message() string {
	if p.Err == nil {
		return p.Source
	}
	return p.Err.Error()
}

// MissingColumns returns the missing column names when the problem is a
// MissingColumnsError.
func (p LoadProblem) MissingColumns() ([]string, bool) {
	var mc *MissingColumnsError
	if errors.As(p.Err, &mc) {
		return mc.Columns, true
	}
	return nil, false
}
