package domain

import (
	"fmt"
	"time"
)

// Variable identifies a meteorological time-series variable, named after
// the SMET convention used by MeteoIO.
type Variable string

const (
	VarAirTemperature Variable = "TA"   // kelvin
	VarRelHumidity    Variable = "RH"   // fraction 0-1
	VarWindSpeed      Variable = "VW"   // m/s
	VarWindDirection  Variable = "DW"   // degrees
	VarShortwave      Variable = "ISWR" // W/m^2
	VarSnowHeight     Variable = "HS"   // m
	VarPrecipitation  Variable = "PSUM" // mm
)

// DateRange is an inclusive range of calendar days in UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both ends to UTC midnight and validates ordering.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{
		Start: start.UTC().Truncate(24 * time.Hour),
		End:   end.UTC().Truncate(24 * time.Hour),
	}
	if r.End.Before(r.Start) {
		return DateRange{}, fmt.Errorf("date range end %s before start %s",
			r.End.Format("2006-01-02"), r.Start.Format("2006-01-02"))
	}
	return r, nil
}

// Days returns the number of calendar days covered, both ends inclusive.
func (r DateRange) Days() int {
	return int(r.End.Sub(r.Start)/(24*time.Hour)) + 1
}

// Timestamps returns every expected sample time over the range at the
// given step: from Start 00:00 up to but excluding the midnight after End.
func (r DateRange) Timestamps(step time.Duration) []time.Time {
	if step <= 0 {
		return nil
	}
	endExclusive := r.End.Add(24 * time.Hour)
	var out []time.Time
	for t := r.Start; t.Before(endExclusive); t = t.Add(step) {
		out = append(out, t)
	}
	return out
}

// Covers reports whether the station's advertised temporal coverage spans
// the whole requested range.
func (m StationMeta) Covers(r DateRange) bool {
	return !m.CoverageStart.After(r.Start) && !m.CoverageEnd.Before(r.End)
}

// StationMeta is the catalog view of a meteorological station.
type StationMeta struct {
	ID        string
	Name      string
	Easting   float64
	Northing  float64
	EPSG      int
	Latitude  float64
	Longitude float64
	Elevation float64
	Variables []Variable

	// Temporal coverage advertised by the catalog.
	CoverageStart time.Time
	CoverageEnd   time.Time
}

// Station is a scored, selected station with its materialized series.
type Station struct {
	StationMeta

	// Scoring inputs and result for the current request. Lower score is
	// better.
	Distance      float64
	ElevationDiff float64
	Completeness  float64
	Score         float64

	Series *TimeSeries
}

// Record is one timestamped row of a series. Missing flags mark timestamps
// where the source had no data; values there hold the series nodata.
type Record struct {
	Timestamp time.Time
	Values    []float64
	Missing   []bool
}

// TimeSeries is a station's forcing data on a fixed step over the exact
// requested date range. Missing timestamps are explicitly flagged, never
// interpolated.
type TimeSeries struct {
	StationID string
	Step      time.Duration
	Fields    []Variable
	Records   []Record
}

// RawObservation is one record as returned by a station data source,
// before alignment and unit normalization.
type RawObservation struct {
	Timestamp time.Time
	Values    map[Variable]float64
}

// RawSeries is the unprocessed payload of a station data source. Units maps
// each variable to the source unit string (e.g. "degC", "km/h").
type RawSeries struct {
	StationID    string
	Units        map[Variable]string
	Observations []RawObservation
}
