package stations

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frischwood/a3dshell/internal/domain"
)

func hourly(start time.Time, n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return out
}

func TestMaterialize_AlignsAndNormalizesUnits(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := domain.RawSeries{
		StationID: "WFJ2",
		Units: map[domain.Variable]string{
			domain.VarAirTemperature: "degC",
			domain.VarWindSpeed:      "km/h",
			domain.VarSnowHeight:     "cm",
			domain.VarRelHumidity:    "%",
		},
		Observations: []domain.RawObservation{
			{Timestamp: start, Values: map[domain.Variable]float64{
				domain.VarAirTemperature: -10,
				domain.VarWindSpeed:      36,
				domain.VarSnowHeight:     120,
				domain.VarRelHumidity:    85,
			}},
			{Timestamp: start.Add(2 * time.Hour), Values: map[domain.Variable]float64{
				domain.VarAirTemperature: -9,
			}},
		},
	}

	series, completeness := materialize(raw, "WFJ2", hourly(start, 3), time.Hour)

	// Canonical field order regardless of map iteration.
	assert.Equal(t, []domain.Variable{
		domain.VarAirTemperature, domain.VarRelHumidity,
		domain.VarWindSpeed, domain.VarSnowHeight,
	}, series.Fields)
	require.Len(t, series.Records, 3)

	first := series.Records[0]
	assert.InDelta(t, 263.15, first.Values[0], 1e-9) // degC -> K
	assert.InDelta(t, 0.85, first.Values[1], 1e-9)   // % -> fraction
	assert.InDelta(t, 10.0, first.Values[2], 1e-9)   // km/h -> m/s
	assert.InDelta(t, 1.2, first.Values[3], 1e-9)    // cm -> m

	// Hour 1 was never reported: all fields flagged missing.
	for _, missing := range series.Records[1].Missing {
		assert.True(t, missing)
	}

	// Hour 2 has TA only.
	assert.False(t, series.Records[2].Missing[0])
	assert.True(t, series.Records[2].Missing[1])

	// 5 filled cells of 12 expected.
	assert.InDelta(t, 5.0/12.0, completeness, 1e-9)
}

func TestMaterialize_SIUnitsPassThrough(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := domain.RawSeries{
		StationID: "WFJ2",
		Units:     map[domain.Variable]string{domain.VarAirTemperature: "K"},
		Observations: []domain.RawObservation{
			{Timestamp: start, Values: map[domain.Variable]float64{domain.VarAirTemperature: 263.15}},
		},
	}

	series, completeness := materialize(raw, "WFJ2", hourly(start, 1), time.Hour)
	assert.Equal(t, 263.15, series.Records[0].Values[0])
	assert.Equal(t, 1.0, completeness)
}

func TestMaterialize_EmptySeries(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	series, completeness := materialize(domain.RawSeries{StationID: "X"}, "X", hourly(start, 24), time.Hour)

	assert.Empty(t, series.Fields)
	assert.Equal(t, 0.0, completeness)
}

func TestMaterialize_OffStepTimestampsTruncate(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	raw := domain.RawSeries{
		StationID: "WFJ2",
		Units:     map[domain.Variable]string{domain.VarAirTemperature: "K"},
		Observations: []domain.RawObservation{
			{Timestamp: start.Add(10 * time.Minute), Values: map[domain.Variable]float64{domain.VarAirTemperature: 270}},
		},
	}

	series, _ := materialize(raw, "WFJ2", hourly(start, 1), time.Hour)
	assert.False(t, series.Records[0].Missing[0])
	assert.Equal(t, 270.0, series.Records[0].Values[0])
}
