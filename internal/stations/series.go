package stations

import (
	"time"

	"github.com/frischwood/a3dshell/internal/domain"
)

// canonicalOrder fixes the column order of materialized series so emitted
// files do not depend on map iteration.
var canonicalOrder = []domain.Variable{
	domain.VarAirTemperature,
	domain.VarRelHumidity,
	domain.VarWindSpeed,
	domain.VarWindDirection,
	domain.VarShortwave,
	domain.VarSnowHeight,
	domain.VarPrecipitation,
}

// materialize aligns a raw series onto the expected timestamps and
// normalizes units to SI. It returns the series and its completeness: the
// fraction of expected value cells actually filled. Timestamps the source
// never reported stay flagged missing; nothing is interpolated.
func materialize(raw domain.RawSeries, stationID string, timestamps []time.Time, step time.Duration) (*domain.TimeSeries, float64) {
	present := map[domain.Variable]bool{}
	for _, obs := range raw.Observations {
		for v := range obs.Values {
			present[v] = true
		}
	}
	var fields []domain.Variable
	for _, v := range canonicalOrder {
		if present[v] {
			fields = append(fields, v)
		}
	}

	byTime := make(map[time.Time]domain.RawObservation, len(raw.Observations))
	for _, obs := range raw.Observations {
		byTime[obs.Timestamp.UTC().Truncate(step)] = obs
	}

	series := &domain.TimeSeries{
		StationID: stationID,
		Step:      step,
		Fields:    fields,
		Records:   make([]domain.Record, 0, len(timestamps)),
	}

	filled := 0
	for _, ts := range timestamps {
		rec := domain.Record{
			Timestamp: ts,
			Values:    make([]float64, len(fields)),
			Missing:   make([]bool, len(fields)),
		}
		obs, ok := byTime[ts]
		for i, field := range fields {
			value, has := 0.0, false
			if ok {
				value, has = obs.Values[field]
			}
			if !has {
				rec.Missing[i] = true
				continue
			}
			rec.Values[i] = toSI(field, value, raw.Units[field])
			filled++
		}
		series.Records = append(series.Records, rec)
	}

	total := len(timestamps) * len(fields)
	if total == 0 {
		return series, 0
	}
	return series, float64(filled) / float64(total)
}

// toSI converts a source value to the canonical SMET unit of its variable.
// Values already in SI pass through, as do unknown unit strings.
func toSI(field domain.Variable, value float64, unit string) float64 {
	switch unit {
	case "degC", "°C":
		if field == domain.VarAirTemperature {
			return value + 273.15
		}
	case "km/h":
		if field == domain.VarWindSpeed {
			return value / 3.6
		}
	case "%":
		if field == domain.VarRelHumidity {
			return value / 100
		}
	case "cm":
		if field == domain.VarSnowHeight {
			return value / 100
		}
	}
	return value
}
