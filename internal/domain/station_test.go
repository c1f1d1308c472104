package domain_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frischwood/a3dshell/internal/domain"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestDateRange_TenDaysHourly(t *testing.T) {
	r, err := domain.NewDateRange(date(2023, 1, 1), date(2023, 1, 10))
	require.NoError(t, err)

	assert.Equal(t, 10, r.Days())

	ts := r.Timestamps(time.Hour)
	require.Len(t, ts, 240)
	assert.Equal(t, date(2023, 1, 1), ts[0])
	assert.Equal(t, time.Date(2023, 1, 10, 23, 0, 0, 0, time.UTC), ts[len(ts)-1])
}

func TestDateRange_SingleDay(t *testing.T) {
	r, err := domain.NewDateRange(date(2023, 6, 15), date(2023, 6, 15))
	require.NoError(t, err)

	assert.Equal(t, 1, r.Days())
	assert.Len(t, r.Timestamps(time.Hour), 24)
}

func TestNewDateRange_TruncatesToMidnight(t *testing.T) {
	r, err := domain.NewDateRange(
		time.Date(2023, 1, 1, 14, 30, 0, 0, time.UTC),
		time.Date(2023, 1, 2, 6, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	assert.Equal(t, date(2023, 1, 1), r.Start)
	assert.Equal(t, date(2023, 1, 2), r.End)
}

func TestNewDateRange_RejectsReversed(t *testing.T) {
	_, err := domain.NewDateRange(date(2023, 1, 10), date(2023, 1, 1))
	require.Error(t, err)
}

func TestStationMeta_Covers(t *testing.T) {
	meta := domain.StationMeta{
		CoverageStart: date(2020, 1, 1),
		CoverageEnd:   date(2023, 12, 31),
	}

	in, _ := domain.NewDateRange(date(2023, 1, 1), date(2023, 1, 10))
	assert.True(t, meta.Covers(in))

	before, _ := domain.NewDateRange(date(2019, 12, 1), date(2020, 1, 5))
	assert.False(t, meta.Covers(before))

	after, _ := domain.NewDateRange(date(2023, 12, 20), date(2024, 1, 5))
	assert.False(t, meta.Covers(after))
}
