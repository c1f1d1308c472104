package assembly

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/observability"
)

type fakeElevation struct {
	err     error
	partial bool
}

func (f *fakeElevation) FetchElevation(_ context.Context, frame domain.CoordinateFrame) (*domain.ElevationGrid, error) {
	if f.err != nil {
		return nil, f.err
	}
	grid := domain.NewElevationGrid(frame)
	for i := range grid.Values {
		grid.Values[i] = 1500
	}
	if f.partial {
		grid.Values[0] = domain.NoData
		return grid, &domain.PartialCoverageError{ValidFraction: grid.ValidFraction(), MinFraction: 0.99}
	}
	return grid, nil
}

type fakeLandCover struct {
	err error
}

func (f *fakeLandCover) FetchLandCover(_ context.Context, frame domain.CoordinateFrame) (*domain.LandCoverGrid, error) {
	if f.err != nil {
		return nil, f.err
	}
	grid := domain.NewLandCoverGrid(frame, domain.PrevahLegend())
	for i := range grid.Codes {
		grid.Codes[i] = 7
	}
	return grid, nil
}

type fakeSelector struct {
	err           error
	meanElevation float64
}

func (f *fakeSelector) Candidates(context.Context, domain.ROI) ([]domain.StationMeta, error) {
	return []domain.StationMeta{{ID: "WFJ2"}}, nil
}

func (f *fakeSelector) SelectStations(_ context.Context, _ domain.ROI, dates domain.DateRange, meanElevation float64, _ int, _ []domain.StationMeta) ([]domain.Station, error) {
	f.meanElevation = meanElevation
	if f.err != nil {
		return nil, f.err
	}
	return []domain.Station{{
		StationMeta: domain.StationMeta{ID: "WFJ2", Name: "Weissfluhjoch", EPSG: 2056, Elevation: 2536},
		Series: &domain.TimeSeries{
			StationID: "WFJ2",
			Step:      time.Hour,
			Fields:    []domain.Variable{domain.VarAirTemperature},
			Records: []domain.Record{{
				Timestamp: dates.Start,
				Values:    []float64{263.15},
				Missing:   []bool{false},
			}},
		},
	}}, nil
}

type capturedStages struct {
	stages []string
}

func (c *capturedStages) SetStage(stage string) { c.stages = append(c.stages, stage) }

func testRequest(t *testing.T) Request {
	t.Helper()
	roi, err := domain.NewROI(2600000, 1199000, 2601000, 1200000, 2056, 250)
	require.NoError(t, err)
	dates, err := domain.NewDateRange(
		time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, 1, 10, 0, 0, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return Request{Name: "dischma", ROI: roi, POI: orb.Point{2600500, 1199500}, Dates: dates}
}

func newOrchestrator(t *testing.T, out string, elevation ElevationProvider, landCover LandCoverProvider, selector StationSelector) *Orchestrator {
	t.Helper()
	writer := NewWriter(out, "", slog.Default())
	return New(elevation, landCover, selector, writer, 0, 5, "CH1903+",
		slog.Default(), observability.NewMetricsForTesting())
}

func TestRun_HappyPath(t *testing.T) {
	out := t.TempDir()
	selector := &fakeSelector{}
	o := newOrchestrator(t, out, &fakeElevation{}, &fakeLandCover{}, selector)

	result, err := o.Run(context.Background(), testRequest(t))
	require.NoError(t, err)

	assert.Equal(t, StatePackaged, result.State)
	assert.Equal(t, filepath.Join(out, "dischma"), result.Path)
	assert.Empty(t, result.Package.Warnings)
	assert.Equal(t, 1500.0, selector.meanElevation, "scoring sees the mean region elevation")

	_, statErr := os.Stat(filepath.Join(result.Path, "io.ini"))
	assert.NoError(t, statErr)
}

func TestRun_PartialCoverageIsWarningNotFailure(t *testing.T) {
	out := t.TempDir()
	o := newOrchestrator(t, out, &fakeElevation{partial: true}, &fakeLandCover{}, &fakeSelector{})

	result, err := o.Run(context.Background(), testRequest(t))
	require.NoError(t, err)

	assert.Equal(t, StatePackaged, result.State)
	require.Len(t, result.Package.Warnings, 1)
	assert.Contains(t, result.Package.Warnings[0], "partial elevation coverage")
}

func TestRun_ElevationFailureLeavesNoPackage(t *testing.T) {
	out := t.TempDir()
	fatal := &domain.SourceUnavailableError{Source: "swissalti3d", Attempts: 3, Err: errors.New("down")}
	o := newOrchestrator(t, out, &fakeElevation{err: fatal}, &fakeLandCover{}, &fakeSelector{})

	result, err := o.Run(context.Background(), testRequest(t))
	require.Error(t, err)
	assert.Equal(t, StateFailed, result.State)

	entries, readErr := os.ReadDir(out)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "fatal failure must leave no package directory")
}

func TestRun_NoStationsLeavesNoPackage(t *testing.T) {
	out := t.TempDir()
	selErr := &domain.NoStationsAvailableError{Candidates: 3, MinCompleteness: 0.8}
	o := newOrchestrator(t, out, &fakeElevation{}, &fakeLandCover{}, &fakeSelector{err: selErr})

	result, err := o.Run(context.Background(), testRequest(t))
	var none *domain.NoStationsAvailableError
	require.True(t, errors.As(err, &none))
	assert.Equal(t, StateFailed, result.State)

	entries, readErr := os.ReadDir(out)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestRun_POIOutsideFrameFailsValidation(t *testing.T) {
	out := t.TempDir()
	o := newOrchestrator(t, out, &fakeElevation{}, &fakeLandCover{}, &fakeSelector{})

	req := testRequest(t)
	req.POI = orb.Point{2700000, 1199500}

	result, err := o.Run(context.Background(), req)
	var validation *domain.PackageValidationError
	require.True(t, errors.As(err, &validation))
	assert.Equal(t, StateFailed, result.State)

	entries, readErr := os.ReadDir(out)
	require.NoError(t, readErr)
	assert.Empty(t, entries, "validation runs before anything touches disk")
}

func TestRun_OversizedRegionRejected(t *testing.T) {
	o := newOrchestrator(t, t.TempDir(), &fakeElevation{}, &fakeLandCover{}, &fakeSelector{})
	o.maxCells = 4

	result, err := o.Run(context.Background(), testRequest(t))
	var invalid *domain.InvalidRegionError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, StateFailed, result.State)
}

func TestRun_ReportsStages(t *testing.T) {
	out := t.TempDir()
	o := newOrchestrator(t, out, &fakeElevation{}, &fakeLandCover{}, &fakeSelector{})
	captured := &capturedStages{}
	o.SetStageObserver(captured)

	_, err := o.Run(context.Background(), testRequest(t))
	require.NoError(t, err)

	want := []string{
		"initialized",
		"frame_established",
		"elevation_ready",
		"land_cover_ready",
		"stations_ready",
		"packaged",
	}
	if diff := cmp.Diff(want, captured.stages); diff != "" {
		t.Errorf("stage progression mismatch (-want +got):\n%s", diff)
	}
}
