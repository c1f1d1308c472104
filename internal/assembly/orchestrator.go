// Package assembly orchestrates one simulation-input assembly run: frame
// derivation, the concurrent raster and station stages, cross-validation
// and the final package write.
package assembly

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/observability"
)

var clock clockwork.Clock = clockwork.NewRealClock()

// SetClock replaces the package clock, for tests.
func SetClock(c clockwork.Clock) {
	clock = c
}

// ElevationProvider produces the elevation grid for a frame.
type ElevationProvider interface {
	FetchElevation(ctx context.Context, frame domain.CoordinateFrame) (*domain.ElevationGrid, error)
}

// LandCoverProvider produces the land-use grid for a frame.
type LandCoverProvider interface {
	FetchLandCover(ctx context.Context, frame domain.CoordinateFrame) (*domain.LandCoverGrid, error)
}

// StationSelector finds and ranks forcing stations for a region.
type StationSelector interface {
	Candidates(ctx context.Context, roi domain.ROI) ([]domain.StationMeta, error)
	SelectStations(ctx context.Context, roi domain.ROI, dates domain.DateRange, meanElevation float64, maxCount int, metas []domain.StationMeta) ([]domain.Station, error)
}

// Request is one assembly run: a named package over a region, a point of
// interest inside it, and the simulated date range.
type Request struct {
	Name  string
	ROI   domain.ROI
	POI   orb.Point
	Dates domain.DateRange
}

// Result reports a finished run.
type Result struct {
	Path    string
	State   State
	Package *domain.SimulationPackage
}

// StageObserver is notified as the run progresses, e.g. for a status
// endpoint. Implementations must be safe for concurrent reads.
type StageObserver interface {
	SetStage(stage string)
}

// Orchestrator drives the assembly pipeline.
type Orchestrator struct {
	elevation ElevationProvider
	landCover LandCoverProvider
	stations  StationSelector
	writer    *Writer

	maxCells    int
	maxStations int
	coordSys    string

	observer StageObserver
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// SetStageObserver registers an optional observer for state changes.
func (o *Orchestrator) SetStageObserver(obs StageObserver) {
	o.observer = obs
}

func (o *Orchestrator) notify(s State) {
	if o.observer != nil {
		o.observer.SetStage(string(s))
	}
}

func (o *Orchestrator) advance(m *machine, target State) error {
	if err := m.advance(target); err != nil {
		return err
	}
	o.notify(target)
	return nil
}

// New creates an orchestrator.
func New(elevation ElevationProvider, landCover LandCoverProvider, stations StationSelector, writer *Writer, maxCells, maxStations int, coordSys string, logger *slog.Logger, metrics *observability.Metrics) *Orchestrator {
	return &Orchestrator{
		elevation:   elevation,
		landCover:   landCover,
		stations:    stations,
		writer:      writer,
		maxCells:    maxCells,
		maxStations: maxStations,
		coordSys:    coordSys,
		logger:      logger,
		metrics:     metrics,
	}
}

// Run executes the whole pipeline for one request. The raster stages and
// the catalog query run concurrently; station scoring waits for the
// elevation grid because the elevation penalty is measured against the mean
// region elevation. Partial elevation coverage is recorded as a warning,
// every other stage error is fatal and leaves no package directory behind.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*Result, error) {
	m := newMachine()
	pkg := domain.NewSimulationPackage(req.Name)
	pkg.POI = req.POI
	pkg.Dates = req.Dates
	pkg.CoordSys = o.coordSys

	o.notify(m.state)
	result, err := o.run(ctx, req, pkg, m)
	if err != nil {
		m.fail()
		o.notify(m.state)
		o.metrics.AssembliesRun.WithLabelValues("failed").Inc()
		o.logger.Error("assembly failed", "name", req.Name, "state", m.state, "error", err)
		return &Result{State: m.state, Package: pkg}, err
	}
	o.metrics.AssembliesRun.WithLabelValues("packaged").Inc()
	return result, nil
}

func (o *Orchestrator) run(ctx context.Context, req Request, pkg *domain.SimulationPackage, m *machine) (*Result, error) {
	frame, err := domain.NewFrame(req.ROI, o.maxCells)
	if err != nil {
		return nil, fmt.Errorf("establish frame: %w", err)
	}
	pkg.Frame = frame
	if err := o.advance(m, StateFrameEstablished); err != nil {
		return nil, err
	}
	o.logger.Info("frame established", "name", req.Name, "frame", frame.String())

	var (
		elevation  *domain.ElevationGrid
		landCover  *domain.LandCoverGrid
		candidates []domain.StationMeta
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		elevation, err = o.timeGrid(gctx, "elevation", func(ctx context.Context) (*domain.ElevationGrid, error) {
			return o.elevation.FetchElevation(ctx, frame)
		})
		if domain.IsWarning(err) {
			pkg.Warnings = append(pkg.Warnings, err.Error())
			return nil
		}
		return err
	})
	g.Go(func() error {
		start := clock.Now()
		var err error
		landCover, err = o.landCover.FetchLandCover(gctx, frame)
		o.metrics.StageDuration.WithLabelValues("land_cover").Observe(clock.Since(start).Seconds())
		return err
	})
	g.Go(func() error {
		start := clock.Now()
		var err error
		candidates, err = o.stations.Candidates(gctx, req.ROI)
		o.metrics.StageDuration.WithLabelValues("station_catalog").Observe(clock.Since(start).Seconds())
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	pkg.Elevation = elevation
	pkg.LandCover = landCover
	// Both grids are fetched concurrently and joined above, so the two
	// states collapse into back-to-back transitions here. They stay
	// separate so observers and the transition table keep one state per
	// acquired input.
	if err := o.advance(m, StateElevationReady); err != nil {
		return nil, err
	}
	if err := o.advance(m, StateLandCoverReady); err != nil {
		return nil, err
	}

	meanElevation, ok := elevation.MeanElevation()
	if !ok {
		return nil, fmt.Errorf("elevation grid for %q has no valid cells", req.Name)
	}
	start := clock.Now()
	selected, err := o.stations.SelectStations(ctx, req.ROI, req.Dates, meanElevation, o.maxStations, candidates)
	o.metrics.StageDuration.WithLabelValues("station_selection").Observe(clock.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	pkg.Stations = selected
	if err := o.advance(m, StateStationsReady); err != nil {
		return nil, err
	}

	if err := pkg.Validate(); err != nil {
		return nil, err
	}

	start = clock.Now()
	path, err := o.writer.Write(pkg)
	o.metrics.StageDuration.WithLabelValues("write").Observe(clock.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if err := o.advance(m, StatePackaged); err != nil {
		return nil, err
	}
	return &Result{Path: path, State: m.state, Package: pkg}, nil
}

// timeGrid wraps an elevation fetch with stage timing while preserving the
// grid returned alongside a coverage warning.
func (o *Orchestrator) timeGrid(ctx context.Context, stage string, fetch func(context.Context) (*domain.ElevationGrid, error)) (*domain.ElevationGrid, error) {
	start := clock.Now()
	grid, err := fetch(ctx)
	o.metrics.StageDuration.WithLabelValues(stage).Observe(clock.Since(start).Seconds())
	return grid, err
}
