// Package stations selects meteorological forcing stations for a region
// and materializes their measurement series onto the requested time axis.
package stations

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/observability"
)

// fetchConcurrency bounds parallel observation fetches per request.
const fetchConcurrency = 4

// Weights are the station scoring coefficients. Distance and elevation
// difference penalize, completeness rewards; lower total score is better.
type Weights struct {
	Distance     float64
	Elevation    float64
	Completeness float64
}

// Selector ranks catalog stations around a region and picks the best set.
type Selector struct {
	catalog         domain.StationCatalog
	data            domain.StationDataSource
	weights         Weights
	radius          float64
	minCompleteness float64
	step            time.Duration
	logger          *slog.Logger
	metrics         *observability.Metrics
}

// New creates a station selector. radius is the search distance in meters
// around the region centroid; step is the sample step the series are
// aligned to.
func New(catalog domain.StationCatalog, data domain.StationDataSource, weights Weights, radius, minCompleteness float64, step time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Selector {
	return &Selector{
		catalog:         catalog,
		data:            data,
		weights:         weights,
		radius:          radius,
		minCompleteness: minCompleteness,
		step:            step,
		logger:          logger,
		metrics:         metrics,
	}
}

// Candidates lists catalog stations within the search radius of the region.
func (s *Selector) Candidates(ctx context.Context, roi domain.ROI) ([]domain.StationMeta, error) {
	metas, err := s.catalog.Query(ctx, roi.Buffered(s.radius), roi.EPSG)
	if err != nil {
		return nil, fmt.Errorf("query station catalog: %w", err)
	}
	return metas, nil
}

// candidate carries per-station scoring state between phases.
type candidate struct {
	meta domain.StationMeta
	dist float64
	raw  domain.RawSeries
}

// SelectStations scores candidates and returns up to maxCount stations,
// best first, with materialized series. Scoring is deterministic: equal
// scores break by station ID. meanElevation is the mean region elevation
// the elevation penalty is measured against. When no candidate passes the
// completeness threshold a NoStationsAvailableError reports how many were
// considered.
func (s *Selector) SelectStations(ctx context.Context, roi domain.ROI, dates domain.DateRange, meanElevation float64, maxCount int, metas []domain.StationMeta) ([]domain.Station, error) {
	center := roi.Centroid()

	var inRange []candidate
	for _, meta := range metas {
		dist := math.Hypot(meta.Easting-center.X(), meta.Northing-center.Y())
		if dist > s.radius {
			continue
		}
		if !meta.Covers(dates) {
			s.logger.Debug("station coverage misses requested range", "station", meta.ID)
			continue
		}
		inRange = append(inRange, candidate{meta: meta, dist: dist})
	}
	s.metrics.StationsConsidered.Set(float64(len(inRange)))
	s.logger.Info("scoring stations", "candidates", len(inRange), "radius_m", s.radius)

	if len(inRange) == 0 {
		return nil, &domain.NoStationsAvailableError{Candidates: len(metas), MinCompleteness: s.minCompleteness}
	}

	// Observations are fetched once per candidate and reused for both
	// completeness scoring and series materialization.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	var mu sync.Mutex
	for i := range inRange {
		i := i
		g.Go(func() error {
			raw, err := s.data.FetchObservations(gctx, inRange[i].meta.ID, dates)
			if err != nil {
				return fmt.Errorf("fetch observations for %s: %w", inRange[i].meta.ID, err)
			}
			mu.Lock()
			inRange[i].raw = raw
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	timestamps := dates.Timestamps(s.step)
	var scored []domain.Station
	for _, c := range inRange {
		series, completeness := materialize(c.raw, c.meta.ID, timestamps, s.step)
		if completeness < s.minCompleteness {
			s.logger.Debug("station below completeness threshold",
				"station", c.meta.ID, "completeness", completeness, "min", s.minCompleteness)
			continue
		}
		st := domain.Station{
			StationMeta:   c.meta,
			Distance:      c.dist,
			ElevationDiff: c.meta.Elevation - meanElevation,
			Completeness:  completeness,
			Series:        series,
		}
		st.Score = s.score(st)
		scored = append(scored, st)
	}
	if len(scored) == 0 {
		return nil, &domain.NoStationsAvailableError{Candidates: len(inRange), MinCompleteness: s.minCompleteness}
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score < scored[j].Score
		}
		return scored[i].ID < scored[j].ID
	})
	if len(scored) > maxCount {
		scored = scored[:maxCount]
	}
	s.metrics.StationsSelected.Set(float64(len(scored)))
	for _, st := range scored {
		s.logger.Info("selected station", "station", st.ID,
			"distance_m", st.Distance, "elevation_diff_m", st.ElevationDiff,
			"completeness", st.Completeness, "score", st.Score)
	}
	return scored, nil
}

// score combines normalized distance, elevation difference and
// completeness. Elevation difference is normalized against 1000 m, the
// scale over which the lapse rate makes a station unrepresentative.
func (s *Selector) score(st domain.Station) float64 {
	return s.weights.Distance*(st.Distance/s.radius) +
		s.weights.Elevation*(math.Abs(st.ElevationDiff)/1000) -
		s.weights.Completeness*st.Completeness
}
