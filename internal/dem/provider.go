// Package dem produces the elevation grid of a simulation package:
// source tiles are mosaicked at their native resolution and resampled
// bilinearly onto the shared coordinate frame.
package dem

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"golang.org/x/sync/errgroup"

	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/observability"
)

// tileConcurrency bounds parallel tile fetches per request.
const tileConcurrency = 4

// Provider fetches and resamples elevation data onto a coordinate frame.
type Provider struct {
	source         domain.TileSource
	sourceCellSize float64
	minCoverage    float64
	logger         *slog.Logger
	metrics        *observability.Metrics
}

// New creates a DEM provider reading tiles at sourceCellSize meters.
// minCoverage is the valid-data fraction below which the result carries a
// PartialCoverageError.
func New(source domain.TileSource, sourceCellSize, minCoverage float64, logger *slog.Logger, metrics *observability.Metrics) *Provider {
	return &Provider{
		source:         source,
		sourceCellSize: sourceCellSize,
		minCoverage:    minCoverage,
		logger:         logger,
		metrics:        metrics,
	}
}

// FetchElevation returns an elevation grid exactly matching frame. A tile
// that cannot be fetched at all aborts the operation; cells not covered by
// valid source data hold NoData rather than values interpolated across the
// gap. When the valid fraction falls below the configured minimum the grid
// is returned together with a PartialCoverageError, which the caller
// records as a warning.
func (p *Provider) FetchElevation(ctx context.Context, frame domain.CoordinateFrame) (*domain.ElevationGrid, error) {
	ids := domain.TilesCovering(frame.Bound())
	p.logger.Info("fetching elevation tiles", "tiles", len(ids), "frame", frame.String())

	m := newMosaic(frame.Bound(), p.sourceCellSize)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tileConcurrency)
	var mu sync.Mutex
	for _, id := range ids {
		id := id
		g.Go(func() error {
			tile, err := p.source.FetchTile(gctx, id, p.sourceCellSize)
			if err != nil {
				return fmt.Errorf("fetch tile %s: %w", id, err)
			}
			mu.Lock()
			m.paste(tile)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	grid := domain.NewElevationGrid(frame)
	for row := 0; row < frame.Rows; row++ {
		for col := 0; col < frame.Cols; col++ {
			x, y := frame.CellCenter(col, row)
			grid.Set(col, row, m.sampleBilinear(x, y))
		}
	}

	if valid := grid.ValidFraction(); valid < p.minCoverage {
		p.metrics.PartialCoverage.Inc()
		p.logger.Warn("elevation coverage below threshold", "valid", valid, "min", p.minCoverage)
		return grid, &domain.PartialCoverageError{ValidFraction: valid, MinFraction: p.minCoverage}
	}
	return grid, nil
}

// mosaic is a working grid at the source resolution spanning the requested
// extent rounded outward to whole tiles, row-major with row 0 north.
type mosaic struct {
	originX  float64
	originY  float64
	cellSize float64
	cols     int
	rows     int
	values   []float64
}

func newMosaic(b orb.Bound, cellSize float64) *mosaic {
	originX := math.Floor(b.Min.X()/1000) * 1000
	originY := math.Floor(b.Min.Y()/1000) * 1000
	maxX := math.Ceil(b.Max.X()/1000) * 1000
	maxY := math.Ceil(b.Max.Y()/1000) * 1000

	cols := int(math.Round((maxX - originX) / cellSize))
	rows := int(math.Round((maxY - originY) / cellSize))

	values := make([]float64, cols*rows)
	for i := range values {
		values[i] = domain.NoData
	}
	return &mosaic{
		originX:  originX,
		originY:  originY,
		cellSize: cellSize,
		cols:     cols,
		rows:     rows,
		values:   values,
	}
}

func (m *mosaic) top() float64 { return m.originY + float64(m.rows)*m.cellSize }

// paste copies a tile into the mosaic at its georeferenced position.
func (m *mosaic) paste(t domain.Tile) {
	colOff := int(math.Round((t.OriginX - m.originX) / m.cellSize))
	tileTop := t.OriginY + float64(t.Rows)*t.CellSize
	rowOff := int(math.Round((m.top() - tileTop) / m.cellSize))

	for row := 0; row < t.Rows; row++ {
		mr := rowOff + row
		if mr < 0 || mr >= m.rows {
			continue
		}
		for col := 0; col < t.Cols; col++ {
			mc := colOff + col
			if mc < 0 || mc >= m.cols {
				continue
			}
			m.values[mr*m.cols+mc] = t.At(col, row)
		}
	}
}

func (m *mosaic) at(col, row int) float64 {
	if col < 0 || col >= m.cols || row < 0 || row >= m.rows {
		return domain.NoData
	}
	return m.values[row*m.cols+col]
}

// sampleBilinear interpolates the value at a projected coordinate from the
// four surrounding source cell centers. The same rule is used on every run
// so repeated assemblies are reproducible. If any of the four neighbors is
// NoData the result is NoData: gaps are never interpolated across.
func (m *mosaic) sampleBilinear(x, y float64) float64 {
	gx := (x-m.originX)/m.cellSize - 0.5
	gy := (m.top()-y)/m.cellSize - 0.5

	c0 := int(math.Floor(gx))
	r0 := int(math.Floor(gy))
	fx := gx - float64(c0)
	fy := gy - float64(r0)

	// Clamp to the mosaic edge so frame cells on the boundary still
	// resolve against the nearest source column/row.
	c1, r1 := c0+1, r0+1
	if c0 < 0 {
		c0, c1, fx = 0, 0, 0
	}
	if r0 < 0 {
		r0, r1, fy = 0, 0, 0
	}
	if c1 >= m.cols {
		c1 = m.cols - 1
		if c0 > c1 {
			c0 = c1
		}
		fx = 0
	}
	if r1 >= m.rows {
		r1 = m.rows - 1
		if r0 > r1 {
			r0 = r1
		}
		fy = 0
	}

	v00 := m.at(c0, r0)
	v10 := m.at(c1, r0)
	v01 := m.at(c0, r1)
	v11 := m.at(c1, r1)
	if v00 == domain.NoData || v10 == domain.NoData || v01 == domain.NoData || v11 == domain.NoData {
		return domain.NoData
	}

	top := v00*(1-fx) + v10*fx
	bottom := v01*(1-fx) + v11*fx
	return top*(1-fy) + bottom*fy
}
