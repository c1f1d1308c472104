// Package landcover produces the categorical land-use grid of a simulation
// package in the PREVAH class space. Source rasters arrive in the BFS
// LC_27 code space and are resampled by nearest or majority assignment;
// category codes are never averaged.
package landcover

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/observability"
)

// lc27ToPrevah maps BFS Arealstatistik LC_27 codes to PREVAH classes.
// LC_27 groups: 11-17 built-up, 21 grassland, 31-35 shrubs and crops,
// 41-47 forest, 51-53 rock, 61-64 water and wet sites.
var lc27ToPrevah = map[int32]int32{
	11: 11, // sealed surfaces -> road
	12: 2,  // buildings -> settlement
	13: 2,  // greenhouses -> settlement
	14: 19, // garden beds -> vegetables
	15: 7,  // lawn -> pasture
	16: 8,  // trees on artificial surfaces -> bush
	17: 2,  // mixed small structures -> settlement

	21: 7, // grass and herb vegetation -> pasture

	31: 8,  // shrubs -> bush
	32: 8,  // overgrown areas -> bush
	33: 18, // fruit trees -> fruit
	34: 29, // vines -> grapes
	35: 19, // horticultural crops -> vegetables

	41: 5, // closed tree stands -> mixed forest
	42: 5, // forest corners -> mixed forest
	43: 5, // forest strips -> mixed forest
	44: 5, // open tree stands -> mixed forest
	45: 8, // shrub forest -> bush
	46: 5, // linear tree stands -> mixed forest
	47: 5, // tree groups -> mixed forest

	51: 15, // exposed rock -> rock
	52: 15, // loose rock -> rock
	53: 15, // stony areas -> rock

	61: 1,  // water
	62: 13, // glacier, firn
	63: 22, // wet sites -> wetlands
	64: 22, // reed stands -> wetlands
}

// MapCode translates a source LC_27 code to its PREVAH class.
func MapCode(code int32) (int32, error) {
	if mapped, ok := lc27ToPrevah[code]; ok {
		return mapped, nil
	}
	return 0, &domain.UnknownLandCoverCodeError{Code: code}
}

// Provider rasterizes land cover onto a coordinate frame.
type Provider struct {
	source   domain.LandCoverSource
	constant int32 // used instead of the source when > 0
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a provider backed by a remote source.
func New(source domain.LandCoverSource, logger *slog.Logger, metrics *observability.Metrics) *Provider {
	return &Provider{source: source, logger: logger, metrics: metrics}
}

// NewConstant creates a provider that fills the whole frame with one PREVAH
// class, for regions without source coverage.
func NewConstant(class int32, logger *slog.Logger, metrics *observability.Metrics) *Provider {
	return &Provider{constant: class, logger: logger, metrics: metrics}
}

// FetchLandCover returns a classification grid exactly matching frame. A
// source code without a legend mapping is a fatal
// UnknownLandCoverCodeError, never a silently dropped cell.
func (p *Provider) FetchLandCover(ctx context.Context, frame domain.CoordinateFrame) (*domain.LandCoverGrid, error) {
	legend := domain.PrevahLegend()

	if p.constant > 0 {
		if _, ok := legend[p.constant]; !ok {
			return nil, &domain.UnknownLandCoverCodeError{Code: p.constant}
		}
		p.logger.Info("using constant land cover", "class", p.constant)
		grid := domain.NewLandCoverGrid(frame, legend)
		for i := range grid.Codes {
			grid.Codes[i] = p.constant
		}
		return grid, nil
	}

	raster, err := p.source.FetchRaster(ctx, frame.Bound(), frame.EPSG)
	if err != nil {
		return nil, fmt.Errorf("fetch land cover raster: %w", err)
	}
	p.logger.Info("rasterizing land cover", "source_cells", len(raster.Codes), "frame", frame.String())

	grid := domain.NewLandCoverGrid(frame, legend)
	useMajority := frame.CellSize > raster.CellSize

	for row := 0; row < frame.Rows; row++ {
		for col := 0; col < frame.Cols; col++ {
			x, y := frame.CellCenter(col, row)

			var code int32
			if useMajority {
				code = majorityCode(raster, x, y, frame.CellSize)
			} else {
				code = nearestCode(raster, x, y)
			}
			if code == domain.NoData {
				grid.Set(col, row, domain.NoData)
				continue
			}
			mapped, err := MapCode(code)
			if err != nil {
				return nil, err
			}
			grid.Set(col, row, mapped)
		}
	}
	return grid, nil
}

// nearestCode picks the source cell containing the point.
func nearestCode(r domain.LandCoverRaster, x, y float64) int32 {
	col := int(math.Floor((x - r.OriginX) / r.CellSize))
	top := r.OriginY + float64(r.Rows)*r.CellSize
	row := int(math.Floor((top - y) / r.CellSize))
	if col < 0 || col >= r.Cols || row < 0 || row >= r.Rows {
		return domain.NoData
	}
	return r.At(col, row)
}

// majorityCode assigns the most frequent source code under a frame cell,
// used when the frame is coarser than the source. Ties resolve to the
// smallest code for determinism.
func majorityCode(r domain.LandCoverRaster, centerX, centerY, cellSize float64) int32 {
	half := cellSize / 2
	counts := map[int32]int{}
	for y := centerY - half + r.CellSize/2; y < centerY+half; y += r.CellSize {
		for x := centerX - half + r.CellSize/2; x < centerX+half; x += r.CellSize {
			if code := nearestCode(r, x, y); code != domain.NoData {
				counts[code]++
			}
		}
	}
	best := int32(domain.NoData)
	bestCount := 0
	for code, count := range counts {
		if count > bestCount || (count == bestCount && best != domain.NoData && code < best) {
			best = code
			bestCount = count
		}
	}
	return best
}
