package domain

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// TileID names a 1 km x 1 km source elevation tile by its kilometer indices
// in the projected CRS, matching the swissALTI3D tile naming scheme.
type TileID struct {
	E int
	N int
}

func (id TileID) String() string { return fmt.Sprintf("%d-%d", id.E, id.N) }

// Bound returns the tile extent in projected coordinates.
func (id TileID) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{float64(id.E) * 1000, float64(id.N) * 1000},
		Max: orb.Point{float64(id.E+1) * 1000, float64(id.N+1) * 1000},
	}
}

// TilesCovering enumerates the tiles intersecting a bound, west to east and
// south to north, so tile fetch order is deterministic.
func TilesCovering(b orb.Bound) []TileID {
	eMin := int(math.Floor(b.Min.X() / 1000))
	eMax := int(math.Ceil(b.Max.X()/1000)) - 1
	nMin := int(math.Floor(b.Min.Y() / 1000))
	nMax := int(math.Ceil(b.Max.Y()/1000)) - 1

	var out []TileID
	for n := nMin; n <= nMax; n++ {
		for e := eMin; e <= eMax; e++ {
			out = append(out, TileID{E: e, N: n})
		}
	}
	return out
}

// Tile is one source elevation tile: a small grid at the source resolution,
// row-major with row 0 at the northern edge.
type Tile struct {
	ID       TileID
	OriginX  float64
	OriginY  float64
	CellSize float64
	Cols     int
	Rows     int
	Values   []float64
}

// At returns the tile value at (col, row).
func (t Tile) At(col, row int) float64 { return t.Values[row*t.Cols+col] }

// LandCoverRaster is a categorical source raster in its native resolution
// and code space, row-major with row 0 at the northern edge.
type LandCoverRaster struct {
	OriginX  float64
	OriginY  float64
	CellSize float64
	Cols     int
	Rows     int
	Codes    []int32
}

// At returns the source code at (col, row).
func (r LandCoverRaster) At(col, row int) int32 { return r.Codes[row*r.Cols+col] }

// TileSource fetches source elevation tiles by id and source resolution.
type TileSource interface {
	FetchTile(ctx context.Context, id TileID, cellSize float64) (Tile, error)
}

// LandCoverSource fetches a categorical raster covering a bound.
type LandCoverSource interface {
	FetchRaster(ctx context.Context, bound orb.Bound, epsg int) (LandCoverRaster, error)
}

// StationCatalog lists stations whose position falls within a bound.
type StationCatalog interface {
	Query(ctx context.Context, bound orb.Bound, epsg int) ([]StationMeta, error)
}

// StationDataSource fetches a station's raw observations for a date range.
type StationDataSource interface {
	FetchObservations(ctx context.Context, stationID string, dates DateRange) (RawSeries, error)
}
