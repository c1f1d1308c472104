package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// CoordinateFrame is the canonical grid geometry shared by every raster in
// a simulation package: lower-left origin, square cell size, dimensions,
// and CRS. All rasters produced by the pipeline must share one frame
// exactly; this is the pipeline's central correctness contract.
type CoordinateFrame struct {
	OriginX  float64
	OriginY  float64
	CellSize float64
	Cols     int
	Rows     int
	EPSG     int
}

// NewFrame derives a frame from an ROI, rounding the extent outward to
// whole cells so the frame fully covers the region with no partial pixel
// at the boundary. maxCells guards against unbounded memory use for
// oversized regions.
func NewFrame(roi ROI, maxCells int) (CoordinateFrame, error) {
	if err := roi.validate(); err != nil {
		return CoordinateFrame{}, err
	}

	cell := roi.Resolution
	originX := math.Floor(roi.Bound.Min.X()/cell) * cell
	originY := math.Floor(roi.Bound.Min.Y()/cell) * cell
	cols := int(math.Ceil((roi.Bound.Max.X() - originX) / cell))
	rows := int(math.Ceil((roi.Bound.Max.Y() - originY) / cell))

	if cols <= 0 || rows <= 0 {
		return CoordinateFrame{}, &InvalidRegionError{Reason: "extent smaller than one cell"}
	}
	if maxCells > 0 && cols*rows > maxCells {
		return CoordinateFrame{}, &InvalidRegionError{
			Reason: fmt.Sprintf("grid of %dx%d cells exceeds maximum of %d", cols, rows, maxCells),
		}
	}

	return CoordinateFrame{
		OriginX:  originX,
		OriginY:  originY,
		CellSize: cell,
		Cols:     cols,
		Rows:     rows,
		EPSG:     roi.EPSG,
	}, nil
}

// MaxX returns the easting of the frame's right edge.
func (f CoordinateFrame) MaxX() float64 { return f.OriginX + float64(f.Cols)*f.CellSize }

// MaxY returns the northing of the frame's top edge.
func (f CoordinateFrame) MaxY() float64 { return f.OriginY + float64(f.Rows)*f.CellSize }

// Bound returns the frame extent as a bounding box.
func (f CoordinateFrame) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{f.OriginX, f.OriginY},
		Max: orb.Point{f.MaxX(), f.MaxY()},
	}
}

// Contains reports whether p lies within the frame extent.
func (f CoordinateFrame) Contains(p orb.Point) bool {
	return p.X() >= f.OriginX && p.X() <= f.MaxX() &&
		p.Y() >= f.OriginY && p.Y() <= f.MaxY()
}

// CellCenter returns the projected coordinate of a cell center. Row 0 is
// the northernmost row, matching the raster file layout.
func (f CoordinateFrame) CellCenter(col, row int) (x, y float64) {
	x = f.OriginX + (float64(col)+0.5)*f.CellSize
	y = f.MaxY() - (float64(row)+0.5)*f.CellSize
	return x, y
}

// Equal reports exact grid-geometry equality.
func (f CoordinateFrame) Equal(other CoordinateFrame) bool {
	return f == other
}

func (f CoordinateFrame) String() string {
	return fmt.Sprintf("%dx%d@%gm EPSG:%d origin=(%g,%g)", f.Cols, f.Rows, f.CellSize, f.EPSG, f.OriginX, f.OriginY)
}
