package domain

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ROI is the user-selected simulation footprint: a bounding box in a
// projected CRS plus the target grid resolution in meters per cell.
type ROI struct {
	Bound      orb.Bound
	EPSG       int
	Resolution float64
}

// NewROI validates and builds a region of interest from explicit bounds.
func NewROI(minX, minY, maxX, maxY float64, epsg int, resolution float64) (ROI, error) {
	r := ROI{
		Bound:      orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}},
		EPSG:       epsg,
		Resolution: resolution,
	}
	if err := r.validate(); err != nil {
		return ROI{}, err
	}
	return r, nil
}

// ROIAround builds a square region of the given side length centered on a
// point of interest.
func ROIAround(poi orb.Point, size float64, epsg int, resolution float64) (ROI, error) {
	if size <= 0 {
		return ROI{}, &InvalidRegionError{Reason: fmt.Sprintf("region size must be positive, got %g", size)}
	}
	half := size / 2
	return NewROI(poi.X()-half, poi.Y()-half, poi.X()+half, poi.Y()+half, epsg, resolution)
}

func (r ROI) validate() error {
	if r.Resolution <= 0 {
		return &InvalidRegionError{Reason: fmt.Sprintf("resolution must be positive, got %g", r.Resolution)}
	}
	if r.Bound.Min.X() >= r.Bound.Max.X() || r.Bound.Min.Y() >= r.Bound.Max.Y() {
		return &InvalidRegionError{Reason: fmt.Sprintf("degenerate extent %v", r.Bound)}
	}
	for _, v := range []float64{r.Bound.Min.X(), r.Bound.Min.Y(), r.Bound.Max.X(), r.Bound.Max.Y()} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return &InvalidRegionError{Reason: "non-finite coordinate"}
		}
	}
	return nil
}

// Centroid returns the center of the bounding box.
func (r ROI) Centroid() orb.Point {
	return r.Bound.Center()
}

// Buffered returns the bound grown by dist meters on every side. Station
// search uses a radius larger than the ROI itself, since meteorological
// representativeness extends beyond the simulated footprint.
func (r ROI) Buffered(dist float64) orb.Bound {
	return orb.Bound{
		Min: orb.Point{r.Bound.Min.X() - dist, r.Bound.Min.Y() - dist},
		Max: orb.Point{r.Bound.Max.X() + dist, r.Bound.Max.Y() + dist},
	}
}
