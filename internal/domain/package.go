package domain

import (
	"time"

	"github.com/paulmach/orb"
)

// SimulationPackage is the aggregate pipeline output: every raster on the
// shared frame, the selected stations with their series, and the request
// parameters needed to generate the solver configuration. Created once per
// successful run and immutable once written to disk.
type SimulationPackage struct {
	Name      string
	Frame     CoordinateFrame
	Elevation *ElevationGrid
	LandCover *LandCoverGrid
	Stations  []Station
	POI       orb.Point

	Dates    DateRange
	CoordSys string

	// Warnings collects non-fatal issues (e.g. partial elevation coverage)
	// surfaced to the user through the package metadata.
	Warnings  []string
	CreatedAt time.Time
}

// NewSimulationPackage stamps the creation time from the package clock.
func NewSimulationPackage(name string) *SimulationPackage {
	return &SimulationPackage{Name: name, CreatedAt: clock.Now().UTC()}
}

// Validate performs the cross-consistency checks required before the
// package may be written. It returns a PackageValidationError listing every
// violation found.
func (p *SimulationPackage) Validate() error {
	var violations []string

	if p.Elevation == nil || p.LandCover == nil {
		violations = append(violations, "missing raster stage output")
	} else {
		if !p.Elevation.Frame.Equal(p.Frame) {
			violations = append(violations, "elevation grid frame differs from package frame")
		}
		if !p.LandCover.Frame.Equal(p.Frame) {
			violations = append(violations, "land cover grid frame differs from package frame")
		}
		if err := p.LandCover.Validate(); err != nil {
			violations = append(violations, "land cover legend not fully resolved: "+err.Error())
		}
	}
	if !p.Frame.Contains(p.POI) {
		violations = append(violations, "point of interest outside frame extent")
	}
	if len(p.Stations) == 0 {
		violations = append(violations, "no stations selected")
	}

	if len(violations) > 0 {
		return &PackageValidationError{Violations: violations}
	}
	return nil
}
