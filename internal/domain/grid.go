package domain

import "fmt"

// NoData is the sentinel for cells with no valid value, shared by the
// elevation and land-cover rasters and written verbatim into the Arc/Info
// ASCII headers.
const NoData = -9999

// ElevationGrid holds elevation values in meters over a coordinate frame,
// row-major with row 0 at the northern edge.
type ElevationGrid struct {
	Frame  CoordinateFrame
	Values []float64
}

// NewElevationGrid allocates a grid matching the frame, filled with NoData.
func NewElevationGrid(frame CoordinateFrame) *ElevationGrid {
	values := make([]float64, frame.Cols*frame.Rows)
	for i := range values {
		values[i] = NoData
	}
	return &ElevationGrid{Frame: frame, Values: values}
}

// At returns the value at (col, row).
func (g *ElevationGrid) At(col, row int) float64 {
	return g.Values[row*g.Frame.Cols+col]
}

// Set stores a value at (col, row).
func (g *ElevationGrid) Set(col, row int, v float64) {
	g.Values[row*g.Frame.Cols+col] = v
}

// ValidFraction returns the share of cells holding real data.
func (g *ElevationGrid) ValidFraction() float64 {
	if len(g.Values) == 0 {
		return 0
	}
	valid := 0
	for _, v := range g.Values {
		if v != NoData {
			valid++
		}
	}
	return float64(valid) / float64(len(g.Values))
}

// MeanElevation averages the valid cells. ok is false when the grid holds
// no valid data at all.
func (g *ElevationGrid) MeanElevation() (mean float64, ok bool) {
	sum, n := 0.0, 0
	for _, v := range g.Values {
		if v != NoData {
			sum += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// LandCoverGrid holds categorical class codes over a coordinate frame plus
// the legend resolving each code to a class name.
type LandCoverGrid struct {
	Frame  CoordinateFrame
	Codes  []int32
	Legend Legend
}

// NewLandCoverGrid allocates a grid matching the frame, filled with NoData.
func NewLandCoverGrid(frame CoordinateFrame, legend Legend) *LandCoverGrid {
	codes := make([]int32, frame.Cols*frame.Rows)
	for i := range codes {
		codes[i] = NoData
	}
	return &LandCoverGrid{Frame: frame, Codes: codes, Legend: legend}
}

// At returns the class code at (col, row).
func (g *LandCoverGrid) At(col, row int) int32 {
	return g.Codes[row*g.Frame.Cols+col]
}

// Set stores a class code at (col, row).
func (g *LandCoverGrid) Set(col, row int, code int32) {
	g.Codes[row*g.Frame.Cols+col] = code
}

// Classes returns the sorted set of distinct class codes present,
// excluding NoData.
func (g *LandCoverGrid) Classes() []int32 {
	seen := map[int32]bool{}
	var out []int32
	for _, c := range g.Codes {
		if c == NoData || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// Validate checks that every code present in the grid exists in the legend.
func (g *LandCoverGrid) Validate() error {
	if len(g.Codes) != g.Frame.Cols*g.Frame.Rows {
		return fmt.Errorf("land cover grid has %d cells, frame wants %d", len(g.Codes), g.Frame.Cols*g.Frame.Rows)
	}
	for _, c := range g.Codes {
		if c == NoData {
			continue
		}
		if _, ok := g.Legend[c]; !ok {
			return &UnknownLandCoverCodeError{Code: c}
		}
	}
	return nil
}
