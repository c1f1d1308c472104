// Package asc encodes grids as Arc/Info ASCII rasters (.asc), the surface
// grid format Alpine3D reads.
package asc

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/frischwood/a3dshell/internal/domain"
)

func writeHeader(w *bufio.Writer, f domain.CoordinateFrame) {
	fmt.Fprintf(w, "ncols %d\n", f.Cols)
	fmt.Fprintf(w, "nrows %d\n", f.Rows)
	fmt.Fprintf(w, "xllcorner %s\n", trimFloat(f.OriginX))
	fmt.Fprintf(w, "yllcorner %s\n", trimFloat(f.OriginY))
	fmt.Fprintf(w, "cellsize %s\n", trimFloat(f.CellSize))
	fmt.Fprintf(w, "NODATA_value %d\n", int(domain.NoData))
}

// WriteElevation encodes an elevation grid. Values are written with two
// decimals; nodata cells are written as the integer sentinel.
func WriteElevation(w io.Writer, g *domain.ElevationGrid) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, g.Frame)
	for row := 0; row < g.Frame.Rows; row++ {
		for col := 0; col < g.Frame.Cols; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			v := g.At(col, row)
			if v == domain.NoData {
				bw.WriteString(strconv.Itoa(int(domain.NoData)))
			} else {
				bw.WriteString(strconv.FormatFloat(v, 'f', 2, 64))
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WriteLandCover encodes a categorical grid with integer codes.
func WriteLandCover(w io.Writer, g *domain.LandCoverGrid) error {
	bw := bufio.NewWriter(w)
	writeHeader(bw, g.Frame)
	for row := 0; row < g.Frame.Rows; row++ {
		for col := 0; col < g.Frame.Cols; col++ {
			if col > 0 {
				bw.WriteByte(' ')
			}
			bw.WriteString(strconv.Itoa(int(g.At(col, row))))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// trimFloat formats origin and cell size without trailing zeros, matching
// the headers the solver tooling produces.
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
