// Package smet writes SMET 1.1 ASCII files, the meteorological time-series
// format consumed by MeteoIO and Snowpack.
package smet

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/frischwood/a3dshell/internal/domain"
)

// NoData is the SMET nodata sentinel for measurement values.
const NoData = -999

const timestampLayout = "2006-01-02T15:04:05"

// File describes one SMET output file.
type File struct {
	StationID   string
	StationName string
	Latitude    float64
	Longitude   float64
	Easting     float64
	Northing    float64
	EPSG        int
	Altitude    float64
	Fields      []domain.Variable
	Records     []domain.Record
}

// Write encodes the file. Records with a missing flag emit the nodata
// sentinel for that field.
func Write(w io.Writer, f File) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "SMET 1.1 ASCII")
	fmt.Fprintln(bw, "[HEADER]")
	fmt.Fprintf(bw, "station_id = %s\n", f.StationID)
	if f.StationName != "" {
		fmt.Fprintf(bw, "station_name = %s\n", f.StationName)
	}
	fmt.Fprintf(bw, "latitude = %.6f\n", f.Latitude)
	fmt.Fprintf(bw, "longitude = %.6f\n", f.Longitude)
	fmt.Fprintf(bw, "easting = %.2f\n", f.Easting)
	fmt.Fprintf(bw, "northing = %.2f\n", f.Northing)
	fmt.Fprintf(bw, "epsg = %d\n", f.EPSG)
	fmt.Fprintf(bw, "altitude = %.1f\n", f.Altitude)
	fmt.Fprintf(bw, "nodata = %d\n", NoData)
	fmt.Fprintln(bw, "tz = 0")
	fmt.Fprint(bw, "fields = timestamp")
	for _, v := range f.Fields {
		fmt.Fprintf(bw, " %s", v)
	}
	fmt.Fprintln(bw)
	fmt.Fprintln(bw, "[DATA]")

	for _, rec := range f.Records {
		bw.WriteString(rec.Timestamp.UTC().Format(timestampLayout))
		for i := range f.Fields {
			bw.WriteByte(' ')
			if i < len(rec.Missing) && rec.Missing[i] {
				bw.WriteString(strconv.Itoa(NoData))
				continue
			}
			bw.WriteString(strconv.FormatFloat(rec.Values[i], 'f', 3, 64))
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// WritePOI emits the special points-of-interest SMET file Alpine3D uses to
// select cells for detailed output: a header plus one easting/northing/
// altitude line per point.
func WritePOI(w io.Writer, epsg int, points [][3]float64) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, "SMET 1.1 ASCII")
	fmt.Fprintln(bw, "[HEADER]")
	fmt.Fprintln(bw, "station_id = poi")
	fmt.Fprintf(bw, "epsg = %d\n", epsg)
	fmt.Fprintf(bw, "nodata = %d\n", NoData)
	fmt.Fprintln(bw, "fields = easting northing altitude")
	fmt.Fprintln(bw, "[DATA]")
	for _, p := range points {
		fmt.Fprintf(bw, "%.2f %.2f %.2f\n", p[0], p[1], p[2])
	}
	return bw.Flush()
}
