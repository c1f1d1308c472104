// Package geo holds coordinate-system helpers: EPSG lookup for the solver's
// coordinate system names and the approximate LV95/WGS84 transforms used to
// build upstream API queries.
package geo

import (
	"fmt"

	"github.com/paulmach/orb"
)

// EPSG codes the pipeline understands.
const (
	EPSGLv95    = 2056  // CH1903+/LV95
	EPSGLv03    = 21781 // CH1903/LV03
	EPSGWgs84   = 4326  // WGS84
	EPSGChtrs95 = 4932
)

var coordSysToEPSG = map[string]int{
	"CH1903+": EPSGLv95,
	"CH1903":  EPSGLv03,
	"WGS84":   EPSGWgs84,
	"CHTRS95": EPSGChtrs95,
}

// EPSGFromCoordSys resolves a MeteoIO coordinate system name to its EPSG
// code.
func EPSGFromCoordSys(name string) (int, error) {
	epsg, ok := coordSysToEPSG[name]
	if !ok {
		return 0, fmt.Errorf("unknown coordinate system %q", name)
	}
	return epsg, nil
}

// CoordSysFromEPSG is the inverse of EPSGFromCoordSys.
func CoordSysFromEPSG(epsg int) (string, error) {
	for name, code := range coordSysToEPSG {
		if code == epsg {
			return name, nil
		}
	}
	return "", fmt.Errorf("unknown EPSG code %d", epsg)
}

// LV95 reference point: Bern is near E 2600000 / N 1200000, roughly
// 7.5 degrees east, 46.5 degrees north. One degree spans about 111 km.
// Good to a few hundred meters within Switzerland, which is enough for
// bounding-box queries against upstream catalogs; it must never be used
// for grid geometry.
const (
	lv95OriginE  = 2600000.0
	lv95OriginN  = 1200000.0
	lv95Lon      = 7.5
	lv95Lat      = 46.5
	metersPerDeg = 111000.0
)

// LV95ToWGS84 converts LV95 easting/northing to longitude/latitude.
func LV95ToWGS84(e, n float64) (lon, lat float64) {
	lon = (e-lv95OriginE)/metersPerDeg + lv95Lon
	lat = (n-lv95OriginN)/metersPerDeg + lv95Lat
	return lon, lat
}

// WGS84ToLV95 converts longitude/latitude to LV95 easting/northing.
func WGS84ToLV95(lon, lat float64) (e, n float64) {
	e = (lon-lv95Lon)*metersPerDeg + lv95OriginE
	n = (lat-lv95Lat)*metersPerDeg + lv95OriginN
	return e, n
}

// BoundToWGS84 reprojects a projected bound to WGS84 for upstream bbox
// queries. WGS84 bounds pass through unchanged.
func BoundToWGS84(b orb.Bound, epsg int) (orb.Bound, error) {
	switch epsg {
	case EPSGWgs84:
		return b, nil
	case EPSGLv95:
		minLon, minLat := LV95ToWGS84(b.Min.X(), b.Min.Y())
		maxLon, maxLat := LV95ToWGS84(b.Max.X(), b.Max.Y())
		return orb.Bound{
			Min: orb.Point{minLon, minLat},
			Max: orb.Point{maxLon, maxLat},
		}, nil
	default:
		return orb.Bound{}, fmt.Errorf("no WGS84 transform for EPSG %d", epsg)
	}
}

// BBoxString formats a bound as the comma-separated minx,miny,maxx,maxy
// string upstream APIs expect.
func BBoxString(b orb.Bound) string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.Min.X(), b.Min.Y(), b.Max.X(), b.Max.Y())
}
