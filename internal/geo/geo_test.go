package geo_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frischwood/a3dshell/internal/geo"
)

func TestEPSGFromCoordSys(t *testing.T) {
	epsg, err := geo.EPSGFromCoordSys("CH1903+")
	require.NoError(t, err)
	assert.Equal(t, 2056, epsg)

	_, err = geo.EPSGFromCoordSys("MARS2000")
	require.Error(t, err)
}

func TestCoordSysFromEPSG(t *testing.T) {
	name, err := geo.CoordSysFromEPSG(2056)
	require.NoError(t, err)
	assert.Equal(t, "CH1903+", name)

	_, err = geo.CoordSysFromEPSG(99999)
	require.Error(t, err)
}

func TestLV95RoundTrip(t *testing.T) {
	lon, lat := geo.LV95ToWGS84(2600000, 1200000)
	assert.InDelta(t, 7.5, lon, 1e-9)
	assert.InDelta(t, 46.5, lat, 1e-9)

	e, n := geo.WGS84ToLV95(lon, lat)
	assert.InDelta(t, 2600000, e, 1e-6)
	assert.InDelta(t, 1200000, n, 1e-6)
}

func TestBoundToWGS84(t *testing.T) {
	b := orb.Bound{Min: orb.Point{2600000, 1200000}, Max: orb.Point{2601000, 1201000}}

	wgs, err := geo.BoundToWGS84(b, geo.EPSGLv95)
	require.NoError(t, err)
	assert.InDelta(t, 7.5, wgs.Min.X(), 1e-9)
	assert.InDelta(t, 46.5, wgs.Min.Y(), 1e-9)
	assert.Greater(t, wgs.Max.X(), wgs.Min.X())

	same, err := geo.BoundToWGS84(wgs, geo.EPSGWgs84)
	require.NoError(t, err)
	assert.Equal(t, wgs, same)

	_, err = geo.BoundToWGS84(b, 21781)
	require.Error(t, err)
}

func TestBBoxString(t *testing.T) {
	b := orb.Bound{Min: orb.Point{7.5, 46.5}, Max: orb.Point{7.6, 46.6}}
	assert.Equal(t, "7.500000,46.500000,7.600000,46.600000", geo.BBoxString(b))
}
