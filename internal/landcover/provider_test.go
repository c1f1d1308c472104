package landcover_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frischwood/a3dshell/internal/domain"
	"github.com/frischwood/a3dshell/internal/landcover"
	"github.com/frischwood/a3dshell/internal/observability"
)

type fakeRasterSource struct {
	raster domain.LandCoverRaster
	err    error
}

func (f *fakeRasterSource) FetchRaster(context.Context, orb.Bound, int) (domain.LandCoverRaster, error) {
	return f.raster, f.err
}

func kmFrame(resolution float64) domain.CoordinateFrame {
	roi, _ := domain.NewROI(2600000, 1199000, 2601000, 1200000, 2056, resolution)
	frame, _ := domain.NewFrame(roi, 0)
	return frame
}

// hectareRaster builds a 10x10 raster of 100m cells filled with one code.
func hectareRaster(code int32) domain.LandCoverRaster {
	codes := make([]int32, 100)
	for i := range codes {
		codes[i] = code
	}
	return domain.LandCoverRaster{
		OriginX: 2600000, OriginY: 1199000, CellSize: 100, Cols: 10, Rows: 10, Codes: codes,
	}
}

func newProvider(source domain.LandCoverSource) *landcover.Provider {
	return landcover.New(source, slog.Default(), observability.NewMetricsForTesting())
}

func TestFetchLandCover_NearestMapsToPrevah(t *testing.T) {
	// Frame finer than the source: nearest assignment. LC_27 code 21
	// (grassland) maps to PREVAH 7 (pasture).
	source := &fakeRasterSource{raster: hectareRaster(21)}
	frame := kmFrame(25)

	grid, err := newProvider(source).FetchLandCover(context.Background(), frame)
	require.NoError(t, err)

	assert.True(t, grid.Frame.Equal(frame))
	for _, c := range grid.Codes {
		assert.Equal(t, int32(7), c)
	}
	require.NoError(t, grid.Validate())
}

func TestFetchLandCover_MajorityWhenCoarser(t *testing.T) {
	// Frame at 500m over 100m source cells: majority assignment. Western
	// 6 columns forest (41), eastern 4 rock (51): forest wins the west
	// frame cell, rock the east one.
	raster := hectareRaster(41)
	for row := 0; row < 10; row++ {
		for col := 6; col < 10; col++ {
			raster.Codes[row*10+col] = 51
		}
	}
	source := &fakeRasterSource{raster: raster}
	frame := kmFrame(500)

	grid, err := newProvider(source).FetchLandCover(context.Background(), frame)
	require.NoError(t, err)

	assert.Equal(t, int32(5), grid.At(0, 0), "mixed forest")
	assert.Equal(t, int32(15), grid.At(1, 0), "rock")
}

func TestFetchLandCover_UnknownCodeIsFatal(t *testing.T) {
	source := &fakeRasterSource{raster: hectareRaster(99)}

	_, err := newProvider(source).FetchLandCover(context.Background(), kmFrame(25))
	var unknown *domain.UnknownLandCoverCodeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, int32(99), unknown.Code)
}

func TestFetchLandCover_NoInventedClasses(t *testing.T) {
	// Mixed source codes: every output class must exist in the legend.
	raster := hectareRaster(21)
	mixed := []int32{11, 31, 41, 51, 61, 62, 63}
	for i, code := range mixed {
		raster.Codes[i] = code
	}
	source := &fakeRasterSource{raster: raster}

	grid, err := newProvider(source).FetchLandCover(context.Background(), kmFrame(25))
	require.NoError(t, err)

	legend := domain.PrevahLegend()
	for _, class := range grid.Classes() {
		_, ok := legend[class]
		assert.True(t, ok, "class %d missing from legend", class)
	}
}

func TestFetchLandCover_ConstantMode(t *testing.T) {
	provider := landcover.NewConstant(15, slog.Default(), observability.NewMetricsForTesting())

	grid, err := provider.FetchLandCover(context.Background(), kmFrame(25))
	require.NoError(t, err)
	assert.Equal(t, []int32{15}, grid.Classes())
}

func TestFetchLandCover_ConstantMustBeInLegend(t *testing.T) {
	provider := landcover.NewConstant(99, slog.Default(), observability.NewMetricsForTesting())

	_, err := provider.FetchLandCover(context.Background(), kmFrame(25))
	var unknown *domain.UnknownLandCoverCodeError
	require.True(t, errors.As(err, &unknown))
}

func TestFetchLandCover_OutsideSourceStaysNoData(t *testing.T) {
	// Source covers only the southern half of the frame.
	raster := hectareRaster(21)
	raster.Rows = 5
	raster.Codes = raster.Codes[:50]
	source := &fakeRasterSource{raster: raster}

	grid, err := newProvider(source).FetchLandCover(context.Background(), kmFrame(250))
	require.NoError(t, err)

	assert.Equal(t, int32(domain.NoData), grid.At(0, 0), "north row uncovered")
	assert.Equal(t, int32(7), grid.At(0, 3), "south row covered")
}
