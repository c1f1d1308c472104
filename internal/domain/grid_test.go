package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frischwood/a3dshell/internal/domain"
)

func testFrame(cols, rows int) domain.CoordinateFrame {
	return domain.CoordinateFrame{OriginX: 0, OriginY: 0, CellSize: 25, Cols: cols, Rows: rows, EPSG: 2056}
}

func TestElevationGrid_StartsAsNoData(t *testing.T) {
	g := domain.NewElevationGrid(testFrame(4, 4))
	assert.Equal(t, 0.0, g.ValidFraction())
	_, ok := g.MeanElevation()
	assert.False(t, ok)
}

func TestElevationGrid_ValidFractionAndMean(t *testing.T) {
	g := domain.NewElevationGrid(testFrame(2, 2))
	g.Set(0, 0, 1000)
	g.Set(1, 0, 2000)

	assert.Equal(t, 0.5, g.ValidFraction())
	mean, ok := g.MeanElevation()
	require.True(t, ok)
	assert.Equal(t, 1500.0, mean)
}

func TestLandCoverGrid_ClassesSortedDistinct(t *testing.T) {
	g := domain.NewLandCoverGrid(testFrame(2, 2), domain.PrevahLegend())
	g.Set(0, 0, 15)
	g.Set(1, 0, 5)
	g.Set(0, 1, 15)

	assert.Equal(t, []int32{5, 15}, g.Classes())
}

func TestLandCoverGrid_ValidateUnknownCode(t *testing.T) {
	g := domain.NewLandCoverGrid(testFrame(2, 2), domain.PrevahLegend())
	g.Set(0, 0, 5)
	g.Set(1, 1, 999)

	err := g.Validate()
	var unknown *domain.UnknownLandCoverCodeError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, int32(999), unknown.Code)
}

func TestLandCoverGrid_ValidateAllowsNoData(t *testing.T) {
	g := domain.NewLandCoverGrid(testFrame(2, 2), domain.PrevahLegend())
	g.Set(0, 0, 7)
	require.NoError(t, g.Validate())
}
