package domain_test

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frischwood/a3dshell/internal/domain"
)

func TestTilesCovering_DeterministicOrder(t *testing.T) {
	b := orb.Bound{
		Min: orb.Point{2599500, 1199500},
		Max: orb.Point{2601500, 1200500},
	}

	tiles := domain.TilesCovering(b)
	require.Len(t, tiles, 6)

	// West to east within each row, south to north across rows.
	assert.Equal(t, []domain.TileID{
		{E: 2599, N: 1199}, {E: 2600, N: 1199}, {E: 2601, N: 1199},
		{E: 2599, N: 1200}, {E: 2600, N: 1200}, {E: 2601, N: 1200},
	}, tiles)
}

func TestTilesCovering_SingleTileForAlignedKilometer(t *testing.T) {
	b := orb.Bound{
		Min: orb.Point{2600000, 1199000},
		Max: orb.Point{2601000, 1200000},
	}
	tiles := domain.TilesCovering(b)
	require.Len(t, tiles, 1)
	assert.Equal(t, domain.TileID{E: 2600, N: 1199}, tiles[0])
}

func TestTileID_String(t *testing.T) {
	assert.Equal(t, "2600-1199", domain.TileID{E: 2600, N: 1199}.String())
}

func TestTileID_Bound(t *testing.T) {
	b := domain.TileID{E: 2600, N: 1199}.Bound()
	assert.Equal(t, orb.Point{2600000, 1199000}, b.Min)
	assert.Equal(t, orb.Point{2601000, 1200000}, b.Max)
}
