package assembly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestState_ForwardProgression(t *testing.T) {
	order := []State{
		StateFrameEstablished,
		StateElevationReady,
		StateLandCoverReady,
		StateStationsReady,
		StatePackaged,
	}

	m := newMachine()
	assert.Equal(t, StateInitialized, m.state)
	for _, next := range order {
		require.NoError(t, m.advance(next))
		assert.Equal(t, next, m.state)
	}
}

func TestState_NoSkipping(t *testing.T) {
	m := newMachine()
	require.Error(t, m.advance(StateElevationReady))
	require.Error(t, m.advance(StatePackaged))
	assert.Equal(t, StateInitialized, m.state)
}

func TestState_NoGoingBack(t *testing.T) {
	m := newMachine()
	require.NoError(t, m.advance(StateFrameEstablished))
	require.Error(t, m.advance(StateFrameEstablished))
}

func TestState_FailFromAnywhereExceptTerminal(t *testing.T) {
	assert.True(t, StateInitialized.CanTransition(StateFailed))
	assert.True(t, StateStationsReady.CanTransition(StateFailed))
	assert.False(t, StatePackaged.CanTransition(StateFailed))
	assert.False(t, StateFailed.CanTransition(StateFailed))

	m := newMachine()
	require.NoError(t, m.advance(StateFrameEstablished))
	m.fail()
	assert.Equal(t, StateFailed, m.state)

	// Failed is terminal.
	require.Error(t, m.advance(StateElevationReady))
}
