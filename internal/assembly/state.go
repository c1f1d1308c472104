package assembly

import "fmt"

// State tracks the progress of one assembly run. The pipeline moves
// strictly forward; any fatal error moves it to StateFailed, which is
// terminal.
type State string

const (
	StateInitialized      State = "initialized"
	StateFrameEstablished State = "frame_established"
	StateElevationReady   State = "elevation_ready"
	StateLandCoverReady   State = "land_cover_ready"
	StateStationsReady    State = "stations_ready"
	StatePackaged         State = "packaged"
	StateFailed           State = "failed"
)

var nextState = map[State]State{
	StateInitialized:      StateFrameEstablished,
	StateFrameEstablished: StateElevationReady,
	StateElevationReady:   StateLandCoverReady,
	StateLandCoverReady:   StateStationsReady,
	StateStationsReady:    StatePackaged,
}

// CanTransition reports whether moving from s to target is allowed.
func (s State) CanTransition(target State) bool {
	if target == StateFailed {
		return s != StatePackaged && s != StateFailed
	}
	return nextState[s] == target
}

// machine enforces the run state progression.
type machine struct {
	state State
}

func newMachine() *machine {
	return &machine{state: StateInitialized}
}

func (m *machine) advance(target State) error {
	if !m.state.CanTransition(target) {
		return fmt.Errorf("invalid state transition %s -> %s", m.state, target)
	}
	m.state = target
	return nil
}

func (m *machine) fail() {
	if m.state.CanTransition(StateFailed) {
		m.state = StateFailed
	}
}
