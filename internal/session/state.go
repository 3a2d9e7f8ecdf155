package session

import (
	"errors"
	"fmt"
)

// State is a connection state of one generation.
type State int

const (
	// StateIdle indicates no connection has been requested.
	StateIdle State = iota
	// StateConnecting indicates the websocket is being dialed.
	StateConnecting
	// StateNegotiated indicates the session configuration has been sent.
	StateNegotiated
	// StateStreaming indicates audio deltas are arriving.
	StateStreaming
	// StateFinalizing indicates the audio has been materialized.
	StateFinalizing
	// StateClosed is the normal terminal state.
	StateClosed
	// StateAborted is the terminal state after a transport error.
	StateAborted
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateNegotiated:
		return "negotiated"
	case StateStreaming:
		return "streaming"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	case StateAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateClosed || s == StateAborted
}

// EventKind identifies an inbound event.
type EventKind int

const (
	EventSessionNegotiated EventKind = iota
	EventAudioDelta
	EventAudioDone
	EventResponseDone
	EventTransportError
	EventTransportClosed
)

// String returns the string representation of the event kind.
func (k EventKind) String() string {
	switch k {
	case EventSessionNegotiated:
		return "session_negotiated"
	case EventAudioDelta:
		return "audio_delta"
	case EventAudioDone:
		return "audio_done"
	case EventResponseDone:
		return "response_done"
	case EventTransportError:
		return "transport_error"
	case EventTransportClosed:
		return "transport_closed"
	default:
		return "unknown"
	}
}

// Event is one input to the state machine. Chunk is set for audio deltas and
// Err for transport errors.
type Event struct {
	Kind  EventKind
	Chunk []byte
	Err   error
}

// ErrIllegalTransition is returned by Apply for events the current state
// does not accept.
var ErrIllegalTransition = errors.New("illegal state transition")

// Machine is the connection state machine of one generation.
type Machine struct {
	current     State
	transitions map[State]map[EventKind]State
	onEnter     map[State]func(Event)
}

// NewMachine creates a machine in StateIdle.
func NewMachine() *Machine {
	return &Machine{
		current: StateIdle,
		transitions: map[State]map[EventKind]State{
			StateConnecting: {
				EventSessionNegotiated: StateNegotiated,
				EventTransportError:    StateAborted,
			},
			StateNegotiated: {
				EventAudioDelta:     StateStreaming,
				EventAudioDone:      StateFinalizing,
				EventResponseDone:   StateClosed,
				EventTransportError: StateAborted,
			},
			StateStreaming: {
				EventAudioDelta:     StateStreaming,
				EventAudioDone:      StateFinalizing,
				EventResponseDone:   StateClosed,
				EventTransportError: StateAborted,
			},
			StateFinalizing: {
				EventAudioDelta:     StateStreaming,
				EventAudioDone:      StateFinalizing,
				EventResponseDone:   StateClosed,
				EventTransportError: StateAborted,
			},
		},
		onEnter: make(map[State]func(Event)),
	}
}

// Begin moves an idle machine to StateConnecting.
func (m *Machine) Begin() error {
	if m.current != StateIdle {
		return fmt.Errorf("%w: begin from %s", ErrIllegalTransition, m.current)
	}
	m.enter(StateConnecting, Event{})
	return nil
}

// Apply consumes ev and returns the resulting state. Transport-closed events
// never change the state.
func (m *Machine) Apply(ev Event) (State, error) {
	if ev.Kind == EventTransportClosed {
		return m.current, nil
	}

	next, ok := m.transitions[m.current][ev.Kind]
	if !ok {
		return m.current, fmt.Errorf("%w: %s in %s", ErrIllegalTransition, ev.Kind, m.current)
	}
	m.enter(next, ev)
	return next, nil
}

func (m *Machine) enter(to State, ev Event) {
	m.current = to
	if fn, ok := m.onEnter[to]; ok && fn != nil {
		fn(ev)
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	return m.current
}

// OnEnter registers a callback run every time state is entered, including
// self-transitions.
func (m *Machine) OnEnter(state State, fn func(Event)) {
	m.onEnter[state] = fn
}
