package main

import (
	"context"
	"sync"

	"github.com/looplab/fsm"
	"github.com/sirupsen/logrus"
)

// CallState represents states of a bridged call.
type CallState int

const (
	StateNone CallState = iota
	StateEstablishingBridge
	StateChannelDialing
	StateActive
	StateTearingDown
)

var callStateNames = map[CallState]string{
	StateNone:               "none",
	StateEstablishingBridge: "establishing_bridge",
	StateChannelDialing:     "channel_dialing",
	StateActive:             "active",
	StateTearingDown:        "tearing_down",
}

func (s CallState) String() string {
	if name, ok := callStateNames[s]; ok {
		return name
	}
	return "unknown"
}

func parseCallState(name string) CallState {
	for s, n := range callStateNames {
		if n == name {
			return s
		}
	}
	return StateNone
}

// Session events driving the call state machine.
const (
	evEstablish = "establish"
	evDial      = "dial"
	evAnswer    = "answer"
	evTeardown  = "teardown"
)

// Session holds state for a single bridged call, keyed by the incoming
// channel id.
type Session struct {
	IncomingChannelID   string
	IncomingChannelName string

	mu               sync.Mutex
	otherChannelID   string
	otherChannelName string
	bridgeID         string
	state            *fsm.FSM
	log              *logrus.Entry
}

// NewSession creates a session in the none state.
func NewSession(incomingID, incomingName string, log *logrus.Entry) *Session {
	s := &Session{
		IncomingChannelID:   incomingID,
		IncomingChannelName: incomingName,
		log:                 log.WithField("channel", incomingID),
	}
	s.state = fsm.NewFSM(
		StateNone.String(),
		fsm.Events{
			{Name: evEstablish, Src: []string{StateNone.String()}, Dst: StateEstablishingBridge.String()},
			{Name: evDial, Src: []string{StateEstablishingBridge.String()}, Dst: StateChannelDialing.String()},
			{Name: evAnswer, Src: []string{StateChannelDialing.String()}, Dst: StateActive.String()},
			{Name: evTeardown, Src: []string{
				StateNone.String(),
				StateEstablishingBridge.String(),
				StateChannelDialing.String(),
				StateActive.String(),
			}, Dst: StateTearingDown.String()},
		},
		fsm.Callbacks{
			"enter_state": func(_ context.Context, e *fsm.Event) {
				s.log.Infof("session %s: %s -> %s", e.Event, e.Src, e.Dst)
			},
		},
	)
	return s
}

// State returns the current call state.
func (s *Session) State() CallState {
	return parseCallState(s.state.Current())
}

// Transition fires a state machine event.
func (s *Session) Transition(ctx context.Context, event string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Event(ctx, event)
}

// SetBridge records the bridge owned by the session.
func (s *Session) SetBridge(id string) {
	s.mu.Lock()
	s.bridgeID = id
	s.mu.Unlock()
}

func (s *Session) BridgeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bridgeID
}

// SetOther records the companion channel. It reports false when the session
// is already tearing down; the caller then owns the channel cleanup.
func (s *Session) SetOther(id, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Is(StateTearingDown.String()) {
		return false
	}
	s.otherChannelID = id
	s.otherChannelName = name
	return true
}

// Other returns the companion channel id and name, empty when none.
func (s *Session) Other() (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.otherChannelID, s.otherChannelName
}

// TearingDown reports whether teardown has started.
func (s *Session) TearingDown() bool {
	return s.state.Is(StateTearingDown.String())
}

// Teardown moves the session to tearing_down and returns the resources to
// release. ok is false when teardown had already started.
func (s *Session) Teardown(ctx context.Context) (otherID, bridgeID string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.state.Event(ctx, evTeardown); err != nil {
		return "", "", false
	}
	return s.otherChannelID, s.bridgeID, true
}
