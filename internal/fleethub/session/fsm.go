package session

import (
	"context"

	"github.com/looplab/fsm"

	"github.com/autopeer-io/fleetcast/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/fleetcast/internal/pkg/util/fsm"
)

// Session states.
const (
	StateConnecting    = "connecting"
	StateHandshaking   = "handshaking"
	StateSubscribed    = "subscribed"
	StateDisconnecting = "disconnecting"
	StateClosed        = "closed"
)

const (
	// EventAccept fires once the transport is established.
	EventAccept = "event_accept"
	// EventSubscribe fires on every accepted subscribe request.
	EventSubscribe = "event_subscribe"
	// EventUnsubscribe returns the session to handshaking.
	EventUnsubscribe = "event_unsubscribe"
	// EventClose starts shutdown from any live state.
	EventClose = "event_close"
	// EventRelease finishes shutdown once the subscription is gone.
	EventRelease = "event_release"
)

func (s *Session) newFSM() *fsm.FSM {
	events := fsm.Events{
		{Name: EventAccept, Src: []string{StateConnecting}, Dst: StateHandshaking},
		{Name: EventSubscribe, Src: []string{StateHandshaking, StateSubscribed}, Dst: StateSubscribed},
		{Name: EventUnsubscribe, Src: []string{StateHandshaking, StateSubscribed}, Dst: StateHandshaking},
		{Name: EventClose, Src: []string{StateConnecting, StateHandshaking, StateSubscribed}, Dst: StateDisconnecting},
		{Name: EventRelease, Src: []string{StateDisconnecting}, Dst: StateClosed},
	}

	callbacks := fsm.Callbacks{
		"enter_" + StateHandshaking:   fsmutil.WrapEvent(s.enterHandshaking),
		"enter_" + StateSubscribed:    fsmutil.WrapEvent(s.enterSubscribed),
		"enter_" + StateDisconnecting: fsmutil.WrapEvent(s.enterDisconnecting),
		"enter_" + StateClosed:        fsmutil.WrapEvent(s.enterClosed),
	}

	return fsm.NewFSM(StateConnecting, events, callbacks)
}

func (s *Session) enterHandshaking(_ context.Context, e *fsm.Event) error {
	switch e.Event {
	case EventAccept:
		metrics.ActiveSessions.Inc()
		s.log.Info("Session opened", "remote", s.remote, "encoding", s.codec.Name())
	case EventUnsubscribe:
		s.log.Debug("Session unsubscribed")
	}
	return nil
}

func (s *Session) enterSubscribed(_ context.Context, e *fsm.Event) error {
	s.log.Debug("Session subscribed", "from", e.Src)
	return nil
}

// enterDisconnecting runs exactly once per session.
func (s *Session) enterDisconnecting(_ context.Context, e *fsm.Event) error {
	if e.Src != StateConnecting {
		metrics.ActiveSessions.Dec()
	}
	metrics.SessionsClosed.WithLabelValues(string(s.reason)).Inc()
	s.log.Info("Session closing", "reason", s.reason, "from", e.Src)
	return nil
}

func (s *Session) enterClosed(context.Context, *fsm.Event) error {
	s.hub.Detach(s.id)
	return nil
}
