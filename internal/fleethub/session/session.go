// Package session serves one websocket client: it decodes requests, drives
// the client's hub subscription and writes queued frames back.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/looplab/fsm"

	"github.com/autopeer-io/fleetcast/internal/fleethub/broadcast"
	"github.com/autopeer-io/fleetcast/internal/fleethub/core"
	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
	"github.com/autopeer-io/fleetcast/internal/fleethub/protocol"
	"github.com/autopeer-io/fleetcast/internal/pkg/metrics"
	fsmutil "github.com/autopeer-io/fleetcast/internal/pkg/util/fsm"
	"github.com/autopeer-io/fleetcast/pkg/log"
)

// Config tunes the websocket transport.
type Config struct {
	WriteTimeout   time.Duration
	PingInterval   time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

func DefaultConfig() Config {
	return Config{
		WriteTimeout:   10 * time.Second,
		PingInterval:   20 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 4096,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.PongWait <= c.PingInterval {
		c.PongWait = 3 * c.PingInterval
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return c
}

// closeReason labels why a session ended.
type closeReason string

const (
	reasonClientClosed closeReason = "client_closed"
	reasonTransport    closeReason = "transport_error"
	reasonMalformed    closeReason = "malformed_request"
	reasonLiveness     closeReason = "liveness_timeout"
	reasonDetached     closeReason = "detached"
	reasonShutdown     closeReason = "server_shutdown"
)

func (r closeReason) closeCode() int {
	switch r {
	case reasonClientClosed:
		return websocket.CloseNormalClosure
	case reasonMalformed:
		return websocket.ClosePolicyViolation
	default:
		return websocket.CloseGoingAway
	}
}

// Session is one connected client.
type Session struct {
	id     string
	remote string
	conn   *websocket.Conn
	codec  protocol.Codec
	hub    *broadcast.Hub
	fleet  core.FleetReader
	cfg    Config
	log    log.Logger

	fsm *fsm.FSM
	sub *broadcast.Subscription

	closeOnce sync.Once
	closing   chan struct{}
	reason    closeReason
}

func New(conn *websocket.Conn, codec protocol.Codec, hub *broadcast.Hub, fleet core.FleetReader, cfg Config) *Session {
	id := uuid.NewString()
	s := &Session{
		id:      id,
		remote:  conn.RemoteAddr().String(),
		conn:    conn,
		codec:   codec,
		hub:     hub,
		fleet:   fleet,
		cfg:     cfg.withDefaults(),
		log:     log.WithName("session").WithValues("client", id),
		closing: make(chan struct{}),
	}
	s.fsm = s.newFSM()
	return s
}

func (s *Session) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *Session) State() string { return s.fsm.Current() }

// Run serves the client until either side closes the connection or ctx is
// done. The subscription is released before Run returns.
func (s *Session) Run(ctx context.Context) {
	s.sub = s.hub.Attach(s.id)
	s.event(ctx, EventAccept)

	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writePump()
	}()
	go func() {
		select {
		case <-ctx.Done():
			s.shutdown(reasonShutdown)
		case <-s.closing:
		}
	}()

	s.readPump(ctx)
	s.shutdown(reasonTransport)
	<-writerDone
	s.event(context.WithoutCancel(ctx), EventRelease)
}

// Close ends the session from the server side. Repeated calls are no-ops.
func (s *Session) Close() {
	s.shutdown(reasonShutdown)
}

func (s *Session) shutdown(reason closeReason) {
	s.closeOnce.Do(func() {
		s.reason = reason
		s.event(context.Background(), EventClose)
		close(s.closing)
	})
}

func (s *Session) event(ctx context.Context, name string) {
	if err := s.fsm.Event(ctx, name); fsmutil.IsRealError(err) {
		s.log.Debug("Ignored session event", "event", name, "state", s.fsm.Current(), "error", err.Error())
	}
}

func (s *Session) readPump(ctx context.Context) {
	s.conn.SetReadLimit(s.cfg.MaxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	s.conn.SetPongHandler(func(string) error {
		s.hub.Touch(s.id)
		return s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	for {
		kind, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.shutdown(reasonClientClosed)
				return
			}
			select {
			case <-s.closing:
			default:
				s.log.Debug("Read failed", "error", err.Error())
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		s.hub.Touch(s.id)

		if kind != websocket.TextMessage {
			s.reject(fmt.Errorf("%w: requests must be text frames", model.ErrMalformedClientRequest))
			return
		}
		req, err := protocol.DecodeRequest(data)
		if err != nil {
			s.reject(err)
			return
		}
		if err := s.handle(ctx, req); err != nil {
			s.reject(err)
			return
		}
	}
}

// reject answers a bad request with an error frame and closes the session.
func (s *Session) reject(err error) {
	s.log.Warn("Rejected client request", "error", err.Error())
	s.hub.Reply(s.id, protocol.ErrorMessage(s.hub.Tick(), err))
	s.shutdown(reasonMalformed)
}

func (s *Session) handle(ctx context.Context, req protocol.Request) error {
	switch req.Request {
	case protocol.RequestSubscribe:
		if _, err := s.hub.Subscribe(s.id, *req.Filter); err != nil {
			return err
		}
		s.event(ctx, EventSubscribe)

	case protocol.RequestUnsubscribe:
		s.hub.Unsubscribe(s.id)
		s.event(ctx, EventUnsubscribe)

	case protocol.RequestResync:
		return s.hub.Resync(s.id)

	case protocol.RequestAck:
		s.hub.Ack(s.id, req.Tick)

	case protocol.RequestVessel:
		v, err := s.fleet.Vessel(req.Identifier)
		if err != nil {
			s.hub.Reply(s.id, protocol.ErrorMessage(s.hub.Tick(), err))
			return nil
		}
		s.hub.Reply(s.id, protocol.Message{Type: protocol.MessageVessel, Tick: s.hub.Tick(), Vessel: &v})

	case protocol.RequestSummary:
		summary := s.fleet.CurrentSnapshot()
		feed := s.fleet.FeedStats()
		s.hub.Reply(s.id, protocol.Message{Type: protocol.MessageSummary, Tick: summary.Tick, Summary: &summary, Feed: &feed})
	}
	return nil
}

func (s *Session) writePump() {
	ping := time.NewTicker(s.cfg.PingInterval)
	defer ping.Stop()
	defer s.conn.Close()

	for {
		select {
		case <-s.sub.Ready():
			if err := s.flush(); err != nil {
				s.log.Debug("Write failed", "error", err.Error())
				s.shutdown(reasonTransport)
				return
			}

		case <-ping.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(s.cfg.WriteTimeout)); err != nil {
				s.shutdown(reasonTransport)
				return
			}

		case <-s.sub.Done():
			reason := reasonDetached
			if errors.Is(s.sub.Err(), model.ErrSessionLivenessTimeout) {
				reason = reasonLiveness
			}
			s.shutdown(reason)
			s.goodbye()
			return

		case <-s.closing:
			if err := s.flush(); err != nil {
				s.log.Debug("Final flush failed", "error", err.Error())
			}
			s.goodbye()
			return
		}
	}
}

func (s *Session) flush() error {
	for _, m := range s.sub.Drain() {
		if err := s.write(m); err != nil {
			return err
		}
	}
	return nil
}

func (s *Session) write(m protocol.Message) error {
	data, err := s.codec.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", m.Type, err)
	}
	kind := websocket.TextMessage
	if s.codec.Binary() {
		kind = websocket.BinaryMessage
	}

	_ = s.conn.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.conn.WriteMessage(kind, data); err != nil {
		return err
	}
	metrics.MessagesSent.WithLabelValues(string(m.Type)).Inc()
	return nil
}

func (s *Session) goodbye() {
	msg := websocket.FormatCloseMessage(s.reason.closeCode(), string(s.reason))
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(s.cfg.WriteTimeout))
}
