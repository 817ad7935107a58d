package model

import (
	"fmt"
	"time"
)

// LiveMessage is one normalized report from the live feed.
type LiveMessage struct {
	Identifier  string     `json:"identifier"`
	Position    Position   `json:"position"`
	Kinematics  Kinematics `json:"kinematics"`
	Destination string     `json:"destination,omitempty"`
	ETA         *time.Time `json:"eta,omitempty"`

	// Status, when present, is the reported navigational status. It is the
	// only path into dry_dock and under_repair.
	Status Status `json:"status,omitempty"`

	ObservedAt time.Time `json:"observedAt"`
}

// Validate checks the message in isolation. Whether the vessel exists is the
// reconciler's concern.
func (m *LiveMessage) Validate() error {
	if m.Identifier == "" {
		return fmt.Errorf("%w: missing identifier", ErrFeedMessageRejected)
	}
	if !m.Position.Valid() {
		return fmt.Errorf("%w: position %+v out of range", ErrFeedMessageRejected, m.Position)
	}
	if !m.Kinematics.Valid() {
		return fmt.Errorf("%w: kinematics %+v out of range", ErrFeedMessageRejected, m.Kinematics)
	}
	if m.Status != "" && !m.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrFeedMessageRejected, m.Status)
	}
	if m.ObservedAt.IsZero() {
		return fmt.Errorf("%w: missing observedAt", ErrFeedMessageRejected)
	}
	return nil
}

// FeedStats counts live feed traffic since start.
type FeedStats struct {
	Received    uint64    `json:"received"`
	Applied     uint64    `json:"applied"`
	Superseded  uint64    `json:"superseded"`
	Rejected    uint64    `json:"rejected"`
	Dropped     uint64    `json:"dropped"`
	LastMessage time.Time `json:"lastMessage,omitempty"`
}
