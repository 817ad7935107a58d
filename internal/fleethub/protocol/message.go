package protocol

import (
	"errors"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

// MessageType names a server to client frame.
type MessageType string

const (
	MessageSnapshot       MessageType = "snapshot"
	MessageDelta          MessageType = "delta"
	MessageResyncRequired MessageType = "resync_required"
	MessageVessel         MessageType = "vessel"
	MessageSummary        MessageType = "summary"
	MessageError          MessageType = "error"
)

// Message is a server to client frame. Which fields are set depends on Type.
type Message struct {
	Type MessageType `json:"type"`
	Tick uint64      `json:"tick"`

	// Summary is set on snapshot and summary frames.
	Summary *model.FleetSnapshot `json:"summary,omitempty"`

	// Vessels is the full matching set on snapshot frames and the changed
	// matching set on delta frames.
	Vessels []model.VesselState `json:"vessels,omitempty"`

	Vessel *model.VesselState `json:"vessel,omitempty"`
	Feed   *model.FeedStats   `json:"feed,omitempty"`

	// Dropped counts deltas lost before a resync_required frame.
	Dropped int `json:"dropped,omitempty"`

	Code  string `json:"code,omitempty"`
	Error string `json:"error,omitempty"`
}

// Error codes carried by error frames.
const (
	CodeMalformedRequest = "malformed_request"
	CodeNotFound         = "not_found"
)

// ErrorMessage builds an error frame for err.
func ErrorMessage(tick uint64, err error) Message {
	code := CodeMalformedRequest
	if errors.Is(err, model.ErrVesselNotFound) {
		code = CodeNotFound
	}
	return Message{Type: MessageError, Tick: tick, Code: code, Error: err.Error()}
}

func errorsIsMalformed(err error) bool {
	return errors.Is(err, model.ErrMalformedClientRequest)
}
