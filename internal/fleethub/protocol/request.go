// Package protocol defines the frames exchanged with subscribers.
package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/autopeer-io/fleetcast/internal/fleethub/core/model"
)

// RequestType names a client request.
type RequestType string

const (
	RequestSubscribe   RequestType = "subscribe"
	RequestUnsubscribe RequestType = "unsubscribe"
	RequestResync      RequestType = "resync"
	RequestAck         RequestType = "ack"
	RequestVessel      RequestType = "vessel"
	RequestSummary     RequestType = "summary"
)

// Request is a client to server frame. Requests are always JSON text frames.
//
//	{"request":"subscribe","filter":"all"}
//	{"request":"subscribe","filter":{"type":"tanker"}}
//	{"request":"unsubscribe"}
//	{"request":"ack","tick":42}
//	{"request":"vessel","identifier":"IMO7000001"}
type Request struct {
	Request    RequestType   `json:"request"`
	Filter     *model.Filter `json:"filter,omitempty"`
	Identifier string        `json:"identifier,omitempty"`
	Tick       uint64        `json:"tick,omitempty"`
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{model.ErrMalformedClientRequest}, args...)...)
}

// DecodeRequest parses and validates one request frame. Every failure wraps
// model.ErrMalformedClientRequest.
func DecodeRequest(data []byte) (Request, error) {
	var req Request

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if errorsIsMalformed(err) {
			return Request{}, err
		}
		return Request{}, malformed("%v", err)
	}
	if dec.More() {
		return Request{}, malformed("trailing data after request")
	}

	switch req.Request {
	case RequestSubscribe:
		if req.Filter == nil {
			return Request{}, malformed("subscribe without filter")
		}
	case RequestVessel:
		if req.Identifier == "" {
			return Request{}, malformed("vessel request without identifier")
		}
	case RequestUnsubscribe, RequestResync, RequestAck, RequestSummary:
	case "":
		return Request{}, malformed("missing request type")
	default:
		return Request{}, malformed("unknown request %q", req.Request)
	}
	return req, nil
}

// EncodeRequest renders a request frame, used by clients.
func EncodeRequest(req Request) ([]byte, error) {
	return json.Marshal(req)
}
