package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Codec renders server frames.
type Codec interface {
	Name() string
	Marshal(m Message) ([]byte, error)
	Unmarshal(data []byte, m *Message) error

	// Binary reports whether frames must be sent as binary websocket messages.
	Binary() bool
}

type jsonCodec struct{}

func (jsonCodec) Name() string                            { return "json" }
func (jsonCodec) Marshal(m Message) ([]byte, error)       { return json.Marshal(m) }
func (jsonCodec) Unmarshal(data []byte, m *Message) error { return json.Unmarshal(data, m) }
func (jsonCodec) Binary() bool                            { return false }

// cborCodec uses core deterministic encoding with RFC 3339 timestamps.
type cborCodec struct {
	enc cbor.EncMode
	dec cbor.DecMode
}

func newCBORCodec() (*cborCodec, error) {
	encOpts := cbor.CoreDetEncOptions()
	encOpts.Time = cbor.TimeRFC3339Nano
	enc, err := encOpts.EncMode()
	if err != nil {
		return nil, fmt.Errorf("cbor encoder: %w", err)
	}
	dec, err := cbor.DecOptions{}.DecMode()
	if err != nil {
		return nil, fmt.Errorf("cbor decoder: %w", err)
	}
	return &cborCodec{enc: enc, dec: dec}, nil
}

func (c *cborCodec) Name() string                            { return "cbor" }
func (c *cborCodec) Marshal(m Message) ([]byte, error)       { return c.enc.Marshal(m) }
func (c *cborCodec) Unmarshal(data []byte, m *Message) error { return c.dec.Unmarshal(data, m) }
func (c *cborCodec) Binary() bool                            { return true }

var (
	JSON Codec = jsonCodec{}
	CBOR Codec
)

func init() {
	c, err := newCBORCodec()
	if err != nil {
		panic(err)
	}
	CBOR = c
}

// CodecFor resolves the ?encoding= query value. Empty means JSON.
func CodecFor(name string) (Codec, error) {
	switch name {
	case "", "json":
		return JSON, nil
	case "cbor":
		return CBOR, nil
	default:
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
}
