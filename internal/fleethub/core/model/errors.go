package model

import "errors"

// Scoped failures. None of them stops the process.
var (
	// ErrFeedMessageRejected: a live message named an unknown vessel or was malformed.
	ErrFeedMessageRejected = errors.New("feed message rejected")

	// ErrFeedMessageSuperseded: a live message was older than the stored state.
	ErrFeedMessageSuperseded = errors.New("feed message superseded")

	// ErrTickOverrun: a tick took longer than the tick period.
	ErrTickOverrun = errors.New("tick overrun")

	// ErrSlowConsumerDrop: a subscriber queue overflowed and lost deltas.
	ErrSlowConsumerDrop = errors.New("slow consumer drop")

	// ErrSessionLivenessTimeout: a session went silent for longer than the liveness window.
	ErrSessionLivenessTimeout = errors.New("session liveness timeout")

	// ErrMalformedClientRequest: a client sent a request that failed validation.
	ErrMalformedClientRequest = errors.New("malformed client request")

	ErrVesselNotFound = errors.New("vessel not found")
)
