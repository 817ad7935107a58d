package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// errUndecodable marks payloads that never reached a typed handler.
var errUndecodable = errors.New("undecodable payload")

type HandlerFunc func(ctx context.Context, topic string, payload []byte) error

type TypedHandlerFunc[T any] func(ctx context.Context, topic string, msg *T) error

// JSONAdapter decodes the payload into T before calling handler.
func JSONAdapter[T any](handler TypedHandlerFunc[T]) HandlerFunc {
	return func(ctx context.Context, topic string, payload []byte) error {
		msg := new(T)
		if err := json.Unmarshal(payload, msg); err != nil {
			return fmt.Errorf("%w: %v", errUndecodable, err)
		}
		return handler(ctx, topic, msg)
	}
}
