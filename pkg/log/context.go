package log

import (
	"context"
	"maps"
	"sync/atomic"
)

type contextKey struct{}

var extractors atomic.Pointer[map[string]func(context.Context) string]

// SetContextExtractors registers functions whose non-empty results are
// attached, under their key, to loggers returned by FromContext.
func SetContextExtractors(fns map[string]func(context.Context) string) {
	m := maps.Clone(fns)
	extractors.Store(&m)
}

// NewContext returns a copy of ctx carrying l.
func NewContext(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or the process wide logger,
// enriched with the registered context extractors.
func FromContext(ctx context.Context) Logger {
	l := current()
	if ctx == nil {
		return l
	}
	if v, ok := ctx.Value(contextKey{}).(Logger); ok {
		l = v
	}
	if m := extractors.Load(); m != nil {
		for key, fn := range *m {
			if v := fn(ctx); v != "" {
				l = l.WithValues(key, v)
			}
		}
	}
	return l
}
