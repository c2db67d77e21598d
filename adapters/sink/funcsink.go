package sink

import (
	"context"
	"fmt"

	"driftwatch/domain/alert"
	"driftwatch/domain/core"
)

// Func adapts a plain callback into an alert sink, so callers can
// observe events without writing a sink type.
type Func struct {
	name string
	fn   func(ctx context.Context, event alert.Event) error
}

// NewFunc wraps the callback under the given name
func NewFunc(name string, fn func(ctx context.Context, event alert.Event) error) (*Func, error) {
	if fn == nil {
		return nil, fmt.Errorf("%w: nil sink callback", core.ErrConfiguration)
	}
	if name == "" {
		name = "func"
	}
	return &Func{name: name, fn: fn}, nil
}

// Name identifies the sink in dispatch logs
func (s *Func) Name() string { return s.name }

// Notify invokes the callback
func (s *Func) Notify(ctx context.Context, event alert.Event) error {
	return s.fn(ctx, event)
}
