package ports

import (
	"context"

	"driftwatch/domain/alert"
)

// AlertSink is an external delivery target for alert events. A nil
// return means the event was delivered. Any error is treated as a
// delivery failure by the dispatcher, which logs it and moves on;
// sink failures never reach the monitoring caller.
type AlertSink interface {
	// Name identifies the sink in delivery logs
	Name() string

	// Notify delivers one event
	Notify(ctx context.Context, event alert.Event) error
}
