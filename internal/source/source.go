// Package source delivers host runtime events to a handler.
package source

import (
	"context"

	"github.com/btouchard/peon-bridge/internal/event"
)

// HandlerFunc receives decoded events in arrival order.
type HandlerFunc func(event.Event)

// Source produces events until its input ends or ctx is cancelled.
type Source interface {
	Run(ctx context.Context, handle HandlerFunc) error
}
