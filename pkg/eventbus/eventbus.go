package eventbus

import (
	"context"

	"github.com/amirasaad/bankledger/pkg/domain/events"
)

// HandlerFunc handles one event.
type HandlerFunc func(ctx context.Context, event events.Event) error

// Bus defines the contract for emitting and consuming domain events.
type Bus interface {
	Emit(ctx context.Context, event events.Event) error
	Register(eventType events.EventType, handler HandlerFunc)
}
