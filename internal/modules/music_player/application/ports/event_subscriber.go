package ports

import (
	"context"

	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// EventSubscriber defines the interface for subscribing to transport events.
// Handlers are registered with the subscriber and invoked in publish order.
type EventSubscriber interface {
	Subscribe(handler func(context.Context, domain.TransportEvent)) error
}
