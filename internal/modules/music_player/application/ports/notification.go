package ports

import (
	"context"

	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// Notifier renders user-visible feedback. Notify must not block on delivery,
// and callers never inspect the outcome.
type Notifier interface {
	Notify(ctx context.Context, notification domain.Notification)
}
