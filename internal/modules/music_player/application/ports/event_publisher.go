package ports

import "github.com/sglre6355/delamain/internal/modules/music_player/domain"

// EventPublisher defines the interface for publishing transport events asynchronously.
type EventPublisher interface {
	Publish(event domain.TransportEvent) error
}
