package infrastructure

import (
	"context"
	"sync"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// DefaultEventBufferSize is the default buffer size for the event channel.
const DefaultEventBufferSize = 100

var (
	// ErrEventBusClosed is returned when publishing to a closed bus.
	ErrEventBusClosed = errors.New("event bus is closed")

	// ErrEventBufferFull is returned when an event is dropped because the buffer is full.
	ErrEventBufferFull = errors.New("event buffer is full")
)

// Compile-time checks that ChannelEventBus implements ports interfaces.
var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

// ChannelEventBus delivers transport events through a single buffered channel
// drained by one dispatcher goroutine, so handlers observe events in publish
// order. It implements both EventPublisher and EventSubscriber interfaces.
type ChannelEventBus struct {
	events   chan domain.TransportEvent
	handlers []func(context.Context, domain.TransportEvent)

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus with the given buffer size.
func NewChannelEventBus(bufferSize int) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	bus := &ChannelEventBus{
		events: make(chan domain.TransportEvent, bufferSize),
		ctx:    ctx,
		cancel: cancel,
	}

	bus.wg.Add(1)
	go bus.dispatch()

	return bus
}

func (b *ChannelEventBus) dispatch() {
	defer b.wg.Done()
	for {
		select {
		case <-b.ctx.Done():
			return
		case event, ok := <-b.events:
			if !ok {
				return
			}
			b.mu.RLock()
			handlers := b.handlers
			b.mu.RUnlock()
			for _, handler := range handlers {
				b.invoke(handler, event)
			}
		}
	}
}

// invoke runs one handler, keeping the dispatcher alive if it panics.
func (b *ChannelEventBus) invoke(
	handler func(context.Context, domain.TransportEvent),
	event domain.TransportEvent,
) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error().
				Interface("panic", r).
				Stringer("guild", event.GuildID).
				Stringer("event", event.Kind).
				Msg("transport event handler panicked")
		}
	}()
	handler(b.ctx, event)
}

// Publish queues an event for delivery.
// Non-blocking: if the channel buffer is full, the event is dropped.
func (b *ChannelEventBus) Publish(event domain.TransportEvent) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		zlog.Warn().Stringer("event", event.Kind).Msg("attempted to publish to closed event bus")
		return ErrEventBusClosed
	}

	select {
	case b.events <- event:
		zlog.Debug().
			Stringer("event", event.Kind).
			Stringer("guild", event.GuildID).
			Msg("published event")
		return nil
	default:
		zlog.Warn().
			Stringer("event", event.Kind).
			Stringer("guild", event.GuildID).
			Msg("event buffer full, dropping event")
		return ErrEventBufferFull
	}
}

// Subscribe registers a handler for every transport event.
func (b *ChannelEventBus) Subscribe(handler func(context.Context, domain.TransportEvent)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrEventBusClosed
	}
	b.handlers = append(b.handlers, handler)
	return nil
}

// Close stops the dispatcher. Events still buffered are discarded.
// After calling Close, publishing will no longer send events.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()

	b.cancel()
	close(b.events)
	b.wg.Wait()

	zlog.Debug().Msg("channel event bus closed")
}
