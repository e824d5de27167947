package session

import (
	"context"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSubscriber delivers published events synchronously.
type fakeSubscriber struct {
	handlers []func(context.Context, domain.TransportEvent)
}

func (f *fakeSubscriber) Subscribe(handler func(context.Context, domain.TransportEvent)) error {
	f.handlers = append(f.handlers, handler)
	return nil
}

func (f *fakeSubscriber) publish(event domain.TransportEvent) {
	for _, handler := range f.handlers {
		handler(context.Background(), event)
	}
}

func newTestManager(t *testing.T) (*Manager, *harness) {
	t.Helper()
	h := newHarness(t)
	return NewManager(h.deps(), time.Minute), h
}

func TestManager_GetOrCreate(t *testing.T) {
	m, _ := newTestManager(t)

	s1, created := m.GetOrCreate(testGuildID, testTextChannelID, testVoiceChannelID)
	require.True(t, created)
	assert.Equal(t, testGuildID, s1.GuildID())
	assert.Equal(t, testTextChannelID, s1.TextChannelID())
	assert.Equal(t, testVoiceChannelID, s1.VoiceChannelID())

	s2, created := m.GetOrCreate(testGuildID, snowflake.ID(1), snowflake.ID(2))
	assert.False(t, created)
	assert.Same(t, s1, s2)

	other, created := m.GetOrCreate(snowflake.ID(9999), testTextChannelID, testVoiceChannelID)
	assert.True(t, created)
	assert.NotSame(t, s1, other)
	assert.Equal(t, 2, m.Count())
}

func TestManager_ReleasesSessionOnDisconnect(t *testing.T) {
	m, _ := newTestManager(t)
	s, _ := m.GetOrCreate(testGuildID, testTextChannelID, testVoiceChannelID)

	s.Disconnect(context.Background())
	s.Disconnect(context.Background())

	_, ok := m.Get(testGuildID)
	assert.False(t, ok)
	assert.Equal(t, 0, m.Count())
}

func TestManager_StaleCallbackKeepsNewSession(t *testing.T) {
	m, _ := newTestManager(t)
	old, _ := m.GetOrCreate(testGuildID, testTextChannelID, testVoiceChannelID)
	old.Disconnect(context.Background())

	fresh, created := m.GetOrCreate(testGuildID, testTextChannelID, testVoiceChannelID)
	require.True(t, created)

	old.Disconnect(context.Background())

	got, ok := m.Get(testGuildID)
	require.True(t, ok)
	assert.Same(t, fresh, got)
}

func TestManager_RoutesTransportEvents(t *testing.T) {
	m, h := newTestManager(t)
	sub := &fakeSubscriber{}
	require.NoError(t, m.Start(sub))

	s, _ := m.GetOrCreate(testGuildID, testTextChannelID, testVoiceChannelID)
	require.NoError(t, s.Play(context.Background(), PlayRequest{Query: urlA}))

	sub.publish(domain.TransportEvent{GuildID: snowflake.ID(424242), Kind: domain.EventConnectionReady})
	assert.Empty(t, h.played())

	sub.publish(domain.TransportEvent{GuildID: testGuildID, Kind: domain.EventConnectionReady})
	assert.Equal(t, []string{"Track aaaaaaaaaaa"}, h.played())

	sub.publish(domain.TransportEvent{GuildID: testGuildID, Kind: domain.EventConnectionDisconnected})
	_, ok := m.Get(testGuildID)
	assert.False(t, ok)
}

func TestManager_Shutdown(t *testing.T) {
	m, h := newTestManager(t)
	s, _ := m.GetOrCreate(testGuildID, testTextChannelID, testVoiceChannelID)
	require.NoError(t, s.Play(context.Background(), PlayRequest{Query: urlA}))
	m.GetOrCreate(snowflake.ID(9999), testTextChannelID, testVoiceChannelID)

	m.Shutdown(context.Background())

	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 1, h.transport.conn().destroyCalls)
	assert.Equal(t, domain.StateDisconnected, s.Snapshot().State)
}
