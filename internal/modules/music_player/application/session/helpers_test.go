package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/disgoorg/snowflake/v2"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
	"github.com/stretchr/testify/require"
)

const (
	testGuildID        = snowflake.ID(1000)
	testTextChannelID  = snowflake.ID(2000)
	testVoiceChannelID = snowflake.ID(3000)
	testRequesterID    = snowflake.ID(4000)

	urlA        = "https://www.youtube.com/watch?v=aaaaaaaaaaa"
	urlB        = "https://www.youtube.com/watch?v=bbbbbbbbbbb"
	urlC        = "https://www.youtube.com/watch?v=ccccccccccc"
	urlPlaylist = "https://www.youtube.com/playlist?list=PLtest"
)

func testTrack(id string) *domain.Track {
	return &domain.Track{
		ID:        domain.TrackID(id),
		Title:     "Track " + id,
		SourceURL: "https://www.youtube.com/watch?v=" + id,
		Duration:  3 * time.Minute,
	}
}

// fakeTrackResolver resolves URLs from a fixed table.
type fakeTrackResolver struct {
	tracks map[string]*domain.Track
	errs   map[string]error
	panics map[string]any
}

func newFakeTrackResolver() *fakeTrackResolver {
	return &fakeTrackResolver{
		tracks: map[string]*domain.Track{
			urlA: testTrack("aaaaaaaaaaa"),
			urlB: testTrack("bbbbbbbbbbb"),
			urlC: testTrack("ccccccccccc"),
		},
		errs:   make(map[string]error),
		panics: make(map[string]any),
	}
}

func (f *fakeTrackResolver) ResolveTrack(_ context.Context, url string) (*domain.Track, error) {
	if p, ok := f.panics[url]; ok {
		panic(p)
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	if track, ok := f.tracks[url]; ok {
		return track, nil
	}
	return nil, domain.ErrInvalidURL
}

type fakePlaylistResolver struct {
	playlist *domain.Playlist
	err      error
}

func (f *fakePlaylistResolver) ResolvePlaylist(_ context.Context, _ string) (*domain.Playlist, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.playlist, nil
}

type fakeResources struct {
	err    error
	builds int
}

func (f *fakeResources) Build(_ context.Context, track *domain.Track) (*domain.AudioResource, error) {
	f.builds++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.AudioResource{Track: track, Encoded: "encoded-" + string(track.ID)}, nil
}

type fakePlayer struct {
	status domain.PlayerStatus

	played       []*domain.Track
	stopCalls    int
	pauseCalls   int
	unpauseCalls int

	playErr    error
	pauseErr   error
	unpauseErr error
}

func (p *fakePlayer) Play(_ context.Context, resource *domain.AudioResource) error {
	if p.playErr != nil {
		return p.playErr
	}
	p.played = append(p.played, resource.Track)
	p.status = domain.PlayerStatusPlaying
	return nil
}

func (p *fakePlayer) Stop(_ context.Context) error {
	p.stopCalls++
	p.status = domain.PlayerStatusIdle
	return nil
}

func (p *fakePlayer) Pause(_ context.Context) error {
	p.pauseCalls++
	if p.pauseErr != nil {
		return p.pauseErr
	}
	p.status = domain.PlayerStatusPaused
	return nil
}

func (p *fakePlayer) Unpause(_ context.Context) error {
	p.unpauseCalls++
	if p.unpauseErr != nil {
		return p.unpauseErr
	}
	p.status = domain.PlayerStatusPlaying
	return nil
}

func (p *fakePlayer) Status() domain.PlayerStatus {
	return p.status
}

type fakeConnection struct {
	channelID    snowflake.ID
	subscribed   int
	destroyCalls int
}

func (c *fakeConnection) ChannelID() snowflake.ID { return c.channelID }

func (c *fakeConnection) Subscribe(_ ports.AudioPlayer) bool {
	c.subscribed++
	return true
}

func (c *fakeConnection) Destroy(_ context.Context) error {
	c.destroyCalls++
	return nil
}

type fakeTransport struct {
	connectErr  error
	connections []*fakeConnection
	players     []*fakePlayer
}

func (t *fakeTransport) Connect(
	_ context.Context,
	_ snowflake.ID,
	channelID snowflake.ID,
) (ports.VoiceConnection, error) {
	if t.connectErr != nil {
		return nil, t.connectErr
	}
	conn := &fakeConnection{channelID: channelID}
	t.connections = append(t.connections, conn)
	return conn, nil
}

func (t *fakeTransport) NewPlayer(_ snowflake.ID) ports.AudioPlayer {
	player := &fakePlayer{}
	t.players = append(t.players, player)
	return player
}

func (t *fakeTransport) conn() *fakeConnection {
	if len(t.connections) == 0 {
		return nil
	}
	return t.connections[len(t.connections)-1]
}

func (t *fakeTransport) player() *fakePlayer {
	if len(t.players) == 0 {
		return nil
	}
	return t.players[len(t.players)-1]
}

type fakeNotifier struct {
	mu            sync.Mutex
	notifications []domain.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, notification domain.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notifications = append(n.notifications, notification)
}

func (n *fakeNotifier) ofKind(kind domain.NotificationKind) []domain.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()

	var result []domain.Notification
	for _, notification := range n.notifications {
		if notification.Kind == kind {
			result = append(result, notification)
		}
	}
	return result
}

func (n *fakeNotifier) count(kind domain.NotificationKind) int {
	return len(n.ofKind(kind))
}

// fakeScheduler records scheduled calls; tests fire them by hand.
type fakeScheduler struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (s *fakeScheduler) AfterFunc(d time.Duration, f func()) ports.Timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer := &fakeTimer{delay: d, f: f}
	s.timers = append(s.timers, timer)
	return timer
}

func (t *fakeTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	return true
}

// fire runs the call the way a real timer would if Stop lost the race.
func (t *fakeTimer) fire() {
	t.fired = true
	t.f()
}

func (s *fakeScheduler) last() *fakeTimer {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.timers) == 0 {
		return nil
	}
	return s.timers[len(s.timers)-1]
}

func (s *fakeScheduler) pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, timer := range s.timers {
		if !timer.stopped && !timer.fired {
			n++
		}
	}
	return n
}

type harness struct {
	session     *Session
	tracks      *fakeTrackResolver
	playlists   *fakePlaylistResolver
	transport   *fakeTransport
	resources   *fakeResources
	notifier    *fakeNotifier
	scheduler   *fakeScheduler
	disconnects int
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		tracks:    newFakeTrackResolver(),
		playlists: &fakePlaylistResolver{},
		transport: &fakeTransport{},
		resources: &fakeResources{},
		notifier:  &fakeNotifier{},
		scheduler: &fakeScheduler{},
	}
	h.session = New(h.deps(), Options{
		GuildID:        testGuildID,
		TextChannelID:  testTextChannelID,
		VoiceChannelID: testVoiceChannelID,
		IdleTimeout:    time.Minute,
		OnDisconnect:   func() { h.disconnects++ },
	})
	return h
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Tracks:    h.tracks,
		Playlists: h.playlists,
		Transport: h.transport,
		Resources: h.resources,
		Notifier:  h.notifier,
		Scheduler: h.scheduler,
	}
}

func (h *harness) play(t *testing.T, url string) {
	t.Helper()
	require.NoError(t, h.session.Play(context.Background(), PlayRequest{
		Query:       url,
		RequesterID: testRequesterID,
	}))
}

func (h *harness) event(t *testing.T, kind domain.TransportEventKind) {
	t.Helper()
	require.NoError(t, h.session.HandleEvent(context.Background(), domain.TransportEvent{
		GuildID: testGuildID,
		Kind:    kind,
	}))
}

// playing queues the given URLs and brings the first one to the player.
func (h *harness) playing(t *testing.T, urls ...string) {
	t.Helper()
	for _, url := range urls {
		h.play(t, url)
	}
	h.event(t, domain.EventConnectionReady)
}

func (h *harness) played() []string {
	player := h.transport.player()
	if player == nil {
		return nil
	}
	titles := make([]string, 0, len(player.played))
	for _, track := range player.played {
		titles = append(titles, track.Title)
	}
	return titles
}

var errBoom = errors.New("boom")
