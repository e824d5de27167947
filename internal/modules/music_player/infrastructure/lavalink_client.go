package infrastructure

import (
	"context"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cockroachdb/errors"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
)

// defaultVoiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const defaultVoiceConnectionTimeout = 10 * time.Second

// Discord voice gateway close code sent when the bot was kicked or its channel deleted.
const voiceCloseDisconnected = 4014

// lavalinkLink is the part of disgolink.Client used by the transport.
type lavalinkLink interface {
	Player(guildID snowflake.ID) disgolink.Player
	ExistingPlayer(guildID snowflake.ID) disgolink.Player
	BestNode() disgolink.Node
	OnVoiceStateUpdate(ctx context.Context, guildID snowflake.ID, channelID *snowflake.ID, sessionID string)
	OnVoiceServerUpdate(ctx context.Context, guildID snowflake.ID, token string, endpoint string)
	Close()
}

// VoiceGateway is the part of *discordgo.Session used to join and leave voice channels.
type VoiceGateway interface {
	ChannelVoiceJoinManual(gID, cID string, mute, deaf bool) error
}

// pendingVoiceConnection tracks the state of a pending voice connection.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

// onEvent marks an event as received and signals ready if both events are present.
func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
			// Already closed
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer buffers voice events to ensure both VoiceStateUpdate and
// VoiceServerUpdate are received before forwarding to Lavalink.
// This prevents "Partial Lavalink voice state" errors when events arrive out of order.
type voiceEventBuffer struct {
	mu sync.Mutex

	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	hasVoiceServer bool
	token          string
	endpoint       string
}

// setVoiceState stores voice state data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID

	return b.hasVoiceState && b.hasVoiceServer
}

// setVoiceServer stores voice server data and returns true if both events are now ready.
func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint

	return b.hasVoiceState && b.hasVoiceServer
}

// drain returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) drain() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID, sessionID, token, endpoint = b.channelID, b.sessionID, b.token, b.endpoint
	*b = voiceEventBuffer{}

	return
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool

	// ConnectTimeout bounds the wait for Discord's voice events after joining.
	ConnectTimeout time.Duration
}

// LavalinkTransport implements the voice transport on top of DisGoLink.
// Lifecycle changes are published as transport events.
type LavalinkTransport struct {
	link           lavalinkLink
	voice          VoiceGateway
	botID          snowflake.ID
	publisher      ports.EventPublisher
	connectTimeout time.Duration

	connMu sync.Mutex
	conns  map[snowflake.ID]*lavalinkConnection

	// voiceBuffers holds buffered voice events per guild to handle out-of-order events
	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer
}

// NewLavalinkTransport creates a transport and connects to the Lavalink node.
func NewLavalinkTransport(
	ctx context.Context,
	session *discordgo.Session,
	publisher ports.EventPublisher,
	config LavalinkConfig,
) (*LavalinkTransport, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse bot ID")
	}

	t := newLavalinkTransport(nil, session, botID, publisher, config.ConnectTimeout)

	link := disgolink.New(botID,
		disgolink.WithListenerFunc(t.onTrackStart),
		disgolink.WithListenerFunc(t.onTrackEnd),
		disgolink.WithListenerFunc(t.onTrackException),
		disgolink.WithListenerFunc(t.onTrackStuck),
		disgolink.WithListenerFunc(t.onWebSocketClosed),
	)
	t.link = link

	node, err := link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		link.Close()
		return nil, errors.Wrap(err, "failed to add Lavalink node")
	}

	zlog.Info().
		Str("node", node.Config().Name).
		Str("address", config.Address).
		Msg("connected to Lavalink")

	return t, nil
}

func newLavalinkTransport(
	link lavalinkLink,
	voice VoiceGateway,
	botID snowflake.ID,
	publisher ports.EventPublisher,
	connectTimeout time.Duration,
) *LavalinkTransport {
	if connectTimeout <= 0 {
		connectTimeout = defaultVoiceConnectionTimeout
	}
	return &LavalinkTransport{
		link:           link,
		voice:          voice,
		botID:          botID,
		publisher:      publisher,
		connectTimeout: connectTimeout,
		conns:          make(map[snowflake.ID]*lavalinkConnection),
		voiceBuffers:   make(map[snowflake.ID]*voiceEventBuffer),
	}
}

// Close disconnects from the Lavalink node.
func (t *LavalinkTransport) Close() {
	t.link.Close()
}

// Connect asks Discord to join the voice channel. EventConnectionReady is
// published once both voice events have arrived, or EventConnectionDisconnected
// if they do not arrive in time.
func (t *LavalinkTransport) Connect(
	_ context.Context,
	guildID, channelID snowflake.ID,
) (ports.VoiceConnection, error) {
	conn := &lavalinkConnection{
		transport: t,
		guildID:   guildID,
		channelID: channelID,
		pending:   &pendingVoiceConnection{ready: make(chan struct{})},
		done:      make(chan struct{}),
	}

	t.connMu.Lock()
	if old := t.conns[guildID]; old != nil {
		old.stop()
	}
	t.conns[guildID] = conn
	t.connMu.Unlock()

	if err := t.voice.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, false); err != nil {
		t.forget(conn)
		return nil, errors.Wrap(err, "failed to join voice channel")
	}

	go t.awaitReady(conn)

	return conn, nil
}

// NewPlayer returns the guild's Lavalink player.
func (t *LavalinkTransport) NewPlayer(guildID snowflake.ID) ports.AudioPlayer {
	return &lavalinkPlayer{link: t.link, guildID: guildID}
}

func (t *LavalinkTransport) awaitReady(conn *lavalinkConnection) {
	timer := time.NewTimer(t.connectTimeout)
	defer timer.Stop()

	select {
	case <-conn.pending.ready:
		if t.isActive(conn) {
			t.publish(conn.guildID, domain.EventConnectionReady)
		}
	case <-timer.C:
		zlog.Warn().
			Stringer("guild", conn.guildID).
			Dur("timeout", t.connectTimeout).
			Msg("timeout waiting for voice connection")
		if t.isActive(conn) {
			t.publish(conn.guildID, domain.EventConnectionDisconnected)
		}
	case <-conn.done:
	}
}

func (t *LavalinkTransport) active(guildID snowflake.ID) *lavalinkConnection {
	t.connMu.Lock()
	defer t.connMu.Unlock()
	return t.conns[guildID]
}

func (t *LavalinkTransport) isActive(conn *lavalinkConnection) bool {
	return t.active(conn.guildID) == conn
}

// forget drops conn if it is still the guild's connection and reports
// whether it was.
func (t *LavalinkTransport) forget(conn *lavalinkConnection) bool {
	t.connMu.Lock()
	defer t.connMu.Unlock()

	if t.conns[conn.guildID] != conn {
		return false
	}
	delete(t.conns, conn.guildID)
	conn.stop()
	return true
}

func (t *LavalinkTransport) publish(guildID snowflake.ID, kind domain.TransportEventKind) {
	t.publishEvent(domain.TransportEvent{GuildID: guildID, Kind: kind})
}

func (t *LavalinkTransport) publishEvent(event domain.TransportEvent) {
	if err := t.publisher.Publish(event); err != nil {
		zlog.Error().
			Err(err).
			Stringer("guild", event.GuildID).
			Stringer("event", event.Kind).
			Msg("failed to publish transport event")
	}
}

// Build loads the track on the Lavalink node.
func (t *LavalinkTransport) Build(ctx context.Context, track *domain.Track) (*domain.AudioResource, error) {
	node := t.link.BestNode()
	if node == nil {
		return nil, errors.New("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, track.SourceURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load track")
	}

	encoded, err := encodedTrack(result)
	if err != nil {
		return nil, errors.Wrapf(err, "load %s", track.SourceURL)
	}

	return &domain.AudioResource{Track: track, Encoded: encoded}, nil
}

func encodedTrack(result *lavalink.LoadResult) (string, error) {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return data.Encoded, nil
	case lavalink.Playlist:
		if len(data.Tracks) > 0 {
			idx := data.Info.SelectedTrack
			if idx < 0 || idx >= len(data.Tracks) {
				idx = 0
			}
			return data.Tracks[idx].Encoded, nil
		}
	case lavalink.Search:
		if len(data) > 0 {
			return data[0].Encoded, nil
		}
	case lavalink.Exception:
		return "", errors.Newf("lavalink exception: %s", data.Message)
	}
	return "", errors.New("no matches")
}

// OnVoiceServerUpdate handles Discord voice server updates.
// This must be called from the Discord event handler.
func (t *LavalinkTransport) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		zlog.Error().Err(err).Msg("failed to parse guild ID in voice server update")
		return
	}

	buffer := t.voiceBuffer(guildID)
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		t.forwardBufferedVoiceEvents(guildID, buffer)
	}

	if conn := t.active(guildID); conn != nil {
		conn.pending.onEvent(false)
	}
}

// OnVoiceStateUpdate handles Discord voice state updates.
// This must be called from the Discord event handler.
func (t *LavalinkTransport) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	// Only handle updates for the bot itself
	if event.UserID != t.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		zlog.Error().Err(err).Msg("failed to parse guild ID in voice state update")
		return
	}

	// An empty channel means the bot left or was removed
	if event.ChannelID == "" {
		t.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		t.clearVoiceBuffer(guildID)

		if conn := t.active(guildID); conn != nil && t.forget(conn) {
			zlog.Info().Stringer("guild", guildID).Msg("removed from voice channel")
			t.publish(guildID, domain.EventConnectionDisconnected)
		}
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		zlog.Error().Err(err).Msg("failed to parse channel ID in voice state update")
		return
	}

	buffer := t.voiceBuffer(guildID)
	if buffer.setVoiceState(&channelID, event.SessionID) {
		t.forwardBufferedVoiceEvents(guildID, buffer)
	}

	if conn := t.active(guildID); conn != nil {
		conn.pending.onEvent(true)
	}
}

func (t *LavalinkTransport) voiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	t.voiceBufferMu.Lock()
	defer t.voiceBufferMu.Unlock()

	buffer, exists := t.voiceBuffers[guildID]
	if !exists {
		buffer = &voiceEventBuffer{}
		t.voiceBuffers[guildID] = buffer
	}
	return buffer
}

func (t *LavalinkTransport) clearVoiceBuffer(guildID snowflake.ID) {
	t.voiceBufferMu.Lock()
	defer t.voiceBufferMu.Unlock()
	delete(t.voiceBuffers, guildID)
}

// forwardBufferedVoiceEvents sends the buffered voice events to Lavalink.
func (t *LavalinkTransport) forwardBufferedVoiceEvents(guildID snowflake.ID, buffer *voiceEventBuffer) {
	channelID, sessionID, token, endpoint := buffer.drain()

	zlog.Debug().
		Stringer("guild", guildID).
		Bool("has_session_id", sessionID != "").
		Msg("forwarding buffered voice events to Lavalink")

	// Forward to Lavalink in the correct order
	t.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	t.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (t *LavalinkTransport) onTrackStart(player disgolink.Player, event lavalink.TrackStartEvent) {
	zlog.Debug().
		Stringer("guild", player.GuildID()).
		Str("track", event.Track.Info.Title).
		Msg("track started")
}

func (t *LavalinkTransport) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	t.handleTrackEnd(player.GuildID(), convertEndReason(event.Reason), event.Track.Encoded)
}

func (t *LavalinkTransport) handleTrackEnd(guildID snowflake.ID, reason domain.TrackEndReason, encoded string) {
	zlog.Debug().
		Stringer("guild", guildID).
		Str("reason", string(reason)).
		Msg("track ended")

	if reason.LeavesPlayerIdle() && t.active(guildID) != nil {
		t.publishEvent(domain.TransportEvent{
			GuildID: guildID,
			Kind:    domain.EventPlayerIdle,
			Encoded: encoded,
		})
	}
}

func (t *LavalinkTransport) onTrackException(player disgolink.Player, event lavalink.TrackExceptionEvent) {
	zlog.Warn().
		Stringer("guild", player.GuildID()).
		Str("error", event.Exception.Message).
		Msg("track exception")
}

func (t *LavalinkTransport) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	zlog.Warn().
		Stringer("guild", player.GuildID()).
		Int("threshold", int(event.Threshold)).
		Msg("track stuck")
}

func (t *LavalinkTransport) onWebSocketClosed(player disgolink.Player, event lavalink.WebSocketClosedEvent) {
	t.handleVoiceClosed(player.GuildID(), event.Code, event.Reason, event.ByRemote)
}

// handleVoiceClosed reports a voice gateway closed by Discord. A kick is a
// disconnect; any other remote close leaves the connection unusable.
func (t *LavalinkTransport) handleVoiceClosed(guildID snowflake.ID, code int, reason string, byRemote bool) {
	zlog.Warn().
		Stringer("guild", guildID).
		Int("code", code).
		Str("reason", reason).
		Bool("by_remote", byRemote).
		Msg("voice websocket closed")

	if !byRemote {
		return
	}
	conn := t.active(guildID)
	if conn == nil || !t.forget(conn) {
		return
	}

	if code == voiceCloseDisconnected {
		t.publish(guildID, domain.EventConnectionDisconnected)
		return
	}
	t.publish(guildID, domain.EventConnectionDestroyed)
}

func convertEndReason(reason lavalink.TrackEndReason) domain.TrackEndReason {
	switch reason {
	case lavalink.TrackEndReasonFinished:
		return domain.TrackEndFinished
	case lavalink.TrackEndReasonLoadFailed:
		return domain.TrackEndLoadFailed
	case lavalink.TrackEndReasonStopped:
		return domain.TrackEndStopped
	case lavalink.TrackEndReasonReplaced:
		return domain.TrackEndReplaced
	case lavalink.TrackEndReasonCleanup:
		return domain.TrackEndCleanup
	default:
		return domain.TrackEndStopped
	}
}

// lavalinkConnection is one guild's voice connection.
type lavalinkConnection struct {
	transport *LavalinkTransport
	guildID   snowflake.ID
	channelID snowflake.ID
	pending   *pendingVoiceConnection

	stopOnce sync.Once
	done     chan struct{}
}

// ChannelID implements ports.VoiceConnection.
func (c *lavalinkConnection) ChannelID() snowflake.ID {
	return c.channelID
}

// Subscribe implements ports.VoiceConnection. A Lavalink player streams into
// its guild's connection, so only a player for the same guild is accepted.
func (c *lavalinkConnection) Subscribe(player ports.AudioPlayer) bool {
	p, ok := player.(*lavalinkPlayer)
	return ok && p.guildID == c.guildID
}

// Destroy leaves the voice channel and destroys the Lavalink player.
func (c *lavalinkConnection) Destroy(ctx context.Context) error {
	t := c.transport
	t.forget(c)
	c.stop()

	if player := t.link.ExistingPlayer(c.guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			zlog.Warn().Err(err).Stringer("guild", c.guildID).Msg("failed to destroy player")
		}
	}
	t.clearVoiceBuffer(c.guildID)

	if err := t.voice.ChannelVoiceJoinManual(c.guildID.String(), "", false, false); err != nil {
		return errors.Wrap(err, "failed to leave voice channel")
	}
	return nil
}

func (c *lavalinkConnection) stop() {
	c.stopOnce.Do(func() { close(c.done) })
}

// lavalinkPlayer controls one guild's Lavalink player.
type lavalinkPlayer struct {
	link    lavalinkLink
	guildID snowflake.ID
}

// Play plays a resource.
func (p *lavalinkPlayer) Play(ctx context.Context, resource *domain.AudioResource) error {
	// Use WithEncodedTrack to avoid userData:null issue
	if err := p.link.Player(p.guildID).Update(ctx, lavalink.WithEncodedTrack(resource.Encoded)); err != nil {
		return errors.Wrap(err, "failed to play track")
	}
	return nil
}

// Stop stops the current playback.
func (p *lavalinkPlayer) Stop(ctx context.Context) error {
	if err := p.link.Player(p.guildID).Update(ctx, lavalink.WithNullTrack()); err != nil {
		return errors.Wrap(err, "failed to stop playback")
	}
	return nil
}

// Pause pauses the current playback.
func (p *lavalinkPlayer) Pause(ctx context.Context) error {
	if err := p.link.Player(p.guildID).Update(ctx, lavalink.WithPaused(true)); err != nil {
		return errors.Wrap(err, "failed to pause playback")
	}
	return nil
}

// Unpause resumes the current playback.
func (p *lavalinkPlayer) Unpause(ctx context.Context) error {
	if err := p.link.Player(p.guildID).Update(ctx, lavalink.WithPaused(false)); err != nil {
		return errors.Wrap(err, "failed to resume playback")
	}
	return nil
}

// Status derives the player status from the Lavalink player state.
func (p *lavalinkPlayer) Status() domain.PlayerStatus {
	player := p.link.ExistingPlayer(p.guildID)
	if player == nil || player.Track() == nil {
		return domain.PlayerStatusIdle
	}
	if player.Paused() {
		return domain.PlayerStatusPaused
	}
	return domain.PlayerStatusPlaying
}

// Ensure the Lavalink types implement the port interfaces.
var (
	_ ports.Transport        = (*LavalinkTransport)(nil)
	_ ports.ResourceProvider = (*LavalinkTransport)(nil)
	_ ports.VoiceConnection  = (*lavalinkConnection)(nil)
	_ ports.AudioPlayer      = (*lavalinkPlayer)(nil)
)
