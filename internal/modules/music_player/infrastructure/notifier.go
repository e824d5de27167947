package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	zlog "github.com/rs/zerolog/log"
	"github.com/sglre6355/delamain/internal/modules/music_player/application/ports"
	"github.com/sglre6355/delamain/internal/modules/music_player/domain"
	"golang.org/x/time/rate"
)

// Embed colors.
const (
	colorRed     = 0xE74C3C
	colorPurple  = 0x400072
	colorYellow  = 0xFFE895
	colorGreen   = 0x2ECC71
	colorBlue    = 0x3498DB
	colorGray    = 0x95A5A6
	colorYouTube = 0xFF0000
)

const embedFooter = "Powered by DELAMAIN"

// EmbedSender is the part of *discordgo.Session used to post embeds.
type EmbedSender interface {
	ChannelMessageSendEmbed(
		channelID string,
		embed *discordgo.MessageEmbed,
		options ...discordgo.RequestOption,
	) (*discordgo.Message, error)
}

// NotifierConfig tunes delivery of notifications.
type NotifierConfig struct {
	Interval   time.Duration // minimum spacing between messages
	Burst      int
	BufferSize int
}

// Notifier renders notifications as embeds and posts them from a single
// worker goroutine, throttled by a token bucket.
type Notifier struct {
	sender   EmbedSender
	userInfo ports.UserInfoProvider
	limiter  *rate.Limiter
	queue    chan domain.Notification

	// thumbnailExists reports whether a thumbnail URL exists.
	thumbnailExists func(ctx context.Context, url string) bool

	httpClient *http.Client

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
	closed bool
}

// NewNotifier creates a Notifier and starts its worker. userInfo may be nil.
func NewNotifier(
	sender EmbedSender,
	userInfo ports.UserInfoProvider,
	cfg NotifierConfig,
) *Notifier {
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 64
	}

	ctx, cancel := context.WithCancel(context.Background())

	n := &Notifier{
		sender:   sender,
		userInfo: userInfo,
		limiter:  rate.NewLimiter(rate.Every(cfg.Interval), cfg.Burst),
		queue:    make(chan domain.Notification, cfg.BufferSize),
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
		ctx:    ctx,
		cancel: cancel,
	}
	n.thumbnailExists = n.urlExists

	n.wg.Add(1)
	go n.run()

	return n
}

// Notify queues a notification. It never blocks; when the buffer is full
// the notification is dropped.
func (n *Notifier) Notify(_ context.Context, notification domain.Notification) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	if n.closed {
		return
	}

	select {
	case n.queue <- notification:
	default:
		zlog.Warn().
			Stringer("kind", notification.Kind).
			Stringer("guild", notification.GuildID).
			Msg("notification buffer full, dropping notification")
	}
}

// Close stops the worker after the queued notifications are sent or the
// context passed in is done.
func (n *Notifier) Close(ctx context.Context) {
	n.mu.Lock()
	if n.closed {
		n.mu.Unlock()
		return
	}
	n.closed = true
	close(n.queue)
	n.mu.Unlock()

	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		n.cancel()
		<-done
	}
	n.cancel()
}

func (n *Notifier) run() {
	defer n.wg.Done()

	for notification := range n.queue {
		if err := n.limiter.Wait(n.ctx); err != nil {
			return
		}
		n.send(notification)
	}
}

func (n *Notifier) send(notification domain.Notification) {
	if notification.ChannelID == 0 {
		zlog.Debug().Stringer("kind", notification.Kind).Msg("notification without channel dropped")
		return
	}

	embed := n.render(notification)
	if _, err := n.sender.ChannelMessageSendEmbed(notification.ChannelID.String(), embed); err != nil {
		zlog.Warn().
			Err(err).
			Stringer("kind", notification.Kind).
			Stringer("channel", notification.ChannelID).
			Msg("failed to send notification")
	}
}

// render builds the embed for a notification.
func (n *Notifier) render(notification domain.Notification) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Footer:    &discordgo.MessageEmbedFooter{Text: embedFooter},
	}

	track := notification.Track
	if track != nil {
		embed.Title = track.DisplayTitle()
		embed.URL = track.SourceURL
		if thumbnail := n.thumbnail(track); thumbnail != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: thumbnail}
		}
	}

	switch notification.Kind {
	case domain.NotifyLookingForTrack:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Looking for track"}
		embed.Description = notification.SourceURL
		embed.Color = colorGray

	case domain.NotifyTrackQueued:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Added to queue"}
		embed.Color = colorBlue
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Position in queue",
			Value:  fmt.Sprintf("%d", notification.QueuePosition),
			Inline: true,
		})
		n.appendTrackFields(embed, notification)

	case domain.NotifyPlaylistQueued:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Playlist added to queue"}
		embed.Title = notification.PlaylistTitle
		embed.Color = colorBlue
		embed.Fields = []*discordgo.MessageEmbedField{
			{Name: "Tracks added", Value: fmt.Sprintf("%d", notification.AddedCount), Inline: true},
			{Name: "Queue length", Value: fmt.Sprintf("%d", notification.QueueLength), Inline: true},
		}

	case domain.NotifyNowPlaying:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Now Playing"}
		embed.Color = colorYouTube
		n.appendTrackFields(embed, notification)
		if track != nil {
			n.appendRequester(embed, notification.GuildID, track.RequesterID)
		}

	case domain.NotifySkipped:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Skipped track"}
		embed.Color = colorPurple

	case domain.NotifyPaused:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Paused"}
		if track != nil {
			embed.Title = ":pause_button: " + embed.Title
		}
		embed.Color = colorYellow

	case domain.NotifyResumed:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Resumed"}
		if track != nil {
			embed.Title = ":arrow_forward: " + embed.Title
		}
		embed.Color = colorGreen

	case domain.NotifyLoop:
		embed.Color = colorPurple
		if notification.Looped {
			embed.Description = ":repeat_one: Loop enabled"
		} else {
			embed.Description = "Loop disabled"
		}

	case domain.NotifyCurrentTrack:
		embed.Author = &discordgo.MessageEmbedAuthor{Name: "Current track"}
		embed.Color = colorYouTube
		n.appendTrackFields(embed, notification)

	case domain.NotifyDisconnected:
		embed.Description = "Disconnected from the voice channel. See you next time!"
		embed.Color = colorGray

	case domain.NotifyError:
		embed.Description = notification.Message
		if embed.Description == "" {
			embed.Description = domain.UserMessage(notification.Err)
		}
		embed.Color = colorRed
		embed.Title = ""
		embed.URL = ""
		embed.Thumbnail = nil
	}

	return embed
}

func (n *Notifier) appendTrackFields(embed *discordgo.MessageEmbed, notification domain.Notification) {
	track := notification.Track
	if track == nil {
		return
	}

	if track.Author != "" {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Channel",
			Value:  track.Author,
			Inline: true,
		})
	}
	embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
		Name:   "Duration",
		Value:  track.FormattedDuration(),
		Inline: true,
	})
	if notification.Looped {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   "Loop",
			Value:  "On",
			Inline: true,
		})
	}
}

func (n *Notifier) appendRequester(
	embed *discordgo.MessageEmbed,
	guildID, requesterID snowflake.ID,
) {
	if n.userInfo == nil || requesterID == 0 {
		return
	}

	info, err := n.userInfo.GetUserInfo(guildID, requesterID)
	if err != nil {
		zlog.Debug().Err(err).Stringer("user", requesterID).Msg("requester lookup failed")
		return
	}

	embed.Footer = &discordgo.MessageEmbedFooter{
		Text:    fmt.Sprintf("Requested by %s · %s", info.DisplayName, embedFooter),
		IconURL: info.AvatarURL,
	}
}

// thumbnail picks the best YouTube thumbnail that exists, falling back to
// the resolver-provided one.
func (n *Notifier) thumbnail(track *domain.Track) string {
	if track.ID == "" {
		return track.ThumbnailURL
	}

	ctx, cancel := context.WithTimeout(n.ctx, 10*time.Second)
	defer cancel()

	for _, quality := range []string{"maxresdefault", "sddefault", "hqdefault"} {
		url := fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", track.ID, quality)
		if n.thumbnailExists(ctx, url) {
			return url
		}
	}
	return track.ThumbnailURL
}

// urlExists checks if a URL returns a successful response using a HEAD request.
func (n *Notifier) urlExists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

// Ensure Notifier implements ports.Notifier.
var _ ports.Notifier = (*Notifier)(nil)
