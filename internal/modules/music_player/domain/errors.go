package domain

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/cockroachdb/errors"
)

// Error classes. Every error reported by a session belongs to exactly one of
// these, so callers can branch with errors.Is regardless of wrapping.
var (
	// ErrValidation marks a malformed request (e.g., an invalid source URL).
	ErrValidation = errors.New("validation failed")

	// ErrResolution marks a failure to fetch track or playlist metadata.
	ErrResolution = errors.New("resolution failed")

	// ErrEmptyQueue marks a command that requires a non-empty queue.
	ErrEmptyQueue = errors.New("queue is empty")

	// ErrAlreadyInState marks a command that would not change the playback state.
	ErrAlreadyInState = errors.New("already in requested state")

	// ErrTransportCommand marks a command the audio transport refused.
	ErrTransportCommand = errors.New("transport refused command")
)

// classifiedError is a user-facing error that belongs to one error class.
// Each value compares equal only to itself and to its class.
type classifiedError struct {
	msg   string
	class error
}

func (e *classifiedError) Error() string { return e.msg }

func (e *classifiedError) Is(target error) bool { return target == e.class }

func newClassified(msg string, class error) error {
	return &classifiedError{msg: msg, class: class}
}

// Concrete errors surfaced to users.
var (
	ErrMissingURL     = newClassified("to play a track, pass a URL to the YouTube material", ErrValidation)
	ErrInvalidURL     = newClassified("not a valid YouTube URL", ErrValidation)
	ErrUserNotInVoice = newClassified("you must be in a voice channel", ErrValidation)

	ErrTrackFetch    = newClassified("something went wrong while getting the track", ErrResolution)
	ErrPlaylistFetch = newClassified("something went wrong while parsing the playlist", ErrResolution)

	ErrNothingToSkip   = newClassified("no track to skip in the queue", ErrEmptyQueue)
	ErrNothingToPause  = newClassified("there is no track to pause, the queue is empty", ErrEmptyQueue)
	ErrNothingToResume = newClassified("there is no track to resume, the queue is empty", ErrEmptyQueue)
	ErrNothingPlaying  = newClassified("currently no track is playing", ErrEmptyQueue)

	ErrAlreadyPaused  = newClassified("can't pause an already paused track", ErrAlreadyInState)
	ErrAlreadyPlaying = newClassified("can't resume an already playing track", ErrAlreadyInState)

	ErrPlayRefused   = newClassified("can't start the player due to a player error", ErrTransportCommand)
	ErrPauseRefused  = newClassified("can't pause the player due to a player error", ErrTransportCommand)
	ErrResumeRefused = newClassified("can't resume the player due to a player error", ErrTransportCommand)
	ErrNotConnected  = newClassified("i am not in an active voice channel", ErrTransportCommand)
)

// userFacing lists errors whose message is shown verbatim, most specific first.
var userFacing = []error{
	ErrMissingURL,
	ErrInvalidURL,
	ErrUserNotInVoice,
	ErrTrackFetch,
	ErrPlaylistFetch,
	ErrNothingToSkip,
	ErrNothingToPause,
	ErrNothingToResume,
	ErrNothingPlaying,
	ErrAlreadyPaused,
	ErrAlreadyPlaying,
	ErrPlayRefused,
	ErrPauseRefused,
	ErrResumeRefused,
	ErrNotConnected,
}

// ErrorClass returns the class mark carried by err, or nil if it has none.
func ErrorClass(err error) error {
	for _, class := range []error{
		ErrValidation,
		ErrResolution,
		ErrEmptyQueue,
		ErrAlreadyInState,
		ErrTransportCommand,
	} {
		if errors.Is(err, class) {
			return class
		}
	}
	return nil
}

// UserMessage renders err as a sentence suitable for a chat message.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	for _, known := range userFacing {
		if errors.Is(err, known) {
			return sentence(known.Error())
		}
	}

	switch ErrorClass(err) {
	case ErrResolution:
		return sentence(ErrTrackFetch.Error())
	case ErrTransportCommand:
		return "Player error!"
	default:
		return "Something went wrong!"
	}
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:] + "!"
}
