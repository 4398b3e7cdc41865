package events

import "github.com/cockroachdb/errors"

// ErrUnknownEvent is returned by Emit for names missing from the registry.
var ErrUnknownEvent = errors.New("unknown event")

var allowedEvents = map[string]struct{}{
	// playback
	"playback.started":   {},
	"playback.step":      {},
	"playback.paused":    {},
	"playback.resumed":   {},
	"playback.speed":     {},
	"playback.completed": {},
	"playback.reset":     {},
	"playback.rejected":  {},

	// preview
	"preview.node":    {},
	"preview.cleared": {},

	// viewer
	"viewer.connected":    {},
	"viewer.disconnected": {},

	// system
	"system.startup":  {},
	"system.shutdown": {},
	"system.error":    {},
}

// Validate returns ErrUnknownEvent if event is not a registered name.
func Validate(event string) error {
	if _, ok := allowedEvents[event]; !ok {
		return errors.Wrapf(ErrUnknownEvent, "%q", event)
	}
	return nil
}
