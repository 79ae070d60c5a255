package negotiate

import (
	"github.com/eqmac/buffstack/internal/rules"
	"go.uber.org/zap"
)

// RuleApplier stores the outcome of the buff stacking handshake.
type RuleApplier interface {
	Apply(enabled bool, songs int)
}

// Handshake negotiates buff stacking and the song window. A request that is
// never answered leaves the rules at their default; there is no retry.
type Handshake struct {
	sender     Sender
	rules      RuleApplier
	songWindow bool
	log        *zap.Logger
}

// NewHandshake creates a Handshake. songWindow selects which variant is
// requested on zone entry.
func NewHandshake(sender Sender, r RuleApplier, songWindow bool, log *zap.Logger) *Handshake {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handshake{sender: sender, rules: r, songWindow: songWindow, log: log}
}

// OnZone sends the handshake request.
func (h *Handshake) OnZone() {
	feature := FeatureBuffStackWithoutSongs
	if h.songWindow {
		feature = FeatureBuffStackWithSongs
	}
	h.sender.SendCapability(feature, Version1, true)
}

// Handle applies a handshake message. Requests are echoed back as responses
// carrying the accepted value, or 0 when the version was declined.
func (h *Handshake) Handle(feature Feature, value uint16, isRequest bool) bool {
	var songs int
	switch feature {
	case FeatureBuffStackWithSongs:
		songs = rules.SongSlots
	case FeatureBuffStackWithoutSongs:
		songs = 0
	default:
		return false
	}

	enabled := value == Version1
	if !enabled {
		value = 0
		songs = 0
	}
	h.rules.Apply(enabled, songs)
	h.log.Info("增益堆疊握手完成",
		zap.Stringer("feature", feature),
		zap.Bool("enabled", enabled),
		zap.Int("songs", songs),
	)
	if isRequest {
		h.sender.SendCapability(feature, value, false)
	}
	return true
}
