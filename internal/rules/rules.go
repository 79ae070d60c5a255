// Package rules holds the per-session buff stacking rule state negotiated
// with the peer.
package rules

const (
	// BaseSlots is the classic buff capacity.
	BaseSlots = 15
	// SongSlots is the extended (song window) capacity granted by the handshake.
	SongSlots = 6
	// maxSongSlots is the most extended slots storage can hold.
	maxSongSlots = 15
)

// Capacity is a snapshot of the negotiated rule values.
type Capacity struct {
	Enabled   bool // buff stacking patch active
	MaxSlots  int  // total addressable slots (15 or 21)
	SongSlots int  // extended slots (0 or 6)
}

// Default returns the state every session starts in: disabled, 15 slots.
func Default() Capacity {
	return Capacity{Enabled: false, MaxSlots: BaseSlots, SongSlots: 0}
}

// State is the rule holder for one session. It is only touched from the
// game loop goroutine.
type State struct {
	cap Capacity
}

// NewState returns a State holding Default().
func NewState() *State {
	return &State{cap: Default()}
}

// Capacity returns the current values.
func (s *State) Capacity() Capacity {
	return s.cap
}

// Apply stores the outcome of a handshake. songs is the extended slot count.
func (s *State) Apply(enabled bool, songs int) {
	if songs < 0 {
		songs = 0
	}
	if songs > maxSongSlots {
		songs = maxSongSlots
	}
	s.cap = Capacity{
		Enabled:   enabled,
		MaxSlots:  BaseSlots + songs,
		SongSlots: songs,
	}
}

// Reset returns to Default().
func (s *State) Reset() {
	s.cap = Default()
}
