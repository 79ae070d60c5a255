package event

// BuffLanded is emitted when a cast writes a spell into a slot.
type BuffLanded struct {
	SessionID uint64
	Name      string
	Slot      int
	SpellID   uint16
}

// BuffFaded is emitted when a slot is emptied by removal, replacement or
// expiry.
type BuffFaded struct {
	SessionID uint64
	Name      string
	Slot      int
	SpellID   uint16
	Expired   bool
}
