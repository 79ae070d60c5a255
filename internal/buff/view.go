package buff

// View selects how logical slot indices map onto storage. The main view
// addresses slots as-is; the extended view maps logical 0..14 onto the
// physical song range 15..29 so the same iteration code serves both windows.
type View uint8

const (
	MainView View = iota
	ExtendedView
)

func (v View) String() string {
	if v == ExtendedView {
		return "extended"
	}
	return "main"
}

// EffectiveMaxSlots returns how many slots a caller iterating c should see.
// The extended view sees the negotiated total; otherwise players keep the
// classic 15 and NPCs have a fixed 30 independent of negotiation.
func EffectiveMaxSlots(c *Character, v View, negotiatedTotal int) int {
	if v == ExtendedView {
		if negotiatedTotal <= 0 {
			return BaseSlots
		}
		if negotiatedTotal > PhysicalSlots {
			return PhysicalSlots
		}
		return negotiatedTotal
	}
	if c != nil && c.Spawn != nil && c.Spawn.Kind == KindNPC {
		return NPCSlots
	}
	return BaseSlots
}

// PhysicalIndex maps a logical index to storage under v. The result may be
// out of range; ReadSlot checks it.
func PhysicalIndex(logical int, v View) int {
	if v == ExtendedView && logical >= 0 && logical < BaseSlots {
		return logical + BaseSlots
	}
	return logical
}

// ReadSlot returns the slot addressed by logical under v, or nil when it
// falls outside storage.
func ReadSlot(c *Character, logical int, v View) *Slot {
	return c.Slot(PhysicalIndex(logical, v))
}
