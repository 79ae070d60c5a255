package stacking

// Content-specific spell ids the stacking rules special-case. These mirror
// the server tables and must change in lockstep with them.

// SpellRange is an inclusive range of spell ids.
type SpellRange struct {
	First, Last uint16
}

// Contains reports whether id falls inside r.
func (r SpellRange) Contains(id uint16) bool {
	return id >= r.First && id <= r.Last
}

const (
	// DiseasedCloud may coexist with a weaker detrimental attack speed effect.
	DiseasedCloud uint16 = 836
	// Lifeburn is forced single-instance on NPC targets.
	Lifeburn uint16 = 2755
	// AttackSpeedPivot separates slows (below) from hastes (above).
	AttackSpeedPivot = 100
)

// UnstackableSpellRanges are occupants nothing may reconcile against.
var UnstackableSpellRanges = []SpellRange{
	{775, 785},
	{1200, 1250},
	{1900, 1924},
}

// UnstackableSpellIDs are single occupants nothing may reconcile against.
var UnstackableSpellIDs = []uint16{
	2079, // ShapeChange65
	2751, // Manaburn
	756,  // Resurrection Effects
	757,  // Resurrection Effect
	836,  // Diseased Cloud
}

// ForcedSingleInstanceSpellIDs never stack multiple instances on an NPC.
var ForcedSingleInstanceSpellIDs = []uint16{Lifeburn}

// NegatedMagnitudeSpellIDs compare as -1 when cast.
var NegatedMagnitudeSpellIDs = []uint16{1620, 1816, 833}

// NegatedOccupantSpellIDs compare as -1 while occupying a slot. An occupant
// of 1814 also negates the incoming magnitude.
var NegatedOccupantSpellIDs = []uint16{1620, 1816, 833, 1814}

// negatesIncoming is the occupant id that forces the incoming magnitude to -1.
const negatesIncoming uint16 = 1814

// IsUnstackable reports whether an occupant with id blocks every reconciliation.
func IsUnstackable(id uint16) bool {
	for _, r := range UnstackableSpellRanges {
		if r.Contains(id) {
			return true
		}
	}
	return containsID(UnstackableSpellIDs, id)
}

// IsForcedSingleInstance reports whether id ignores its stack-multiple flag.
func IsForcedSingleInstance(id uint16) bool {
	return containsID(ForcedSingleInstanceSpellIDs, id)
}

func containsID(ids []uint16, id uint16) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
