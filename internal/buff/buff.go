package buff

import (
	"github.com/eqmac/buffstack/internal/rules"
	"github.com/eqmac/buffstack/internal/spell"
)

const (
	// BaseSlots is the classic player buff window.
	BaseSlots = rules.BaseSlots
	// SongSlots is the extended window granted by the handshake.
	SongSlots = rules.SongSlots
	// PhysicalSlots is the storage per character, base and extended halves.
	PhysicalSlots = 30
	// NPCSlots is the window NPCs see regardless of negotiation.
	NPCSlots = 30

	// MaxSpawnID bounds caster ids that can be resolved; 0 and ids at or
	// above it mean the caster is unknown or gone.
	MaxSpawnID = 5000

	// NoSpell is the spell id written into a cleared slot.
	NoSpell uint16 = 0xFFFF

	// TypeActive is the buff type written when a spell lands.
	TypeActive uint8 = 2
)

// Kind is the spawn type of an entity.
type Kind uint8

const (
	KindPlayer Kind = 0
	KindNPC    Kind = 1
)

func (k Kind) String() string {
	switch k {
	case KindPlayer:
		return "player"
	case KindNPC:
		return "npc"
	default:
		return "unknown"
	}
}

// Class is a character class id.
type Class uint8

// ClassBard is the bard class id.
const ClassBard Class = 8

// Spawn is the subset of an entity's spawn record the stacking rules read.
type Spawn struct {
	ID    uint16
	Kind  Kind
	Class Class
	GM    bool
	Level uint8
}

// Slot is one buff storage cell.
type Slot struct {
	Type        uint8 // 0 = empty
	SpellID     uint16
	CasterLevel uint8
	Ticks       int32
	Modifier    int32
	Counters    int32
	CasterID    uint16
}

// Empty reports whether the slot holds no effect. SpellID and CasterLevel
// of an empty slot are stale and must not be read.
func (s *Slot) Empty() bool {
	return s.Type == 0
}

// Clear resets the slot to empty.
func (s *Slot) Clear() {
	*s = Slot{SpellID: NoSpell}
}

// Character is an entity that receives buffs.
type Character struct {
	Name  string
	Spawn *Spawn
	slots [PhysicalSlots]Slot
}

// NewCharacter returns a character with every slot empty.
func NewCharacter(name string, spawn *Spawn) *Character {
	c := &Character{Name: name, Spawn: spawn}
	for i := range c.slots {
		c.slots[i].Clear()
	}
	return c
}

// Slot returns the physical slot i, or nil when i is out of storage range.
func (c *Character) Slot(i int) *Slot {
	if i < 0 || i >= PhysicalSlots {
		return nil
	}
	return &c.slots[i]
}

// Land writes sp into physical slot i as cast by caster.
func (c *Character) Land(i int, sp *spell.Spell, caster *Spawn) *Slot {
	s := c.Slot(i)
	if s == nil {
		return nil
	}
	*s = Slot{
		Type:    TypeActive,
		SpellID: sp.ID,
		Ticks:   sp.Duration,
	}
	if caster != nil {
		s.CasterLevel = caster.Level
		s.CasterID = caster.ID
	}
	return s
}

// Remove clears physical slot i and returns what it held.
func (c *Character) Remove(i int) (Slot, bool) {
	s := c.Slot(i)
	if s == nil || s.Empty() {
		return Slot{}, false
	}
	old := *s
	s.Clear()
	return old, true
}

// Occupied returns the physical indices of all non-empty slots.
func (c *Character) Occupied() []int {
	var out []int
	for i := range c.slots {
		if !c.slots[i].Empty() {
			out = append(out, i)
		}
	}
	return out
}
