package stacking

import (
	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/spell"
)

// DefaultEffects implements Effects with the built-in formulas. The Lua
// scripting engine falls back to it when a script is missing or fails.
type DefaultEffects struct {
	Catalog Catalog
}

// Magnitude scales the effect at effectIndex by casterLevel.
func (d DefaultEffects) Magnitude(_ *buff.Character, sp *spell.Spell, casterLevel uint8, effectIndex int) int16 {
	return CalcEffectValue(sp, casterLevel, effectIndex)
}

// IsStackBlocked reports whether any buff on ch carries a stacking block
// against sp. A blocker's base names the blocked effect and its max is the
// threshold the incoming value must reach to get through.
func (d DefaultEffects) IsStackBlocked(ch *buff.Character, sp *spell.Spell) bool {
	if d.Catalog == nil || ch == nil {
		return false
	}
	for _, i := range ch.Occupied() {
		b := ch.Slot(i)
		if !d.Catalog.Valid(b.SpellID) {
			continue
		}
		blocker := d.Catalog.Spell(b.SpellID)
		if blocker == nil {
			continue
		}
		for k := 0; k < blocker.EffectCount(); k++ {
			if blocker.Effects[k] != spell.EffectStackingBlock {
				continue
			}
			if blocker.Base[k] < 0 || blocker.Base[k] > 255 {
				continue
			}
			idx := sp.EffectIndex(spell.Effect(blocker.Base[k]))
			if idx == 0 {
				continue
			}
			if sp.Base[idx-1] < blocker.Max[k] {
				return true
			}
		}
	}
	return false
}

// CalcEffectValue applies the level formula at effectIndex. The sign
// follows the base; a non-zero max caps the absolute value.
func CalcEffectValue(sp *spell.Spell, casterLevel uint8, effectIndex int) int16 {
	if sp == nil || effectIndex < 0 || effectIndex >= spell.NumEffects {
		return 0
	}
	base := int(sp.Base[effectIndex])
	limit := int(sp.Max[effectIndex])
	formula := int(sp.Formula[effectIndex])
	level := int(casterLevel)

	v := abs(base)
	switch {
	case formula == 0 || formula == 100:
	case formula < 100:
		v += level * formula
	case formula == 101:
		v += level / 2
	case formula == 102:
		v += level
	case formula == 103:
		v += level * 2
	case formula == 104:
		v += level * 3
	case formula == 105:
		v += level * 4
	}
	if limit != 0 && v > abs(limit) {
		v = abs(limit)
	}
	if base < 0 {
		v = -v
	}
	if v > 32767 {
		v = 32767
	}
	if v < -32768 {
		v = -32768
	}
	return int16(v)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
