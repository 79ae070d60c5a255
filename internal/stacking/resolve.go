package stacking

import (
	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/spell"
	"go.uber.org/zap"
)

// verdict is what the main scan does after looking at one occupant.
type verdict uint8

const (
	verdictNext verdict = iota
	verdictBlock
	verdictTake
	verdictCompare
)

// resolution carries the state of a single Resolve call.
type resolution struct {
	e       *Engine
	ch      *buff.Character
	sp      *spell.Spell
	caster  *buff.Spawn
	dryRun  bool
	maxBufs int
	win     buff.SlotWindow

	// bard enables the bard song branches; movement is whether the new spell
	// counts as a movement effect.
	bard     bool
	movement bool

	canMulti         bool
	alreadyAffecting bool
	result           int

	// purged marks corrupt slots a dry run treated as empty without clearing.
	purged [buff.PhysicalSlots]bool
}

func (e *Engine) newResolution(ch *buff.Character, sp *spell.Spell, caster *buff.Spawn, dryRun bool) *resolution {
	c := e.capacity()
	maxBufs := c.MaxSlots
	if maxBufs <= 0 || maxBufs > buff.PhysicalSlots {
		maxBufs = buff.BaseSlots
	}
	bard := sp.Bardsong
	if e.opts.Classic {
		bard = sp.Bardsong && caster.Class == buff.ClassBard
	}
	return &resolution{
		e:        e,
		ch:       ch,
		sp:       sp,
		caster:   caster,
		dryRun:   dryRun,
		maxBufs:  maxBufs,
		win:      e.window(c, sp),
		bard:     bard,
		movement: e.affects(sp, spell.EffectMovementSpeed),
		result:   NoSlot,
	}
}

func (r *resolution) slotEmpty(i int) bool {
	return r.purged[i] || r.ch.Slot(i).Empty()
}

func (r *resolution) remove(i int) {
	r.e.remover.RemoveBuff(r.ch, i)
}

func (r *resolution) found(i int) Result {
	return Result{Slot: i, Buff: r.ch.Slot(i)}
}

// bardsongConflict blocks a beneficial movement song while a detrimental
// movement or root effect from a regular spell is present.
func (r *resolution) bardsongConflict() bool {
	if !r.sp.Beneficial || !r.movement {
		return false
	}
	for i := 0; i < r.maxBufs; i++ {
		b := r.ch.Slot(i)
		if b.Empty() {
			continue
		}
		old := r.e.lookup(b.SpellID)
		if old == nil || old.Bardsong || old.Beneficial {
			continue
		}
		if r.e.affects(old, spell.EffectMovementSpeed) || r.e.affects(old, spell.EffectRoot) {
			return true
		}
	}
	return false
}

// tryOverwriteSameSpell refreshes an instance of the same spell the caster
// owns. done is true when the search is over, successful or not.
func (r *resolution) tryOverwriteSameSpell() (res Result, done bool) {
	r.canMulti = r.sp.StackMultiple
	for i := 0; i < r.win.Len(); i++ {
		cur := r.win.Nth(i)
		b := r.ch.Slot(cur)
		if b.Empty() || b.SpellID != r.sp.ID {
			continue
		}
		if r.ownsInstance(b) {
			if r.refreshable(b) {
				return r.found(cur), true
			}
			return None(), true
		}
		r.alreadyAffecting = true
	}
	return Result{}, false
}

// ownsInstance reports whether the existing instance b must be refreshed
// rather than stacked beside. Only player casts on NPCs may stack.
func (r *resolution) ownsInstance(b *buff.Slot) bool {
	target := r.ch.Spawn
	if target == nil || r.caster.Kind != buff.KindPlayer || target.Kind != buff.KindNPC {
		return true
	}
	if IsForcedSingleInstance(b.SpellID) {
		r.canMulti = false
	}
	return !r.canMulti || r.caster.ID == b.CasterID
}

func (r *resolution) refreshable(b *buff.Slot) bool {
	if r.caster.Level < b.CasterLevel {
		return false
	}
	return !r.e.affects(r.sp, spell.EffectEyeOfZomm) &&
		!r.e.affects(r.sp, spell.EffectCompleteHeal) &&
		!r.e.affects(r.sp, spell.EffectSummonHorse)
}

// tryMultiInstancePlacement places a second instance of a stack-multiple
// spell. An instance whose caster is gone, or was the target itself, is
// reused before an empty slot.
func (r *resolution) tryMultiInstancePlacement() (Result, bool) {
	if !r.canMulti || !r.alreadyAffecting {
		return Result{}, false
	}
	open := NoSlot
	for i := 0; i < r.win.Len(); i++ {
		cur := r.win.Nth(i)
		b := r.ch.Slot(cur)
		if b.Empty() {
			if open == NoSlot {
				open = cur
			}
			continue
		}
		if b.SpellID != r.sp.ID || r.ch.Spawn == nil {
			continue
		}
		owner := r.e.spawn(b.CasterID)
		if owner == nil || owner.ID == r.ch.Spawn.ID {
			return r.found(cur), true
		}
	}
	if open != NoSlot {
		return r.found(open), true
	}
	return Result{}, false
}

// scan walks the window reconciling against each occupant.
func (r *resolution) scan() Result {
	for i := 0; i < r.win.Len(); i++ {
		cur := r.win.Nth(i)
		b := r.ch.Slot(cur)
		if !b.Empty() {
			if old := r.e.lookup(b.SpellID); old != nil {
				switch r.reconcileAgainstOccupant(cur, b, old) {
				case verdictBlock:
					return None()
				case verdictTake:
					return r.take(cur, b)
				}
				continue
			}
			r.purge(cur, b)
		}
		if r.result == NoSlot {
			r.result = cur
		}
	}
	return r.exhausted()
}

// purge drops an occupant whose spell no longer resolves.
func (r *resolution) purge(i int, b *buff.Slot) {
	r.e.log.Debug("清除無效增益",
		zap.String("character", r.ch.Name),
		zap.Int("slot", i),
		zap.Uint16("spell", b.SpellID),
		zap.Bool("dry_run", r.dryRun),
	)
	if r.dryRun {
		r.purged[i] = true
		return
	}
	b.Clear()
}

func (r *resolution) take(i int, b *buff.Slot) Result {
	r.result = i
	if !r.dryRun && b.SpellID != r.sp.ID {
		r.remove(i)
	}
	return r.found(i)
}

// reconcileAgainstOccupant decides whether the new spell is blocked by,
// replaces, or is indifferent to the occupant of slot cur.
func (r *resolution) reconcileAgainstOccupant(cur int, b *buff.Slot, old *spell.Spell) verdict {
	if r.bard && !old.Bardsong {
		if r.sp.Beneficial && r.movement &&
			(r.e.affects(old, spell.EffectMovementSpeed) || r.e.affects(old, spell.EffectRoot)) {
			return verdictBlock
		}
		return verdictNext
	}
	if r.sp.Beneficial && old.Beneficial && r.movement && !r.bard &&
		old.Bardsong && r.e.affects(old, spell.EffectMovementSpeed) {
		return verdictBlock
	}

	idx, v := r.reconciliationIndex(old)
	if v != verdictCompare {
		return v
	}
	if r.hardBlocked(b.SpellID, old, idx) {
		return verdictBlock
	}

	oldV := int(r.e.effects.Magnitude(r.ch, old, b.CasterLevel, idx))
	newV := int(r.e.effects.Magnitude(r.ch, r.sp, r.caster.Level, idx))
	if containsID(NegatedMagnitudeSpellIDs, r.sp.ID) || b.SpellID == negatesIncoming {
		newV = -1
	}
	if containsID(NegatedOccupantSpellIDs, b.SpellID) {
		oldV = -1
	}

	switch compareMagnitudes(r.sp.Effects[idx], oldV, newV, r.sp.ID == DiseasedCloud) {
	case outcomeBlock:
		return verdictBlock
	case outcomeReplace:
		return verdictTake
	}
	if !r.sp.Beneficial && !old.Beneficial {
		return verdictTake
	}
	if r.result == NoSlot || r.slotEmpty(r.result) {
		r.result = cur
	}
	return verdictNext
}

// reconciliationIndex finds the first effect position both spells share
// that takes part in stacking.
func (r *resolution) reconciliationIndex(old *spell.Spell) (int, verdict) {
	for k := 0; k < spell.NumEffects; k++ {
		oe, ne := old.Effects[k], r.sp.Effects[k]
		if oe == spell.EffectBlank || ne == spell.EffectBlank {
			return -1, verdictNext
		}
		if ne == spell.EffectLycanthropy || ne == spell.EffectVampirism {
			return -1, verdictBlock
		}
		if (!r.bard && old.Bardsong) || oe != ne || r.e.catalog.IgnoredByStacking(ne) {
			continue
		}
		switch ne {
		case spell.EffectCurrentHP, spell.EffectArmorClass:
			if r.sp.Base[k] < 0 {
				continue
			}
		case spell.EffectCHA:
			if r.sp.Base[k] == 0 || old.Base[k] == 0 {
				continue
			}
		}
		return k, verdictCompare
	}
	return -1, verdictNext
}

func (r *resolution) hardBlocked(oldID uint16, old *spell.Spell, idx int) bool {
	if r.sp.Beneficial && (!old.Beneficial || r.e.affects(old, spell.EffectIllusion)) {
		return true
	}
	if old.Effects[idx] == spell.EffectCompleteHeal {
		return true
	}
	return IsUnstackable(oldID)
}

// exhausted finishes a scan that neither blocked nor took a slot outright.
func (r *resolution) exhausted() Result {
	if r.result != NoSlot {
		b := r.ch.Slot(r.result)
		if !r.dryRun && !r.slotEmpty(r.result) && b.SpellID != r.sp.ID {
			r.remove(r.result)
		}
		return r.found(r.result)
	}

	target := r.ch.Spawn
	if r.sp.Beneficial || target == nil || target.GM {
		return None()
	}
	// A full window makes room for a detrimental spell by dropping the
	// first beneficial buff.
	for i := 0; i < r.win.Len(); i++ {
		cur := r.win.Nth(i)
		if r.slotEmpty(cur) {
			continue
		}
		b := r.ch.Slot(cur)
		old := r.e.lookup(b.SpellID)
		if old == nil || !old.Beneficial {
			continue
		}
		r.e.log.Debug("為有害法術騰出增益欄位",
			zap.String("character", r.ch.Name),
			zap.Int("slot", cur),
			zap.Uint16("spell", b.SpellID),
		)
		if !r.dryRun {
			r.remove(cur)
		}
		return r.found(cur)
	}
	return None()
}
