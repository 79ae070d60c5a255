// Package stacking decides which buff slot an incoming spell occupies.
//
// Resolve follows the client's affect slot search with the
// buff stacking fixes applied. Branch order is significant: each step
// assumes every earlier step has already declined, so the helpers below are
// called in a fixed sequence and must not be reordered.
package stacking

import (
	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/rules"
	"github.com/eqmac/buffstack/internal/spell"
	"go.uber.org/zap"
)

// NoSlot is the slot index of a failed resolution.
const NoSlot = -1

// Result is the outcome of a resolution. Slot is NoSlot and Buff is nil
// when the spell does not land, for whatever reason.
type Result struct {
	Slot int
	Buff *buff.Slot
}

// None returns the failed result.
func None() Result {
	return Result{Slot: NoSlot}
}

// Landed reports whether a slot was chosen.
func (r Result) Landed() bool {
	return r.Slot != NoSlot
}

// Catalog is the read-only spell data the engine consults.
type Catalog interface {
	Valid(id uint16) bool
	Spell(id uint16) *spell.Spell
	IgnoredByStacking(e spell.Effect) bool
}

// Effects holds the externally defined effect formulas.
type Effects interface {
	IsStackBlocked(ch *buff.Character, sp *spell.Spell) bool
	Magnitude(ch *buff.Character, sp *spell.Spell, casterLevel uint8, effectIndex int) int16
}

// Spawns resolves recorded caster ids.
type Spawns interface {
	Spawn(id uint16) *buff.Spawn
}

// Remover removes an occupant and owns any side effects of doing so.
type Remover interface {
	RemoveBuff(ch *buff.Character, physical int)
}

// Rules exposes the negotiated capacity.
type Rules interface {
	Capacity() rules.Capacity
}

// Options selects engine behaviour.
type Options struct {
	// Classic reproduces the unpatched routine: no song window, no bard song
	// exemptions, and bard handling keyed on class instead of the spell.
	Classic bool
}

// Deps holds the collaborators of an Engine. Spawns, Remover, Rules and Log
// may be nil.
type Deps struct {
	Catalog Catalog
	Effects Effects
	Spawns  Spawns
	Remover Remover
	Rules   Rules
	Log     *zap.Logger
}

// Engine resolves affect slots for one session.
type Engine struct {
	catalog Catalog
	effects Effects
	spawns  Spawns
	remover Remover
	rules   Rules
	opts    Options
	log     *zap.Logger
}

// New creates an Engine.
func New(d Deps, opts Options) *Engine {
	e := &Engine{
		catalog: d.Catalog,
		effects: d.Effects,
		spawns:  d.Spawns,
		remover: d.Remover,
		rules:   d.Rules,
		opts:    opts,
		log:     d.Log,
	}
	if e.remover == nil {
		e.remover = clearRemover{}
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	return e
}

// Classic reports whether the engine runs the unpatched routine.
func (e *Engine) Classic() bool {
	return e.opts.Classic
}

type clearRemover struct{}

func (clearRemover) RemoveBuff(ch *buff.Character, physical int) {
	ch.Remove(physical)
}

// Resolve finds the slot spellID cast by caster occupies on ch. With dryRun
// nothing is mutated; the result is what a real cast would pick.
func (e *Engine) Resolve(ch *buff.Character, spellID uint16, caster *buff.Spawn, dryRun bool) Result {
	if ch == nil || caster == nil || !e.catalog.Valid(spellID) {
		return None()
	}
	sp := e.catalog.Spell(spellID)
	if sp == nil {
		return None()
	}
	if caster.Kind == buff.KindPlayer && e.isStackBlocked(ch, sp) {
		return None()
	}

	r := e.newResolution(ch, sp, caster, dryRun)
	if r.bard && r.bardsongConflict() {
		return None()
	}
	if res, done := r.tryOverwriteSameSpell(); done {
		return res
	}
	if res, ok := r.tryMultiInstancePlacement(); ok {
		return res
	}
	return r.scan()
}

func (e *Engine) capacity() rules.Capacity {
	if e.rules == nil || e.opts.Classic {
		return rules.Default()
	}
	return e.rules.Capacity()
}

// isStackBlocked wraps the external predicate. Bard songs bypass it; the
// classic routine instead exempted targets that were bards.
func (e *Engine) isStackBlocked(ch *buff.Character, sp *spell.Spell) bool {
	if e.opts.Classic {
		if ch.Spawn != nil && ch.Spawn.Class == buff.ClassBard {
			return false
		}
		return e.effects.IsStackBlocked(ch, sp)
	}
	if sp.Bardsong {
		return false
	}
	return e.effects.IsStackBlocked(ch, sp)
}

// affects reports whether sp carries effect. Beneficial bard songs do not
// count as movement effects so they stack with regular movement buffs.
func (e *Engine) affects(sp *spell.Spell, effect spell.Effect) bool {
	if !e.opts.Classic && effect == spell.EffectMovementSpeed && sp.Beneficial && sp.Bardsong {
		return false
	}
	return sp.HasEffect(effect)
}

// lookup returns the spell data for a stored id, or nil when the id no
// longer resolves.
func (e *Engine) lookup(id uint16) *spell.Spell {
	if !e.catalog.Valid(id) {
		return nil
	}
	return e.catalog.Spell(id)
}

func (e *Engine) spawn(id uint16) *buff.Spawn {
	if id == 0 || id >= buff.MaxSpawnID || e.spawns == nil {
		return nil
	}
	return e.spawns.Spawn(id)
}

func (e *Engine) window(c rules.Capacity, sp *spell.Spell) buff.SlotWindow {
	if !e.opts.Classic && c.SongSlots > 0 && c.MaxSlots > 0 && sp.ShortBuffBox {
		return buff.SongWindow(c.MaxSlots)
	}
	return buff.BaseWindow()
}
