// Package patch swaps the buff routines behind named function slots. The
// classic routines stay reachable as trampolines so the patched ones can
// fall back to them while the peer has not agreed to the new rules.
package patch

import (
	"errors"
	"fmt"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/stacking"
)

// Target names.
const (
	TargetFindAffectSlot = "FindAffectSlot"
	TargetGetBuff        = "GetBuff"
	TargetGetMaxBuffs    = "GetMaxBuffs"
)

var (
	ErrUnknownTarget = errors.New("patch: unknown target")
	ErrSignature     = errors.New("patch: replacement signature mismatch")
)

// FindAffectSlotFunc picks the slot a spell lands in.
type FindAffectSlotFunc func(ch *buff.Character, spellID uint16, caster *buff.Spawn, dryRun bool) stacking.Result

// GetBuffFunc reads a slot by logical index under a view.
type GetBuffFunc func(ch *buff.Character, logical int, v buff.View) *buff.Slot

// GetMaxBuffsFunc returns how many slots a view iterates.
type GetMaxBuffsFunc func(ch *buff.Character, v buff.View) int

// Installer replaces the function registered under name and returns the
// previous one.
type Installer interface {
	Install(name string, replacement any) (trampoline any, err error)
}

// Table holds the live buff routines of one session.
type Table struct {
	FindAffectSlot FindAffectSlotFunc
	GetBuff        GetBuffFunc
	GetMaxBuffs    GetMaxBuffsFunc
}

// NewTable returns a table wired to the classic routines. classic should be
// an engine built with stacking.Options{Classic: true}.
func NewTable(classic *stacking.Engine) *Table {
	return &Table{
		FindAffectSlot: classic.Resolve,
		GetBuff:        classicGetBuff,
		GetMaxBuffs:    classicGetMaxBuffs,
	}
}

// classicGetBuff ignores the view; storage is addressed directly.
func classicGetBuff(ch *buff.Character, logical int, _ buff.View) *buff.Slot {
	return ch.Slot(logical)
}

func classicGetMaxBuffs(ch *buff.Character, _ buff.View) int {
	return buff.EffectiveMaxSlots(ch, buff.MainView, 0)
}

// Install implements Installer.
func (t *Table) Install(name string, replacement any) (any, error) {
	switch name {
	case TargetFindAffectSlot:
		fn, ok := replacement.(FindAffectSlotFunc)
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrSignature)
		}
		prev := t.FindAffectSlot
		t.FindAffectSlot = fn
		return prev, nil
	case TargetGetBuff:
		fn, ok := replacement.(GetBuffFunc)
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrSignature)
		}
		prev := t.GetBuff
		t.GetBuff = fn
		return prev, nil
	case TargetGetMaxBuffs:
		fn, ok := replacement.(GetMaxBuffsFunc)
		if !ok {
			return nil, fmt.Errorf("%s: %w", name, ErrSignature)
		}
		prev := t.GetMaxBuffs
		t.GetMaxBuffs = fn
		return prev, nil
	}
	return nil, fmt.Errorf("%q: %w", name, ErrUnknownTarget)
}
