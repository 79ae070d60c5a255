package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/spell"
	"github.com/eqmac/buffstack/internal/stacking"
)

func newSpell(id uint16, effect spell.Effect, base, max int16, formula uint16) *spell.Spell {
	s := &spell.Spell{ID: id, Beneficial: true}
	for i := range s.Effects {
		s.Effects[i] = spell.EffectBlank
	}
	s.Effects[0] = effect
	s.Base[0] = base
	s.Max[0] = max
	s.Formula[0] = formula
	return s
}

func writeScript(t *testing.T, dir, body string) {
	t.Helper()
	sub := filepath.Join(dir, "stacking")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(sub, "effects.lua"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func catalog(t *testing.T, spells ...*spell.Spell) *spell.Catalog {
	t.Helper()
	c, err := spell.NewCatalog(spells, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestFallbackWithoutScripts(t *testing.T) {
	sp := newSpell(10, spell.EffectArmorClass, 10, 0, 102)
	e, err := NewEngine(t.TempDir(), catalog(t, sp), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	if e.Has("calc_spell_effect_value") {
		t.Error("function defined without scripts")
	}
	want := stacking.CalcEffectValue(sp, 20, 0)
	if got := e.Magnitude(nil, sp, 20, 0); got != want {
		t.Errorf("Magnitude = %d, want %d", got, want)
	}
	if e.IsStackBlocked(buff.NewCharacter("x", nil), sp) {
		t.Error("IsStackBlocked without blockers")
	}
}

func TestScriptOverrides(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, `
function calc_spell_effect_value(ctx)
    if ctx.effect == 11 then
        return ctx.base * 1000
    end
    return default_effect_value(ctx.base, ctx.max, ctx.formula, ctx.caster_level) * 2
end

function is_stack_blocked(ctx)
    return ctx.target.level < 10 and #ctx.buffs > 0 and ctx.spell.id == 10
end
`)
	sp := newSpell(10, spell.EffectArmorClass, 10, 0, 102)
	haste := newSpell(11, spell.EffectAttackSpeed, 130, 0, 0)
	e, err := NewEngine(dir, catalog(t, sp, haste), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	if got := e.Magnitude(nil, sp, 20, 0); got != 60 {
		t.Errorf("Magnitude = %d, want 60", got)
	}
	if got := e.Magnitude(nil, haste, 1, 0); got != 32767 {
		t.Errorf("Magnitude clamp = %d, want 32767", got)
	}

	low := buff.NewCharacter("low", &buff.Spawn{Level: 5})
	if e.IsStackBlocked(low, sp) {
		t.Error("blocked with no buffs")
	}
	low.Land(0, haste, nil)
	if !e.IsStackBlocked(low, sp) {
		t.Error("script block ignored")
	}
	if e.IsStackBlocked(low, haste) {
		t.Error("script blocked the wrong spell")
	}
}

func TestScriptErrorsFallBack(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, `
function calc_spell_effect_value(ctx)
    error("boom")
end

function is_stack_blocked(ctx)
    return ctx.missing.field
end
`)
	sp := newSpell(10, spell.EffectArmorClass, 10, 0, 102)
	e, err := NewEngine(dir, catalog(t, sp), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	if got, want := e.Magnitude(nil, sp, 20, 0), stacking.CalcEffectValue(sp, 20, 0); got != want {
		t.Errorf("Magnitude = %d, want fallback %d", got, want)
	}
	if e.IsStackBlocked(buff.NewCharacter("x", nil), sp) {
		t.Error("IsStackBlocked fallback blocked")
	}
}

func TestBadScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	writeScript(t, dir, "function (")
	if _, err := NewEngine(dir, nil, nil); err == nil {
		t.Error("expected load error")
	}
}

func TestShippedScripts(t *testing.T) {
	blocker := newSpell(50, spell.EffectStackingBlock, int16(spell.EffectAttackSpeed), 150, 0)
	weak := newSpell(51, spell.EffectAttackSpeed, 130, 0, 0)
	strong := newSpell(52, spell.EffectAttackSpeed, 160, 0, 0)
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), catalog(t, blocker, weak, strong), nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	if !e.Has("calc_spell_effect_value") || !e.Has("is_stack_blocked") {
		t.Fatal("shipped scripts not loaded")
	}
	ch := buff.NewCharacter("x", &buff.Spawn{Level: 50})
	ch.Land(3, blocker, nil)
	fallback := stacking.DefaultEffects{Catalog: catalog(t, blocker, weak, strong)}
	for _, sp := range []*spell.Spell{weak, strong} {
		if got, want := e.IsStackBlocked(ch, sp), fallback.IsStackBlocked(ch, sp); got != want {
			t.Errorf("spell %d: script %v, built-in %v", sp.ID, got, want)
		}
		if got, want := e.Magnitude(ch, sp, 50, 0), fallback.Magnitude(ch, sp, 50, 0); got != want {
			t.Errorf("spell %d: script magnitude %d, built-in %d", sp.ID, got, want)
		}
	}
}

func TestShippedScriptsSkipMalformedBlocker(t *testing.T) {
	// 300 is outside the effect code range; truncated to a byte it would
	// name Lycanthropy (44).
	blocker := newSpell(60, spell.EffectStackingBlock, 300, 150, 0)
	lycan := newSpell(61, spell.EffectLycanthropy, 10, 0, 0)
	cat := catalog(t, blocker, lycan)
	e, err := NewEngine(filepath.Join("..", "..", "scripts"), cat, nil)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	defer e.Close()

	ch := buff.NewCharacter("x", &buff.Spawn{Level: 50})
	ch.Land(0, blocker, nil)
	fallback := stacking.DefaultEffects{Catalog: cat}
	if e.IsStackBlocked(ch, lycan) || fallback.IsStackBlocked(ch, lycan) {
		t.Errorf("malformed blocker applied: script %v, built-in %v",
			e.IsStackBlocked(ch, lycan), fallback.IsStackBlocked(ch, lycan))
	}
}
