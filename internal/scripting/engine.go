package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/spell"
	"github.com/eqmac/buffstack/internal/stacking"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const (
	fnMagnitude    = "calc_spell_effect_value"
	fnStackBlocked = "is_stack_blocked"
)

// Engine wraps a single gopher-lua VM holding the effect formulas.
// Single-goroutine access only (game loop). Functions a script does not
// define fall back to the built-in formulas.
type Engine struct {
	vm       *lua.LState
	log      *zap.Logger
	catalog  stacking.Catalog
	fallback stacking.DefaultEffects
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. A missing directory yields an engine running only the
// built-in formulas.
func NewEngine(scriptsDir string, catalog stacking.Catalog, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	// Set API version global
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{
		vm:       vm,
		log:      log,
		catalog:  catalog,
		fallback: stacking.DefaultEffects{Catalog: catalog},
	}
	e.registerBuiltins()

	for _, sub := range []string{"core", "stacking"} {
		p := filepath.Join(scriptsDir, sub)
		if err := e.loadDir(p); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}

	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// registerBuiltins exposes the built-in formula so scripts can adjust it
// instead of replacing it.
func (e *Engine) registerBuiltins() {
	e.vm.SetGlobal("default_effect_value", e.vm.NewFunction(func(L *lua.LState) int {
		base := int16(L.CheckInt(1))
		limit := int16(L.OptInt(2, 0))
		formula := uint16(L.OptInt(3, 0))
		level := uint8(L.OptInt(4, 1))
		sp := &spell.Spell{}
		sp.Base[0], sp.Max[0], sp.Formula[0] = base, limit, formula
		L.Push(lua.LNumber(stacking.CalcEffectValue(sp, level, 0)))
		return 1
	}))
}

// Has reports whether a script defined the global function name.
func (e *Engine) Has(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// Magnitude calls calc_spell_effect_value. The context table carries the
// effect at effectIndex, the caster level and the target.
func (e *Engine) Magnitude(ch *buff.Character, sp *spell.Spell, casterLevel uint8, effectIndex int) int16 {
	fn, ok := e.vm.GetGlobal(fnMagnitude).(*lua.LFunction)
	if !ok || effectIndex < 0 || effectIndex >= spell.NumEffects {
		return e.fallback.Magnitude(ch, sp, casterLevel, effectIndex)
	}

	t := e.vm.NewTable()
	t.RawSetString("spell_id", lua.LNumber(sp.ID))
	t.RawSetString("beneficial", lua.LBool(sp.Beneficial))
	t.RawSetString("bardsong", lua.LBool(sp.Bardsong))
	t.RawSetString("effect", lua.LNumber(sp.Effects[effectIndex]))
	t.RawSetString("index", lua.LNumber(effectIndex))
	t.RawSetString("base", lua.LNumber(sp.Base[effectIndex]))
	t.RawSetString("max", lua.LNumber(sp.Max[effectIndex]))
	t.RawSetString("formula", lua.LNumber(sp.Formula[effectIndex]))
	t.RawSetString("caster_level", lua.LNumber(casterLevel))
	t.RawSetString("target", e.targetTable(ch))

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua calc_spell_effect_value error", zap.Uint16("spell", sp.ID), zap.Error(err))
		return e.fallback.Magnitude(ch, sp, casterLevel, effectIndex)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	n, ok := result.(lua.LNumber)
	if !ok {
		e.log.Error("lua calc_spell_effect_value returned non-number", zap.Uint16("spell", sp.ID))
		return e.fallback.Magnitude(ch, sp, casterLevel, effectIndex)
	}
	return clampInt16(int(n))
}

// IsStackBlocked calls is_stack_blocked with the new spell and the
// target's current buffs.
func (e *Engine) IsStackBlocked(ch *buff.Character, sp *spell.Spell) bool {
	fn, ok := e.vm.GetGlobal(fnStackBlocked).(*lua.LFunction)
	if !ok {
		return e.fallback.IsStackBlocked(ch, sp)
	}

	t := e.vm.NewTable()
	t.RawSetString("spell", e.spellTable(sp))
	t.RawSetString("target", e.targetTable(ch))

	buffs := e.vm.NewTable()
	if ch != nil {
		for _, i := range ch.Occupied() {
			b := ch.Slot(i)
			bt := e.vm.NewTable()
			bt.RawSetString("slot", lua.LNumber(i))
			bt.RawSetString("spell_id", lua.LNumber(b.SpellID))
			bt.RawSetString("caster_level", lua.LNumber(b.CasterLevel))
			bt.RawSetString("ticks", lua.LNumber(b.Ticks))
			if e.catalog != nil && e.catalog.Valid(b.SpellID) {
				if bs := e.catalog.Spell(b.SpellID); bs != nil {
					bt.RawSetString("spell", e.spellTable(bs))
				}
			}
			buffs.Append(bt)
		}
	}
	t.RawSetString("buffs", buffs)

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, t); err != nil {
		e.log.Error("lua is_stack_blocked error", zap.Uint16("spell", sp.ID), zap.Error(err))
		return e.fallback.IsStackBlocked(ch, sp)
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	return lua.LVAsBool(result)
}

func (e *Engine) spellTable(sp *spell.Spell) *lua.LTable {
	t := e.vm.NewTable()
	t.RawSetString("id", lua.LNumber(sp.ID))
	t.RawSetString("name", lua.LString(sp.Name))
	t.RawSetString("beneficial", lua.LBool(sp.Beneficial))
	t.RawSetString("bardsong", lua.LBool(sp.Bardsong))
	effects := e.vm.NewTable()
	for i := 0; i < sp.EffectCount(); i++ {
		ft := e.vm.NewTable()
		ft.RawSetString("effect", lua.LNumber(sp.Effects[i]))
		ft.RawSetString("base", lua.LNumber(sp.Base[i]))
		ft.RawSetString("max", lua.LNumber(sp.Max[i]))
		ft.RawSetString("formula", lua.LNumber(sp.Formula[i]))
		effects.Append(ft)
	}
	t.RawSetString("effects", effects)
	return t
}

func (e *Engine) targetTable(ch *buff.Character) *lua.LTable {
	t := e.vm.NewTable()
	if ch == nil {
		return t
	}
	t.RawSetString("name", lua.LString(ch.Name))
	if s := ch.Spawn; s != nil {
		t.RawSetString("spawn_id", lua.LNumber(s.ID))
		t.RawSetString("kind", lua.LNumber(s.Kind))
		t.RawSetString("class", lua.LNumber(s.Class))
		t.RawSetString("level", lua.LNumber(s.Level))
		t.RawSetString("gm", lua.LBool(s.GM))
	}
	return t
}

// --- Lua helpers ---

func clampInt16(v int) int16 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return int16(v)
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}
