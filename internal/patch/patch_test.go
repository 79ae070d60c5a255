package patch

import (
	"errors"
	"testing"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/rules"
	"github.com/eqmac/buffstack/internal/spell"
	"github.com/eqmac/buffstack/internal/stacking"
)

func songCatalog(t *testing.T) *spell.Catalog {
	t.Helper()
	s := &spell.Spell{ID: 717, Beneficial: true, Bardsong: true, ShortBuffBox: true, Duration: 3}
	for i := range s.Effects {
		s.Effects[i] = spell.EffectBlank
	}
	s.Effects[0] = spell.EffectCHA
	s.Base[0] = 10
	c, err := spell.NewCatalog([]*spell.Spell{s}, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func setup(t *testing.T) (*Table, *Manager, *rules.State) {
	t.Helper()
	cat := songCatalog(t)
	state := rules.NewState()
	fx := stacking.DefaultEffects{Catalog: cat}
	classic := stacking.New(stacking.Deps{Catalog: cat, Effects: fx}, stacking.Options{Classic: true})
	patched := stacking.New(stacking.Deps{Catalog: cat, Effects: fx, Rules: state}, stacking.Options{})
	return NewTable(classic), NewManager(patched, state, nil), state
}

var bard = &buff.Spawn{ID: 2, Kind: buff.KindPlayer, Class: buff.ClassBard, Level: 50}

func TestTableInstallErrors(t *testing.T) {
	table, _, _ := setup(t)

	if _, err := table.Install("Nope", GetBuffFunc(buff.ReadSlot)); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("unknown target err = %v", err)
	}
	for _, name := range []string{TargetFindAffectSlot, TargetGetBuff, TargetGetMaxBuffs} {
		if _, err := table.Install(name, 42); !errors.Is(err, ErrSignature) {
			t.Errorf("%s: err = %v, want ErrSignature", name, err)
		}
	}
}

func TestTableInstallReturnsPrevious(t *testing.T) {
	table, _, _ := setup(t)
	replacement := GetMaxBuffsFunc(func(*buff.Character, buff.View) int { return 7 })

	prev, err := table.Install(TargetGetMaxBuffs, replacement)
	if err != nil {
		t.Fatal(err)
	}
	ch := buff.NewCharacter("Soandso", &buff.Spawn{Kind: buff.KindPlayer})
	if got := table.GetMaxBuffs(ch, buff.MainView); got != 7 {
		t.Errorf("GetMaxBuffs = %d, want 7", got)
	}
	orig, ok := prev.(GetMaxBuffsFunc)
	if !ok {
		t.Fatalf("trampoline type %T", prev)
	}
	if got := orig(ch, buff.ExtendedView); got != 15 {
		t.Errorf("trampoline GetMaxBuffs = %d, want 15", got)
	}
}

func TestManagerFindAffectSlot(t *testing.T) {
	table, m, state := setup(t)
	if err := m.Apply(table); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if m.Status() != "patches: 3/3" {
		t.Errorf("Status() = %q", m.Status())
	}

	ch := buff.NewCharacter("Soandso", &buff.Spawn{ID: 1, Kind: buff.KindPlayer})
	if res := table.FindAffectSlot(ch, 717, bard, true); res.Slot != 0 {
		t.Errorf("disabled rules: slot %d, want classic 0", res.Slot)
	}

	state.Apply(true, rules.SongSlots)
	if res := table.FindAffectSlot(ch, 717, bard, true); res.Slot != 15 {
		t.Errorf("enabled rules: slot %d, want 15", res.Slot)
	}

	if err := m.Restore(); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if res := table.FindAffectSlot(ch, 717, bard, true); res.Slot != 0 {
		t.Errorf("restored: slot %d, want classic 0", res.Slot)
	}
	if m.Status() != "patches: 0/3" {
		t.Errorf("Status() = %q", m.Status())
	}
}

func TestManagerViews(t *testing.T) {
	table, m, state := setup(t)
	if err := m.Apply(table); err != nil {
		t.Fatal(err)
	}
	state.Apply(true, rules.SongSlots)

	player := buff.NewCharacter("Soandso", &buff.Spawn{Kind: buff.KindPlayer})
	npc := buff.NewCharacter("a_gnoll", &buff.Spawn{Kind: buff.KindNPC})

	tests := []struct {
		name string
		ch   *buff.Character
		v    buff.View
		want int
	}{
		{"player main", player, buff.MainView, 15},
		{"player extended", player, buff.ExtendedView, 21},
		{"npc main", npc, buff.MainView, 30},
	}
	for _, tt := range tests {
		if got := table.GetMaxBuffs(tt.ch, tt.v); got != tt.want {
			t.Errorf("%s: GetMaxBuffs = %d, want %d", tt.name, got, tt.want)
		}
	}

	if table.GetBuff(player, 0, buff.ExtendedView) != player.Slot(15) {
		t.Error("extended GetBuff(0) is not physical slot 15")
	}
	if table.GetBuff(player, 0, buff.MainView) != player.Slot(0) {
		t.Error("main GetBuff(0) is not physical slot 0")
	}
}

type failingInstaller struct {
	inner  Installer
	failOn string
}

func (f failingInstaller) Install(name string, replacement any) (any, error) {
	if name == f.failOn {
		return nil, ErrUnknownTarget
	}
	return f.inner.Install(name, replacement)
}

func TestManagerApplyRollsBack(t *testing.T) {
	table, m, state := setup(t)
	state.Apply(true, rules.SongSlots)

	err := m.Apply(failingInstaller{inner: table, failOn: TargetGetBuff})
	if !errors.Is(err, ErrUnknownTarget) {
		t.Fatalf("Apply err = %v", err)
	}
	ch := buff.NewCharacter("Soandso", &buff.Spawn{ID: 1, Kind: buff.KindPlayer})
	if res := table.FindAffectSlot(ch, 717, bard, true); res.Slot != 0 {
		t.Errorf("after rollback slot %d, want classic 0", res.Slot)
	}
	for _, e := range m.Entries() {
		if e.Active {
			t.Errorf("entry %s still active", e.Name)
		}
	}
}
