package stacking

import (
	"testing"

	"github.com/eqmac/buffstack/internal/buff"
	"github.com/eqmac/buffstack/internal/spell"
)

func TestCompareMagnitudes(t *testing.T) {
	tests := []struct {
		name       string
		effect     spell.Effect
		oldV, newV int
		dc         bool
		want       outcome
	}{
		{"haste stronger", spell.EffectAttackSpeed, 130, 140, false, outcomeSupersede},
		{"haste equal", spell.EffectAttackSpeed, 130, 130, false, outcomeSupersede},
		{"haste weaker", spell.EffectAttackSpeed, 130, 120, false, outcomeBlock},
		{"slow stronger", spell.EffectAttackSpeed, 70, 60, false, outcomeSupersede},
		{"slow weaker", spell.EffectAttackSpeed, 60, 70, false, outcomeBlock},
		{"slow weaker diseased cloud", spell.EffectAttackSpeed, 60, 70, true, outcomeSupersede},
		{"haste over slow", spell.EffectAttackSpeed, 70, 130, false, outcomeBlock},
		{"slow over haste", spell.EffectAttackSpeed, 130, 70, false, outcomeSupersede},
		{"ac stronger", spell.EffectArmorClass, 10, 15, false, outcomeSupersede},
		{"ac equal", spell.EffectArmorClass, 10, 10, false, outcomeSupersede},
		{"ac weaker", spell.EffectArmorClass, 10, 5, false, outcomeBlock},
		{"zero occupant", spell.EffectArmorClass, 0, 5, false, outcomeBlock},
		{"larger decrease", spell.EffectCHA, -10, -20, false, outcomeSupersede},
		{"smaller decrease", spell.EffectCHA, -10, -5, false, outcomeBlock},
		{"heal over dot", spell.EffectCurrentHP, -10, 20, false, outcomeBlock},
		{"dot over regen", spell.EffectCurrentHP, 10, -5, false, outcomeReplace},
		{"ac debuff over buff", spell.EffectArmorClass, 10, -5, false, outcomeReplace},
		{"ac buff over debuff", spell.EffectArmorClass, -5, 10, false, outcomeReplace},
		{"speed over snare", spell.EffectMovementSpeed, -30, 40, false, outcomeBlock},
		{"snare over speed", spell.EffectMovementSpeed, 40, -30, false, outcomeReplace},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := compareMagnitudes(tt.effect, tt.oldV, tt.newV, tt.dc); got != tt.want {
				t.Errorf("compareMagnitudes(%d, %d, %d, %v) = %d, want %d",
					tt.effect, tt.oldV, tt.newV, tt.dc, got, tt.want)
			}
		})
	}
}

func TestCalcEffectValue(t *testing.T) {
	tests := []struct {
		name    string
		base    int16
		max     int16
		formula uint16
		level   uint8
		want    int16
	}{
		{"flat", 10, 0, 0, 50, 10},
		{"flat 100", 10, 0, 100, 50, 10},
		{"half level", -10, 0, 101, 20, -20},
		{"level", 10, 0, 102, 20, 30},
		{"level capped", 10, 25, 102, 20, 25},
		{"double level", 5, 0, 103, 10, 25},
		{"triple level", 5, 0, 104, 10, 35},
		{"quadruple level", 5, 0, 105, 10, 45},
		{"multiplier", 5, 0, 3, 10, 35},
		{"negative capped", -10, -15, 102, 20, -15},
		{"unknown formula", 7, 0, 200, 60, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := mkSpell(1, true, fx{effect: spell.EffectArmorClass, base: tt.base, max: tt.max, formula: tt.formula})
			if got := CalcEffectValue(sp, tt.level, 0); got != tt.want {
				t.Errorf("CalcEffectValue = %d, want %d", got, tt.want)
			}
		})
	}

	if got := CalcEffectValue(mkSpell(1, true), 1, spell.NumEffects); got != 0 {
		t.Errorf("out of range index = %d, want 0", got)
	}
}

func TestDefaultIsStackBlocked(t *testing.T) {
	blocker := mkSpell(50, true, fx{effect: spell.EffectStackingBlock, base: int16(spell.EffectAttackSpeed), max: 150})
	weak := mkSpell(51, true, fx{effect: spell.EffectAttackSpeed, base: 130})
	strong := mkSpell(52, true, fx{effect: spell.EffectAttackSpeed, base: 160})
	other := mkSpell(53, true, fx{effect: spell.EffectArmorClass, base: 10})
	cat := mustCatalog(t, blocker, weak, strong, other)
	d := DefaultEffects{Catalog: cat}

	ch := buff.NewCharacter("Soandso", &buff.Spawn{ID: 1})
	if d.IsStackBlocked(ch, weak) {
		t.Fatal("blocked without a blocker present")
	}
	ch.Land(4, blocker, nil)

	tests := []struct {
		sp   *spell.Spell
		want bool
	}{
		{weak, true},
		{strong, false},
		{other, false},
	}
	for _, tt := range tests {
		if got := d.IsStackBlocked(ch, tt.sp); got != tt.want {
			t.Errorf("IsStackBlocked(%d) = %v, want %v", tt.sp.ID, got, tt.want)
		}
	}
}

func TestTables(t *testing.T) {
	for _, id := range []uint16{775, 780, 785, 1200, 1250, 1900, 1924, 2079, 2751, 756, 757, 836} {
		if !IsUnstackable(id) {
			t.Errorf("IsUnstackable(%d) = false", id)
		}
	}
	for _, id := range []uint16{774, 786, 1199, 1251, 1899, 1925, 2755, 100} {
		if IsUnstackable(id) {
			t.Errorf("IsUnstackable(%d) = true", id)
		}
	}
	if !IsForcedSingleInstance(Lifeburn) || IsForcedSingleInstance(836) {
		t.Error("IsForcedSingleInstance mismatch")
	}
}
