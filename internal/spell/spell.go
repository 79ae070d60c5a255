package spell

// Effect is a spell effect attribute code (SPA). Numbering follows the client.
type Effect uint8

const (
	EffectCurrentHP     Effect = 0
	EffectArmorClass    Effect = 1
	EffectMovementSpeed Effect = 3
	EffectCHA           Effect = 10
	EffectAttackSpeed   Effect = 11
	EffectSeeInvis      Effect = 13
	EffectDiseaseCount  Effect = 35
	EffectPoisonCount   Effect = 36
	EffectLycanthropy   Effect = 44
	EffectVampirism     Effect = 45
	EffectLevitate      Effect = 57
	EffectIllusion      Effect = 58
	EffectInfravision   Effect = 65
	EffectUltravision   Effect = 66
	EffectEyeOfZomm     Effect = 67
	EffectCurrentHPOnce Effect = 79
	EffectRoot          Effect = 99
	EffectCompleteHeal  Effect = 101
	EffectSummonHorse   Effect = 113
	EffectCurseCount    Effect = 116
	EffectStackingBlock Effect = 148
	EffectBlank         Effect = 254
)

const (
	// NumEffects is the fixed size of a spell's effect attribute array.
	NumEffects = 16
	// MaxSpellID bounds the spell id space; valid ids are 1..MaxSpellID-1.
	MaxSpellID = 8000
)

// Spell is a read-only catalog entry.
type Spell struct {
	ID            uint16
	Name          string
	Beneficial    bool
	Bardsong      bool
	ShortBuffBox  bool // eligible for the song window when it is negotiated
	StackMultiple bool // instances from different casters may coexist (DoTs)
	Duration      int32
	Effects       [NumEffects]Effect
	Base          [NumEffects]int16
	Max           [NumEffects]int16
	Formula       [NumEffects]uint16
}

// EffectAt returns the effect code at index i, or EffectBlank when i is at or
// past the blank sentinel.
func (s *Spell) EffectAt(i int) Effect {
	if i < 0 || i >= NumEffects {
		return EffectBlank
	}
	for j := 0; j < i; j++ {
		if s.Effects[j] == EffectBlank {
			return EffectBlank
		}
	}
	return s.Effects[i]
}

// EffectIndex returns the 1-based index of the first occurrence of e, or 0
// when the spell does not carry it. Scanning stops at the blank sentinel.
func (s *Spell) EffectIndex(e Effect) int {
	for i := 0; i < NumEffects; i++ {
		if s.Effects[i] == EffectBlank {
			return 0
		}
		if s.Effects[i] == e {
			return i + 1
		}
	}
	return 0
}

// HasEffect reports whether the spell carries e before its blank sentinel.
func (s *Spell) HasEffect(e Effect) bool {
	return s.EffectIndex(e) != 0
}

// EffectCount returns the number of entries before the blank sentinel.
func (s *Spell) EffectCount() int {
	for i := 0; i < NumEffects; i++ {
		if s.Effects[i] == EffectBlank {
			return i
		}
	}
	return NumEffects
}

// DefaultIgnoredEffects are effects that never take part in stacking comparison.
var DefaultIgnoredEffects = []Effect{
	EffectSeeInvis,
	EffectDiseaseCount,
	EffectPoisonCount,
	EffectLevitate,
	EffectInfravision,
	EffectUltravision,
	EffectCurrentHPOnce,
	EffectCurseCount,
}
