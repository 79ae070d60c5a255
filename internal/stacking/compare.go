package stacking

import "github.com/eqmac/buffstack/internal/spell"

// outcome is the result of comparing magnitudes at the reconciliation index.
type outcome uint8

const (
	// outcomeBlock refuses the new spell.
	outcomeBlock outcome = iota
	// outcomeReplace takes the occupant's slot immediately.
	outcomeReplace
	// outcomeSupersede means the new spell wins. Two detrimental spells
	// replace immediately; otherwise the occupant becomes a candidate and
	// the scan continues.
	outcomeSupersede
)

// compareMagnitudes orders oldV against newV for effect. diseaseCloud turns
// the would-block results into supersede.
func compareMagnitudes(effect spell.Effect, oldV, newV int, diseaseCloud bool) outcome {
	if oldV < 0 && newV > 0 {
		return signFlip(effect, oldV, newV)
	}
	if oldV > 0 && newV < 0 {
		return signFlip(effect, oldV, newV)
	}

	blocked := outcomeBlock
	if diseaseCloud {
		blocked = outcomeSupersede
	}
	greater := func() outcome {
		if newV >= oldV {
			return outcomeSupersede
		}
		return blocked
	}

	if effect == spell.EffectAttackSpeed {
		switch {
		case newV < AttackSpeedPivot && newV <= oldV:
			return outcomeSupersede
		case oldV <= AttackSpeedPivot:
			return blocked
		case newV >= AttackSpeedPivot:
			return greater()
		}
		return outcomeSupersede
	}

	switch {
	case oldV < 0 && newV <= oldV:
		return outcomeSupersede
	case oldV <= 0:
		return blocked
	}
	return greater()
}

// signFlip handles an incoming effect whose sign differs from the occupant's.
func signFlip(effect spell.Effect, oldV, newV int) outcome {
	if effect == spell.EffectMovementSpeed {
		if newV >= 0 {
			return outcomeBlock
		}
		return outcomeReplace
	}
	if effect == spell.EffectCurrentHP && oldV < 0 && newV > 0 {
		return outcomeBlock
	}
	return outcomeReplace
}
