package engine

import "strings"

// ComputeHQLA computes the eligible HQLA stock after Basel-style haircuts and
// composition caps.
//
// Reserve balances count fully as Level 1. Instruments count by their declared
// HQLA level unless their type is a recognized liability, which is never
// eligible regardless of the tag. Zero or negative notionals are skipped.
// Haircuts: Level 1 x1.0, Level 2A x0.85, Level 2B x0.50. Caps, in order:
// Level 2B <= 15% of the returned total, then Level 2A+2B <= 40% of the
// returned total with a proportional rescale, both solved so the shares hold
// against the final stock. Returns 0 when nothing is eligible.
func ComputeHQLA(p Portfolio) float64 {
	l1 := p.Reserve
	var l2a, l2b float64

	for _, inst := range p.Instruments {
		if inst.Notional <= 0 {
			continue
		}
		if inst.Category() == CategoryLiability {
			continue
		}
		switch normalizeLevel(inst.HQLALevel) {
		case Level1:
			l1 += inst.Notional * HaircutLevel1
		case Level2A:
			l2a += inst.Notional * HaircutLevel2A
		case Level2B:
			l2b += inst.Notional * HaircutLevel2B
		}
	}

	total := l1 + l2a + l2b
	if total <= 0 {
		return 0
	}

	// Level 2B cap: the returned stock must satisfy l2b <= 15% of the final
	// total, so the ceiling is solved against the capped total rather than
	// the raw one.
	if l2b > CapLevel2BShare*total {
		l2b = CapLevel2BShare * (l1 + l2a) / (1 - CapLevel2BShare)
	}

	// Aggregate Level 2 cap: l2a+l2b <= 40% of the final total, scaling both
	// proportionally down to exactly the cap. With share s the consistent
	// ceiling is s/(1-s) of Level 1.
	total = l1 + l2a + l2b
	if l2a+l2b > CapLevel2Share*total {
		capL2 := CapLevel2Share / (1 - CapLevel2Share) * l1
		scale := capL2 / (l2a + l2b + capEpsilon)
		l2a *= scale
		l2b *= scale
	}

	if out := l1 + l2a + l2b; out > 0 {
		return out
	}
	return 0
}

// normalizeLevel tolerates case and spacing variants of the HQLA tag.
func normalizeLevel(lvl HQLALevel) HQLALevel {
	switch strings.ToLower(strings.TrimSpace(string(lvl))) {
	case "level 1", "level1":
		return Level1
	case "level 2a", "level2a":
		return Level2A
	case "level 2b", "level2b":
		return Level2B
	default:
		return LevelNA
	}
}
