package engine

// MacroShocks carries the macro fields the behavior mapper reads. Nil fields
// mean "not supplied" and fall back to neutral anchors; the distinction
// matters because an explicit zero is a real (extreme) observation.
type MacroShocks struct {
	FedFundsRate     *float64
	US10YYield       *float64
	VIX              *float64
	CreditSpreadsBAA *float64
	CreditSpreadsHY  *float64
	FX               map[string]float64
}

// Neutral macro anchors used when a field is absent.
const (
	neutralVIX   = 18.0
	neutralBAA   = 180.0
	neutralHY    = 400.0
	neutralUS10Y = 4.2
)

// Severity multipliers scaling behavior coherently across scenarios.
// Unrecognized labels map to the neutral multiplier.
func severityMultiplier(severity string) float64 {
	switch severity {
	case "mild":
		return 0.6
	case "base":
		return 1.0
	case "severe":
		return 1.6
	default:
		return 1.0
	}
}

// BehaviorParamsFromMacro converts macro shock values plus a severity label
// into numeric behavior parameters. Percent values are clamped before the
// severity multiplier is applied and converted to fractions. Pure and
// stateless.
func BehaviorParamsFromMacro(macro MacroShocks, severity string) BehaviorParameters {
	vix := valueOr(macro.VIX, neutralVIX)
	baa := valueOr(macro.CreditSpreadsBAA, neutralBAA)
	hy := valueOr(macro.CreditSpreadsHY, neutralHY)
	us10y := valueOr(macro.US10YYield, neutralUS10Y)

	sev := severityMultiplier(severity)

	// Deposit runoff over 30 days, percent bounded to [0.3, 8.0].
	runoffPct := clamp(0.5+0.01*(vix-neutralVIX)+0.002*(baa-neutralBAA), 0.3, 8.0) * sev

	// Wholesale non-roll, percent bounded to [5, 60]; the 90-day value is
	// 1.5x the 30-day percent capped at 90 and floored at the 30-day value
	// so monotonicity holds even when the severity multiplier pushes the
	// 30-day percent past the 90 cap.
	notRoll30Pct := clamp(5+0.6*(vix-neutralVIX)+0.05*(hy-neutralHY), 5, 60) * sev
	notRoll90Pct := min2(90, notRoll30Pct*1.5)
	if notRoll90Pct < notRoll30Pct {
		notRoll90Pct = notRoll30Pct
	}

	marginFactor := clamp(0.8+0.04*(vix-neutralVIX)+0.1*(us10y-neutralUS10Y), 0.5, 3.0) * sev

	return BehaviorParameters{
		DepositRunoff30dPct: runoffPct / 100.0,
		NotRollProb30d:      notRoll30Pct / 100.0,
		NotRollProb90d:      notRoll90Pct / 100.0,
		MarginFactor:        marginFactor,
	}
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
