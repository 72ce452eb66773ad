package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func f(v float64) *float64 { return &v }

func TestBehaviorParamsNeutralDefaults(t *testing.T) {
	// Absent macro fields fall back to neutral anchors, so the base severity
	// yields the formula constants exactly.
	bp := BehaviorParamsFromMacro(MacroShocks{}, "base")

	assert.InDelta(t, 0.005, bp.DepositRunoff30dPct, 1e-9)
	assert.InDelta(t, 0.05, bp.NotRollProb30d, 1e-9)
	assert.InDelta(t, 0.075, bp.NotRollProb90d, 1e-9)
	assert.InDelta(t, 0.8, bp.MarginFactor, 1e-9)
	assert.True(t, bp.IsValid())
}

func TestBehaviorParamsExplicitZeroIsNotAbsent(t *testing.T) {
	// An explicit VIX of zero is an observation, not a missing field; it
	// pulls the formulas down to their lower clamps.
	bp := BehaviorParamsFromMacro(MacroShocks{VIX: f(0)}, "base")

	assert.InDelta(t, 0.0032, bp.DepositRunoff30dPct, 1e-9)
	assert.InDelta(t, 0.05, bp.NotRollProb30d, 1e-9)
	assert.InDelta(t, 0.5, bp.MarginFactor, 1e-9)
}

func TestBehaviorParamsStressedMacro(t *testing.T) {
	macro := MacroShocks{
		VIX:              f(45),
		CreditSpreadsBAA: f(320),
		CreditSpreadsHY:  f(900),
		US10YYield:       f(5.5),
	}

	bp := BehaviorParamsFromMacro(macro, "base")

	// runoff% = 0.5 + 0.27 + 0.28 = 1.05
	assert.InDelta(t, 0.0105, bp.DepositRunoff30dPct, 1e-9)
	// notroll30% = 5 + 16.2 + 25 = 46.2; notroll90% = min(90, 69.3)
	assert.InDelta(t, 0.462, bp.NotRollProb30d, 1e-9)
	assert.InDelta(t, 0.693, bp.NotRollProb90d, 1e-9)
	// margin = clamp(0.8 + 1.08 + 0.13, 0.5, 3.0) = 2.01
	assert.InDelta(t, 2.01, bp.MarginFactor, 1e-9)
}

func TestBehaviorParamsSeverityMonotonic(t *testing.T) {
	macros := []MacroShocks{
		{},
		{VIX: f(35), CreditSpreadsHY: f(700)},
		{VIX: f(80), CreditSpreadsBAA: f(500), CreditSpreadsHY: f(1500), US10YYield: f(7)},
	}

	for _, macro := range macros {
		base := BehaviorParamsFromMacro(macro, "base")
		severe := BehaviorParamsFromMacro(macro, "severe")
		mild := BehaviorParamsFromMacro(macro, "mild")

		assert.GreaterOrEqual(t, severe.DepositRunoff30dPct, base.DepositRunoff30dPct)
		assert.GreaterOrEqual(t, severe.NotRollProb30d, base.NotRollProb30d)
		assert.GreaterOrEqual(t, severe.NotRollProb90d, base.NotRollProb90d)
		assert.GreaterOrEqual(t, severe.MarginFactor, base.MarginFactor)

		assert.LessOrEqual(t, mild.DepositRunoff30dPct, base.DepositRunoff30dPct)
		assert.LessOrEqual(t, mild.MarginFactor, base.MarginFactor)
	}
}

func TestBehaviorParamsNotRoll90Monotonic(t *testing.T) {
	// With the 30d percent clamped at 60 and scaled by severe (x1.6 = 96%),
	// the plain 1.5x-capped-at-90 formula would undercut the 30d value; the
	// floor keeps the invariant.
	bp := BehaviorParamsFromMacro(MacroShocks{VIX: f(120), CreditSpreadsHY: f(2000)}, "severe")

	assert.GreaterOrEqual(t, bp.NotRollProb90d, bp.NotRollProb30d)
}

func TestBehaviorParamsUnknownSeverityNeutral(t *testing.T) {
	got := BehaviorParamsFromMacro(MacroShocks{}, "apocalyptic")
	want := BehaviorParamsFromMacro(MacroShocks{}, "base")
	assert.Equal(t, want, got)
}
