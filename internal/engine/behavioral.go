package engine

import "time"

// EstimateBehavioralSeries produces a daily outflow-only stress series from
// behavior parameters and portfolio composition. Three additive overlays:
//
//  1. Deposit runoff: each deposit instrument's notional is scaled up as its
//     funding stability falls, the adjusted base runs off over days 1-30.
//  2. Wholesale non-roll: half the 30-day non-roll mass over days 1-30, half
//     the incremental 90-day mass over days 31-90.
//  3. Margin calls: IR- and FX-linked notionals times the margin rate over
//     days 1-7.
//
// The 30/90/7-day windows are fixed regardless of horizonDays; horizons
// shorter than 90 days truncate part of the behavioral outflow, so callers
// wanting full fidelity must use horizonDays >= 90.
func EstimateBehavioralSeries(p Portfolio, asOf time.Time, behavior BehaviorParameters, horizonDays int) DailySeries {
	anchor := Day(asOf)
	daily := make(DailySeries)

	addOut := func(dayOffset int, amount float64) {
		if dayOffset > horizonDays {
			return
		}
		daily.AddOutflow(anchor.AddDate(0, 0, dayOffset), amount)
	}

	// Deposit runoff over days 1-30.
	var depositBase float64
	for _, inst := range p.Instruments {
		if !depositTypes[inst.Type] {
			continue
		}
		sff := clamp(inst.StableFundingFactor, 0, 1)
		adj := 1.0 + 0.75*(1.0-sff)
		depositBase += inst.Notional * adj
	}
	if runoff := depositBase * behavior.DepositRunoff30dPct; runoff > 0 {
		perDay := runoff / float64(depositRunoffDays)
		for i := 1; i <= depositRunoffDays; i++ {
			addOut(i, perDay)
		}
	}

	// Wholesale non-roll across the near and far windows.
	var wholesaleBase float64
	for _, inst := range p.Instruments {
		if wholesaleTypes[inst.Type] {
			wholesaleBase += inst.Notional
		}
	}
	near := wholesaleBase * behavior.NotRollProb30d * 0.5
	incremental := behavior.NotRollProb90d - behavior.NotRollProb30d
	if incremental < 0 {
		incremental = 0
	}
	far := wholesaleBase * incremental * 0.5
	for i := 1; i <= wholesaleNearDays; i++ {
		addOut(i, near/float64(wholesaleNearDays))
	}
	farWindow := wholesaleFarDays - wholesaleNearDays
	for i := wholesaleNearDays + 1; i <= wholesaleFarDays; i++ {
		addOut(i, far/float64(farWindow))
	}

	// Margin calls over days 1-7.
	var irNotionals, fxNotionals float64
	for _, inst := range p.Instruments {
		if irLinkedTypes[inst.Type] {
			irNotionals += inst.Notional
		}
		if fxLinkedTypes[inst.Type] {
			fxNotionals += inst.Notional
		}
	}
	if marginTotal := marginNotionalRate * (irNotionals + fxNotionals) * behavior.MarginFactor; marginTotal > 0 {
		perDay := marginTotal / float64(marginCallDays)
		for i := 1; i <= marginCallDays; i++ {
			addOut(i, perDay)
		}
	}

	return daily
}
