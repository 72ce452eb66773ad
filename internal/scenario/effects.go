package scenario

import (
	"fmt"
	"math"

	"liqrisk/internal/engine"
)

// BuildEffectsSummary condenses one evaluated scenario into magnitude
// estimates and KPI deltas, plus a preformatted sentence for packs. Magnitudes
// come from size proxies so the summary never re-runs the engine.
func BuildEffectsSummary(baseKPIs, kpis engine.KpiSet, behavior engine.BehaviorParameters, proxies engine.SizeProxies) EffectsSummary {
	depositRunoff := proxies.DepositBase * behavior.DepositRunoff30dPct

	// Wholesale non-roll over 0-90d, split into the <=30d and 30-90d buckets
	// with the same 50% haircut the overlay applies.
	wholesale30 := proxies.WholesaleBase * behavior.NotRollProb30d * 0.5
	wholesale90 := proxies.WholesaleBase * math.Max(0, behavior.NotRollProb90d-behavior.NotRollProb30d) * 0.5

	marginCalls := 0.001 * (proxies.IRNotionals + proxies.FXNotionals) * behavior.MarginFactor

	deltaLCRpp := (kpis.LCR - baseKPIs.LCR) * 100.0
	deltaSurvival := kpis.SurvivalDays - baseKPIs.SurvivalDays

	return EffectsSummary{
		DepositOutflow30dUSD:     round2(depositRunoff),
		WholesaleNotRoll090dUSD:  round2(wholesale30 + wholesale90),
		ExpectedMarginCallsUSD:   round2(marginCalls),
		Worst30dOutflowUSD:       round2(kpis.Worst30dOutflow),
		PeakCumulativeOutflowUSD: round2(kpis.PeakCumulativeOutflow),
		DeltaLCRPercentagePoints: round1(deltaLCRpp),
		DeltaSurvivalDays:        deltaSurvival,
		PlainLanguage: fmt.Sprintf(
			"Assumes %.1f%% deposit run-off, %.0f%% wholesale not-roll by 30d and %.0f%% by 90d, "+
				"margin factor %.1f. LCR %+.1fpp, survival %+d days vs baseline.",
			behavior.DepositRunoff30dPct*100.0,
			behavior.NotRollProb30d*100.0,
			behavior.NotRollProb90d*100.0,
			behavior.MarginFactor,
			deltaLCRpp,
			deltaSurvival,
		),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
