package engine

// ComputeGapToTargets converts a KPI set into required-HQLA gaps against the
// management targets and names the binding constraint. The LCR gap closes
// HQLA up to target x worst 30-day outflow; the survival gap covers the peak
// cumulative funding hole. Binding selection order: LCR below target, then
// survival below target, else none.
func ComputeGapToTargets(kpis KpiSet, targets Targets) GapToTargets {
	lcrGap := targets.LCRTargetRatio*kpis.Worst30dOutflow - kpis.HQLA
	if lcrGap < 0 {
		lcrGap = 0
	}
	survivalGap := kpis.PeakCumulativeOutflow - kpis.HQLA
	if survivalGap < 0 {
		survivalGap = 0
	}

	binding := BindingNone
	bindingGap := 0.0
	switch {
	case kpis.LCR < targets.LCRTargetRatio:
		binding = BindingLCR
		bindingGap = lcrGap
	case kpis.SurvivalDays < targets.SurvivalTargetDays:
		binding = BindingSurvival
		bindingGap = survivalGap
	}

	return GapToTargets{
		Targets:             targets,
		AddlHQLAForLCR:      lcrGap,
		AddlHQLAForSurvival: survivalGap,
		BindingMetric:       binding,
		BindingGapUSD:       bindingGap,
	}
}

// DefaultTargets returns the management targets used when a run does not
// override them.
func DefaultTargets() Targets {
	return Targets{
		LCRTargetRatio:     DefaultLCRTarget,
		SurvivalTargetDays: DefaultSurvivalTargetDays,
	}
}
