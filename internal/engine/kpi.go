package engine

import "time"

// ComputeKPIs derives the KPI set from a combined daily series.
//
// worst_30d_outflow slides a 30-day window across every valid start day; per
// window the recognizable inflow is capped at 75% of the window outflow and
// the net cannot go negative. The maximum across windows is floored at 1.0 so
// the LCR denominator can never be zero. A single forward scan accumulates
// cumulative (outflow - inflow) to yield the peak cumulative outflow and the
// first 1-based day the cumulative exceeds the HQLA stock (survival days,
// defaulting to the horizon when never exceeded).
func ComputeKPIs(series DailySeries, asOf time.Time, hqla float64, horizonDays int) KpiSet {
	anchor := Day(asOf)

	inflow := make([]float64, horizonDays)
	outflow := make([]float64, horizonDays)
	for i := 0; i < horizonDays; i++ {
		f := series[anchor.AddDate(0, 0, i+1)]
		inflow[i] = f.Inflow
		outflow[i] = f.Outflow
	}

	worst30 := minWorstOutflow
	for start := 0; start+30 <= horizonDays; start++ {
		var winIn, winOut float64
		for i := start; i < start+30; i++ {
			winIn += inflow[i]
			winOut += outflow[i]
		}
		cappedIn := min2(winIn, InflowCapRatio*winOut)
		net := winOut - cappedIn
		if net > worst30 {
			worst30 = net
		}
	}

	var cum, peak float64
	survival := horizonDays
	found := false
	for i := 0; i < horizonDays; i++ {
		cum += outflow[i] - inflow[i]
		if cum > peak {
			peak = cum
		}
		if !found && cum > hqla {
			survival = i + 1
			found = true
		}
	}

	return KpiSet{
		HQLA:                  hqla,
		Worst30dOutflow:       worst30,
		LCR:                   hqla / worst30,
		SurvivalDays:          survival,
		PeakCumulativeOutflow: peak,
	}
}
