package engine

import "time"

// RollDailyFlows buckets raw cashflow events into daily inflow/outflow pairs
// over the horizon. Only events strictly after asOf and at most
// asOf+horizonDays are included; out-of-window events are dropped, not
// clipped. Positive amounts accumulate into the day's inflow, negative
// amounts as positive magnitudes into the day's outflow.
func RollDailyFlows(cashflows []CashflowEvent, asOf time.Time, horizonDays int) DailySeries {
	anchor := Day(asOf)
	end := anchor.AddDate(0, 0, horizonDays)

	daily := make(DailySeries)
	for _, cf := range cashflows {
		d := Day(cf.Date)
		if !d.After(anchor) || d.After(end) {
			continue
		}
		if cf.Amount >= 0 {
			daily.AddInflow(d, cf.Amount)
		} else {
			daily.AddOutflow(d, -cf.Amount)
		}
	}
	return daily
}

// CombineSeries additively merges any number of daily series into a new one.
// Inputs are not modified; combining with an empty series is the identity.
func CombineSeries(series ...DailySeries) DailySeries {
	out := make(DailySeries)
	for _, s := range series {
		for d, f := range s {
			merged := out[d]
			merged.Inflow += f.Inflow
			merged.Outflow += f.Outflow
			out[d] = merged
		}
	}
	return out
}
