package engine

import (
	"math"
	"sort"
	"time"
)

// ApplyInstrumentImpacts extends the contractual cashflow list with events
// derived from externally proposed impacts. The original events are never
// mutated or removed; every amendment is appended. The returned audit list
// records impacts that were dropped or produced no events.
//
// Offset logic pairs each impact with the instrument's earliest future leg
// (first cashflow dated strictly after asOf) so the still-scheduled maturity
// is not double counted. The earliest-future-leg heuristic is deliberate; it
// does not try to disambiguate instruments with several near-term legs.
func ApplyInstrumentImpacts(cashflows []CashflowEvent, instruments map[string]Instrument, impacts []InstrumentImpact, asOf time.Time) ([]CashflowEvent, []SkippedImpact) {
	// Earliest future cashflow per instrument.
	futures := make(map[string][]CashflowEvent)
	for _, cf := range cashflows {
		if cf.Date.After(asOf) {
			futures[cf.InstrumentID] = append(futures[cf.InstrumentID], cf)
		}
	}
	for id := range futures {
		legs := futures[id]
		sort.SliceStable(legs, func(i, j int) bool { return legs[i].Date.Before(legs[j].Date) })
		futures[id] = legs
	}

	out := make([]CashflowEvent, len(cashflows), len(cashflows)+2*len(impacts))
	copy(out, cashflows)

	var skipped []SkippedImpact
	skip := func(imp InstrumentImpact, reason string) {
		skipped = append(skipped, SkippedImpact{Impact: imp, Reason: reason})
	}

	for _, imp := range impacts {
		inst, ok := instruments[imp.InstrumentID]
		if !ok {
			skip(imp, "unknown instrument")
			continue
		}
		if imp.Date.IsZero() {
			skip(imp, "missing impact date")
			continue
		}
		if imp.Amount <= 0 {
			skip(imp, "non-positive amount")
			continue
		}

		currency := inst.Currency
		if currency == "" {
			currency = "USD"
		}
		append_ := func(amount float64, date time.Time) {
			out = append(out, CashflowEvent{
				InstrumentID: imp.InstrumentID,
				Type:         inst.Type,
				Currency:     currency,
				Date:         date,
				Amount:       amount,
			})
		}

		var original *CashflowEvent
		if legs := futures[imp.InstrumentID]; len(legs) > 0 {
			original = &legs[0]
		}

		// Margin calls and option exercises are conservative outflows on the
		// impact date with no offsetting leg, regardless of category.
		if imp.Action == ActionMarginCall || imp.Action == ActionExerciseOption {
			append_(-imp.Amount, imp.Date)
			continue
		}

		switch inst.Category() {
		case CategoryLiability:
			switch imp.Action {
			case ActionPrepay, ActionNotRollover, ActionTerminate:
				// Pay early or fail to roll: outflow now, offset the
				// still-scheduled original leg.
				append_(-imp.Amount, imp.Date)
				if original != nil {
					append_(+imp.Amount, original.Date)
				}
			case ActionExtendMaturity:
				if imp.NewMaturity == nil {
					skip(imp, "extend_maturity without new_maturity")
					continue
				}
				if original != nil {
					append_(+math.Abs(original.Amount), original.Date)
				}
				mag := imp.Amount
				if original != nil && math.Abs(original.Amount) > mag {
					mag = math.Abs(original.Amount)
				}
				append_(-mag, *imp.NewMaturity)
			default:
				skip(imp, "action not applicable to liability")
			}

		case CategoryAsset:
			switch imp.Action {
			case ActionPrepay, ActionTerminate:
				// Early repayment: inflow now, offset the original inflow.
				append_(+imp.Amount, imp.Date)
				if original != nil {
					append_(-imp.Amount, original.Date)
				}
			case ActionExtendMaturity:
				if imp.NewMaturity == nil {
					skip(imp, "extend_maturity without new_maturity")
					continue
				}
				if original != nil {
					append_(-math.Abs(original.Amount), original.Date)
				}
				append_(+imp.Amount, *imp.NewMaturity)
			default:
				skip(imp, "action not applicable to asset")
			}

		default:
			// Derivatives and unrecognized types: conservative single
			// outflow on the impact date.
			append_(-imp.Amount, imp.Date)
		}
	}

	return out, skipped
}
