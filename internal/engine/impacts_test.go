package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instrumentIndex(instruments ...Instrument) map[string]Instrument {
	m := make(map[string]Instrument, len(instruments))
	for _, inst := range instruments {
		m[inst.ID] = inst
	}
	return m
}

func TestApplyImpactsNotRollover(t *testing.T) {
	maturity := day(20)
	cashflows := []CashflowEvent{
		{InstrumentID: "CP1", Type: "commercial_paper", Date: maturity, Amount: -800_000},
	}
	instruments := instrumentIndex(Instrument{ID: "CP1", Type: "commercial_paper", Currency: "USD"})
	impacts := []InstrumentImpact{
		{InstrumentID: "CP1", Action: ActionNotRollover, Date: day(5), Amount: 500_000},
	}

	amended, skipped := ApplyInstrumentImpacts(cashflows, instruments, impacts, asOf)

	require.Empty(t, skipped)
	require.Len(t, amended, 3)
	assert.Equal(t, cashflows[0], amended[0], "originals must be preserved untouched")
	assert.Equal(t, -500_000.0, amended[1].Amount)
	assert.Equal(t, day(5), amended[1].Date)
	assert.Equal(t, +500_000.0, amended[2].Amount)
	assert.Equal(t, maturity, amended[2].Date)
}

func TestApplyImpactsNotRolloverFullAmountNetsToZeroAtMaturity(t *testing.T) {
	maturity := day(20)
	cashflows := []CashflowEvent{
		{InstrumentID: "CP1", Type: "commercial_paper", Date: maturity, Amount: -800_000},
	}
	instruments := instrumentIndex(Instrument{ID: "CP1", Type: "commercial_paper"})
	impacts := []InstrumentImpact{
		{InstrumentID: "CP1", Action: ActionNotRollover, Date: day(5), Amount: 800_000},
	}

	amended, _ := ApplyInstrumentImpacts(cashflows, instruments, impacts, asOf)

	baseline := RollDailyFlows(cashflows, asOf, DefaultHorizonDays)
	stressed := RollDailyFlows(amended, asOf, DefaultHorizonDays)

	baseNet := baseline[maturity].Inflow - baseline[maturity].Outflow
	stressNet := stressed[maturity].Inflow - stressed[maturity].Outflow
	assert.InDelta(t, baseNet, stressNet, 1e-9, "maturity bucket must not be double counted")
	assert.Equal(t, 800_000.0, stressed[day(5)].Outflow)
}

func TestApplyImpactsLiabilityExtendMaturity(t *testing.T) {
	oldMaturity := day(10)
	newMaturity := day(120)
	cashflows := []CashflowEvent{
		{InstrumentID: "CD1", Type: "certificate_of_deposit", Date: oldMaturity, Amount: -600_000},
	}
	instruments := instrumentIndex(Instrument{ID: "CD1", Type: "certificate_of_deposit"})
	impacts := []InstrumentImpact{
		{InstrumentID: "CD1", Action: ActionExtendMaturity, Date: day(2), Amount: 400_000, NewMaturity: &newMaturity},
	}

	amended, skipped := ApplyInstrumentImpacts(cashflows, instruments, impacts, asOf)

	require.Empty(t, skipped)
	require.Len(t, amended, 3)
	// Offset cancels the original outflow at the old date.
	assert.Equal(t, +600_000.0, amended[1].Amount)
	assert.Equal(t, oldMaturity, amended[1].Date)
	// New leg carries max(impact amount, |original|).
	assert.Equal(t, -600_000.0, amended[2].Amount)
	assert.Equal(t, newMaturity, amended[2].Date)
}

func TestApplyImpactsAssetPrepay(t *testing.T) {
	maturity := day(60)
	cashflows := []CashflowEvent{
		{InstrumentID: "L1", Type: "loan", Date: maturity, Amount: 1_200_000},
	}
	instruments := instrumentIndex(Instrument{ID: "L1", Type: "loan"})
	impacts := []InstrumentImpact{
		{InstrumentID: "L1", Action: ActionPrepay, Date: day(7), Amount: 1_200_000},
	}

	amended, _ := ApplyInstrumentImpacts(cashflows, instruments, impacts, asOf)

	require.Len(t, amended, 3)
	assert.Equal(t, +1_200_000.0, amended[1].Amount)
	assert.Equal(t, day(7), amended[1].Date)
	assert.Equal(t, -1_200_000.0, amended[2].Amount)
	assert.Equal(t, maturity, amended[2].Date)
}

func TestApplyImpactsAssetExtendMaturity(t *testing.T) {
	oldMaturity := day(30)
	newMaturity := day(150)
	cashflows := []CashflowEvent{
		{InstrumentID: "B1", Type: "bond", Date: oldMaturity, Amount: 900_000},
	}
	instruments := instrumentIndex(Instrument{ID: "B1", Type: "bond"})
	impacts := []InstrumentImpact{
		{InstrumentID: "B1", Action: ActionExtendMaturity, Date: day(1), Amount: 900_000, NewMaturity: &newMaturity},
	}

	amended, _ := ApplyInstrumentImpacts(cashflows, instruments, impacts, asOf)

	require.Len(t, amended, 3)
	assert.Equal(t, -900_000.0, amended[1].Amount, "original inflow cancelled")
	assert.Equal(t, oldMaturity, amended[1].Date)
	assert.Equal(t, +900_000.0, amended[2].Amount)
	assert.Equal(t, newMaturity, amended[2].Date)
}

func TestApplyImpactsMarginCallNoOffset(t *testing.T) {
	cashflows := []CashflowEvent{
		{InstrumentID: "S1", Type: "interest_rate_swap", Date: day(90), Amount: -50_000},
	}
	instruments := instrumentIndex(Instrument{ID: "S1", Type: "interest_rate_swap"})
	impacts := []InstrumentImpact{
		{InstrumentID: "S1", Action: ActionMarginCall, Date: day(3), Amount: 75_000},
	}

	amended, _ := ApplyInstrumentImpacts(cashflows, instruments, impacts, asOf)

	require.Len(t, amended, 2)
	assert.Equal(t, -75_000.0, amended[1].Amount)
	assert.Equal(t, day(3), amended[1].Date)
}

func TestApplyImpactsUnknownTypeConservativeFallback(t *testing.T) {
	instruments := instrumentIndex(Instrument{ID: "X1", Type: "committed_credit_line"})
	impacts := []InstrumentImpact{
		{InstrumentID: "X1", Action: ActionTerminate, Date: day(4), Amount: 250_000},
	}

	amended, skipped := ApplyInstrumentImpacts(nil, instruments, impacts, asOf)

	require.Empty(t, skipped)
	require.Len(t, amended, 1)
	assert.Equal(t, -250_000.0, amended[0].Amount)
}

func TestApplyImpactsEarliestFutureLeg(t *testing.T) {
	// Multiple future legs: the earliest one is offset, without further
	// disambiguation.
	cashflows := []CashflowEvent{
		{InstrumentID: "CP1", Type: "commercial_paper", Date: day(45), Amount: -300_000},
		{InstrumentID: "CP1", Type: "commercial_paper", Date: day(12), Amount: -300_000},
		{InstrumentID: "CP1", Type: "commercial_paper", Date: day(-3), Amount: -300_000}, // past, ignored
	}
	instruments := instrumentIndex(Instrument{ID: "CP1", Type: "commercial_paper"})
	impacts := []InstrumentImpact{
		{InstrumentID: "CP1", Action: ActionPrepay, Date: day(2), Amount: 300_000},
	}

	amended, _ := ApplyInstrumentImpacts(cashflows, instruments, impacts, asOf)

	require.Len(t, amended, 5)
	assert.Equal(t, day(12), amended[4].Date, "offset lands on the earliest future leg")
}

func TestApplyImpactsSkipsMalformed(t *testing.T) {
	instruments := instrumentIndex(Instrument{ID: "CP1", Type: "commercial_paper"})
	noDate := InstrumentImpact{InstrumentID: "CP1", Action: ActionTerminate, Amount: 100}
	impacts := []InstrumentImpact{
		{InstrumentID: "GHOST", Action: ActionTerminate, Date: day(1), Amount: 100},
		noDate,
		{InstrumentID: "CP1", Action: ActionTerminate, Date: day(1), Amount: 0},
		{InstrumentID: "CP1", Action: ActionTerminate, Date: day(1), Amount: -5},
		{InstrumentID: "CP1", Action: ActionExtendMaturity, Date: day(1), Amount: 100},
	}

	amended, skipped := ApplyInstrumentImpacts(nil, instruments, impacts, asOf)

	assert.Empty(t, amended)
	require.Len(t, skipped, 5)
	assert.Equal(t, "unknown instrument", skipped[0].Reason)
	assert.Equal(t, "missing impact date", skipped[1].Reason)
	assert.Equal(t, "non-positive amount", skipped[2].Reason)
	assert.Equal(t, "non-positive amount", skipped[3].Reason)
	assert.Equal(t, "extend_maturity without new_maturity", skipped[4].Reason)
}

func TestApplyImpactsDoesNotMutateInput(t *testing.T) {
	cashflows := []CashflowEvent{
		{InstrumentID: "CP1", Type: "commercial_paper", Date: day(20), Amount: -100},
	}
	snapshot := make([]CashflowEvent, len(cashflows))
	copy(snapshot, cashflows)

	instruments := instrumentIndex(Instrument{ID: "CP1", Type: "commercial_paper"})
	impacts := []InstrumentImpact{
		{InstrumentID: "CP1", Action: ActionNotRollover, Date: day(5), Amount: 100},
	}

	_, _ = ApplyInstrumentImpacts(cashflows, instruments, impacts, asOf)

	assert.Equal(t, snapshot, cashflows)
}
