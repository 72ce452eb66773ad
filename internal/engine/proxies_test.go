package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSizeProxies(t *testing.T) {
	p := Portfolio{Instruments: []Instrument{
		{ID: "D1", Type: "retail_deposits", Notional: 1_000},
		{ID: "D2", Type: "certificate_of_deposit", Notional: 500},
		{ID: "W1", Type: "repo", Notional: 2_000},
		{ID: "W2", Type: "fed_funds", Notional: 300},
		{ID: "I1", Type: "bond", Notional: 4_000},
		{ID: "I2", Type: "interest_rate_swap", Notional: 6_000},
		{ID: "F1", Type: "cross_currency_swap", Notional: 700},
		{ID: "X1", Type: "loan", Notional: 9_999}, // not in any proxy bucket
	}}

	sp := ComputeSizeProxies(p)

	assert.Equal(t, 1_500.0, sp.DepositBase)
	assert.Equal(t, 2_300.0, sp.WholesaleBase)
	assert.Equal(t, 10_000.0, sp.IRNotionals)
	assert.Equal(t, 700.0, sp.FXNotionals)
}

func TestComputeSizeProxiesEmpty(t *testing.T) {
	assert.Equal(t, SizeProxies{}, ComputeSizeProxies(Portfolio{}))
}
