package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeHQLA(t *testing.T) {
	tests := []struct {
		name      string
		portfolio Portfolio
		want      float64
	}{
		{
			name:      "empty portfolio",
			portfolio: Portfolio{},
			want:      0,
		},
		{
			name:      "reserve only counts as level 1",
			portfolio: Portfolio{Reserve: 250_000},
			want:      250_000,
		},
		{
			name: "level 1 bond with reserve, no caps bind",
			portfolio: Portfolio{
				Reserve: 1_000_000,
				Instruments: []Instrument{
					{ID: "B1", Type: "bond", HQLALevel: Level1, Notional: 500_000},
				},
			},
			want: 1_500_000,
		},
		{
			name: "level 2a haircut",
			portfolio: Portfolio{
				Reserve: 1_000_000,
				Instruments: []Instrument{
					{ID: "B1", Type: "bond", HQLALevel: Level2A, Notional: 100_000},
				},
			},
			want: 1_000_000 + 85_000,
		},
		{
			name: "liability never eligible regardless of tag",
			portfolio: Portfolio{
				Reserve: 500_000,
				Instruments: []Instrument{
					{ID: "CD1", Type: "certificate_of_deposit", HQLALevel: Level1, Notional: 400_000},
				},
			},
			want: 500_000,
		},
		{
			name: "zero and negative notionals skipped",
			portfolio: Portfolio{
				Reserve: 100_000,
				Instruments: []Instrument{
					{ID: "B1", Type: "bond", HQLALevel: Level1, Notional: 0},
					{ID: "B2", Type: "bond", HQLALevel: Level1, Notional: -50_000},
				},
			},
			want: 100_000,
		},
		{
			name: "level tag tolerant of case",
			portfolio: Portfolio{
				Instruments: []Instrument{
					{ID: "B1", Type: "bond", HQLALevel: "level 1", Notional: 75_000},
				},
			},
			want: 75_000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ComputeHQLA(tt.portfolio), 1e-9)
		})
	}
}

func TestComputeHQLALevel2BCap(t *testing.T) {
	// Post-haircut 2B (500k) dwarfs L1 (100k): the 15% cap binds.
	p := Portfolio{
		Reserve: 100_000,
		Instruments: []Instrument{
			{ID: "M1", Type: "mortgage_backed_security", HQLALevel: Level2B, Notional: 1_000_000},
		},
	}

	got := ComputeHQLA(p)

	// l2b ceiling = 0.15*100k/0.85 ~ 17,647; total ~ 117,647 with the 2B
	// share at exactly 15% of the returned stock.
	assert.InDelta(t, 117_647.06, got, 0.5)
	l2b := got - 100_000
	assert.InDelta(t, CapLevel2BShare, l2b/got, 1e-6)
}

func TestComputeHQLAAggregateLevel2Cap(t *testing.T) {
	p := Portfolio{
		Reserve: 600_000,
		Instruments: []Instrument{
			{ID: "B1", Type: "bond", HQLALevel: Level2A, Notional: 1_000_000},
		},
	}

	got := ComputeHQLA(p)

	// l2a post-haircut 850k > 40% of the stock: scaled down to exactly the
	// cap. Solving l2 = 0.4*(600k + l2) gives l2 = 400k, total 1m.
	assert.InDelta(t, 1_000_000, got, 1.0)
	assert.InDelta(t, CapLevel2Share, (got-600_000)/got, 1e-6)
}

func TestComputeHQLAInvariants(t *testing.T) {
	portfolios := []Portfolio{
		{},
		{Reserve: -5},
		{Reserve: 1, Instruments: []Instrument{
			{ID: "a", Type: "bond", HQLALevel: Level2B, Notional: 1e9},
			{ID: "b", Type: "bond", HQLALevel: Level2A, Notional: 5e8},
		}},
		{Instruments: []Instrument{
			{ID: "c", Type: "loan", HQLALevel: Level2A, Notional: 123_456.78},
			{ID: "d", Type: "mortgage_backed_security", HQLALevel: Level2B, Notional: 98_765.43},
			{ID: "e", Type: "bond", HQLALevel: Level1, Notional: 10_000},
		}},
	}

	for _, p := range portfolios {
		got := ComputeHQLA(p)
		if got < 0 {
			t.Fatalf("HQLA must be non-negative, got %f", got)
		}
		if got > 0 {
			// Reconstruct the level 2 share bound: with L1 known we can check
			// the aggregate cap on the returned total.
			l1 := math.Max(0, p.Reserve)
			for _, inst := range p.Instruments {
				if inst.Notional > 0 && inst.Category() != CategoryLiability && normalizeLevel(inst.HQLALevel) == Level1 {
					l1 += inst.Notional
				}
			}
			l2 := got - l1
			if l2 > CapLevel2Share*got+1e-6 {
				t.Fatalf("level 2 share %f exceeds 40%% of total %f", l2, got)
			}
		}
	}
}
