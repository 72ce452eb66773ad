package engine

import (
	"time"
)

// HQLALevel identifies the Basel eligibility tier declared on an instrument.
type HQLALevel string

const (
	Level1  HQLALevel = "Level 1"
	Level2A HQLALevel = "Level 2A"
	Level2B HQLALevel = "Level 2B"
	LevelNA HQLALevel = ""
)

// Category is the coarse product taxonomy driving impact dispatch and
// behavioral classification.
type Category int

const (
	CategoryOther Category = iota
	CategoryAsset
	CategoryLiability
	CategoryDerivative
)

// String returns the string representation of the category
func (c Category) String() string {
	switch c {
	case CategoryAsset:
		return "asset"
	case CategoryLiability:
		return "liability"
	case CategoryDerivative:
		return "derivative"
	default:
		return "other"
	}
}

// Instrument type sets. Membership drives HQLA eligibility, size proxies,
// behavioral overlays and impact dispatch.
var (
	assetTypes = map[string]bool{
		"bond":                     true,
		"mortgage_backed_security": true,
		"loan":                     true,
	}
	liabilityTypes = map[string]bool{
		"certificate_of_deposit": true,
		"commercial_paper":       true,
		"repo":                   true,
		"interbank_borrowing":    true,
		"fed_funds":              true,
		"fed_discount_window":    true,
		"corporate_deposits":     true,
		"retail_deposits":        true,
		"sme_deposits":           true,
	}
	derivativeTypes = map[string]bool{
		"interest_rate_swap":  true,
		"futures":             true,
		"fx_forward":          true,
		"cross_currency_swap": true,
	}

	depositTypes = map[string]bool{
		"certificate_of_deposit": true,
		"retail_deposits":        true,
		"sme_deposits":           true,
		"corporate_deposits":     true,
	}
	wholesaleTypes = map[string]bool{
		"repo":                true,
		"commercial_paper":    true,
		"interbank_borrowing": true,
		"fed_funds":           true,
		"fed_discount_window": true,
	}
	irLinkedTypes = map[string]bool{
		"interest_rate_swap":       true,
		"bond":                     true,
		"futures":                  true,
		"mortgage_backed_security": true,
	}
	fxLinkedTypes = map[string]bool{
		"fx_forward":          true,
		"cross_currency_swap": true,
	}
)

// Instrument is a read-only position snapshot. Notional is in USD.
type Instrument struct {
	ID                  string    `json:"id"`
	Type                string    `json:"type"`
	HQLALevel           HQLALevel `json:"hql_level,omitempty"`
	Notional            float64   `json:"notional"`
	StableFundingFactor float64   `json:"stable_funding_factor"`
	Currency            string    `json:"currency,omitempty"`
	Maturity            string    `json:"maturity,omitempty"`
}

// Category classifies the instrument into the impact-dispatch taxonomy.
func (in Instrument) Category() Category {
	switch {
	case assetTypes[in.Type]:
		return CategoryAsset
	case liabilityTypes[in.Type]:
		return CategoryLiability
	case derivativeTypes[in.Type]:
		return CategoryDerivative
	default:
		return CategoryOther
	}
}

// CashflowEvent is a single dated contractual flow. Amounts are signed:
// positive = inflow, negative = outflow. Events are immutable; impact
// application appends amendments, it never rewrites existing events.
type CashflowEvent struct {
	InstrumentID string    `json:"instrument_id"`
	Type         string    `json:"type"`
	Currency     string    `json:"currency"`
	Date         time.Time `json:"date"`
	Amount       float64   `json:"amount"`
}

// Portfolio is the snapshot the engine evaluates. Reserve balances count
// fully as Level 1 HQLA.
type Portfolio struct {
	Reserve     float64         `json:"reserve"`
	Instruments []Instrument    `json:"instruments"`
	Cashflows   []CashflowEvent `json:"cashflows"`
}

// Flow holds one day's aggregated inflow and outflow, both non-negative.
type Flow struct {
	Inflow  float64 `json:"in"`
	Outflow float64 `json:"out"`
}

// DailySeries maps a UTC calendar day to its aggregated flows. Keys are
// produced by Day(); dates beyond the configured horizon are never populated.
type DailySeries map[time.Time]Flow

// Day normalizes t to its UTC calendar day, the canonical DailySeries key.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// AddInflow accumulates a non-negative inflow into the day bucket for t.
func (s DailySeries) AddInflow(t time.Time, amount float64) {
	d := Day(t)
	f := s[d]
	f.Inflow += amount
	s[d] = f
}

// AddOutflow accumulates a non-negative outflow magnitude into the day bucket for t.
func (s DailySeries) AddOutflow(t time.Time, amount float64) {
	d := Day(t)
	f := s[d]
	f.Outflow += amount
	s[d] = f
}

// BehaviorParameters are the scenario-derived scalars driving the behavioral
// overlays. Probabilities are fractions in [0,1].
type BehaviorParameters struct {
	DepositRunoff30dPct float64 `json:"deposit_runoff_30d_pct"`
	NotRollProb30d      float64 `json:"notroll_prob_30d"`
	NotRollProb90d      float64 `json:"notroll_prob_90d"`
	MarginFactor        float64 `json:"margin_factor"`
}

// IsValid checks the documented parameter bounds, including the 90d >= 30d
// non-roll monotonicity.
func (bp BehaviorParameters) IsValid() bool {
	return bp.DepositRunoff30dPct >= 0 && bp.DepositRunoff30dPct <= 1 &&
		bp.NotRollProb30d >= 0 && bp.NotRollProb30d <= 1 &&
		bp.NotRollProb90d >= bp.NotRollProb30d && bp.NotRollProb90d <= 1 &&
		bp.MarginFactor >= 0
}

// ImpactAction enumerates the externally proposable instrument actions.
type ImpactAction string

const (
	ActionPrepay         ImpactAction = "prepay"
	ActionExtendMaturity ImpactAction = "extend_maturity"
	ActionNotRollover    ImpactAction = "not_rollover"
	ActionTerminate      ImpactAction = "terminate"
	ActionMarginCall     ImpactAction = "margin_call"
	ActionExerciseOption ImpactAction = "exercise_option"
)

// InstrumentImpact is an externally proposed discrete action on one
// instrument's schedule. Incomplete records are skipped, not fatal.
type InstrumentImpact struct {
	InstrumentID string       `json:"instrument_id"`
	Action       ImpactAction `json:"action"`
	Date         time.Time    `json:"date"`
	Amount       float64      `json:"amount"`
	NewMaturity  *time.Time   `json:"new_maturity,omitempty"`
}

// SkippedImpact records why a proposed impact was dropped, for auditability.
type SkippedImpact struct {
	Impact InstrumentImpact `json:"impact"`
	Reason string           `json:"reason"`
}

// SizeProxies aggregates notional bases used for behavior scaling and
// executive summaries.
type SizeProxies struct {
	DepositBase   float64 `json:"deposit_base"`
	WholesaleBase float64 `json:"wholesale_base"`
	IRNotionals   float64 `json:"ir_notionals"`
	FXNotionals   float64 `json:"fx_notionals"`
}

// KpiSet is the derived KPI bundle, recomputed fresh per scenario run.
type KpiSet struct {
	HQLA                  float64 `json:"hqla"`
	Worst30dOutflow       float64 `json:"worst_30d_outflow"`
	LCR                   float64 `json:"lcr"`
	SurvivalDays          int     `json:"survival_days"`
	PeakCumulativeOutflow float64 `json:"peak_cumulative_outflow"`
}

// Targets are the management targets KPIs are tested against.
type Targets struct {
	LCRTargetRatio     float64 `json:"lcr_target_ratio"`
	SurvivalTargetDays int     `json:"survival_target_days"`
}

// BindingMetric names the constraint currently missing its target.
type BindingMetric string

const (
	BindingLCR      BindingMetric = "lcr"
	BindingSurvival BindingMetric = "survival"
	BindingNone     BindingMetric = "none"
)

// GapToTargets converts KPIs into required-HQLA gaps and the binding constraint.
type GapToTargets struct {
	Targets             Targets       `json:"targets"`
	AddlHQLAForLCR      float64       `json:"addl_hqla_needed_for_lcr_target_usd"`
	AddlHQLAForSurvival float64       `json:"addl_hqla_needed_for_survival_target_usd"`
	BindingMetric       BindingMetric `json:"binding_metric"`
	BindingGapUSD       float64       `json:"binding_gap_usd"`
}

// Engine defaults.
const (
	// DefaultHorizonDays is the rolling horizon for daily aggregation and KPIs.
	DefaultHorizonDays = 180

	// DefaultLCRTarget is the management LCR buffer (130%).
	DefaultLCRTarget = 1.30

	// DefaultSurvivalTargetDays is the internal survival horizon target.
	DefaultSurvivalTargetDays = 180

	// DefaultStableFundingFactor applies when an instrument omits the field.
	DefaultStableFundingFactor = 0.6

	// Basel-style haircut multipliers by HQLA level.
	HaircutLevel1  = 1.00
	HaircutLevel2A = 0.85
	HaircutLevel2B = 0.50

	// Basel-style composition caps.
	CapLevel2BShare = 0.15
	CapLevel2Share  = 0.40

	// InflowCapRatio caps recognizable inflows at 75% of window outflows in
	// the LCR denominator.
	InflowCapRatio = 0.75

	// Fixed behavioral overlay windows, independent of the configured horizon.
	depositRunoffDays = 30
	wholesaleNearDays = 30
	wholesaleFarDays  = 90
	marginCallDays    = 7

	// marginNotionalRate scales IR+FX notionals into expected margin calls.
	marginNotionalRate = 0.001

	// minWorstOutflow floors the LCR denominator to avoid division by zero.
	minWorstOutflow = 1.0

	// capEpsilon guards the proportional Level 2 rescale against a zero divisor.
	capEpsilon = 1e-12
)
