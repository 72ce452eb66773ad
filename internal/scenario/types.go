// Package scenario orchestrates full evaluation runs: baseline KPIs, then per
// proposed scenario the behavior mapping, impact application, behavioral
// overlay, KPI recomputation, gap analysis, effects summary and narrative
// collection, assembled into a persistable run artifact.
package scenario

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"liqrisk/internal/engine"
	"liqrisk/internal/narrative"
	"liqrisk/internal/portfolio"
)

// FlexFloat decodes JSON numbers and numeric strings interchangeably. Proposer
// payloads come from an external service that occasionally quotes numerics.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		str = strings.TrimSpace(str)
		if str == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return fmt.Errorf("parse numeric string %q: %w", str, err)
		}
		*f = FlexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = FlexFloat(v)
	return nil
}

// MacroShockDoc is the macro block of a proposed scenario. Pointer fields
// distinguish absent values (neutral anchors apply) from explicit zeros.
type MacroShockDoc struct {
	FedFundsRate     *FlexFloat           `json:"fed_funds_rate,omitempty"`
	US10YYield       *FlexFloat           `json:"us10y_yield,omitempty"`
	VIX              *FlexFloat           `json:"vix,omitempty"`
	CreditSpreadsBAA *FlexFloat           `json:"credit_spreads_baa,omitempty"`
	CreditSpreadsHY  *FlexFloat           `json:"credit_spreads_hy,omitempty"`
	FX               map[string]FlexFloat `json:"fx,omitempty"`
}

// Engine converts the document form into the engine's macro input.
func (m MacroShockDoc) Engine() engine.MacroShocks {
	shocks := engine.MacroShocks{
		FedFundsRate:     deref(m.FedFundsRate),
		US10YYield:       deref(m.US10YYield),
		VIX:              deref(m.VIX),
		CreditSpreadsBAA: deref(m.CreditSpreadsBAA),
		CreditSpreadsHY:  deref(m.CreditSpreadsHY),
	}
	if len(m.FX) > 0 {
		shocks.FX = make(map[string]float64, len(m.FX))
		for k, v := range m.FX {
			shocks.FX[k] = float64(v)
		}
	}
	return shocks
}

// Values flattens the present macro fields for narrative grounding.
func (m MacroShockDoc) Values() map[string]float64 {
	out := make(map[string]float64)
	put := func(k string, v *FlexFloat) {
		if v != nil {
			out[k] = float64(*v)
		}
	}
	put("fed_funds_rate", m.FedFundsRate)
	put("us10y_yield", m.US10YYield)
	put("vix", m.VIX)
	put("credit_spreads_baa", m.CreditSpreadsBAA)
	put("credit_spreads_hy", m.CreditSpreadsHY)
	for k, v := range m.FX {
		out["fx_"+k] = float64(v)
	}
	return out
}

func deref(v *FlexFloat) *float64 {
	if v == nil {
		return nil
	}
	f := float64(*v)
	return &f
}

// ImpactDoc is one proposed instrument action. The proposer historically used
// "id" for the instrument reference; both keys are accepted.
type ImpactDoc struct {
	InstrumentID string    `json:"instrument_id"`
	Action       string    `json:"action"`
	Date         string    `json:"date"`
	Amount       FlexFloat `json:"amount"`
	NewMaturity  string    `json:"new_maturity,omitempty"`
}

func (d *ImpactDoc) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID           string    `json:"id"`
		InstrumentID string    `json:"instrument_id"`
		Action       string    `json:"action"`
		Date         string    `json:"date"`
		Amount       FlexFloat `json:"amount"`
		NewMaturity  string    `json:"new_maturity"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	d.InstrumentID = raw.InstrumentID
	if d.InstrumentID == "" {
		d.InstrumentID = raw.ID
	}
	d.Action = raw.Action
	d.Date = raw.Date
	d.Amount = raw.Amount
	d.NewMaturity = raw.NewMaturity
	return nil
}

// Engine converts the document form into the engine's impact record.
// Unparsable dates map to the zero time so the applier records the skip.
func (d ImpactDoc) Engine() engine.InstrumentImpact {
	imp := engine.InstrumentImpact{
		InstrumentID: d.InstrumentID,
		Action:       engine.ImpactAction(d.Action),
		Amount:       float64(d.Amount),
	}
	if t, err := portfolio.ParseDate(d.Date); err == nil {
		imp.Date = t
	}
	if t, err := portfolio.ParseDate(d.NewMaturity); err == nil {
		imp.NewMaturity = &t
	}
	return imp
}

// Scenario is one externally proposed stress scenario.
type Scenario struct {
	Severity    string          `json:"severity"`
	Name        string          `json:"scenario_name"`
	MacroShocks MacroShockDoc   `json:"macro_shocks"`
	Impacts     []ImpactDoc     `json:"instrument_impacts"`
	Rationale   json.RawMessage `json:"rationale,omitempty"`
}

// Document is a full proposer payload: an optional observed macro snapshot
// plus the scenario list.
type Document struct {
	Macro     MacroShockDoc `json:"macro_data"`
	Scenarios []Scenario    `json:"scenarios"`
}

// DecodeDocument parses a proposer payload. Both {"scenarios":[...]} and a
// bare single-scenario object are accepted.
func DecodeDocument(data []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return Document{}, fmt.Errorf("parse scenario document: %w", err)
	}
	if len(doc.Scenarios) == 0 {
		var single Scenario
		if err := json.Unmarshal(data, &single); err == nil && !single.isEmpty() {
			doc.Scenarios = []Scenario{single}
		}
	}
	if len(doc.Scenarios) == 0 {
		return Document{}, fmt.Errorf("scenario document contains no scenarios")
	}
	return doc, nil
}

func (s Scenario) isEmpty() bool {
	return s.Severity == "" && s.Name == "" && len(s.Impacts) == 0 &&
		len(s.MacroShocks.Values()) == 0
}

// EffectsSummary is the per-scenario "what it will do" block: magnitude
// estimates from size proxies plus KPI deltas versus baseline.
type EffectsSummary struct {
	DepositOutflow30dUSD     float64 `json:"30d_deposit_outflow_usd"`
	WholesaleNotRoll090dUSD  float64 `json:"0_90d_wholesale_notroll_usd"`
	ExpectedMarginCallsUSD   float64 `json:"expected_margin_calls_usd"`
	Worst30dOutflowUSD       float64 `json:"worst_30d_outflow_usd"`
	PeakCumulativeOutflowUSD float64 `json:"peak_cumulative_outflow_usd"`
	DeltaLCRPercentagePoints float64 `json:"delta_lcr_percentage_points"`
	DeltaSurvivalDays        int     `json:"delta_survival_days"`
	PlainLanguage            string  `json:"plain_language"`
}

// Result is one evaluated scenario inside the artifact.
type Result struct {
	Severity       string                    `json:"severity"`
	Name           string                    `json:"scenario_name"`
	MacroShocks    MacroShockDoc             `json:"macro_shocks"`
	BehaviorParams engine.BehaviorParameters `json:"behavior_params"`
	KPIs           engine.KpiSet             `json:"kpis"`
	GapToTargets   engine.GapToTargets       `json:"gap_to_targets"`
	Effects        EffectsSummary            `json:"what_it_will_do"`
	Note           narrative.Note            `json:"ai_note"`
	Rationale      json.RawMessage           `json:"rationale"`
	SkippedImpacts []engine.SkippedImpact    `json:"skipped_impacts,omitempty"`
}

// Artifact is the persisted output of one run, stamped for auditability.
type Artifact struct {
	RunID            string              `json:"run_id"`
	AsOf             string              `json:"as_of"`
	MacroEnvironment string              `json:"macro_environment"`
	BaselineKPIs     engine.KpiSet       `json:"baseline_kpis"`
	BaselineGaps     engine.GapToTargets `json:"baseline_gaps_to_targets"`
	Scenarios        []Result            `json:"scenarios"`
}
