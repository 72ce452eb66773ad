// Package narrative produces executive-readable text around scenario results:
// a macro cover paragraph and per-scenario notes. Generation is delegated to
// an external chat-completions service when configured; the Disabled fallback
// keeps runs fully deterministic when it is not.
package narrative

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"liqrisk/internal/engine"
)

// Note is the per-scenario explanation block embedded in the run artifact.
type Note struct {
	Headline   string `json:"headline"`
	Narrative  string `json:"narrative"`
	TableNotes string `json:"table_notes"`
}

// Facts are the grounded inputs a scenario explanation is built from. The
// generator must not see anything beyond these, so notes stay tied to actual
// results.
type Facts struct {
	Severity       string                    `json:"severity"`
	ScenarioName   string                    `json:"scenario_name"`
	MacroShocks    map[string]float64        `json:"macro_shocks"`
	BehaviorParams engine.BehaviorParameters `json:"behavior_params"`
	KPIs           engine.KpiSet             `json:"kpis"`
	PlainSummary   string                    `json:"-"`
}

// Generator produces narrative text for a scenario run.
type Generator interface {
	// MacroView returns a short cover paragraph interpreting the macro state.
	MacroView(ctx context.Context, macro map[string]float64) (string, error)

	// ExplainScenario returns a headline/narrative/table-notes block for one
	// evaluated scenario.
	ExplainScenario(ctx context.Context, facts Facts) (Note, error)
}

// Fallback strings used whenever generated text is unavailable.
const (
	fallbackHeadline  = "Scenario: key liquidity impacts"
	fallbackNarrative = "Stress concentrates outflows, compressing LCR and survival. " +
		"Actions reflect funding frictions."
	fallbackTableNotes = "LCR uses worst 30d net outflow with 75% inflow cap. " +
		"Survival = earliest day cumulative net outflow exceeds HQLA."
)

// Disabled is the no-service generator. It never errors and derives all text
// from the supplied facts.
type Disabled struct{}

func (Disabled) MacroView(_ context.Context, macro map[string]float64) (string, error) {
	if len(macro) == 0 {
		return "Macro snapshot not supplied; behavior parameters use neutral anchors.", nil
	}
	keys := make([]string, 0, len(macro))
	for k := range macro {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %.2f", strings.ReplaceAll(k, "_", " "), macro[k]))
	}
	return "Macro snapshot: " + strings.Join(parts, ", ") + ".", nil
}

func (Disabled) ExplainScenario(_ context.Context, facts Facts) (Note, error) {
	note := FallbackNote(facts)
	return note, nil
}

// FallbackNote builds a deterministic note from scenario facts. Used by
// Disabled and whenever the remote generator fails.
func FallbackNote(facts Facts) Note {
	headline := fallbackHeadline
	if facts.ScenarioName != "" {
		headline = facts.ScenarioName + ": key liquidity impacts"
	}
	narrative := fallbackNarrative
	if facts.PlainSummary != "" {
		narrative = facts.PlainSummary
	}
	return Note{
		Headline:   headline,
		Narrative:  narrative,
		TableNotes: fallbackTableNotes,
	}
}
