package scenario

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/errgroup"

	"liqrisk/internal/engine"
	"liqrisk/internal/narrative"
	"liqrisk/internal/portfolio"
)

// Runner evaluates proposed scenarios against a portfolio snapshot and
// assembles the run artifact. Scenarios are independent and evaluated
// concurrently, each from the original contractual cashflow list.
type Runner struct {
	logger      *slog.Logger
	narrator    narrative.Generator
	horizonDays int
	targets     engine.Targets

	maxConcurrency int

	runsTotal   metric.Int64Counter
	runDuration metric.Float64Histogram
}

// NewRunner creates a scenario runner. A nil narrator disables generated text.
func NewRunner(logger *slog.Logger, narrator narrative.Generator, horizonDays int, targets engine.Targets) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if narrator == nil {
		narrator = narrative.Disabled{}
	}
	if horizonDays <= 0 {
		horizonDays = engine.DefaultHorizonDays
	}
	if targets == (engine.Targets{}) {
		targets = engine.DefaultTargets()
	}

	meter := otel.Meter("liqrisk/scenario")
	runsTotal, _ := meter.Int64Counter("scenario_runs_total",
		metric.WithDescription("Completed scenario runs"))
	runDuration, _ := meter.Float64Histogram("scenario_run_duration_seconds",
		metric.WithDescription("Wall time of full scenario runs"),
		metric.WithUnit("s"))

	return &Runner{
		logger:         logger.With(slog.String("component", "scenario_runner")),
		narrator:       narrator,
		horizonDays:    horizonDays,
		targets:        targets,
		maxConcurrency: 4,
		runsTotal:      runsTotal,
		runDuration:    runDuration,
	}
}

// Run computes the deterministic baseline, evaluates every scenario in the
// document against it, and returns the assembled artifact.
func (r *Runner) Run(ctx context.Context, asOf time.Time, p engine.Portfolio, doc Document) (Artifact, error) {
	start := time.Now()
	asOf = engine.Day(asOf)

	r.logger.InfoContext(ctx, "starting scenario run",
		"as_of", asOf.Format("2006-01-02"),
		"instruments", len(p.Instruments),
		"cashflows", len(p.Cashflows),
		"scenarios", len(doc.Scenarios))

	if len(doc.Scenarios) == 0 {
		return Artifact{}, fmt.Errorf("no scenarios to evaluate")
	}

	hqla := engine.ComputeHQLA(p)
	baseSeries := engine.RollDailyFlows(p.Cashflows, asOf, r.horizonDays)
	baseKPIs := engine.ComputeKPIs(baseSeries, asOf, hqla, r.horizonDays)
	baseGaps := engine.ComputeGapToTargets(baseKPIs, r.targets)

	proxies := engine.ComputeSizeProxies(p)
	instruments := portfolio.Index(p)

	macroView, err := r.narrator.MacroView(ctx, doc.Macro.Values())
	if err != nil {
		r.logger.WarnContext(ctx, "macro narrative unavailable", "error", err)
		macroView, _ = narrative.Disabled{}.MacroView(ctx, doc.Macro.Values())
	}

	artifact := Artifact{
		RunID:            uuid.NewString(),
		AsOf:             asOf.Format("2006-01-02"),
		MacroEnvironment: macroView,
		BaselineKPIs:     baseKPIs,
		BaselineGaps:     baseGaps,
		Scenarios:        make([]Result, len(doc.Scenarios)),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.maxConcurrency)
	for i, scn := range doc.Scenarios {
		g.Go(func() error {
			artifact.Scenarios[i] = r.evaluate(gctx, scn, p, instruments, proxies, hqla, baseKPIs, asOf)
			return gctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return Artifact{}, fmt.Errorf("scenario evaluation: %w", err)
	}

	elapsed := time.Since(start)
	r.runsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.Int("scenarios", len(doc.Scenarios))))
	r.runDuration.Record(ctx, elapsed.Seconds())

	r.logger.InfoContext(ctx, "scenario run complete",
		"run_id", artifact.RunID,
		"baseline_lcr", baseKPIs.LCR,
		"baseline_survival_days", baseKPIs.SurvivalDays,
		"duration", elapsed)

	return artifact, nil
}

// evaluate runs one scenario: behavior mapping, impact application, roll-up,
// behavioral overlay, KPIs, gaps, effects and narrative.
func (r *Runner) evaluate(
	ctx context.Context,
	scn Scenario,
	p engine.Portfolio,
	instruments map[string]engine.Instrument,
	proxies engine.SizeProxies,
	hqla float64,
	baseKPIs engine.KpiSet,
	asOf time.Time,
) Result {
	severity := scn.Severity
	if severity == "" {
		severity = "base"
	}

	behavior := engine.BehaviorParamsFromMacro(scn.MacroShocks.Engine(), severity)

	impacts := make([]engine.InstrumentImpact, 0, len(scn.Impacts))
	for _, doc := range scn.Impacts {
		impacts = append(impacts, doc.Engine())
	}

	amended, skipped := engine.ApplyInstrumentImpacts(p.Cashflows, instruments, impacts, asOf)
	for _, s := range skipped {
		r.logger.WarnContext(ctx, "skipped proposed impact",
			"scenario", scn.Name,
			"instrument_id", s.Impact.InstrumentID,
			"action", string(s.Impact.Action),
			"reason", s.Reason)
	}

	contractual := engine.RollDailyFlows(amended, asOf, r.horizonDays)
	behavioral := engine.EstimateBehavioralSeries(p, asOf, behavior, r.horizonDays)
	combined := engine.CombineSeries(contractual, behavioral)

	kpis := engine.ComputeKPIs(combined, asOf, hqla, r.horizonDays)
	gaps := engine.ComputeGapToTargets(kpis, r.targets)
	effects := BuildEffectsSummary(baseKPIs, kpis, behavior, proxies)

	facts := narrative.Facts{
		Severity:       severity,
		ScenarioName:   scn.Name,
		MacroShocks:    scn.MacroShocks.Values(),
		BehaviorParams: behavior,
		KPIs:           kpis,
		PlainSummary:   effects.PlainLanguage,
	}
	note, err := r.narrator.ExplainScenario(ctx, facts)
	if err != nil {
		r.logger.WarnContext(ctx, "scenario narrative unavailable",
			"scenario", scn.Name, "error", err)
		note = narrative.FallbackNote(facts)
	}

	rationale := scn.Rationale
	if len(rationale) == 0 {
		rationale = []byte("{}")
	}

	return Result{
		Severity:       severity,
		Name:           scn.Name,
		MacroShocks:    scn.MacroShocks,
		BehaviorParams: behavior,
		KPIs:           kpis,
		GapToTargets:   gaps,
		Effects:        effects,
		Note:           note,
		Rationale:      rationale,
		SkippedImpacts: skipped,
	}
}
