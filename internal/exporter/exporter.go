// Package exporter persists scenario run artifacts: the canonical JSON file,
// an xlsx workbook for ALCO packs, and a plain-text console summary.
package exporter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	apperrors "liqrisk/internal/errors"
	"liqrisk/internal/scenario"
)

// Exporter writes run artifacts under a fixed output directory.
type Exporter struct {
	outDir string
	logger *slog.Logger
}

// New creates an exporter rooted at outDir.
func New(outDir string, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		outDir: outDir,
		logger: logger.With(slog.String("component", "exporter")),
	}
}

// WriteJSON persists the canonical artifact as pretty-printed JSON and
// returns the written path. Versions of this file attach to governance packs,
// so the format stays stable.
func (e *Exporter) WriteJSON(artifact scenario.Artifact) (string, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", apperrors.NewStorageError("create output directory", err).WithContext("dir", e.outDir)
	}

	data, err := json.MarshalIndent(artifact, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode artifact: %w", err)
	}

	path := filepath.Join(e.outDir, fmt.Sprintf("scenario_run_%s.json", artifact.AsOf))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.NewStorageError("write artifact", err).WithContext("path", path)
	}

	e.logger.Info("wrote run artifact", "path", path, "scenarios", len(artifact.Scenarios))
	return path, nil
}

// WriteTextSummary renders the console summary of a run.
func (e *Exporter) WriteTextSummary(w io.Writer, artifact scenario.Artifact) error {
	var err error
	p := func(format string, args ...any) {
		if err != nil {
			return
		}
		_, err = fmt.Fprintf(w, format+"\n", args...)
	}

	p("=== Behavioral Scenario Run (as-of %s) ===", artifact.AsOf)
	p("Run ID: %s", artifact.RunID)
	p("")
	p("Macro environment:")
	p("  %s", artifact.MacroEnvironment)
	p("")
	p("Baseline:")
	p("  HQLA: %s", usd(artifact.BaselineKPIs.HQLA))
	p("  LCR: %.2f (target %.2f)", artifact.BaselineKPIs.LCR, artifact.BaselineGaps.Targets.LCRTargetRatio)
	p("  Survival: %d days (target %d)", artifact.BaselineKPIs.SurvivalDays, artifact.BaselineGaps.Targets.SurvivalTargetDays)
	p("  Worst 30d outflow: %s", usd(artifact.BaselineKPIs.Worst30dOutflow))
	p("  Binding: %s (gap %s)", artifact.BaselineGaps.BindingMetric, usd(artifact.BaselineGaps.BindingGapUSD))

	for _, scn := range artifact.Scenarios {
		p("")
		p("Scenario: %s [%s]", scn.Name, scn.Severity)
		p("  %s", scn.Note.Headline)
		p("  %s", scn.Effects.PlainLanguage)
		p("  LCR: %.2f | Survival: %d days | Binding: %s (gap %s)",
			scn.KPIs.LCR, scn.KPIs.SurvivalDays, scn.GapToTargets.BindingMetric,
			usd(scn.GapToTargets.BindingGapUSD))
		if len(scn.SkippedImpacts) > 0 {
			p("  Skipped impacts: %d", len(scn.SkippedImpacts))
		}
	}
	return err
}

func usd(v float64) string {
	return fmt.Sprintf("$%.2f", v)
}
