package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	apperrors "liqrisk/internal/errors"
	"liqrisk/internal/scenario"
)

const (
	baselineSheet  = "Baseline"
	scenariosSheet = "Scenarios"
)

// WriteWorkbook renders the artifact into an xlsx workbook with a baseline
// sheet and a per-scenario comparison grid, and returns the written path.
func (e *Exporter) WriteWorkbook(artifact scenario.Artifact) (string, error) {
	if err := os.MkdirAll(e.outDir, 0o755); err != nil {
		return "", apperrors.NewStorageError("create output directory", err).WithContext("dir", e.outDir)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", baselineSheet); err != nil {
		return "", fmt.Errorf("rename baseline sheet: %w", err)
	}
	if err := writeBaselineSheet(f, artifact); err != nil {
		return "", err
	}

	if _, err := f.NewSheet(scenariosSheet); err != nil {
		return "", fmt.Errorf("create scenarios sheet: %w", err)
	}
	if err := writeScenariosSheet(f, artifact); err != nil {
		return "", err
	}

	path := filepath.Join(e.outDir, fmt.Sprintf("scenario_run_%s.xlsx", artifact.AsOf))
	if err := f.SaveAs(path); err != nil {
		return "", apperrors.NewStorageError("save workbook", err).WithContext("path", path)
	}

	e.logger.Info("wrote run workbook", "path", path)
	return path, nil
}

func writeBaselineSheet(f *excelize.File, artifact scenario.Artifact) error {
	rows := [][]any{
		{"As of", artifact.AsOf},
		{"Run ID", artifact.RunID},
		{"", ""},
		{"HQLA (USD)", artifact.BaselineKPIs.HQLA},
		{"Worst 30d outflow (USD)", artifact.BaselineKPIs.Worst30dOutflow},
		{"LCR", artifact.BaselineKPIs.LCR},
		{"Survival days", artifact.BaselineKPIs.SurvivalDays},
		{"Peak cumulative outflow (USD)", artifact.BaselineKPIs.PeakCumulativeOutflow},
		{"", ""},
		{"LCR target", artifact.BaselineGaps.Targets.LCRTargetRatio},
		{"Survival target (days)", artifact.BaselineGaps.Targets.SurvivalTargetDays},
		{"Addl HQLA for LCR (USD)", artifact.BaselineGaps.AddlHQLAForLCR},
		{"Addl HQLA for survival (USD)", artifact.BaselineGaps.AddlHQLAForSurvival},
		{"Binding metric", string(artifact.BaselineGaps.BindingMetric)},
		{"Binding gap (USD)", artifact.BaselineGaps.BindingGapUSD},
		{"", ""},
		{"Macro environment", artifact.MacroEnvironment},
	}

	for i, row := range rows {
		for j, v := range row {
			cell, err := excelize.CoordinatesToCellName(j+1, i+1)
			if err != nil {
				return fmt.Errorf("baseline cell %d,%d: %w", j+1, i+1, err)
			}
			if err := f.SetCellValue(baselineSheet, cell, v); err != nil {
				return fmt.Errorf("set baseline cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

var scenarioHeaders = []string{
	"Scenario", "Severity",
	"Deposit runoff 30d %", "Not-roll 30d %", "Not-roll 90d %", "Margin factor",
	"LCR", "Survival days", "Worst 30d outflow (USD)", "Peak cumulative outflow (USD)",
	"Delta LCR (pp)", "Delta survival (days)",
	"30d deposit outflow (USD)", "0-90d wholesale not-roll (USD)", "Expected margin calls (USD)",
	"Binding metric", "Binding gap (USD)",
	"Headline",
}

func writeScenariosSheet(f *excelize.File, artifact scenario.Artifact) error {
	setRow := func(rowIdx int, values []any) error {
		for j, v := range values {
			cell, err := excelize.CoordinatesToCellName(j+1, rowIdx)
			if err != nil {
				return fmt.Errorf("scenario cell %d,%d: %w", j+1, rowIdx, err)
			}
			if err := f.SetCellValue(scenariosSheet, cell, v); err != nil {
				return fmt.Errorf("set scenario cell %s: %w", cell, err)
			}
		}
		return nil
	}

	header := make([]any, len(scenarioHeaders))
	for i, h := range scenarioHeaders {
		header[i] = h
	}
	if err := setRow(1, header); err != nil {
		return err
	}

	for i, scn := range artifact.Scenarios {
		row := []any{
			scn.Name, scn.Severity,
			scn.BehaviorParams.DepositRunoff30dPct * 100,
			scn.BehaviorParams.NotRollProb30d * 100,
			scn.BehaviorParams.NotRollProb90d * 100,
			scn.BehaviorParams.MarginFactor,
			scn.KPIs.LCR, scn.KPIs.SurvivalDays,
			scn.KPIs.Worst30dOutflow, scn.KPIs.PeakCumulativeOutflow,
			scn.Effects.DeltaLCRPercentagePoints, scn.Effects.DeltaSurvivalDays,
			scn.Effects.DepositOutflow30dUSD, scn.Effects.WholesaleNotRoll090dUSD,
			scn.Effects.ExpectedMarginCallsUSD,
			string(scn.GapToTargets.BindingMetric), scn.GapToTargets.BindingGapUSD,
			scn.Note.Headline,
		}
		if err := setRow(i+2, row); err != nil {
			return err
		}
	}
	return nil
}
