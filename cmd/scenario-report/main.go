// Command scenario-report evaluates a proposed scenario document against a
// portfolio snapshot and writes the run artifact as JSON and as a workbook.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"liqrisk/internal/config"
	apperrors "liqrisk/internal/errors"
	"liqrisk/internal/exporter"
	"liqrisk/internal/infrastructure"
	"liqrisk/internal/narrative"
	"liqrisk/internal/portfolio"
	"liqrisk/internal/scenario"
)

func main() {
	portfolioPath := flag.String("portfolio", "portfolio.json", "path to the portfolio snapshot")
	scenariosPath := flag.String("scenarios", "scenarios.json", "path to the proposed scenario document")
	outDir := flag.String("out", "", "output directory for run artifacts (defaults to configured paths.out_dir)")
	asOfFlag := flag.String("as-of", "", "valuation date, YYYY-MM-DD (defaults to today)")
	skipWorkbook := flag.Bool("no-workbook", false, "skip writing the xlsx workbook")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", apperrors.NewConfigError("load configuration", err))
		os.Exit(1)
	}

	logger := infrastructure.MustInitializeLogger(cfg.Logging)
	defer infrastructure.CloseLogFile()

	asOf := time.Now().UTC()
	if *asOfFlag != "" {
		asOf, err = portfolio.ParseDate(*asOfFlag)
		if err != nil {
			logger.Error("Invalid as-of date", "value", *asOfFlag, "error", err)
			os.Exit(1)
		}
	}

	if *outDir == "" {
		*outDir = cfg.Paths.OutDir
	}

	logger.Info("Loading portfolio", "path", *portfolioPath)
	loader := portfolio.NewLoader(logger)
	p, err := loader.LoadFile(*portfolioPath)
	if err != nil {
		logger.Error("Failed to load portfolio", "error", err)
		os.Exit(1)
	}
	logger.Info("Loaded portfolio",
		"instruments", len(p.Instruments),
		"cashflows", len(p.Cashflows),
		"reserve", p.Reserve)

	logger.Info("Loading scenario document", "path", *scenariosPath)
	raw, err := os.ReadFile(*scenariosPath)
	if err != nil {
		logger.Error("Failed to read scenario document", "error", err)
		os.Exit(1)
	}
	doc, err := scenario.DecodeDocument(raw)
	if err != nil {
		logger.Error("Failed to parse scenario document", "error", err)
		os.Exit(1)
	}
	logger.Info("Parsed scenario document", "scenarios", len(doc.Scenarios))

	narrator, err := narrative.NewGenerator(narrative.Config{
		Enabled:           cfg.Narrative.Enabled,
		BaseURL:           cfg.Narrative.BaseURL,
		APIKey:            cfg.Narrative.APIKey,
		Model:             cfg.Narrative.Model,
		Timeout:           cfg.Narrative.Timeout,
		RequestsPerMinute: cfg.Narrative.RequestsPerMinute,
	}, logger)
	if err != nil {
		logger.Error("Failed to initialize narrative generator", "error", err)
		os.Exit(1)
	}

	runner := scenario.NewRunner(logger, narrator, cfg.Engine.HorizonDays, cfg.Engine.Targets())

	ctx := context.Background()
	logger.Info("Evaluating scenarios", "as_of", asOf.Format("2006-01-02"))
	artifact, err := runner.Run(ctx, asOf, p, doc)
	if err != nil {
		logger.Error("Scenario run failed", "error", err)
		os.Exit(1)
	}

	exp := exporter.New(*outDir, logger)

	jsonPath, err := exp.WriteJSON(artifact)
	if err != nil {
		logger.Error("Failed to write run artifact", "error", err)
		os.Exit(1)
	}

	var workbookPath string
	if !*skipWorkbook {
		workbookPath, err = exp.WriteWorkbook(artifact)
		if err != nil {
			logger.Error("Failed to write workbook", "error", err)
			os.Exit(1)
		}
	}

	if err := exp.WriteTextSummary(os.Stdout, artifact); err != nil {
		logger.Error("Failed to write summary", "error", err)
		os.Exit(1)
	}

	logger.Info("Scenario run complete",
		"run_id", artifact.RunID,
		"scenarios", len(artifact.Scenarios),
		"artifact", jsonPath,
		"workbook", workbookPath)
}
