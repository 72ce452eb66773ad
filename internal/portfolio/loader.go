// Package portfolio loads and normalizes portfolio snapshot files into the
// engine's record types. Parsing is deliberately forgiving: absent numeric
// fields default to zero or neutral values and individually malformed records
// are skipped with a warning rather than failing the load, so one bad entry
// cannot abort a scenario run.
package portfolio

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"

	"liqrisk/internal/engine"
	apperrors "liqrisk/internal/errors"
)

// dateLayouts are accepted cashflow/impact date formats, most specific first.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseDate parses an ISO-style date string into UTC. Returns an error for
// empty or unrecognized values so callers can decide between defaulting and
// skipping.
func ParseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// File mirrors the portfolio input document.
type File struct {
	IntradayLiquidity struct {
		Reserve float64 `json:"reserve"`
	} `json:"intraday_liquidity"`
	LiquidityProfile []rawInstrument `json:"liquidity_profile"`

	// Either key may carry the contractual schedule.
	Cashflows                 []rawCashflow `json:"cashflows"`
	LiquidityProfileCashflows []rawCashflow `json:"liquidity_profile_cashflows"`
}

type rawInstrument struct {
	ID                  string   `json:"id" validate:"required"`
	Type                string   `json:"type"`
	HQLALevel           string   `json:"hql_level"`
	Notional            float64  `json:"notional"`
	StableFundingFactor *float64 `json:"stable_funding_factor"`
	Currency            string   `json:"currency"`
	Maturity            string   `json:"maturity"`
}

type rawCashflow struct {
	InstrumentID string  `json:"instrument_id"`
	Type         string  `json:"type"`
	Currency     string  `json:"currency"`
	Date         string  `json:"date" validate:"required"`
	Amount       float64 `json:"amount"`
}

// Loader parses portfolio snapshot files.
type Loader struct {
	logger   *slog.Logger
	validate *validator.Validate
}

// NewLoader creates a portfolio loader.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		logger:   logger.With(slog.String("component", "portfolio_loader")),
		validate: validator.New(),
	}
}

// LoadFile reads and parses a portfolio snapshot from disk.
func (l *Loader) LoadFile(path string) (engine.Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return engine.Portfolio{}, apperrors.NewStorageError("read portfolio file", err).WithContext("path", path)
	}
	return l.Parse(data)
}

// Parse decodes a portfolio snapshot document and normalizes it into engine
// records, applying field defaults and dropping malformed entries.
func (l *Loader) Parse(data []byte) (engine.Portfolio, error) {
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return engine.Portfolio{}, apperrors.NewParsingError("parse portfolio document", err)
	}

	p := engine.Portfolio{Reserve: file.IntradayLiquidity.Reserve}

	for _, raw := range file.LiquidityProfile {
		if err := l.validate.Struct(raw); err != nil {
			l.logger.Warn("skipping instrument without id", "type", raw.Type, "error", err)
			continue
		}
		sff := engine.DefaultStableFundingFactor
		if raw.StableFundingFactor != nil {
			sff = clamp01(*raw.StableFundingFactor)
		}
		p.Instruments = append(p.Instruments, engine.Instrument{
			ID:                  raw.ID,
			Type:                raw.Type,
			HQLALevel:           engine.HQLALevel(raw.HQLALevel),
			Notional:            raw.Notional,
			StableFundingFactor: sff,
			Currency:            raw.Currency,
			Maturity:            raw.Maturity,
		})
	}

	// Some sources name the schedule "cashflows", others
	// "liquidity_profile_cashflows".
	rawFlows := file.Cashflows
	if len(rawFlows) == 0 {
		rawFlows = file.LiquidityProfileCashflows
	}
	for _, raw := range rawFlows {
		if err := l.validate.Struct(raw); err != nil {
			l.logger.Warn("skipping cashflow without date", "instrument_id", raw.InstrumentID, "error", err)
			continue
		}
		date, err := ParseDate(raw.Date)
		if err != nil {
			l.logger.Warn("skipping cashflow with bad date",
				"instrument_id", raw.InstrumentID, "date", raw.Date, "error", err)
			continue
		}
		p.Cashflows = append(p.Cashflows, engine.CashflowEvent{
			InstrumentID: raw.InstrumentID,
			Type:         raw.Type,
			Currency:     raw.Currency,
			Date:         date,
			Amount:       raw.Amount,
		})
	}

	l.logger.Debug("parsed portfolio",
		"reserve", p.Reserve,
		"instruments", len(p.Instruments),
		"cashflows", len(p.Cashflows))

	return p, nil
}

// Index builds the instrument lookup the impact applier dispatches on.
func Index(p engine.Portfolio) map[string]engine.Instrument {
	m := make(map[string]engine.Instrument, len(p.Instruments))
	for _, inst := range p.Instruments {
		m[inst.ID] = inst
	}
	return m
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
