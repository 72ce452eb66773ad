package scenario

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlexFloat(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"number", `42.5`, 42.5, false},
		{"integer", `190`, 190, false},
		{"numeric string", `"3.25"`, 3.25, false},
		{"padded string", `" 410 "`, 410, false},
		{"empty string", `""`, 0, false},
		{"null", `null`, 0, false},
		{"word", `"high"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var f FlexFloat
			err := json.Unmarshal([]byte(tt.input), &f)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, float64(f))
		})
	}
}

func TestMacroShockDocEngine(t *testing.T) {
	var doc MacroShockDoc
	require.NoError(t, json.Unmarshal([]byte(`{
		"vix": "32.5",
		"credit_spreads_baa": 250,
		"fx": {"usd_jpy": 155.0}
	}`), &doc))

	shocks := doc.Engine()

	require.NotNil(t, shocks.VIX)
	assert.Equal(t, 32.5, *shocks.VIX)
	require.NotNil(t, shocks.CreditSpreadsBAA)
	assert.Equal(t, 250.0, *shocks.CreditSpreadsBAA)
	assert.Nil(t, shocks.CreditSpreadsHY, "absent field stays nil")
	assert.Equal(t, 155.0, shocks.FX["usd_jpy"])

	values := doc.Values()
	assert.Equal(t, 32.5, values["vix"])
	assert.Equal(t, 155.0, values["fx_usd_jpy"])
	assert.NotContains(t, values, "us10y_yield")
}

func TestImpactDocAcceptsBothIDKeys(t *testing.T) {
	var a, b ImpactDoc
	require.NoError(t, json.Unmarshal([]byte(`{"id":"CP1","action":"not_rollover","date":"2025-07-10","amount":"500000"}`), &a))
	require.NoError(t, json.Unmarshal([]byte(`{"instrument_id":"CP1","action":"not_rollover","date":"2025-07-10","amount":500000}`), &b))

	assert.Equal(t, a, b)
	assert.Equal(t, "CP1", a.InstrumentID)
	assert.Equal(t, 500_000.0, float64(a.Amount))
}

func TestImpactDocEngine(t *testing.T) {
	doc := ImpactDoc{
		InstrumentID: "CD1",
		Action:       "extend_maturity",
		Date:         "2025-07-05",
		Amount:       100,
		NewMaturity:  "2025-12-01",
	}

	imp := doc.Engine()

	assert.Equal(t, time.Date(2025, 7, 5, 0, 0, 0, 0, time.UTC), imp.Date)
	require.NotNil(t, imp.NewMaturity)
	assert.Equal(t, time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC), *imp.NewMaturity)

	// Bad dates leave the zero values so the applier records the skip.
	imp = ImpactDoc{InstrumentID: "X", Action: "terminate", Date: "soon", Amount: 1}.Engine()
	assert.True(t, imp.Date.IsZero())
	assert.Nil(t, imp.NewMaturity)
}

func TestDecodeDocumentScenarioList(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{
		"macro_data": {"vix": 18.2, "fed_funds_rate": 5.25},
		"scenarios": [
			{"severity": "mild", "scenario_name": "Soft landing"},
			{"severity": "severe", "scenario_name": "Funding squeeze",
			 "instrument_impacts": [{"id": "CP1", "action": "not_rollover", "date": "2025-07-10", "amount": 1}]}
		]
	}`))

	require.NoError(t, err)
	require.Len(t, doc.Scenarios, 2)
	assert.Equal(t, "Soft landing", doc.Scenarios[0].Name)
	assert.Equal(t, "CP1", doc.Scenarios[1].Impacts[0].InstrumentID)
	assert.Equal(t, 18.2, doc.Macro.Values()["vix"])
}

func TestDecodeDocumentBareScenario(t *testing.T) {
	doc, err := DecodeDocument([]byte(`{"severity": "base", "scenario_name": "Single", "macro_shocks": {"vix": 30}}`))

	require.NoError(t, err)
	require.Len(t, doc.Scenarios, 1)
	assert.Equal(t, "Single", doc.Scenarios[0].Name)
}

func TestDecodeDocumentEmpty(t *testing.T) {
	_, err := DecodeDocument([]byte(`{}`))
	assert.Error(t, err)

	_, err = DecodeDocument([]byte(`not json`))
	assert.Error(t, err)
}
