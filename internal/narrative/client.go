package narrative

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"golang.org/x/time/rate"

	apperrors "liqrisk/internal/errors"
)

// Config holds narrative service settings. The client is constructed once at
// startup and passed by parameter; there is no package-level singleton.
type Config struct {
	Enabled bool
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration

	// RequestsPerMinute throttles outbound calls. Zero disables throttling.
	RequestsPerMinute int
}

// Client generation defaults.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second

	// Modest temperature keeps narratives stable across re-runs.
	temperature = 0.4
)

// NewGenerator builds the configured Generator. Disabled config yields the
// deterministic fallback; enabled config without an API key is a startup
// error, never a silent downgrade.
func NewGenerator(cfg Config, logger *slog.Logger) (Generator, error) {
	if !cfg.Enabled {
		return Disabled{}, nil
	}
	return NewClient(cfg, logger)
}

// Client talks to an OpenAI-style chat-completions endpoint.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// NewClient creates a narrative client. The API key is required.
func NewClient(cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("narrative enabled but no API key configured")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(float64(cfg.RequestsPerMinute)/60.0), 1)
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    limiter,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		logger:     logger.With(slog.String("component", "narrative_client")),
	}, nil
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// MacroView asks for a 4-6 sentence ALCO cover paragraph grounded in the
// macro JSON.
func (c *Client) MacroView(ctx context.Context, macro map[string]float64) (string, error) {
	macroJSON, err := json.Marshal(macro)
	if err != nil {
		return "", fmt.Errorf("encode macro data: %w", err)
	}

	prompt := fmt.Sprintf(`You are a senior bank treasury officer writing an ALCO cover paragraph.
Write 4-6 sentences (no bullets, no markdown) interpreting policy stance (Fed funds),
term structure (US 10y), volatility (VIX), and credit tone (IG/HY spreads) with liquidity/funding implications.
Include FX only if present.
Macro JSON:
%s`, macroJSON)

	out, err := c.complete(ctx, prompt)
	if err != nil {
		return "", apperrors.NewNarrativeError("macro view request failed", err).WithContext("model", c.model)
	}
	return collapse(stripFences(out)), nil
}

// ExplainScenario asks for a JSON-only headline/narrative/table_notes block
// grounded in the scenario facts and KPIs. A non-JSON reply degrades to the
// deterministic fallback note instead of failing the run.
func (c *Client) ExplainScenario(ctx context.Context, facts Facts) (Note, error) {
	factsJSON, err := json.Marshal(facts)
	if err != nil {
		return Note{}, fmt.Errorf("encode scenario facts: %w", err)
	}
	kpiJSON, err := json.Marshal(facts.KPIs)
	if err != nil {
		return Note{}, fmt.Errorf("encode scenario kpis: %w", err)
	}

	prompt := fmt.Sprintf(`Return ONLY JSON with fields: headline, narrative, table_notes.
- headline: at most 20 words, key liquidity takeaway.
- narrative: 1-2 short paragraphs linking macro shocks -> actions -> LCR/HQLA/survival.
- table_notes: 2-3 lines on reading the metrics (inflow cap, survival construct).
Scenario:
%s
KPIs:
%s`, factsJSON, kpiJSON)

	out, err := c.complete(ctx, prompt)
	if err != nil {
		return Note{}, apperrors.NewNarrativeError("scenario note request failed", err).
			WithContext("scenario", facts.ScenarioName)
	}

	var note Note
	if err := json.Unmarshal([]byte(stripFences(out)), &note); err != nil {
		c.logger.WarnContext(ctx, "narrative reply was not valid JSON, using fallback",
			"scenario", facts.ScenarioName, "error", err)
		return FallbackNote(facts), nil
	}
	note.Headline = collapse(note.Headline)
	note.Narrative = collapse(note.Narrative)
	note.TableNotes = collapse(note.TableNotes)
	return note, nil
}

func (c *Client) complete(ctx context.Context, prompt string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("narrative rate limit wait: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
	})
	if err != nil {
		return "", fmt.Errorf("encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("narrative request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read narrative response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("narrative service returned %d: %s", resp.StatusCode, truncate(string(data), 200))
	}

	var parsed chatResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", fmt.Errorf("decode narrative response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("narrative response had no choices")
	}

	c.logger.DebugContext(ctx, "narrative completion",
		"model", c.model,
		"duration", time.Since(start))

	return parsed.Choices[0].Message.Content, nil
}

var openFence = regexp.MustCompile("(?i)^```(?:json)?")

// stripFences removes optional markdown code fences some models still emit
// around JSON replies.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimSpace(openFence.ReplaceAllString(s, ""))
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// collapse turns multi-line model output into a single paste-ready paragraph.
func collapse(s string) string {
	return strings.TrimSpace(strings.Join(strings.Fields(s), " "))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
