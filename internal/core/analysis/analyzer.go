package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.anthropic.com"

const systemPrompt = `You are a professional meeting minute-taker.

Your task:
1. Summarize the meeting precisely (2-3 paragraphs)
2. Extract action items: who must do what by when
3. Identify decisions that were made
4. Recognize open questions that still need resolution
5. Extract 3-5 key topics

Important:
- Keep names exactly as they appear in the transcript
- If no deadline is mentioned for an action item, use "not defined"
- Factual, precise style, no filler words

Respond with JSON only, using these fields:
{
  "summary": "...",
  "action_items": [{"description": "...", "assignee": "...", "deadline": "...", "context": "original quote", "priority": "high" | "medium" | "low"}],
  "decisions": [{"description": "...", "decided_by": ["..."], "context": "original quote"}],
  "open_questions": [{"question": "...", "raised_by": "...", "assigned_to": null}],
  "key_topics": ["..."]
}`

// Config holds the analyzer configuration.
type Config struct {
	Model     string
	MaxTokens int
	APIKey    string
	BaseURL   string // defaults to the Anthropic API
}

// Context carries meeting metadata passed to the model alongside the transcript.
type Context struct {
	Title     string
	Date      string
	Attendees []string
}

// Analyzer extracts structured meeting facts from a transcript using the
// Anthropic messages API.
type Analyzer struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// NewAnalyzer creates an analyzer with the given configuration.
func NewAnalyzer(cfg Config, logger zerolog.Logger) *Analyzer {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Analyzer{
		cfg:  cfg,
		http: &http.Client{Timeout: 2 * time.Minute},
		log:  logger.With().Str("component", "analyzer").Logger(),
	}
}

type messagesRequest struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system"`
	Messages  []message `json:"messages"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Analyze sends the transcript to the model and parses the structured result.
func (a *Analyzer) Analyze(ctx context.Context, transcript string, meta Context) (Result, error) {
	var contextStr strings.Builder
	if meta.Title != "" {
		fmt.Fprintf(&contextStr, "Meeting title: %s\n", meta.Title)
	}
	if len(meta.Attendees) > 0 {
		fmt.Fprintf(&contextStr, "Attendees: %s\n", strings.Join(meta.Attendees, ", "))
	}
	if meta.Date != "" {
		fmt.Fprintf(&contextStr, "Date: %s\n", meta.Date)
	}

	userPrompt := fmt.Sprintf("%s\nTranscript:\n%s\n\nAnalyze this meeting and return the result as JSON.", contextStr.String(), transcript)

	body, err := json.Marshal(messagesRequest{
		Model:     a.cfg.Model,
		MaxTokens: a.cfg.MaxTokens,
		System:    systemPrompt,
		Messages:  []message{{Role: "user", Content: userPrompt}},
	})
	if err != nil {
		return Result{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/v1/messages", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", a.cfg.APIKey)
	req.Header.Set("anthropic-version", "2023-06-01")

	resp, err := a.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("call analysis API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{}, fmt.Errorf("read response: %w", err)
	}

	var mr messagesResponse
	if err := json.Unmarshal(raw, &mr); err != nil {
		return Result{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if mr.Error != nil {
			msg = mr.Error.Message
		}
		return Result{}, fmt.Errorf("analysis API: %s", msg)
	}
	if len(mr.Content) == 0 {
		return Result{}, fmt.Errorf("analysis API returned empty content")
	}

	payload, err := ExtractJSON(mr.Content[0].Text)
	if err != nil {
		return Result{}, err
	}

	var result Result
	if err := json.Unmarshal(payload, &result); err != nil {
		return Result{}, fmt.Errorf("parse analysis result: %w", err)
	}

	result.Model = a.cfg.Model
	result.TokensUsed = mr.Usage.InputTokens + mr.Usage.OutputTokens

	a.log.Info().
		Int("action_items", len(result.ActionItems)).
		Int("decisions", len(result.Decisions)).
		Int("open_questions", len(result.OpenQuestions)).
		Int("tokens", result.TokensUsed).
		Msg("analysis complete")

	return result, nil
}

// ExtractJSON returns the JSON payload of a model response, tolerating a
// fenced ```json code block around it.
func ExtractJSON(text string) ([]byte, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		return []byte(trimmed), nil
	}

	start := strings.Index(trimmed, "```json")
	if start == -1 {
		return nil, fmt.Errorf("model response contains no JSON")
	}
	rest := trimmed[start+len("```json"):]
	end := strings.Index(rest, "```")
	if end == -1 {
		return nil, fmt.Errorf("model response has unterminated JSON block")
	}

	return []byte(strings.TrimSpace(rest[:end])), nil
}

// EstimateCost returns a rough analysis cost in USD for the given input and
// output sizes in characters (1 char is roughly 0.25 tokens).
func (a *Analyzer) EstimateCost(inputChars, outputChars int) float64 {
	inputTokens := float64(inputChars) * 0.25
	outputTokens := float64(outputChars) * 0.25

	return inputTokens/1_000_000*3 + outputTokens/1_000_000*15
}
