// Package analysis defines meeting analysis results and the LLM client that
// produces them from a transcript.
package analysis

import (
	"encoding/json"
	"fmt"
	"os"
)

// ActionItem is a task extracted from the meeting.
type ActionItem struct {
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	Deadline    string `json:"deadline"`
	Context     string `json:"context"`
	Priority    string `json:"priority"`
}

// Fields returns the action item as a field map for review ingestion.
func (a ActionItem) Fields() map[string]any {
	return map[string]any{
		"description": a.Description,
		"assignee":    a.Assignee,
		"deadline":    a.Deadline,
		"context":     a.Context,
		"priority":    a.Priority,
	}
}

// Decision is a resolution reached during the meeting.
type Decision struct {
	Description string   `json:"description"`
	DecidedBy   []string `json:"decided_by"`
	Context     string   `json:"context"`
}

// Fields returns the decision as a field map for review ingestion.
// decided_by is converted to []any so the map round-trips through JSON
// without changing shape.
func (d Decision) Fields() map[string]any {
	decidedBy := make([]any, len(d.DecidedBy))
	for i, name := range d.DecidedBy {
		decidedBy[i] = name
	}
	return map[string]any{
		"description": d.Description,
		"decided_by":  decidedBy,
		"context":     d.Context,
	}
}

// OpenQuestion is an unresolved question raised during the meeting.
type OpenQuestion struct {
	Question   string `json:"question"`
	RaisedBy   string `json:"raised_by"`
	AssignedTo string `json:"assigned_to,omitempty"`
}

// Fields returns the open question as a field map for review ingestion.
func (q OpenQuestion) Fields() map[string]any {
	return map[string]any{
		"question":    q.Question,
		"raised_by":   q.RaisedBy,
		"assigned_to": q.AssignedTo,
	}
}

// Result is the structured output of a meeting analysis.
type Result struct {
	Summary       string         `json:"summary"`
	ActionItems   []ActionItem   `json:"action_items"`
	Decisions     []Decision     `json:"decisions"`
	OpenQuestions []OpenQuestion `json:"open_questions"`
	KeyTopics     []string       `json:"key_topics"`

	// Metadata set by the analyzer, not by the model.
	Model      string `json:"model,omitempty"`
	TokensUsed int    `json:"tokens_used,omitempty"`
}

// Save writes the result as indented JSON to path.
func (r Result) Save(path string) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write analysis: %w", err)
	}
	return nil
}

// Load reads a previously saved result from path.
func Load(path string) (Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Result{}, fmt.Errorf("read analysis: %w", err)
	}

	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return Result{}, fmt.Errorf("parse analysis: %w", err)
	}
	return r, nil
}
