// Package protocol renders meeting protocols as Markdown.
package protocol

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/colonyops/protokoll/internal/core/analysis"
	"github.com/colonyops/protokoll/internal/core/meeting"
	"github.com/colonyops/protokoll/pkg/tmpl"
)

//go:embed protocol.md.tmpl
var defaultTemplate string

// Config holds the generator configuration.
type Config struct {
	TemplatePath string // optional override; empty uses the built-in template
}

// Generator renders protocol documents from meeting data.
type Generator struct {
	cfg Config
}

// NewGenerator creates a protocol generator.
func NewGenerator(cfg Config) *Generator {
	return &Generator{cfg: cfg}
}

// ActionRow is one action item line in the protocol.
type ActionRow struct {
	Description string
	Assignee    string
	Deadline    string
	Priority    string
}

// DecisionRow is one decision line in the protocol.
type DecisionRow struct {
	Description string
	DecidedBy   string
}

// QuestionRow is one open question line in the protocol.
type QuestionRow struct {
	Question   string
	RaisedBy   string
	AssignedTo string
}

// Data is the full input for one protocol rendering.
type Data struct {
	Title        string
	Date         string
	StartTime    string
	EndTime      string
	Location     string
	Participants []meeting.Participant
	Summary      string
	ActionItems  []ActionRow
	Decisions    []DecisionRow
	Questions    []QuestionRow
	Topics       []string
	ReviewedBy   string
	GeneratedAt  string
}

// DataFromAnalysis builds protocol data for the draft protocol, directly from
// an unreviewed analysis result.
func DataFromAnalysis(meta meeting.Meeting, result analysis.Result) Data {
	d := newData(meta)
	d.Summary = result.Summary
	d.Topics = result.KeyTopics
	d.ReviewedBy = "Pending review"

	for _, ai := range result.ActionItems {
		d.ActionItems = append(d.ActionItems, ActionRow{
			Description: ai.Description,
			Assignee:    ai.Assignee,
			Deadline:    ai.Deadline,
			Priority:    ai.Priority,
		})
	}
	for _, dec := range result.Decisions {
		d.Decisions = append(d.Decisions, DecisionRow{
			Description: dec.Description,
			DecidedBy:   strings.Join(dec.DecidedBy, ", "),
		})
	}
	for _, q := range result.OpenQuestions {
		d.Questions = append(d.Questions, QuestionRow{
			Question:   q.Question,
			RaisedBy:   q.RaisedBy,
			AssignedTo: q.AssignedTo,
		})
	}

	return d
}

// DataFromApproved builds protocol data for the final protocol from
// export-gate field maps, so reviewer edits are reflected and rejected items
// are absent.
func DataFromApproved(meta meeting.Meeting, summary string, actionItems, decisions, questions []map[string]any, reviewers []string) Data {
	d := newData(meta)
	d.Summary = summary
	d.Topics = meta.KeyTopics

	d.ReviewedBy = strings.Join(reviewers, ", ")
	if d.ReviewedBy == "" {
		d.ReviewedBy = "Automatic"
	}

	for _, ai := range actionItems {
		d.ActionItems = append(d.ActionItems, ActionRow{
			Description: str(ai, "description"),
			Assignee:    str(ai, "assignee"),
			Deadline:    str(ai, "deadline"),
			Priority:    str(ai, "priority"),
		})
	}
	for _, dec := range decisions {
		d.Decisions = append(d.Decisions, DecisionRow{
			Description: str(dec, "description"),
			DecidedBy:   joinList(dec["decided_by"]),
		})
	}
	for _, q := range questions {
		d.Questions = append(d.Questions, QuestionRow{
			Question:   str(q, "question"),
			RaisedBy:   str(q, "raised_by"),
			AssignedTo: str(q, "assigned_to"),
		})
	}

	return d
}

func newData(meta meeting.Meeting) Data {
	return Data{
		Title:        meta.Title,
		Date:         meta.Date,
		StartTime:    meta.StartTime,
		EndTime:      meta.EndTime,
		Location:     meta.Location,
		Participants: meta.Participants,
		GeneratedAt:  time.Now().Format("02.01.2006 15:04"),
	}
}

// Render produces the protocol Markdown for the given data.
func (g *Generator) Render(data Data) (string, error) {
	text := defaultTemplate
	if g.cfg.TemplatePath != "" {
		raw, err := os.ReadFile(g.cfg.TemplatePath)
		if err != nil {
			return "", fmt.Errorf("read protocol template: %w", err)
		}
		text = string(raw)
	}

	out, err := tmpl.Render(text, data)
	if err != nil {
		return "", fmt.Errorf("render protocol: %w", err)
	}
	return out, nil
}

func str(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func joinList(v any) string {
	switch list := v.(type) {
	case []string:
		return strings.Join(list, ", ")
	case []any:
		parts := make([]string, 0, len(list))
		for _, item := range list {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
