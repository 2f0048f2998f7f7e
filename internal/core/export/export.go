// Package export gates downstream consumers on review completeness and runs
// the export sub-steps over approved content.
package export

import (
	"github.com/colonyops/protokoll/internal/core/review"
)

// Gate is the single chokepoint between a review session and downstream
// exporters. Every accessor refuses to return data until review is complete,
// and only ever exposes approved items.
type Gate struct {
	session *review.Session
}

// NewGate wraps a session in an export gate.
func NewGate(session *review.Session) *Gate {
	return &Gate{session: session}
}

// RequireComplete returns a review.IncompleteError carrying the pending count
// if any item is still in draft.
func (g *Gate) RequireComplete() error {
	if p := g.session.Progress(); p.Pending > 0 {
		return &review.IncompleteError{Pending: p.Pending}
	}
	return nil
}

// ActionItems returns the field maps of all approved action items, with
// reviewer edits merged in.
func (g *Gate) ActionItems() ([]map[string]any, error) {
	return g.approvedData(review.KindActionItem)
}

// Decisions returns the field maps of all approved decisions.
func (g *Gate) Decisions() ([]map[string]any, error) {
	return g.approvedData(review.KindDecision)
}

// OpenQuestions returns the field maps of all approved open questions.
func (g *Gate) OpenQuestions() ([]map[string]any, error) {
	return g.approvedData(review.KindOpenQuestion)
}

// SummaryText returns the approved summary text, or empty when the summary
// was rejected or absent.
func (g *Gate) SummaryText() (string, error) {
	if err := g.RequireComplete(); err != nil {
		return "", err
	}

	for _, item := range g.session.ByKind(review.KindSummary) {
		if item.Status != review.StatusApproved {
			continue
		}
		if text, ok := item.CurrentData()["text"].(string); ok {
			return text, nil
		}
	}
	return "", nil
}

// Reviewers returns the distinct reviewer names of all approved items, in
// first-seen order.
func (g *Gate) Reviewers() ([]string, error) {
	if err := g.RequireComplete(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var reviewers []string
	for _, item := range g.session.Approved() {
		if item.ReviewedBy == "" || seen[item.ReviewedBy] {
			continue
		}
		seen[item.ReviewedBy] = true
		reviewers = append(reviewers, item.ReviewedBy)
	}
	return reviewers, nil
}

func (g *Gate) approvedData(kind review.Kind) ([]map[string]any, error) {
	if err := g.RequireComplete(); err != nil {
		return nil, err
	}

	var out []map[string]any
	for _, item := range g.session.ByKind(kind) {
		if item.Status == review.StatusApproved {
			out = append(out, item.CurrentData())
		}
	}
	return out, nil
}
