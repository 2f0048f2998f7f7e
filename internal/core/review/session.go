package review

import (
	"fmt"
	"math"
	"time"

	"github.com/colonyops/protokoll/internal/core/analysis"
)

// Session is the full set of reviewable items for one meeting, in analysis
// extraction order: summary first, then action items, decisions, open
// questions. The item list is append-only after ingestion.
type Session struct {
	MeetingID string
	Title     string
	CreatedAt time.Time

	Items []Item

	ingested bool
}

// NewSession creates an empty session for a meeting.
func NewSession(meetingID, title string) *Session {
	return &Session{
		MeetingID: meetingID,
		Title:     title,
		CreatedAt: time.Now(),
	}
}

// Restore reconstructs a session from persisted state. Items are validated
// against the review invariants; any violation returns a wrapped
// ErrMalformedState and no partial session.
func Restore(meetingID, title string, createdAt time.Time, items []Item) (*Session, error) {
	for idx := range items {
		if err := validateItem(&items[idx]); err != nil {
			return nil, err
		}
	}

	return &Session{
		MeetingID: meetingID,
		Title:     title,
		CreatedAt: createdAt,
		Items:     items,
		ingested:  true,
	}, nil
}

func validateItem(item *Item) error {
	if item.ID == "" {
		return fmt.Errorf("%w: item missing id", ErrMalformedState)
	}
	if !item.Kind.IsValid() {
		return fmt.Errorf("%w: item %s has unrecognized kind %q", ErrMalformedState, item.ID, item.Kind)
	}
	if !item.Status.IsValid() {
		return fmt.Errorf("%w: item %s has unrecognized status %q", ErrMalformedState, item.ID, item.Status)
	}
	if item.OriginalData == nil {
		return fmt.Errorf("%w: item %s missing original_data", ErrMalformedState, item.ID)
	}
	if (item.ApprovedData != nil) != (item.Status == StatusApproved) {
		return fmt.Errorf("%w: item %s approved_data inconsistent with status %s", ErrMalformedState, item.ID, item.Status)
	}
	if (item.ReviewedAt == nil) != (item.Status == StatusDraft) {
		return fmt.Errorf("%w: item %s reviewed_at inconsistent with status %s", ErrMalformedState, item.ID, item.Status)
	}
	return nil
}

// Ingest populates the session from an analysis result, one draft item per
// extracted fact. It may be called exactly once per session; a second call
// returns ErrAlreadyIngested.
func (s *Session) Ingest(result analysis.Result) error {
	if s.ingested {
		return ErrAlreadyIngested
	}
	s.ingested = true

	if result.Summary != "" {
		s.Items = append(s.Items, NewItem(KindSummary, map[string]any{"text": result.Summary}))
	}
	for _, ai := range result.ActionItems {
		s.Items = append(s.Items, NewItem(KindActionItem, ai.Fields()))
	}
	for _, dec := range result.Decisions {
		s.Items = append(s.Items, NewItem(KindDecision, dec.Fields()))
	}
	for _, q := range result.OpenQuestions {
		s.Items = append(s.Items, NewItem(KindOpenQuestion, q.Fields()))
	}

	return nil
}

// Pending returns all items still in draft, in session order.
func (s *Session) Pending() []*Item {
	return s.filter(func(i *Item) bool { return i.Status == StatusDraft })
}

// Approved returns all approved items, in session order.
func (s *Session) Approved() []*Item {
	return s.filter(func(i *Item) bool { return i.Status == StatusApproved })
}

// Rejected returns all rejected items, in session order.
func (s *Session) Rejected() []*Item {
	return s.filter(func(i *Item) bool { return i.Status == StatusRejected })
}

// ByKind returns all items of the given kind, in session order.
func (s *Session) ByKind(kind Kind) []*Item {
	return s.filter(func(i *Item) bool { return i.Kind == kind })
}

func (s *Session) filter(keep func(*Item) bool) []*Item {
	var out []*Item
	for idx := range s.Items {
		if keep(&s.Items[idx]) {
			out = append(out, &s.Items[idx])
		}
	}
	return out
}

// FindByID returns the item with the given ID, or ErrItemNotFound.
func (s *Session) FindByID(id string) (*Item, error) {
	for idx := range s.Items {
		if s.Items[idx].ID == id {
			return &s.Items[idx], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrItemNotFound, id)
}

// ApproveItem approves the named item, applying optional edits.
func (s *Session) ApproveItem(id, reviewer string, edits map[string]any) error {
	item, err := s.FindByID(id)
	if err != nil {
		return err
	}
	return item.Approve(reviewer, edits)
}

// RejectItem rejects the named item with an optional reason.
func (s *Session) RejectItem(id, reviewer, reason string) error {
	item, err := s.FindByID(id)
	if err != nil {
		return err
	}
	return item.Reject(reviewer, reason)
}

// ApproveAll approves every pending item with no edits. Terminal items are
// untouched, so a second call is a no-op.
func (s *Session) ApproveAll(reviewer string) error {
	for _, item := range s.Pending() {
		if err := item.Approve(reviewer, nil); err != nil {
			return err
		}
	}
	return nil
}

// Progress holds aggregate review accounting for a session.
type Progress struct {
	Total    int `json:"total"`
	Reviewed int `json:"reviewed"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
	Rejected int `json:"rejected"`
	Percent  int `json:"percent"`
}

// Progress returns the current review counts. An empty session reports 100
// percent (vacuously complete).
func (s *Session) Progress() Progress {
	p := Progress{Total: len(s.Items)}

	for idx := range s.Items {
		switch s.Items[idx].Status {
		case StatusApproved:
			p.Approved++
		case StatusRejected:
			p.Rejected++
		case StatusDraft:
			p.Pending++
		}
	}

	p.Reviewed = p.Approved + p.Rejected
	if p.Total == 0 {
		p.Percent = 100
	} else {
		p.Percent = int(math.Round(float64(p.Reviewed) / float64(p.Total) * 100))
	}

	return p
}

// IsComplete reports whether no items remain in draft.
func (s *Session) IsComplete() bool {
	for idx := range s.Items {
		if s.Items[idx].Status == StatusDraft {
			return false
		}
	}
	return true
}
