// Package review implements the human-in-the-loop review workflow for
// meeting analysis results.
//
// Every fact extracted from a meeting becomes a reviewable Item that moves
// through draft -> approved/rejected. Nothing is exported until a human has
// resolved every item; rejected items are permanently excluded from export.
package review

import (
	"fmt"
	"time"

	"github.com/colonyops/protokoll/pkg/randid"
)

// Status represents the review state of an item.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// IsValid reports whether s is a recognized status value.
func (s Status) IsValid() bool {
	switch s {
	case StatusDraft, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Terminal reports whether the status permits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Kind identifies the category of fact an item holds.
type Kind string

const (
	KindSummary      Kind = "summary"
	KindActionItem   Kind = "action_item"
	KindDecision     Kind = "decision"
	KindOpenQuestion Kind = "open_question"
)

// IsValid reports whether k is a recognized kind value.
func (k Kind) IsValid() bool {
	switch k {
	case KindSummary, KindActionItem, KindDecision, KindOpenQuestion:
		return true
	}
	return false
}

// Label returns a human-readable name for the kind.
func (k Kind) Label() string {
	switch k {
	case KindSummary:
		return "Summary"
	case KindActionItem:
		return "Action Item"
	case KindDecision:
		return "Decision"
	case KindOpenQuestion:
		return "Open Question"
	}
	return string(k)
}

// schemaFields lists the editable fields per kind. Reviewer edits may only
// override fields that belong to the kind's schema.
var schemaFields = map[Kind][]string{
	KindSummary:      {"text"},
	KindActionItem:   {"description", "assignee", "deadline", "context", "priority"},
	KindDecision:     {"description", "decided_by", "context"},
	KindOpenQuestion: {"question", "raised_by", "assigned_to"},
}

// EditableFields returns the field names a reviewer may edit for the kind.
func EditableFields(kind Kind) []string {
	fields := schemaFields[kind]
	out := make([]string, len(fields))
	copy(out, fields)
	return out
}

// HasField reports whether the field belongs to the kind's schema.
func (k Kind) HasField(field string) bool {
	for _, f := range schemaFields[k] {
		if f == field {
			return true
		}
	}
	return false
}

// Item is a single reviewable fact with a tri-state lifecycle.
//
// OriginalData is the immutable snapshot as extracted by analysis.
// ApprovedData is set only at approval: the original fields with any
// reviewer edits merged over them.
type Item struct {
	ID           string
	Kind         Kind
	Status       Status
	OriginalData map[string]any
	ApprovedData map[string]any
	ReviewedBy   string
	ReviewedAt   *time.Time
	RejectReason string
}

// NewItem creates a draft item with a fresh ID, snapshotting data.
func NewItem(kind Kind, data map[string]any) Item {
	return Item{
		ID:           randid.Generate(8),
		Kind:         kind,
		Status:       StatusDraft,
		OriginalData: cloneData(data),
	}
}

// Approve transitions the item from draft to approved, merging edits over the
// original data. Edits may only override fields of the item kind's schema.
// Approving a non-draft item returns ErrInvalidTransition.
func (i *Item) Approve(reviewer string, edits map[string]any) error {
	if i.Status != StatusDraft {
		return fmt.Errorf("%w: item %s is already %s", ErrInvalidTransition, i.ID, i.Status)
	}

	for field := range edits {
		if !i.Kind.HasField(field) {
			return fmt.Errorf("%w: %q is not a field of kind %s", ErrInvalidEdit, field, i.Kind)
		}
	}

	approved := cloneData(i.OriginalData)
	for field, value := range edits {
		approved[field] = value
	}

	now := time.Now()
	i.Status = StatusApproved
	i.ApprovedData = approved
	i.ReviewedBy = reviewer
	i.ReviewedAt = &now

	return nil
}

// Reject transitions the item from draft to rejected with an optional reason.
// Rejecting a non-draft item returns ErrInvalidTransition.
func (i *Item) Reject(reviewer, reason string) error {
	if i.Status != StatusDraft {
		return fmt.Errorf("%w: item %s is already %s", ErrInvalidTransition, i.ID, i.Status)
	}

	now := time.Now()
	i.Status = StatusRejected
	i.ReviewedBy = reviewer
	i.ReviewedAt = &now
	i.RejectReason = reason

	return nil
}

// CurrentData returns the approved data if the item is approved, otherwise
// the original snapshot. Intended for read-only inspection; it never implies
// approval.
func (i *Item) CurrentData() map[string]any {
	if i.Status == StatusApproved && i.ApprovedData != nil {
		return i.ApprovedData
	}
	return i.OriginalData
}

// Describe returns a one-line description of the item for list displays.
func (i *Item) Describe() string {
	data := i.CurrentData()
	switch i.Kind {
	case KindActionItem:
		return fmt.Sprintf("%s -> %s", stringField(data, "description"), stringField(data, "assignee"))
	case KindDecision:
		return stringField(data, "description")
	case KindOpenQuestion:
		return stringField(data, "question")
	case KindSummary:
		text := stringField(data, "text")
		if runes := []rune(text); len(runes) > 60 {
			return string(runes[:60]) + "..."
		}
		return text
	}
	return ""
}

func stringField(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}

func cloneData(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}
