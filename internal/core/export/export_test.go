package export

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/protokoll/internal/core/analysis"
	"github.com/colonyops/protokoll/internal/core/review"
)

func newReviewedSession(t *testing.T) *review.Session {
	t.Helper()

	s := review.NewSession("20250825-100000", "Weekly Sync")
	err := s.Ingest(analysis.Result{
		Summary: "we discussed the rollout",
		ActionItems: []analysis.ActionItem{
			{Description: "send report", Assignee: "Anna"},
			{Description: "book room", Assignee: "Max"},
		},
		Decisions: []analysis.Decision{
			{Description: "ship friday", DecidedBy: []string{"Anna"}},
		},
		OpenQuestions: []analysis.OpenQuestion{
			{Question: "who owns QA?", RaisedBy: "Max"},
		},
	})
	require.NoError(t, err)
	return s
}

func TestGate_RequireComplete(t *testing.T) {
	session := newReviewedSession(t)
	gate := NewGate(session)

	err := gate.RequireComplete()
	var incomplete *review.IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 5, incomplete.Pending)

	// every accessor refuses while items are pending
	_, err = gate.ActionItems()
	assert.ErrorAs(t, err, &incomplete)
	_, err = gate.SummaryText()
	assert.ErrorAs(t, err, &incomplete)
	_, err = gate.Reviewers()
	assert.ErrorAs(t, err, &incomplete)

	require.NoError(t, session.ApproveAll("max"))
	assert.NoError(t, gate.RequireComplete())
}

func TestGate_PendingCountShrinks(t *testing.T) {
	session := newReviewedSession(t)
	gate := NewGate(session)

	require.NoError(t, session.ApproveItem(session.Items[0].ID, "max", nil))
	require.NoError(t, session.RejectItem(session.Items[1].ID, "max", ""))

	var incomplete *review.IncompleteError
	require.ErrorAs(t, gate.RequireComplete(), &incomplete)
	assert.Equal(t, 3, incomplete.Pending)
}

func TestGate_OnlyApprovedContentIsExported(t *testing.T) {
	session := newReviewedSession(t)

	// reject one action item and the open question; approve the rest with an edit
	require.NoError(t, session.RejectItem(session.Items[2].ID, "anna", "duplicate"))
	require.NoError(t, session.RejectItem(session.Items[4].ID, "anna", "answered"))
	require.NoError(t, session.ApproveItem(session.Items[0].ID, "anna", nil))
	require.NoError(t, session.ApproveItem(session.Items[1].ID, "anna", map[string]any{"deadline": "2025-09-12"}))
	require.NoError(t, session.ApproveItem(session.Items[3].ID, "max", nil))

	gate := NewGate(session)

	actionItems, err := gate.ActionItems()
	require.NoError(t, err)
	require.Len(t, actionItems, 1)
	assert.Equal(t, "send report", actionItems[0]["description"])
	assert.Equal(t, "2025-09-12", actionItems[0]["deadline"])

	decisions, err := gate.Decisions()
	require.NoError(t, err)
	require.Len(t, decisions, 1)
	assert.Equal(t, "ship friday", decisions[0]["description"])

	questions, err := gate.OpenQuestions()
	require.NoError(t, err)
	assert.Empty(t, questions)

	summary, err := gate.SummaryText()
	require.NoError(t, err)
	assert.Equal(t, "we discussed the rollout", summary)

	reviewers, err := gate.Reviewers()
	require.NoError(t, err)
	assert.Equal(t, []string{"anna", "max"}, reviewers)
}

func TestGate_RejectedSummaryExportsEmpty(t *testing.T) {
	session := newReviewedSession(t)
	require.NoError(t, session.RejectItem(session.Items[0].ID, "max", "inaccurate"))
	require.NoError(t, session.ApproveAll("max"))

	gate := NewGate(session)
	summary, err := gate.SummaryText()
	require.NoError(t, err)
	assert.Empty(t, summary)
}
