package review

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestItem_Approve(t *testing.T) {
	t.Run("approve without edits snapshots original data", func(t *testing.T) {
		item := NewItem(KindActionItem, map[string]any{
			"description": "send the report",
			"assignee":    "Anna",
		})

		err := item.Approve("max", nil)
		require.NoError(t, err)

		assert.Equal(t, StatusApproved, item.Status)
		assert.Equal(t, "max", item.ReviewedBy)
		require.NotNil(t, item.ReviewedAt)
		assert.Equal(t, "send the report", item.ApprovedData["description"])
		assert.Equal(t, "Anna", item.ApprovedData["assignee"])
	})

	t.Run("edits are merged over original data", func(t *testing.T) {
		item := NewItem(KindActionItem, map[string]any{
			"description": "send the report",
			"assignee":    "Anna",
			"deadline":    "",
		})

		err := item.Approve("max", map[string]any{"deadline": "2025-09-12"})
		require.NoError(t, err)

		assert.Equal(t, "2025-09-12", item.ApprovedData["deadline"])
		assert.Equal(t, "send the report", item.ApprovedData["description"])
		// original snapshot stays untouched
		assert.Equal(t, "", item.OriginalData["deadline"])
	})

	t.Run("edit outside the kind schema is rejected", func(t *testing.T) {
		item := NewItem(KindDecision, map[string]any{"description": "ship it"})

		err := item.Approve("max", map[string]any{"assignee": "Anna"})
		require.ErrorIs(t, err, ErrInvalidEdit)
		assert.Equal(t, StatusDraft, item.Status)
		assert.Nil(t, item.ApprovedData)
	})

	t.Run("approving an approved item fails", func(t *testing.T) {
		item := NewItem(KindSummary, map[string]any{"text": "short"})
		require.NoError(t, item.Approve("max", nil))

		err := item.Approve("max", nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})

	t.Run("approving a rejected item fails", func(t *testing.T) {
		item := NewItem(KindSummary, map[string]any{"text": "short"})
		require.NoError(t, item.Reject("max", "noise"))

		err := item.Approve("max", nil)
		assert.ErrorIs(t, err, ErrInvalidTransition)
	})
}

func TestItem_Reject(t *testing.T) {
	item := NewItem(KindOpenQuestion, map[string]any{"question": "budget?"})

	err := item.Reject("anna", "already answered")
	require.NoError(t, err)

	assert.Equal(t, StatusRejected, item.Status)
	assert.Equal(t, "already answered", item.RejectReason)
	assert.Nil(t, item.ApprovedData)
	require.NotNil(t, item.ReviewedAt)

	err = item.Reject("anna", "again")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestItem_CurrentData(t *testing.T) {
	item := NewItem(KindActionItem, map[string]any{
		"description": "original",
	})

	assert.Equal(t, "original", item.CurrentData()["description"])

	require.NoError(t, item.Approve("max", map[string]any{"description": "edited"}))
	assert.Equal(t, "edited", item.CurrentData()["description"])
	assert.Equal(t, "original", item.OriginalData["description"])
}

func TestItem_Describe(t *testing.T) {
	tests := []struct {
		name string
		item Item
		want string
	}{
		{
			name: "action item shows description and assignee",
			item: NewItem(KindActionItem, map[string]any{"description": "send report", "assignee": "Anna"}),
			want: "send report -> Anna",
		},
		{
			name: "decision shows description",
			item: NewItem(KindDecision, map[string]any{"description": "ship friday"}),
			want: "ship friday",
		},
		{
			name: "open question shows question",
			item: NewItem(KindOpenQuestion, map[string]any{"question": "who owns QA?"}),
			want: "who owns QA?",
		},
		{
			name: "long summary is truncated",
			item: NewItem(KindSummary, map[string]any{
				"text": strings.Repeat("a", 70),
			}),
			want: strings.Repeat("a", 60) + "...",
		},
		{
			name: "truncation never splits a multi-byte rune",
			item: NewItem(KindSummary, map[string]any{
				"text": strings.Repeat("ü", 70),
			}),
			want: strings.Repeat("ü", 60) + "...",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.Describe())
		})
	}
}

func TestKind_HasField(t *testing.T) {
	assert.True(t, KindActionItem.HasField("deadline"))
	assert.True(t, KindDecision.HasField("decided_by"))
	assert.False(t, KindDecision.HasField("deadline"))
	assert.False(t, KindSummary.HasField("description"))
}

func TestNewItem_GeneratesUniqueIDs(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		item := NewItem(KindSummary, map[string]any{"text": "x"})
		require.Len(t, item.ID, 8)
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}
