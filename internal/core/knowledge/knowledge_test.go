package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/protokoll/internal/core/meeting"
)

func TestSaveMeeting(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(Config{Dir: dir})

	meta := meeting.Meeting{
		ID:    "20250825-100000",
		Title: "Weekly Sync",
		Date:  "2025-08-25",
		Participants: []meeting.Participant{
			{Name: "Anna Schmidt", Present: true},
			{Name: "Max Weber", Present: true},
		},
		KeyTopics: []string{"rollout", "budget"},
	}
	actionItems := []map[string]any{
		{"description": "send report", "assignee": "Anna", "deadline": "2025-09-01"},
		{"description": "book room", "assignee": "Max"},
	}
	decisions := []map[string]any{{"description": "ship in September"}}
	questions := []map[string]any{{"question": "who owns the budget?"}}

	path, err := store.SaveMeeting(meta, "ignored protocol", "We agreed on the rollout.", actionItems, decisions, questions)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2025-08-25-weekly-sync.md"), path)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	assert.Contains(t, content, "# Meeting: Weekly Sync")
	assert.Contains(t, content, "**Participants:** Anna Schmidt, Max Weber")
	assert.Contains(t, content, "**Topics:** rollout, budget")
	assert.Contains(t, content, "We agreed on the rollout.")
	assert.Contains(t, content, "- [Anna] send report (due 2025-09-01)")
	assert.Contains(t, content, "- [Max] book room (due not defined)")
	assert.Contains(t, content, "- ship in September")
	assert.Contains(t, content, "- who owns the budget?")
}

func TestSaveMeetingNormalizesGermanDates(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(Config{Dir: dir})

	path, err := store.SaveMeeting(meeting.Meeting{Title: "Budget Review", Date: "25.08.2025"}, "", "", nil, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2025-08-25-budget-review.md"), path)
}

func TestList(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(Config{Dir: dir})

	for _, name := range []string{"2025-08-01-a.md", "2025-08-25-b.md", "2025-08-10-c.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}
	// non-markdown files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	paths, err := store.List(0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "2025-08-25-b.md"),
		filepath.Join(dir, "2025-08-10-c.md"),
		filepath.Join(dir, "2025-08-01-a.md"),
	}, paths)

	limited, err := store.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
	assert.Equal(t, filepath.Join(dir, "2025-08-25-b.md"), limited[0])
}

func TestSearch(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(Config{Dir: dir})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-08-25-weekly.md"),
		[]byte("# Meeting: Weekly\n\n- ship the Rollout in September\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "2025-08-10-standup.md"),
		[]byte("# Meeting: Standup\n\nnothing relevant\n"), 0o644))

	results, err := store.Search("rollout")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "2025-08-25-weekly", results[0].Name)
	assert.Equal(t, []string{"- ship the Rollout in September"}, results[0].Matches)

	none, err := store.Search("kubernetes")
	require.NoError(t, err)
	assert.Empty(t, none)
}
