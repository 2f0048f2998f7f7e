package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/protokoll/internal/core/meeting"
	"github.com/colonyops/protokoll/internal/core/protocol"
	"github.com/colonyops/protokoll/internal/core/review"
)

type stubTasks struct {
	nextID  int
	failFor string // description that triggers an error
	created []map[string]any
}

func (s *stubTasks) CreateTask(_ context.Context, actionItem map[string]any) (int, error) {
	if desc, _ := actionItem["description"].(string); desc == s.failFor {
		return 0, fmt.Errorf("connection refused")
	}
	s.nextID++
	s.created = append(s.created, actionItem)
	return s.nextID, nil
}

type stubKnowledge struct {
	path string
	err  error
}

func (s *stubKnowledge) SaveMeeting(meeting.Meeting, string, string, []map[string]any, []map[string]any, []map[string]any) (string, error) {
	return s.path, s.err
}

type stubIndex struct {
	indexed []string
	err     error
}

func (s *stubIndex) Index(_ context.Context, meta meeting.Meeting, _ string) error {
	if s.err != nil {
		return s.err
	}
	s.indexed = append(s.indexed, meta.ID)
	return nil
}

func testMeeting() meeting.Meeting {
	return meeting.Meeting{
		ID:    "20250825-100000",
		Title: "Weekly Sync",
		Date:  "2025-08-25",
	}
}

func TestExporter_RefusesIncompleteReview(t *testing.T) {
	session := newReviewedSession(t)
	exporter := Exporter{
		Generator: protocol.NewGenerator(protocol.Config{}),
		Logger:    zerolog.Nop(),
	}

	_, err := exporter.Export(context.Background(), session, testMeeting(), t.TempDir())

	var incomplete *review.IncompleteError
	require.ErrorAs(t, err, &incomplete)
	assert.Equal(t, 5, incomplete.Pending)
}

func TestExporter_Export(t *testing.T) {
	session := newReviewedSession(t)
	require.NoError(t, session.ApproveAll("max"))

	tasks := &stubTasks{}
	know := &stubKnowledge{path: "/kb/2025-08-25-weekly-sync.md"}
	index := &stubIndex{}
	outDir := t.TempDir()

	exporter := Exporter{
		Tasks:     tasks,
		Generator: protocol.NewGenerator(protocol.Config{}),
		Knowledge: know,
		Index:     index,
		Logger:    zerolog.Nop(),
	}

	res, err := exporter.Export(context.Background(), session, testMeeting(), outDir)
	require.NoError(t, err)

	assert.Equal(t, 2, res.TasksCreated)
	assert.Equal(t, []int{1, 2}, res.TaskIDs)
	assert.Empty(t, res.TaskErrors)
	assert.False(t, res.Failed())

	require.FileExists(t, res.ProtocolPath)
	assert.Equal(t, filepath.Join(outDir, "protocol_final.md"), res.ProtocolPath)

	raw, err := os.ReadFile(res.ProtocolPath)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Weekly Sync")
	assert.Contains(t, string(raw), "send report")

	assert.Equal(t, know.path, res.KnowledgePath)
	assert.Equal(t, []string{"20250825-100000"}, index.indexed)
}

func TestExporter_TaskFailuresDoNotAbort(t *testing.T) {
	session := newReviewedSession(t)
	require.NoError(t, session.ApproveAll("max"))

	tasks := &stubTasks{failFor: "send report"}
	exporter := Exporter{
		Tasks:     tasks,
		Generator: protocol.NewGenerator(protocol.Config{}),
		Knowledge: &stubKnowledge{path: "/kb/x.md"},
		Logger:    zerolog.Nop(),
	}

	res, err := exporter.Export(context.Background(), session, testMeeting(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1, res.TasksCreated)
	require.Len(t, res.TaskErrors, 1)
	assert.Equal(t, "send report", res.TaskErrors[0].ItemDescription)
	assert.True(t, res.Failed())

	// the protocol and knowledge steps still ran
	assert.NotEmpty(t, res.ProtocolPath)
	assert.Equal(t, "/kb/x.md", res.KnowledgePath)
}

func TestExporter_KnowledgeFailureSkipsIndex(t *testing.T) {
	session := newReviewedSession(t)
	require.NoError(t, session.ApproveAll("max"))

	index := &stubIndex{}
	exporter := Exporter{
		Generator: protocol.NewGenerator(protocol.Config{}),
		Knowledge: &stubKnowledge{err: fmt.Errorf("disk full")},
		Index:     index,
		Logger:    zerolog.Nop(),
	}

	res, err := exporter.Export(context.Background(), session, testMeeting(), t.TempDir())
	require.NoError(t, err)

	assert.Error(t, res.KnowledgeErr)
	assert.Empty(t, index.indexed)
	assert.True(t, res.Failed())
}

func TestExporter_RejectedItemsNeverLeave(t *testing.T) {
	session := newReviewedSession(t)
	require.NoError(t, session.RejectItem(session.Items[2].ID, "max", "duplicate"))
	require.NoError(t, session.ApproveAll("max"))

	tasks := &stubTasks{}
	exporter := Exporter{
		Tasks:     tasks,
		Generator: protocol.NewGenerator(protocol.Config{}),
		Logger:    zerolog.Nop(),
	}

	res, err := exporter.Export(context.Background(), session, testMeeting(), t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 1, res.TasksCreated)
	require.Len(t, tasks.created, 1)
	assert.Equal(t, "send report", tasks.created[0]["description"])

	raw, err := os.ReadFile(res.ProtocolPath)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "book room")
}
