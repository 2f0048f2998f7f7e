package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/colonyops/protokoll/internal/core/meeting"
	"github.com/colonyops/protokoll/internal/core/protocol"
	"github.com/colonyops/protokoll/internal/core/review"
)

// TaskCreator creates a task in the external task tracker from an approved
// action item's field map.
type TaskCreator interface {
	CreateTask(ctx context.Context, actionItem map[string]any) (int, error)
}

// KnowledgeWriter persists the meeting to the knowledge base and returns the
// written file path.
type KnowledgeWriter interface {
	SaveMeeting(meta meeting.Meeting, protocolMD, summary string, actionItems, decisions, questions []map[string]any) (string, error)
}

// Indexer records a meeting in the searchable meeting index.
type Indexer interface {
	Index(ctx context.Context, meta meeting.Meeting, knowledgePath string) error
}

// TaskError identifies a failed task creation for one action item.
type TaskError struct {
	ItemDescription string
	Err             error
}

// Result reports the per-step outcomes of an export run. Export is
// best-effort: a failed step never rolls back or aborts the others.
type Result struct {
	TasksCreated int
	TaskIDs      []int
	TaskErrors   []TaskError

	ProtocolPath string
	ProtocolErr  error

	KnowledgePath string
	KnowledgeErr  error
	IndexErr      error
}

// Failed reports whether any sub-step failed.
func (r Result) Failed() bool {
	return len(r.TaskErrors) > 0 || r.ProtocolErr != nil || r.KnowledgeErr != nil || r.IndexErr != nil
}

// Exporter runs the export sub-steps for a completed review session.
// Tasks, Knowledge, and Index are optional; nil steps are skipped.
type Exporter struct {
	Tasks     TaskCreator
	Generator *protocol.Generator
	Knowledge KnowledgeWriter
	Index     Indexer
	Logger    zerolog.Logger
}

// Export checks the gate, then pushes approved content to the task tracker,
// writes the final protocol into outDir, and records the meeting in the
// knowledge base. Each sub-step reports its own failure in the Result; only
// an incomplete review aborts the whole export.
func (e *Exporter) Export(ctx context.Context, session *review.Session, meta meeting.Meeting, outDir string) (Result, error) {
	gate := NewGate(session)
	if err := gate.RequireComplete(); err != nil {
		return Result{}, err
	}

	// The gate accessors cannot fail once RequireComplete has passed.
	actionItems, _ := gate.ActionItems()
	decisions, _ := gate.Decisions()
	questions, _ := gate.OpenQuestions()
	summary, _ := gate.SummaryText()
	reviewers, _ := gate.Reviewers()

	var res Result

	if e.Tasks != nil {
		for _, ai := range actionItems {
			taskID, err := e.Tasks.CreateTask(ctx, ai)
			if err != nil {
				desc, _ := ai["description"].(string)
				res.TaskErrors = append(res.TaskErrors, TaskError{ItemDescription: desc, Err: err})
				e.Logger.Warn().Err(err).Str("action_item", desc).Msg("task creation failed")
				continue
			}
			ai["odoo_task_id"] = taskID
			res.TaskIDs = append(res.TaskIDs, taskID)
			res.TasksCreated++
		}
	}

	data := protocol.DataFromApproved(meta, summary, actionItems, decisions, questions, reviewers)
	rendered, err := e.Generator.Render(data)
	if err != nil {
		res.ProtocolErr = err
	} else {
		path := filepath.Join(outDir, "protocol_final.md")
		if err := os.WriteFile(path, []byte(rendered), 0o644); err != nil {
			res.ProtocolErr = fmt.Errorf("write final protocol: %w", err)
		} else {
			res.ProtocolPath = path
		}
	}

	if e.Knowledge != nil {
		path, err := e.Knowledge.SaveMeeting(meta, rendered, summary, actionItems, decisions, questions)
		if err != nil {
			res.KnowledgeErr = err
		} else {
			res.KnowledgePath = path

			if e.Index != nil {
				if err := e.Index.Index(ctx, meta, path); err != nil {
					res.IndexErr = err
				}
			}
		}
	}

	e.Logger.Info().
		Int("tasks_created", res.TasksCreated).
		Int("task_errors", len(res.TaskErrors)).
		Str("protocol", res.ProtocolPath).
		Str("knowledge", res.KnowledgePath).
		Msg("export finished")

	return res, nil
}
