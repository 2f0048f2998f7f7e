// Package pipeline orchestrates the meeting workflow: transcribe, analyze,
// open a review session, and (after review) export the approved results.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/protokoll/internal/core/analysis"
	"github.com/colonyops/protokoll/internal/core/export"
	"github.com/colonyops/protokoll/internal/core/knowledge"
	"github.com/colonyops/protokoll/internal/core/meeting"
	"github.com/colonyops/protokoll/internal/core/protocol"
	"github.com/colonyops/protokoll/internal/core/review"
	"github.com/colonyops/protokoll/internal/core/transcribe"
	"github.com/colonyops/protokoll/internal/data/stores"
	"github.com/colonyops/protokoll/internal/integrations/calendar"
	"github.com/colonyops/protokoll/internal/integrations/odoo"
	"github.com/colonyops/protokoll/internal/store/jsonfile"
)

// Pipeline wires the processing steps together. Calendar, Odoo, Knowledge,
// and Index are optional; nil integrations are skipped.
type Pipeline struct {
	Transcriber *transcribe.Transcriber
	Analyzer    *analysis.Analyzer
	Generator   *protocol.Generator
	Sessions    *jsonfile.SessionStore
	Calendar    *calendar.Client
	Odoo        *odoo.Connector
	Knowledge   *knowledge.Store
	Index       *stores.MeetingIndex
	Logger      zerolog.Logger
}

// ProcessOptions customizes one processing run.
type ProcessOptions struct {
	Title string    // meeting title; empty falls back to calendar or filename
	Time  time.Time // meeting time; zero means now
}

// ProcessResult reports what one processing run produced.
type ProcessResult struct {
	Meeting    meeting.Meeting
	Transcript transcribe.Transcript
	Analysis   analysis.Result
	Session    *review.Session
	DraftPath  string
}

// Process runs the full ingest pipeline for an audio recording: transcription,
// analysis, draft protocol, and a fresh review session with every extracted
// item in draft state.
func (p *Pipeline) Process(ctx context.Context, audioPath string, opts ProcessOptions) (*ProcessResult, error) {
	if _, err := os.Stat(audioPath); err != nil {
		return nil, fmt.Errorf("audio file: %w", err)
	}

	meetingTime := opts.Time
	if meetingTime.IsZero() {
		meetingTime = time.Now()
	}

	meta := meeting.Meeting{
		ID:        meeting.NewID(meetingTime),
		Title:     opts.Title,
		Date:      meetingTime.Format("2006-01-02"),
		AudioPath: audioPath,
	}

	p.enrichFromCalendar(ctx, &meta, meetingTime)

	if meta.Title == "" {
		base := filepath.Base(audioPath)
		meta.Title = base[:len(base)-len(filepath.Ext(base))]
	}

	dir := p.Sessions.MeetingDir(meta.ID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create meeting dir: %w", err)
	}

	p.Logger.Info().Str("meeting_id", meta.ID).Str("title", meta.Title).Msg("processing meeting")

	transcript, err := p.Transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, fmt.Errorf("transcribe: %w", err)
	}
	meta.TranscriptPath = filepath.Join(dir, "transcript.json")
	if err := transcript.Save(meta.TranscriptPath); err != nil {
		return nil, err
	}

	result, err := p.Analyzer.Analyze(ctx, transcript.Text, analysis.Context{
		Title:     meta.Title,
		Date:      meta.Date,
		Attendees: meta.ParticipantNames(),
	})
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}
	meta.KeyTopics = result.KeyTopics
	meta.AnalysisPath = filepath.Join(dir, "analysis.json")
	if err := result.Save(meta.AnalysisPath); err != nil {
		return nil, err
	}

	draft, err := p.Generator.Render(protocol.DataFromAnalysis(meta, result))
	if err != nil {
		return nil, fmt.Errorf("render draft protocol: %w", err)
	}
	meta.DraftPath = filepath.Join(dir, "protocol_draft.md")
	if err := os.WriteFile(meta.DraftPath, []byte(draft), 0o644); err != nil {
		return nil, fmt.Errorf("write draft protocol: %w", err)
	}

	if err := meta.Save(filepath.Join(dir, "meeting.json")); err != nil {
		return nil, err
	}

	session := review.NewSession(meta.ID, meta.Title)
	if err := session.Ingest(result); err != nil {
		return nil, fmt.Errorf("ingest analysis: %w", err)
	}
	if err := p.Sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save review session: %w", err)
	}

	p.Logger.Info().
		Str("meeting_id", meta.ID).
		Int("items", session.Progress().Total).
		Msg("review session created")

	return &ProcessResult{
		Meeting:    meta,
		Transcript: transcript,
		Analysis:   result,
		Session:    session,
		DraftPath:  meta.DraftPath,
	}, nil
}

// enrichFromCalendar fills meeting metadata from the nearest calendar event.
// Calendar failures never block processing.
func (p *Pipeline) enrichFromCalendar(ctx context.Context, meta *meeting.Meeting, meetingTime time.Time) {
	if p.Calendar == nil {
		return
	}

	event, err := p.Calendar.FindMeetingByTime(ctx, meetingTime)
	if err != nil {
		p.Logger.Warn().Err(err).Msg("calendar lookup failed")
		return
	}
	if event == nil {
		p.Logger.Debug().Msg("no matching calendar event")
		return
	}

	if meta.Title == "" {
		meta.Title = event.Title
	}
	meta.StartTime = event.StartTime
	meta.EndTime = event.EndTime
	meta.Location = event.Location

	names := event.AttendeeNames()
	var matches []odoo.Match
	if p.Odoo != nil {
		matches = p.Odoo.MatchParticipants(names)
	}
	for i, name := range names {
		part := meeting.Participant{Name: name, Email: event.Attendees[i].Email, Present: true}
		if matches != nil && matches[i].Matched() {
			part.Name = matches[i].MatchedName
			part.OdooID = matches[i].OdooID
			part.Confidence = matches[i].Confidence
			if part.Email == "" {
				part.Email = matches[i].Email
			}
		}
		meta.Participants = append(meta.Participants, part)
	}

	p.Logger.Info().
		Str("event", event.Title).
		Int("attendees", len(names)).
		Msg("calendar context attached")
}

// LoadMeeting reads the stored metadata for a meeting.
func (p *Pipeline) LoadMeeting(meetingID string) (meeting.Meeting, error) {
	return meeting.Load(filepath.Join(p.Sessions.MeetingDir(meetingID), "meeting.json"))
}

// Export runs the export gate and sub-steps for a reviewed meeting. The
// returned result carries per-step outcomes; the error is non-nil only when
// the review is incomplete or the meeting cannot be loaded.
func (p *Pipeline) Export(ctx context.Context, meetingID string) (export.Result, error) {
	session, err := p.Sessions.Load(ctx, meetingID)
	if err != nil {
		return export.Result{}, err
	}

	meta, err := p.LoadMeeting(meetingID)
	if err != nil {
		return export.Result{}, err
	}

	exporter := export.Exporter{
		Generator: p.Generator,
		Logger:    p.Logger,
	}
	if p.Odoo != nil {
		exporter.Tasks = p.Odoo
	}
	if p.Knowledge != nil {
		exporter.Knowledge = p.Knowledge
	}
	if p.Index != nil {
		exporter.Index = p.Index
	}

	return exporter.Export(ctx, session, meta, p.Sessions.MeetingDir(meetingID))
}
