// Package stores contains SQLite-backed data stores.
package stores

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/colonyops/protokoll/internal/core/meeting"
	"github.com/colonyops/protokoll/internal/data/db"
)

// ErrMeetingNotFound is returned when a meeting is not in the index.
var ErrMeetingNotFound = errors.New("meeting not found")

// IndexEntry is one indexed meeting.
type IndexEntry struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Date          string    `json:"date"`
	Topics        []string  `json:"topics"`
	Participants  []string  `json:"participants"`
	KnowledgePath string    `json:"knowledge_path"`
	IndexedAt     time.Time `json:"indexed_at"`
}

// MeetingIndex implements the searchable meeting index on SQLite.
type MeetingIndex struct {
	db *db.DB
}

// NewMeetingIndex creates a SQLite-backed meeting index.
func NewMeetingIndex(db *db.DB) *MeetingIndex {
	return &MeetingIndex{db: db}
}

// Index records a meeting, replacing any previous entry for the same ID.
func (s *MeetingIndex) Index(ctx context.Context, meta meeting.Meeting, knowledgePath string) error {
	topics, err := encodeList(meta.KeyTopics)
	if err != nil {
		return fmt.Errorf("index meeting: %w", err)
	}
	participants, err := encodeList(meta.ParticipantNames())
	if err != nil {
		return fmt.Errorf("index meeting: %w", err)
	}

	_, err = s.db.Conn().ExecContext(ctx, `
		INSERT INTO meetings (id, title, date, topics, participants, knowledge_path, indexed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			date = excluded.date,
			topics = excluded.topics,
			participants = excluded.participants,
			knowledge_path = excluded.knowledge_path,
			indexed_at = excluded.indexed_at`,
		meta.ID,
		meta.Title,
		meta.Date,
		topics,
		participants,
		knowledgePath,
		time.Now().UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("index meeting: %w", err)
	}
	return nil
}

// Get returns one indexed meeting by ID.
func (s *MeetingIndex) Get(ctx context.Context, id string) (IndexEntry, error) {
	row := s.db.Conn().QueryRowContext(ctx, `
		SELECT id, title, date, topics, participants, knowledge_path, indexed_at
		FROM meetings WHERE id = ?`, id)

	entry, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return IndexEntry{}, fmt.Errorf("%w: %s", ErrMeetingNotFound, id)
	}
	if err != nil {
		return IndexEntry{}, fmt.Errorf("get meeting: %w", err)
	}
	return entry, nil
}

// List returns up to limit meetings, newest first.
func (s *MeetingIndex) List(ctx context.Context, limit int) ([]IndexEntry, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, title, date, topics, participants, knowledge_path, indexed_at
		FROM meetings ORDER BY date DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectEntries(rows)
}

// Search returns meetings whose title, topics, or participants contain the
// query, case-insensitively, newest first.
func (s *MeetingIndex) Search(ctx context.Context, query string) ([]IndexEntry, error) {
	pattern := "%" + strings.ToLower(query) + "%"

	rows, err := s.db.Conn().QueryContext(ctx, `
		SELECT id, title, date, topics, participants, knowledge_path, indexed_at
		FROM meetings
		WHERE lower(title) LIKE ? OR lower(topics) LIKE ? OR lower(participants) LIKE ?
		ORDER BY date DESC, id DESC`,
		pattern, pattern, pattern)
	if err != nil {
		return nil, fmt.Errorf("search meetings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return collectEntries(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (IndexEntry, error) {
	var (
		entry                IndexEntry
		topics, participants string
		indexedAt            int64
	)

	err := row.Scan(&entry.ID, &entry.Title, &entry.Date, &topics, &participants, &entry.KnowledgePath, &indexedAt)
	if err != nil {
		return IndexEntry{}, err
	}

	if entry.Topics, err = decodeList(topics); err != nil {
		return IndexEntry{}, err
	}
	if entry.Participants, err = decodeList(participants); err != nil {
		return IndexEntry{}, err
	}
	entry.IndexedAt = time.Unix(0, indexedAt)
	return entry, nil
}

func collectEntries(rows *sql.Rows) ([]IndexEntry, error) {
	var entries []IndexEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan meeting: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate meetings: %w", err)
	}
	return entries, nil
}

// Lists are stored as JSON arrays so values containing commas survive the
// round trip; LIKE search still sees the plain text inside the array.
func encodeList(values []string) (string, error) {
	if len(values) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodeList(s string) ([]string, error) {
	if s == "" || s == "[]" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(s), &values); err != nil {
		return nil, fmt.Errorf("decode list column: %w", err)
	}
	return values, nil
}
