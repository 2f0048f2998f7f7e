// Package jsonfile persists review sessions as human-inspectable JSON files.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/colonyops/protokoll/internal/core/review"
)

// StateFileName is the review state file within a meeting directory.
const StateFileName = "review_state.json"

// ErrNoSessions is returned by Latest when no persisted session exists.
var ErrNoSessions = fmt.Errorf("no review sessions found")

// sessionFile is the on-disk representation of a review session. The
// progress snapshot is informational only; it is recomputed on load.
type sessionFile struct {
	MeetingID string          `json:"meeting_id"`
	Title     string          `json:"title"`
	CreatedAt time.Time       `json:"created_at"`
	Progress  review.Progress `json:"progress"`
	Items     []itemRecord    `json:"items"`
}

type itemRecord struct {
	ID           string         `json:"id"`
	Kind         string         `json:"kind"`
	Status       string         `json:"status"`
	OriginalData map[string]any `json:"original_data"`
	ApprovedData map[string]any `json:"approved_data,omitempty"`
	ReviewedBy   string         `json:"reviewed_by,omitempty"`
	ReviewedAt   *time.Time     `json:"reviewed_at,omitempty"`
	RejectReason string         `json:"reject_reason,omitempty"`
}

// SessionStore persists one review session per meeting under
// <dir>/<meeting-id>/review_state.json, with overwrite semantics.
type SessionStore struct {
	dir string
	mu  sync.RWMutex
}

// NewSessionStore creates a session store rooted at the meetings directory.
func NewSessionStore(dir string) *SessionStore {
	return &SessionStore{dir: dir}
}

// MeetingDir returns the directory holding a meeting's artifacts.
func (s *SessionStore) MeetingDir(meetingID string) string {
	return filepath.Join(s.dir, meetingID)
}

// Save writes the session state, replacing any previous state for the same
// meeting. The write is atomic (tmp file + rename).
func (s *SessionStore) Save(ctx context.Context, session *review.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	file := sessionFile{
		MeetingID: session.MeetingID,
		Title:     session.Title,
		CreatedAt: session.CreatedAt,
		Progress:  session.Progress(),
		Items:     make([]itemRecord, 0, len(session.Items)),
	}

	for idx := range session.Items {
		item := &session.Items[idx]
		file.Items = append(file.Items, itemRecord{
			ID:           item.ID,
			Kind:         string(item.Kind),
			Status:       string(item.Status),
			OriginalData: item.OriginalData,
			ApprovedData: item.ApprovedData,
			ReviewedBy:   item.ReviewedBy,
			ReviewedAt:   item.ReviewedAt,
			RejectReason: item.RejectReason,
		})
	}

	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal review state: %w", err)
	}

	path := filepath.Join(s.MeetingDir(session.MeetingID), StateFileName)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create meeting dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write review state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace review state: %w", err)
	}

	return nil
}

// Load reconstructs a session from its persisted state. Missing required
// fields or unrecognized status/kind values fail with review.ErrMalformedState
// and never yield a partially populated session.
func (s *SessionStore) Load(ctx context.Context, meetingID string) (*review.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := filepath.Join(s.MeetingDir(meetingID), StateFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read review state: %w", err)
	}

	// Items is kept raw so an absent key is distinguishable from an empty
	// list: only the latter is a valid (fully reviewed) state.
	var file struct {
		MeetingID string          `json:"meeting_id"`
		Title     string          `json:"title"`
		CreatedAt time.Time       `json:"created_at"`
		Items     json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: %s", review.ErrMalformedState, err)
	}

	if file.MeetingID == "" {
		return nil, fmt.Errorf("%w: missing meeting_id", review.ErrMalformedState)
	}
	if file.Title == "" {
		return nil, fmt.Errorf("%w: missing title", review.ErrMalformedState)
	}
	if file.CreatedAt.IsZero() {
		return nil, fmt.Errorf("%w: missing created_at", review.ErrMalformedState)
	}
	if len(file.Items) == 0 || string(file.Items) == "null" {
		return nil, fmt.Errorf("%w: missing items", review.ErrMalformedState)
	}

	var records []itemRecord
	if err := json.Unmarshal(file.Items, &records); err != nil {
		return nil, fmt.Errorf("%w: %s", review.ErrMalformedState, err)
	}

	items := make([]review.Item, 0, len(records))
	for _, rec := range records {
		items = append(items, review.Item{
			ID:           rec.ID,
			Kind:         review.Kind(rec.Kind),
			Status:       review.Status(rec.Status),
			OriginalData: rec.OriginalData,
			ApprovedData: rec.ApprovedData,
			ReviewedBy:   rec.ReviewedBy,
			ReviewedAt:   rec.ReviewedAt,
			RejectReason: rec.RejectReason,
		})
	}

	// Restore enforces the per-item invariants (valid enums, approved_data
	// iff approved, reviewed_at iff reviewed).
	return review.Restore(file.MeetingID, file.Title, file.CreatedAt, items)
}

// Latest returns the meeting ID of the most recently created session.
// Meeting IDs are timestamp-derived, so lexical order is creation order.
func (s *SessionStore) Latest(ctx context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNoSessions
		}
		return "", fmt.Errorf("read meetings dir: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.dir, entry.Name(), StateFileName)); err == nil {
			ids = append(ids, entry.Name())
		}
	}

	if len(ids) == 0 {
		return "", ErrNoSessions
	}

	sort.Strings(ids)
	return ids[len(ids)-1], nil
}
