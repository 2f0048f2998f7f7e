// Package meeting defines meeting metadata types.
package meeting

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"
)

// IDFormat is the timestamp layout used for meeting IDs.
const IDFormat = "20060102-150405"

// NewID derives a meeting ID from the given time.
func NewID(t time.Time) string {
	return t.Format(IDFormat)
}

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify converts a title to a filename-safe slug, capped at 60 characters.
// "Budget Meeting Q2" -> "budget-meeting-q2"
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))
	s = nonAlphanumeric.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 60 {
		s = strings.Trim(s[:60], "-")
	}
	return s
}

// Participant is a meeting attendee, optionally matched to a directory contact.
type Participant struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	OdooID     int    `json:"odoo_id,omitempty"`
	Present    bool   `json:"present"`
	Confidence int    `json:"confidence,omitempty"`
}

// Meeting holds the metadata for one processed meeting and the paths to its
// artifacts.
type Meeting struct {
	ID           string        `json:"meeting_id"`
	Title        string        `json:"title"`
	Date         string        `json:"date"`
	StartTime    string        `json:"start_time,omitempty"`
	EndTime      string        `json:"end_time,omitempty"`
	Location     string        `json:"location,omitempty"`
	Participants []Participant `json:"participants"`
	KeyTopics    []string      `json:"key_topics,omitempty"`

	AudioPath      string `json:"audio_path,omitempty"`
	TranscriptPath string `json:"transcript_path,omitempty"`
	AnalysisPath   string `json:"analysis_path,omitempty"`
	DraftPath      string `json:"protocol_draft_path,omitempty"`
}

// ParticipantNames returns the names of all participants.
func (m Meeting) ParticipantNames() []string {
	names := make([]string, len(m.Participants))
	for i, p := range m.Participants {
		names[i] = p.Name
	}
	return names
}

// Save writes the meeting metadata as indented JSON to path.
func (m Meeting) Save(path string) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal meeting metadata: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write meeting metadata: %w", err)
	}
	return nil
}

// Load reads meeting metadata from path.
func Load(path string) (Meeting, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Meeting{}, fmt.Errorf("read meeting metadata: %w", err)
	}

	var m Meeting
	if err := json.Unmarshal(data, &m); err != nil {
		return Meeting{}, fmt.Errorf("parse meeting metadata: %w", err)
	}
	return m, nil
}
