// Package knowledge stores approved meeting protocols as Markdown memory
// files, enabling cross-meeting lookup and search.
package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/colonyops/protokoll/internal/core/meeting"
)

// Config holds the knowledge store configuration.
type Config struct {
	Dir     string // directory holding meeting memory files
	Pattern string // doublestar pattern for meeting files, e.g. "**/*.md"
}

// Store writes and searches meeting memory files.
type Store struct {
	cfg Config
}

// NewStore creates a knowledge store.
func NewStore(cfg Config) *Store {
	if cfg.Pattern == "" {
		cfg.Pattern = "**/*.md"
	}
	return &Store{cfg: cfg}
}

// SaveMeeting writes one meeting memory file built from approved content
// only. Files are named <date>-<slug>.md so a directory listing reads as a
// meeting log.
func (s *Store) SaveMeeting(meta meeting.Meeting, protocolMD, summary string, actionItems, decisions, questions []map[string]any) (string, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("create knowledge dir: %w", err)
	}

	date := normalizeDate(meta.Date)
	name := fmt.Sprintf("%s-%s.md", date, meeting.Slugify(meta.Title))
	path := filepath.Join(s.cfg.Dir, name)

	content := buildContent(meta, summary, actionItems, decisions, questions)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write knowledge file: %w", err)
	}

	return path, nil
}

// buildContent renders the memory file with a metadata header for search.
func buildContent(meta meeting.Meeting, summary string, actionItems, decisions, questions []map[string]any) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Meeting: %s\n\n", meta.Title)
	fmt.Fprintf(&b, "**Date:** %s\n", meta.Date)
	fmt.Fprintf(&b, "**Participants:** %s\n", strings.Join(meta.ParticipantNames(), ", "))
	fmt.Fprintf(&b, "**Topics:** %s\n\n", strings.Join(meta.KeyTopics, ", "))

	if summary != "" {
		fmt.Fprintf(&b, "## Summary\n\n%s\n\n", summary)
	}

	if len(actionItems) > 0 {
		b.WriteString("## Action Items\n\n")
		for _, ai := range actionItems {
			deadline := str(ai, "deadline")
			if deadline == "" {
				deadline = "not defined"
			}
			fmt.Fprintf(&b, "- [%s] %s (due %s)\n", str(ai, "assignee"), str(ai, "description"), deadline)
		}
		b.WriteString("\n")
	}

	if len(decisions) > 0 {
		b.WriteString("## Decisions\n\n")
		for _, d := range decisions {
			fmt.Fprintf(&b, "- %s\n", str(d, "description"))
		}
		b.WriteString("\n")
	}

	if len(questions) > 0 {
		b.WriteString("## Open Questions\n\n")
		for _, q := range questions {
			fmt.Fprintf(&b, "- %s\n", str(q, "question"))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// List returns up to limit meeting file paths, newest first.
func (s *Store) List(limit int) ([]string, error) {
	paths, err := s.matchFiles()
	if err != nil {
		return nil, err
	}

	sort.Sort(sort.Reverse(sort.StringSlice(paths)))
	if limit > 0 && len(paths) > limit {
		paths = paths[:limit]
	}
	return paths, nil
}

// SearchResult is one matching meeting file with its matching lines.
type SearchResult struct {
	Path    string   `json:"path"`
	Name    string   `json:"name"`
	Matches []string `json:"matches"`
}

// Search runs a case-insensitive substring search over all meeting files,
// returning up to five matching lines per file.
func (s *Store) Search(query string) ([]SearchResult, error) {
	paths, err := s.matchFiles()
	if err != nil {
		return nil, err
	}

	queryLower := strings.ToLower(query)
	var results []SearchResult

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read knowledge file: %w", err)
		}
		if !strings.Contains(strings.ToLower(string(data)), queryLower) {
			continue
		}

		var matches []string
		for _, line := range strings.Split(string(data), "\n") {
			if strings.Contains(strings.ToLower(line), queryLower) {
				matches = append(matches, strings.TrimSpace(line))
				if len(matches) == 5 {
					break
				}
			}
		}

		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		results = append(results, SearchResult{Path: path, Name: name, Matches: matches})
	}

	return results, nil
}

func (s *Store) matchFiles() ([]string, error) {
	paths, err := doublestar.Glob(os.DirFS(s.cfg.Dir), s.cfg.Pattern)
	if err != nil {
		return nil, fmt.Errorf("match knowledge files: %w", err)
	}

	out := make([]string, len(paths))
	for i, p := range paths {
		out[i] = filepath.Join(s.cfg.Dir, p)
	}
	return out, nil
}

// normalizeDate converts dd.mm.yyyy dates to yyyy-mm-dd for filename sorting.
func normalizeDate(date string) string {
	if parts := strings.Split(date, "."); len(parts) == 3 {
		return fmt.Sprintf("%s-%s-%s", parts[2], parts[1], parts[0])
	}
	if date == "" {
		return time.Now().Format("2006-01-02")
	}
	return date
}

func str(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}
