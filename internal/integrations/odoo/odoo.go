// Package odoo connects meeting review output to an Odoo instance: matching
// attendee names to contacts and creating tasks from approved action items.
package odoo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sahilm/fuzzy"
)

// Config holds the Odoo connection configuration.
type Config struct {
	URL          string
	Database     string
	Username     string
	APIKey       string
	ContactsPath string // JSON contact directory used for fuzzy matching
	ProjectID    int    // optional project for created tasks
	MinScore     int    // minimum similarity (0-100); below it a name is unmatched
}

// Contact is one entry of the contact directory.
type Contact struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	OdooID int    `json:"odoo_id"`
}

// Match is the result of matching a transcript name against the directory.
type Match struct {
	OriginalName string
	MatchedName  string
	Email        string
	OdooID       int
	Confidence   int
}

// Matched reports whether the name was resolved to a contact.
func (m Match) Matched() bool {
	return m.MatchedName != ""
}

// Connector talks to Odoo over XML-RPC.
type Connector struct {
	cfg      Config
	http     *http.Client
	uid      int
	contacts []Contact
	log      zerolog.Logger
}

// Connect loads the contact directory and authenticates against Odoo.
func Connect(ctx context.Context, cfg Config, logger zerolog.Logger) (*Connector, error) {
	raw, err := os.ReadFile(cfg.ContactsPath)
	if err != nil {
		return nil, fmt.Errorf("read contacts: %w", err)
	}

	var contacts []Contact
	if err := json.Unmarshal(raw, &contacts); err != nil {
		return nil, fmt.Errorf("parse contacts: %w", err)
	}

	c := &Connector{
		cfg:      cfg,
		http:     &http.Client{Timeout: 30 * time.Second},
		contacts: contacts,
		log:      logger.With().Str("component", "odoo").Logger(),
	}

	uid, err := xmlrpcCall(ctx, c.http, cfg.URL+"/xmlrpc/2/common", "authenticate",
		[]any{cfg.Database, cfg.Username, cfg.APIKey, map[string]any{}})
	if err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	c.uid = uid

	c.log.Info().Str("url", cfg.URL).Int("contacts", len(contacts)).Msg("odoo connected")
	return c, nil
}

// MatchSpeaker resolves a transcript name to a directory contact. Exact
// (case-insensitive) matches win; otherwise fuzzy candidates are scored on a
// 0-100 similarity scale and the best one at or above MinScore is used.
func (c *Connector) MatchSpeaker(name string) Match {
	for _, contact := range c.contacts {
		if strings.EqualFold(contact.Name, name) {
			return Match{
				OriginalName: name,
				MatchedName:  contact.Name,
				Email:        contact.Email,
				OdooID:       contact.OdooID,
				Confidence:   100,
			}
		}
	}

	names := make([]string, len(c.contacts))
	for i, contact := range c.contacts {
		names[i] = contact.Name
	}

	best := Match{OriginalName: name}
	for _, m := range fuzzy.Find(name, names) {
		contact := c.contacts[m.Index]
		conf := similarity(name, contact.Name)
		if conf > best.Confidence {
			best = Match{
				OriginalName: name,
				MatchedName:  contact.Name,
				Email:        contact.Email,
				OdooID:       contact.OdooID,
				Confidence:   conf,
			}
		}
	}

	if !best.Matched() || best.Confidence < c.cfg.MinScore {
		c.log.Debug().Str("name", name).Msg("no contact match")
		return Match{OriginalName: name}
	}

	c.log.Debug().
		Str("name", name).
		Str("matched", best.MatchedName).
		Int("confidence", best.Confidence).
		Msg("fuzzy contact match")

	return best
}

// similarity scores name against a contact name in percent. Raw fuzzy match
// scores are unbounded, so candidates are re-scored: the whole name and each
// of its tokens are compared so a bare first name still rates high against
// "First Last". Token-only matches are damped to 90% of their ratio.
func similarity(name, candidate string) int {
	name = strings.ToLower(name)
	candidate = strings.ToLower(candidate)

	best := overlapRatio(name, candidate)
	for _, token := range strings.Fields(candidate) {
		if r := overlapRatio(name, token) * 9 / 10; r > best {
			best = r
		}
	}
	return best
}

// overlapRatio is 2*matched/(len(a)+len(b)) in percent, where matched counts
// the runes of a found in order within b.
func overlapRatio(a, b string) int {
	ar, br := []rune(a), []rune(b)
	if len(ar)+len(br) == 0 {
		return 0
	}

	matched, i := 0, 0
	for _, r := range br {
		if i < len(ar) && ar[i] == r {
			matched++
			i++
		}
	}
	return 200 * matched / (len(ar) + len(br))
}

// MatchParticipants resolves a list of attendee names against the directory.
// Unmatched names are returned with only OriginalName set.
func (c *Connector) MatchParticipants(names []string) []Match {
	out := make([]Match, len(names))
	for i, name := range names {
		out[i] = c.MatchSpeaker(name)
	}
	return out
}

// priorityValue maps review priorities onto Odoo's task priority field.
func priorityValue(priority string) string {
	switch strings.ToLower(priority) {
	case "high", "hoch":
		return "3"
	case "low", "niedrig":
		return "0"
	default:
		return "1"
	}
}

// NormalizeDeadline converts a dd.mm.yyyy deadline to Odoo's yyyy-mm-dd.
// Unparseable or undefined deadlines return empty.
func NormalizeDeadline(deadline string) string {
	switch deadline {
	case "", "not defined", "nicht definiert":
		return ""
	}

	if parts := strings.Split(deadline, "."); len(parts) == 3 {
		return fmt.Sprintf("%s-%s-%s", parts[2], parts[1], parts[0])
	}
	if _, err := time.Parse("2006-01-02", deadline); err == nil {
		return deadline
	}
	return ""
}

// CreateTask creates an Odoo task from an approved action item's field map
// and returns the task ID. The assignee must resolve against the contact
// directory.
func (c *Connector) CreateTask(ctx context.Context, actionItem map[string]any) (int, error) {
	assignee, _ := actionItem["assignee"].(string)
	description, _ := actionItem["description"].(string)

	match := c.MatchSpeaker(assignee)
	if !match.Matched() {
		return 0, fmt.Errorf("assignee %q not found in contact directory", assignee)
	}

	taskData := map[string]any{
		"name":        description,
		"user_ids":    []any{[]any{4, match.OdooID, false}},
		"priority":    priorityValue(str(actionItem, "priority")),
		"description": str(actionItem, "context"),
	}
	if deadline := NormalizeDeadline(str(actionItem, "deadline")); deadline != "" {
		taskData["date_deadline"] = deadline
	}
	if c.cfg.ProjectID != 0 {
		taskData["project_id"] = c.cfg.ProjectID
	}

	taskID, err := xmlrpcCall(ctx, c.http, c.cfg.URL+"/xmlrpc/2/object", "execute_kw",
		[]any{
			c.cfg.Database, c.uid, c.cfg.APIKey,
			"project.task", "create",
			[]any{taskData},
		})
	if err != nil {
		return 0, fmt.Errorf("create task %q: %w", description, err)
	}

	c.log.Info().
		Int("task_id", taskID).
		Str("description", description).
		Str("assignee", match.MatchedName).
		Msg("odoo task created")

	return taskID, nil
}

func str(data map[string]any, key string) string {
	if s, ok := data[key].(string); ok {
		return s
	}
	return ""
}
