// Package calendar pulls meeting metadata from an M365 calendar to auto-fill
// meeting context. It shells out to the m365-calendar helper script and
// treats every failure as soft: the pipeline proceeds without calendar data.
package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/colonyops/protokoll/pkg/executil"
)

// Config holds the calendar client configuration.
type Config struct {
	Profile   string        // m365 credential profile
	ScriptDir string        // directory holding list-events.mjs
	Tolerance time.Duration // max distance between event start and meeting time
}

// Attendee is one invitee of a calendar event.
type Attendee struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Response string `json:"response"`
}

// Event is a parsed calendar event.
type Event struct {
	Title     string
	Date      string
	StartTime string
	EndTime   string
	Location  string
	Organizer string
	Attendees []Attendee
	Agenda    []string
	IsOnline  bool
	JoinURL   string
}

// AttendeeNames returns the names of all attendees.
func (e Event) AttendeeNames() []string {
	names := make([]string, len(e.Attendees))
	for i, a := range e.Attendees {
		names[i] = a.Name
	}
	return names
}

// Client queries the calendar helper script.
type Client struct {
	cfg  Config
	exec executil.Executor
	log  zerolog.Logger
}

// NewClient creates a calendar client using the given executor.
func NewClient(cfg Config, exec executil.Executor, logger zerolog.Logger) *Client {
	if cfg.Tolerance == 0 {
		cfg.Tolerance = 30 * time.Minute
	}
	return &Client{
		cfg:  cfg,
		exec: exec,
		log:  logger.With().Str("component", "calendar").Logger(),
	}
}

type rawEvent struct {
	Subject string `json:"subject"`
	Start   struct {
		DateTime string `json:"dateTime"`
	} `json:"start"`
	End struct {
		DateTime string `json:"dateTime"`
	} `json:"end"`
	Location struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
	Organizer struct {
		EmailAddress struct {
			Name string `json:"name"`
		} `json:"emailAddress"`
	} `json:"organizer"`
	Attendees []struct {
		EmailAddress struct {
			Name    string `json:"name"`
			Address string `json:"address"`
		} `json:"emailAddress"`
		Status struct {
			Response string `json:"response"`
		} `json:"status"`
	} `json:"attendees"`
	Body struct {
		Content string `json:"content"`
	} `json:"body"`
	IsOnlineMeeting bool `json:"isOnlineMeeting"`
	OnlineMeeting   struct {
		JoinURL string `json:"joinUrl"`
	} `json:"onlineMeeting"`
}

// TodaysMeetings returns all events for the current day.
func (c *Client) TodaysMeetings(ctx context.Context) ([]Event, error) {
	raw, err := c.listEvents(ctx)
	if err != nil {
		return nil, err
	}

	events := make([]Event, len(raw))
	for i, re := range raw {
		events[i] = parseEvent(re)
	}
	return events, nil
}

// FindMeetingByTime returns the event whose start is closest to meetingTime
// within the configured tolerance, or nil when none qualifies.
func (c *Client) FindMeetingByTime(ctx context.Context, meetingTime time.Time) (*Event, error) {
	raw, err := c.listEvents(ctx)
	if err != nil {
		return nil, err
	}

	var (
		best     *rawEvent
		bestDiff time.Duration
	)
	for i := range raw {
		start, err := parseStart(raw[i].Start.DateTime, meetingTime.Location())
		if err != nil {
			continue
		}
		diff := meetingTime.Sub(start)
		if diff < 0 {
			diff = -diff
		}
		if diff <= c.cfg.Tolerance && (best == nil || diff < bestDiff) {
			best = &raw[i]
			bestDiff = diff
		}
	}

	if best == nil {
		return nil, nil
	}

	event := parseEvent(*best)
	return &event, nil
}

// parseStart parses an event start timestamp. Graph returns offset-less
// local timestamps with fractional seconds ("2025-08-25T10:00:00.0000000");
// those are interpreted in loc. Timestamps carrying an offset parse as-is.
func parseStart(dt string, loc *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, dt); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02T15:04:05", dt, loc)
}

func (c *Client) listEvents(ctx context.Context) ([]rawEvent, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	out, err := c.exec.Run(ctx, "node", filepath.Join(c.cfg.ScriptDir, "list-events.mjs"),
		"--profile", c.cfg.Profile,
		"--days", "1",
		"--top", "20",
		"--json",
	)
	if err != nil {
		return nil, fmt.Errorf("query calendar: %w", err)
	}

	var events []rawEvent
	if err := json.Unmarshal(out, &events); err != nil {
		return nil, fmt.Errorf("parse calendar response: %w", err)
	}
	return events, nil
}

func parseEvent(re rawEvent) Event {
	start := re.Start.DateTime
	end := re.End.DateTime

	event := Event{
		Title:     re.Subject,
		Location:  re.Location.DisplayName,
		Organizer: re.Organizer.EmailAddress.Name,
		Agenda:    extractAgenda(re.Body.Content),
		IsOnline:  re.IsOnlineMeeting,
		JoinURL:   re.OnlineMeeting.JoinURL,
	}
	if event.Location == "" {
		event.Location = "Online"
	}

	if len(start) >= 10 {
		event.Date = start[:10]
	}
	if len(start) >= 16 {
		event.StartTime = start[11:16]
	}
	if len(end) >= 16 {
		event.EndTime = end[11:16]
	}

	for _, a := range re.Attendees {
		event.Attendees = append(event.Attendees, Attendee{
			Name:     a.EmailAddress.Name,
			Email:    a.EmailAddress.Address,
			Response: a.Status.Response,
		})
	}

	return event
}

// extractAgenda pulls bullet and numbered list lines out of an event body.
func extractAgenda(body string) []string {
	if body == "" {
		return nil
	}

	replacer := strings.NewReplacer("<br>", "\n", "<p>", "\n", "</p>", "")
	body = replacer.Replace(body)

	var agenda []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !isListLine(line) {
			continue
		}
		clean := strings.TrimLeft(line, "0123456789.-*• \t")
		clean = strings.TrimSpace(clean)
		if len(clean) > 3 {
			agenda = append(agenda, clean)
		}
	}
	return agenda
}

func isListLine(line string) bool {
	for _, prefix := range []string{"1.", "2.", "3.", "4.", "5.", "-", "*", "•"} {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}
