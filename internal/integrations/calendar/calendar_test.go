package calendar

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	output  []byte
	err     error
	lastCmd string
	args    []string
}

func (f *fakeExecutor) Run(_ context.Context, cmd string, args ...string) ([]byte, error) {
	f.lastCmd = cmd
	f.args = args
	return f.output, f.err
}

const eventsJSON = `[
  {
    "subject": "Weekly Sync",
    "start": {"dateTime": "2025-08-25T10:00:00.0000000"},
    "end": {"dateTime": "2025-08-25T11:00:00.0000000"},
    "location": {"displayName": "Room 2.01"},
    "organizer": {"emailAddress": {"name": "Anna Schmidt"}},
    "attendees": [
      {"emailAddress": {"name": "Max Weber", "address": "max@example.com"}, "status": {"response": "accepted"}}
    ],
    "body": {"content": "Agenda:<br>- Rollout status update<br>- Budget planning<br>regards"},
    "isOnlineMeeting": true,
    "onlineMeeting": {"joinUrl": "https://teams.example.com/join/abc"}
  },
  {
    "subject": "Budget Review",
    "start": {"dateTime": "2025-08-25T14:00:00.0000000"},
    "end": {"dateTime": "2025-08-25T15:00:00.0000000"},
    "location": {"displayName": ""},
    "organizer": {"emailAddress": {"name": "Max Weber"}},
    "attendees": [],
    "body": {"content": ""},
    "isOnlineMeeting": false
  }
]`

func newTestClient(exec *fakeExecutor) *Client {
	return NewClient(Config{Profile: "work", ScriptDir: "/opt/m365"}, exec, zerolog.Nop())
}

func TestTodaysMeetings(t *testing.T) {
	exec := &fakeExecutor{output: []byte(eventsJSON)}
	client := newTestClient(exec)

	events, err := client.TodaysMeetings(context.Background())
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "node", exec.lastCmd)
	assert.Equal(t, []string{"/opt/m365/list-events.mjs", "--profile", "work", "--days", "1", "--top", "20", "--json"}, exec.args)

	weekly := events[0]
	assert.Equal(t, "Weekly Sync", weekly.Title)
	assert.Equal(t, "2025-08-25", weekly.Date)
	assert.Equal(t, "10:00", weekly.StartTime)
	assert.Equal(t, "11:00", weekly.EndTime)
	assert.Equal(t, "Room 2.01", weekly.Location)
	assert.Equal(t, "Anna Schmidt", weekly.Organizer)
	assert.Equal(t, []string{"Max Weber"}, weekly.AttendeeNames())
	assert.Equal(t, []string{"Rollout status update", "Budget planning"}, weekly.Agenda)
	assert.True(t, weekly.IsOnline)
	assert.Equal(t, "https://teams.example.com/join/abc", weekly.JoinURL)

	// missing location defaults to Online
	assert.Equal(t, "Online", events[1].Location)
}

func TestFindMeetingByTime(t *testing.T) {
	// Graph start times carry no offset and seven fractional digits
	client := newTestClient(&fakeExecutor{output: []byte(eventsJSON)})

	at := time.Date(2025, 8, 25, 10, 10, 0, 0, time.UTC)

	found, err := client.FindMeetingByTime(context.Background(), at)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Weekly Sync", found.Title)
}

func TestFindMeetingByTimePicksNearest(t *testing.T) {
	events := `[
	  {"subject": "Early", "start": {"dateTime": "2025-08-25T09:45:00.0000000"}, "end": {"dateTime": "2025-08-25T10:00:00.0000000"}},
	  {"subject": "Close", "start": {"dateTime": "2025-08-25T10:05:00.0000000"}, "end": {"dateTime": "2025-08-25T11:00:00.0000000"}}
	]`
	client := newTestClient(&fakeExecutor{output: []byte(events)})

	found, err := client.FindMeetingByTime(context.Background(), time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Close", found.Title)
}

func TestFindMeetingByTimeOutsideTolerance(t *testing.T) {
	events := `[{"subject": "Far", "start": {"dateTime": "2025-08-25T16:00:00.0000000"}, "end": {"dateTime": "2025-08-25T17:00:00.0000000"}}]`
	client := newTestClient(&fakeExecutor{output: []byte(events)})

	found, err := client.FindMeetingByTime(context.Background(), time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestParseStart(t *testing.T) {
	berlin := time.FixedZone("CEST", 2*60*60)

	graph, err := parseStart("2025-08-25T10:00:00.0000000", berlin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 25, 10, 0, 0, 0, berlin), graph)

	utc, err := parseStart("2025-08-25T10:00:00Z", berlin)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 8, 25, 10, 0, 0, 0, time.UTC), utc.UTC())

	_, err = parseStart("today at ten", berlin)
	require.Error(t, err)
}

func TestListEventsFailure(t *testing.T) {
	client := newTestClient(&fakeExecutor{err: fmt.Errorf("node not found")})

	_, err := client.TodaysMeetings(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "query calendar")
}

func TestExtractAgenda(t *testing.T) {
	cases := []struct {
		name string
		body string
		want []string
	}{
		{
			name: "bulleted html body",
			body: "<p>Hi all</p><br>- Rollout status<br>* Budget talk<br>see you",
			want: []string{"Rollout status", "Budget talk"},
		},
		{
			name: "numbered list",
			body: "1. Kickoff notes\n2. Next steps",
			want: []string{"Kickoff notes", "Next steps"},
		},
		{
			name: "short items dropped",
			body: "- ok\n- Longer agenda item",
			want: []string{"Longer agenda item"},
		},
		{
			name: "empty body",
			body: "",
			want: nil,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, extractAgenda(tc.body))
		})
	}
}
