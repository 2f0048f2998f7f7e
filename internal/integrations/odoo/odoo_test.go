package odoo

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/colonyops/protokoll/internal/core/config"
)

func testConnector(minScore int) *Connector {
	return &Connector{
		cfg: Config{MinScore: minScore},
		contacts: []Contact{
			{Name: "Anna Schmidt", Email: "anna@example.com", OdooID: 42},
			{Name: "Max Weber", Email: "max@example.com", OdooID: 7},
		},
		log: zerolog.Nop(),
	}
}

func TestMatchSpeakerExact(t *testing.T) {
	c := testConnector(70)

	m := c.MatchSpeaker("anna schmidt")
	assert.True(t, m.Matched())
	assert.Equal(t, "anna schmidt", m.OriginalName)
	assert.Equal(t, "Anna Schmidt", m.MatchedName)
	assert.Equal(t, 42, m.OdooID)
	assert.Equal(t, 100, m.Confidence)
}

func TestMatchSpeakerFuzzy(t *testing.T) {
	// default cutoff from config.DefaultConfig().Odoo.MinScore
	c := testConnector(config.DefaultConfig().Odoo.MinScore)

	t.Run("first name only", func(t *testing.T) {
		m := c.MatchSpeaker("Anna")
		assert.True(t, m.Matched())
		assert.Equal(t, "Anna Schmidt", m.MatchedName)
		assert.Equal(t, "anna@example.com", m.Email)
		assert.Equal(t, 90, m.Confidence)
	})

	t.Run("typo in last name", func(t *testing.T) {
		m := c.MatchSpeaker("Anna Schmit")
		assert.True(t, m.Matched())
		assert.Equal(t, "Anna Schmidt", m.MatchedName)
		assert.GreaterOrEqual(t, m.Confidence, 90)
	})

	t.Run("scattered letters stay unmatched", func(t *testing.T) {
		m := c.MatchSpeaker("as")
		assert.False(t, m.Matched())
	})
}

func TestMatchSpeakerBelowMinScore(t *testing.T) {
	c := testConnector(100)

	m := c.MatchSpeaker("Anna")
	assert.False(t, m.Matched())
	assert.Equal(t, "Anna", m.OriginalName)
	assert.Zero(t, m.OdooID)
}

func TestMatchSpeakerUnknownName(t *testing.T) {
	c := testConnector(0)

	m := c.MatchSpeaker("Zzzz Qqqq")
	assert.False(t, m.Matched())
}

func TestSimilarity(t *testing.T) {
	cases := []struct {
		name      string
		candidate string
		want      int
	}{
		{name: "anna", candidate: "Anna Schmidt", want: 90},
		{name: "Max", candidate: "Max Weber", want: 90},
		{name: "anna schmidt", candidate: "Anna Schmidt", want: 100},
		{name: "as", candidate: "Anna Schmidt", want: 29},
		{name: "", candidate: "", want: 0},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, similarity(tc.name, tc.candidate), "%q vs %q", tc.name, tc.candidate)
	}
}

func TestMatchParticipants(t *testing.T) {
	c := testConnector(0)

	matches := c.MatchParticipants([]string{"Max Weber", "Zzzz Qqqq"})
	assert.Len(t, matches, 2)
	assert.True(t, matches[0].Matched())
	assert.False(t, matches[1].Matched())
}

func TestPriorityValue(t *testing.T) {
	cases := []struct {
		priority string
		want     string
	}{
		{priority: "high", want: "3"},
		{priority: "Hoch", want: "3"},
		{priority: "low", want: "0"},
		{priority: "niedrig", want: "0"},
		{priority: "medium", want: "1"},
		{priority: "", want: "1"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, priorityValue(tc.priority), "priority %q", tc.priority)
	}
}

func TestNormalizeDeadline(t *testing.T) {
	cases := []struct {
		deadline string
		want     string
	}{
		{deadline: "25.08.2025", want: "2025-08-25"},
		{deadline: "2025-08-25", want: "2025-08-25"},
		{deadline: "not defined", want: ""},
		{deadline: "nicht definiert", want: ""},
		{deadline: "", want: ""},
		{deadline: "next week", want: ""},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeDeadline(tc.deadline), "deadline %q", tc.deadline)
	}
}
