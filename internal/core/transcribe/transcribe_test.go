package transcribe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptSaveLoad(t *testing.T) {
	tr := Transcript{
		Text:     "Anna: let's ship.",
		Language: "de",
		Duration: 123.4,
		Segments: []Segment{
			{Start: 0, End: 4.2, Text: "Anna: let's ship."},
		},
		Provider: "openai-whisper",
		Model:    "whisper-1",
	}

	path := filepath.Join(t.TempDir(), "transcript.json")
	require.NoError(t, tr.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, tr, loaded)
}

func TestTranscribe(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "meeting.m4a")
	require.NoError(t, os.WriteFile(audioPath, []byte("fake audio bytes"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/audio/transcriptions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "whisper-1", r.FormValue("model"))
		assert.Equal(t, "de", r.FormValue("language"))
		assert.Equal(t, "verbose_json", r.FormValue("response_format"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer func() { _ = file.Close() }()
		assert.Equal(t, "meeting.m4a", header.Filename)

		_ = json.NewEncoder(w).Encode(map[string]any{
			"text":     "Anna: let's ship.",
			"language": "de",
			"duration": 123.4,
			"segments": []map[string]any{
				{"start": 0, "end": 4.2, "text": "Anna: let's ship."},
			},
		})
	}))
	defer server.Close()

	tr := NewTranscriber(Config{
		Provider: "openai-whisper",
		Model:    "whisper-1",
		Language: "de",
		APIKey:   "test-key",
		BaseURL:  server.URL,
	}, zerolog.Nop())

	got, err := tr.Transcribe(context.Background(), audioPath)
	require.NoError(t, err)

	assert.Equal(t, "Anna: let's ship.", got.Text)
	assert.Equal(t, "de", got.Language)
	assert.Equal(t, "openai-whisper", got.Provider)
	assert.Equal(t, "whisper-1", got.Model)
	require.Len(t, got.Segments, 1)
	assert.InDelta(t, 4.2, got.Segments[0].End, 1e-9)
}

func TestTranscribeAPIError(t *testing.T) {
	audioPath := filepath.Join(t.TempDir(), "meeting.m4a")
	require.NoError(t, os.WriteFile(audioPath, []byte("x"), 0o644))

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "invalid api key"},
		})
	}))
	defer server.Close()

	tr := NewTranscriber(Config{Model: "whisper-1", BaseURL: server.URL}, zerolog.Nop())

	_, err := tr.Transcribe(context.Background(), audioPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid api key")
}

func TestTranscribeMissingAudio(t *testing.T) {
	tr := NewTranscriber(Config{Model: "whisper-1"}, zerolog.Nop())

	_, err := tr.Transcribe(context.Background(), filepath.Join(t.TempDir(), "nope.m4a"))
	require.Error(t, err)
}

func TestEstimateCost(t *testing.T) {
	tr := NewTranscriber(Config{Provider: "openai-whisper"}, zerolog.Nop())
	assert.InDelta(t, 0.006, tr.EstimateCost(60), 1e-9)
	assert.InDelta(t, 0.36, tr.EstimateCost(3600), 1e-9)

	local := NewTranscriber(Config{Provider: "local"}, zerolog.Nop())
	assert.Zero(t, local.EstimateCost(3600))
}
