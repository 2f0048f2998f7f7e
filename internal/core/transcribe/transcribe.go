// Package transcribe wraps the speech-to-text service that turns meeting
// audio into a transcript.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.openai.com"

// Segment is a timestamped slice of the transcript.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Transcript is the result of transcribing one audio file.
type Transcript struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
	Provider string    `json:"provider"`
	Model    string    `json:"model"`
}

// Save writes the transcript as indented JSON to path.
func (t Transcript) Save(path string) error {
	data, err := json.MarshalIndent(t, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write transcript: %w", err)
	}
	return nil
}

// Load reads a previously saved transcript from path.
func Load(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("read transcript: %w", err)
	}

	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return Transcript{}, fmt.Errorf("parse transcript: %w", err)
	}
	return t, nil
}

// Config holds the transcriber configuration.
type Config struct {
	Provider string // currently only "openai-whisper"
	Model    string
	Language string
	APIKey   string
	BaseURL  string
}

// Transcriber transcribes audio files via the OpenAI audio API.
type Transcriber struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
}

// NewTranscriber creates a transcriber with the given configuration.
func NewTranscriber(cfg Config, logger zerolog.Logger) *Transcriber {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &Transcriber{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Minute},
		log:  logger.With().Str("component", "transcriber").Logger(),
	}
}

type verboseResponse struct {
	Text     string    `json:"text"`
	Language string    `json:"language"`
	Duration float64   `json:"duration"`
	Segments []Segment `json:"segments"`
	Error    *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe uploads the audio file and returns the transcript with segment
// timestamps.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) (Transcript, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return Transcript{}, fmt.Errorf("open audio: %w", err)
	}
	defer func() { _ = f.Close() }()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", filepath.Base(audioPath))
	if err != nil {
		return Transcript{}, fmt.Errorf("build upload: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return Transcript{}, fmt.Errorf("read audio: %w", err)
	}

	fields := map[string]string{
		"model":           t.cfg.Model,
		"language":        t.cfg.Language,
		"response_format": "verbose_json",
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return Transcript{}, fmt.Errorf("build upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return Transcript{}, fmt.Errorf("build upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.BaseURL+"/v1/audio/transcriptions", &body)
	if err != nil {
		return Transcript{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+t.cfg.APIKey)

	resp, err := t.http.Do(req)
	if err != nil {
		return Transcript{}, fmt.Errorf("call transcription API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Transcript{}, fmt.Errorf("read response: %w", err)
	}

	var vr verboseResponse
	if err := json.Unmarshal(raw, &vr); err != nil {
		return Transcript{}, fmt.Errorf("parse response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		msg := resp.Status
		if vr.Error != nil {
			msg = vr.Error.Message
		}
		return Transcript{}, fmt.Errorf("transcription API: %s", msg)
	}

	result := Transcript{
		Text:     vr.Text,
		Language: vr.Language,
		Duration: vr.Duration,
		Segments: vr.Segments,
		Provider: t.cfg.Provider,
		Model:    t.cfg.Model,
	}

	t.log.Info().
		Float64("duration_sec", result.Duration).
		Int("chars", len(result.Text)).
		Str("language", result.Language).
		Msg("transcription complete")

	return result, nil
}

// EstimateCost returns the estimated transcription cost in USD
// ($0.006 per minute for the hosted API).
func (t *Transcriber) EstimateCost(durationSeconds float64) float64 {
	if t.cfg.Provider != "openai-whisper" {
		return 0
	}
	return durationSeconds / 60 * 0.006
}
