// Package config handles configuration loading and validation for protokoll.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Transcription TranscriptionConfig `yaml:"transcription"`
	Analysis      AnalysisConfig      `yaml:"analysis"`
	Protocol      ProtocolConfig      `yaml:"protocol"`
	Odoo          OdooConfig          `yaml:"odoo"`
	Calendar      CalendarConfig      `yaml:"calendar"`
	Knowledge     KnowledgeConfig     `yaml:"knowledge"`
	DataDir       string              `yaml:"-"` // set by caller, not from config file
}

// TranscriptionConfig configures the speech-to-text provider.
type TranscriptionConfig struct {
	Provider  string `yaml:"provider"` // transcription backend (openai-whisper)
	Model     string `yaml:"model"`
	Language  string `yaml:"language"`
	APIKeyEnv string `yaml:"api_key_env"` // env var holding the API key
	BaseURL   string `yaml:"base_url"`
}

// AnalysisConfig configures the analysis model.
type AnalysisConfig struct {
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
	APIKeyEnv string `yaml:"api_key_env"`
	BaseURL   string `yaml:"base_url"`
}

// ProtocolConfig configures protocol rendering.
type ProtocolConfig struct {
	TemplatePath string `yaml:"template_path"` // empty = built-in template
}

// OdooConfig configures the Odoo task integration. Disabled when URL is empty.
type OdooConfig struct {
	URL          string `yaml:"url"`
	Database     string `yaml:"database"`
	Username     string `yaml:"username"`
	APIKeyEnv    string `yaml:"api_key_env"`
	ContactsPath string `yaml:"contacts_path"`
	ProjectID    int    `yaml:"project_id"`
	MinScore     int    `yaml:"min_score"` // fuzzy match cutoff, 0-100
}

// CalendarConfig configures M365 calendar lookup. Disabled when Profile is empty.
type CalendarConfig struct {
	Profile      string `yaml:"profile"`
	ScriptDir    string `yaml:"script_dir"`
	ToleranceMin int    `yaml:"tolerance_minutes"`
}

// KnowledgeConfig configures the markdown knowledge store.
type KnowledgeConfig struct {
	Dir string `yaml:"dir"` // empty = <data_dir>/knowledge
}

// Tolerance returns the calendar match tolerance as a duration.
func (c CalendarConfig) Tolerance() time.Duration {
	return time.Duration(c.ToleranceMin) * time.Minute
}

// Enabled reports whether the Odoo integration is configured.
func (o OdooConfig) Enabled() bool {
	return o.URL != ""
}

// Enabled reports whether the calendar integration is configured.
func (c CalendarConfig) Enabled() bool {
	return c.Profile != ""
}

// APIKey resolves the configured env var for the transcription key.
func (t TranscriptionConfig) APIKey() string {
	return os.Getenv(t.APIKeyEnv)
}

// APIKey resolves the configured env var for the analysis key.
func (a AnalysisConfig) APIKey() string {
	return os.Getenv(a.APIKeyEnv)
}

// APIKey resolves the configured env var for the Odoo key.
func (o OdooConfig) APIKey() string {
	return os.Getenv(o.APIKeyEnv)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Transcription: TranscriptionConfig{
			Provider:  "openai-whisper",
			Model:     "whisper-1",
			Language:  "de",
			APIKeyEnv: "OPENAI_API_KEY",
			BaseURL:   "https://api.openai.com",
		},
		Analysis: AnalysisConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 8192,
			APIKeyEnv: "ANTHROPIC_API_KEY",
			BaseURL:   "https://api.anthropic.com",
		},
		Odoo: OdooConfig{
			APIKeyEnv: "ODOO_API_KEY",
			MinScore:  70,
		},
		Calendar: CalendarConfig{
			ToleranceMin: 30,
		},
	}
}

// Load reads configuration from the given path and sets the data directory.
// If configPath is empty or doesn't exist, returns defaults with the provided dataDir.
func Load(configPath, dataDir string) (*Config, error) {
	cfg := DefaultConfig()
	cfg.DataDir = dataDir

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}

			// Re-set dataDir since Unmarshal may have cleared it
			cfg.DataDir = dataDir
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Transcription.Provider == "" {
		c.Transcription.Provider = defaults.Transcription.Provider
	}
	if c.Transcription.Model == "" {
		c.Transcription.Model = defaults.Transcription.Model
	}
	if c.Transcription.Language == "" {
		c.Transcription.Language = defaults.Transcription.Language
	}
	if c.Transcription.APIKeyEnv == "" {
		c.Transcription.APIKeyEnv = defaults.Transcription.APIKeyEnv
	}
	if c.Transcription.BaseURL == "" {
		c.Transcription.BaseURL = defaults.Transcription.BaseURL
	}
	if c.Analysis.Model == "" {
		c.Analysis.Model = defaults.Analysis.Model
	}
	if c.Analysis.MaxTokens == 0 {
		c.Analysis.MaxTokens = defaults.Analysis.MaxTokens
	}
	if c.Analysis.APIKeyEnv == "" {
		c.Analysis.APIKeyEnv = defaults.Analysis.APIKeyEnv
	}
	if c.Analysis.BaseURL == "" {
		c.Analysis.BaseURL = defaults.Analysis.BaseURL
	}
	if c.Odoo.APIKeyEnv == "" {
		c.Odoo.APIKeyEnv = defaults.Odoo.APIKeyEnv
	}
	if c.Odoo.MinScore == 0 {
		c.Odoo.MinScore = defaults.Odoo.MinScore
	}
	if c.Calendar.ToleranceMin == 0 {
		c.Calendar.ToleranceMin = defaults.Calendar.ToleranceMin
	}
	if c.Knowledge.Dir == "" {
		c.Knowledge.Dir = filepath.Join(c.DataDir, "knowledge")
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data directory cannot be empty")
	}

	if c.Analysis.MaxTokens < 1 {
		return fmt.Errorf("analysis.max_tokens must be at least 1")
	}

	if c.Odoo.Enabled() {
		if c.Odoo.Database == "" {
			return fmt.Errorf("odoo.database is required when odoo.url is set")
		}
		if c.Odoo.Username == "" {
			return fmt.Errorf("odoo.username is required when odoo.url is set")
		}
		if c.Odoo.ProjectID < 1 {
			return fmt.Errorf("odoo.project_id is required when odoo.url is set")
		}
		if c.Odoo.MinScore < 0 || c.Odoo.MinScore > 100 {
			return fmt.Errorf("odoo.min_score must be between 0 and 100")
		}
	}

	if c.Calendar.Enabled() && c.Calendar.ScriptDir == "" {
		return fmt.Errorf("calendar.script_dir is required when calendar.profile is set")
	}

	return nil
}

// MeetingsDir returns the path where per-meeting output is stored.
func (c *Config) MeetingsDir() string {
	return filepath.Join(c.DataDir, "meetings")
}
