package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/hay-kot/criterio"

	"github.com/colonyops/protokoll/internal/core/protocol"
)

// ValidationWarning represents a non-fatal configuration issue.
type ValidationWarning struct {
	Category string `json:"category"`
	Item     string `json:"item,omitempty"`
	Message  string `json:"message"`
}

// ValidateDeep performs comprehensive validation of the configuration including
// file accessibility, template syntax, and integration prerequisites. The
// configPath argument specifies the config file location to validate (empty
// string skips the config file check). This calls Validate() first for basic
// structural validation, then adds I/O checks.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		c.validateFileAccess(configPath),
		c.validateProtocolTemplate(),
		c.validateOdooFiles(),
		c.validateCalendarFiles(),
	)
}

// Warnings returns non-fatal configuration issues.
func (c *Config) Warnings() []ValidationWarning {
	var warnings []ValidationWarning

	if c.Transcription.APIKey() == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Transcription",
			Item:     c.Transcription.APIKeyEnv,
			Message:  "API key env var is not set; transcription will fail",
		})
	}

	if c.Analysis.APIKey() == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Analysis",
			Item:     c.Analysis.APIKeyEnv,
			Message:  "API key env var is not set; analysis will fail",
		})
	}

	if c.Odoo.Enabled() && c.Odoo.APIKey() == "" {
		warnings = append(warnings, ValidationWarning{
			Category: "Odoo",
			Item:     c.Odoo.APIKeyEnv,
			Message:  "API key env var is not set; task export will fail",
		})
	}

	return warnings
}

// validateFileAccess checks config file and data directory.
func (c *Config) validateFileAccess(configPath string) error {
	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		criterio.Run("data_dir", c.DataDir, isDirectoryOrNotExist),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// isDirectoryOrNotExist validates that a path is a directory or doesn't exist.
func isDirectoryOrNotExist(path string) error {
	if path == "" {
		return nil
	}
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil // will be created
	}
	if err != nil {
		return fmt.Errorf("cannot access: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("exists but is not a directory")
	}
	return nil
}

// validateProtocolTemplate checks that a custom template file exists and renders.
func (c *Config) validateProtocolTemplate() error {
	if c.Protocol.TemplatePath == "" {
		return nil
	}

	var errs criterio.FieldErrorsBuilder

	if _, err := os.Stat(c.Protocol.TemplatePath); err != nil {
		errs = errs.Append("protocol.template_path", fmt.Errorf("cannot access: %w", err))
		return errs.ToError()
	}

	gen := protocol.NewGenerator(protocol.Config{TemplatePath: c.Protocol.TemplatePath})
	if _, err := gen.Render(protocol.Data{Title: "test"}); err != nil {
		errs = errs.Append("protocol.template_path", err)
	}

	return errs.ToError()
}

func (c *Config) validateOdooFiles() error {
	if !c.Odoo.Enabled() {
		return nil
	}

	var errs criterio.FieldErrorsBuilder
	if c.Odoo.ContactsPath != "" {
		if _, err := os.Stat(c.Odoo.ContactsPath); err != nil {
			errs = errs.Append("odoo.contacts_path", fmt.Errorf("file not found: %s", c.Odoo.ContactsPath))
		}
	}
	return errs.ToError()
}

func (c *Config) validateCalendarFiles() error {
	if !c.Calendar.Enabled() {
		return nil
	}

	var errs criterio.FieldErrorsBuilder

	script := filepath.Join(c.Calendar.ScriptDir, "list-events.mjs")
	if _, err := os.Stat(script); err != nil {
		errs = errs.Append("calendar.script_dir", fmt.Errorf("helper script not found: %s", script))
	}

	if _, err := exec.LookPath("node"); err != nil {
		errs = errs.Append("calendar", fmt.Errorf("node executable not found in PATH"))
	}

	return errs.ToError()
}
