package doctor

import (
	"context"

	"github.com/colonyops/protokoll/internal/core/config"
)

// ConfigCheck validates the loaded configuration and reports warnings for
// soft issues such as missing API keys.
type ConfigCheck struct {
	cfg        *config.Config
	configPath string
}

// NewConfigCheck creates a new config check.
func NewConfigCheck(cfg *config.Config, configPath string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, configPath: configPath}
}

func (c *ConfigCheck) Name() string {
	return "Configuration"
}

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if err := c.cfg.ValidateDeep(c.configPath); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "config",
			Status: StatusFail,
			Detail: err.Error(),
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "config",
			Status: StatusPass,
			Detail: c.configPath,
		})
	}

	for _, warning := range c.cfg.Warnings() {
		result.Items = append(result.Items, CheckItem{
			Label:  warning.Category,
			Status: StatusWarn,
			Detail: warning.Message,
		})
	}

	return result
}
