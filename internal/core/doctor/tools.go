package doctor

import (
	"context"
	"os/exec"
)

// lookPathFunc is the function used to find executables on PATH.
// Package-level variable to allow test overrides.
var lookPathFunc = exec.LookPath

// ToolsCheck verifies that external tools are available on $PATH.
type ToolsCheck struct {
	calendarEnabled bool
}

// NewToolsCheck creates a new tools check.
func NewToolsCheck(calendarEnabled bool) *ToolsCheck {
	return &ToolsCheck{calendarEnabled: calendarEnabled}
}

func (c *ToolsCheck) Name() string {
	return "Tools"
}

func (c *ToolsCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	// ffmpeg is optional, used to read audio durations of exotic formats
	if path, err := lookPathFunc("ffmpeg"); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "ffmpeg",
			Status: StatusWarn,
			Detail: "not found on PATH (recommended for audio conversion)",
		})
	} else {
		result.Items = append(result.Items, CheckItem{
			Label:  "ffmpeg",
			Status: StatusPass,
			Detail: path,
		})
	}

	if c.calendarEnabled {
		if path, err := lookPathFunc("node"); err != nil {
			result.Items = append(result.Items, CheckItem{
				Label:  "node",
				Status: StatusFail,
				Detail: "not found on PATH (required for calendar lookup)",
			})
		} else {
			result.Items = append(result.Items, CheckItem{
				Label:  "node",
				Status: StatusPass,
				Detail: path,
			})
		}
	}

	return result
}
