package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DataCheck inspects the data directory layout.
type DataCheck struct {
	dataDir string
}

// NewDataCheck creates a new data directory check.
func NewDataCheck(dataDir string) *DataCheck {
	return &DataCheck{dataDir: dataDir}
}

func (c *DataCheck) Name() string {
	return "Data"
}

func (c *DataCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	info, err := os.Stat(c.dataDir)
	switch {
	case os.IsNotExist(err):
		result.Items = append(result.Items, CheckItem{
			Label:  "data dir",
			Status: StatusWarn,
			Detail: "does not exist yet (created on first run)",
		})
		return result
	case err != nil:
		result.Items = append(result.Items, CheckItem{
			Label:  "data dir",
			Status: StatusFail,
			Detail: err.Error(),
		})
		return result
	case !info.IsDir():
		result.Items = append(result.Items, CheckItem{
			Label:  "data dir",
			Status: StatusFail,
			Detail: "exists but is not a directory",
		})
		return result
	}

	result.Items = append(result.Items, CheckItem{
		Label:  "data dir",
		Status: StatusPass,
		Detail: c.dataDir,
	})

	meetingsDir := filepath.Join(c.dataDir, "meetings")
	entries, err := os.ReadDir(meetingsDir)
	if err == nil {
		count := 0
		for _, e := range entries {
			if e.IsDir() {
				count++
			}
		}
		result.Items = append(result.Items, CheckItem{
			Label:  "meetings",
			Status: StatusPass,
			Detail: fmt.Sprintf("%d stored", count),
		})
	}

	return result
}
