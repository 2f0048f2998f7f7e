package commands

import (
	"context"
	"os"
	"path/filepath"
	"runtime"

	"github.com/colonyops/protokoll/internal/core/config"
	"github.com/colonyops/protokoll/internal/core/pipeline"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	DataDir    string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Pipeline orchestrates processing and export
	Pipeline *pipeline.Pipeline
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "protokoll", "config.yaml")
}

// DefaultDataDir returns the default data directory using XDG_DATA_HOME.
func DefaultDataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "protokoll")
}

// DefaultLogFile returns the default log file path using the system's state directory.
// On macOS: ~/Library/Logs/protokoll/protokoll.log
// On Linux: $XDG_STATE_HOME/protokoll/protokoll.log (defaults to ~/.local/state/protokoll/protokoll.log)
func DefaultLogFile() string {
	stateHome := os.Getenv("XDG_STATE_HOME")
	if stateHome != "" {
		return filepath.Join(stateHome, "protokoll", "protokoll.log")
	}

	home, _ := os.UserHomeDir()

	if runtime.GOOS == "darwin" {
		return filepath.Join(home, "Library", "Logs", "protokoll", "protokoll.log")
	}

	return filepath.Join(home, ".local", "state", "protokoll", "protokoll.log")
}

// resolveMeetingID returns the explicit id when given, otherwise the most
// recent meeting with a review session.
func (f *Flags) resolveMeetingID(ctx context.Context, id string) (string, error) {
	if id != "" {
		return id, nil
	}
	return f.Pipeline.Sessions.Latest(ctx)
}
