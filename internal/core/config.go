package core

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config holds the dashboard's runtime settings, loaded from a .taskboardrc
// YAML file in the base path.
type Config struct {
	// BasePath is the root data directory (holds the hub task file and the
	// projects registry).
	BasePath string
	// HubTasksFile is the project-keyed hub task file.
	HubTasksFile string
	// ProjectsFile maps project names to their checkout directories.
	ProjectsFile string
	// ListenAddr is the push server's listen address.
	ListenAddr string
	// DebounceMillis is the file-watch debounce window before broadcasting.
	DebounceMillis int
}

// DefaultConfig returns a Config populated with sensible defaults rooted at
// basePath.
func DefaultConfig(basePath string) *Config {
	return &Config{
		BasePath:       basePath,
		HubTasksFile:   filepath.Join(basePath, "tasks", "tasks.json"),
		ProjectsFile:   filepath.Join(basePath, "projects.json"),
		ListenAddr:     ":5571",
		DebounceMillis: 200,
	}
}

// LoadConfig reads .taskboardrc from the base path using Viper. A missing
// file yields the defaults; a malformed one is an error.
func LoadConfig(basePath string) (*Config, error) {
	cfg := DefaultConfig(basePath)

	v := viper.New()
	v.SetConfigName(".taskboardrc")
	v.SetConfigType("yaml")
	v.AddConfigPath(basePath)

	v.SetDefault("hub_tasks_file", cfg.HubTasksFile)
	v.SetDefault("projects_file", cfg.ProjectsFile)
	v.SetDefault("push.listen_addr", cfg.ListenAddr)
	v.SetDefault("push.debounce_ms", cfg.DebounceMillis)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading .taskboardrc: %w", err)
	}

	cfg.HubTasksFile = v.GetString("hub_tasks_file")
	cfg.ProjectsFile = v.GetString("projects_file")
	cfg.ListenAddr = v.GetString("push.listen_addr")
	cfg.DebounceMillis = v.GetInt("push.debounce_ms")

	if cfg.DebounceMillis < 0 {
		return nil, fmt.Errorf("push.debounce_ms must be non-negative, got %d", cfg.DebounceMillis)
	}

	return cfg, nil
}
