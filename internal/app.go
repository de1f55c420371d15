// Package internal provides the App struct that wires all components of
// taskboard together and initializes the CLI layer.
package internal

import (
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/taskboard/internal/cli"
	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/internal/push"
	"github.com/valter-silva-au/taskboard/internal/storage"
)

// App holds all service dependencies for taskboard.
type App struct {
	BasePath string
	Config   *core.Config

	// Storage layer
	Store *storage.FileTaskStore

	// Core services
	Tasks *core.TaskService

	// Push server
	PushServer *push.Server

	// Observability
	EventLog  observability.EventLog
	StatsCalc observability.StatsCalculator
}

// NewApp creates and wires all components of taskboard. basePath is the root
// data directory (typically ~/.taskboard or the directory containing
// .taskboardrc).
func NewApp(basePath string) (*App, error) {
	app := &App{BasePath: basePath}

	// --- Configuration ---
	cfg, err := core.LoadConfig(basePath)
	if err != nil {
		return nil, err
	}
	app.Config = cfg

	// --- Storage layer ---
	app.Store = storage.NewFileTaskStore(cfg.HubTasksFile, cfg.ProjectsFile)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, "events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable observability if the log can't be created.
		app.EventLog = nil
	}
	var recorder core.EventLogger
	if app.EventLog != nil {
		recorder = observability.NewRecorder(app.EventLog)
		app.StatsCalc = observability.NewStatsCalculator(app.EventLog)
	}

	// --- Core services ---
	app.Tasks = core.NewTaskService(app.Store, recorder)

	// --- Push server ---
	debounce := time.Duration(cfg.DebounceMillis) * time.Millisecond
	app.PushServer = push.NewServer(app.Tasks, app.Store, cfg.ListenAddr, debounce)

	// --- Wire CLI package-level variables ---
	cli.Tasks = app.Tasks
	cli.EventLog = app.EventLog
	cli.StatsCalc = app.StatsCalc
	cli.PushServer = app.PushServer

	return app, nil
}

// Close releases resources held by the App, such as the event log file handle.
// It is safe to call Close on an App whose EventLog is nil.
func (a *App) Close() error {
	if a.EventLog != nil {
		return a.EventLog.Close()
	}
	return nil
}

// ResolveBasePath determines the base path for the taskboard data directory.
// It checks the TASKBOARD_HOME env var, then walks up from the current
// directory looking for a .taskboardrc.yaml, then falls back to the cwd.
func ResolveBasePath() string {
	if home := os.Getenv("TASKBOARD_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, ".taskboardrc.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}
