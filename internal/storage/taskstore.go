// Package storage reads and writes the task files the dashboard supervises:
// the hub task file, the projects registry, and each registered project's
// own task file. Task files are owned by external tools as much as by us, so
// the store preserves whatever document shape it finds on disk.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// documentShape records which on-disk layout a task file was parsed from, so
// Save can write it back the same way.
type documentShape int

const (
	// shapeHub is the hub file: a top-level object keyed by project name.
	shapeHub documentShape = iota
	// shapeFlat is {"tasks": [...], "metadata": {...}}.
	shapeFlat
	// shapeTagged is a single-key wrapper around the flat shape, e.g.
	// {"master": {"tasks": [...]}} or {"default": {"tasks": [...]}}.
	shapeTagged
)

// taskDocument implements core.TaskDocument for one project within one file.
type taskDocument struct {
	path    string
	shape   documentShape
	tag     string
	hub     map[string]*models.ProjectTasks
	project *models.ProjectTasks
}

func (d *taskDocument) Tasks() *[]models.Task { return &d.project.Tasks }

// FileTaskStore is the file-backed task store. It holds no in-memory state:
// every operation re-reads the relevant files, so concurrent edits by agents
// or humans are picked up on the next call.
type FileTaskStore struct {
	hubPath      string
	projectsPath string
}

// NewFileTaskStore creates a store over the hub task file and the projects
// registry.
func NewFileTaskStore(hubPath, projectsPath string) *FileTaskStore {
	return &FileTaskStore{hubPath: hubPath, projectsPath: projectsPath}
}

// taskFilePath returns the conventional task file location inside a project
// checkout.
func taskFilePath(projectDir string) string {
	return filepath.Join(projectDir, ".taskmaster", "tasks", "tasks.json")
}

// GetProjects returns the registry mapping project names to their checkout
// directories. A missing registry file means no registered projects.
func (s *FileTaskStore) GetProjects() (map[string]string, error) {
	data, err := os.ReadFile(s.projectsPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("loading projects registry: %w", err)
	}

	var projects map[string]string
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("loading projects registry: parsing JSON: %w", err)
	}
	if projects == nil {
		projects = map[string]string{}
	}
	return projects, nil
}

// GetAllTasks aggregates every project's tasks: the hub file's projects plus
// each registered project's own task file. A registered project whose file is
// missing or unparseable is skipped rather than failing the whole read, so
// one corrupt checkout never blanks the dashboard. When a project appears in
// both places its own file wins.
func (s *FileTaskStore) GetAllTasks() (map[string]models.ProjectTasks, error) {
	result := make(map[string]models.ProjectTasks)

	hub, err := s.loadHub()
	if err != nil {
		return nil, err
	}
	for name, project := range hub {
		result[name] = *project
	}

	projects, err := s.GetProjects()
	if err != nil {
		return nil, err
	}
	for name, dir := range projects {
		doc, err := s.loadProjectFile(taskFilePath(dir))
		if err != nil || doc == nil {
			continue
		}
		result[name] = *doc.project
	}

	return result, nil
}

// FindTask locates a task by project and id, returning (nil, nil) when either
// does not resolve.
func (s *FileTaskStore) FindTask(project string, taskID int) (*core.FoundTask, error) {
	found, err := s.FindProject(project)
	if err != nil || found == nil {
		return nil, err
	}

	tasks := found.Document.Tasks()
	for i := range *tasks {
		if (*tasks)[i].ID == taskID {
			return &core.FoundTask{
				Document: found.Document,
				Task:     &(*tasks)[i],
				Locator:  found.Locator,
			}, nil
		}
	}
	return nil, nil
}

// FindProject locates the document holding a project's task list: the hub
// file if the project lives there, otherwise the project's own task file via
// the registry. Returns (nil, nil) when the project resolves nowhere. Unlike
// the aggregate read, a file that exists but cannot be parsed is an error
// here: mutations must never rewrite a document they could not fully read.
func (s *FileTaskStore) FindProject(project string) (*core.FoundProject, error) {
	hub, err := s.loadHub()
	if err != nil {
		return nil, err
	}
	if p, ok := hub[project]; ok {
		doc := &taskDocument{path: s.hubPath, shape: shapeHub, hub: hub, project: p}
		return &core.FoundProject{Document: doc, Locator: s.hubPath}, nil
	}

	projects, err := s.GetProjects()
	if err != nil {
		return nil, err
	}
	dir, ok := projects[project]
	if !ok {
		return nil, nil
	}

	path := taskFilePath(dir)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading task file %s: %w", path, err)
	}
	doc, err := parseProjectDocument(path, data)
	if err != nil {
		return nil, err
	}
	return &core.FoundProject{Document: doc, Locator: path}, nil
}

// Save writes a document back to disk in the shape it was read in. The whole
// file is rewritten; for the hub file that includes every project it holds,
// not just the mutated one.
func (s *FileTaskStore) Save(locator string, doc core.TaskDocument) error {
	d, ok := doc.(*taskDocument)
	if !ok {
		return fmt.Errorf("saving %s: unsupported document type %T", locator, doc)
	}

	var payload any
	switch d.shape {
	case shapeHub:
		payload = d.hub
	case shapeFlat:
		payload = d.project
	case shapeTagged:
		payload = map[string]*models.ProjectTasks{d.tag: d.project}
	default:
		return fmt.Errorf("saving %s: unknown document shape %d", locator, d.shape)
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("saving %s: marshaling JSON: %w", locator, err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(d.path), 0o750); err != nil {
		return fmt.Errorf("saving %s: creating directory: %w", locator, err)
	}
	if err := os.WriteFile(d.path, data, 0o644); err != nil {
		return fmt.Errorf("saving %s: writing file: %w", locator, err)
	}
	return nil
}

// TaskFiles returns every file path the store reads tasks from, for the
// change watcher. Paths are returned whether or not they currently exist.
func (s *FileTaskStore) TaskFiles() ([]string, error) {
	files := []string{s.hubPath}
	projects, err := s.GetProjects()
	if err != nil {
		return nil, err
	}
	for _, dir := range projects {
		files = append(files, taskFilePath(dir))
	}
	return files, nil
}

// ProjectsFile returns the registry path, watched so newly registered
// projects get picked up without a restart.
func (s *FileTaskStore) ProjectsFile() string {
	return s.projectsPath
}

func (s *FileTaskStore) loadHub() (map[string]*models.ProjectTasks, error) {
	data, err := os.ReadFile(s.hubPath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]*models.ProjectTasks{}, nil
		}
		return nil, fmt.Errorf("loading hub task file: %w", err)
	}

	var hub map[string]*models.ProjectTasks
	if err := json.Unmarshal(data, &hub); err != nil {
		return nil, fmt.Errorf("loading hub task file: parsing JSON: %w", err)
	}
	if hub == nil {
		hub = map[string]*models.ProjectTasks{}
	}
	for name, p := range hub {
		if p == nil {
			hub[name] = &models.ProjectTasks{}
		}
	}
	return hub, nil
}

// loadProjectFile reads and parses a project task file, returning (nil, nil)
// when the file does not exist.
func (s *FileTaskStore) loadProjectFile(path string) (*taskDocument, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading task file %s: %w", path, err)
	}
	return parseProjectDocument(path, data)
}

// parseProjectDocument detects which of the known task file shapes the data
// is in. A top-level "tasks" key means the flat shape; otherwise a single-key
// object is treated as a tag wrapper around the flat shape.
func parseProjectDocument(path string, data []byte) (*taskDocument, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing task file %s: %w", path, err)
	}

	if _, ok := raw["tasks"]; ok {
		var project models.ProjectTasks
		if err := json.Unmarshal(data, &project); err != nil {
			return nil, fmt.Errorf("parsing task file %s: %w", path, err)
		}
		return &taskDocument{path: path, shape: shapeFlat, project: &project}, nil
	}

	if len(raw) == 1 {
		for tag, inner := range raw {
			var project models.ProjectTasks
			if err := json.Unmarshal(inner, &project); err != nil {
				return nil, fmt.Errorf("parsing task file %s: tag %q: %w", path, tag, err)
			}
			return &taskDocument{path: path, shape: shapeTagged, tag: tag, project: &project}, nil
		}
	}

	return nil, fmt.Errorf("parsing task file %s: unrecognized document shape", path)
}
