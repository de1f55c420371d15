// Package core contains the task lifecycle service: the only component that
// mutates the task store. It wraps the subtask tree operations and the pure
// dependency-graph helpers with persistence and the task/subtask state
// machine.
package core

import (
	"fmt"

	"github.com/valter-silva-au/taskboard/internal/graph"
	"github.com/valter-silva-au/taskboard/internal/tree"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// TaskDocument is a raw persisted task file in whatever shape the store read
// it (hub-keyed, flat, or tag-keyed). The store owns the concrete shape; the
// service only ever touches the task list it exposes.
type TaskDocument interface {
	// Tasks returns a pointer to the project's task list within the
	// document, so mutations through it are captured when the document is
	// saved back.
	Tasks() *[]models.Task
}

// FoundTask is a located task together with everything needed to write it
// back: the raw document it lives in and the store's locator for that
// document.
type FoundTask struct {
	Document TaskDocument
	Task     *models.Task
	Locator  string
}

// FoundProject is a located project document, used when the operation needs
// the task list rather than a single task (create, delete).
type FoundProject struct {
	Document TaskDocument
	Locator  string
}

// TaskStore is the subset of the storage layer the lifecycle service needs.
// Defining it here keeps core independent of the storage package.
//
// FindTask and FindProject return (nil, nil) when the project or task does
// not resolve: absence is an expected condition, not an error. Errors are
// reserved for I/O failures, which callers propagate without retrying.
type TaskStore interface {
	GetAllTasks() (map[string]models.ProjectTasks, error)
	GetProjects() (map[string]string, error)
	FindTask(project string, taskID int) (*FoundTask, error)
	FindProject(project string) (*FoundProject, error)
	Save(locator string, doc TaskDocument) error
}

// EventLogger records lifecycle events. This interface is defined locally in
// core to avoid importing observability.
type EventLogger interface {
	LogEvent(eventType string, data map[string]any) error
}

// TaskService implements the task and subtask lifecycle over a TaskStore.
// It assumes at most one logical writer per project document at a time:
// every mutation is a full read-modify-write of the containing document,
// with no optimistic concurrency check.
type TaskService struct {
	store  TaskStore
	events EventLogger
}

// NewTaskService creates a TaskService. events may be nil to disable event
// logging.
func NewTaskService(store TaskStore, events EventLogger) *TaskService {
	return &TaskService{store: store, events: events}
}

// GetProjects returns the registered project directories.
func (s *TaskService) GetProjects() (map[string]string, error) {
	return s.store.GetProjects()
}

// GetAllTasks returns every project's tasks enriched with scheduling
// metadata. The derived fields are recomputed on every call; stale copies
// in storage are never trusted.
func (s *TaskService) GetAllTasks() (map[string]models.ProjectTasks, error) {
	all, err := s.store.GetAllTasks()
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}
	return graph.EnrichAllProjects(all), nil
}

// UpdateStatus sets a task's status and persists the containing document.
// Any status value is accepted: the workflow state machine is a consumer
// convention, deliberately unenforced here for compatibility with external
// editors of the same files. Returns false when the task is not found.
func (s *TaskService) UpdateStatus(project string, taskID int, status models.TaskStatus) (bool, error) {
	found, err := s.store.FindTask(project, taskID)
	if err != nil {
		return false, fmt.Errorf("updating status of task %d in %s: %w", taskID, project, err)
	}
	if found == nil {
		return false, nil
	}

	previous := found.Task.Status
	found.Task.Status = status
	if err := s.store.Save(found.Locator, found.Document); err != nil {
		return false, fmt.Errorf("updating status of task %d in %s: %w", taskID, project, err)
	}

	s.logEvent("task.status_changed", map[string]any{
		"project": project, "task": taskID,
		"from": string(previous), "to": string(status),
	})
	return true, nil
}

// FieldUpdates is a partial update: only non-nil fields are applied, so
// absence never clears a stored value.
type FieldUpdates struct {
	Title              *string
	Description        *string
	ContextFiles       []string
	AcceptanceCriteria []string
	StartCommit        *string
	Branch             *string
	PRURL              *string
}

// UpdateFields applies a partial update to a task's editable fields and
// persists. Returns false when the task is not found.
func (s *TaskService) UpdateFields(project string, taskID int, fields FieldUpdates) (bool, error) {
	if err := ValidateFields(fields); err != nil {
		return false, err
	}

	found, err := s.store.FindTask(project, taskID)
	if err != nil {
		return false, fmt.Errorf("updating task %d in %s: %w", taskID, project, err)
	}
	if found == nil {
		return false, nil
	}

	t := found.Task
	if fields.Title != nil {
		t.Title = *fields.Title
	}
	if fields.Description != nil {
		t.Description = *fields.Description
	}
	if fields.ContextFiles != nil {
		t.ContextFiles = fields.ContextFiles
	}
	if fields.AcceptanceCriteria != nil {
		t.AcceptanceCriteria = fields.AcceptanceCriteria
	}
	if fields.StartCommit != nil {
		t.StartCommit = *fields.StartCommit
	}
	if fields.Branch != nil {
		t.Branch = *fields.Branch
	}
	if fields.PRURL != nil {
		t.PRURL = *fields.PRURL
	}

	if err := s.store.Save(found.Locator, found.Document); err != nil {
		return false, fmt.Errorf("updating task %d in %s: %w", taskID, project, err)
	}
	return true, nil
}

// AddSubtask inserts a new pending subtask under the task, or under the
// subtask identified by parentSubtaskID when non-zero. The new id is minted
// as max existing id within the insertion target's subtree plus one, so ids
// are tree-local: two sibling subtrees can both contain an id 1, which is
// fine because subtask identity only means anything inside its own task.
// Returns nil when the task or the parent subtask is not found.
func (s *TaskService) AddSubtask(project string, taskID int, title string, parentSubtaskID int) (*models.Subtask, error) {
	found, err := s.store.FindTask(project, taskID)
	if err != nil {
		return nil, fmt.Errorf("adding subtask to task %d in %s: %w", taskID, project, err)
	}
	if found == nil {
		return nil, nil
	}

	t := found.Task
	var target *[]models.Subtask
	if parentSubtaskID != 0 {
		parent := tree.Find(t.Subtasks, parentSubtaskID)
		if parent == nil {
			return nil, nil
		}
		target = &parent.Subtasks
	} else {
		target = &t.Subtasks
	}

	subtask := models.Subtask{
		ID:     tree.MaxID(*target) + 1,
		Title:  title,
		Status: models.StatusPending,
	}
	*target = append(*target, subtask)

	if err := s.store.Save(found.Locator, found.Document); err != nil {
		return nil, fmt.Errorf("adding subtask to task %d in %s: %w", taskID, project, err)
	}

	s.logEvent("subtask.created", map[string]any{
		"project": project, "task": taskID, "subtask": subtask.ID, "parent": parentSubtaskID,
	})
	return &subtask, nil
}

// UpdateSubtaskStatus sets a subtask's status, locating it at any depth of
// the tree. When the update leaves a non-empty tree fully finished and the
// task itself is exactly in-progress, the task is advanced to done in the
// same write: auto-completion only fires as the natural conclusion of
// active work, never pulling a pending or paused task forward.
// Returns false when the task or subtask is not found.
func (s *TaskService) UpdateSubtaskStatus(project string, taskID, subtaskID int, status models.TaskStatus) (bool, error) {
	found, err := s.store.FindTask(project, taskID)
	if err != nil {
		return false, fmt.Errorf("updating subtask %d of task %d in %s: %w", subtaskID, taskID, project, err)
	}
	if found == nil {
		return false, nil
	}

	t := found.Task
	sub := tree.Find(t.Subtasks, subtaskID)
	if sub == nil {
		return false, nil
	}
	sub.Status = status

	autoCompleted := false
	if len(t.Subtasks) > 0 && tree.AllDone(t.Subtasks) && t.Status == models.StatusInProgress {
		t.Status = models.StatusDone
		autoCompleted = true
	}

	if err := s.store.Save(found.Locator, found.Document); err != nil {
		return false, fmt.Errorf("updating subtask %d of task %d in %s: %w", subtaskID, taskID, project, err)
	}

	s.logEvent("subtask.status_changed", map[string]any{
		"project": project, "task": taskID, "subtask": subtaskID, "to": string(status),
	})
	if autoCompleted {
		s.logEvent("task.auto_completed", map[string]any{"project": project, "task": taskID})
	}
	return true, nil
}

// DeleteSubtask removes a subtask and its entire subtree, locating the
// owning slot at any depth. Returns false when the task or subtask is not
// found.
func (s *TaskService) DeleteSubtask(project string, taskID, subtaskID int) (bool, error) {
	found, err := s.store.FindTask(project, taskID)
	if err != nil {
		return false, fmt.Errorf("deleting subtask %d of task %d in %s: %w", subtaskID, taskID, project, err)
	}
	if found == nil {
		return false, nil
	}

	container, idx, ok := tree.FindSlot(&found.Task.Subtasks, subtaskID)
	if !ok {
		return false, nil
	}
	tree.Splice(container, idx)

	if err := s.store.Save(found.Locator, found.Document); err != nil {
		return false, fmt.Errorf("deleting subtask %d of task %d in %s: %w", subtaskID, taskID, project, err)
	}
	return true, nil
}

// NewTask describes a task to create. Subtasks are plain titles,
// materialized as pending subtasks with sequential ids 1..n.
type NewTask struct {
	Title        string
	Description  string
	Priority     models.TaskPriority
	Subtasks     []string
	ContextFiles []string
}

// AddTask creates a task in the project with id one greater than the current
// maximum (1 for an empty project), status pending and no dependencies.
// Returns nil when the project's document cannot be located.
func (s *TaskService) AddTask(project string, fields NewTask) (*models.Task, error) {
	if fields.Title == "" {
		return nil, fmt.Errorf("adding task to %s: title must not be empty", project)
	}

	found, err := s.store.FindProject(project)
	if err != nil {
		return nil, fmt.Errorf("adding task to %s: %w", project, err)
	}
	if found == nil {
		return nil, nil
	}

	tasks := found.Document.Tasks()
	maxID := 0
	for i := range *tasks {
		if (*tasks)[i].ID > maxID {
			maxID = (*tasks)[i].ID
		}
	}

	priority := fields.Priority
	if priority == "" {
		priority = models.PriorityMedium
	}

	subtasks := make([]models.Subtask, len(fields.Subtasks))
	for i, title := range fields.Subtasks {
		subtasks[i] = models.Subtask{ID: i + 1, Title: title, Status: models.StatusPending}
	}

	contextFiles := fields.ContextFiles
	if contextFiles == nil {
		contextFiles = []string{}
	}

	task := models.Task{
		ID:           maxID + 1,
		Title:        fields.Title,
		Description:  fields.Description,
		Status:       models.StatusPending,
		Priority:     priority,
		Dependencies: []int{},
		ContextFiles: contextFiles,
		Subtasks:     subtasks,
	}
	*tasks = append(*tasks, task)

	if err := s.store.Save(found.Locator, found.Document); err != nil {
		return nil, fmt.Errorf("adding task to %s: %w", project, err)
	}

	s.logEvent("task.created", map[string]any{"project": project, "task": task.ID, "title": task.Title})
	return &task, nil
}

// DeleteTask removes a task from its project. Dependencies of other tasks
// pointing at the removed id become dangling; they stop blocking immediately
// (the read path excludes them) and are cleaned up by an explicit repair.
// Returns false when the project or task is not found.
func (s *TaskService) DeleteTask(project string, taskID int) (bool, error) {
	found, err := s.store.FindProject(project)
	if err != nil {
		return false, fmt.Errorf("deleting task %d in %s: %w", taskID, project, err)
	}
	if found == nil {
		return false, nil
	}

	tasks := found.Document.Tasks()
	idx := -1
	for i := range *tasks {
		if (*tasks)[i].ID == taskID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	*tasks = append((*tasks)[:idx], (*tasks)[idx+1:]...)

	if err := s.store.Save(found.Locator, found.Document); err != nil {
		return false, fmt.Errorf("deleting task %d in %s: %w", taskID, project, err)
	}

	s.logEvent("task.deleted", map[string]any{"project": project, "task": taskID})
	return true, nil
}

// AddDependency records that a task depends on another and persists. Both
// ids must exist in the project; the edge itself is not checked for cycles
// or self-reference (Validate catches those). Returns false when the
// project is unknown or either id does not resolve.
func (s *TaskService) AddDependency(project string, taskID, dependsOn int) (bool, error) {
	return s.mutateEdges(project, "adding dependency", func(tasks []models.Task) error {
		return graph.AddDependency(tasks, taskID, dependsOn)
	})
}

// RemoveDependency removes a dependency edge and persists. Returns false
// when the project or task is not found.
func (s *TaskService) RemoveDependency(project string, taskID, dependsOn int) (bool, error) {
	return s.mutateEdges(project, "removing dependency", func(tasks []models.Task) error {
		return graph.RemoveDependency(tasks, taskID, dependsOn)
	})
}

// ValidateDependencies checks the project's graph for dangling edges,
// self-dependencies and cycles. The report is data for an operator, never a
// failure of the read path. Returns nil when the project is unknown.
func (s *TaskService) ValidateDependencies(project string) (*graph.Report, error) {
	found, err := s.store.FindProject(project)
	if err != nil {
		return nil, fmt.Errorf("validating dependencies in %s: %w", project, err)
	}
	if found == nil {
		return nil, nil
	}
	report := graph.Validate(*found.Document.Tasks())
	return &report, nil
}

// FixDependencies strips dangling and self edges from the project's graph
// and persists when anything changed. Cycles are left for a human to
// resolve. Returns the number of edges removed, or -1 when the project is
// unknown.
func (s *TaskService) FixDependencies(project string) (int, error) {
	found, err := s.store.FindProject(project)
	if err != nil {
		return 0, fmt.Errorf("fixing dependencies in %s: %w", project, err)
	}
	if found == nil {
		return -1, nil
	}

	fixed := graph.Repair(*found.Document.Tasks())
	if fixed == 0 {
		return 0, nil
	}
	if err := s.store.Save(found.Locator, found.Document); err != nil {
		return 0, fmt.Errorf("fixing dependencies in %s: %w", project, err)
	}

	s.logEvent("deps.repaired", map[string]any{"project": project, "removed": fixed})
	return fixed, nil
}

// AddChatMessage appends a message to a task's conversation history. The
// history is opaque payload: stored and returned, never interpreted.
// Returns false when the task is not found.
func (s *TaskService) AddChatMessage(project string, taskID int, message models.ChatMessage) (bool, error) {
	found, err := s.store.FindTask(project, taskID)
	if err != nil {
		return false, fmt.Errorf("adding chat message to task %d in %s: %w", taskID, project, err)
	}
	if found == nil {
		return false, nil
	}

	found.Task.ChatHistory = append(found.Task.ChatHistory, message)
	if err := s.store.Save(found.Locator, found.Document); err != nil {
		return false, fmt.Errorf("adding chat message to task %d in %s: %w", taskID, project, err)
	}
	return true, nil
}

// ChatHistory returns a task's conversation history, empty when the task is
// not found.
func (s *TaskService) ChatHistory(project string, taskID int) ([]models.ChatMessage, error) {
	found, err := s.store.FindTask(project, taskID)
	if err != nil {
		return nil, fmt.Errorf("reading chat history of task %d in %s: %w", taskID, project, err)
	}
	if found == nil {
		return nil, nil
	}
	return found.Task.ChatHistory, nil
}

func (s *TaskService) mutateEdges(project, action string, mutate func([]models.Task) error) (bool, error) {
	found, err := s.store.FindProject(project)
	if err != nil {
		return false, fmt.Errorf("%s in %s: %w", action, project, err)
	}
	if found == nil {
		return false, nil
	}

	if err := mutate(*found.Document.Tasks()); err != nil {
		// Unresolved ids are the expected stale-reference case.
		return false, nil
	}
	if err := s.store.Save(found.Locator, found.Document); err != nil {
		return false, fmt.Errorf("%s in %s: %w", action, project, err)
	}
	return true, nil
}

func (s *TaskService) logEvent(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	_ = s.events.LogEvent(eventType, data) // event logging is best-effort
}
