// Package mcp provides an MCP (Model Context Protocol) server that exposes
// the task board as MCP tools, so coding agents can read and update the same
// task files the dashboard supervises.
package mcp

import (
	"context"
	"fmt"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/graph"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// TaskService is the subset of the lifecycle service the MCP tools call.
type TaskService interface {
	GetProjects() (map[string]string, error)
	GetAllTasks() (map[string]models.ProjectTasks, error)
	UpdateStatus(project string, taskID int, status models.TaskStatus) (bool, error)
	AddTask(project string, fields core.NewTask) (*models.Task, error)
	AddSubtask(project string, taskID int, title string, parentSubtaskID int) (*models.Subtask, error)
	UpdateSubtaskStatus(project string, taskID, subtaskID int, status models.TaskStatus) (bool, error)
	ValidateDependencies(project string) (*graph.Report, error)
	FixDependencies(project string) (int, error)
}

// Server wraps the task service and exposes it as MCP tools.
type Server struct {
	server *gomcp.Server
	tasks  TaskService
	stats  observability.StatsCalculator
}

// NewServer creates an MCP server over the given task service. stats may be
// nil if the event log is disabled.
func NewServer(tasks TaskService, stats observability.StatsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{tasks: tasks, stats: stats}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "taskboard", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type listProjectsOutput struct {
	Projects map[string]string `json:"projects"`
	Count    int               `json:"count"`
}

type listTasksInput struct {
	Project string `json:"project" jsonschema:"required,the project name"`
	Status  string `json:"status,omitempty" jsonschema:"filter tasks by status (pending, in-progress, done, verified, review, paused, deferred, cancelled, blocked)"`
}

type taskOutput struct {
	ID            int      `json:"id"`
	Title         string   `json:"title"`
	Status        string   `json:"status"`
	Priority      string   `json:"priority"`
	Dependencies  []int    `json:"dependencies"`
	BlockedBy     []int    `json:"blocked_by"`
	Dependents    []int    `json:"dependents"`
	IsIndependent bool     `json:"is_independent"`
	Depth         int      `json:"depth"`
	Subtasks      int      `json:"subtask_count"`
	ContextFiles  []string `json:"context_files,omitempty"`
}

type listTasksOutput struct {
	Tasks []taskOutput `json:"tasks"`
	Count int          `json:"count"`
}

type getTaskInput struct {
	Project string `json:"project" jsonschema:"required,the project name"`
	TaskID  int    `json:"task_id" jsonschema:"required,the numeric task id"`
}

type getTaskOutput struct {
	Task models.Task `json:"task"`
}

type addTaskInput struct {
	Project     string   `json:"project" jsonschema:"required,the project name"`
	Title       string   `json:"title" jsonschema:"required,the task title"`
	Description string   `json:"description,omitempty" jsonschema:"the task description"`
	Priority    string   `json:"priority,omitempty" jsonschema:"low, medium or high (defaults to medium)"`
	Subtasks    []string `json:"subtasks,omitempty" jsonschema:"initial subtask titles"`
}

type addTaskOutput struct {
	TaskID  int    `json:"task_id"`
	Message string `json:"message"`
}

type updateTaskStatusInput struct {
	Project string `json:"project" jsonschema:"required,the project name"`
	TaskID  int    `json:"task_id" jsonschema:"required,the numeric task id"`
	Status  string `json:"status" jsonschema:"required,the new status (pending, in-progress, done, verified, review, paused, deferred, cancelled, blocked)"`
}

type messageOutput struct {
	Message string `json:"message"`
}

type addSubtaskInput struct {
	Project  string `json:"project" jsonschema:"required,the project name"`
	TaskID   int    `json:"task_id" jsonschema:"required,the numeric task id"`
	Title    string `json:"title" jsonschema:"required,the subtask title"`
	ParentID int    `json:"parent_subtask_id,omitempty" jsonschema:"nest under this subtask instead of the task itself"`
}

type addSubtaskOutput struct {
	SubtaskID int    `json:"subtask_id"`
	Message   string `json:"message"`
}

type updateSubtaskStatusInput struct {
	Project   string `json:"project" jsonschema:"required,the project name"`
	TaskID    int    `json:"task_id" jsonschema:"required,the numeric task id"`
	SubtaskID int    `json:"subtask_id" jsonschema:"required,the subtask id within the task"`
	Status    string `json:"status" jsonschema:"required,the new status"`
}

type projectInput struct {
	Project string `json:"project" jsonschema:"required,the project name"`
}

type validateOutput struct {
	Valid  bool     `json:"valid"`
	Issues []string `json:"issues"`
}

type fixOutput struct {
	Removed int    `json:"removed"`
	Message string `json:"message"`
}

type getStatsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for stats (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type statsOutput struct {
	TasksCreated    int            `json:"tasks_created"`
	TasksCompleted  int            `json:"tasks_completed"`
	SubtasksCreated int            `json:"subtasks_created"`
	EdgesRepaired   int            `json:"edges_repaired"`
	StatusChanges   map[string]int `json:"status_changes"`
	EventsByProject map[string]int `json:"events_by_project"`
	EventCount      int            `json:"event_count"`
	OldestEvent     string         `json:"oldest_event,omitempty"`
	NewestEvent     string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_projects",
		Description: "List the registered projects and their checkout directories.",
	}, s.handleListProjects)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List a project's tasks with scheduling metadata (blocked-by, dependents, depth), optionally filtered by status.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_task",
		Description: "Get one task in full, including subtasks, dependencies and derived scheduling metadata.",
	}, s.handleGetTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Create a task in a project. The new task starts pending with no dependencies.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_task_status",
		Description: "Set a task's status. Statuses: pending, in-progress, done, verified, review, paused, deferred, cancelled, blocked.",
	}, s.handleUpdateTaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_subtask",
		Description: "Add a subtask under a task, or nest it under an existing subtask via parent_subtask_id.",
	}, s.handleAddSubtask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "update_subtask_status",
		Description: "Set a subtask's status. Finishing the last open subtask of an in-progress task completes the task.",
	}, s.handleUpdateSubtaskStatus)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "validate_dependencies",
		Description: "Check a project's dependency graph for missing references, self-dependencies and cycles.",
	}, s.handleValidateDependencies)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "fix_dependencies",
		Description: "Remove missing and self dependencies from a project's graph. Cycles are reported but never auto-removed.",
	}, s.handleFixDependencies)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_stats",
		Description: "Get aggregate lifecycle statistics from the event log: tasks created and completed, status transitions, repairs.",
	}, s.handleGetStats)
}

// --- Tool handlers ---

func (s *Server) handleListProjects(_ context.Context, _ *gomcp.CallToolRequest, _ struct{}) (*gomcp.CallToolResult, listProjectsOutput, error) {
	projects, err := s.tasks.GetProjects()
	if err != nil {
		return errorResult(fmt.Sprintf("listing projects: %s", err)), listProjectsOutput{}, nil
	}
	return nil, listProjectsOutput{Projects: projects, Count: len(projects)}, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	if input.Project == "" {
		return errorResult("project is required"), listTasksOutput{}, nil
	}

	all, err := s.tasks.GetAllTasks()
	if err != nil {
		return errorResult(fmt.Sprintf("listing tasks: %s", err)), listTasksOutput{}, nil
	}
	project, ok := all[input.Project]
	if !ok {
		return errorResult(fmt.Sprintf("project %q not found", input.Project)), listTasksOutput{}, nil
	}

	out := listTasksOutput{Tasks: []taskOutput{}}
	for i := range project.Tasks {
		t := &project.Tasks[i]
		if input.Status != "" && string(t.Status) != input.Status {
			continue
		}
		out.Tasks = append(out.Tasks, taskToOutput(t))
	}
	out.Count = len(out.Tasks)
	return nil, out, nil
}

func (s *Server) handleGetTask(_ context.Context, _ *gomcp.CallToolRequest, input getTaskInput) (*gomcp.CallToolResult, getTaskOutput, error) {
	if input.Project == "" {
		return errorResult("project is required"), getTaskOutput{}, nil
	}

	all, err := s.tasks.GetAllTasks()
	if err != nil {
		return errorResult(fmt.Sprintf("getting task: %s", err)), getTaskOutput{}, nil
	}
	project, ok := all[input.Project]
	if !ok {
		return errorResult(fmt.Sprintf("project %q not found", input.Project)), getTaskOutput{}, nil
	}
	for i := range project.Tasks {
		if project.Tasks[i].ID == input.TaskID {
			return nil, getTaskOutput{Task: project.Tasks[i]}, nil
		}
	}
	return errorResult(fmt.Sprintf("task %d not found in %s", input.TaskID, input.Project)), getTaskOutput{}, nil
}

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, addTaskOutput, error) {
	if input.Project == "" {
		return errorResult("project is required"), addTaskOutput{}, nil
	}
	if input.Title == "" {
		return errorResult("title is required"), addTaskOutput{}, nil
	}

	task, err := s.tasks.AddTask(input.Project, core.NewTask{
		Title:       input.Title,
		Description: input.Description,
		Priority:    models.TaskPriority(input.Priority),
		Subtasks:    input.Subtasks,
	})
	if err != nil {
		return errorResult(fmt.Sprintf("adding task: %s", err)), addTaskOutput{}, nil
	}
	if task == nil {
		return errorResult(fmt.Sprintf("project %q not found", input.Project)), addTaskOutput{}, nil
	}

	return nil, addTaskOutput{
		TaskID:  task.ID,
		Message: fmt.Sprintf("task %d created in %s", task.ID, input.Project),
	}, nil
}

func (s *Server) handleUpdateTaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input updateTaskStatusInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.Project == "" {
		return errorResult("project is required"), messageOutput{}, nil
	}
	if input.Status == "" {
		return errorResult("status is required"), messageOutput{}, nil
	}

	ok, err := s.tasks.UpdateStatus(input.Project, input.TaskID, models.TaskStatus(input.Status))
	if err != nil {
		return errorResult(fmt.Sprintf("updating task %d: %s", input.TaskID, err)), messageOutput{}, nil
	}
	if !ok {
		return errorResult(fmt.Sprintf("task %d not found in %s", input.TaskID, input.Project)), messageOutput{}, nil
	}
	return nil, messageOutput{
		Message: fmt.Sprintf("task %d in %s updated to %s", input.TaskID, input.Project, input.Status),
	}, nil
}

func (s *Server) handleAddSubtask(_ context.Context, _ *gomcp.CallToolRequest, input addSubtaskInput) (*gomcp.CallToolResult, addSubtaskOutput, error) {
	if input.Project == "" {
		return errorResult("project is required"), addSubtaskOutput{}, nil
	}
	if input.Title == "" {
		return errorResult("title is required"), addSubtaskOutput{}, nil
	}

	sub, err := s.tasks.AddSubtask(input.Project, input.TaskID, input.Title, input.ParentID)
	if err != nil {
		return errorResult(fmt.Sprintf("adding subtask: %s", err)), addSubtaskOutput{}, nil
	}
	if sub == nil {
		return errorResult(fmt.Sprintf("task %d or parent subtask %d not found in %s", input.TaskID, input.ParentID, input.Project)), addSubtaskOutput{}, nil
	}
	return nil, addSubtaskOutput{
		SubtaskID: sub.ID,
		Message:   fmt.Sprintf("subtask %d added to task %d", sub.ID, input.TaskID),
	}, nil
}

func (s *Server) handleUpdateSubtaskStatus(_ context.Context, _ *gomcp.CallToolRequest, input updateSubtaskStatusInput) (*gomcp.CallToolResult, messageOutput, error) {
	if input.Project == "" {
		return errorResult("project is required"), messageOutput{}, nil
	}
	if input.Status == "" {
		return errorResult("status is required"), messageOutput{}, nil
	}

	ok, err := s.tasks.UpdateSubtaskStatus(input.Project, input.TaskID, input.SubtaskID, models.TaskStatus(input.Status))
	if err != nil {
		return errorResult(fmt.Sprintf("updating subtask %d: %s", input.SubtaskID, err)), messageOutput{}, nil
	}
	if !ok {
		return errorResult(fmt.Sprintf("subtask %d of task %d not found in %s", input.SubtaskID, input.TaskID, input.Project)), messageOutput{}, nil
	}
	return nil, messageOutput{
		Message: fmt.Sprintf("subtask %d of task %d updated to %s", input.SubtaskID, input.TaskID, input.Status),
	}, nil
}

func (s *Server) handleValidateDependencies(_ context.Context, _ *gomcp.CallToolRequest, input projectInput) (*gomcp.CallToolResult, validateOutput, error) {
	if input.Project == "" {
		return errorResult("project is required"), validateOutput{}, nil
	}

	report, err := s.tasks.ValidateDependencies(input.Project)
	if err != nil {
		return errorResult(fmt.Sprintf("validating dependencies: %s", err)), validateOutput{}, nil
	}
	if report == nil {
		return errorResult(fmt.Sprintf("project %q not found", input.Project)), validateOutput{}, nil
	}

	out := validateOutput{Valid: report.Valid, Issues: []string{}}
	for _, issue := range report.Issues {
		out.Issues = append(out.Issues, issue.String())
	}
	return nil, out, nil
}

func (s *Server) handleFixDependencies(_ context.Context, _ *gomcp.CallToolRequest, input projectInput) (*gomcp.CallToolResult, fixOutput, error) {
	if input.Project == "" {
		return errorResult("project is required"), fixOutput{}, nil
	}

	removed, err := s.tasks.FixDependencies(input.Project)
	if err != nil {
		return errorResult(fmt.Sprintf("fixing dependencies: %s", err)), fixOutput{}, nil
	}
	if removed < 0 {
		return errorResult(fmt.Sprintf("project %q not found", input.Project)), fixOutput{}, nil
	}
	return nil, fixOutput{
		Removed: removed,
		Message: fmt.Sprintf("removed %d invalid dependency edges in %s", removed, input.Project),
	}, nil
}

func (s *Server) handleGetStats(_ context.Context, _ *gomcp.CallToolRequest, input getStatsInput) (*gomcp.CallToolResult, statsOutput, error) {
	if s.stats == nil {
		return errorResult("stats not available (event log may be disabled)"), emptyStatsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}
	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyStatsOutput(), nil
	}

	stats, err := s.stats.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating stats: %s", err)), emptyStatsOutput(), nil
	}

	out := statsOutput{
		TasksCreated:    stats.TasksCreated,
		TasksCompleted:  stats.TasksCompleted,
		SubtasksCreated: stats.SubtasksCreated,
		EdgesRepaired:   stats.EdgesRepaired,
		StatusChanges:   stats.StatusChanges,
		EventsByProject: stats.EventsByProject,
		EventCount:      stats.EventCount,
	}
	if stats.OldestEvent != nil {
		out.OldestEvent = stats.OldestEvent.Format(time.RFC3339)
	}
	if stats.NewestEvent != nil {
		out.NewestEvent = stats.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t *models.Task) taskOutput {
	return taskOutput{
		ID:            t.ID,
		Title:         t.Title,
		Status:        string(t.Status),
		Priority:      string(t.Priority),
		Dependencies:  t.Dependencies,
		BlockedBy:     t.BlockedBy,
		Dependents:    t.Dependents,
		IsIndependent: t.IsIndependent,
		Depth:         t.Depth,
		Subtasks:      len(t.Subtasks),
		ContextFiles:  t.ContextFiles,
	}
}

func emptyStatsOutput() statsOutput {
	return statsOutput{
		StatusChanges:   make(map[string]int),
		EventsByProject: make(map[string]int),
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or
// "24h" into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
