package mcp

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/graph"
	"github.com/valter-silva-au/taskboard/internal/observability"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// --- Fake implementations ---

type fakeTaskService struct {
	projects map[string]string
	tasks    map[string]models.ProjectTasks
}

func newFakeTaskService() *fakeTaskService {
	return &fakeTaskService{
		projects: map[string]string{"api": "/src/api"},
		tasks: map[string]models.ProjectTasks{
			"api": {Tasks: []models.Task{
				{
					ID: 1, Title: "bootstrap", Status: models.StatusDone,
					Priority: models.PriorityHigh, Dependencies: []int{},
					BlockedBy: []int{}, Dependents: []int{2}, IsIndependent: true,
				},
				{
					ID: 2, Title: "build api", Status: models.StatusPending,
					Priority: models.PriorityMedium, Dependencies: []int{1},
					BlockedBy: []int{}, Dependents: []int{}, Depth: 1,
					Subtasks: []models.Subtask{{ID: 1, Title: "scaffold", Status: models.StatusPending}},
				},
			}},
		},
	}
}

func (f *fakeTaskService) GetProjects() (map[string]string, error) {
	return f.projects, nil
}

func (f *fakeTaskService) GetAllTasks() (map[string]models.ProjectTasks, error) {
	return f.tasks, nil
}

func (f *fakeTaskService) UpdateStatus(project string, taskID int, status models.TaskStatus) (bool, error) {
	p, ok := f.tasks[project]
	if !ok {
		return false, nil
	}
	for i := range p.Tasks {
		if p.Tasks[i].ID == taskID {
			p.Tasks[i].Status = status
			f.tasks[project] = p
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeTaskService) AddTask(project string, fields core.NewTask) (*models.Task, error) {
	p, ok := f.tasks[project]
	if !ok {
		return nil, nil
	}
	task := models.Task{ID: len(p.Tasks) + 1, Title: fields.Title, Status: models.StatusPending}
	p.Tasks = append(p.Tasks, task)
	f.tasks[project] = p
	return &task, nil
}

func (f *fakeTaskService) AddSubtask(project string, taskID int, title string, parentSubtaskID int) (*models.Subtask, error) {
	if _, ok := f.tasks[project]; !ok || taskID != 2 {
		return nil, nil
	}
	return &models.Subtask{ID: 2, Title: title, Status: models.StatusPending}, nil
}

func (f *fakeTaskService) UpdateSubtaskStatus(project string, taskID, subtaskID int, status models.TaskStatus) (bool, error) {
	return project == "api" && taskID == 2 && subtaskID == 1, nil
}

func (f *fakeTaskService) ValidateDependencies(project string) (*graph.Report, error) {
	if project != "api" {
		return nil, nil
	}
	return &graph.Report{
		Valid: false,
		Issues: []graph.Issue{
			{Kind: graph.IssueDangling, TaskID: 2, DepID: 9},
		},
	}, nil
}

func (f *fakeTaskService) FixDependencies(project string) (int, error) {
	if project != "api" {
		return -1, nil
	}
	return 1, nil
}

type fakeStatsCalculator struct {
	stats *observability.Stats
}

func (f *fakeStatsCalculator) Calculate(_ time.Time) (*observability.Stats, error) {
	return f.stats, nil
}

// --- Test helpers ---

// callTool connects a client to the server over in-memory transports and
// calls a tool.
func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *gomcp.CallToolResult {
	t.Helper()

	ctx := context.Background()
	client := gomcp.NewClient(&gomcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)

	t1, t2 := gomcp.NewInMemoryTransports()

	go func() {
		_ = srv.MCPServer().Run(ctx, t1)
	}()

	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	defer session.Close()

	result, err := session.CallTool(ctx, &gomcp.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}

	return result
}

// decodeResult parses a tool result into out, preferring structured content.
func decodeResult(t *testing.T, result *gomcp.CallToolResult, out any) {
	t.Helper()
	if result.StructuredContent != nil {
		data, _ := json.Marshal(result.StructuredContent)
		if err := json.Unmarshal(data, out); err != nil {
			t.Fatalf("unmarshalling structured content: %v", err)
		}
		return
	}
	text := extractText(result)
	if err := json.Unmarshal([]byte(text), out); err != nil {
		t.Fatalf("unmarshalling tool output: %v (text was: %s)", err, text)
	}
}

// --- Tests ---

func TestListProjects(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "list_projects", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out listProjectsOutput
	decodeResult(t, result, &out)
	if out.Count != 1 || out.Projects["api"] != "/src/api" {
		t.Errorf("projects = %+v", out)
	}
}

func TestListTasks(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "list_tasks", map[string]any{"project": "api"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out listTasksOutput
	decodeResult(t, result, &out)
	if out.Count != 2 {
		t.Fatalf("expected 2 tasks, got %d", out.Count)
	}
	if out.Tasks[1].Depth != 1 || len(out.Tasks[0].Dependents) != 1 {
		t.Errorf("scheduling metadata missing: %+v", out.Tasks)
	}
}

func TestListTasksWithStatusFilter(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "list_tasks", map[string]any{"project": "api", "status": "done"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out listTasksOutput
	decodeResult(t, result, &out)
	if out.Count != 1 || out.Tasks[0].ID != 1 {
		t.Errorf("filtered tasks = %+v", out)
	}
}

func TestListTasksUnknownProject(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "list_tasks", map[string]any{"project": "ghost"})
	if !result.IsError {
		t.Fatal("expected error for unknown project")
	}
}

func TestGetTask(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "get_task", map[string]any{"project": "api", "task_id": 2})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out getTaskOutput
	decodeResult(t, result, &out)
	if out.Task.ID != 2 || out.Task.Title != "build api" {
		t.Errorf("task = %+v", out.Task)
	}
	if len(out.Task.Subtasks) != 1 {
		t.Errorf("subtasks missing: %+v", out.Task.Subtasks)
	}
}

func TestGetTaskNotFound(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "get_task", map[string]any{"project": "api", "task_id": 99})
	if !result.IsError {
		t.Fatal("expected error result for non-existent task")
	}
}

func TestAddTask(t *testing.T) {
	fake := newFakeTaskService()
	srv := NewServer(fake, nil, "test")

	result := callTool(t, srv, "add_task", map[string]any{"project": "api", "title": "ship it"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out addTaskOutput
	decodeResult(t, result, &out)
	if out.TaskID != 3 {
		t.Errorf("task id = %d", out.TaskID)
	}
	if len(fake.tasks["api"].Tasks) != 3 {
		t.Errorf("task not added: %d", len(fake.tasks["api"].Tasks))
	}
}

func TestUpdateTaskStatus(t *testing.T) {
	fake := newFakeTaskService()
	srv := NewServer(fake, nil, "test")

	result := callTool(t, srv, "update_task_status", map[string]any{
		"project": "api", "task_id": 2, "status": "in-progress",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
	if fake.tasks["api"].Tasks[1].Status != models.StatusInProgress {
		t.Errorf("status = %s", fake.tasks["api"].Tasks[1].Status)
	}
}

func TestUpdateTaskStatusNotFound(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "update_task_status", map[string]any{
		"project": "api", "task_id": 99, "status": "done",
	})
	if !result.IsError {
		t.Fatal("expected error for missing task")
	}
}

func TestAddSubtask(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "add_subtask", map[string]any{
		"project": "api", "task_id": 2, "title": "write tests",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out addSubtaskOutput
	decodeResult(t, result, &out)
	if out.SubtaskID != 2 {
		t.Errorf("subtask id = %d", out.SubtaskID)
	}
}

func TestUpdateSubtaskStatus(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "update_subtask_status", map[string]any{
		"project": "api", "task_id": 2, "subtask_id": 1, "status": "done",
	})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}
}

func TestValidateDependencies(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "validate_dependencies", map[string]any{"project": "api"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out validateOutput
	decodeResult(t, result, &out)
	if out.Valid {
		t.Error("expected invalid report")
	}
	if len(out.Issues) != 1 {
		t.Errorf("issues = %v", out.Issues)
	}
}

func TestFixDependencies(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "fix_dependencies", map[string]any{"project": "api"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out fixOutput
	decodeResult(t, result, &out)
	if out.Removed != 1 {
		t.Errorf("removed = %d", out.Removed)
	}
}

func TestFixDependenciesUnknownProject(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "fix_dependencies", map[string]any{"project": "ghost"})
	if !result.IsError {
		t.Fatal("expected error for unknown project")
	}
}

func TestGetStats(t *testing.T) {
	now := time.Now().UTC()
	sc := &fakeStatsCalculator{
		stats: &observability.Stats{
			TasksCreated:    5,
			TasksCompleted:  3,
			StatusChanges:   map[string]int{"done": 3},
			EventsByProject: map[string]int{"api": 8},
			EventCount:      42,
			OldestEvent:     &now,
			NewestEvent:     &now,
		},
	}
	srv := NewServer(newFakeTaskService(), sc, "test")

	result := callTool(t, srv, "get_stats", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", extractText(result))
	}

	var out statsOutput
	decodeResult(t, result, &out)
	if out.TasksCreated != 5 || out.EventCount != 42 {
		t.Errorf("stats = %+v", out)
	}
}

func TestGetStatsDisabled(t *testing.T) {
	srv := NewServer(newFakeTaskService(), nil, "test")

	result := callTool(t, srv, "get_stats", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error when stats calculator is nil")
	}
}

func TestParseSince(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"7d", false},
		{"30d", false},
		{"24h", false},
		{"1h", false},
		{"", true},
		{"x", true},
		{"7x", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseSince(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseSince(%q) error = %v, wantErr = %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

// extractText extracts the text from the first TextContent in a CallToolResult.
func extractText(result *gomcp.CallToolResult) string {
	for _, c := range result.Content {
		if tc, ok := c.(*gomcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}
