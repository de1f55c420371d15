package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/valter-silva-au/taskboard/internal/board"
	"github.com/valter-silva-au/taskboard/internal/core"
	"github.com/valter-silva-au/taskboard/internal/graph"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// TaskService is the subset of the lifecycle service the CLI commands use.
type TaskService interface {
	GetProjects() (map[string]string, error)
	GetAllTasks() (map[string]models.ProjectTasks, error)
	UpdateStatus(project string, taskID int, status models.TaskStatus) (bool, error)
	UpdateFields(project string, taskID int, fields core.FieldUpdates) (bool, error)
	AddTask(project string, fields core.NewTask) (*models.Task, error)
	DeleteTask(project string, taskID int) (bool, error)
	AddSubtask(project string, taskID int, title string, parentSubtaskID int) (*models.Subtask, error)
	UpdateSubtaskStatus(project string, taskID, subtaskID int, status models.TaskStatus) (bool, error)
	DeleteSubtask(project string, taskID, subtaskID int) (bool, error)
	AddDependency(project string, taskID, dependsOn int) (bool, error)
	RemoveDependency(project string, taskID, dependsOn int) (bool, error)
	ValidateDependencies(project string) (*graph.Report, error)
	FixDependencies(project string) (int, error)
	AddChatMessage(project string, taskID int, message models.ChatMessage) (bool, error)
	ChatHistory(project string, taskID int) ([]models.ChatMessage, error)
}

// Tasks is the lifecycle service, wired by the app at startup.
var Tasks TaskService

var (
	taskProject string
	taskStatus  string
	taskFilter  string
	taskOutput  string

	addTitle       string
	addDescription string
	addPriority    string
	addSubtasks    []string

	updTitle        string
	updDescription  string
	updBranch       string
	updPRURL        string
	updStartCommit  string
	updContextFiles []string
	updCriteria     []string
)

var taskCmd = &cobra.Command{
	Use:   "task",
	Short: "Inspect and modify tasks",
}

var taskListCmd = &cobra.Command{
	Use:   "list",
	Short: "List a project's tasks with scheduling metadata",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := projectTasks(taskProject)
		if err != nil {
			return err
		}
		if tasks == nil {
			fmt.Printf("project %q not found; nothing to list\n", taskProject)
			return nil
		}

		filtered := board.Filter(tasks, taskFilter)
		if taskStatus != "" {
			var byStatus []models.Task
			for _, t := range filtered {
				if string(t.Status) == taskStatus {
					byStatus = append(byStatus, t)
				}
			}
			filtered = byStatus
		}

		if len(filtered) == 0 {
			fmt.Println("no tasks match")
			return nil
		}

		fmt.Printf("%-5s %-12s %-8s %-6s %-14s %s\n", "ID", "STATUS", "PRIO", "DEPTH", "BLOCKED BY", "TITLE")
		for _, t := range filtered {
			fmt.Printf("%-5d %-12s %-8s %-6d %-14s %s\n",
				t.ID, t.Status, t.Priority, t.Depth, intList(t.BlockedBy), t.Title)
		}
		return nil
	},
}

var taskShowCmd = &cobra.Command{
	Use:   "show <task-id>",
	Short: "Show one task in full",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}

		tasks, err := projectTasks(taskProject)
		if err != nil {
			return err
		}
		for i := range tasks {
			if tasks[i].ID == id {
				return renderTask(&tasks[i], taskOutput)
			}
		}
		fmt.Printf("task %d not found in %s; nothing to show\n", id, taskProject)
		return nil
	},
}

var taskAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Create a task",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		task, err := Tasks.AddTask(taskProject, core.NewTask{
			Title:       addTitle,
			Description: addDescription,
			Priority:    models.TaskPriority(addPriority),
			Subtasks:    addSubtasks,
		})
		if err != nil {
			return err
		}
		if task == nil {
			fmt.Printf("project %q not found; nothing created\n", taskProject)
			return nil
		}
		fmt.Printf("created task %d in %s\n", task.ID, taskProject)
		return nil
	},
}

var taskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <status>",
	Short: "Set a task's status",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}

		ok, err := Tasks.UpdateStatus(taskProject, id, models.TaskStatus(args[1]))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("task %d not found in %s; nothing changed\n", id, taskProject)
			return nil
		}
		fmt.Printf("task %d in %s is now %s\n", id, taskProject, args[1])
		return nil
	},
}

var taskUpdateCmd = &cobra.Command{
	Use:   "update <task-id>",
	Short: "Update a task's editable fields",
	Long: `Update a task's fields. Only the flags you pass are applied; everything
else is left untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}

		fields := core.FieldUpdates{}
		if cmd.Flags().Changed("title") {
			fields.Title = &updTitle
		}
		if cmd.Flags().Changed("description") {
			fields.Description = &updDescription
		}
		if cmd.Flags().Changed("branch") {
			fields.Branch = &updBranch
		}
		if cmd.Flags().Changed("pr-url") {
			fields.PRURL = &updPRURL
		}
		if cmd.Flags().Changed("start-commit") {
			fields.StartCommit = &updStartCommit
		}
		if cmd.Flags().Changed("context-file") {
			fields.ContextFiles = updContextFiles
		}
		if cmd.Flags().Changed("criterion") {
			fields.AcceptanceCriteria = updCriteria
		}

		ok, err := Tasks.UpdateFields(taskProject, id, fields)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("task %d not found in %s; nothing changed\n", id, taskProject)
			return nil
		}
		fmt.Printf("updated task %d in %s\n", id, taskProject)
		return nil
	},
}

var taskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id>",
	Short: "Delete a task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}

		ok, err := Tasks.DeleteTask(taskProject, id)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("task %d not found in %s; nothing changed\n", id, taskProject)
			return nil
		}
		fmt.Printf("deleted task %d from %s\n", id, taskProject)
		return nil
	},
}

var taskChatCmd = &cobra.Command{
	Use:   "chat <task-id> [message]",
	Short: "Show a task's chat history, or append a message to it",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}

		if len(args) == 2 {
			ok, err := Tasks.AddChatMessage(taskProject, id, models.ChatMessage{
				Role:      "user",
				Content:   args[1],
				Timestamp: time.Now().UnixMilli(),
			})
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("task %d not found in %s; nothing changed\n", id, taskProject)
				return nil
			}
			fmt.Println("message added")
			return nil
		}

		history, err := Tasks.ChatHistory(taskProject, id)
		if err != nil {
			return err
		}
		if len(history) == 0 {
			fmt.Println("no chat history")
			return nil
		}
		for _, msg := range history {
			fmt.Printf("[%s] %s\n", msg.Role, msg.Content)
		}
		return nil
	},
}

// projectTasks returns the enriched task list of one project, nil when the
// project is unknown.
func projectTasks(project string) ([]models.Task, error) {
	all, err := Tasks.GetAllTasks()
	if err != nil {
		return nil, err
	}
	p, ok := all[project]
	if !ok {
		return nil, nil
	}
	if p.Tasks == nil {
		return []models.Task{}, nil
	}
	return p.Tasks, nil
}

func renderTask(t *models.Task, format string) error {
	switch format {
	case "json":
		data, err := json.MarshalIndent(t, "", "  ")
		if err != nil {
			return fmt.Errorf("formatting task as JSON: %w", err)
		}
		fmt.Println(string(data))
	case "yaml":
		data, err := yaml.Marshal(t)
		if err != nil {
			return fmt.Errorf("formatting task as YAML: %w", err)
		}
		fmt.Print(string(data))
	default:
		fmt.Printf("#%d %s\n", t.ID, t.Title)
		fmt.Printf("  status:       %s\n", t.Status)
		fmt.Printf("  priority:     %s\n", t.Priority)
		fmt.Printf("  depth:        %d\n", t.Depth)
		fmt.Printf("  dependencies: %s\n", intList(t.Dependencies))
		fmt.Printf("  blocked by:   %s\n", intList(t.BlockedBy))
		fmt.Printf("  dependents:   %s\n", intList(t.Dependents))
		if t.Description != "" {
			fmt.Printf("  description:  %s\n", t.Description)
		}
		if t.Branch != "" {
			fmt.Printf("  branch:       %s\n", t.Branch)
		}
		if t.PRURL != "" {
			fmt.Printf("  pr:           %s\n", t.PRURL)
		}
		if len(t.Subtasks) > 0 {
			fmt.Println("  subtasks:")
			printSubtasks(t.Subtasks, 4)
		}
	}
	return nil
}

func printSubtasks(subtasks []models.Subtask, indent int) {
	for i := range subtasks {
		s := &subtasks[i]
		fmt.Printf("%*s%d. [%s] %s\n", indent, "", s.ID, s.Status, s.Title)
		printSubtasks(s.Subtasks, indent+2)
	}
}

// intList renders an int slice compactly, "-" when empty.
func intList(ids []int) string {
	if len(ids) == 0 {
		return "-"
	}
	out := ""
	for i, id := range ids {
		if i > 0 {
			out += ","
		}
		out += strconv.Itoa(id)
	}
	return out
}

func init() {
	taskCmd.PersistentFlags().StringVarP(&taskProject, "project", "p", "", "Project name (required)")
	_ = taskCmd.MarkPersistentFlagRequired("project")

	taskListCmd.Flags().StringVar(&taskStatus, "status", "", "Filter by status")
	taskListCmd.Flags().StringVar(&taskFilter, "filter", "all", "Scheduling filter: all, independent, dependent, waiting")

	taskShowCmd.Flags().StringVarP(&taskOutput, "output", "o", "text", "Output format: text, json, yaml")

	taskAddCmd.Flags().StringVar(&addTitle, "title", "", "Task title (required)")
	taskAddCmd.Flags().StringVar(&addDescription, "description", "", "Task description")
	taskAddCmd.Flags().StringVar(&addPriority, "priority", "", "Priority: low, medium, high (defaults to medium)")
	taskAddCmd.Flags().StringArrayVar(&addSubtasks, "subtask", nil, "Initial subtask title (repeatable)")
	_ = taskAddCmd.MarkFlagRequired("title")

	taskUpdateCmd.Flags().StringVar(&updTitle, "title", "", "New title")
	taskUpdateCmd.Flags().StringVar(&updDescription, "description", "", "New description")
	taskUpdateCmd.Flags().StringVar(&updBranch, "branch", "", "Working branch")
	taskUpdateCmd.Flags().StringVar(&updPRURL, "pr-url", "", "Pull request URL")
	taskUpdateCmd.Flags().StringVar(&updStartCommit, "start-commit", "", "Commit the work started from")
	taskUpdateCmd.Flags().StringArrayVar(&updContextFiles, "context-file", nil, "Context file path (repeatable, replaces the list)")
	taskUpdateCmd.Flags().StringArrayVar(&updCriteria, "criterion", nil, "Acceptance criterion (repeatable, replaces the list)")

	taskCmd.AddCommand(taskListCmd, taskShowCmd, taskAddCmd, taskStatusCmd, taskUpdateCmd, taskDeleteCmd, taskChatCmd)
	rootCmd.AddCommand(taskCmd)
}
