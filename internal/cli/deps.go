package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/graph"
	"github.com/valter-silva-au/taskboard/pkg/models"
)

var depsCmd = &cobra.Command{
	Use:   "deps",
	Short: "Inspect and repair the dependency graph",
}

var depsAddCmd = &cobra.Command{
	Use:   "add <task-id> <depends-on-id>",
	Short: "Record that one task depends on another",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, dependsOn, err := parseEdge(args)
		if err != nil {
			return err
		}

		ok, err := Tasks.AddDependency(taskProject, taskID, dependsOn)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("task %d not found in %s; nothing changed\n", taskID, taskProject)
			return nil
		}
		fmt.Printf("task %d now depends on %d\n", taskID, dependsOn)
		return nil
	},
}

var depsRemoveCmd = &cobra.Command{
	Use:   "rm <task-id> <depends-on-id>",
	Short: "Remove a dependency edge",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, dependsOn, err := parseEdge(args)
		if err != nil {
			return err
		}

		ok, err := Tasks.RemoveDependency(taskProject, taskID, dependsOn)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("task %d not found in %s; nothing changed\n", taskID, taskProject)
			return nil
		}
		fmt.Printf("task %d no longer depends on %d\n", taskID, dependsOn)
		return nil
	},
}

var depsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the project's dependency graph for integrity problems",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := Tasks.ValidateDependencies(taskProject)
		if err != nil {
			return err
		}
		if report == nil {
			fmt.Printf("project %q not found; nothing to validate\n", taskProject)
			return nil
		}
		if report.Valid {
			fmt.Println("dependency graph is healthy")
			return nil
		}
		fmt.Printf("%d issue(s) found:\n", len(report.Issues))
		for _, issue := range report.Issues {
			fmt.Printf("  %s\n", issue)
		}
		return nil
	},
}

var depsFixCmd = &cobra.Command{
	Use:   "fix",
	Short: "Remove dangling and self dependencies",
	Long: `Remove dependency edges that point at missing tasks or at the task
itself. Cycles are reported by validate but never auto-broken; pick the
edge to cut and remove it with "deps rm".`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fixed, err := Tasks.FixDependencies(taskProject)
		if err != nil {
			return err
		}
		if fixed < 0 {
			fmt.Printf("project %q not found; nothing fixed\n", taskProject)
			return nil
		}
		if fixed == 0 {
			fmt.Println("nothing to fix")
			return nil
		}
		fmt.Printf("removed %d broken edge(s)\n", fixed)
		return nil
	},
}

var depsPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the longest dependency chain through the project",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := projectTasks(taskProject)
		if err != nil {
			return err
		}
		if tasks == nil {
			fmt.Printf("project %q not found\n", taskProject)
			return nil
		}

		chain := graph.LongestChain(tasks)
		if len(chain) == 0 {
			fmt.Println("no tasks")
			return nil
		}

		byID := make(map[int]*models.Task, len(tasks))
		for i := range tasks {
			byID[tasks[i].ID] = &tasks[i]
		}
		fmt.Printf("critical path (%d tasks):\n", len(chain))
		for i, id := range chain {
			title := ""
			if t := byID[id]; t != nil {
				title = t.Title
			}
			fmt.Printf("  %d. #%d %s\n", i+1, id, title)
		}
		return nil
	},
}

var depsPhasesCmd = &cobra.Command{
	Use:   "phases",
	Short: "Group tasks into phases by dependency depth",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tasks, err := projectTasks(taskProject)
		if err != nil {
			return err
		}
		if tasks == nil {
			fmt.Printf("project %q not found\n", taskProject)
			return nil
		}

		phases := graph.GroupByDepth(tasks)
		if len(phases) == 0 {
			fmt.Println("no tasks")
			return nil
		}
		for _, phase := range phases {
			fmt.Printf("phase %d:\n", phase.Depth)
			for _, t := range phase.Tasks {
				fmt.Printf("  #%d [%s] %s\n", t.ID, t.Status, t.Title)
			}
		}
		return nil
	},
}

func parseEdge(args []string) (int, int, error) {
	taskID, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid task id %q", args[0])
	}
	dependsOn, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid dependency id %q", args[1])
	}
	return taskID, dependsOn, nil
}

func init() {
	depsCmd.PersistentFlags().StringVarP(&taskProject, "project", "p", "", "Project name (required)")
	_ = depsCmd.MarkPersistentFlagRequired("project")

	depsCmd.AddCommand(depsAddCmd, depsRemoveCmd, depsValidateCmd, depsFixCmd, depsPathCmd, depsPhasesCmd)
	rootCmd.AddCommand(depsCmd)
}
