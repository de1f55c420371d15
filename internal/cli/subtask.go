package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

var subtaskParent int

var subtaskCmd = &cobra.Command{
	Use:   "subtask",
	Short: "Manage a task's subtask tree",
}

var subtaskAddCmd = &cobra.Command{
	Use:   "add <task-id> <title>",
	Short: "Add a subtask to a task",
	Long: `Add a subtask. By default it lands at the top level of the task; pass
--parent to nest it under an existing subtask.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}

		subtask, err := Tasks.AddSubtask(taskProject, taskID, args[1], subtaskParent)
		if err != nil {
			return err
		}
		if subtask == nil {
			fmt.Printf("task %d not found in %s; nothing created\n", taskID, taskProject)
			return nil
		}
		fmt.Printf("created subtask %d under task %d\n", subtask.ID, taskID)
		return nil
	},
}

var subtaskStatusCmd = &cobra.Command{
	Use:   "status <task-id> <subtask-id> <status>",
	Short: "Set a subtask's status",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}
		subtaskID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid subtask id %q", args[1])
		}

		ok, err := Tasks.UpdateSubtaskStatus(taskProject, taskID, subtaskID, models.TaskStatus(args[2]))
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("subtask %d not found under task %d in %s; nothing changed\n", subtaskID, taskID, taskProject)
			return nil
		}
		fmt.Printf("subtask %d under task %d is now %s\n", subtaskID, taskID, args[2])
		return nil
	},
}

var subtaskDeleteCmd = &cobra.Command{
	Use:   "delete <task-id> <subtask-id>",
	Short: "Delete a subtask and everything nested under it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		taskID, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid task id %q", args[0])
		}
		subtaskID, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid subtask id %q", args[1])
		}

		ok, err := Tasks.DeleteSubtask(taskProject, taskID, subtaskID)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Printf("subtask %d not found under task %d in %s; nothing changed\n", subtaskID, taskID, taskProject)
			return nil
		}
		fmt.Printf("deleted subtask %d from task %d\n", subtaskID, taskID)
		return nil
	},
}

func init() {
	subtaskCmd.PersistentFlags().StringVarP(&taskProject, "project", "p", "", "Project name (required)")
	_ = subtaskCmd.MarkPersistentFlagRequired("project")

	subtaskAddCmd.Flags().IntVar(&subtaskParent, "parent", 0, "Parent subtask id (0 for top level)")

	subtaskCmd.AddCommand(subtaskAddCmd, subtaskStatusCmd, subtaskDeleteCmd)
	rootCmd.AddCommand(subtaskCmd)
}
