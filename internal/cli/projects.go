package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List registered projects and their task counts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := Tasks.GetProjects()
		if err != nil {
			return err
		}
		all, err := Tasks.GetAllTasks()
		if err != nil {
			return err
		}

		names := make([]string, 0, len(all))
		for name := range all {
			names = append(names, name)
		}
		sort.Strings(names)

		if len(names) == 0 {
			fmt.Println("no projects")
			return nil
		}

		fmt.Printf("%-20s %-6s %-6s %s\n", "PROJECT", "TASKS", "DONE", "PATH")
		for _, name := range names {
			tasks := all[name].Tasks
			done := 0
			for i := range tasks {
				if models.IsFinished(tasks[i].Status) {
					done++
				}
			}
			path := registry[name]
			if path == "" {
				path = "-"
			}
			fmt.Printf("%-20s %-6d %-6d %s\n", name, len(tasks), done, path)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectsCmd)
}
