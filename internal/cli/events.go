package cli

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/valter-silva-au/taskboard/internal/observability"
)

// EventLog and StatsCalc are wired by the app at startup; both stay nil when
// the event log could not be opened.
var (
	EventLog  observability.EventLog
	StatsCalc observability.StatsCalculator
)

var (
	eventsSince   string
	eventsType    string
	eventsProject string
	eventsJSON    bool
	eventsLimit   int

	statsSince string
	statsJSON  bool
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Read the lifecycle event log",
	Long: `Read recorded lifecycle events: task creation, status changes,
auto-completions, dependency repairs. Events are stored as JSONL and
filtered here by time window, type, and project.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if EventLog == nil {
			return fmt.Errorf("event log not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(eventsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		events, err := EventLog.Read(observability.EventFilter{
			Since:   &sinceTime,
			Type:    eventsType,
			Project: eventsProject,
		})
		if err != nil {
			return fmt.Errorf("reading events: %w", err)
		}

		if eventsLimit > 0 && len(events) > eventsLimit {
			events = events[len(events)-eventsLimit:]
		}

		if eventsJSON {
			data, err := json.MarshalIndent(events, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting events as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		if len(events) == 0 {
			fmt.Println("no events in window")
			return nil
		}
		for _, e := range events {
			project := e.Project()
			if project == "" {
				project = "-"
			}
			fmt.Printf("%s  %-24s %-12s %s\n",
				e.Time.Format("2006-01-02 15:04:05"), e.Type, project, e.Message)
		}
		return nil
	},
}

var eventsStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Aggregate statistics derived from the event log",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if StatsCalc == nil {
			return fmt.Errorf("stats calculator not initialized (observability may be disabled)")
		}

		sinceTime, err := parseSinceDuration(statsSince)
		if err != nil {
			return fmt.Errorf("parsing --since: %w", err)
		}

		stats, err := StatsCalc.Calculate(sinceTime)
		if err != nil {
			return fmt.Errorf("calculating stats: %w", err)
		}

		if statsJSON {
			data, err := json.MarshalIndent(stats, "", "  ")
			if err != nil {
				return fmt.Errorf("formatting stats as JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Printf("Stats (since %s)\n\n", sinceTime.Format("2006-01-02"))
		fmt.Printf("  %-24s %d\n", "Events recorded:", stats.EventCount)
		fmt.Printf("  %-24s %d\n", "Tasks created:", stats.TasksCreated)
		fmt.Printf("  %-24s %d\n", "Tasks completed:", stats.TasksCompleted)
		fmt.Printf("  %-24s %d\n", "Tasks deleted:", stats.TasksDeleted)
		fmt.Printf("  %-24s %d\n", "Subtasks created:", stats.SubtasksCreated)
		fmt.Printf("  %-24s %d\n", "Edges repaired:", stats.EdgesRepaired)

		if len(stats.StatusChanges) > 0 {
			fmt.Println("\n  Status transitions:")
			for status, count := range stats.StatusChanges {
				fmt.Printf("    %-20s %d\n", status+":", count)
			}
		}

		if len(stats.EventsByProject) > 0 {
			fmt.Println("\n  Events by project:")
			for project, count := range stats.EventsByProject {
				fmt.Printf("    %-20s %d\n", project+":", count)
			}
		}

		if stats.OldestEvent != nil {
			fmt.Printf("\n  %-24s %s\n", "Oldest event:", stats.OldestEvent.Format(time.RFC3339))
		}
		if stats.NewestEvent != nil {
			fmt.Printf("  %-24s %s\n", "Newest event:", stats.NewestEvent.Format(time.RFC3339))
		}

		return nil
	},
}

// parseSinceDuration parses a human-friendly duration string like "7d", "30d",
// or "24h" and returns the corresponding time in the past.
func parseSinceDuration(s string) (time.Time, error) {
	now := time.Now().UTC()
	s = strings.TrimSpace(s)
	if s == "" {
		return now.AddDate(0, 0, -7), nil
	}

	if strings.HasSuffix(s, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(s, "d"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid day duration %q", s)
		}
		return now.AddDate(0, 0, -days), nil
	}

	if strings.HasSuffix(s, "h") {
		hours, err := strconv.Atoi(strings.TrimSuffix(s, "h"))
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid hour duration %q", s)
		}
		return now.Add(-time.Duration(hours) * time.Hour), nil
	}

	return time.Time{}, fmt.Errorf("unsupported duration format %q (use e.g. 7d, 30d, 24h)", s)
}

func init() {
	eventsCmd.Flags().StringVar(&eventsSince, "since", "7d", "Time window (e.g. 7d, 30d, 24h)")
	eventsCmd.Flags().StringVar(&eventsType, "type", "", "Filter by event type (e.g. task.status_changed)")
	eventsCmd.Flags().StringVar(&eventsProject, "project", "", "Filter by project")
	eventsCmd.Flags().BoolVar(&eventsJSON, "json", false, "Output events as JSON")
	eventsCmd.Flags().IntVar(&eventsLimit, "limit", 0, "Show only the most recent N events (0 for all)")

	eventsStatsCmd.Flags().StringVar(&statsSince, "since", "7d", "Time window (e.g. 7d, 30d, 24h)")
	eventsStatsCmd.Flags().BoolVar(&statsJSON, "json", false, "Output stats as JSON")

	eventsCmd.AddCommand(eventsStatsCmd)
	rootCmd.AddCommand(eventsCmd)
}
