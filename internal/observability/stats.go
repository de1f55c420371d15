package observability

import (
	"fmt"
	"time"
)

// Stats holds aggregate counts derived from the event log. Everything here
// is recomputed from the log on demand; nothing is stored separately.
type Stats struct {
	TasksCreated    int            `json:"tasks_created"`
	TasksDeleted    int            `json:"tasks_deleted"`
	TasksCompleted  int            `json:"tasks_completed"`
	SubtasksCreated int            `json:"subtasks_created"`
	EdgesRepaired   int            `json:"edges_repaired"`
	StatusChanges   map[string]int `json:"status_changes"`
	EventsByProject map[string]int `json:"events_by_project"`
	EventCount      int            `json:"event_count"`
	OldestEvent     *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent     *time.Time     `json:"newest_event,omitempty"`
}

// StatsCalculator derives aggregate statistics from the event log.
type StatsCalculator interface {
	Calculate(since time.Time) (*Stats, error)
}

type statsCalculator struct {
	eventLog EventLog
}

// NewStatsCalculator creates a StatsCalculator that reads from the given
// EventLog.
func NewStatsCalculator(eventLog EventLog) StatsCalculator {
	return &statsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them.
// Completed counts both explicit moves to done and auto-completions.
func (sc *statsCalculator) Calculate(since time.Time) (*Stats, error) {
	events, err := sc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for stats: %w", err)
	}

	s := &Stats{
		StatusChanges:   make(map[string]int),
		EventsByProject: make(map[string]int),
	}
	s.EventCount = len(events)

	for i, event := range events {
		if i == 0 {
			t := event.Time
			s.OldestEvent = &t
		}
		t := event.Time
		s.NewestEvent = &t

		if p := event.Project(); p != "" {
			s.EventsByProject[p]++
		}

		switch event.Type {
		case "task.created":
			s.TasksCreated++
		case "task.deleted":
			s.TasksDeleted++
		case "task.auto_completed":
			s.TasksCompleted++
		case "task.status_changed":
			if to, ok := event.Data["to"].(string); ok {
				s.StatusChanges[to]++
				if to == "done" {
					s.TasksCompleted++
				}
			}
		case "subtask.created":
			s.SubtasksCreated++
		case "deps.repaired":
			if removed, ok := event.Data["removed"].(float64); ok {
				s.EdgesRepaired += int(removed)
			}
		}
	}

	return s, nil
}
