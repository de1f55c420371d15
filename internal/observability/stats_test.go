package observability

import (
	"testing"
	"time"
)

func TestStatsCalculator(t *testing.T) {
	log := newTestLog(t)
	rec := NewRecorder(log)

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatalf("logging event: %v", err)
		}
	}

	must(rec.LogEvent("task.created", map[string]any{"project": "api", "task": 1}))
	must(rec.LogEvent("task.created", map[string]any{"project": "web", "task": 1}))
	must(rec.LogEvent("task.status_changed", map[string]any{"project": "api", "task": 1, "to": "in-progress"}))
	must(rec.LogEvent("subtask.created", map[string]any{"project": "api", "task": 1, "subtask": 1}))
	must(rec.LogEvent("subtask.status_changed", map[string]any{"project": "api", "task": 1, "subtask": 1, "to": "done"}))
	must(rec.LogEvent("task.auto_completed", map[string]any{"project": "api", "task": 1}))
	must(rec.LogEvent("task.status_changed", map[string]any{"project": "web", "task": 1, "to": "done"}))
	must(rec.LogEvent("deps.repaired", map[string]any{"project": "web", "removed": 3}))
	must(rec.LogEvent("task.deleted", map[string]any{"project": "web", "task": 1}))

	stats, err := NewStatsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("calculating stats: %v", err)
	}

	if stats.EventCount != 9 {
		t.Errorf("event count = %d", stats.EventCount)
	}
	if stats.TasksCreated != 2 {
		t.Errorf("tasks created = %d", stats.TasksCreated)
	}
	if stats.TasksDeleted != 1 {
		t.Errorf("tasks deleted = %d", stats.TasksDeleted)
	}
	// One auto-completion plus one explicit move to done.
	if stats.TasksCompleted != 2 {
		t.Errorf("tasks completed = %d", stats.TasksCompleted)
	}
	if stats.SubtasksCreated != 1 {
		t.Errorf("subtasks created = %d", stats.SubtasksCreated)
	}
	if stats.EdgesRepaired != 3 {
		t.Errorf("edges repaired = %d", stats.EdgesRepaired)
	}
	if stats.StatusChanges["in-progress"] != 1 || stats.StatusChanges["done"] != 1 {
		t.Errorf("status changes = %v", stats.StatusChanges)
	}
	if stats.EventsByProject["api"] != 5 || stats.EventsByProject["web"] != 4 {
		t.Errorf("events by project = %v", stats.EventsByProject)
	}
	if stats.OldestEvent == nil || stats.NewestEvent == nil {
		t.Error("time bounds missing")
	}
}

func TestStatsCalculatorSinceCutoff(t *testing.T) {
	log := newTestLog(t)

	old := Event{Time: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), Type: "task.created",
		Data: map[string]any{"project": "api"}}
	recent := Event{Time: time.Now().UTC(), Type: "task.created",
		Data: map[string]any{"project": "api"}}
	if err := log.Write(old); err != nil {
		t.Fatal(err)
	}
	if err := log.Write(recent); err != nil {
		t.Fatal(err)
	}

	stats, err := NewStatsCalculator(log).Calculate(time.Now().UTC().Add(-time.Hour))
	if err != nil {
		t.Fatalf("calculating stats: %v", err)
	}
	if stats.TasksCreated != 1 {
		t.Errorf("cutoff ignored, tasks created = %d", stats.TasksCreated)
	}
}

func TestStatsCalculatorEmptyLog(t *testing.T) {
	log := newTestLog(t)

	stats, err := NewStatsCalculator(log).Calculate(time.Time{})
	if err != nil {
		t.Fatalf("calculating stats: %v", err)
	}
	if stats.EventCount != 0 || stats.OldestEvent != nil {
		t.Errorf("stats = %+v", stats)
	}
}
