// Package board maps enriched tasks onto presentation lanes and provides
// the read-side filters used by board views.
package board

import (
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// Lane is the presentation category a task is rendered into, distinct from
// its raw status.
type Lane string

const (
	LanePending    Lane = "pending"
	LaneInProgress Lane = "in-progress"
	LaneDone       Lane = "done"
	LaneWaiting    Lane = "waiting"
	LaneVerified   Lane = "verified"
	LaneDeferred   Lane = "deferred"
)

// statusLanes maps raw statuses onto lanes. Statuses absent from the table
// (pending, in-progress, done, verified) pass through unchanged. Add entries
// here rather than branching in Classify.
var statusLanes = map[models.TaskStatus]Lane{
	models.StatusPaused:    LaneInProgress,
	models.StatusBlocked:   LaneWaiting,
	models.StatusReview:    LaneDone,
	models.StatusDeferred:  LaneDeferred,
	models.StatusCancelled: LaneDeferred,
}

// Classify returns the lane for a task. A non-empty BlockedBy forces the
// waiting lane unless the task is already finished: blocking is a
// presentation override that wins over every raw status except done and
// verified, so a finished task with stale dependency bookkeeping is never
// shown as waiting.
func Classify(t models.Task) Lane {
	if len(t.BlockedBy) > 0 && !models.IsFinished(t.Status) {
		return LaneWaiting
	}
	if lane, ok := statusLanes[t.Status]; ok {
		return lane
	}
	return Lane(t.Status)
}

// filterFns are the named board filters. Add entries here rather than
// branching in Filter.
var filterFns = map[string]func(models.Task) bool{
	"all":         func(models.Task) bool { return true },
	"independent": func(t models.Task) bool { return t.IsIndependent },
	"dependent":   func(t models.Task) bool { return !t.IsIndependent },
	"waiting":     func(t models.Task) bool { return len(t.BlockedBy) > 0 },
}

// Filter returns the tasks matching the named filter. An unknown filter name
// returns the input unchanged.
func Filter(tasks []models.Task, name string) []models.Task {
	fn, ok := filterFns[name]
	if !ok {
		return tasks
	}
	var result []models.Task
	for _, t := range tasks {
		if fn(t) {
			result = append(result, t)
		}
	}
	return result
}
