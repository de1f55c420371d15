package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// ErrNotFound marks a mutation that referenced a task id not present in the
// list. It is an expected, recoverable condition (e.g. a task deleted by a
// concurrent writer), never a reason to panic.
var ErrNotFound = errors.New("not found")

// AddDependency appends dependsOn to the task's dependency list, in place.
// Adding an edge that already exists is a no-op. Both ends must resolve to
// tasks in the list or ErrNotFound is returned.
//
// AddDependency does NOT reject self-edges or edges that introduce a cycle.
// That mirrors the read path's permissiveness: structurally dubious edges
// are reported by Validate and stripped by Repair, not blocked at insertion.
// Callers wanting stricter behavior must run Validate before persisting.
func AddDependency(tasks []models.Task, taskID, dependsOn int) error {
	task := taskByID(tasks, taskID)
	if task == nil {
		return fmt.Errorf("task #%d: %w", taskID, ErrNotFound)
	}
	if taskByID(tasks, dependsOn) == nil {
		return fmt.Errorf("dependency #%d: %w", dependsOn, ErrNotFound)
	}
	for _, dep := range task.Dependencies {
		if dep == dependsOn {
			return nil
		}
	}
	task.Dependencies = append(task.Dependencies, dependsOn)
	return nil
}

// RemoveDependency removes dependsOn from the task's dependency list, in
// place. Removing an edge that was never present is a no-op; only a missing
// task is an error.
func RemoveDependency(tasks []models.Task, taskID, dependsOn int) error {
	task := taskByID(tasks, taskID)
	if task == nil {
		return fmt.Errorf("task #%d: %w", taskID, ErrNotFound)
	}
	kept := task.Dependencies[:0]
	for _, dep := range task.Dependencies {
		if dep != dependsOn {
			kept = append(kept, dep)
		}
	}
	task.Dependencies = kept
	return nil
}

// IssueKind categorizes a single graph integrity problem.
type IssueKind string

const (
	IssueDangling IssueKind = "dangling"
	IssueSelf     IssueKind = "self"
	IssueCycle    IssueKind = "cycle"
)

// Issue describes one integrity problem found by Validate, structured so
// callers can render actionable diagnostics (which task, which edge, which
// cycle path).
type Issue struct {
	Kind   IssueKind
	TaskID int
	DepID  int   // set for dangling and self issues
	Path   []int // set for cycle issues, in traversal order ending at the repeat
}

// String renders the issue as a human-readable diagnostic line.
func (i Issue) String() string {
	switch i.Kind {
	case IssueDangling:
		return fmt.Sprintf("task #%d depends on non-existent #%d", i.TaskID, i.DepID)
	case IssueSelf:
		return fmt.Sprintf("task #%d depends on itself", i.TaskID)
	case IssueCycle:
		parts := make([]string, len(i.Path))
		for n, id := range i.Path {
			parts[n] = fmt.Sprintf("#%d", id)
		}
		return "cycle detected: " + strings.Join(parts, " -> ")
	default:
		return fmt.Sprintf("unknown issue on task #%d", i.TaskID)
	}
}

// Report is the outcome of Validate.
type Report struct {
	Valid  bool
	Issues []Issue
}

// Validate checks the task list for dangling dependencies, self-dependencies
// and cycles. It never mutates the input. Per-task edge checks run first;
// cycle detection then walks each weakly-connected component exactly once
// via DFS with an explicit in-stack set. The reported cycle path is a cycle
// through the traversal order, not necessarily the shortest one.
//
// A self-edge is reported once, as IssueSelf; the cycle walk skips
// self-loops so the same edge is not double-reported.
func Validate(tasks []models.Task) Report {
	ids := make(map[int]bool, len(tasks))
	for i := range tasks {
		ids[tasks[i].ID] = true
	}

	var issues []Issue
	for i := range tasks {
		for _, dep := range tasks[i].Dependencies {
			if !ids[dep] {
				issues = append(issues, Issue{Kind: IssueDangling, TaskID: tasks[i].ID, DepID: dep})
			}
			if dep == tasks[i].ID {
				issues = append(issues, Issue{Kind: IssueSelf, TaskID: tasks[i].ID, DepID: dep})
			}
		}
	}

	byID := make(map[int]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	visited := make(map[int]bool, len(tasks))
	inStack := make(map[int]bool)

	var dfs func(id int, path []int)
	dfs = func(id int, path []int) {
		if inStack[id] {
			cycle := make([]int, 0, len(path)+1)
			cycle = append(cycle, path...)
			cycle = append(cycle, id)
			issues = append(issues, Issue{Kind: IssueCycle, TaskID: id, Path: cycle})
			return
		}
		if visited[id] {
			return
		}
		visited[id] = true
		inStack[id] = true
		if task := byID[id]; task != nil {
			for _, dep := range task.Dependencies {
				if dep == id {
					continue // self-loops already reported as IssueSelf
				}
				dfs(dep, append(path, id))
			}
		}
		delete(inStack, id)
	}

	for i := range tasks {
		if !visited[tasks[i].ID] {
			dfs(tasks[i].ID, nil)
		}
	}

	return Report{Valid: len(issues) == 0, Issues: issues}
}

// Repair strips, per task and in place, every dependency that is dangling or
// a self-reference, returning the number of edges removed. Cycles are left
// untouched: they are logically valid edges between real tasks, reported by
// Validate for a human to resolve. Repair followed by Validate reports no
// dangling or self issues.
func Repair(tasks []models.Task) int {
	ids := make(map[int]bool, len(tasks))
	for i := range tasks {
		ids[tasks[i].ID] = true
	}

	fixed := 0
	for i := range tasks {
		if tasks[i].Dependencies == nil {
			continue
		}
		kept := tasks[i].Dependencies[:0]
		for _, dep := range tasks[i].Dependencies {
			if ids[dep] && dep != tasks[i].ID {
				kept = append(kept, dep)
			} else {
				fixed++
			}
		}
		tasks[i].Dependencies = kept
	}
	return fixed
}

func taskByID(tasks []models.Task, id int) *models.Task {
	for i := range tasks {
		if tasks[i].ID == id {
			return &tasks[i]
		}
	}
	return nil
}
