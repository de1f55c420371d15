// Package graph computes scheduling metadata over a project's task
// dependency graph and validates its structural integrity.
//
// Everything here is pure computation over in-memory task lists: the read
// path (ComputeMetadata, EnrichAllProjects) never fails, even on degenerate
// graphs. Dangling references do not block, cycles terminate with finite
// depths, and integrity problems are only ever surfaced as data through
// Validate.
package graph

import (
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// ComputeMetadata derives the scheduling fields for every task in the list:
//
//   - Dependents: inversion of every Dependencies list, in discovery order.
//   - BlockedBy: dependencies whose target exists and is not finished.
//     A dependency id that resolves to no task is silently excluded; dangling
//     edges never block. That permissiveness is deliberate — integrity
//     checking is Validate's job, not the read path's.
//   - IsIndependent: true iff the task has no dependencies.
//   - Depth: longest dependency chain length, 0 for independent tasks. When
//     a cycle is reached the cyclic branch contributes depth 0 rather than
//     recursing forever.
//
// The input is returned as a new slice with the derived fields populated;
// all other fields pass through unchanged.
func ComputeMetadata(tasks []models.Task) []models.Task {
	byID := make(map[int]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	dependents := make(map[int][]int, len(tasks))
	for i := range tasks {
		for _, dep := range tasks[i].Dependencies {
			dependents[dep] = append(dependents[dep], tasks[i].ID)
		}
	}

	// One memo map for the whole batch, but a fresh visited set per root so
	// a cyclic subgraph cannot poison depth computation for tasks that reach
	// it another way.
	memo := make(map[int]int, len(tasks))

	enriched := make([]models.Task, len(tasks))
	for i := range tasks {
		t := tasks[i]

		blockedBy := []int{}
		for _, dep := range t.Dependencies {
			depTask, exists := byID[dep]
			if exists && !models.IsFinished(depTask.Status) {
				blockedBy = append(blockedBy, dep)
			}
		}

		t.BlockedBy = blockedBy
		t.Dependents = dependents[t.ID]
		if t.Dependents == nil {
			t.Dependents = []int{}
		}
		t.IsIndependent = len(t.Dependencies) == 0
		t.Depth = depthOf(t.ID, byID, memo, make(map[int]bool))

		enriched[i] = t
	}
	return enriched
}

// depthOf computes the longest dependency chain ending at id. The memo map
// is shared across a whole ComputeMetadata call; the visited set belongs to
// a single root and cuts cycles off at depth 0.
func depthOf(id int, byID map[int]*models.Task, memo map[int]int, visited map[int]bool) int {
	if d, ok := memo[id]; ok {
		return d
	}
	if visited[id] {
		return 0
	}
	visited[id] = true

	task, exists := byID[id]
	if !exists || len(task.Dependencies) == 0 {
		memo[id] = 0
		return 0
	}

	max := 0
	for _, dep := range task.Dependencies {
		if d := depthOf(dep, byID, memo, visited); d > max {
			max = d
		}
	}
	d := 1 + max
	memo[id] = d
	return d
}

// EnrichAllProjects applies ComputeMetadata to each project's task list
// independently. Metadata maps are preserved verbatim; a project with a nil
// task list passes through untouched.
func EnrichAllProjects(projects map[string]models.ProjectTasks) map[string]models.ProjectTasks {
	result := make(map[string]models.ProjectTasks, len(projects))
	for name, project := range projects {
		if project.Tasks != nil {
			project.Tasks = ComputeMetadata(project.Tasks)
		}
		result[name] = project
	}
	return result
}
