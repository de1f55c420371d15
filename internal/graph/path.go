package graph

import (
	"sort"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// LongestChain returns the critical path: the longest dependency chain found
// anywhere in the task list, as an id sequence ordered from the chain's root
// to its final task. Ties go to the first chain found in input order, so the
// result is deterministic for a deterministic input order. Cycles terminate
// the walk rather than extending it.
func LongestChain(tasks []models.Task) []int {
	byID := make(map[int]*models.Task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID] = &tasks[i]
	}

	memo := make(map[int][]int, len(tasks))

	var chainTo func(id int, visited map[int]bool) []int
	chainTo = func(id int, visited map[int]bool) []int {
		if path, ok := memo[id]; ok {
			return path
		}
		if visited[id] {
			return []int{id}
		}
		visited[id] = true

		task, exists := byID[id]
		if !exists || len(task.Dependencies) == 0 {
			memo[id] = []int{id}
			return memo[id]
		}

		var best []int
		for _, dep := range task.Dependencies {
			if path := chainTo(dep, visited); len(path) > len(best) {
				best = path
			}
		}
		result := make([]int, 0, len(best)+1)
		result = append(result, best...)
		result = append(result, id)
		memo[id] = result
		return result
	}

	var longest []int
	for i := range tasks {
		if path := chainTo(tasks[i].ID, make(map[int]bool)); len(path) > len(longest) {
			longest = path
		}
	}
	return longest
}

// Phase is one column of a phase layout: every task sharing a depth value.
type Phase struct {
	Depth int
	Tasks []models.Task
}

// GroupByDepth partitions tasks into phases keyed by their Depth field,
// sorted ascending. It is a pure projection of metadata computed by
// ComputeMetadata; tasks that were never enriched all land in phase 0.
func GroupByDepth(tasks []models.Task) []Phase {
	groups := make(map[int][]models.Task)
	for i := range tasks {
		d := tasks[i].Depth
		groups[d] = append(groups[d], tasks[i])
	}

	depths := make([]int, 0, len(groups))
	for d := range groups {
		depths = append(depths, d)
	}
	sort.Ints(depths)

	phases := make([]Phase, 0, len(depths))
	for _, d := range depths {
		phases = append(phases, Phase{Depth: d, Tasks: groups[d]})
	}
	return phases
}
