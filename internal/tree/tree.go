// Package tree implements recursive operations over a task's subtask tree.
// Subtask trees nest to arbitrary depth; every traversal here is a plain
// recursive walk, bounded in practice by how deeply a human nests subtasks.
package tree

import (
	"github.com/valter-silva-au/taskboard/pkg/models"
)

// Find returns the first subtask matching id in pre-order, or nil when the
// id is absent or the tree is empty. Absence is an expected condition, not
// an error.
func Find(subtasks []models.Subtask, id int) *models.Subtask {
	for i := range subtasks {
		if subtasks[i].ID == id {
			return &subtasks[i]
		}
		if found := Find(subtasks[i].Subtasks, id); found != nil {
			return found
		}
	}
	return nil
}

// FindSlot locates the sequence containing the subtask with id, returned as
// a pointer so callers can splice in place, plus the index within it.
// Deletion needs the owning container, not a detached node reference, which
// is why this exists alongside Find.
func FindSlot(subtasks *[]models.Subtask, id int) (container *[]models.Subtask, index int, ok bool) {
	for i := range *subtasks {
		if (*subtasks)[i].ID == id {
			return subtasks, i, true
		}
		if c, idx, found := FindSlot(&(*subtasks)[i].Subtasks, id); found {
			return c, idx, true
		}
	}
	return nil, 0, false
}

// Splice removes the node at index from its container, dropping the whole
// subtree rooted there.
func Splice(container *[]models.Subtask, index int) {
	*container = append((*container)[:index], (*container)[index+1:]...)
}

// MaxID returns the largest subtask id anywhere in the tree, or 0 for an
// empty tree. New sibling ids are minted as MaxID(target subtree)+1, scoped
// to the subtree being inserted into.
func MaxID(subtasks []models.Subtask) int {
	max := 0
	for i := range subtasks {
		if subtasks[i].ID > max {
			max = subtasks[i].ID
		}
		if childMax := MaxID(subtasks[i].Subtasks); childMax > max {
			max = childMax
		}
	}
	return max
}

// AllDone reports whether every subtask at every depth is in a finished
// state. A node with children counts only if it is itself finished and all
// of its children recursively satisfy AllDone. An empty tree is vacuously
// true; callers guard on non-emptiness where that matters.
func AllDone(subtasks []models.Subtask) bool {
	for i := range subtasks {
		if !models.IsFinished(subtasks[i].Status) {
			return false
		}
		if len(subtasks[i].Subtasks) > 0 && !AllDone(subtasks[i].Subtasks) {
			return false
		}
	}
	return true
}
