package core

import (
	"fmt"
	"strings"
)

// ValidateFields rejects structurally invalid field updates before any store
// access. A title may be absent (no change) but never blank: clearing a
// task's title would orphan it on every board view.
func ValidateFields(fields FieldUpdates) error {
	if fields.Title != nil && strings.TrimSpace(*fields.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	return nil
}
