package tree

import (
	"testing"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

// sampleTree builds a three-level tree:
//
//	1 (pending)
//	  11 (done)
//	  12 (in-progress)
//	    3 (done)
//	2 (done)
func sampleTree() []models.Subtask {
	return []models.Subtask{
		{
			ID: 1, Title: "parent", Status: models.StatusPending,
			Subtasks: []models.Subtask{
				{ID: 11, Title: "first child", Status: models.StatusDone},
				{
					ID: 12, Title: "second child", Status: models.StatusInProgress,
					Subtasks: []models.Subtask{
						{ID: 3, Title: "grandchild", Status: models.StatusDone},
					},
				},
			},
		},
		{ID: 2, Title: "sibling", Status: models.StatusDone},
	}
}

func TestFind(t *testing.T) {
	tr := sampleTree()

	tests := []struct {
		name      string
		id        int
		wantTitle string
		wantNil   bool
	}{
		{name: "top level", id: 2, wantTitle: "sibling"},
		{name: "nested", id: 12, wantTitle: "second child"},
		{name: "deeply nested", id: 3, wantTitle: "grandchild"},
		{name: "absent", id: 99, wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Find(tr, tt.id)
			if tt.wantNil {
				if got != nil {
					t.Fatalf("expected nil, got %+v", got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected subtask %d, got nil", tt.id)
			}
			if got.Title != tt.wantTitle {
				t.Errorf("expected title %q, got %q", tt.wantTitle, got.Title)
			}
		})
	}
}

func TestFindEmptyTree(t *testing.T) {
	if got := Find(nil, 1); got != nil {
		t.Errorf("expected nil on empty tree, got %+v", got)
	}
}

func TestFindReturnsMutableNode(t *testing.T) {
	tr := sampleTree()

	sub := Find(tr, 3)
	if sub == nil {
		t.Fatal("expected to find subtask 3")
	}
	sub.Status = models.StatusVerified

	if tr[0].Subtasks[1].Subtasks[0].Status != models.StatusVerified {
		t.Error("mutation through Find result should be visible in the tree")
	}
}

func TestFindSlot(t *testing.T) {
	tr := sampleTree()

	container, idx, ok := FindSlot(&tr, 12)
	if !ok {
		t.Fatal("expected to find slot for subtask 12")
	}
	if idx != 1 {
		t.Errorf("expected index 1, got %d", idx)
	}
	if (*container)[idx].ID != 12 {
		t.Errorf("container[idx] should be subtask 12, got %d", (*container)[idx].ID)
	}

	if _, _, ok := FindSlot(&tr, 99); ok {
		t.Error("expected not-found for absent id")
	}
	var empty []models.Subtask
	if _, _, ok := FindSlot(&empty, 1); ok {
		t.Error("expected not-found for empty tree")
	}
}

func TestFindSlotSpliceRemovesSubtree(t *testing.T) {
	tr := sampleTree()

	container, idx, ok := FindSlot(&tr, 12)
	if !ok {
		t.Fatal("expected to find slot for subtask 12")
	}
	Splice(container, idx)

	if Find(tr, 12) != nil {
		t.Error("subtask 12 should be gone after splice")
	}
	if Find(tr, 3) != nil {
		t.Error("descendant 3 should be gone with its parent")
	}
	if Find(tr, 11) == nil {
		t.Error("sibling 11 should survive the splice")
	}
}

func TestSpliceTopLevel(t *testing.T) {
	tr := sampleTree()

	container, idx, ok := FindSlot(&tr, 1)
	if !ok {
		t.Fatal("expected to find slot for subtask 1")
	}
	Splice(container, idx)

	if len(tr) != 1 || tr[0].ID != 2 {
		t.Errorf("expected only subtask 2 to remain, got %+v", tr)
	}
}

func TestMaxID(t *testing.T) {
	if got := MaxID(nil); got != 0 {
		t.Errorf("empty tree should have max id 0, got %d", got)
	}
	if got := MaxID(sampleTree()); got != 12 {
		t.Errorf("expected max id 12, got %d", got)
	}

	// Max found in a nested child, not at top level.
	tr := []models.Subtask{
		{ID: 1, Subtasks: []models.Subtask{{ID: 7}}},
		{ID: 2},
	}
	if got := MaxID(tr); got != 7 {
		t.Errorf("expected max id 7 from nested child, got %d", got)
	}
}

func TestAllDone(t *testing.T) {
	tests := []struct {
		name string
		tr   []models.Subtask
		want bool
	}{
		{name: "empty tree is vacuously done", tr: nil, want: true},
		{
			name: "all finished",
			tr: []models.Subtask{
				{ID: 1, Status: models.StatusDone},
				{ID: 2, Status: models.StatusVerified},
			},
			want: true,
		},
		{
			name: "one pending leaf",
			tr: []models.Subtask{
				{ID: 1, Status: models.StatusDone},
				{ID: 2, Status: models.StatusPending},
			},
			want: false,
		},
		{
			name: "finished parent with unfinished child",
			tr: []models.Subtask{
				{ID: 1, Status: models.StatusDone, Subtasks: []models.Subtask{
					{ID: 2, Status: models.StatusInProgress},
				}},
			},
			want: false,
		},
		{
			name: "unfinished parent with finished children",
			tr: []models.Subtask{
				{ID: 1, Status: models.StatusInProgress, Subtasks: []models.Subtask{
					{ID: 2, Status: models.StatusDone},
				}},
			},
			want: false,
		},
		{
			name: "verified counts as finished at every level",
			tr: []models.Subtask{
				{ID: 1, Status: models.StatusVerified, Subtasks: []models.Subtask{
					{ID: 2, Status: models.StatusDone, Subtasks: []models.Subtask{
						{ID: 1, Status: models.StatusVerified},
					}},
				}},
			},
			want: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AllDone(tt.tr); got != tt.want {
				t.Errorf("AllDone = %v, want %v", got, tt.want)
			}
		})
	}
}
