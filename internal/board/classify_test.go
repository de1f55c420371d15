package board

import (
	"testing"

	"pgregory.net/rapid"

	"github.com/valter-silva-au/taskboard/pkg/models"
)

func TestClassifyStatusTable(t *testing.T) {
	tests := []struct {
		status models.TaskStatus
		want   Lane
	}{
		{models.StatusPending, LanePending},
		{models.StatusInProgress, LaneInProgress},
		{models.StatusDone, LaneDone},
		{models.StatusVerified, LaneVerified},
		{models.StatusPaused, LaneInProgress},
		{models.StatusBlocked, LaneWaiting},
		{models.StatusReview, LaneDone},
		{models.StatusDeferred, LaneDeferred},
		{models.StatusCancelled, LaneDeferred},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			got := Classify(models.Task{ID: 1, Status: tt.status})
			if got != tt.want {
				t.Errorf("Classify(%s) = %s, want %s", tt.status, got, tt.want)
			}
		})
	}
}

func TestClassifyBlockedOverride(t *testing.T) {
	blocked := models.Task{ID: 1, Status: models.StatusInProgress, BlockedBy: []int{2}}
	if got := Classify(blocked); got != LaneWaiting {
		t.Errorf("blocked in-progress task should classify as waiting, got %s", got)
	}

	pendingBlocked := models.Task{ID: 1, Status: models.StatusPending, BlockedBy: []int{2}}
	if got := Classify(pendingBlocked); got != LaneWaiting {
		t.Errorf("blocked pending task should classify as waiting, got %s", got)
	}
}

func TestClassifyFinishedWinsOverStaleBlocking(t *testing.T) {
	// Stale bookkeeping: a done task still carrying blockedBy entries must
	// never be shown as waiting.
	done := models.Task{ID: 1, Status: models.StatusDone, BlockedBy: []int{2}}
	if got := Classify(done); got != LaneDone {
		t.Errorf("done task with stale blockedBy should classify as done, got %s", got)
	}

	verified := models.Task{ID: 1, Status: models.StatusVerified, BlockedBy: []int{2}}
	if got := Classify(verified); got != LaneVerified {
		t.Errorf("verified task with stale blockedBy should classify as verified, got %s", got)
	}
}

func TestFilter(t *testing.T) {
	tasks := []models.Task{
		{ID: 1, IsIndependent: true},
		{ID: 2, BlockedBy: []int{1}},
		{ID: 3},
	}

	if got := Filter(tasks, "all"); len(got) != 3 {
		t.Errorf("all: got %d tasks, want 3", len(got))
	}
	if got := Filter(tasks, "independent"); len(got) != 1 || got[0].ID != 1 {
		t.Errorf("independent: got %v", got)
	}
	if got := Filter(tasks, "dependent"); len(got) != 2 {
		t.Errorf("dependent: got %d tasks, want 2", len(got))
	}
	if got := Filter(tasks, "waiting"); len(got) != 1 || got[0].ID != 2 {
		t.Errorf("waiting: got %v", got)
	}
	if got := Filter(tasks, "no-such-filter"); len(got) != 3 {
		t.Errorf("unknown filter should return input unchanged, got %d tasks", len(got))
	}
}

// Feature: status classifier, Property 1: classification is total and only
// blocked-and-unfinished tasks land in waiting through the override.
func TestProperty_ClassifyTotal(t *testing.T) {
	statuses := []models.TaskStatus{
		models.StatusPending, models.StatusInProgress, models.StatusDone,
		models.StatusVerified, models.StatusReview, models.StatusPaused,
		models.StatusDeferred, models.StatusCancelled, models.StatusBlocked,
	}

	rapid.Check(t, func(rt *rapid.T) {
		task := models.Task{
			ID:        rapid.IntRange(1, 100).Draw(rt, "id"),
			Status:    rapid.SampledFrom(statuses).Draw(rt, "status"),
			BlockedBy: rapid.SliceOfN(rapid.IntRange(1, 100), 0, 3).Draw(rt, "blockedBy"),
		}

		lane := Classify(task)
		if lane == "" {
			t.Fatal("classification produced an empty lane")
		}
		if models.IsFinished(task.Status) && lane == LaneWaiting {
			t.Fatalf("finished task classified as waiting: %+v", task)
		}
		if len(task.BlockedBy) > 0 && !models.IsFinished(task.Status) && lane != LaneWaiting {
			t.Fatalf("blocked unfinished task classified as %s", lane)
		}
	})
}
