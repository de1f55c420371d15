package observability

import (
	"fmt"
	"time"
)

// Recorder adapts an EventLog to the lifecycle service's logging hook,
// stamping each event with the current time and an INFO level.
type Recorder struct {
	log EventLog
}

// NewRecorder creates a Recorder over the given EventLog.
func NewRecorder(log EventLog) *Recorder {
	return &Recorder{log: log}
}

// LogEvent records a lifecycle event with a human-readable summary.
func (r *Recorder) LogEvent(eventType string, data map[string]any) error {
	return r.log.Write(Event{
		Time:    time.Now().UTC(),
		Level:   "INFO",
		Type:    eventType,
		Message: eventMessage(eventType, data),
		Data:    data,
	})
}

func eventMessage(eventType string, data map[string]any) string {
	project, _ := data["project"].(string)
	switch eventType {
	case "task.created":
		return fmt.Sprintf("task created in %s", project)
	case "task.deleted":
		return fmt.Sprintf("task deleted from %s", project)
	case "task.status_changed":
		to, _ := data["to"].(string)
		return fmt.Sprintf("task in %s moved to %s", project, to)
	case "task.auto_completed":
		return fmt.Sprintf("task in %s completed via its subtasks", project)
	case "subtask.created":
		return fmt.Sprintf("subtask added in %s", project)
	case "subtask.status_changed":
		to, _ := data["to"].(string)
		return fmt.Sprintf("subtask in %s moved to %s", project, to)
	case "deps.repaired":
		return fmt.Sprintf("dependency graph repaired in %s", project)
	default:
		return eventType
	}
}
