package models

// TaskStatus represents the current lifecycle state of a task or subtask.
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
	StatusVerified   TaskStatus = "verified"
	StatusReview     TaskStatus = "review"
	StatusPaused     TaskStatus = "paused"
	StatusDeferred   TaskStatus = "deferred"
	StatusCancelled  TaskStatus = "cancelled"
	StatusBlocked    TaskStatus = "blocked"
)

// canonicalStatuses is the workflow status set shared with external tooling.
var canonicalStatuses = map[TaskStatus]bool{
	StatusPending:    true,
	StatusInProgress: true,
	StatusDone:       true,
	StatusDeferred:   true,
	StatusCancelled:  true,
	StatusBlocked:    true,
	StatusReview:     true,
}

// extensionStatuses are dashboard-only statuses layered on top of the
// canonical workflow set.
var extensionStatuses = map[TaskStatus]bool{
	StatusPaused:   true,
	StatusVerified: true,
}

// IsFinished reports whether a status satisfies a dependency on the task.
// Only done and verified count as finished.
func IsFinished(s TaskStatus) bool {
	return s == StatusDone || s == StatusVerified
}

// IsCanonicalStatus reports whether s belongs to the canonical workflow set.
func IsCanonicalStatus(s TaskStatus) bool {
	return canonicalStatuses[s]
}

// IsExtensionStatus reports whether s is a dashboard-only extension status.
func IsExtensionStatus(s TaskStatus) bool {
	return extensionStatuses[s]
}

// TaskPriority represents the urgency level of a task.
// PriorityCritical exists for compatibility with external task files but is
// never produced or branched on by this module.
type TaskPriority string

const (
	PriorityLow      TaskPriority = "low"
	PriorityMedium   TaskPriority = "medium"
	PriorityHigh     TaskPriority = "high"
	PriorityCritical TaskPriority = "critical"
)

// Subtask is a recursive decomposition node under a task. IDs are unique only
// within the subtree they were minted into, never globally; subtask identity
// is always resolved in the context of a specific task.
type Subtask struct {
	ID       int        `json:"id"`
	Title    string     `json:"title"`
	Status   TaskStatus `json:"status"`
	Subtasks []Subtask  `json:"subtasks,omitempty"`
}

// ChatAction is an optional UI affordance attached to a chat message.
// Opaque payload: stored and returned, never interpreted.
type ChatAction struct {
	Type  string `json:"type"`
	Title string `json:"title,omitempty"`
	Value string `json:"value,omitempty"`
}

// ChatMessage is a single entry in a task's agent conversation history.
type ChatMessage struct {
	Role      string       `json:"role"`
	Content   string       `json:"content"`
	Timestamp int64        `json:"timestamp"`
	Actions   []ChatAction `json:"actions,omitempty"`
}

// Task is a unit of work within a project. The BlockedBy, Dependents,
// IsIndependent and Depth fields are derived scheduling metadata: they are
// recomputed from Dependencies on every read and are never the source of
// truth on disk, even though stale copies may appear in persisted files.
type Task struct {
	ID                 int           `json:"id"`
	Title              string        `json:"title"`
	Description        string        `json:"description"`
	Status             TaskStatus    `json:"status"`
	Priority           TaskPriority  `json:"priority"`
	Dependencies       []int         `json:"dependencies"`
	Details            string        `json:"details,omitempty"`
	TestStrategy       string        `json:"testStrategy,omitempty"`
	ContextFiles       []string      `json:"contextFiles,omitempty"`
	AcceptanceCriteria []string      `json:"acceptanceCriteria,omitempty"`
	StartCommit        string        `json:"startCommit,omitempty"`
	Branch             string        `json:"branch,omitempty"`
	PRURL              string        `json:"prUrl,omitempty"`
	Subtasks           []Subtask     `json:"subtasks,omitempty"`
	ChatHistory        []ChatMessage `json:"chatHistory,omitempty"`

	// Derived fields, populated by graph.ComputeMetadata.
	BlockedBy     []int `json:"blockedBy,omitempty"`
	Dependents    []int `json:"dependents,omitempty"`
	IsIndependent bool  `json:"isIndependent,omitempty"`
	Depth         int   `json:"depth,omitempty"`
}

// ProjectTasks is the normalized shape of a project's persisted task document:
// a flat task list plus free-form metadata preserved verbatim across reads.
type ProjectTasks struct {
	Tasks    []Task         `json:"tasks"`
	Metadata map[string]any `json:"metadata"`
}
