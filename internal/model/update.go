package model

// TaskAction is the operation a TaskUpdate applies to the task list.
type TaskAction string

const (
	ActionAdd      TaskAction = "add"
	ActionRemove   TaskAction = "remove"
	ActionUpdate   TaskAction = "update"
	ActionComplete TaskAction = "complete"
)

// Valid reports whether a is a known task action.
func (a TaskAction) Valid() bool {
	switch a {
	case ActionAdd, ActionRemove, ActionUpdate, ActionComplete:
		return true
	}
	return false
}

// TaskUpdate is one task mutation from a structured update. The model never
// supplies TaskID for new tasks; it references them by name. Empty
// Description/Status mean "leave unchanged" for update/complete actions.
type TaskUpdate struct {
	TaskID      string     `json:"taskId,omitempty"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	Action      TaskAction `json:"action"`
}

// PriorityUpdate carries signed deltas for the priority accumulators.
// Nil pointers mean the axis is untouched.
type PriorityUpdate struct {
	Speed *int `json:"speed,omitempty"`
	Scope *int `json:"scope,omitempty"`
}

// BlockerUpdate describes a newly discovered blocker. This channel only ever
// adds blockers; it cannot reference or resolve existing ones.
type BlockerUpdate struct {
	Description string `json:"description"`
}

// ConsultancyUpdate is the schema-constrained response to one conversational
// turn. Optional fields are nil when absent; absent means "no change", never
// "reset".
type ConsultancyUpdate struct {
	ResponseText     string          `json:"responseText"`
	SuggestedActions []string        `json:"suggestedActions"`
	ProgressUpdate   int             `json:"progressUpdate"`
	PriorityUpdate   *PriorityUpdate `json:"priorityUpdate,omitempty"`
	Blockers         []BlockerUpdate `json:"blockers,omitempty"`
	TaskUpdates      []TaskUpdate    `json:"taskUpdates,omitempty"`
}

// InitialTask is a task seed proposed at project creation.
type InitialTask struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// ProjectSeed is the project skeleton returned by the creation call.
type ProjectSeed struct {
	ProjectName  string        `json:"projectName"`
	ProjectType  string        `json:"projectType"`
	ProjectGoals []string      `json:"projectGoals"`
	InitialTasks []InitialTask `json:"initialTasks"`
}

// CreateProjectResult is the full structured response to project creation.
type CreateProjectResult struct {
	Project          ProjectSeed `json:"project"`
	OpeningStatement string      `json:"openingStatement"`
	SuggestedActions []string    `json:"suggestedActions"`
}
