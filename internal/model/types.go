// Package model defines the project document, chat log, and the
// structured-update payload exchanged with the LLM gateway.
package model

import "time"

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	StatusNotStarted TaskStatus = "NotStarted"
	StatusInProgress TaskStatus = "InProgress"
	StatusCompleted  TaskStatus = "Completed"
	StatusBlocked    TaskStatus = "Blocked"
)

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusBlocked:
		return true
	}
	return false
}

// Sender identifies the author of a chat message.
type Sender string

const (
	SenderUser Sender = "user"
	SenderAI   Sender = "ai"
)

// Task is a single unit of work in the project plan. Subtasks allows one
// level of nesting in the document shape; no current flow populates it.
type Task struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	Subtasks    []Task     `json:"subtasks"`
}

// Blocker is an impediment discovered during the conversation. Blockers are
// append-only; nothing sets Resolved to true yet.
type Blocker struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Resolved    bool   `json:"resolved"`
}

// Priorities holds the running signed accumulators for the two tracked
// priority axes.
type Priorities struct {
	Speed int `json:"speed"`
	Scope int `json:"scope"`
}

// Stakeholder is reserved document structure; no flow populates it.
type Stakeholder struct {
	Name string `json:"name"`
	Role string `json:"role"`
}

// Resource is reserved document structure; no flow populates it.
type Resource struct {
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// Timeline carries the project dates. TargetDate is optional.
type Timeline struct {
	StartDate  time.Time  `json:"startDate"`
	TargetDate *time.Time `json:"targetDate,omitempty"`
}

// Project is the full structured record of a tracked initiative. One project
// exists per session; the persisted copy is the only durable state.
type Project struct {
	ProjectName      string        `json:"projectName"`
	ProjectType      string        `json:"projectType"`
	ProjectGoals     []string      `json:"projectGoals"`
	Tasks            []Task        `json:"tasks"`
	Progress         int           `json:"progress"`
	Priorities       Priorities    `json:"priorities"`
	Stakeholders     []Stakeholder `json:"stakeholders"`
	Timeline         Timeline      `json:"timeline"`
	Blockers         []Blocker     `json:"blockers"`
	Resources        []Resource    `json:"resources"`
	SuggestedActions []string      `json:"suggestedActions"`
}

// ChatMessage is one entry in the append-only conversation log.
type ChatMessage struct {
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Clone returns a deep copy of the project. The reducer works on a clone so
// callers can rely on identity-based change detection.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	out := *p
	out.ProjectGoals = append(p.ProjectGoals[:0:0], p.ProjectGoals...)
	out.Tasks = cloneTasks(p.Tasks)
	out.Stakeholders = append(p.Stakeholders[:0:0], p.Stakeholders...)
	out.Blockers = append(p.Blockers[:0:0], p.Blockers...)
	out.Resources = append(p.Resources[:0:0], p.Resources...)
	out.SuggestedActions = append(p.SuggestedActions[:0:0], p.SuggestedActions...)
	if p.Timeline.TargetDate != nil {
		td := *p.Timeline.TargetDate
		out.Timeline.TargetDate = &td
	}
	return &out
}

func cloneTasks(ts []Task) []Task {
	if ts == nil {
		return nil
	}
	out := make([]Task, len(ts))
	for i, t := range ts {
		out[i] = t
		out[i].Subtasks = cloneTasks(t.Subtasks)
	}
	return out
}
