// Package plan holds the project-state reducer: the pure merge of a
// structured LLM update into the current project document.
package plan

import (
	"time"

	"github.com/fjellheim/advisor/internal/ident"
	"github.com/fjellheim/advisor/internal/model"
)

// Apply merges a structured update into the project and returns the next
// document. The input project is never mutated. Task updates are processed
// in order, so later entries in the same update see the effects of earlier
// ones.
func Apply(p *model.Project, u *model.ConsultancyUpdate) *model.Project {
	next := p.Clone()

	for _, tu := range u.TaskUpdates {
		applyTaskUpdate(next, tu)
	}

	next.Progress = clamp(next.Progress+u.ProgressUpdate, 0, 100)

	for _, b := range u.Blockers {
		next.Blockers = append(next.Blockers, model.Blocker{
			ID:          ident.NewWithPrefix("blk"),
			Description: b.Description,
			Resolved:    false,
		})
	}

	if u.PriorityUpdate != nil {
		if u.PriorityUpdate.Speed != nil {
			next.Priorities.Speed += *u.PriorityUpdate.Speed
		}
		if u.PriorityUpdate.Scope != nil {
			next.Priorities.Scope += *u.PriorityUpdate.Scope
		}
	}

	// Replaced wholesale every turn; an empty list clears prior suggestions.
	next.SuggestedActions = append([]string{}, u.SuggestedActions...)

	return next
}

func applyTaskUpdate(p *model.Project, tu model.TaskUpdate) {
	idx := findTask(p.Tasks, tu.TaskID, tu.Name)

	switch tu.Action {
	case model.ActionAdd:
		if idx >= 0 {
			return // idempotent: a matching task already exists
		}
		status := tu.Status
		if status == "" {
			status = model.StatusNotStarted
		}
		p.Tasks = append(p.Tasks, model.Task{
			ID:          ident.NewWithPrefix("task"),
			Name:        tu.Name,
			Description: tu.Description,
			Status:      status,
			Subtasks:    []model.Task{},
		})

	case model.ActionRemove:
		if idx < 0 {
			return
		}
		p.Tasks = append(p.Tasks[:idx], p.Tasks[idx+1:]...)

	case model.ActionUpdate, model.ActionComplete:
		if idx < 0 {
			return // dangling reference, dropped silently
		}
		t := &p.Tasks[idx]
		if tu.Name != "" {
			t.Name = tu.Name
		}
		if tu.Description != "" {
			t.Description = tu.Description
		}
		if tu.Status != "" {
			t.Status = tu.Status
		}
	}
}

// findTask resolves an LLM-supplied task reference: id match first, then
// name match as a fallback. Names are a weak key; when two tasks share one,
// the most recently created match wins.
func findTask(tasks []model.Task, id, name string) int {
	if id != "" {
		for i := range tasks {
			if tasks[i].ID == id {
				return i
			}
		}
	}
	if name != "" {
		for i := len(tasks) - 1; i >= 0; i-- {
			if tasks[i].Name == name {
				return i
			}
		}
	}
	return -1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NewProject builds the initial project document from a creation result.
// Progress starts at zero, priorities are balanced, and the timeline opens
// at now.
func NewProject(res *model.CreateProjectResult, now time.Time) *model.Project {
	tasks := make([]model.Task, 0, len(res.Project.InitialTasks))
	for _, it := range res.Project.InitialTasks {
		tasks = append(tasks, model.Task{
			ID:          ident.NewWithPrefix("task"),
			Name:        it.Name,
			Description: it.Description,
			Status:      model.StatusNotStarted,
			Subtasks:    []model.Task{},
		})
	}

	return &model.Project{
		ProjectName:      res.Project.ProjectName,
		ProjectType:      res.Project.ProjectType,
		ProjectGoals:     append([]string(nil), res.Project.ProjectGoals...),
		Tasks:            tasks,
		Progress:         0,
		Priorities:       model.Priorities{},
		Stakeholders:     []model.Stakeholder{},
		Timeline:         model.Timeline{StartDate: now},
		Blockers:         []model.Blocker{},
		Resources:        []model.Resource{},
		SuggestedActions: append([]string(nil), res.SuggestedActions...),
	}
}
