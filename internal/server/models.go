// Package server provides the HTTP API for the advisor service.
package server

import (
	"github.com/fjellheim/advisor/internal/model"
)

// --- Request DTOs ---

// CreateProjectRequest is the payload for POST /api/v1/project.
type CreateProjectRequest struct {
	ProjectName string `json:"projectName"`
	ProjectType string `json:"projectType"`
	Goals       string `json:"goals"`
}

// SendMessageRequest is the payload for POST /api/v1/messages.
type SendMessageRequest struct {
	Text string `json:"text"`
}

// --- Response DTOs ---

// ProjectResponse wraps the current project state.
type ProjectResponse struct {
	Project *model.Project `json:"project"`
}

// TurnResponse is returned after a conversational turn.
type TurnResponse struct {
	Reply   model.ChatMessage `json:"reply"`
	Project *model.Project    `json:"project"`
}

// ChatHistoryResponse wraps the persisted conversation.
type ChatHistoryResponse struct {
	Messages []model.ChatMessage `json:"messages"`
}

// ProblemDetail follows RFC 7807 for error responses.
type ProblemDetail struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Instance string `json:"instance,omitempty"`
}
