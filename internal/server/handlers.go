package server

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	apperr "github.com/fjellheim/advisor/internal/errors"
	"github.com/fjellheim/advisor/internal/model"
	"github.com/fjellheim/advisor/internal/session"
)

// Handlers holds dependencies for HTTP handlers.
type Handlers struct {
	session *session.Session
	logger  zerolog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(s *session.Session, logger zerolog.Logger) *Handlers {
	return &Handlers{
		session: s,
		logger:  logger.With().Str("component", "handlers").Logger(),
	}
}

// CreateProject handles POST /api/v1/project.
func (h *Handlers) CreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	res, err := h.session.Create(c.UserContext(), req.ProjectName, req.ProjectType, req.Goals)
	if err != nil {
		return h.mapSessionError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(TurnResponse{
		Reply:   res.Reply,
		Project: res.Project,
	})
}

// GetProject handles GET /api/v1/project.
func (h *Handlers) GetProject(c *fiber.Ctx) error {
	p := h.session.Project()
	if p == nil {
		return problemResponse(c, fiber.StatusNotFound,
			"no_project", "Not Found",
			"No project has been created yet")
	}
	return c.JSON(ProjectResponse{Project: p})
}

// DeleteProject handles DELETE /api/v1/project.
func (h *Handlers) DeleteProject(c *fiber.Ctx) error {
	if err := h.session.Reset(); err != nil {
		return h.mapSessionError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}

// SendMessage handles POST /api/v1/messages.
func (h *Handlers) SendMessage(c *fiber.Ctx) error {
	var req SendMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_body", "Bad Request",
			"Invalid request body: "+err.Error())
	}

	res, err := h.session.Send(c.UserContext(), req.Text)
	if err != nil {
		return h.mapSessionError(c, err)
	}

	return c.JSON(TurnResponse{
		Reply:   res.Reply,
		Project: res.Project,
	})
}

// CompleteTask handles POST /api/v1/tasks/:id/complete.
func (h *Handlers) CompleteTask(c *fiber.Ctx) error {
	id := c.Params("id")

	res, err := h.session.CompleteTask(c.UserContext(), id)
	if err != nil {
		return h.mapSessionError(c, err)
	}

	return c.JSON(TurnResponse{
		Reply:   res.Reply,
		Project: res.Project,
	})
}

// GetChat handles GET /api/v1/chat.
func (h *Handlers) GetChat(c *fiber.Ctx) error {
	msgs := h.session.History()
	if msgs == nil {
		msgs = []model.ChatMessage{}
	}
	return c.JSON(ChatHistoryResponse{Messages: msgs})
}

// mapSessionError translates orchestrator errors into Problem Detail responses.
func (h *Handlers) mapSessionError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, apperr.ErrInvalidInput):
		return problemResponse(c, fiber.StatusBadRequest,
			"invalid_input", "Bad Request", err.Error())
	case errors.Is(err, apperr.ErrNoProject):
		return problemResponse(c, fiber.StatusNotFound,
			"no_project", "Not Found",
			"No project has been created yet")
	case errors.Is(err, apperr.ErrNotFound):
		return problemResponse(c, fiber.StatusNotFound,
			"task_not_found", "Not Found", err.Error())
	case errors.Is(err, apperr.ErrProjectExists):
		return problemResponse(c, fiber.StatusConflict,
			"project_exists", "Conflict",
			"A project already exists; delete it first")
	case errors.Is(err, apperr.ErrBusy):
		return problemResponse(c, fiber.StatusConflict,
			"busy", "Conflict",
			"A previous request is still being processed")
	case apperr.IsGatewayFailure(err):
		h.logger.Error().Err(err).Msg("upstream gateway failure")
		return problemResponse(c, fiber.StatusBadGateway,
			"upstream_error", "Bad Gateway",
			"The language model service is unavailable")
	default:
		h.logger.Error().Err(err).Msg("unexpected session error")
		return problemResponse(c, fiber.StatusInternalServerError,
			"internal_error", "Internal Server Error",
			"An internal error occurred")
	}
}
