// Package session drives the conversational request/response cycle: it owns
// the in-memory project document and chat log, guards the single in-flight
// request, routes turns through the LLM gateway and the reducer, and persists
// state after every successful transition.
package session

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	apperr "github.com/fjellheim/advisor/internal/errors"
	"github.com/fjellheim/advisor/internal/metrics"
	"github.com/fjellheim/advisor/internal/model"
	"github.com/fjellheim/advisor/internal/plan"
	"github.com/fjellheim/advisor/internal/storage"
)

// ApologyText is appended as the AI reply when a conversational turn fails at
// the gateway. The turn itself never surfaces the error.
const ApologyText = "I'm sorry, I ran into a problem processing that. Please try again in a moment."

// recentWindow is how many chat messages accompany a next-step request.
const recentWindow = 10

// State is the orchestrator's per-turn state machine position.
type State string

const (
	StateIdle     State = "idle"
	StateCreating State = "creating"
	StateAwaiting State = "awaiting_response"
)

// Gateway is the LLM boundary the session depends on.
type Gateway interface {
	CreateProject(ctx context.Context, name, projType, goalsText string) (*model.CreateProjectResult, error)
	NextStep(ctx context.Context, userMessage string, snapshot *model.Project, recent []model.ChatMessage) (*model.ConsultancyUpdate, error)
}

// TurnResult is what one completed turn hands back to the caller.
type TurnResult struct {
	Reply   model.ChatMessage `json:"reply"`
	Project *model.Project    `json:"project"`
}

// Session is the conversation orchestrator. All mutation happens through its
// methods; the state flag guards the single in-flight gateway call.
type Session struct {
	mu      sync.Mutex
	state   State
	project *model.Project
	history []model.ChatMessage

	store   *storage.Store
	gateway Gateway
	metrics *metrics.Metrics
	logger  zerolog.Logger
	now     func() time.Time
}

// New constructs a session and restores any persisted state. Corrupt storage
// has already been wiped by the adapter, so restore failures here are real
// I/O errors.
func New(store *storage.Store, gateway Gateway, m *metrics.Metrics, logger zerolog.Logger) (*Session, error) {
	s := &Session{
		state:   StateIdle,
		store:   store,
		gateway: gateway,
		metrics: m,
		logger:  logger.With().Str("component", "session").Logger(),
		now:     time.Now,
	}

	p, err := store.LoadProject()
	if err != nil {
		return nil, fmt.Errorf("restore project: %w", err)
	}
	h, err := store.LoadHistory()
	if err != nil {
		return nil, fmt.Errorf("restore history: %w", err)
	}
	s.project = p
	s.history = h

	if p != nil {
		s.metrics.SetProgress(p.Progress)
		s.logger.Info().
			Str("project", p.ProjectName).
			Int("progress", p.Progress).
			Int("messages", len(h)).
			Msg("session restored")
	}
	return s, nil
}

// Project returns a deep copy of the current project, or nil when none exists.
func (s *Session) Project() *model.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.project.Clone()
}

// History returns a copy of the chat log.
func (s *Session) History() []model.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.ChatMessage(nil), s.history...)
}

// Busy reports whether a gateway call is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != StateIdle
}

// Create runs the one-shot project creation flow. Inputs must be non-empty.
// On gateway failure no project is created and the error is returned so the
// caller can show a notice and offer retry.
func (s *Session) Create(ctx context.Context, name, projType, goalsText string) (*TurnResult, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(projType) == "" || strings.TrimSpace(goalsText) == "" {
		return nil, fmt.Errorf("%w: name, type, and goals are required", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, apperr.ErrBusy
	}
	if s.project != nil {
		s.mu.Unlock()
		return nil, apperr.ErrProjectExists
	}
	s.state = StateCreating
	s.mu.Unlock()

	start := s.now()
	res, err := s.gateway.CreateProject(ctx, name, projType, goalsText)
	s.metrics.ObserveLLMDuration("create_project", s.now().Sub(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle

	if err != nil {
		s.metrics.RecordLLMRequest("create_project", "error")
		s.metrics.RecordTurn("create", "gateway_failure")
		s.logger.Error().Err(err).Msg("project creation failed")
		return nil, err
	}
	s.metrics.RecordLLMRequest("create_project", "ok")

	s.project = plan.NewProject(res, s.now())
	opening := model.ChatMessage{
		Sender:    model.SenderAI,
		Text:      res.OpeningStatement,
		Timestamp: s.now(),
	}
	s.history = append(s.history, opening)
	s.persistLocked()

	s.metrics.RecordTurn("create", "success")
	s.metrics.SetProgress(s.project.Progress)
	s.logger.Info().
		Str("project", s.project.ProjectName).
		Int("tasks", len(s.project.Tasks)).
		Msg("project created")

	return &TurnResult{Reply: opening, Project: s.project.Clone()}, nil
}

// Send runs one conversational turn. The user message is appended
// optimistically; a gateway failure turns into the fixed apology reply and
// leaves the project untouched.
func (s *Session) Send(ctx context.Context, text string) (*TurnResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: message text is required", apperr.ErrInvalidInput)
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return nil, apperr.ErrBusy
	}
	if s.project == nil {
		s.mu.Unlock()
		return nil, apperr.ErrNoProject
	}
	s.state = StateAwaiting

	snapshot := s.project.Clone()
	recent := recentHistory(s.history, recentWindow)

	s.history = append(s.history, model.ChatMessage{
		Sender:    model.SenderUser,
		Text:      text,
		Timestamp: s.now(),
	})
	s.persistHistoryLocked()
	s.mu.Unlock()

	start := s.now()
	update, err := s.gateway.NextStep(ctx, text, snapshot, recent)
	s.metrics.ObserveLLMDuration("next_step", s.now().Sub(start).Seconds())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateIdle

	if err != nil {
		s.metrics.RecordLLMRequest("next_step", "error")
		s.metrics.RecordTurn("message", "gateway_failure")
		s.logger.Warn().Err(err).Msg("turn failed, injecting apology")

		apology := model.ChatMessage{
			Sender:    model.SenderAI,
			Text:      ApologyText,
			Timestamp: s.now(),
		}
		s.history = append(s.history, apology)
		s.persistHistoryLocked()
		return &TurnResult{Reply: apology, Project: s.project.Clone()}, nil
	}
	s.metrics.RecordLLMRequest("next_step", "ok")

	s.project = plan.Apply(s.project, update)
	reply := model.ChatMessage{
		Sender:    model.SenderAI,
		Text:      update.ResponseText,
		Timestamp: s.now(),
	}
	s.history = append(s.history, reply)
	s.persistLocked()

	s.metrics.RecordTurn("message", "success")
	s.metrics.SetProgress(s.project.Progress)
	s.logger.Info().
		Int("progress", s.project.Progress).
		Int("tasks", len(s.project.Tasks)).
		Int("blockers", len(s.project.Blockers)).
		Msg("turn applied")

	return &TurnResult{Reply: reply, Project: s.project.Clone()}, nil
}

// CompleteTask translates a direct "mark completed" action into a synthesized
// user message routed through the normal send path. There is no separate
// silent-update path.
func (s *Session) CompleteTask(ctx context.Context, taskID string) (*TurnResult, error) {
	s.mu.Lock()
	if s.project == nil {
		s.mu.Unlock()
		return nil, apperr.ErrNoProject
	}
	var name string
	for _, t := range s.project.Tasks {
		if t.ID == taskID {
			name = t.Name
			break
		}
	}
	s.mu.Unlock()

	if name == "" {
		return nil, fmt.Errorf("%w: task %s", apperr.ErrNotFound, taskID)
	}
	return s.Send(ctx, "I have just completed the task: "+name)
}

// Reset clears both persisted keys and the in-memory state, returning the
// session to its initial no-project state.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateIdle {
		return apperr.ErrBusy
	}

	if err := s.store.Clear(); err != nil {
		return fmt.Errorf("clear storage: %w", err)
	}
	s.project = nil
	s.history = nil
	s.metrics.SetProgress(0)
	s.logger.Info().Msg("session reset")
	return nil
}

// persistLocked writes both documents. Persistence failures are logged and
// swallowed: the in-memory state remains authoritative for this process.
func (s *Session) persistLocked() {
	if err := s.store.SaveProject(s.project); err != nil {
		s.metrics.RecordError("session", "persist")
		s.logger.Error().Err(err).Msg("failed to persist project")
	}
	s.persistHistoryLocked()
}

func (s *Session) persistHistoryLocked() {
	if err := s.store.SaveHistory(s.history); err != nil {
		s.metrics.RecordError("session", "persist")
		s.logger.Error().Err(err).Msg("failed to persist history")
	}
}

func recentHistory(history []model.ChatMessage, n int) []model.ChatMessage {
	if len(history) <= n {
		return append([]model.ChatMessage(nil), history...)
	}
	return append([]model.ChatMessage(nil), history[len(history)-n:]...)
}
