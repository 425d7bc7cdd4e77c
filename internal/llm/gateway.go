package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	apperr "github.com/fjellheim/advisor/internal/errors"
	"github.com/fjellheim/advisor/internal/model"
	"github.com/fjellheim/advisor/internal/retry"
)

const createSystemPrompt = `You are an experienced software project consultant.
Given a project name, type, and goals, produce a concrete starting plan:
restate the project fields, break the goals into 3-5 initial tasks, write a
short opening statement for the client, and suggest 2-3 next actions.
Record the plan by calling the ` + createProjectTool + ` tool.`

const nextStepSystemPrompt = `You are an experienced software project consultant
advising a client over chat. You receive the current project state as JSON and
the client's latest message. Respond with one consultancy update: a reply to
the client, fresh suggested actions, a signed progress delta, and, when
warranted, priority shifts, newly discovered blockers, and task changes.
Reference existing tasks by their id when possible, otherwise by exact name.
Record the update by calling the ` + nextStepTool + ` tool.`

// Gateway turns application-level requests into schema-constrained LLM calls
// and validates the structured results. Both operations return *errors.APIError
// on any failure, with no partial data.
type Gateway struct {
	provider Provider
	retryCfg retry.Config
	logger   zerolog.Logger
}

// NewGateway constructs a gateway over the given provider.
func NewGateway(provider Provider, retryCfg retry.Config, logger zerolog.Logger) *Gateway {
	return &Gateway{
		provider: provider,
		retryCfg: retryCfg,
		logger:   logger.With().Str("component", "llm.gateway").Logger(),
	}
}

// CreateProject asks the model for an initial plan. The caller guarantees
// non-empty inputs.
func (g *Gateway) CreateProject(ctx context.Context, name, projType, goalsText string) (*model.CreateProjectResult, error) {
	prompt := fmt.Sprintf("Project name: %s\nProject type: %s\nGoals:\n%s", name, projType, goalsText)

	req := CompletionRequest{
		SystemPrompt: createSystemPrompt,
		Messages:     []Message{{Role: RoleUser, Content: prompt}},
		Tools: []ToolSchema{{
			Name:        createProjectTool,
			Description: "Record the initial project plan.",
			InputSchema: json.RawMessage(createProjectSchema),
		}},
		ForceTool: createProjectTool,
	}

	raw, err := g.complete(ctx, req, createProjectTool)
	if err != nil {
		return nil, err
	}

	var res model.CreateProjectResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, schemaErr("create project: decode payload", err)
	}
	if err := validateCreateResult(&res); err != nil {
		return nil, err
	}

	g.logger.Info().
		Str("project", res.Project.ProjectName).
		Int("initial_tasks", len(res.Project.InitialTasks)).
		Msg("project plan received")
	return &res, nil
}

// NextStep asks the model for a structured update to one conversational turn.
func (g *Gateway) NextStep(ctx context.Context, userMessage string, snapshot *model.Project, recent []model.ChatMessage) (*model.ConsultancyUpdate, error) {
	snapJSON, err := json.Marshal(snapshot)
	if err != nil {
		return nil, schemaErr("next step: marshal snapshot", err)
	}

	req := CompletionRequest{
		SystemPrompt: nextStepSystemPrompt + "\n\nCurrent project state:\n" + string(snapJSON),
		Messages:     buildTurnMessages(userMessage, recent),
		Tools: []ToolSchema{{
			Name:        nextStepTool,
			Description: "Record the consultancy update for this turn.",
			InputSchema: json.RawMessage(nextStepSchema),
		}},
		ForceTool: nextStepTool,
	}

	raw, err := g.complete(ctx, req, nextStepTool)
	if err != nil {
		return nil, err
	}

	var env struct {
		ConsultancyUpdate *model.ConsultancyUpdate `json:"consultancyUpdate"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, schemaErr("next step: decode payload", err)
	}
	if err := validateUpdate(env.ConsultancyUpdate); err != nil {
		return nil, err
	}

	g.logger.Info().
		Int("progress_delta", env.ConsultancyUpdate.ProgressUpdate).
		Int("task_updates", len(env.ConsultancyUpdate.TaskUpdates)).
		Int("new_blockers", len(env.ConsultancyUpdate.Blockers)).
		Msg("consultancy update received")
	return env.ConsultancyUpdate, nil
}

// complete runs the request through the retry helper and extracts the forced
// tool call's input.
func (g *Gateway) complete(ctx context.Context, req CompletionRequest, tool string) (json.RawMessage, error) {
	var resp *CompletionResponse
	err := retry.Do(ctx, g.retryCfg, func(ctx context.Context) error {
		var err error
		resp, err = g.provider.Complete(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	if resp.ToolUse == nil || resp.ToolUse.Name != tool {
		return nil, apperr.NewAPIError("anthropic", 0,
			fmt.Sprintf("model did not call %s", tool))
	}
	return resp.ToolUse.Input, nil
}

// buildTurnMessages converts recent chat history into model messages and
// appends the current user message. The Messages API requires the list to
// open with a user turn and rejects consecutive same-role entries, so leading
// assistant messages are dropped and same-role runs are folded together.
func buildTurnMessages(userMessage string, recent []model.ChatMessage) []Message {
	msgs := make([]Message, 0, len(recent)+1)
	for _, m := range recent {
		if strings.TrimSpace(m.Text) == "" {
			continue
		}
		role := RoleUser
		if m.Sender == model.SenderAI {
			role = RoleAssistant
		}
		if len(msgs) == 0 && role == RoleAssistant {
			continue
		}
		if len(msgs) > 0 && msgs[len(msgs)-1].Role == role {
			msgs[len(msgs)-1].Content += "\n\n" + m.Text
			continue
		}
		msgs = append(msgs, Message{Role: role, Content: m.Text})
	}
	if len(msgs) > 0 && msgs[len(msgs)-1].Role == RoleUser {
		msgs[len(msgs)-1].Content += "\n\n" + userMessage
		return msgs
	}
	return append(msgs, Message{Role: RoleUser, Content: userMessage})
}

func schemaErr(msg string, err error) *apperr.APIError {
	return &apperr.APIError{Service: "anthropic", Message: msg, Err: err}
}

func validateCreateResult(res *model.CreateProjectResult) error {
	switch {
	case res.Project.ProjectName == "":
		return apperr.NewAPIError("anthropic", 0, "create project: missing projectName")
	case res.Project.ProjectType == "":
		return apperr.NewAPIError("anthropic", 0, "create project: missing projectType")
	case res.Project.ProjectGoals == nil:
		return apperr.NewAPIError("anthropic", 0, "create project: missing projectGoals")
	case len(res.Project.InitialTasks) < 3 || len(res.Project.InitialTasks) > 5:
		return apperr.NewAPIError("anthropic", 0,
			fmt.Sprintf("create project: expected 3-5 initial tasks, got %d", len(res.Project.InitialTasks)))
	case res.OpeningStatement == "":
		return apperr.NewAPIError("anthropic", 0, "create project: missing openingStatement")
	case len(res.SuggestedActions) < 2 || len(res.SuggestedActions) > 3:
		return apperr.NewAPIError("anthropic", 0,
			fmt.Sprintf("create project: expected 2-3 suggested actions, got %d", len(res.SuggestedActions)))
	}
	for i, t := range res.Project.InitialTasks {
		if t.Name == "" {
			return apperr.NewAPIError("anthropic", 0,
				fmt.Sprintf("create project: initial task %d missing name", i))
		}
	}
	return nil
}

func validateUpdate(u *model.ConsultancyUpdate) error {
	if u == nil {
		return apperr.NewAPIError("anthropic", 0, "next step: missing consultancyUpdate")
	}
	if u.ResponseText == "" {
		return apperr.NewAPIError("anthropic", 0, "next step: missing responseText")
	}
	if u.SuggestedActions == nil {
		return apperr.NewAPIError("anthropic", 0, "next step: missing suggestedActions")
	}
	for i, tu := range u.TaskUpdates {
		if tu.Name == "" {
			return apperr.NewAPIError("anthropic", 0,
				fmt.Sprintf("next step: task update %d missing name", i))
		}
		if !tu.Action.Valid() {
			return apperr.NewAPIError("anthropic", 0,
				fmt.Sprintf("next step: task update %d has invalid action %q", i, tu.Action))
		}
		if tu.Status != "" && !tu.Status.Valid() {
			return apperr.NewAPIError("anthropic", 0,
				fmt.Sprintf("next step: task update %d has invalid status %q", i, tu.Status))
		}
	}
	for i, b := range u.Blockers {
		if b.Description == "" {
			return apperr.NewAPIError("anthropic", 0,
				fmt.Sprintf("next step: blocker %d missing description", i))
		}
	}
	return nil
}
