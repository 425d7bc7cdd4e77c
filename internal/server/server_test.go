package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/fjellheim/advisor/internal/errors"
	"github.com/fjellheim/advisor/internal/health"
	"github.com/fjellheim/advisor/internal/requestid"
	"github.com/fjellheim/advisor/internal/metrics"
	"github.com/fjellheim/advisor/internal/model"
	"github.com/fjellheim/advisor/internal/session"
	"github.com/fjellheim/advisor/internal/storage"
)

type stubGateway struct {
	createRes *model.CreateProjectResult
	createErr error
	nextRes   *model.ConsultancyUpdate
	nextErr   error

	lastRequestID string
}

func (g *stubGateway) CreateProject(ctx context.Context, name, projType, goalsText string) (*model.CreateProjectResult, error) {
	g.lastRequestID = requestid.FromContext(ctx)
	if g.createErr != nil {
		return nil, g.createErr
	}
	return g.createRes, nil
}

func (g *stubGateway) NextStep(ctx context.Context, userMessage string, snapshot *model.Project, recent []model.ChatMessage) (*model.ConsultancyUpdate, error) {
	if g.nextErr != nil {
		return nil, g.nextErr
	}
	return g.nextRes, nil
}

func stubCreateResult() *model.CreateProjectResult {
	return &model.CreateProjectResult{
		Project: model.ProjectSeed{
			ProjectName:  "Garden Planner",
			ProjectType:  "Web App",
			ProjectGoals: []string{"plan beds", "track planting"},
			InitialTasks: []model.InitialTask{
				{Name: "Sketch layout", Description: "Rough wireframes"},
				{Name: "Pick a stack", Description: "Decide frameworks"},
				{Name: "Build bed editor", Description: "First feature"},
			},
		},
		OpeningStatement: "Let's get your garden planner started.",
		SuggestedActions: []string{"Start with the layout", "List your beds"},
	}
}

func testApp(t *testing.T, authMode, apiKey string, gw session.Gateway) *fiber.App {
	t.Helper()
	store, err := storage.New(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	sess, err := session.New(store, gw, metrics.New(), zerolog.Nop())
	require.NoError(t, err)

	srv := NewServer(ServerConfig{
		ListenAddr: ":0",
		AuthConfig: AuthConfig{Mode: authMode, APIKey: apiKey},
	}, sess, health.NewChecker(zerolog.Nop()), metrics.New(), zerolog.Nop())

	return srv.App()
}

func jsonReq(method, path, body string) *http.Request {
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func createProject(t *testing.T, app *fiber.App) {
	t.Helper()
	resp, err := app.Test(jsonReq("POST", "/api/v1/project",
		`{"projectName":"Garden Planner","projectType":"Web App","goals":"plan beds"}`), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestAuth_NoAuthMode(t *testing.T) {
	app := testApp(t, "none", "", &stubGateway{})

	resp, err := app.Test(jsonReq("GET", "/api/v1/chat", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_APIKey(t *testing.T) {
	app := testApp(t, "api-key", "test-secret-key", &stubGateway{})

	// Missing key
	resp, err := app.Test(jsonReq("GET", "/api/v1/chat", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	var problem ProblemDetail
	json.NewDecoder(resp.Body).Decode(&problem)
	assert.Equal(t, "missing_auth", problem.Type)

	// Wrong key
	req := jsonReq("GET", "/api/v1/chat", "")
	req.Header.Set("Authorization", "Bearer wrong-key")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Wrong scheme
	req = jsonReq("GET", "/api/v1/chat", "")
	req.Header.Set("Authorization", "Basic dGVzdDp0ZXN0")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Valid key
	req = jsonReq("GET", "/api/v1/chat", "")
	req.Header.Set("Authorization", "Bearer test-secret-key")
	resp, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_ProbeEndpoints_NoAuth(t *testing.T) {
	app := testApp(t, "api-key", "test-secret-key", &stubGateway{})

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		resp, err := app.Test(jsonReq("GET", path, ""), -1)
		require.NoError(t, err, "path: %s", path)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "path: %s", path)
	}
}

func TestCreateProject(t *testing.T) {
	app := testApp(t, "none", "", &stubGateway{createRes: stubCreateResult()})

	resp, err := app.Test(jsonReq("POST", "/api/v1/project",
		`{"projectName":"Garden Planner","projectType":"Web App","goals":"plan beds"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	var turn TurnResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&turn))
	assert.Equal(t, "Garden Planner", turn.Project.ProjectName)
	assert.Equal(t, 0, turn.Project.Progress)
	assert.Equal(t, "Let's get your garden planner started.", turn.Reply.Text)
	assert.Equal(t, model.SenderAI, turn.Reply.Sender)
}

func TestCreateProject_MissingFields(t *testing.T) {
	app := testApp(t, "none", "", &stubGateway{createRes: stubCreateResult()})

	resp, err := app.Test(jsonReq("POST", "/api/v1/project", `{"projectName":"X"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	var problem ProblemDetail
	json.NewDecoder(resp.Body).Decode(&problem)
	assert.Equal(t, "invalid_input", problem.Type)
}

func TestCreateProject_AlreadyExists(t *testing.T) {
	app := testApp(t, "none", "", &stubGateway{createRes: stubCreateResult()})
	createProject(t, app)

	resp, err := app.Test(jsonReq("POST", "/api/v1/project",
		`{"projectName":"Another","projectType":"Web App","goals":"goals"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var problem ProblemDetail
	json.NewDecoder(resp.Body).Decode(&problem)
	assert.Equal(t, "project_exists", problem.Type)
}

func TestCreateProject_GatewayDown(t *testing.T) {
	app := testApp(t, "none", "", &stubGateway{
		createErr: apperr.NewAPIError("anthropic", 503, "overloaded"),
	})

	resp, err := app.Test(jsonReq("POST", "/api/v1/project",
		`{"projectName":"Garden Planner","projectType":"Web App","goals":"plan beds"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)

	var problem ProblemDetail
	json.NewDecoder(resp.Body).Decode(&problem)
	assert.Equal(t, "upstream_error", problem.Type)
}

func TestGetProject(t *testing.T) {
	app := testApp(t, "none", "", &stubGateway{createRes: stubCreateResult()})

	resp, err := app.Test(jsonReq("GET", "/api/v1/project", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	createProject(t, app)

	resp, err = app.Test(jsonReq("GET", "/api/v1/project", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var pr ProjectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pr))
	assert.Equal(t, "Garden Planner", pr.Project.ProjectName)
	assert.Len(t, pr.Project.Tasks, 3)
}

func TestSendMessage(t *testing.T) {
	gw := &stubGateway{createRes: stubCreateResult()}
	app := testApp(t, "none", "", gw)
	createProject(t, app)

	gw.nextRes = &model.ConsultancyUpdate{
		ResponseText:     "Great progress on the layout.",
		SuggestedActions: []string{"Pick a stack next"},
		ProgressUpdate:   10,
	}

	resp, err := app.Test(jsonReq("POST", "/api/v1/messages", `{"text":"layout is done"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var turn TurnResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&turn))
	assert.Equal(t, "Great progress on the layout.", turn.Reply.Text)
	assert.Equal(t, 10, turn.Project.Progress)
}

func TestSendMessage_NoProject(t *testing.T) {
	app := testApp(t, "none", "", &stubGateway{})

	resp, err := app.Test(jsonReq("POST", "/api/v1/messages", `{"text":"hello"}`), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var problem ProblemDetail
	json.NewDecoder(resp.Body).Decode(&problem)
	assert.Equal(t, "no_project", problem.Type)
}

func TestSendMessage_GatewayDown_ReturnsApology(t *testing.T) {
	gw := &stubGateway{createRes: stubCreateResult()}
	app := testApp(t, "none", "", gw)
	createProject(t, app)

	gw.nextErr = apperr.NewAPIError("anthropic", 503, "overloaded")

	resp, err := app.Test(jsonReq("POST", "/api/v1/messages", `{"text":"hello"}`), -1)
	require.NoError(t, err)
	// Turn failures surface as an apology reply, not an HTTP error.
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var turn TurnResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&turn))
	assert.Equal(t, session.ApologyText, turn.Reply.Text)
	assert.Equal(t, 0, turn.Project.Progress)
}

func TestCompleteTask(t *testing.T) {
	gw := &stubGateway{createRes: stubCreateResult()}
	app := testApp(t, "none", "", gw)
	createProject(t, app)

	resp, err := app.Test(jsonReq("GET", "/api/v1/project", ""), -1)
	require.NoError(t, err)
	var pr ProjectResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&pr))
	taskID := pr.Project.Tasks[0].ID

	gw.nextRes = &model.ConsultancyUpdate{
		ResponseText:     "Marked it done.",
		SuggestedActions: []string{},
		TaskUpdates: []model.TaskUpdate{
			{TaskID: taskID, Action: model.ActionComplete, Status: model.StatusCompleted},
		},
	}

	resp, err = app.Test(jsonReq("POST", "/api/v1/tasks/"+taskID+"/complete", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var turn TurnResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&turn))
	assert.Equal(t, model.StatusCompleted, turn.Project.Tasks[0].Status)
}

func TestCompleteTask_Unknown(t *testing.T) {
	app := testApp(t, "none", "", &stubGateway{createRes: stubCreateResult()})
	createProject(t, app)

	resp, err := app.Test(jsonReq("POST", "/api/v1/tasks/task-nope/complete", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var problem ProblemDetail
	json.NewDecoder(resp.Body).Decode(&problem)
	assert.Equal(t, "task_not_found", problem.Type)
}

func TestGetChat(t *testing.T) {
	app := testApp(t, "none", "", &stubGateway{createRes: stubCreateResult()})

	resp, err := app.Test(jsonReq("GET", "/api/v1/chat", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var hist ChatHistoryResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hist))
	assert.Empty(t, hist.Messages)

	createProject(t, app)

	resp, err = app.Test(jsonReq("GET", "/api/v1/chat", ""), -1)
	require.NoError(t, err)
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&hist))
	require.Len(t, hist.Messages, 1)
	assert.Equal(t, model.SenderAI, hist.Messages[0].Sender)
}

func TestRequestID_ReachesGatewayContext(t *testing.T) {
	gw := &stubGateway{createRes: stubCreateResult()}
	app := testApp(t, "none", "", gw)

	resp, err := app.Test(jsonReq("POST", "/api/v1/project",
		`{"projectName":"Garden Planner","projectType":"Web App","goals":"plan beds"}`), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	headerID := resp.Header.Get("X-Request-ID")
	require.NotEmpty(t, headerID)
	assert.Equal(t, headerID, gw.lastRequestID)
}

func TestDeleteProject(t *testing.T) {
	app := testApp(t, "none", "", &stubGateway{createRes: stubCreateResult()})
	createProject(t, app)

	resp, err := app.Test(jsonReq("DELETE", "/api/v1/project", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(jsonReq("GET", "/api/v1/project", ""), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
