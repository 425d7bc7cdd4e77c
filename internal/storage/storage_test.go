package storage

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjellheim/advisor/internal/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:", zerolog.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleProject() *model.Project {
	return &model.Project{
		ProjectName:  "Recipe App",
		ProjectType:  "Mobile App",
		ProjectGoals: []string{"search", "favorites"},
		Progress:     42,
		Tasks: []model.Task{
			{ID: "task-1", Name: "Implement search", Status: model.StatusInProgress, Subtasks: []model.Task{}},
		},
		Priorities: model.Priorities{Speed: 2, Scope: -1},
		Timeline:   model.Timeline{StartDate: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)},
		Blockers: []model.Blocker{
			{ID: "blk-1", Description: "waiting on API keys"},
		},
		SuggestedActions: []string{"Ship it"},
	}
}

func TestSaveAndLoadProject(t *testing.T) {
	s := setupTestStore(t)

	require.NoError(t, s.SaveProject(sampleProject()))

	got, err := s.LoadProject()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Recipe App", got.ProjectName)
	assert.Equal(t, 42, got.Progress)
	require.Len(t, got.Tasks, 1)
	assert.Equal(t, model.StatusInProgress, got.Tasks[0].Status)
	assert.Equal(t, 2, got.Priorities.Speed)
}

func TestLoadProject_Absent(t *testing.T) {
	s := setupTestStore(t)
	got, err := s.LoadProject()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveProject_Overwrites(t *testing.T) {
	s := setupTestStore(t)

	p := sampleProject()
	require.NoError(t, s.SaveProject(p))
	p.Progress = 90
	require.NoError(t, s.SaveProject(p))

	got, err := s.LoadProject()
	require.NoError(t, err)
	assert.Equal(t, 90, got.Progress)
}

func TestSaveAndLoadHistory(t *testing.T) {
	s := setupTestStore(t)

	ts := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	msgs := []model.ChatMessage{
		{Sender: model.SenderUser, Text: "hello", Timestamp: ts},
		{Sender: model.SenderAI, Text: "welcome", Timestamp: ts.Add(time.Second)},
	}
	require.NoError(t, s.SaveHistory(msgs))

	got, err := s.LoadHistory()
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, model.SenderUser, got[0].Sender)
	assert.True(t, got[1].Timestamp.After(got[0].Timestamp))
}

func TestLoadHistory_Absent(t *testing.T) {
	s := setupTestStore(t)
	got, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestClear(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.SaveProject(sampleProject()))
	require.NoError(t, s.SaveHistory([]model.ChatMessage{{Sender: model.SenderUser, Text: "x", Timestamp: time.Now()}}))

	require.NoError(t, s.Clear())

	p, err := s.LoadProject()
	require.NoError(t, err)
	assert.Nil(t, p)

	h, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestCorruptDocument_WipesAndContinues(t *testing.T) {
	s := setupTestStore(t)
	require.NoError(t, s.SaveHistory([]model.ChatMessage{{Sender: model.SenderUser, Text: "keep?", Timestamp: time.Now()}}))

	// Sneak malformed JSON under the project key.
	_, err := s.DB().Exec(`INSERT INTO documents (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, KeyProject, "{not json")
	require.NoError(t, err)

	p, err := s.LoadProject()
	require.NoError(t, err)
	assert.Nil(t, p)

	// Corruption wipes all keys so the app starts fresh.
	h, err := s.LoadHistory()
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestPing(t *testing.T) {
	s := setupTestStore(t)
	assert.NoError(t, s.Ping(context.Background()))
}
