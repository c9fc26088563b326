package repository

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gabrielrodrigueslb/lintra/internal/crmsync"
	"github.com/gabrielrodrigueslb/lintra/internal/db"
	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := db.OpenFile(filepath.Join(t.TempDir(), "test.sqlite"))
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.Migrate(conn))
	return conn
}

func taskTitles(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Title
	}
	return out
}

func TestTaskRepo_CreateDefaults(t *testing.T) {
	repo := NewTaskRepo(openTestDB(t))

	task, err := repo.Create(models.Task{Title: "  Ligar para ACME "})
	require.NoError(t, err)
	require.NotNil(t, task)

	assert.Equal(t, "Ligar para ACME", task.Title)
	assert.Equal(t, models.PriorityMedium, task.Priority)
	assert.Equal(t, models.TaskPending, task.Status)
	assert.True(t, task.DueDate.IsZero())
	assert.False(t, task.CreatedAt.IsZero())

	_, err = repo.Create(models.Task{Title: " "})
	assert.ErrorIs(t, err, ErrTaskTitleRequired)
}

func TestTaskRepo_ListSortsByPriority(t *testing.T) {
	repo := NewTaskRepo(openTestDB(t))
	due := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)

	for _, task := range []models.Task{
		{Title: "low", Priority: models.PriorityLow},
		{Title: "high-undated", Priority: models.PriorityHigh},
		{Title: "medium", Priority: models.PriorityMedium},
		{Title: "high-dated", Priority: models.PriorityHigh, DueDate: due},
		{Title: "done", Priority: models.PriorityHigh, Status: models.TaskCompleted},
	} {
		_, err := repo.Create(task)
		require.NoError(t, err)
	}

	all, err := repo.List("")
	require.NoError(t, err)
	assert.Equal(t, []string{"high-dated", "high-undated", "done", "medium", "low"}, taskTitles(all))

	pending, err := repo.List(models.TaskPending)
	require.NoError(t, err)
	assert.Equal(t, []string{"high-dated", "high-undated", "medium", "low"}, taskTitles(pending))
	assert.True(t, pending[0].DueDate.Equal(due))

	n, err := repo.CountByStatus(models.TaskPending)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestTaskRepo_UpdateToggleDelete(t *testing.T) {
	repo := NewTaskRepo(openTestDB(t))
	task, err := repo.Create(models.Task{Title: "Enviar proposta"})
	require.NoError(t, err)

	task.Status = models.TaskInProgress
	task.DealID = "d1"
	require.NoError(t, repo.Update(*task))
	got, err := repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskInProgress, got.Status)
	assert.Equal(t, "d1", got.DealID)

	status, err := repo.ToggleStatus(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskCompleted, status)
	status, err = repo.ToggleStatus(task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskPending, status)

	require.NoError(t, repo.Delete(task.ID))
	got, err = repo.GetByID(task.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = repo.ToggleStatus(task.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSyncEventRepo(t *testing.T) {
	repo := NewSyncEventRepo(openTestDB(t))
	var _ crmsync.Journal = repo

	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(models.SyncEvent{
		Entity: "deal", EntityID: "d1", Action: "move", Message: "Failed to sync move.", RolledBack: true, CreatedAt: base,
	}))
	require.NoError(t, repo.Record(models.SyncEvent{
		Entity: "funnel", EntityID: "f1", Action: "delete", CreatedAt: base.Add(time.Minute),
	}))
	require.NoError(t, repo.Record(models.SyncEvent{Entity: "deal", Action: "create"}))

	n, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	recent, err := repo.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "create", recent[0].Action)
	assert.Equal(t, "f1", recent[1].EntityID)

	all, err := repo.Recent(10)
	require.NoError(t, err)
	assert.True(t, all[2].RolledBack)
	assert.Equal(t, "Failed to sync move.", all[2].Message)
}
