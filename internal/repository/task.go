package repository

import (
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

var ErrTaskTitleRequired = errors.New("task title is required")

type TaskRepo struct {
	db *sql.DB
}

func NewTaskRepo(db *sql.DB) *TaskRepo {
	return &TaskRepo{db: db}
}

const taskColumns = `id, title, description, due_date, priority, status, contact_id, deal_id, created_at`

// priority rank: high, medium, low; then by due date with undated tasks last
const taskOrder = `
	ORDER BY CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 ELSE 2 END,
	         due_date IS NULL, due_date, id`

func (r *TaskRepo) Create(t models.Task) (*models.Task, error) {
	if strings.TrimSpace(t.Title) == "" {
		return nil, ErrTaskTitleRequired
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.Status == "" {
		t.Status = models.TaskPending
	}

	result, err := r.db.Exec(`
		INSERT INTO tasks (title, description, due_date, priority, status, contact_id, deal_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, strings.TrimSpace(t.Title), t.Description, nullTime(t.DueDate), t.Priority, t.Status, t.ContactID, t.DealID)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return r.GetByID(id)
}

func (r *TaskRepo) GetByID(id int64) (*models.Task, error) {
	rows, err := r.db.Query(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks, err := r.scanTasks(rows)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return &tasks[0], nil
}

// List returns the tasks with the given status, or all of them when status
// is empty, high priority first.
func (r *TaskRepo) List(status models.TaskStatus) ([]models.Task, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if status == "" {
		rows, err = r.db.Query(`SELECT ` + taskColumns + ` FROM tasks` + taskOrder)
	} else {
		rows, err = r.db.Query(`SELECT `+taskColumns+` FROM tasks WHERE status = ?`+taskOrder, status)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanTasks(rows)
}

func (r *TaskRepo) Update(t models.Task) error {
	if strings.TrimSpace(t.Title) == "" {
		return ErrTaskTitleRequired
	}
	_, err := r.db.Exec(`
		UPDATE tasks
		SET title = ?, description = ?, due_date = ?, priority = ?, status = ?, contact_id = ?, deal_id = ?
		WHERE id = ?
	`, strings.TrimSpace(t.Title), t.Description, nullTime(t.DueDate), t.Priority, t.Status, t.ContactID, t.DealID, t.ID)
	return err
}

// ToggleStatus flips a task between completed and pending and returns the
// new status.
func (r *TaskRepo) ToggleStatus(id int64) (models.TaskStatus, error) {
	t, err := r.GetByID(id)
	if err != nil {
		return "", err
	}
	if t == nil {
		return "", sql.ErrNoRows
	}

	next := models.TaskCompleted
	if t.Status == models.TaskCompleted {
		next = models.TaskPending
	}
	if _, err := r.db.Exec(`UPDATE tasks SET status = ? WHERE id = ?`, next, id); err != nil {
		return "", err
	}
	return next, nil
}

func (r *TaskRepo) CountByStatus(status models.TaskStatus) (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM tasks WHERE status = ?`, status).Scan(&n)
	return n, err
}

func (r *TaskRepo) Delete(id int64) error {
	_, err := r.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	return err
}

func (r *TaskRepo) scanTasks(rows *sql.Rows) ([]models.Task, error) {
	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		var due sql.NullTime

		if err := rows.Scan(
			&t.ID, &t.Title, &t.Description, &due, &t.Priority, &t.Status, &t.ContactID, &t.DealID, &t.CreatedAt,
		); err != nil {
			return nil, err
		}
		if due.Valid {
			t.DueDate = due.Time
		}

		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
