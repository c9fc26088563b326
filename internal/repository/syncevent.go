package repository

import (
	"database/sql"

	"github.com/gabrielrodrigueslb/lintra/internal/models"
)

// SyncEventRepo is the journal of remote writes that failed.
type SyncEventRepo struct {
	db *sql.DB
}

func NewSyncEventRepo(db *sql.DB) *SyncEventRepo {
	return &SyncEventRepo{db: db}
}

func (r *SyncEventRepo) Record(ev models.SyncEvent) error {
	if ev.CreatedAt.IsZero() {
		_, err := r.db.Exec(`
			INSERT INTO sync_events (entity, entity_id, action, message, rolled_back)
			VALUES (?, ?, ?, ?, ?)
		`, ev.Entity, ev.EntityID, ev.Action, ev.Message, ev.RolledBack)
		return err
	}
	_, err := r.db.Exec(`
		INSERT INTO sync_events (entity, entity_id, action, message, rolled_back, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, ev.Entity, ev.EntityID, ev.Action, ev.Message, ev.RolledBack, ev.CreatedAt)
	return err
}

// Recent returns up to limit events, newest first.
func (r *SyncEventRepo) Recent(limit int) ([]models.SyncEvent, error) {
	rows, err := r.db.Query(`
		SELECT id, entity, entity_id, action, message, rolled_back, created_at
		FROM sync_events
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []models.SyncEvent
	for rows.Next() {
		var ev models.SyncEvent
		if err := rows.Scan(
			&ev.ID, &ev.Entity, &ev.EntityID, &ev.Action, &ev.Message, &ev.RolledBack, &ev.CreatedAt,
		); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *SyncEventRepo) Count() (int, error) {
	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM sync_events`).Scan(&n)
	return n, err
}
