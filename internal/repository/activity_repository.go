package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/procurement-api/internal/models"
)

// ActivityRepository stores the append-only activity log.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create appends an entry. The caller assigns the time-sortable id.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	const query = `INSERT INTO activities (id, action, subject, actor_id, created_at) VALUES (:id, :action, :subject, :actor_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// List returns the newest entries first.
func (r *ActivityRepository) List(ctx context.Context, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT id, action, subject, actor_id, created_at FROM activities ORDER BY id DESC LIMIT %d`, limit)
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query); err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	return activities, nil
}

// DeleteOlderThan prunes entries created before cutoff.
func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM activities WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune activities: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
