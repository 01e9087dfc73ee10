package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/procurement-api/internal/models"
)

const requestColumns = `id, created_by, section_a, header_fields, line_items, status, remark, download_link, archived, created_at, updated_at`

// RequestRepository persists item requests.
type RequestRepository struct {
	db *sqlx.DB
}

// NewRequestRepository constructs the repository.
func NewRequestRepository(db *sqlx.DB) *RequestRepository {
	return &RequestRepository{db: db}
}

// Create inserts a request and returns its identifier.
func (r *RequestRepository) Create(ctx context.Context, req *models.Request) (string, error) {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.StatusPending
	}
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	const query = `INSERT INTO requests
	(id, created_by, section_a, header_fields, line_items, status, remark, download_link, archived, created_at, updated_at)
	VALUES (:id, :created_by, :section_a, :header_fields, :line_items, :status, :remark, :download_link, :archived, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, req); err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	return req.ID, nil
}

// GetByID fetches a request by identifier.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*models.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM requests WHERE id = $1`
	var req models.Request
	if err := r.db.GetContext(ctx, &req, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get request: %w", err)
	}
	return &req, nil
}

// List returns requests matching the filter, oldest first so aggregation keeps submission order.
func (r *RequestRepository) List(ctx context.Context, filter models.RequestFilter) ([]models.Request, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 4)
	builder.WriteString(`SELECT ` + requestColumns + ` FROM requests`)

	conditions := make([]string, 0, 3)
	if !filter.IncludeArchived {
		conditions = append(conditions, "archived = FALSE")
	}
	if len(filter.Status) > 0 {
		placeholders := make([]string, len(filter.Status))
		for i, status := range filter.Status {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.CreatedBy != "" {
		args = append(args, filter.CreatedBy)
		conditions = append(conditions, fmt.Sprintf("created_by = $%d", len(args)))
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at ASC")
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		builder.WriteString(fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset))
	}

	var requests []models.Request
	if err := r.db.SelectContext(ctx, &requests, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	return requests, nil
}

// Update applies a partial write. Last writer wins; sql.ErrNoRows for unknown ids.
func (r *RequestRepository) Update(ctx context.Context, id string, upd models.RequestUpdate) error {
	return r.update(ctx, id, upd, "")
}

// UpdateIfStatus applies upd only while the request is still in status from.
// It returns sql.ErrNoRows when the request is missing or has moved on.
func (r *RequestRepository) UpdateIfStatus(ctx context.Context, id string, from models.RequestStatus, upd models.RequestUpdate) error {
	return r.update(ctx, id, upd, from)
}

func (r *RequestRepository) update(ctx context.Context, id string, upd models.RequestUpdate, from models.RequestStatus) error {
	if upd.Empty() {
		return nil
	}
	sets := make([]string, 0, 8)
	args := make([]interface{}, 0, 10)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.SectionA != nil {
		add("section_a", *upd.SectionA)
	}
	if upd.HeaderFields != nil {
		add("header_fields", *upd.HeaderFields)
	}
	if upd.LineItems != nil {
		add("line_items", *upd.LineItems)
	}
	if upd.Status != nil {
		add("status", *upd.Status)
	}
	switch {
	case upd.ClearRemark:
		sets = append(sets, "remark = NULL")
	case upd.Remark != nil:
		add("remark", *upd.Remark)
	}
	if upd.DownloadLink != nil {
		add("download_link", *upd.DownloadLink)
	}
	if upd.Archived != nil {
		add("archived", *upd.Archived)
	}
	add("updated_at", time.Now().UTC())

	args = append(args, id)
	query := fmt.Sprintf("UPDATE requests SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))
	if from != "" {
		args = append(args, from)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update request rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ArchiveByCreator archives every request owned by userID.
func (r *RequestRepository) ArchiveByCreator(ctx context.Context, userID string) (int64, error) {
	const query = `UPDATE requests SET archived = TRUE, updated_at = $2 WHERE created_by = $1 AND archived = FALSE`
	res, err := r.db.ExecContext(ctx, query, userID, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("archive requests: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
