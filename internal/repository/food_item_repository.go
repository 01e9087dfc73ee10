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

const foodItemColumns = `id, name, unit, stock, vendor, category_id, archived, created_at, updated_at`

// FoodItemRepository persists stock-keeping units.
type FoodItemRepository struct {
	db *sqlx.DB
}

// NewFoodItemRepository constructs the repository.
func NewFoodItemRepository(db *sqlx.DB) *FoodItemRepository {
	return &FoodItemRepository{db: db}
}

// List returns food items matching filter, ordered by vendor then name.
func (r *FoodItemRepository) List(ctx context.Context, filter models.FoodItemFilter) ([]models.FoodItem, error) {
	conditions := make([]string, 0, 3)
	args := make([]interface{}, 0, 2)
	if !filter.IncludeArchived {
		conditions = append(conditions, "archived = FALSE")
	}
	if filter.Vendor != "" {
		args = append(args, filter.Vendor)
		conditions = append(conditions, fmt.Sprintf("vendor = $%d", len(args)))
	}
	if filter.CategoryID != "" {
		args = append(args, filter.CategoryID)
		conditions = append(conditions, fmt.Sprintf("category_id = $%d", len(args)))
	}
	query := `SELECT ` + foodItemColumns + ` FROM food_items`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY vendor ASC, name ASC"

	var items []models.FoodItem
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list food items: %w", err)
	}
	return items, nil
}

// GetByID fetches one food item.
func (r *FoodItemRepository) GetByID(ctx context.Context, id string) (*models.FoodItem, error) {
	query := `SELECT ` + foodItemColumns + ` FROM food_items WHERE id = $1`
	var item models.FoodItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get food item: %w", err)
	}
	return &item, nil
}

// Create inserts a food item.
func (r *FoodItemRepository) Create(ctx context.Context, item *models.FoodItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	const query = `INSERT INTO food_items (id, name, unit, stock, vendor, category_id, archived, created_at, updated_at)
	VALUES (:id, :name, :unit, :stock, :vendor, :category_id, :archived, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create food item: %w", err)
	}
	return nil
}

// CreateBatch inserts many items in one transaction.
func (r *FoodItemRepository) CreateBatch(ctx context.Context, items []models.FoodItem) error {
	if len(items) == 0 {
		return nil
	}
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin food item batch: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const query = `INSERT INTO food_items (id, name, unit, stock, vendor, category_id, archived, created_at, updated_at)
	VALUES (:id, :name, :unit, :stock, :vendor, :category_id, :archived, :created_at, :updated_at)`
	now := time.Now().UTC()
	for i := range items {
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
		items[i].CreatedAt, items[i].UpdatedAt = now, now
		if _, err := tx.NamedExecContext(ctx, query, &items[i]); err != nil {
			return fmt.Errorf("insert food item %q: %w", items[i].Name, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit food item batch: %w", err)
	}
	return nil
}

// Update writes the non-nil fields of upd.
func (r *FoodItemRepository) Update(ctx context.Context, id string, upd models.FoodItemUpdate) error {
	sets := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	add := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if upd.Name != nil {
		add("name", *upd.Name)
	}
	if upd.Unit != nil {
		add("unit", *upd.Unit)
	}
	if upd.Vendor != nil {
		add("vendor", *upd.Vendor)
	}
	if upd.CategoryID != nil {
		add("category_id", *upd.CategoryID)
	}
	if upd.Archived != nil {
		add("archived", *upd.Archived)
	}
	if len(sets) == 0 {
		return nil
	}
	add("updated_at", time.Now().UTC())
	args = append(args, id)
	query := fmt.Sprintf("UPDATE food_items SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args))

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update food item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// SetStock writes an absolute stock value.
func (r *FoodItemRepository) SetStock(ctx context.Context, id string, stock int) (int, error) {
	const query = `UPDATE food_items SET stock = $2, updated_at = $3 WHERE id = $1 RETURNING stock`
	var updated int
	if err := r.db.GetContext(ctx, &updated, query, id, stock, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, fmt.Errorf("set stock: %w", err)
	}
	return updated, nil
}

// AdjustStock adds delta to one item in a single statement, clamping at zero.
func (r *FoodItemRepository) AdjustStock(ctx context.Context, id string, delta int) (int, error) {
	const query = `UPDATE food_items SET stock = GREATEST(stock + $2, 0), updated_at = $3 WHERE id = $1 RETURNING stock`
	var updated int
	if err := r.db.GetContext(ctx, &updated, query, id, delta, time.Now().UTC()); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, err
		}
		return 0, fmt.Errorf("adjust stock: %w", err)
	}
	return updated, nil
}

// StockChange is the post-adjustment stock of one matched item.
type StockChange struct {
	ID    string `db:"id"`
	Stock int    `db:"stock"`
}

// AdjustStockByName adds delta to every non-archived item named exactly name, clamping at zero.
// An empty result means no item matched.
func (r *FoodItemRepository) AdjustStockByName(ctx context.Context, name string, delta int) ([]StockChange, error) {
	const query = `UPDATE food_items SET stock = GREATEST(stock + $2, 0), updated_at = $3
	WHERE name = $1 AND archived = FALSE RETURNING id, stock`
	var changes []StockChange
	if err := r.db.SelectContext(ctx, &changes, query, name, delta, time.Now().UTC()); err != nil {
		return nil, fmt.Errorf("adjust stock by name: %w", err)
	}
	return changes, nil
}
