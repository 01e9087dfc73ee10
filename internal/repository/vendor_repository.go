package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/procurement-api/internal/models"
)

// VendorRepository persists vendors and their categories.
type VendorRepository struct {
	db *sqlx.DB
}

// NewVendorRepository constructs the repository.
func NewVendorRepository(db *sqlx.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// List returns every vendor ordered by name.
func (r *VendorRepository) List(ctx context.Context) ([]models.Vendor, error) {
	const query = `SELECT id, name, email, created_at, updated_at FROM vendors ORDER BY name ASC`
	var vendors []models.Vendor
	if err := r.db.SelectContext(ctx, &vendors, query); err != nil {
		return nil, fmt.Errorf("list vendors: %w", err)
	}
	return vendors, nil
}

// GetByID fetches a vendor.
func (r *VendorRepository) GetByID(ctx context.Context, id string) (*models.Vendor, error) {
	const query = `SELECT id, name, email, created_at, updated_at FROM vendors WHERE id = $1`
	var vendor models.Vendor
	if err := r.db.GetContext(ctx, &vendor, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get vendor: %w", err)
	}
	return &vendor, nil
}

// Create inserts a vendor.
func (r *VendorRepository) Create(ctx context.Context, vendor *models.Vendor) error {
	if vendor.ID == "" {
		vendor.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	vendor.CreatedAt, vendor.UpdatedAt = now, now
	const query = `INSERT INTO vendors (id, name, email, created_at, updated_at) VALUES (:id, :name, :email, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, vendor); err != nil {
		return fmt.Errorf("create vendor: %w", err)
	}
	return nil
}

// Update rewrites a vendor's name and email.
func (r *VendorRepository) Update(ctx context.Context, vendor *models.Vendor) error {
	vendor.UpdatedAt = time.Now().UTC()
	const query = `UPDATE vendors SET name = :name, email = :email, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, vendor)
	if err != nil {
		return fmt.Errorf("update vendor: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListCategories returns the categories owned by vendorID.
func (r *VendorRepository) ListCategories(ctx context.Context, vendorID string) ([]models.Category, error) {
	const query = `SELECT id, vendor_id, name, created_at FROM categories WHERE vendor_id = $1 ORDER BY name ASC`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query, vendorID); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// GetCategory fetches a category by identifier.
func (r *VendorRepository) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	const query = `SELECT id, vendor_id, name, created_at FROM categories WHERE id = $1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// CreateCategory inserts a category under its vendor.
func (r *VendorRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	category.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO categories (id, vendor_id, name, created_at) VALUES (:id, :vendor_id, :name, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}
