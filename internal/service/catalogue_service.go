package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/spreadsheet"
)

type vendorStore interface {
	List(ctx context.Context) ([]models.Vendor, error)
	GetByID(ctx context.Context, id string) (*models.Vendor, error)
	Create(ctx context.Context, vendor *models.Vendor) error
	Update(ctx context.Context, vendor *models.Vendor) error
	ListCategories(ctx context.Context, vendorID string) ([]models.Category, error)
	GetCategory(ctx context.Context, id string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
}

type foodItemStore interface {
	List(ctx context.Context, filter models.FoodItemFilter) ([]models.FoodItem, error)
	GetByID(ctx context.Context, id string) (*models.FoodItem, error)
	Create(ctx context.Context, item *models.FoodItem) error
	CreateBatch(ctx context.Context, items []models.FoodItem) error
	Update(ctx context.Context, id string, upd models.FoodItemUpdate) error
}

// CatalogueService manages vendors, their categories and food items.
type CatalogueService struct {
	vendors    vendorStore
	items      foodItemStore
	cache      *CacheService
	activities ActivityRecorder
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewCatalogueService constructs the service. cache may be nil.
func NewCatalogueService(vendors vendorStore, items foodItemStore, cache *CacheService, activities ActivityRecorder, validate *validator.Validate, logger *zap.Logger) *CatalogueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CatalogueService{vendors: vendors, items: items, cache: cache, activities: activities, validator: validate, logger: logger}
}

// ListVendors returns every vendor ordered by name.
func (s *CatalogueService) ListVendors(ctx context.Context) ([]models.Vendor, error) {
	vendors, err := remember(ctx, s.cache, vendorsKey, func() ([]models.Vendor, error) {
		return s.vendors.List(ctx)
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list vendors")
	}
	return vendors, nil
}

// GetVendor fetches one vendor.
func (s *CatalogueService) GetVendor(ctx context.Context, id string) (*models.Vendor, error) {
	vendor, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "vendor not found", "failed to load vendor")
	}
	return vendor, nil
}

// CreateVendor registers a vendor.
func (s *CatalogueService) CreateVendor(ctx context.Context, actor *models.JWTClaims, req dto.VendorRequest) (*models.Vendor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vendor payload")
	}
	vendor := &models.Vendor{Name: strings.TrimSpace(req.Name), Email: strings.TrimSpace(req.Email)}
	if err := s.vendors.Create(ctx, vendor); err != nil {
		return nil, appErrors.Internal(err, "failed to create vendor")
	}
	s.changed(ctx, actor, models.ActivityAdd, "Vendor "+vendor.Name)
	return vendor, nil
}

// UpdateVendor renames a vendor or changes its email.
func (s *CatalogueService) UpdateVendor(ctx context.Context, actor *models.JWTClaims, id string, req dto.VendorRequest) (*models.Vendor, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid vendor payload")
	}
	vendor, err := s.vendors.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "vendor not found", "failed to load vendor")
	}
	vendor.Name = strings.TrimSpace(req.Name)
	vendor.Email = strings.TrimSpace(req.Email)
	if err := s.vendors.Update(ctx, vendor); err != nil {
		return nil, notFoundOr(err, "vendor not found", "failed to update vendor")
	}
	s.changed(ctx, actor, models.ActivityEdit, "Vendor "+vendor.Name)
	return vendor, nil
}

// ListCategories returns the categories of a vendor.
func (s *CatalogueService) ListCategories(ctx context.Context, vendorID string) ([]models.Category, error) {
	categories, err := remember(ctx, s.cache, categoriesKey(vendorID), func() ([]models.Category, error) {
		return s.vendors.ListCategories(ctx, vendorID)
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list categories")
	}
	return categories, nil
}

// CreateCategory adds a category under an existing vendor.
func (s *CatalogueService) CreateCategory(ctx context.Context, actor *models.JWTClaims, vendorID string, req dto.CategoryRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	if _, err := s.vendors.GetByID(ctx, vendorID); err != nil {
		return nil, notFoundOr(err, "vendor not found", "failed to load vendor")
	}
	category := &models.Category{VendorID: vendorID, Name: strings.TrimSpace(req.Name)}
	if err := s.vendors.CreateCategory(ctx, category); err != nil {
		return nil, appErrors.Internal(err, "failed to create category")
	}
	s.changed(ctx, actor, models.ActivityAdd, "Category "+category.Name)
	return category, nil
}

// ListFoodItems lists food items matching filter.
func (s *CatalogueService) ListFoodItems(ctx context.Context, filter models.FoodItemFilter) ([]models.FoodItem, error) {
	items, err := remember(ctx, s.cache, foodItemsKey(filter), func() ([]models.FoodItem, error) {
		return s.items.List(ctx, filter)
	})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list food items")
	}
	return items, nil
}

// GetFoodItem fetches one food item.
func (s *CatalogueService) GetFoodItem(ctx context.Context, id string) (*models.FoodItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "food item not found", "failed to load food item")
	}
	return item, nil
}

// CreateFoodItem adds one food item.
func (s *CatalogueService) CreateFoodItem(ctx context.Context, actor *models.JWTClaims, req dto.FoodItemRequest) (*models.FoodItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid food item payload")
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	item := &models.FoodItem{
		Name:       strings.TrimSpace(req.Name),
		Unit:       strings.TrimSpace(req.Unit),
		Stock:      req.Stock,
		Vendor:     strings.TrimSpace(req.Vendor),
		CategoryID: req.CategoryID,
	}
	if err := s.items.Create(ctx, item); err != nil {
		return nil, appErrors.Internal(err, "failed to create food item")
	}
	s.changed(ctx, actor, models.ActivityAdd, "Item "+item.Name)
	return item, nil
}

// UpdateFoodItem edits a food item. Setting archived hides it from stock matching and listings.
func (s *CatalogueService) UpdateFoodItem(ctx context.Context, actor *models.JWTClaims, id string, req dto.FoodItemPatch) (*models.FoodItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid food item payload")
	}
	if err := s.checkCategory(ctx, req.CategoryID); err != nil {
		return nil, err
	}
	upd := models.FoodItemUpdate{
		Name:       trimmed(req.Name),
		Unit:       trimmed(req.Unit),
		Vendor:     trimmed(req.Vendor),
		CategoryID: req.CategoryID,
		Archived:   req.Archived,
	}
	if err := s.items.Update(ctx, id, upd); err != nil {
		return nil, notFoundOr(err, "food item not found", "failed to update food item")
	}
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "food item not found", "failed to load food item")
	}
	action := models.ActivityEdit
	if req.Archived != nil && *req.Archived {
		action = models.ActivityArchive
	}
	s.changed(ctx, actor, action, "Item "+item.Name)
	return item, nil
}

// ImportMarketList creates food items from every sheet of a market-list workbook. The vendor
// is the row's Vendor cell, or the sheet name when blank. Rows without an item name, or whose
// name already exists for that vendor, are skipped.
func (s *CatalogueService) ImportMarketList(ctx context.Context, actor *models.JWTClaims, r io.Reader) (*dto.MarketListResult, error) {
	sheets, err := spreadsheet.ParseMarketList(r)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrParse.Code, appErrors.ErrParse.Status, "could not parse market list")
	}

	existing, err := s.items.List(ctx, models.FoodItemFilter{IncludeArchived: true})
	if err != nil {
		return nil, appErrors.Internal(err, "failed to list food items")
	}
	seen := make(map[string]struct{}, len(existing))
	for _, item := range existing {
		seen[item.Vendor+"\x00"+item.Name] = struct{}{}
	}

	result := &dto.MarketListResult{SheetNames: []string{}}
	vendors := map[string]struct{}{}
	var batch []models.FoodItem
	for _, sheet := range sheets {
		result.SheetNames = append(result.SheetNames, sheet.Name)
		for _, row := range sheet.Data {
			name := strings.TrimSpace(spreadsheet.Text(row[spreadsheet.ColumnItems]))
			vendor := strings.TrimSpace(spreadsheet.Text(row[spreadsheet.ColumnVendor]))
			if vendor == "" {
				vendor = sheet.Name
			}
			key := vendor + "\x00" + name
			if _, dup := seen[key]; name == "" || dup {
				result.Skipped++
				continue
			}
			seen[key] = struct{}{}
			vendors[vendor] = struct{}{}

			stock := 0
			if qty, ok := spreadsheet.Number(row[spreadsheet.ColumnStocks]); ok && qty > 0 {
				stock = int(math.Round(qty))
			}
			batch = append(batch, models.FoodItem{
				Name:   name,
				Unit:   strings.TrimSpace(spreadsheet.Text(row[spreadsheet.ColumnUnit])),
				Stock:  stock,
				Vendor: vendor,
			})
		}
	}

	if err := s.items.CreateBatch(ctx, batch); err != nil {
		return nil, appErrors.Internal(err, "failed to import market list")
	}
	result.Items = len(batch)
	result.Vendors = len(vendors)
	if len(batch) > 0 {
		s.changed(ctx, actor, models.ActivityAdd, fmt.Sprintf("%d items from market list", len(batch)))
	}
	return result, nil
}

func (s *CatalogueService) checkCategory(ctx context.Context, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	if _, err := s.vendors.GetCategory(ctx, *id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrValidation, "unknown category")
		}
		return appErrors.Internal(err, "failed to load category")
	}
	return nil
}

func (s *CatalogueService) changed(ctx context.Context, actor *models.JWTClaims, action models.ActivityAction, subject string) {
	_ = s.cache.Invalidate(ctx, cataloguePattern)
	if s.activities == nil {
		return
	}
	actorID := ""
	if actor != nil {
		actorID = actor.UserID
	}
	s.activities.Record(ctx, action, subject, actorID)
}

func notFoundOr(err error, notFound, internal string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrNotFound, notFound)
	}
	return appErrors.Internal(err, internal)
}

func trimmed(v *string) *string {
	if v == nil {
		return nil
	}
	t := strings.TrimSpace(*v)
	return &t
}
