package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/internal/realtime"
)

const (
	snapshotActivityLimit = 100
	snapshotUserLimit     = 1000
)

type loaderRegistry interface {
	Register(collection string, loader realtime.Loader)
}

type activityLister interface {
	List(ctx context.Context, limit int) ([]models.Activity, error)
}

type countdownReader interface {
	Countdown(ctx context.Context) (bool, error)
}

// SnapshotSources are the stores the realtime collections are read from.
type SnapshotSources struct {
	Requests   requestStore
	FoodItems  foodItemStore
	Vendors    vendorStore
	Users      userRepository
	Activities activityLister
	Settings   countdownReader
}

// RegisterSnapshotLoaders binds every subscribable collection to the hub.
func RegisterSnapshotLoaders(hub loaderRegistry, src SnapshotSources) {
	hub.Register("requests", src.requests)
	hub.Register("foodItems", src.foodItems)
	hub.Register("vendors", src.vendors)
	hub.Register("categories", src.categories)
	hub.Register("users", src.users)
	hub.Register("activities", src.activities)
	hub.Register("settings", src.settings)
}

func (src SnapshotSources) requests(ctx context.Context, q realtime.Query) (interface{}, error) {
	if len(q.Segments) > 1 {
		req, err := src.Requests.GetByID(ctx, q.Segments[1])
		if err != nil {
			return missing(err)
		}
		if q.Owner != "" && req.CreatedBy != q.Owner {
			return nil, nil
		}
		return req, nil
	}
	return src.Requests.List(ctx, models.RequestFilter{CreatedBy: q.Owner})
}

func (src SnapshotSources) foodItems(ctx context.Context, q realtime.Query) (interface{}, error) {
	if len(q.Segments) > 1 {
		item, err := src.FoodItems.GetByID(ctx, q.Segments[1])
		if err != nil {
			return missing(err)
		}
		return item, nil
	}
	return src.FoodItems.List(ctx, models.FoodItemFilter{})
}

func (src SnapshotSources) vendors(ctx context.Context, q realtime.Query) (interface{}, error) {
	if len(q.Segments) > 1 {
		vendor, err := src.Vendors.GetByID(ctx, q.Segments[1])
		if err != nil {
			return missing(err)
		}
		return vendor, nil
	}
	return src.Vendors.List(ctx)
}

func (src SnapshotSources) categories(ctx context.Context, q realtime.Query) (interface{}, error) {
	if len(q.Segments) < 2 {
		return nil, fmt.Errorf("categories need a vendor id")
	}
	categories, err := src.Vendors.ListCategories(ctx, q.Segments[1])
	if err != nil {
		return nil, err
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

func (src SnapshotSources) users(ctx context.Context, q realtime.Query) (interface{}, error) {
	if len(q.Segments) > 1 {
		user, err := src.Users.FindByID(ctx, q.Segments[1])
		if err != nil {
			return missing(err)
		}
		return user, nil
	}
	users, _, err := src.Users.List(ctx, models.UserFilter{Page: 1, PageSize: snapshotUserLimit})
	return users, err
}

func (src SnapshotSources) activities(ctx context.Context, _ realtime.Query) (interface{}, error) {
	return src.Activities.List(ctx, snapshotActivityLimit)
}

func (src SnapshotSources) settings(ctx context.Context, _ realtime.Query) (interface{}, error) {
	enabled, err := src.Settings.Countdown(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]bool{models.SettingCountdownEnabled: enabled}, nil
}

func missing(err error) (interface{}, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return nil, err
}
