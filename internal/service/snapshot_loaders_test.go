package service

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procurement-api/internal/models"
	"github.com/noah-isme/procurement-api/internal/realtime"
)

type loaderRecorder map[string]realtime.Loader

func (r loaderRecorder) Register(collection string, loader realtime.Loader) {
	r[collection] = loader
}

func (r loaderRecorder) load(t *testing.T, path, owner string) interface{} {
	t.Helper()
	segments := splitSegments(path)
	loader, ok := r[segments[0]]
	require.True(t, ok, path)
	data, err := loader(context.Background(), realtime.Query{Path: path, Segments: segments, Owner: owner})
	require.NoError(t, err)
	return data
}

func splitSegments(path string) []string {
	var out []string
	start := 0
	for i := 0; i <= len(path); i++ {
		if i == len(path) || path[i] == '/' {
			if i > start {
				out = append(out, path[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func newSnapshotFixture() loaderRecorder {
	requests := newRequestStoreStub(
		&models.Request{ID: "r1", CreatedBy: "lec", Status: models.StatusPending},
		&models.Request{ID: "r2", CreatedBy: "other", Status: models.StatusPending},
	)
	vendors := newVendorStoreStub(models.Vendor{ID: "v1", Name: "Acme"})
	settings := NewSettingsService(&settingStoreStub{values: map[string]json.RawMessage{
		models.SettingCountdownEnabled: json.RawMessage("true"),
	}}, nil, nil, nil)

	reg := loaderRecorder{}
	RegisterSnapshotLoaders(reg, SnapshotSources{
		Requests:   requests,
		FoodItems:  &foodItemStoreStub{stockStoreStub: newStockStoreStub(models.FoodItem{ID: "f1", Name: "Rice"})},
		Vendors:    vendors,
		Users:      &mockUserRepo{users: map[string]*models.User{"u1": {ID: "u1"}}},
		Activities: NewActivityService(&activityRepoStub{}, nil, 0),
		Settings:   settings,
	})
	return reg
}

func TestSnapshotCollectionsRegistered(t *testing.T) {
	reg := newSnapshotFixture()
	for _, name := range []string{"requests", "foodItems", "vendors", "categories", "users", "activities", "settings"} {
		assert.Contains(t, reg, name)
	}
}

func TestRequestSnapshotsAreOwnerScoped(t *testing.T) {
	reg := newSnapshotFixture()

	all := reg.load(t, "requests", "").([]models.Request)
	assert.Len(t, all, 2)

	own := reg.load(t, "requests", "lec").([]models.Request)
	require.Len(t, own, 1)
	assert.Equal(t, "r1", own[0].ID)

	assert.Nil(t, reg.load(t, "requests/r2", "lec"))
	assert.Nil(t, reg.load(t, "requests/missing", ""))
	assert.Equal(t, "r1", reg.load(t, "requests/r1", "lec").(*models.Request).ID)
}

func TestSettingsAndCategorySnapshots(t *testing.T) {
	reg := newSnapshotFixture()
	assert.Equal(t, map[string]bool{"countdownEnabled": true}, reg.load(t, "settings", ""))
	assert.Equal(t, []models.Category{}, reg.load(t, "categories/v1", ""))
	assert.Equal(t, "Acme", reg.load(t, "vendors/v1", "").(*models.Vendor).Name)
}
