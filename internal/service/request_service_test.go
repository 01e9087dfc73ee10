package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
	"github.com/noah-isme/procurement-api/pkg/jobs"
	"github.com/noah-isme/procurement-api/pkg/storage"
)

type requestStoreStub struct {
	mu        sync.Mutex
	requests  map[string]*models.Request
	createErr error
	updates   []models.RequestUpdate
	filters   []models.RequestFilter
	order     []string
	seq       int
}

func newRequestStoreStub(reqs ...*models.Request) *requestStoreStub {
	s := &requestStoreStub{requests: map[string]*models.Request{}}
	for _, r := range reqs {
		s.requests[r.ID] = r
		s.order = append(s.order, r.ID)
	}
	return s
}

func (s *requestStoreStub) Create(_ context.Context, req *models.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return "", s.createErr
	}
	s.seq++
	id := fmt.Sprintf("r%d", s.seq)
	copy := *req
	copy.ID = id
	s.requests[id] = &copy
	s.order = append(s.order, id)
	return id, nil
}

func (s *requestStoreStub) GetByID(_ context.Context, id string) (*models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.requests[id]; ok {
		copy := *r
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *requestStoreStub) List(_ context.Context, filter models.RequestFilter) ([]models.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filters = append(s.filters, filter)
	wanted := map[models.RequestStatus]bool{}
	for _, st := range filter.Status {
		wanted[st] = true
	}
	var out []models.Request
	for _, id := range s.order {
		r := s.requests[id]
		if len(wanted) > 0 && !wanted[r.Status] {
			continue
		}
		if filter.CreatedBy != "" && r.CreatedBy != filter.CreatedBy {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *requestStoreStub) apply(id string, upd models.RequestUpdate) {
	r := s.requests[id]
	if upd.Status != nil {
		r.Status = *upd.Status
	}
	if upd.Remark != nil {
		remark := *upd.Remark
		r.Remark = &remark
	}
	if upd.ClearRemark {
		r.Remark = nil
	}
	if upd.LineItems != nil {
		r.LineItems = *upd.LineItems
	}
	if upd.SectionA != nil {
		r.SectionA = *upd.SectionA
	}
	if upd.HeaderFields != nil {
		r.HeaderFields = *upd.HeaderFields
	}
	s.updates = append(s.updates, upd)
}

func (s *requestStoreStub) Update(_ context.Context, id string, upd models.RequestUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.requests[id]; !ok {
		return sql.ErrNoRows
	}
	s.apply(id, upd)
	return nil
}

func (s *requestStoreStub) UpdateIfStatus(_ context.Context, id string, from models.RequestStatus, upd models.RequestUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.requests[id]
	if !ok || r.Status != from {
		return sql.ErrNoRows
	}
	s.apply(id, upd)
	return nil
}

type uploadStoreStub struct {
	mu      sync.Mutex
	stored  map[string][]byte
	removed []string
	err     error
}

func (u *uploadStoreStub) Put(name string, r io.Reader) (*storage.StoredFile, error) {
	if u.err != nil {
		return nil, u.err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.stored == nil {
		u.stored = map[string][]byte{}
	}
	u.stored[name] = data
	return &storage.StoredFile{ID: name, Name: name, Path: "uploads/" + name, DownloadURL: "https://api/files/" + name}, nil
}

func (u *uploadStoreStub) Remove(file *storage.StoredFile) error {
	u.removed = append(u.removed, file.Path)
	return nil
}

var lecturer = &models.JWTClaims{UserID: "lect", Role: models.RoleLecturer}

func TestSubmitParsesAndPersists(t *testing.T) {
	store := newRequestStoreStub()
	files := &uploadStoreStub{}
	recorder := &activityRecorderStub{}
	svc := NewRequestService(store, files, recorder, nil, nil)

	req, err := svc.Submit(context.Background(), lecturer, Upload{Name: "form.xlsx", Data: requestWorkbook(t)})
	require.NoError(t, err)

	assert.Equal(t, "r1", req.ID)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Equal(t, "16/07/2023", req.SectionA.DeliveryDate)
	assert.Equal(t, "Campus", req.SectionA.Entity)
	require.Len(t, req.LineItems, 2, "blank row 15 is dropped")
	assert.Equal(t, "Acme", req.LineItems[1].Vendor(), "suggested vendor is filled down")
	require.NotNil(t, req.DownloadLink)
	assert.Equal(t, "https://api/files/form.xlsx", *req.DownloadLink)
	assert.Contains(t, files.stored, "form.xlsx")
	require.Len(t, recorder.entries, 1)
}

func TestSubmitRejectsGarbageWithoutStoring(t *testing.T) {
	files := &uploadStoreStub{}
	svc := NewRequestService(newRequestStoreStub(), files, nil, nil, nil)

	_, err := svc.Submit(context.Background(), lecturer, Upload{Name: "notes.txt", Data: []byte("hello")})
	assert.ErrorIs(t, err, appErrors.ErrParse)
	assert.Empty(t, files.stored)
}

func TestSubmitRemovesUploadWhenSaveFails(t *testing.T) {
	store := newRequestStoreStub()
	store.createErr = errors.New("db down")
	files := &uploadStoreStub{}
	svc := NewRequestService(store, files, nil, nil, nil)

	_, err := svc.Submit(context.Background(), lecturer, Upload{Name: "form.xlsx", Data: requestWorkbook(t)})
	assert.ErrorIs(t, err, appErrors.ErrUpstream)
	assert.Equal(t, []string{"uploads/form.xlsx"}, files.removed)
}

func TestSubmitBatchThroughQueue(t *testing.T) {
	store := newRequestStoreStub()
	svc := NewRequestService(store, &uploadStoreStub{}, nil, nil, nil)
	queue := jobs.NewQueue("submissions", svc.HandleSubmission, jobs.QueueConfig{Workers: 2})
	queue.Start(context.Background())
	defer queue.Stop()
	svc.UseQueue(queue)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	results, err := svc.SubmitBatch(ctx, lecturer, []Upload{
		{Name: "a.xlsx", Data: requestWorkbook(t)},
		{Name: "bad.xlsx", Data: []byte("nope")},
		{Name: "b.xlsx", Data: requestWorkbook(t)},
	})
	require.NoError(t, err)
	require.Len(t, results, 3)

	byFile := map[string]dto.SubmitResult{}
	for _, r := range results {
		byFile[r.File] = r
	}
	assert.NotEmpty(t, byFile["a.xlsx"].RequestID)
	assert.NotEmpty(t, byFile["b.xlsx"].RequestID)
	assert.NotEmpty(t, byFile["bad.xlsx"].Error)
	assert.Len(t, store.requests, 2)
}

func TestSubmitBatchReportsStoppedQueue(t *testing.T) {
	store := newRequestStoreStub()
	svc := NewRequestService(store, &uploadStoreStub{}, nil, nil, nil)
	svc.UseQueue(jobs.NewQueue("submissions", svc.HandleSubmission, jobs.QueueConfig{}))

	results, err := svc.SubmitBatch(context.Background(), lecturer, []Upload{{Name: "a.xlsx", Data: requestWorkbook(t)}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, dto.SubmitResult{File: "a.xlsx", Error: "submission queue unavailable"}, results[0])
	assert.Empty(t, store.requests)
}

func TestLecturerSeesOnlyOwnRequests(t *testing.T) {
	store := newRequestStoreStub(&models.Request{ID: "r1", CreatedBy: "someone-else", Status: models.StatusPending})
	svc := NewRequestService(store, &uploadStoreStub{}, nil, nil, nil)

	_, err := svc.Get(context.Background(), lecturer, "r1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Get(context.Background(), &models.JWTClaims{UserID: "adm", Role: models.RoleAdmin}, "r1")
	assert.NoError(t, err)

	_, err = svc.List(context.Background(), lecturer, dto.RequestListQuery{IncludeArchived: true})
	require.NoError(t, err)
	require.Len(t, store.filters, 1)
	assert.Equal(t, "lect", store.filters[0].CreatedBy)
	assert.False(t, store.filters[0].IncludeArchived)
}

func TestResubmitReturnsToPending(t *testing.T) {
	remark := "too expensive"
	store := newRequestStoreStub(&models.Request{ID: "r1", CreatedBy: "lect", Status: models.StatusAdminDisapproved, Remark: &remark})
	svc := NewRequestService(store, &uploadStoreStub{}, nil, nil, nil)

	items := models.LineItems{{"Item": "Pencil", "Quantity": nil}}
	req, err := svc.Resubmit(context.Background(), lecturer, "r1", dto.ResubmitRequest{LineItems: &items})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, req.Status)
	assert.Nil(t, req.Remark)
	assert.Equal(t, "", req.LineItems[0]["Quantity"])

	assert.Nil(t, store.updates[0].HeaderFields)

	other := &models.JWTClaims{UserID: "adm", Role: models.RoleAdmin}
	_, err = svc.Resubmit(context.Background(), other, "r1", dto.ResubmitRequest{})
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestResubmitKeepsHeaderFieldsInStep(t *testing.T) {
	store := newRequestStoreStub(&models.Request{
		ID:        "r1",
		CreatedBy: "lect",
		Status:    models.StatusAdminDisapproved,
		HeaderFields: models.HeaderFields{
			{Label: "Delivery Date", Value: "16/07/2023"},
			{Label: "Project", Value: "Open Day"},
		},
	})
	svc := NewRequestService(store, &uploadStoreStub{}, nil, nil, nil)

	edited := models.SectionA{DeliveryDate: "20/07/2023", Project: "Open Day", Requester: "Dr. Lim"}
	req, err := svc.Resubmit(context.Background(), lecturer, "r1", dto.ResubmitRequest{SectionA: &edited})
	require.NoError(t, err)
	assert.Equal(t, edited, req.SectionA)
	require.Len(t, req.HeaderFields, 6)
	assert.Equal(t, models.HeaderField{Label: "Delivery Date", Value: "20/07/2023"}, req.HeaderFields[0])
	assert.Equal(t, models.HeaderField{Label: "Requester", Value: "Dr. Lim"}, req.HeaderFields[2])
	assert.Equal(t, models.HeaderField{Label: "Entity", Value: ""}, req.HeaderFields[5])
	assert.Equal(t, edited, SectionAFromFields(req.HeaderFields))
}
