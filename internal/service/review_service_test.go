package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procurement-api/internal/dto"
	"github.com/noah-isme/procurement-api/internal/models"
	appErrors "github.com/noah-isme/procurement-api/pkg/errors"
)

type decisionNotifierStub struct {
	recipients []string
	statuses   []models.RequestStatus
	err        error
}

func (n *decisionNotifierStub) NotifyDecision(_ context.Context, recipient string, req *models.Request) error {
	n.recipients = append(n.recipients, recipient)
	n.statuses = append(n.statuses, req.Status)
	return n.err
}

var adminActor = &models.JWTClaims{UserID: "adm", Role: models.RoleAdmin}

func newReviewFixture(reqs ...*models.Request) (*ReviewService, *requestStoreStub, *decisionNotifierStub, *activityRecorderStub) {
	store := newRequestStoreStub(reqs...)
	users := &mockUserRepo{users: map[string]*models.User{"lect": {ID: "lect", Email: "lect@example.com"}}}
	notifier := &decisionNotifierStub{}
	recorder := &activityRecorderStub{}
	return NewReviewService(store, users, notifier, recorder, nil, nil, nil), store, notifier, recorder
}

func TestApprovePendingRequest(t *testing.T) {
	svc, _, notifier, recorder := newReviewFixture(&models.Request{ID: "r1", CreatedBy: "lect", Status: models.StatusPending})

	req, err := svc.Approve(context.Background(), adminActor, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAdminApproved, req.Status)
	assert.Equal(t, []string{"lect@example.com"}, notifier.recipients)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, models.ActivityEdit, recorder.entries[0].Action)
}

func TestRejectRequiresRemark(t *testing.T) {
	svc, store, _, _ := newReviewFixture(&models.Request{ID: "r1", CreatedBy: "lect", Status: models.StatusPending})

	_, err := svc.Reject(context.Background(), adminActor, "r1", dto.RejectRequest{Remark: "   "})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
	assert.Empty(t, store.updates)

	req, err := svc.Reject(context.Background(), adminActor, "r1", dto.RejectRequest{Remark: " over budget "})
	require.NoError(t, err)
	assert.Equal(t, models.StatusAdminDisapproved, req.Status)
	require.NotNil(t, req.Remark)
	assert.Equal(t, "over budget", *req.Remark)
}

func TestReviewingNonPendingConflicts(t *testing.T) {
	svc, _, notifier, _ := newReviewFixture(&models.Request{ID: "r1", CreatedBy: "lect", Status: models.StatusAdminApproved})

	_, err := svc.Reject(context.Background(), adminActor, "r1", dto.RejectRequest{Remark: "late"})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, notifier.recipients)

	_, err = svc.Approve(context.Background(), adminActor, "missing")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReviewRequiresAdmin(t *testing.T) {
	svc, _, _, _ := newReviewFixture(&models.Request{ID: "r1", CreatedBy: "lect", Status: models.StatusPending})
	_, err := svc.Approve(context.Background(), lecturer, "r1")
	assert.ErrorIs(t, err, appErrors.ErrForbidden)
}

func TestDecisionSurvivesEmailFailure(t *testing.T) {
	svc, store, notifier, _ := newReviewFixture(&models.Request{ID: "r1", CreatedBy: "lect", Status: models.StatusPending})
	notifier.err = errors.New("smtp down")

	req, err := svc.Approve(context.Background(), adminActor, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAdminApproved, req.Status)
	assert.Equal(t, models.StatusAdminApproved, store.requests["r1"].Status)
}
