package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/procurement-api/internal/models"
)

var requestRowColumns = []string{"id", "created_by", "section_a", "header_fields", "line_items", "status", "remark", "download_link", "archived", "created_at", "updated_at"}

func TestCreateRequest(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectExec("INSERT INTO requests").WillReturnResult(sqlmock.NewResult(1, 1))

	id, err := repo.Create(context.Background(), &models.Request{
		CreatedBy: "u1",
		LineItems: models.LineItems{{"Item": "Pencil", "Quantity": float64(10)}},
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetRequestDecodesJSONColumns(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(requestRowColumns).AddRow(
		"r1", "u1",
		[]byte(`{"deliveryDate":"16/07/2023","project":"Open Day","requester":"Dr. Lim","picContact":"0812","department":"CS","entity":"Campus"}`),
		[]byte(`[{"label":"Delivery Date","value":"16/07/2023"}]`),
		[]byte(`[{"Item":"Pencil","Quantity":10}]`),
		string(models.StatusPending), nil, nil, false, now, now,
	)
	mock.ExpectQuery(regexp.QuoteMeta("FROM requests WHERE id = $1")).WithArgs("r1").WillReturnRows(rows)

	req, err := repo.GetByID(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, "Dr. Lim", req.SectionA.Requester)
	require.Len(t, req.LineItems, 1)
	assert.Equal(t, "Pencil", req.LineItems[0].Description())
	qty, ok := req.LineItems[0].Quantity()
	require.True(t, ok)
	assert.Equal(t, float64(10), qty)
	assert.Nil(t, req.Remark)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListRequestsByStatus(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM requests WHERE archived = FALSE AND status IN ($1) ORDER BY created_at ASC")).
		WithArgs(models.StatusAdminApproved).
		WillReturnRows(sqlmock.NewRows(requestRowColumns))

	out, err := repo.List(context.Background(), models.RequestFilter{Status: []models.RequestStatus{models.StatusAdminApproved}})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateIfStatusGuardsTransition(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	status := models.StatusAdminDisapproved
	remark := "insufficient budget"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = $1, remark = $2, updated_at = $3 WHERE id = $4 AND status = $5")).
		WithArgs(status, remark, sqlmock.AnyArg(), "r1", models.StatusPending).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateIfStatus(context.Background(), "r1", models.StatusPending, models.RequestUpdate{Status: &status, Remark: &remark})
	require.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateClearsRemark(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	status := models.StatusPending
	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET status = $1, remark = NULL, updated_at = $2 WHERE id = $3")).
		WithArgs(status, sqlmock.AnyArg(), "r1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Update(context.Background(), "r1", models.RequestUpdate{Status: &status, ClearRemark: true}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveByCreator(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewRequestRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE requests SET archived = TRUE")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.ArchiveByCreator(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
