package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/makeups-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	cleanup := func() {
		_ = sqlxDB.Close()
		db.Close()
	}
	return sqlxDB, mock, cleanup
}

var makeupRequestRowColumns = []string{
	"id", "name", "id_number", "email", "course_code", "eval_component", "reason",
	"submitted_at", "status", "faculty_remarks", "decided_at", "decided_by",
}

func TestMakeupRequestRepositoryListByCourseAndStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMakeupRequestRepository(db)

	submitted := time.Date(2024, 3, 4, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows(makeupRequestRowColumns).
		AddRow("req-2", "Asha", "2021A7PS0001", "asha@example.edu", "PHY101", "Physics Midsem", "Fever", submitted, "Pending", nil, nil, nil).
		AddRow("req-1", "Ravi", "2021A7PS0002", "ravi@example.edu", "PHY101", "Quiz 1", nil, submitted.Add(-time.Hour), "Pending", nil, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM makeup_requests mr\nWHERE mr.course_code = $1 AND mr.status = $2")).
		WithArgs("PHY101", "Pending", "ic@example.edu").
		WillReturnRows(rows)

	requests, err := repo.ListByCourseAndStatus(context.Background(), "ic@example.edu", "PHY101", models.RequestStatusPending)
	require.NoError(t, err)
	require.Len(t, requests, 2)
	assert.Equal(t, "req-2", requests[0].ID)
	require.NotNil(t, requests[0].Reason)
	assert.Equal(t, "Fever", *requests[0].Reason)
	assert.Nil(t, requests[1].Reason)
	assert.Equal(t, models.RequestStatusPending, requests[1].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMakeupRequestRepositoryListError(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMakeupRequestRepository(db)

	mock.ExpectQuery("SELECT").WillReturnError(errors.New("connection reset"))

	_, err := repo.ListByCourseAndStatus(context.Background(), "ic@example.edu", "PHY101", models.RequestStatusDenied)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "list makeup requests")
}

func TestMakeupRequestRepositoryGetByIDNotVisible(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMakeupRequestRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE mr.id = $1")).
		WithArgs("req-9", "ic@example.edu").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ic@example.edu", "req-9")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestMakeupRequestRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMakeupRequestRepository(db)

	decidedAt := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	remarks := "Bring the medical certificate"

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("req-1", "ic@example.edu").
		WillReturnRows(sqlmock.NewRows(makeupRequestRowColumns).
			AddRow("req-1", "Ravi", "2021A7PS0002", "ravi@example.edu", "PHY101", "Quiz 1", nil, decidedAt.Add(-24*time.Hour), "Pending", nil, nil, nil))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE makeup_requests")).
		WithArgs("Accepted", remarks, decidedAt, "ic@example.edu", "req-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	previous, err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:           "req-1",
		FacultyEmail: "ic@example.edu",
		Status:       models.RequestStatusAccepted,
		Remarks:      &remarks,
		DecidedAt:    decidedAt,
	})
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusPending, previous.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMakeupRequestRepositoryUpdateStatusOutsideScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewMakeupRequestRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("req-1", "other@example.edu").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	_, err := repo.UpdateStatus(context.Background(), UpdateStatusParams{
		ID:           "req-1",
		FacultyEmail: "other@example.edu",
		Status:       models.RequestStatusDenied,
	})
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
