package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFacultyCourseRepositoryFindCourseCode(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_code FROM faculty_courses")).
		WithArgs("IC@example.edu").
		WillReturnRows(sqlmock.NewRows([]string{"course_code"}).AddRow("PHY101"))

	code, err := repo.FindCourseCode(context.Background(), "IC@example.edu")
	require.NoError(t, err)
	assert.Equal(t, "PHY101", code)
}

func TestFacultyCourseRepositoryFindCourseCodeNone(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewFacultyCourseRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT course_code FROM faculty_courses")).
		WithArgs("nobody@example.edu").
		WillReturnRows(sqlmock.NewRows([]string{"course_code"}))

	_, err := repo.FindCourseCode(context.Background(), "nobody@example.edu")
	require.ErrorIs(t, err, sql.ErrNoRows)
}
