package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// FacultyCourseRepository resolves which course an instructor in charge administers.
type FacultyCourseRepository struct {
	db *sqlx.DB
}

// NewFacultyCourseRepository constructs the repository.
func NewFacultyCourseRepository(db *sqlx.DB) *FacultyCourseRepository {
	return &FacultyCourseRepository{db: db}
}

// FindCourseCode returns the course code registered to facultyEmail. It wraps
// sql.ErrNoRows when none is registered.
func (r *FacultyCourseRepository) FindCourseCode(ctx context.Context, facultyEmail string) (string, error) {
	const query = `SELECT course_code FROM faculty_courses WHERE LOWER(faculty_email) = LOWER($1) ORDER BY course_code ASC LIMIT 1`

	var courseCode string
	if err := r.db.GetContext(ctx, &courseCode, query, facultyEmail); err != nil {
		return "", fmt.Errorf("find course for %s: %w", facultyEmail, err)
	}
	return courseCode, nil
}

// Ping verifies database connectivity for readiness probes.
func (r *FacultyCourseRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
