package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/makeups-api/internal/models"
)

const makeupRequestColumns = `mr.id, mr.name, mr.id_number, mr.email, mr.course_code, mr.eval_component, mr.reason,
	mr.submitted_at, mr.status, mr.faculty_remarks, mr.decided_at, mr.decided_by`

// facultyScope restricts makeup_requests rows to courses administered by the
// faculty email bound at the given placeholder.
const facultyScope = `mr.course_code IN (
	SELECT fc.course_code FROM faculty_courses fc WHERE LOWER(fc.faculty_email) = LOWER($%d)
)`

// MakeupRequestRepository persists makeup requests.
type MakeupRequestRepository struct {
	db *sqlx.DB
}

// NewMakeupRequestRepository constructs the repository.
func NewMakeupRequestRepository(db *sqlx.DB) *MakeupRequestRepository {
	return &MakeupRequestRepository{db: db}
}

// ListByCourseAndStatus returns the course's requests in one status, newest first.
func (r *MakeupRequestRepository) ListByCourseAndStatus(ctx context.Context, facultyEmail, courseCode string, status models.RequestStatus) ([]models.MakeupRequest, error) {
	query := fmt.Sprintf(`SELECT %s
FROM makeup_requests mr
WHERE mr.course_code = $1 AND mr.status = $2 AND %s
ORDER BY mr.submitted_at DESC`, makeupRequestColumns, fmt.Sprintf(facultyScope, 3))

	requests := make([]models.MakeupRequest, 0)
	if err := r.db.SelectContext(ctx, &requests, query, courseCode, string(status), facultyEmail); err != nil {
		return nil, fmt.Errorf("list makeup requests: %w", err)
	}
	return requests, nil
}

// GetByID fetches one request visible to the faculty member.
func (r *MakeupRequestRepository) GetByID(ctx context.Context, facultyEmail, id string) (*models.MakeupRequest, error) {
	query := fmt.Sprintf(`SELECT %s
FROM makeup_requests mr
WHERE mr.id = $1 AND %s`, makeupRequestColumns, fmt.Sprintf(facultyScope, 2))

	var request models.MakeupRequest
	if err := r.db.GetContext(ctx, &request, query, id, facultyEmail); err != nil {
		return nil, fmt.Errorf("get makeup request %s: %w", id, err)
	}
	return &request, nil
}

// UpdateStatusParams holds values required to record a review decision.
type UpdateStatusParams struct {
	ID           string
	FacultyEmail string
	Status       models.RequestStatus
	Remarks      *string
	DecidedAt    time.Time
}

// UpdateStatus records a decision and returns the request as it was before the
// change. A request outside the faculty's courses yields sql.ErrNoRows.
func (r *MakeupRequestRepository) UpdateStatus(ctx context.Context, params UpdateStatusParams) (previous *models.MakeupRequest, err error) {
	if params.DecidedAt.IsZero() {
		params.DecidedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin status transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var current models.MakeupRequest
	selectQuery := fmt.Sprintf(`SELECT %s
FROM makeup_requests mr
WHERE mr.id = $1 AND %s
FOR UPDATE`, makeupRequestColumns, fmt.Sprintf(facultyScope, 2))
	if err = tx.GetContext(ctx, &current, selectQuery, params.ID, params.FacultyEmail); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("lock makeup request %s: %w", params.ID, sql.ErrNoRows)
		}
		return nil, fmt.Errorf("lock makeup request %s: %w", params.ID, err)
	}

	const updateQuery = `UPDATE makeup_requests
SET status = $1, faculty_remarks = $2, decided_at = $3, decided_by = $4
WHERE id = $5`
	if _, err = tx.ExecContext(ctx, updateQuery, string(params.Status), params.Remarks, params.DecidedAt, params.FacultyEmail, params.ID); err != nil {
		return nil, fmt.Errorf("update makeup request %s: %w", params.ID, err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit makeup request %s: %w", params.ID, err)
	}
	return &current, nil
}
