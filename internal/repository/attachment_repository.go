package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/makeups-api/internal/models"
)

// AttachmentRepository reads the encoded proof documents of makeup requests.
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository constructs the repository.
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// ListByRequest returns the attachments of a request the faculty member can see.
func (r *AttachmentRepository) ListByRequest(ctx context.Context, facultyEmail, requestID string) ([]models.Attachment, error) {
	query := fmt.Sprintf(`SELECT a.request_id, a.key, a.data, a.mime_type
FROM makeup_attachments a
JOIN makeup_requests mr ON mr.id = a.request_id
WHERE a.request_id = $1 AND %s
ORDER BY a.key ASC`, fmt.Sprintf(facultyScope, 2))

	attachments := make([]models.Attachment, 0)
	if err := r.db.SelectContext(ctx, &attachments, query, requestID, facultyEmail); err != nil {
		return nil, fmt.Errorf("list attachments for %s: %w", requestID, err)
	}
	return attachments, nil
}
