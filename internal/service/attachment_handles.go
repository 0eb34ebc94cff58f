package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/makeups-api/internal/models"
	appErrors "github.com/noah-isme/makeups-api/pkg/errors"
	"github.com/noah-isme/makeups-api/pkg/jobs"
	"github.com/noah-isme/makeups-api/pkg/storage"
)

// JobTypeAttachmentRelease identifies queued handle releases.
const JobTypeAttachmentRelease = "attachment.release"

type attachmentFileStorage interface {
	Save(relPath string, data []byte) (string, error)
	Open(relPath string) (*os.File, int64, error)
	Delete(relPath string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type jobEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// AttachmentHandleConfig tunes handle URLs.
type AttachmentHandleConfig struct {
	APIPrefix string
}

// AttachmentDownload is an opened handle ready to be streamed. The caller
// closes File.
type AttachmentDownload struct {
	File     *os.File
	Size     int64
	MimeType string
	Filename string
}

// AttachmentHandleRegistry owns decoded attachment files. Each handle lives
// under its own directory and is reachable only through a signed, expiring
// token.
type AttachmentHandleRegistry struct {
	storage attachmentFileStorage
	signer  *storage.SignedURLSigner
	queue   jobEnqueuer
	metrics *MetricsService
	logger  *zap.Logger
	baseURL string
}

// NewAttachmentHandleRegistry constructs the registry. queue may be nil, in
// which case releases run inline.
func NewAttachmentHandleRegistry(files attachmentFileStorage, signer *storage.SignedURLSigner, queue jobEnqueuer, cfg AttachmentHandleConfig, metrics *MetricsService, logger *zap.Logger) *AttachmentHandleRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := strings.TrimRight(cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/makeups/api"
	}
	return &AttachmentHandleRegistry{
		storage: files,
		signer:  signer,
		queue:   queue,
		metrics: metrics,
		logger:  logger,
		baseURL: prefix + "/attachments/download",
	}
}

// Acquire persists decoded bytes and returns a handle to them.
func (r *AttachmentHandleRegistry) Acquire(decoded *DecodedAttachment) (*models.AttachmentHandle, error) {
	if decoded == nil {
		return nil, fmt.Errorf("decoded attachment nil")
	}
	id := uuid.NewString()
	relPath, err := r.storage.Save(path.Join(id, handleFilename(decoded.Label)), decoded.Data)
	if err != nil {
		return nil, fmt.Errorf("store attachment %s: %w", decoded.Label, err)
	}

	token, expiresAt, err := r.signer.Generate(id, relPath, decoded.MimeType)
	if err != nil {
		_ = r.storage.Delete(relPath)
		return nil, fmt.Errorf("sign attachment %s: %w", decoded.Label, err)
	}
	r.metrics.RecordHandleAcquired()

	return &models.AttachmentHandle{
		ID:        id,
		Token:     token,
		URL:       r.baseURL + "?token=" + url.QueryEscape(token),
		MimeType:  decoded.MimeType,
		SizeBytes: int64(len(decoded.Data)),
		ExpiresAt: expiresAt,
	}, nil
}

// Open dereferences a live handle.
func (r *AttachmentHandleRegistry) Open(token string) (*AttachmentDownload, error) {
	claims, err := r.parse(token, false)
	if err != nil {
		return nil, err
	}
	file, size, err := r.storage.Open(claims.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrHandleExpired, "attachment link was released")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrInternal, "failed to open attachment")
	}
	return &AttachmentDownload{
		File:     file,
		Size:     size,
		MimeType: claims.MimeType,
		Filename: path.Base(claims.Path),
	}, nil
}

// Release deletes the file behind token. Expired tokens can still be
// released; releasing twice is a no-op.
func (r *AttachmentHandleRegistry) Release(token string) error {
	claims, err := r.parse(token, true)
	if err != nil {
		return err
	}
	if err := r.storage.Delete(claims.Path); err != nil {
		return fmt.Errorf("release attachment handle %s: %w", claims.HandleID, err)
	}
	r.metrics.RecordHandleReleased("released", 1)
	return nil
}

// ReleaseAsync validates every token and queues their release. Tokens that
// cannot be queued are released inline.
func (r *AttachmentHandleRegistry) ReleaseAsync(tokens []string) error {
	for _, token := range tokens {
		if _, err := r.parse(token, true); err != nil {
			return err
		}
	}
	for _, token := range tokens {
		if r.queue != nil {
			err := r.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeAttachmentRelease, Payload: token})
			if err == nil {
				continue
			}
			r.logger.Warn("attachment release not queued, releasing inline", zap.Error(err))
		}
		if err := r.Release(token); err != nil {
			return err
		}
	}
	return nil
}

// HandleReleaseJob is the queue handler for JobTypeAttachmentRelease.
func (r *AttachmentHandleRegistry) HandleReleaseJob(ctx context.Context, job jobs.Job) error {
	token, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	return r.Release(token)
}

// Cleanup purges handle files older than the token TTL.
func (r *AttachmentHandleRegistry) Cleanup() (int, error) {
	removed, err := r.storage.CleanupOlderThan(r.signer.TTL())
	r.metrics.RecordHandleReleased("expired", len(removed))
	return len(removed), err
}

// StartCleanup runs Cleanup every interval until ctx is done.
func (r *AttachmentHandleRegistry) StartCleanup(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := r.Cleanup()
				if err != nil {
					r.logger.Warn("attachment cleanup failed", zap.Error(err))
					continue
				}
				if removed > 0 {
					r.logger.Info("expired attachment handles purged", zap.Int("count", removed))
				}
			}
		}
	}()
}

func (r *AttachmentHandleRegistry) parse(token string, allowExpired bool) (*storage.HandleClaims, error) {
	claims, err := r.signer.Parse(token, allowExpired)
	switch {
	case err == nil:
		return claims, nil
	case errors.Is(err, storage.ErrTokenExpired):
		return nil, appErrors.WrapAs(err, appErrors.ErrHandleExpired, "")
	default:
		return nil, appErrors.WrapAs(err, appErrors.ErrNotFound, "attachment not found")
	}
}

func handleFilename(label string) string {
	name := strings.NewReplacer("/", "_", "\\", "_").Replace(strings.TrimSpace(label))
	name = strings.Trim(name, ".")
	if name == "" {
		return "attachment"
	}
	return name
}
