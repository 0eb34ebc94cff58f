package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/makeups-api/internal/models"
	"github.com/noah-isme/makeups-api/internal/repository"
	appErrors "github.com/noah-isme/makeups-api/pkg/errors"
	"github.com/noah-isme/makeups-api/pkg/logger"
)

type facultyCourseResolver interface {
	FindCourseCode(ctx context.Context, facultyEmail string) (string, error)
}

type makeupRequestStore interface {
	ListByCourseAndStatus(ctx context.Context, facultyEmail, courseCode string, status models.RequestStatus) ([]models.MakeupRequest, error)
	GetByID(ctx context.Context, facultyEmail, id string) (*models.MakeupRequest, error)
	UpdateStatus(ctx context.Context, params repository.UpdateStatusParams) (*models.MakeupRequest, error)
}

type attachmentStore interface {
	ListByRequest(ctx context.Context, facultyEmail, requestID string) ([]models.Attachment, error)
}

type requestListCache interface {
	GetRequestList(ctx context.Context, courseCode string, status models.RequestStatus) ([]models.MakeupRequest, bool)
	SetRequestList(ctx context.Context, courseCode string, status models.RequestStatus, requests []models.MakeupRequest)
	InvalidateCourse(ctx context.Context, courseCode string)
}

type auditLogger interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type attachmentHandles interface {
	Acquire(decoded *DecodedAttachment) (*models.AttachmentHandle, error)
	Release(token string) error
}

// ReviewConfig tunes the review engine.
type ReviewConfig struct {
	StoreTimeout time.Duration
	PageSize     int
}

// AuditSource identifies the client behind a review decision.
type AuditSource struct {
	IPAddress string
	UserAgent string
}

type auditSourceKey struct{}

// WithAuditSource attaches client details recorded with review decisions.
func WithAuditSource(ctx context.Context, src AuditSource) context.Context {
	return context.WithValue(ctx, auditSourceKey{}, src)
}

func auditSourceFrom(ctx context.Context) AuditSource {
	src, _ := ctx.Value(auditSourceKey{}).(AuditSource)
	return src
}

// ReviewService drives the faculty review dashboard: it fetches the course's
// requests into a ReviewView, applies review decisions and serves attachments.
type ReviewService struct {
	courses     facultyCourseResolver
	requests    makeupRequestStore
	attachments attachmentStore
	handles     attachmentHandles
	decoder     *AttachmentDecoder
	cache       requestListCache
	audit       auditLogger
	metrics     *MetricsService
	logger      *zap.Logger
	cfg         ReviewConfig
}

// NewReviewService constructs the service. cache and audit may be nil.
func NewReviewService(courses facultyCourseResolver, requests makeupRequestStore, attachments attachmentStore, handles attachmentHandles, decoder *AttachmentDecoder, cache requestListCache, audit auditLogger, metrics *MetricsService, cfg ReviewConfig, logger *zap.Logger) *ReviewService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = 10 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = models.DefaultPageSize
	}
	if decoder == nil {
		decoder = NewAttachmentDecoder(nil, 0)
	}
	return &ReviewService{
		courses:     courses,
		requests:    requests,
		attachments: attachments,
		handles:     handles,
		decoder:     decoder,
		cache:       cache,
		audit:       audit,
		metrics:     metrics,
		logger:      logger,
		cfg:         cfg,
	}
}

// ResolveCourse returns the course administered by the session's faculty member.
func (s *ReviewService) ResolveCourse(ctx context.Context, session models.Session) (string, error) {
	var courseCode string
	err := s.call(ctx, "resolve_course", func(ctx context.Context) error {
		var err error
		courseCode, err = s.courses.FindCourseCode(ctx, session.Email)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.ErrCourseNotFound
		}
		return "", appErrors.WrapAs(err, appErrors.ErrFetchFailed, "failed to resolve course")
	}
	if strings.TrimSpace(courseCode) == "" {
		return "", appErrors.ErrCourseNotFound
	}
	return courseCode, nil
}

// Open resolves the session's course and loads the tab into a new view.
func (s *ReviewService) Open(ctx context.Context, session models.Session, tab models.RequestStatus) (*ReviewView, error) {
	courseCode, err := s.ResolveCourse(ctx, session)
	if err != nil {
		return nil, err
	}
	view := NewReviewView(session, courseCode, tab, s.cfg.PageSize)
	if err := s.Refresh(ctx, view); err != nil {
		return nil, err
	}
	return view, nil
}

// Refresh re-fetches the view's tab. On failure the view keeps its rows.
func (s *ReviewService) Refresh(ctx context.Context, view *ReviewView) error {
	return s.refresh(ctx, view, true)
}

// refresh reloads the view's tab. With useCache false the store is always
// read and its result replaces the cached list.
func (s *ReviewService) refresh(ctx context.Context, view *ReviewView, useCache bool) error {
	requests, hit, err := s.fetch(ctx, view.session, view.course, view.tab, useCache)
	if err != nil {
		return err
	}
	view.SetRequests(requests)
	view.cacheHit = hit
	return nil
}

// SwitchTab loads another status tab. The view changes tab only when the
// fetch succeeds.
func (s *ReviewService) SwitchTab(ctx context.Context, view *ReviewView, tab models.RequestStatus) error {
	requests, hit, err := s.fetch(ctx, view.session, view.course, tab, true)
	if err != nil {
		return err
	}
	view.setTab(tab, requests)
	view.cacheHit = hit
	return nil
}

func (s *ReviewService) fetch(ctx context.Context, session models.Session, courseCode string, tab models.RequestStatus, useCache bool) ([]models.MakeupRequest, bool, error) {
	if useCache && s.cache != nil {
		if cached, ok := s.cache.GetRequestList(ctx, courseCode, tab); ok {
			return cached, true, nil
		}
	}

	var requests []models.MakeupRequest
	err := s.call(ctx, "list_requests", func(ctx context.Context) error {
		var err error
		requests, err = s.requests.ListByCourseAndStatus(ctx, session.Email, courseCode, tab)
		return err
	})
	if err != nil {
		logger.FromContext(ctx, s.logger).Warn("fetch makeup requests failed",
			zap.String("course", courseCode), zap.String("status", string(tab)), zap.Error(err))
		return nil, false, appErrors.WrapAs(err, appErrors.ErrFetchFailed, "")
	}

	if s.cache != nil {
		s.cache.SetRequestList(ctx, courseCode, tab, requests)
	}
	return requests, false, nil
}

// CanTransition reports whether the accept/deny action for target is offered
// for req. Re-deciding with the same outcome is not offered.
func CanTransition(req models.MakeupRequest, target models.RequestStatus) bool {
	return target.Decided() && req.Status != target
}

// Transition records a review decision and then reloads the view's tab before
// returning. remarks is trimmed; a blank value clears any earlier remarks.
func (s *ReviewService) Transition(ctx context.Context, view *ReviewView, requestID string, target models.RequestStatus, remarks string) error {
	if !target.Decided() {
		return appErrors.Clone(appErrors.ErrValidation, "status must be Accepted or Denied")
	}
	if strings.TrimSpace(requestID) == "" {
		return appErrors.Clone(appErrors.ErrValidation, "request id is required")
	}

	var remarksPtr *string
	if trimmed := strings.TrimSpace(remarks); trimmed != "" {
		remarksPtr = &trimmed
	}

	params := repository.UpdateStatusParams{
		ID:           requestID,
		FacultyEmail: view.session.Email,
		Status:       target,
		Remarks:      remarksPtr,
		DecidedAt:    time.Now().UTC(),
	}

	var previous *models.MakeupRequest
	err := s.call(ctx, "update_status", func(ctx context.Context) error {
		var err error
		previous, err = s.requests.UpdateStatus(ctx, params)
		return err
	})
	s.metrics.RecordTransition(string(target), err)
	log := logger.FromContext(ctx, s.logger).With(zap.String("request_id", requestID), zap.String("status", string(target)))
	if err != nil {
		log.Warn("makeup status transition failed", zap.Error(err))
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "makeup request not found")
		}
		return appErrors.WrapAs(err, appErrors.ErrTransitionFailed, "")
	}
	log.Info("makeup status updated")

	courseCode := view.course
	if previous != nil && previous.CourseCode != "" {
		courseCode = previous.CourseCode
	}
	if s.cache != nil {
		s.cache.InvalidateCourse(ctx, courseCode)
	}
	s.recordAudit(ctx, view.session, previous, params)

	// The cached list may predate the update even after invalidation, so the
	// refresh reads the store.
	if err := s.refresh(ctx, view, false); err != nil {
		return appErrors.WrapAs(err, appErrors.ErrRefreshFailed, "")
	}
	return nil
}

func (s *ReviewService) recordAudit(ctx context.Context, session models.Session, previous *models.MakeupRequest, params repository.UpdateStatusParams) {
	if s.audit == nil {
		return
	}
	src := auditSourceFrom(ctx)
	newValues, _ := json.Marshal(map[string]interface{}{
		"status":          params.Status,
		"faculty_remarks": params.Remarks,
		"decided_by":      params.FacultyEmail,
	})
	entry := &models.AuditLog{
		Action:     models.AuditActionStatusUpdate,
		Resource:   "makeup_request",
		ResourceID: &params.ID,
		NewValues:  newValues,
		IPAddress:  src.IPAddress,
		UserAgent:  src.UserAgent,
	}
	if session.Subject != "" {
		subject := session.Subject
		entry.UserID = &subject
	}
	if previous != nil {
		entry.OldValues, _ = json.Marshal(map[string]interface{}{
			"status":          previous.Status,
			"faculty_remarks": previous.FacultyRemarks,
		})
	}
	if err := s.audit.CreateAuditLog(ctx, entry); err != nil {
		logger.FromContext(ctx, s.logger).Warn("record audit log failed", zap.String("request_id", params.ID), zap.Error(err))
	}
}

// GetRequest loads a single request for the detail view.
func (s *ReviewService) GetRequest(ctx context.Context, session models.Session, id string) (*models.MakeupRequest, error) {
	var request *models.MakeupRequest
	err := s.call(ctx, "get_request", func(ctx context.Context) error {
		var err error
		request, err = s.requests.GetByID(ctx, session.Email, id)
		return err
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "makeup request not found")
		}
		return nil, appErrors.WrapAs(err, appErrors.ErrFetchFailed, "failed to fetch request")
	}
	return request, nil
}

// AttachmentPanel lists the decoded attachments of one request. Close
// releases every handle it acquired.
type AttachmentPanel struct {
	Entries []models.AttachmentEntry

	handles attachmentHandles
	tokens  []string
}

// Close releases the panel's handles. Calling it again is a no-op.
func (p *AttachmentPanel) Close() error {
	if p == nil || p.handles == nil {
		return nil
	}
	var errs []error
	for _, token := range p.tokens {
		if err := p.handles.Release(token); err != nil {
			errs = append(errs, err)
		}
	}
	p.tokens = nil
	return errors.Join(errs...)
}

// OpenAttachments fetches and decodes every attachment of a request. A bad
// attachment is reported on its own entry; the others are still served.
func (s *ReviewService) OpenAttachments(ctx context.Context, session models.Session, requestID string) (*AttachmentPanel, error) {
	var attachments []models.Attachment
	err := s.call(ctx, "list_attachments", func(ctx context.Context) error {
		var err error
		attachments, err = s.attachments.ListByRequest(ctx, session.Email, requestID)
		return err
	})
	if err != nil {
		return nil, appErrors.WrapAs(err, appErrors.ErrFetchFailed, "failed to fetch attachments")
	}

	sort.SliceStable(attachments, func(i, j int) bool {
		return attachments[i].Label() < attachments[j].Label()
	})

	log := logger.FromContext(ctx, s.logger)
	panel := &AttachmentPanel{Entries: make([]models.AttachmentEntry, 0, len(attachments)), handles: s.handles}
	for _, attachment := range attachments {
		entry := models.AttachmentEntry{Label: attachment.Label()}

		decoded, err := s.decoder.Decode(attachment)
		if err != nil {
			appErr := appErrors.FromError(err)
			s.metrics.RecordAttachmentDecode(appErr.Code)
			log.Warn("attachment decode failed", zap.String("request_id", requestID), zap.String("label", entry.Label), zap.Error(err))
			msg := appErr.Message
			entry.Error, entry.Code = &msg, appErr.Code
			panel.Entries = append(panel.Entries, entry)
			continue
		}
		s.metrics.RecordAttachmentDecode("ok")

		handle, err := s.handles.Acquire(decoded)
		if err != nil {
			log.Error("attachment handle acquire failed", zap.String("request_id", requestID), zap.String("label", entry.Label), zap.Error(err))
			msg := "attachment could not be opened"
			entry.Error, entry.Code = &msg, appErrors.ErrInternal.Code
			panel.Entries = append(panel.Entries, entry)
			continue
		}
		entry.Handle = handle
		panel.tokens = append(panel.tokens, handle.Token)
		panel.Entries = append(panel.Entries, entry)
	}
	return panel, nil
}

// call runs one collaborator call under the store timeout and records its duration.
func (s *ReviewService) call(ctx context.Context, operation string, fn func(context.Context) error) error {
	callCtx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()
	start := time.Now()
	err := fn(callCtx)
	s.metrics.ObserveStoreCall(operation, err, time.Since(start))
	return err
}
