package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/makeups-api/internal/dto"
	"github.com/noah-isme/makeups-api/internal/middleware"
	"github.com/noah-isme/makeups-api/internal/models"
	"github.com/noah-isme/makeups-api/internal/service"
	appErrors "github.com/noah-isme/makeups-api/pkg/errors"
	"github.com/noah-isme/makeups-api/pkg/response"
)

const maxPage = 10000

type reviewEngine interface {
	ResolveCourse(ctx context.Context, session models.Session) (string, error)
	Open(ctx context.Context, session models.Session, tab models.RequestStatus) (*service.ReviewView, error)
	Transition(ctx context.Context, view *service.ReviewView, requestID string, target models.RequestStatus, remarks string) error
	GetRequest(ctx context.Context, session models.Session, id string) (*models.MakeupRequest, error)
	OpenAttachments(ctx context.Context, session models.Session, requestID string) (*service.AttachmentPanel, error)
}

type viewExporter interface {
	Export(view *service.ReviewView, format service.ExportFormat) (*service.ExportResult, error)
}

// viewQuery is the dashboard state carried on the query string.
type viewQuery struct {
	tab    models.RequestStatus
	search string
	dates  models.DateFilter
	page   int
}

// MakeupRequestHandler exposes the faculty review dashboard.
type MakeupRequestHandler struct {
	engine    reviewEngine
	exporter  viewExporter
	validator *validator.Validate
	location  *time.Location
}

// NewMakeupRequestHandler builds a new handler. Date-only filters are read in loc.
func NewMakeupRequestHandler(engine reviewEngine, exporter viewExporter, loc *time.Location) *MakeupRequestHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &MakeupRequestHandler{engine: engine, exporter: exporter, validator: validator.New(), location: loc}
}

// Course godoc
// @Summary Resolve the caller's course
// @Tags Makeups
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /course [get]
func (h *MakeupRequestHandler) Course(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	courseCode, err := h.engine.ResolveCourse(c.Request.Context(), session)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.CourseResponse{CourseCode: courseCode}, nil)
}

// List godoc
// @Summary List makeup requests of the caller's course
// @Tags Makeups
// @Produce json
// @Param status query string false "Pending, Accepted or Denied (default Pending)"
// @Param q query string false "Case-insensitive search across every field"
// @Param from query string false "Submitted on or after (YYYY-MM-DD)"
// @Param to query string false "Submitted on or before, inclusive (YYYY-MM-DD)"
// @Param page query int false "Page number (default 1)"
// @Success 200 {object} response.Envelope
// @Router /requests [get]
func (h *MakeupRequestHandler) List(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	query, err := h.parseViewQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.engine.Open(c.Request.Context(), session, query.tab)
	if err != nil {
		response.Error(c, err)
		return
	}
	query.apply(view)
	h.renderPage(c, http.StatusOK, view)
}

// Export godoc
// @Summary Export the filtered makeup requests
// @Tags Makeups
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf (default csv)"
// @Param status query string false "Pending, Accepted or Denied (default Pending)"
// @Param q query string false "Search text"
// @Param from query string false "Submitted on or after (YYYY-MM-DD)"
// @Param to query string false "Submitted on or before, inclusive (YYYY-MM-DD)"
// @Success 200 {file} file
// @Router /requests/export [get]
func (h *MakeupRequestHandler) Export(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	query, err := h.parseViewQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	view, err := h.engine.Open(c.Request.Context(), session, query.tab)
	if err != nil {
		response.Error(c, err)
		return
	}
	query.apply(view)

	result, err := h.exporter.Export(view, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.File(c, result.Filename, result.ContentType, int64(len(result.Payload)), bytes.NewReader(result.Payload), false)
}

// Get godoc
// @Summary Get a makeup request
// @Tags Makeups
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /requests/{id} [get]
func (h *MakeupRequestHandler) Get(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	req, err := h.engine.GetRequest(c.Request.Context(), session, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.NewMakeupRequestDetail(*req, actionsFor(*req)), nil)
}

// UpdateStatus godoc
// @Summary Accept or deny a makeup request
// @Description Records the decision and returns the refreshed first page of the view described by the query string.
// @Tags Makeups
// @Accept json
// @Produce json
// @Param id path string true "Request ID"
// @Param payload body dto.TransitionRequest true "Decision"
// @Param status query string false "Tab currently shown (default Pending)"
// @Param q query string false "Search text currently applied"
// @Param from query string false "Start date currently applied"
// @Param to query string false "End date currently applied"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /requests/{id}/status [patch]
func (h *MakeupRequestHandler) UpdateStatus(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid status payload"))
		return
	}
	target, ok := models.ParseRequestStatus(req.Status)
	if !ok || !target.Decided() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be Accepted or Denied"))
		return
	}
	query, err := h.parseViewQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	ctx := service.WithAuditSource(c.Request.Context(), service.AuditSource{IPAddress: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")})
	courseCode, err := h.engine.ResolveCourse(ctx, session)
	if err != nil {
		response.Error(c, err)
		return
	}
	// Transition loads the tab after the update; no fetch is needed before it.
	view := service.NewReviewView(session, courseCode, query.tab, 0)
	if err := h.engine.Transition(ctx, view, c.Param("id"), target, req.Remarks); err != nil {
		response.Error(c, err)
		return
	}
	query.page = 1
	query.apply(view)
	h.renderPage(c, http.StatusOK, view)
}

func (h *MakeupRequestHandler) renderPage(c *gin.Context, status int, view *service.ReviewView) {
	page := view.Page()
	items := make([]dto.MakeupRequestListItem, 0, len(page.Items))
	for _, req := range page.Items {
		items = append(items, dto.NewMakeupRequestListItem(req, actionsFor(req)))
	}

	middleware.SetCacheHit(c, view.CacheHit())
	meta := middleware.ExtractMeta(c)
	meta["course_code"] = view.CourseCode()
	meta["status"] = view.Tab()
	meta["summary"] = view.Summary()
	meta["date_filter_applied"] = view.DateFilter().Active()

	pagination := page.Pagination
	response.JSON(c, status, items, &pagination, meta)
}

func actionsFor(req models.MakeupRequest) dto.RequestActions {
	return dto.RequestActions{
		CanAccept: service.CanTransition(req, models.RequestStatusAccepted),
		CanDeny:   service.CanTransition(req, models.RequestStatusDenied),
	}
}

func (q viewQuery) apply(view *service.ReviewView) {
	view.SetSearch(q.search)
	view.SetDateFilter(q.dates)
	view.SetPage(q.page)
}

func (h *MakeupRequestHandler) parseViewQuery(c *gin.Context) (viewQuery, error) {
	query := viewQuery{tab: models.RequestStatusPending, search: c.Query("q"), page: 1}

	if raw := c.Query("status"); raw != "" {
		status, ok := models.ParseRequestStatus(raw)
		if !ok {
			return query, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", raw))
		}
		query.tab = status
	}

	start, err := h.parseDate(c.Query("from"))
	if err != nil {
		return query, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid from date")
	}
	end, err := h.parseDate(c.Query("to"))
	if err != nil {
		return query, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid to date")
	}
	query.dates = models.DateFilter{Start: start, End: end}
	if query.dates.Inverted() {
		return query, appErrors.Clone(appErrors.ErrValidation, "from date must not be after to date")
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 || page > maxPage {
			return query, appErrors.Clone(appErrors.ErrValidation, "page must be a positive number")
		}
		query.page = page
	}
	return query, nil
}

// parseDate accepts YYYY-MM-DD, read in the review timezone, or RFC3339.
func (h *MakeupRequestHandler) parseDate(raw string) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", raw, h.location); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
