package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/makeups-api/internal/dto"
	"github.com/noah-isme/makeups-api/internal/models"
	"github.com/noah-isme/makeups-api/internal/service"
	appErrors "github.com/noah-isme/makeups-api/pkg/errors"
	"github.com/noah-isme/makeups-api/pkg/response"
)

type attachmentPanelOpener interface {
	OpenAttachments(ctx context.Context, session models.Session, requestID string) (*service.AttachmentPanel, error)
}

type attachmentHandleService interface {
	Open(token string) (*service.AttachmentDownload, error)
	ReleaseAsync(tokens []string) error
}

// AttachmentHandler serves decoded request attachments.
type AttachmentHandler struct {
	panels    attachmentPanelOpener
	handles   attachmentHandleService
	validator *validator.Validate
}

// NewAttachmentHandler builds a new handler.
func NewAttachmentHandler(panels attachmentPanelOpener, handles attachmentHandleService) *AttachmentHandler {
	return &AttachmentHandler{panels: panels, handles: handles, validator: validator.New()}
}

// Panel godoc
// @Summary Open the attachments of a makeup request
// @Description Each attachment carries either a short-lived download link or the reason it could not be opened.
// @Tags Attachments
// @Produce json
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /requests/{id}/attachments [get]
func (h *AttachmentHandler) Panel(c *gin.Context) {
	session, err := sessionFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	requestID := c.Param("id")
	panel, err := h.panels.OpenAttachments(c.Request.Context(), session, requestID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := c.Request.Context().Err(); err != nil {
		_ = panel.Close()
		return
	}
	response.JSON(c, http.StatusOK, dto.AttachmentPanelResponse{RequestID: requestID, Attachments: panel.Entries}, nil)
}

// Release godoc
// @Summary Release attachment links
// @Tags Attachments
// @Accept json
// @Produce json
// @Param payload body dto.ReleaseHandlesRequest true "Handle tokens"
// @Success 202 {object} response.Envelope
// @Router /attachments [delete]
func (h *AttachmentHandler) Release(c *gin.Context) {
	var req dto.ReleaseHandlesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid release payload"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid release payload"))
		return
	}
	if err := h.handles.ReleaseAsync(req.Tokens); err != nil {
		response.Error(c, err)
		return
	}
	response.Accepted(c, gin.H{"released": len(req.Tokens)})
}

// Download godoc
// @Summary Download a decoded attachment
// @Tags Attachments
// @Produce octet-stream
// @Param token query string true "Signed handle token"
// @Success 200 {file} file
// @Failure 410 {object} response.Envelope
// @Router /attachments/download [get]
func (h *AttachmentHandler) Download(c *gin.Context) {
	token := c.Query("token")
	if token == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "token is required"))
		return
	}
	download, err := h.handles.Open(token)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()
	response.File(c, download.Filename, download.MimeType, download.Size, download.File, true)
}
