package dto

import (
	"time"

	"github.com/noah-isme/makeups-api/internal/models"
)

// TransitionRequest is the payload recording a review decision.
type TransitionRequest struct {
	Status  string `json:"status" validate:"required"`
	Remarks string `json:"remarks" validate:"max=1000"`
}

// ReleaseHandlesRequest lists attachment handle tokens the client is done with.
type ReleaseHandlesRequest struct {
	Tokens []string `json:"tokens" validate:"required,min=1,max=50,dive,required"`
}

// RequestActions tells the dashboard which decisions are offered for a row.
type RequestActions struct {
	CanAccept bool `json:"canAccept"`
	CanDeny   bool `json:"canDeny"`
}

// MakeupRequestListItem is one dashboard row.
type MakeupRequestListItem struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	IDNumber      string               `json:"idNumber"`
	Email         string               `json:"email"`
	CourseCode    string               `json:"courseCode"`
	EvalComponent string               `json:"evalComponent"`
	ReasonPreview string               `json:"reasonPreview"`
	SubmittedAt   time.Time            `json:"submittedAt"`
	Status        models.RequestStatus `json:"status"`
	Actions       RequestActions       `json:"actions"`
}

// NewMakeupRequestListItem maps a request onto its list row.
func NewMakeupRequestListItem(req models.MakeupRequest, actions RequestActions) MakeupRequestListItem {
	return MakeupRequestListItem{
		ID:            req.ID,
		Name:          req.Name,
		IDNumber:      req.IDNumber,
		Email:         req.Email,
		CourseCode:    req.CourseCode,
		EvalComponent: req.EvalComponent,
		ReasonPreview: req.ReasonPreview(),
		SubmittedAt:   req.SubmittedAt,
		Status:        req.Status,
		Actions:       actions,
	}
}

// MakeupRequestDetail is the full view of a request. Remarks are omitted
// until a faculty member has written some.
type MakeupRequestDetail struct {
	ID             string               `json:"id"`
	Name           string               `json:"name"`
	IDNumber       string               `json:"idNumber"`
	Email          string               `json:"email"`
	CourseCode     string               `json:"courseCode"`
	EvalComponent  string               `json:"evalComponent"`
	Reason         *string              `json:"reason"`
	SubmittedAt    time.Time            `json:"submittedAt"`
	Status         models.RequestStatus `json:"status"`
	FacultyRemarks string               `json:"facultyRemarks,omitempty"`
	DecidedAt      *time.Time           `json:"decidedAt,omitempty"`
	Actions        RequestActions       `json:"actions"`
}

// NewMakeupRequestDetail maps a request onto the detail view.
func NewMakeupRequestDetail(req models.MakeupRequest, actions RequestActions) MakeupRequestDetail {
	return MakeupRequestDetail{
		ID:             req.ID,
		Name:           req.Name,
		IDNumber:       req.IDNumber,
		Email:          req.Email,
		CourseCode:     req.CourseCode,
		EvalComponent:  req.EvalComponent,
		Reason:         req.Reason,
		SubmittedAt:    req.SubmittedAt,
		Status:         req.Status,
		FacultyRemarks: req.Remarks(),
		DecidedAt:      req.DecidedAt,
		Actions:        actions,
	}
}

// CourseResponse carries the course resolved for the caller.
type CourseResponse struct {
	CourseCode string `json:"courseCode"`
}

// AttachmentPanelResponse lists the attachments of one request.
type AttachmentPanelResponse struct {
	RequestID   string                   `json:"requestId"`
	Attachments []models.AttachmentEntry `json:"attachments"`
}
