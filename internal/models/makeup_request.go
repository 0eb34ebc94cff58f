package models

import (
	"strings"
	"time"
)

// RequestStatus is the approval state of a makeup request. It doubles as the
// dashboard tab filter.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "Pending"
	RequestStatusAccepted RequestStatus = "Accepted"
	RequestStatusDenied   RequestStatus = "Denied"
)

// RequestStatuses lists every tab in display order.
var RequestStatuses = []RequestStatus{RequestStatusPending, RequestStatusAccepted, RequestStatusDenied}

// ParseRequestStatus maps user input onto a known status, ignoring case.
func ParseRequestStatus(raw string) (RequestStatus, bool) {
	raw = strings.TrimSpace(raw)
	for _, status := range RequestStatuses {
		if strings.EqualFold(raw, string(status)) {
			return status, true
		}
	}
	return "", false
}

// Decided reports whether the status is a terminal review outcome.
func (s RequestStatus) Decided() bool {
	return s == RequestStatusAccepted || s == RequestStatusDenied
}

const reasonPreviewLength = 20

// MakeupRequest is one student's makeup exam submission.
type MakeupRequest struct {
	ID             string        `db:"id" json:"id"`
	Name           string        `db:"name" json:"name"`
	IDNumber       string        `db:"id_number" json:"idNumber"`
	Email          string        `db:"email" json:"email"`
	CourseCode     string        `db:"course_code" json:"courseCode"`
	EvalComponent  string        `db:"eval_component" json:"evalComponent"`
	Reason         *string       `db:"reason" json:"reason"`
	SubmittedAt    time.Time     `db:"submitted_at" json:"submittedAt"`
	Status         RequestStatus `db:"status" json:"status"`
	FacultyRemarks *string       `db:"faculty_remarks" json:"facultyRemarks,omitempty"`
	DecidedAt      *time.Time    `db:"decided_at" json:"decidedAt,omitempty"`
	DecidedBy      *string       `db:"decided_by" json:"decidedBy,omitempty"`
}

// ReasonPreview shortens the reason for list views.
func (r MakeupRequest) ReasonPreview() string {
	if r.Reason == nil {
		return ""
	}
	runes := []rune(*r.Reason)
	if len(runes) <= reasonPreviewLength {
		return *r.Reason
	}
	return string(runes[:reasonPreviewLength]) + "..."
}

// Remarks returns the faculty remarks or an empty string.
func (r MakeupRequest) Remarks() string {
	if r.FacultyRemarks == nil {
		return ""
	}
	return *r.FacultyRemarks
}

// SearchValues returns every field value in searchable form. Absent values
// are nil so they can never match a search term.
func (r MakeupRequest) SearchValues() []interface{} {
	values := []interface{}{
		r.ID,
		r.Name,
		r.IDNumber,
		r.Email,
		r.CourseCode,
		r.EvalComponent,
		nil,
		r.SubmittedAt.Format(time.RFC3339),
		r.Status,
		nil,
	}
	if r.Reason != nil {
		values[6] = *r.Reason
	}
	if r.FacultyRemarks != nil {
		values[9] = *r.FacultyRemarks
	}
	return values
}
