package models

import "time"

// DefaultPageSize is the fixed number of rows per dashboard page.
const DefaultPageSize = 10

// DateFilter bounds submission time. End is inclusive through the end of its
// calendar day.
type DateFilter struct {
	Start *time.Time `json:"startDate,omitempty"`
	End   *time.Time `json:"endDate,omitempty"`
}

// Active reports whether either bound is set.
func (f DateFilter) Active() bool {
	return f.Start != nil || f.End != nil
}

// Inverted reports a start bound later than the inclusive end bound.
func (f DateFilter) Inverted() bool {
	return f.Start != nil && f.End != nil && f.Start.After(EndOfDay(*f.End))
}

// EndOfDay returns 23:59:59.999 of t's calendar day in t's location.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), t.Location())
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
	TotalPages int `json:"total_pages"`
}

// RequestPage is one page of the filtered, ordered view.
type RequestPage struct {
	Items      []MakeupRequest
	Pagination Pagination
}

// FacultyCourse maps an instructor in charge to the course they administer.
type FacultyCourse struct {
	FacultyEmail string `db:"faculty_email" json:"facultyEmail"`
	CourseCode   string `db:"course_code" json:"courseCode"`
}
