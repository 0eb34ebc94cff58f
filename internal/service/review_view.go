package service

import (
	"fmt"

	"github.com/noah-isme/makeups-api/internal/models"
)

// ReviewView holds the dashboard state of one faculty session: the fetched
// requests for the active tab plus the search, date and page inputs.
//
// Any change to the search text, the date filter or the fetched collection
// moves the view back to page 1. A ReviewView is not safe for concurrent use.
type ReviewView struct {
	session  models.Session
	course   string
	tab      models.RequestStatus
	requests []models.MakeupRequest
	search   string
	dates    models.DateFilter
	page     int
	pageSize int
	cacheHit bool
}

// NewReviewView returns an empty view for the course and tab.
func NewReviewView(session models.Session, courseCode string, tab models.RequestStatus, pageSize int) *ReviewView {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	return &ReviewView{
		session:  session,
		course:   courseCode,
		tab:      tab,
		page:     1,
		pageSize: pageSize,
	}
}

func (v *ReviewView) Session() models.Session { return v.session }
func (v *ReviewView) CourseCode() string { return v.course }
func (v *ReviewView) Tab() models.RequestStatus { return v.tab }
func (v *ReviewView) Search() string { return v.search }
func (v *ReviewView) DateFilter() models.DateFilter { return v.dates }
func (v *ReviewView) CurrentPage() int { return v.page }
func (v *ReviewView) PageSize() int { return v.pageSize }

// CacheHit reports whether the last fetch was served from the list cache.
func (v *ReviewView) CacheHit() bool { return v.cacheHit }

// Requests returns the ordered collection of the active tab.
func (v *ReviewView) Requests() []models.MakeupRequest {
	out := make([]models.MakeupRequest, len(v.requests))
	copy(out, v.requests)
	return out
}

// SetRequests replaces the collection with a freshly fetched one.
func (v *ReviewView) SetRequests(requests []models.MakeupRequest) {
	v.requests = SortByRecency(requests)
	v.page = 1
}

func (v *ReviewView) setTab(tab models.RequestStatus, requests []models.MakeupRequest) {
	v.tab = tab
	v.SetRequests(requests)
}

// SetSearch updates the free text search.
func (v *ReviewView) SetSearch(term string) {
	v.search = term
	v.page = 1
}

// SetDateFilter updates the submission date range.
func (v *ReviewView) SetDateFilter(dates models.DateFilter) {
	v.dates = dates
	v.page = 1
}

// SetPage moves to page p. Values below 1 select the first page; values past
// the last page are kept and render an empty page.
func (v *ReviewView) SetPage(p int) {
	if p < 1 {
		p = 1
	}
	v.page = p
}

// Filtered returns the requests visible under the current search and dates.
func (v *ReviewView) Filtered() []models.MakeupRequest {
	return FilterRequests(v.requests, v.search, v.dates)
}

// Page returns the current page of the filtered view.
func (v *ReviewView) Page() models.RequestPage {
	filtered := v.Filtered()
	items, totalPages := Paginate(filtered, v.page, v.pageSize)
	return models.RequestPage{
		Items: items,
		Pagination: models.Pagination{
			Page:       v.page,
			PageSize:   v.pageSize,
			TotalCount: len(filtered),
			TotalPages: totalPages,
		},
	}
}

// Find looks up a request of the active tab by id.
func (v *ReviewView) Find(id string) (models.MakeupRequest, bool) {
	for _, req := range v.requests {
		if req.ID == id {
			return req, true
		}
	}
	return models.MakeupRequest{}, false
}

// Summary describes the visible result count, e.g.
// "Showing 3 requests with date filter applied". Empty when nothing matches.
func (v *ReviewView) Summary() string {
	count := len(v.Filtered())
	if count == 0 {
		return ""
	}
	noun := "requests"
	if count == 1 {
		noun = "request"
	}
	summary := fmt.Sprintf("Showing %d %s", count, noun)
	if v.dates.Active() {
		summary += " with date filter applied"
	}
	return summary
}
