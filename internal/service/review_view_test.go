package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/makeups-api/internal/models"
)

func newTestView() *ReviewView {
	return NewReviewView(models.Session{Email: "ic@example.edu"}, "CS101", models.RequestStatusPending, 0)
}

func TestReviewViewPagesNewestFirst(t *testing.T) {
	view := newTestView()
	view.SetRequests(requestSeries(25))

	page := view.Page()
	require.Equal(t, models.DefaultPageSize, view.PageSize())
	require.Len(t, page.Items, 10)
	require.Equal(t, "r24", page.Items[0].ID)
	require.Equal(t, models.Pagination{Page: 1, PageSize: 10, TotalCount: 25, TotalPages: 3}, page.Pagination)

	view.SetPage(3)
	page = view.Page()
	require.Len(t, page.Items, 5)
	require.Equal(t, "r00", page.Items[4].ID)
}

func TestReviewViewResetsPageOnInputChanges(t *testing.T) {
	view := newTestView()
	view.SetRequests(requestSeries(25))

	view.SetPage(3)
	view.SetSearch("r1")
	require.Equal(t, 1, view.CurrentPage())

	view.SetPage(2)
	start := baseTime.Add(5 * time.Hour)
	view.SetDateFilter(models.DateFilter{Start: &start})
	require.Equal(t, 1, view.CurrentPage())

	view.SetPage(2)
	view.SetRequests(requestSeries(3))
	require.Equal(t, 1, view.CurrentPage())
}

func TestReviewViewSetPageClampsLowerBound(t *testing.T) {
	view := newTestView()
	view.SetPage(-2)
	require.Equal(t, 1, view.CurrentPage())
}

func TestReviewViewPagePastEndIsEmpty(t *testing.T) {
	view := newTestView()
	view.SetRequests(requestSeries(4))
	view.SetPage(5)

	page := view.Page()
	require.Empty(t, page.Items)
	require.Equal(t, 1, page.Pagination.TotalPages)
}

func TestReviewViewSummary(t *testing.T) {
	view := newTestView()
	require.Empty(t, view.Summary())

	view.SetRequests(requestSeries(3))
	require.Equal(t, "Showing 3 requests", view.Summary())

	view.SetSearch("r02")
	require.Equal(t, "Showing 1 request", view.Summary())

	end := baseTime.Add(48 * time.Hour)
	view.SetDateFilter(models.DateFilter{End: &end})
	require.Equal(t, "Showing 1 request with date filter applied", view.Summary())
}

func TestReviewViewFind(t *testing.T) {
	view := newTestView()
	view.SetRequests(requestSeries(3))

	req, ok := view.Find("r01")
	require.True(t, ok)
	require.Equal(t, "Student r01", req.Name)

	_, ok = view.Find("missing")
	require.False(t, ok)
}
