package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/makeups-api/internal/models"
)

func TestFilterRequestsEmptyInputsKeepEverything(t *testing.T) {
	requests := requestSeries(5)
	filtered := FilterRequests(requests, "", models.DateFilter{})
	require.Equal(t, requestIDs(requests), requestIDs(filtered))
}

func TestFilterRequestsSearchIsCaseInsensitiveAcrossFields(t *testing.T) {
	physics := makeRequest("p1", baseTime, func(r *models.MakeupRequest) {
		r.CourseCode = "PHY101"
		r.EvalComponent = "Physics Midsem"
		r.Reason = strPtr("Hospitalised")
	})
	noReason := makeRequest("p2", baseTime.Add(time.Hour), func(r *models.MakeupRequest) {
		r.CourseCode = "PHY101"
	})
	other := makeRequest("c1", baseTime.Add(2*time.Hour))
	requests := []models.MakeupRequest{physics, noReason, other}

	require.Equal(t, []string{"p1"}, requestIDs(FilterRequests(requests, "physics", models.DateFilter{})))
	require.Equal(t, []string{"p1", "p2"}, requestIDs(FilterRequests(requests, "phy101", models.DateFilter{})))
	require.Equal(t, []string{"p1"}, requestIDs(FilterRequests(requests, "HOSPITAL", models.DateFilter{})))
	require.Empty(t, FilterRequests(requests, "<nil>", models.DateFilter{}), "absent fields never match")
	require.Equal(t, []string{"c1"}, requestIDs(FilterRequests(requests, "c1@EXAMPLE", models.DateFilter{})))
}

func TestFilterRequestsSearchMatchesRemarksAndStatus(t *testing.T) {
	decided := makeRequest("d1", baseTime, func(r *models.MakeupRequest) {
		r.Status = models.RequestStatusDenied
		r.FacultyRemarks = strPtr("Submitted too late")
	})
	pending := makeRequest("d2", baseTime)

	requests := []models.MakeupRequest{decided, pending}
	require.Equal(t, []string{"d1"}, requestIDs(FilterRequests(requests, "too late", models.DateFilter{})))
	require.Equal(t, []string{"d1"}, requestIDs(FilterRequests(requests, "denied", models.DateFilter{})))
}

func TestFilterRequestsEndDateIsInclusive(t *testing.T) {
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
	lateSameDay := makeRequest("late", day.Add(23*time.Hour+59*time.Minute))
	nextDay := makeRequest("next", day.Add(24*time.Hour+time.Second))
	requests := []models.MakeupRequest{lateSameDay, nextDay}

	filtered := FilterRequests(requests, "", models.DateFilter{End: &day})
	require.Equal(t, []string{"late"}, requestIDs(filtered))
}

func TestFilterRequestsStartDate(t *testing.T) {
	requests := requestSeries(4)
	start := baseTime.Add(2 * time.Hour)

	filtered := FilterRequests(requests, "", models.DateFilter{Start: &start})
	require.Equal(t, []string{"r02", "r03"}, requestIDs(filtered))
}

func TestFilterRequestsNarrowsMonotonically(t *testing.T) {
	requests := requestSeries(12)
	requests[3].EvalComponent = "Lab exam"
	requests[9].EvalComponent = "Lab exam"
	start := baseTime.Add(5 * time.Hour)

	searchOnly := FilterRequests(requests, "lab", models.DateFilter{})
	both := FilterRequests(requests, "lab", models.DateFilter{Start: &start})

	require.Len(t, searchOnly, 2)
	require.Equal(t, []string{"r09"}, requestIDs(both))
	require.LessOrEqual(t, len(both), len(searchOnly))
}

func TestFilterRequestsInvertedRangeYieldsNothing(t *testing.T) {
	requests := requestSeries(3)
	start := baseTime.Add(48 * time.Hour)
	end := baseTime

	filter := models.DateFilter{Start: &start, End: &end}
	require.True(t, filter.Inverted())
	require.Empty(t, FilterRequests(requests, "", filter))
}

func TestFilterRequestsDoesNotMutateInput(t *testing.T) {
	requests := requestSeries(3)
	before := requestIDs(requests)
	_ = FilterRequests(requests, "r01", models.DateFilter{})
	require.Equal(t, before, requestIDs(requests))
}
