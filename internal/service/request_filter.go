package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/makeups-api/internal/models"
)

// FilterRequests keeps the requests matching both the search term and the
// date range. An empty term and an empty filter keep everything. The input
// order is preserved and the input slice is never modified.
func FilterRequests(requests []models.MakeupRequest, search string, dates models.DateFilter) []models.MakeupRequest {
	filtered := make([]models.MakeupRequest, 0, len(requests))
	needle := strings.ToLower(search)
	for _, req := range requests {
		if !matchesSearch(req, needle) {
			continue
		}
		if !MatchesDateRange(req.SubmittedAt, dates) {
			continue
		}
		filtered = append(filtered, req)
	}
	return filtered
}

// MatchesSearch reports whether any field of req contains term, ignoring case.
func MatchesSearch(req models.MakeupRequest, term string) bool {
	return matchesSearch(req, strings.ToLower(term))
}

func matchesSearch(req models.MakeupRequest, needle string) bool {
	if needle == "" {
		return true
	}
	for _, value := range req.SearchValues() {
		if value == nil {
			continue
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(value)), needle) {
			return true
		}
	}
	return false
}

// MatchesDateRange applies the inclusive date bounds to a submission time.
func MatchesDateRange(submittedAt time.Time, dates models.DateFilter) bool {
	if dates.Start != nil && submittedAt.Before(*dates.Start) {
		return false
	}
	if dates.End != nil && submittedAt.After(models.EndOfDay(*dates.End)) {
		return false
	}
	return true
}
