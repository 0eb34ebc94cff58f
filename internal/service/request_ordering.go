package service

import (
	"sort"

	"github.com/noah-isme/makeups-api/internal/models"
)

// SortByRecency returns a copy of requests ordered by submission time, most
// recent first. Requests sharing a timestamp keep their relative order.
func SortByRecency(requests []models.MakeupRequest) []models.MakeupRequest {
	sorted := make([]models.MakeupRequest, len(requests))
	copy(sorted, requests)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SubmittedAt.After(sorted[j].SubmittedAt)
	})
	return sorted
}
