package service

import "github.com/noah-isme/makeups-api/internal/models"

// Paginate returns the items of the 1-based page and the total page count.
// Pages outside the available range are empty.
func Paginate(items []models.MakeupRequest, page, pageSize int) ([]models.MakeupRequest, int) {
	if pageSize <= 0 {
		pageSize = models.DefaultPageSize
	}
	total := len(items)
	totalPages := (total + pageSize - 1) / pageSize

	start := (page - 1) * pageSize
	end := start + pageSize
	if start < 0 {
		start = 0
	}
	if end > total {
		end = total
	}
	if start >= end {
		return []models.MakeupRequest{}, totalPages
	}
	return items[start:end], totalPages
}
