package service

import (
	"fmt"
	"time"

	"github.com/noah-isme/makeups-api/internal/models"
)

var baseTime = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)

func strPtr(v string) *string { return &v }

func makeRequest(id string, submittedAt time.Time, mutators ...func(*models.MakeupRequest)) models.MakeupRequest {
	req := models.MakeupRequest{
		ID:            id,
		Name:          "Student " + id,
		IDNumber:      "2021A7PS" + id,
		Email:         id + "@example.edu",
		CourseCode:    "CS101",
		EvalComponent: "Quiz",
		SubmittedAt:   submittedAt,
		Status:        models.RequestStatusPending,
	}
	for _, mutate := range mutators {
		mutate(&req)
	}
	return req
}

// requestSeries returns n requests submitted one hour apart, oldest first.
func requestSeries(n int) []models.MakeupRequest {
	out := make([]models.MakeupRequest, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, makeRequest(fmt.Sprintf("r%02d", i), baseTime.Add(time.Duration(i)*time.Hour)))
	}
	return out
}

func requestIDs(requests []models.MakeupRequest) []string {
	ids := make([]string, len(requests))
	for i, req := range requests {
		ids[i] = req.ID
	}
	return ids
}
