// Package view holds the templ components of the analytics dashboard.
//
//go:generate templ generate
package view

import (
	"strconv"

	"github.com/msomdec/coursetrack/internal/domain"
)

// DashboardData is everything the dashboard page shows at first load.
type DashboardData struct {
	DisplayName  string
	ScopeLabel   string
	Overview     domain.Overview
	Popular      []domain.PopularCourse
	Buckets      []domain.EngagementBucket
	Lessons      []domain.LessonEngagement
	TotalLessons int
}

func decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func percent(v float64) string {
	return decimal(v) + "%"
}
