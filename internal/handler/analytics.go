package handler

import (
	"net/http"

	"github.com/msomdec/coursetrack/internal/domain"
	"github.com/msomdec/coursetrack/internal/service"
)

// AnalyticsHandler serves the reporting endpoints.
type AnalyticsHandler struct {
	analytics *service.AnalyticsService
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(analytics *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics}
}

// parseAnalyticsQuery reads the shared query parameters and validates their
// ranges. Zero windows and limits fall back to the service defaults.
func parseAnalyticsQuery(r *http.Request) (analyticsQuery, error) {
	var q analyticsQuery
	var err error
	if q.InstructorID, err = queryID(r, "instructorId"); err != nil {
		return q, err
	}
	if q.CourseID, err = queryID(r, "courseId"); err != nil {
		return q, err
	}
	for name, dst := range map[string]*int{"months": &q.Months, "top": &q.Top, "days": &q.Days, "limit": &q.Limit} {
		if *dst, err = queryInt(r, name); err != nil {
			return q, err
		}
	}
	return q, validateStruct(q)
}

func (h *AnalyticsHandler) scope(r *http.Request) (domain.AnalyticsScope, analyticsQuery, error) {
	q, err := parseAnalyticsQuery(r)
	if err != nil {
		return domain.AnalyticsScope{}, q, err
	}
	return domain.AnalyticsScope{
		RequesterID:  UserFromContext(r.Context()).ID,
		InstructorID: q.InstructorID,
		CourseID:     q.CourseID,
	}, q, nil
}

// HandleOverview returns headline totals.
// GET /api/analytics/overview?instructorId=&courseId=
func (h *AnalyticsHandler) HandleOverview(w http.ResponseWriter, r *http.Request) {
	scope, _, err := h.scope(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	o, err := h.analytics.Overview(r.Context(), scope)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"overview": OverviewDTO(o)})
}

// HandleEnrollmentTrend returns monthly enrollments and the top courses.
// GET /api/analytics/enrollments?months=&top=
func (h *AnalyticsHandler) HandleEnrollmentTrend(w http.ResponseWriter, r *http.Request) {
	scope, q, err := h.scope(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	t, err := h.analytics.EnrollmentTrend(r.Context(), scope, q.Months, q.Top)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"trend": toEnrollmentTrendDTO(t)})
}

// HandlePerformance returns per-course and per-quiz performance.
// GET /api/analytics/performance
func (h *AnalyticsHandler) HandlePerformance(w http.ResponseWriter, r *http.Request) {
	scope, _, err := h.scope(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	p, err := h.analytics.Performance(r.Context(), scope)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"performance": toPerformanceDTO(p)})
}

// HandleEngagement returns daily activity, lesson engagement and the
// completion distribution.
// GET /api/analytics/engagement?days=
func (h *AnalyticsHandler) HandleEngagement(w http.ResponseWriter, r *http.Request) {
	scope, q, err := h.scope(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	e, err := h.analytics.Engagement(r.Context(), scope, q.Days)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"engagement": toEngagementDTO(e)})
}

// HandlePopular ranks courses by completions.
// GET /api/analytics/popular?limit=
func (h *AnalyticsHandler) HandlePopular(w http.ResponseWriter, r *http.Request) {
	scope, q, err := h.scope(r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	list, err := h.analytics.PopularCoursesByCompletion(r.Context(), scope, q.Limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": toPopularDTOs(list)})
}

// HandleInstructorStats returns totals across one instructor's courses.
// GET /api/instructors/{instructorID}/stats
func (h *AnalyticsHandler) HandleInstructorStats(w http.ResponseWriter, r *http.Request) {
	instructorID, err := pathID(r, "instructorID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	stats, err := h.analytics.InstructorStats(r.Context(), UserFromContext(r.Context()), instructorID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": InstructorStatsDTO(stats)})
}

// HandleCourseAnalytics returns the progress breakdown of one course.
// GET /api/courses/{courseID}/analytics
func (h *AnalyticsHandler) HandleCourseAnalytics(w http.ResponseWriter, r *http.Request) {
	courseID, err := pathID(r, "courseID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	a, err := h.analytics.CourseProgressAnalytics(r.Context(), UserFromContext(r.Context()), courseID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analytics": toCourseAnalyticsDTO(a)})
}
