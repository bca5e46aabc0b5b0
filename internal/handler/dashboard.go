package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	datastar "github.com/starfederation/datastar-go/datastar"

	"github.com/msomdec/coursetrack/internal/domain"
	"github.com/msomdec/coursetrack/internal/service"
	"github.com/msomdec/coursetrack/internal/view"
)

const lessonPageSize = 10

// DashboardHandler handles the analytics dashboard page.
type DashboardHandler struct {
	analytics *service.AnalyticsService
}

// NewDashboardHandler creates a new DashboardHandler.
func NewDashboardHandler(analytics *service.AnalyticsService) *DashboardHandler {
	return &DashboardHandler{analytics: analytics}
}

// dashboardScope narrows instructors to their own courses. Everyone else
// gets the platform scope, which the analytics service reserves for admins.
func dashboardScope(user *domain.User) (domain.AnalyticsScope, string) {
	scope := domain.AnalyticsScope{RequesterID: user.ID}
	if user.Role != domain.RoleInstructor {
		return scope, "All courses"
	}
	id := user.ID
	scope.InstructorID = &id
	return scope, "Your courses"
}

func pageOf(lessons []domain.LessonEngagement, offset int) []domain.LessonEngagement {
	if offset >= len(lessons) {
		return nil
	}
	return lessons[offset:min(offset+lessonPageSize, len(lessons))]
}

func writeDashboardError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
	default:
		slog.Error("render analytics dashboard", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// HandleDashboard renders the analytics dashboard page.
// GET /dashboard/analytics
func (h *DashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	scope, label := dashboardScope(user)

	overview, err := h.analytics.Overview(r.Context(), scope)
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	popular, err := h.analytics.PopularCoursesByCompletion(r.Context(), scope, 0)
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	engagement, err := h.analytics.Engagement(r.Context(), scope, 0)
	if err != nil {
		writeDashboardError(w, err)
		return
	}

	data := view.DashboardData{
		DisplayName:  user.DisplayName,
		ScopeLabel:   label,
		Overview:     overview,
		Popular:      popular,
		Buckets:      engagement.CompletionBuckets,
		Lessons:      pageOf(engagement.Lessons, 0),
		TotalLessons: len(engagement.Lessons),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := view.DashboardPage(data).Render(r.Context(), w); err != nil {
		slog.Error("write analytics dashboard", "error", err)
	}
}

// HandleLoadMoreLessons streams the next page of lesson engagement rows.
// GET /dashboard/analytics/lessons?offset=
func (h *DashboardHandler) HandleLoadMoreLessons(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			offset = parsed
		}
	}

	scope, _ := dashboardScope(user)
	engagement, err := h.analytics.Engagement(r.Context(), scope, 0)
	if err != nil {
		writeDashboardError(w, err)
		return
	}
	page := pageOf(engagement.Lessons, offset)

	sse := datastar.NewSSE(w, r)

	if err := sse.PatchElementTempl(
		view.LessonRows(page),
		datastar.WithSelectorID("lesson-engagement-list"),
		datastar.WithModeAppend(),
	); err != nil {
		slog.Error("patch lesson rows", "error", err)
		return
	}

	// Replace the load-more button (updates count or removes it).
	if err := sse.PatchElementTempl(
		view.LoadMoreLessons(len(engagement.Lessons), offset+len(page)),
	); err != nil {
		slog.Error("patch load more button", "error", err)
	}
}
