package handler

import (
	"net/http"

	"github.com/msomdec/coursetrack/internal/service"
)

// Handlers bundles every HTTP handler the server mounts.
type Handlers struct {
	Auth      *service.AuthService
	Health    *HealthHandler
	Login     *AuthHandler
	Progress  *ProgressHandler
	Analytics *AnalyticsHandler
	Content   *ContentHandler
	Dashboard *DashboardHandler
}

// RegisterRoutes sets up all HTTP routes on the given mux.
func RegisterRoutes(mux *http.ServeMux, h Handlers) {
	authed := func(fn http.HandlerFunc) http.Handler {
		return RequireAuth(h.Auth, fn)
	}

	mux.HandleFunc("GET /healthz", h.Health.HandleHealthz)

	mux.HandleFunc("POST /api/auth/login", h.Login.HandleLogin)
	mux.HandleFunc("POST /api/auth/register", h.Login.HandleRegister)
	mux.HandleFunc("POST /api/auth/logout", h.Login.HandleLogout)
	mux.Handle("GET /api/auth/me", authed(h.Login.HandleMe))

	mux.Handle("POST /api/courses/{courseID}/start", authed(h.Progress.HandleStartCourse))
	mux.Handle("GET /api/courses/{courseID}/progress", authed(h.Progress.HandleGetCourseProgress))
	mux.Handle("DELETE /api/courses/{courseID}/progress", authed(h.Progress.HandleResetCourseProgress))
	mux.Handle("GET /api/courses/{courseID}/stats", authed(h.Progress.HandleCourseStats))
	mux.Handle("GET /api/courses/{courseID}/certificate", authed(h.Progress.HandleCertificate))
	mux.Handle("POST /api/lessons/{lessonID}/complete", authed(h.Progress.HandleCompleteLesson))
	mux.Handle("PUT /api/lessons/{lessonID}/watch-time", authed(h.Progress.HandleUpdateWatchTime))
	mux.Handle("GET /api/users/{userID}/progress", authed(h.Progress.HandleUserProgress))
	mux.Handle("GET /api/users/{userID}/summary", authed(h.Progress.HandleUserSummary))

	mux.Handle("PUT /api/courses/{courseID}/modules/order", authed(h.Content.HandleReorderModules))
	mux.Handle("PUT /api/modules/{moduleID}/lessons/order", authed(h.Content.HandleReorderLessons))

	mux.Handle("GET /api/analytics/overview", authed(h.Analytics.HandleOverview))
	mux.Handle("GET /api/analytics/enrollments", authed(h.Analytics.HandleEnrollmentTrend))
	mux.Handle("GET /api/analytics/performance", authed(h.Analytics.HandlePerformance))
	mux.Handle("GET /api/analytics/engagement", authed(h.Analytics.HandleEngagement))
	mux.Handle("GET /api/analytics/popular", authed(h.Analytics.HandlePopular))
	mux.Handle("GET /api/instructors/{instructorID}/stats", authed(h.Analytics.HandleInstructorStats))
	mux.Handle("GET /api/courses/{courseID}/analytics", authed(h.Analytics.HandleCourseAnalytics))

	mux.Handle("GET /dashboard/analytics", authed(h.Dashboard.HandleDashboard))
	mux.Handle("GET /dashboard/analytics/lessons", authed(h.Dashboard.HandleLoadMoreLessons))
}
