package handler

import (
	"net/http"

	"github.com/msomdec/coursetrack/internal/domain"
	"github.com/msomdec/coursetrack/internal/service"
)

// ProgressHandler serves enrollment and lesson progress endpoints.
type ProgressHandler struct {
	progress *service.ProgressService
}

// NewProgressHandler creates a new ProgressHandler.
func NewProgressHandler(progress *service.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// resolveTarget returns the student a mutation applies to.
func resolveTarget(actor *domain.User, target studentTarget) int64 {
	if target.StudentID == 0 {
		return actor.ID
	}
	return target.StudentID
}

// HandleStartCourse enrolls a student in a course.
// POST /api/courses/{courseID}/start
// Request:  {"studentId": 0} (optional)
// Response: {"progress": {...}}
func (h *ProgressHandler) HandleStartCourse(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	courseID, err := pathID(r, "courseID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var target studentTarget
	if r.ContentLength != 0 {
		if err := decodeAndValidate(w, r, &target); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	cp, err := h.progress.StartCourse(r.Context(), actor, courseID, resolveTarget(actor, target))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"progress": toCourseProgressDTO(cp)})
}

// HandleGetCourseProgress returns one enrollment with its lesson rows.
// GET /api/courses/{courseID}/progress?studentId=
func (h *ProgressHandler) HandleGetCourseProgress(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	courseID, err := pathID(r, "courseID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	studentID, err := studentParam(r, actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	cp, err := h.progress.GetCourseProgress(r.Context(), actor, courseID, studentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	lessons, err := h.progress.ListCourseLessonProgress(r.Context(), actor, courseID, studentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	lessonDTOs := make([]LessonProgressDTO, len(lessons))
	for i := range lessons {
		lessonDTOs[i] = toLessonProgressDTO(&lessons[i])
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"progress": toCourseProgressDTO(cp),
		"lessons":  lessonDTOs,
	})
}

// HandleResetCourseProgress wipes a student's progress in a course.
// DELETE /api/courses/{courseID}/progress?studentId=
func (h *ProgressHandler) HandleResetCourseProgress(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	courseID, err := pathID(r, "courseID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	studentID, err := studentParam(r, actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.progress.ResetCourseProgress(r.Context(), actor, courseID, studentID); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleCourseStats returns lesson and watch-time counts for an enrollment.
// GET /api/courses/{courseID}/stats?studentId=
func (h *ProgressHandler) HandleCourseStats(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	courseID, err := pathID(r, "courseID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	studentID, err := studentParam(r, actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	stats, err := h.progress.GetCourseStats(r.Context(), actor, courseID, studentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"stats": CourseStatsDTO(stats)})
}

// HandleCertificate returns certificate data for a completed course.
// GET /api/courses/{courseID}/certificate?studentId=
func (h *ProgressHandler) HandleCertificate(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	courseID, err := pathID(r, "courseID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	studentID, err := studentParam(r, actor)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	cert, err := h.progress.GetCertificateData(r.Context(), actor, courseID, studentID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"certificate": toCertificateDTO(cert)})
}

// HandleCompleteLesson marks a lesson completed.
// POST /api/lessons/{lessonID}/complete
// Request:  {"studentId": 0, "watchTime": 120} (both optional)
// Response: {"lesson": {...}}
func (h *ProgressHandler) HandleCompleteLesson(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	lessonID, err := pathID(r, "lessonID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req completeLessonRequest
	if r.ContentLength != 0 {
		if err := decodeAndValidate(w, r, &req); err != nil {
			writeServiceError(w, r, err)
			return
		}
	}

	lp, err := h.progress.CompleteLesson(r.Context(), actor, lessonID, resolveTarget(actor, req.studentTarget), req.WatchTime)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lesson": toLessonProgressDTO(lp)})
}

// HandleUpdateWatchTime records playback progress on a lesson.
// PUT /api/lessons/{lessonID}/watch-time
// Request:  {"watchTime": 120, "lastPosition": 118}
// Response: {"lesson": {...}}
func (h *ProgressHandler) HandleUpdateWatchTime(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	lessonID, err := pathID(r, "lessonID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	var req watchTimeRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	lp, err := h.progress.UpdateWatchTime(r.Context(), actor, lessonID, resolveTarget(actor, req.studentTarget), *req.WatchTime, req.LastPosition)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"lesson": toLessonProgressDTO(lp)})
}

// HandleUserProgress lists a student's enrollments.
// GET /api/users/{userID}/progress
func (h *ProgressHandler) HandleUserProgress(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	userID, err := pathID(r, "userID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	rows, err := h.progress.GetUserProgress(r.Context(), actor, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"courses": toCourseProgressDTOs(rows)})
}

// HandleUserSummary returns a student's aggregate progress.
// GET /api/users/{userID}/summary
func (h *ProgressHandler) HandleUserSummary(w http.ResponseWriter, r *http.Request) {
	actor := UserFromContext(r.Context())
	userID, err := pathID(r, "userID")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	summary, err := h.progress.GetUserSummary(r.Context(), actor, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summary": toSummaryDTO(summary)})
}
