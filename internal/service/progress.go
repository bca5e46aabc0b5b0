package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/msomdec/coursetrack/internal/domain"
	"github.com/msomdec/coursetrack/internal/policy"
)

// certificateNamespace seeds the deterministic certificate numbers.
var certificateNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://coursetrack.local/certificates"))

// ProgressService maintains per-student lesson and course progress. Course
// percentages are always re-derived from stored lesson facts, never
// incremented, so concurrent completions cannot lose updates.
type ProgressService struct {
	users    domain.UserRepository
	content  domain.ContentRepository
	progress domain.ProgressRepository
	now      func() time.Time

	// recomputeMu serializes the read-stats-then-write cycle of Recompute.
	recomputeMu sync.Mutex
}

// NewProgressService creates a new ProgressService.
func NewProgressService(users domain.UserRepository, content domain.ContentRepository, progress domain.ProgressRepository) *ProgressService {
	return &ProgressService{
		users:    users,
		content:  content,
		progress: progress,
		now:      time.Now,
	}
}

// SetClock replaces the time source. Tests use it to pin timestamps.
func (s *ProgressService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *ProgressService) clock() time.Time {
	return s.now().UTC()
}

// StartCourse enrolls the student. Starting an already started course
// returns the existing row unchanged.
func (s *ProgressService) StartCourse(ctx context.Context, actor *domain.User, courseID, studentID int64) (*domain.CourseProgress, error) {
	if err := policy.RequireMutate(actor, studentID); err != nil {
		return nil, err
	}
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	if _, err := s.content.GetCourse(ctx, courseID); err != nil {
		return nil, wrapNotFound(err, "course", courseID)
	}
	return s.ensureCourseProgress(ctx, courseID, studentID)
}

// ensureCourseProgress returns the (student, course) row, creating it at 0%
// when absent. A concurrent creator winning the insert is not an error.
func (s *ProgressService) ensureCourseProgress(ctx context.Context, courseID, studentID int64) (*domain.CourseProgress, error) {
	existing, err := s.progress.GetCourseProgress(ctx, courseID, studentID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("get course progress: %w", err)
	}

	total, err := s.content.CountLessons(ctx, courseID)
	if err != nil {
		return nil, fmt.Errorf("count lessons: %w", err)
	}

	now := s.clock()
	cp := &domain.CourseProgress{
		StudentID:      studentID,
		CourseID:       courseID,
		Status:         domain.StatusNotStarted,
		TotalLessons:   total,
		StartedAt:      now,
		LastAccessedAt: now,
	}
	if err := s.progress.CreateCourseProgress(ctx, cp); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return s.progress.GetCourseProgress(ctx, courseID, studentID)
		}
		return nil, fmt.Errorf("create course progress: %w", err)
	}
	return cp, nil
}

// CompleteLesson marks the lesson completed and recomputes the owning
// course. Completing an already completed lesson only raises WatchTime.
func (s *ProgressService) CompleteLesson(ctx context.Context, actor *domain.User, lessonID, studentID int64, watchTime *int) (*domain.LessonProgress, error) {
	if err := policy.RequireMutate(actor, studentID); err != nil {
		return nil, err
	}
	watched := 0
	if watchTime != nil {
		if *watchTime < 0 {
			return nil, fmt.Errorf("%w: watch time must not be negative", domain.ErrInvalidInput)
		}
		watched = *watchTime
	}
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	lesson, err := s.content.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, wrapNotFound(err, "lesson", lessonID)
	}

	now := s.clock()
	lp, err := s.progress.GetLessonProgress(ctx, lessonID, studentID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		lp = &domain.LessonProgress{
			StudentID:   studentID,
			LessonID:    lessonID,
			CourseID:    lesson.CourseID,
			IsCompleted: true,
			CompletedAt: &now,
			WatchTime:   watched,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		err = s.progress.CreateLessonProgress(ctx, lp)
		if errors.Is(err, domain.ErrConflict) {
			lp, err = s.progress.GetLessonProgress(ctx, lessonID, studentID)
			if err == nil {
				err = s.markCompleted(ctx, lp, watched, now)
			}
		}
	case err == nil:
		err = s.markCompleted(ctx, lp, watched, now)
	}
	if err != nil {
		return nil, fmt.Errorf("save lesson progress: %w", err)
	}

	if _, err := s.ensureCourseProgress(ctx, lesson.CourseID, studentID); err != nil {
		return nil, err
	}
	if _, err := s.Recompute(ctx, lesson.CourseID, studentID); err != nil {
		return nil, err
	}
	return lp, nil
}

func (s *ProgressService) markCompleted(ctx context.Context, lp *domain.LessonProgress, watched int, now time.Time) error {
	if !lp.IsCompleted {
		lp.IsCompleted = true
		lp.CompletedAt = &now
	}
	lp.WatchTime = max(lp.WatchTime, watched)
	lp.UpdatedAt = now
	return s.progress.UpdateLessonProgress(ctx, lp)
}

// UpdateWatchTime records playback telemetry. It never marks completion
// and never lowers the stored watch time.
func (s *ProgressService) UpdateWatchTime(ctx context.Context, actor *domain.User, lessonID, studentID int64, watchTime int, lastPosition *int) (*domain.LessonProgress, error) {
	if err := policy.RequireMutate(actor, studentID); err != nil {
		return nil, err
	}
	if watchTime < 0 || (lastPosition != nil && *lastPosition < 0) {
		return nil, fmt.Errorf("%w: watch time and position must not be negative", domain.ErrInvalidInput)
	}
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	lesson, err := s.content.GetLesson(ctx, lessonID)
	if err != nil {
		return nil, wrapNotFound(err, "lesson", lessonID)
	}

	now := s.clock()
	lp, err := s.progress.GetLessonProgress(ctx, lessonID, studentID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		lp = &domain.LessonProgress{
			StudentID: studentID,
			LessonID:  lessonID,
			CourseID:  lesson.CourseID,
			WatchTime: watchTime,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if lastPosition != nil {
			lp.LastPosition = *lastPosition
		}
		err = s.progress.CreateLessonProgress(ctx, lp)
		if errors.Is(err, domain.ErrConflict) {
			lp, err = s.progress.GetLessonProgress(ctx, lessonID, studentID)
			if err == nil {
				err = s.applyWatch(ctx, lp, watchTime, lastPosition, now)
			}
		}
	case err == nil:
		err = s.applyWatch(ctx, lp, watchTime, lastPosition, now)
	}
	if err != nil {
		return nil, fmt.Errorf("save lesson progress: %w", err)
	}

	if err := s.touchCourse(ctx, lesson.CourseID, studentID, now); err != nil {
		return nil, err
	}
	return lp, nil
}

func (s *ProgressService) applyWatch(ctx context.Context, lp *domain.LessonProgress, watchTime int, lastPosition *int, now time.Time) error {
	lp.WatchTime = max(lp.WatchTime, watchTime)
	if lastPosition != nil {
		lp.LastPosition = *lastPosition
	}
	lp.UpdatedAt = now
	return s.progress.UpdateLessonProgress(ctx, lp)
}

// touchCourse bumps LastAccessedAt on an existing enrollment only.
func (s *ProgressService) touchCourse(ctx context.Context, courseID, studentID int64, now time.Time) error {
	cp, err := s.progress.GetCourseProgress(ctx, courseID, studentID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("get course progress: %w", err)
	}
	cp.LastAccessedAt = now
	if err := s.progress.UpdateCourseProgress(ctx, cp); err != nil {
		return fmt.Errorf("touch course progress: %w", err)
	}
	return nil
}

// ResetCourseProgress removes the student's lesson rows under the course and
// zeroes the course row.
func (s *ProgressService) ResetCourseProgress(ctx context.Context, actor *domain.User, courseID, studentID int64) error {
	if err := policy.RequireMutate(actor, studentID); err != nil {
		return err
	}
	if err := s.progress.ResetCourseProgress(ctx, courseID, studentID); err != nil {
		return wrapNotFound(err, "progress for course", courseID)
	}
	slog.Info("course progress reset", "course_id", courseID, "student_id", studentID, "actor_id", actor.ID)
	return nil
}

// Recompute re-derives the course row from current lesson facts. CompletedAt
// is stamped once, on the first transition to 100%, and kept afterwards even
// if added lessons pull the percentage back down. Status and
// CertificateEarned always follow the current percentage.
func (s *ProgressService) Recompute(ctx context.Context, courseID, studentID int64) (*domain.CourseProgress, error) {
	s.recomputeMu.Lock()
	defer s.recomputeMu.Unlock()

	cp, err := s.progress.GetCourseProgress(ctx, courseID, studentID)
	if err != nil {
		return nil, wrapNotFound(err, "progress for course", courseID)
	}
	stats, err := s.progress.GetCourseProgressStats(ctx, courseID, studentID)
	if err != nil {
		return nil, fmt.Errorf("course progress stats: %w", err)
	}

	now := s.clock()
	pct := domain.CompletionPercentage(stats.CompletedLessons, stats.TotalLessons)
	status := domain.DeriveStatus(pct)

	cp.TotalLessons = stats.TotalLessons
	cp.CompletedLessons = min(stats.CompletedLessons, stats.TotalLessons)
	cp.CompletionPercentage = pct
	cp.Status = status
	cp.LastAccessedAt = now

	cp.CertificateEarned = status == domain.StatusCompleted
	if cp.CertificateEarned && cp.CompletedAt == nil {
		cp.CompletedAt = &now
		slog.Info("course completed", "course_id", courseID, "student_id", studentID)
	}

	if err := s.progress.UpdateCourseProgress(ctx, cp); err != nil {
		return nil, fmt.Errorf("update course progress: %w", err)
	}
	return cp, nil
}

// GetCourseProgress returns the student's enrollment row for a course.
func (s *ProgressService) GetCourseProgress(ctx context.Context, actor *domain.User, courseID, studentID int64) (*domain.CourseProgress, error) {
	if err := policy.RequireView(actor, studentID); err != nil {
		return nil, err
	}
	cp, err := s.progress.GetCourseProgress(ctx, courseID, studentID)
	if err != nil {
		return nil, wrapNotFound(err, "progress for course", courseID)
	}
	return cp, nil
}

func (s *ProgressService) GetLessonProgress(ctx context.Context, actor *domain.User, lessonID, studentID int64) (*domain.LessonProgress, error) {
	if err := policy.RequireView(actor, studentID); err != nil {
		return nil, err
	}
	lp, err := s.progress.GetLessonProgress(ctx, lessonID, studentID)
	if err != nil {
		return nil, wrapNotFound(err, "progress for lesson", lessonID)
	}
	return lp, nil
}

func (s *ProgressService) ListCourseLessonProgress(ctx context.Context, actor *domain.User, courseID, studentID int64) ([]domain.LessonProgress, error) {
	if err := policy.RequireView(actor, studentID); err != nil {
		return nil, err
	}
	return s.progress.ListLessonProgress(ctx, courseID, studentID)
}

// GetUserProgress lists every enrollment of the student, most recently
// accessed first.
func (s *ProgressService) GetUserProgress(ctx context.Context, actor *domain.User, studentID int64) ([]domain.CourseProgress, error) {
	if err := policy.RequireView(actor, studentID); err != nil {
		return nil, err
	}
	if err := s.requireStudent(ctx, studentID); err != nil {
		return nil, err
	}
	return s.progress.ListByUser(ctx, studentID)
}

func (s *ProgressService) GetUserSummary(ctx context.Context, actor *domain.User, studentID int64) (domain.UserProgressSummary, error) {
	rows, err := s.GetUserProgress(ctx, actor, studentID)
	if err != nil {
		return domain.UserProgressSummary{}, err
	}

	summary := summarize(rows)
	summary.StudentID = studentID
	for _, cp := range rows {
		stats, err := s.progress.GetCourseProgressStats(ctx, cp.CourseID, studentID)
		if err != nil {
			return domain.UserProgressSummary{}, fmt.Errorf("course progress stats: %w", err)
		}
		summary.TotalWatchTime += stats.TotalWatchTime
	}
	return summary, nil
}

// summarize counts enrollments by status. Watch time is filled in by the
// caller since it lives on lesson rows.
func summarize(rows []domain.CourseProgress) domain.UserProgressSummary {
	var sum domain.UserProgressSummary
	var pct int
	for _, cp := range rows {
		sum.TotalEnrolled++
		pct += cp.CompletionPercentage
		switch cp.Status {
		case domain.StatusCompleted:
			sum.Completed++
		case domain.StatusInProgress:
			sum.InProgress++
		default:
			sum.NotStarted++
		}
		if cp.CertificateEarned {
			sum.Certificates++
		}
	}
	if sum.TotalEnrolled > 0 {
		sum.AverageCompletion = round2(float64(pct) / float64(sum.TotalEnrolled))
	}
	return sum
}

func (s *ProgressService) GetCourseStats(ctx context.Context, actor *domain.User, courseID, studentID int64) (domain.CourseProgressStats, error) {
	if err := policy.RequireView(actor, studentID); err != nil {
		return domain.CourseProgressStats{}, err
	}
	if _, err := s.content.GetCourse(ctx, courseID); err != nil {
		return domain.CourseProgressStats{}, wrapNotFound(err, "course", courseID)
	}
	return s.progress.GetCourseProgressStats(ctx, courseID, studentID)
}

// GetCertificateData returns what a certificate renderer needs. The course
// must be completed.
func (s *ProgressService) GetCertificateData(ctx context.Context, actor *domain.User, courseID, studentID int64) (*domain.CertificateData, error) {
	cp, err := s.GetCourseProgress(ctx, actor, courseID, studentID)
	if err != nil {
		return nil, err
	}
	if cp.Status != domain.StatusCompleted || cp.CompletedAt == nil {
		return nil, fmt.Errorf("%w: course %d is not completed", domain.ErrInvalidInput, courseID)
	}

	student, err := s.users.GetByID(ctx, studentID)
	if err != nil {
		return nil, wrapNotFound(err, "student", studentID)
	}
	course, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		return nil, wrapNotFound(err, "course", courseID)
	}
	instructor, err := s.users.GetByID(ctx, course.InstructorID)
	if err != nil {
		return nil, wrapNotFound(err, "instructor", course.InstructorID)
	}

	return &domain.CertificateData{
		CertificateNumber: CertificateNumber(studentID, courseID),
		StudentID:         studentID,
		StudentName:       student.DisplayName,
		CourseID:          courseID,
		CourseTitle:       course.Title,
		InstructorName:    instructor.DisplayName,
		CompletedAt:       *cp.CompletedAt,
	}, nil
}

// CertificateNumber is stable for a (student, course) pair, so reissuing a
// certificate yields the same number.
func CertificateNumber(studentID, courseID int64) string {
	name := strconv.FormatInt(studentID, 10) + ":" + strconv.FormatInt(courseID, 10)
	return uuid.NewSHA1(certificateNamespace, []byte(name)).String()
}

func (s *ProgressService) requireStudent(ctx context.Context, studentID int64) error {
	if _, err := s.users.GetByID(ctx, studentID); err != nil {
		return wrapNotFound(err, "student", studentID)
	}
	return nil
}

// wrapNotFound adds the missing entity to ErrNotFound and wraps anything
// else as a storage failure.
func wrapNotFound(err error, what string, id int64) error {
	if errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("%w: %s %d", domain.ErrNotFound, what, id)
	}
	return fmt.Errorf("get %s %d: %w", what, id, err)
}
