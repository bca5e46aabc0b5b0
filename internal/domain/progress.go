package domain

import (
	"context"
	"math"
	"time"
)

type ProgressStatus string

const (
	StatusNotStarted ProgressStatus = "NOT_STARTED"
	StatusInProgress ProgressStatus = "IN_PROGRESS"
	StatusCompleted  ProgressStatus = "COMPLETED"
)

// LessonProgress is a student's completion and watch state for one lesson.
// Unique per (StudentID, LessonID).
type LessonProgress struct {
	ID           int64
	StudentID    int64
	LessonID     int64
	CourseID     int64
	IsCompleted  bool
	CompletedAt  *time.Time
	WatchTime    int // Seconds, never decreases
	LastPosition int // Seconds
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CourseProgress is a student's enrollment in a course together with the
// completion state derived from their LessonProgress rows.
// Unique per (StudentID, CourseID).
type CourseProgress struct {
	ID                   int64
	StudentID            int64
	CourseID             int64
	Status               ProgressStatus
	CompletionPercentage int
	CompletedLessons     int
	TotalLessons         int
	StartedAt            time.Time
	CompletedAt          *time.Time
	LastAccessedAt       time.Time
	CertificateEarned    bool
}

// CourseProgressStats summarises one student's lesson facts within a course.
type CourseProgressStats struct {
	TotalLessons     int
	CompletedLessons int
	TotalWatchTime   int
	TotalDuration    int
}

// UserProgressSummary aggregates a student's CourseProgress rows. It is
// computed on demand and never stored.
type UserProgressSummary struct {
	StudentID         int64
	TotalEnrolled     int
	Completed         int
	InProgress        int
	NotStarted        int
	Certificates      int
	TotalWatchTime    int
	AverageCompletion float64
}

// CertificateData is what a certificate renderer needs for a completed course.
type CertificateData struct {
	CertificateNumber string
	StudentID         int64
	StudentName       string
	CourseID          int64
	CourseTitle       string
	InstructorName    string
	CompletedAt       time.Time
}

// CompletionPercentage returns round(completed / total * 100), clamped to
// [0, 100]. A course without lessons is 0% complete.
func CompletionPercentage(completed, total int) int {
	if total <= 0 || completed <= 0 {
		return 0
	}
	pct := int(math.Round(float64(completed) / float64(total) * 100))
	return min(pct, 100)
}

// DeriveStatus maps a completion percentage to a status. Status is never
// stored independently of the percentage.
func DeriveStatus(pct int) ProgressStatus {
	switch {
	case pct >= 100:
		return StatusCompleted
	case pct > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// ProgressRepository persists lesson and course progress.
type ProgressRepository interface {
	GetByID(ctx context.Context, id int64) (*CourseProgress, error)
	GetCourseProgress(ctx context.Context, courseID, studentID int64) (*CourseProgress, error)
	ListByUser(ctx context.Context, studentID int64) ([]CourseProgress, error)
	CreateCourseProgress(ctx context.Context, progress *CourseProgress) error
	UpdateCourseProgress(ctx context.Context, progress *CourseProgress) error
	DeleteCourseProgress(ctx context.Context, id int64) error

	GetLessonProgress(ctx context.Context, lessonID, studentID int64) (*LessonProgress, error)
	CreateLessonProgress(ctx context.Context, progress *LessonProgress) error
	UpdateLessonProgress(ctx context.Context, progress *LessonProgress) error
	ListLessonProgress(ctx context.Context, courseID, studentID int64) ([]LessonProgress, error)

	// GetCourseProgressStats counts lessons under the course and the
	// student's completed lessons from current storage state.
	GetCourseProgressStats(ctx context.Context, courseID, studentID int64) (CourseProgressStats, error)

	// ResetCourseProgress deletes the student's lesson rows under the course
	// and zeroes the course row in one transaction. Returns ErrNotFound if
	// the course row does not exist.
	ResetCourseProgress(ctx context.Context, courseID, studentID int64) error

	// Read-only fact queries for analytics.
	ListCourseProgressByCourses(ctx context.Context, courseIDs []int64) ([]CourseProgress, error)
	ListLessonProgressByCourses(ctx context.Context, courseIDs []int64) ([]LessonProgress, error)
}
