package handler

import (
	"time"

	"github.com/msomdec/coursetrack/internal/domain"
)

// Request bodies. Field rules are enforced by decodeAndValidate.

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type registerRequest struct {
	Email           string `json:"email" validate:"required,email,max=254"`
	DisplayName     string `json:"displayName" validate:"required,max=100"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	ConfirmPassword string `json:"confirmPassword" validate:"required,eqfield=Password"`
}

// studentTarget lets an admin act on someone else's progress. Zero means
// the caller.
type studentTarget struct {
	StudentID int64 `json:"studentId" validate:"gte=0"`
}

type completeLessonRequest struct {
	studentTarget
	WatchTime *int `json:"watchTime" validate:"omitempty,gte=0"`
}

type watchTimeRequest struct {
	studentTarget
	WatchTime    *int `json:"watchTime" validate:"required,gte=0"`
	LastPosition *int `json:"lastPosition" validate:"omitempty,gte=0"`
}

type reorderRequest struct {
	IDs []int64 `json:"ids" validate:"required,dive,gt=0"`
}

// analyticsQuery holds the query string of the analytics endpoints.
type analyticsQuery struct {
	InstructorID *int64 `validate:"omitempty,gt=0"`
	CourseID     *int64 `validate:"omitempty,gt=0"`
	Months       int    `validate:"gte=0,lte=60"`
	Top          int    `validate:"gte=0,lte=100"`
	Days         int    `validate:"gte=0,lte=365"`
	Limit        int    `validate:"gte=0,lte=100"`
}

// UserDTO is the JSON representation of a user.
type UserDTO struct {
	ID          int64  `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        string `json:"role"`
	CreatedAt   string `json:"createdAt"`
}

func toUserDTO(u *domain.User) UserDTO {
	return UserDTO{
		ID:          u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CreatedAt:   u.CreatedAt.Format(time.RFC3339),
	}
}

func formatOptional(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

type CourseProgressDTO struct {
	ID                   int64   `json:"id"`
	StudentID            int64   `json:"studentId"`
	CourseID             int64   `json:"courseId"`
	Status               string  `json:"status"`
	CompletionPercentage int     `json:"completionPercentage"`
	CompletedLessons     int     `json:"completedLessons"`
	TotalLessons         int     `json:"totalLessons"`
	StartedAt            string  `json:"startedAt"`
	CompletedAt          *string `json:"completedAt"`
	LastAccessedAt       string  `json:"lastAccessedAt"`
	CertificateEarned    bool    `json:"certificateEarned"`
}

func toCourseProgressDTO(p *domain.CourseProgress) CourseProgressDTO {
	return CourseProgressDTO{
		ID:                   p.ID,
		StudentID:            p.StudentID,
		CourseID:             p.CourseID,
		Status:               string(p.Status),
		CompletionPercentage: p.CompletionPercentage,
		CompletedLessons:     p.CompletedLessons,
		TotalLessons:         p.TotalLessons,
		StartedAt:            p.StartedAt.UTC().Format(time.RFC3339),
		CompletedAt:          formatOptional(p.CompletedAt),
		LastAccessedAt:       p.LastAccessedAt.UTC().Format(time.RFC3339),
		CertificateEarned:    p.CertificateEarned,
	}
}

func toCourseProgressDTOs(list []domain.CourseProgress) []CourseProgressDTO {
	dtos := make([]CourseProgressDTO, len(list))
	for i := range list {
		dtos[i] = toCourseProgressDTO(&list[i])
	}
	return dtos
}

type LessonProgressDTO struct {
	ID           int64   `json:"id"`
	StudentID    int64   `json:"studentId"`
	LessonID     int64   `json:"lessonId"`
	CourseID     int64   `json:"courseId"`
	IsCompleted  bool    `json:"isCompleted"`
	CompletedAt  *string `json:"completedAt"`
	WatchTime    int     `json:"watchTime"`
	LastPosition int     `json:"lastPosition"`
	UpdatedAt    string  `json:"updatedAt"`
}

func toLessonProgressDTO(p *domain.LessonProgress) LessonProgressDTO {
	return LessonProgressDTO{
		ID:           p.ID,
		StudentID:    p.StudentID,
		LessonID:     p.LessonID,
		CourseID:     p.CourseID,
		IsCompleted:  p.IsCompleted,
		CompletedAt:  formatOptional(p.CompletedAt),
		WatchTime:    p.WatchTime,
		LastPosition: p.LastPosition,
		UpdatedAt:    p.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type SummaryDTO struct {
	StudentID         int64   `json:"studentId"`
	TotalEnrolled     int     `json:"totalEnrolled"`
	Completed         int     `json:"completed"`
	InProgress        int     `json:"inProgress"`
	NotStarted        int     `json:"notStarted"`
	Certificates      int     `json:"certificates"`
	TotalWatchTime    int     `json:"totalWatchTime"`
	AverageCompletion float64 `json:"averageCompletion"`
}

func toSummaryDTO(s domain.UserProgressSummary) SummaryDTO {
	return SummaryDTO(s)
}

type CourseStatsDTO struct {
	TotalLessons     int `json:"totalLessons"`
	CompletedLessons int `json:"completedLessons"`
	TotalWatchTime   int `json:"totalWatchTime"`
	TotalDuration    int `json:"totalDuration"`
}

type CertificateDTO struct {
	CertificateNumber string `json:"certificateNumber"`
	StudentID         int64  `json:"studentId"`
	StudentName       string `json:"studentName"`
	CourseID          int64  `json:"courseId"`
	CourseTitle       string `json:"courseTitle"`
	InstructorName    string `json:"instructorName"`
	CompletedAt       string `json:"completedAt"`
}

func toCertificateDTO(c *domain.CertificateData) CertificateDTO {
	return CertificateDTO{
		CertificateNumber: c.CertificateNumber,
		StudentID:         c.StudentID,
		StudentName:       c.StudentName,
		CourseID:          c.CourseID,
		CourseTitle:       c.CourseTitle,
		InstructorName:    c.InstructorName,
		CompletedAt:       c.CompletedAt.UTC().Format(time.RFC3339),
	}
}

// Analytics responses.

type OverviewDTO struct {
	TotalStudents    int     `json:"totalStudents"`
	TotalCourses     int     `json:"totalCourses"`
	TotalEnrollments int     `json:"totalEnrollments"`
	TotalRevenue     float64 `json:"totalRevenue"`
	CompletionRate   float64 `json:"completionRate"`
}

type MonthlyTrendDTO struct {
	Month       string  `json:"month"`
	Enrollments int     `json:"enrollments"`
	Revenue     float64 `json:"revenue"`
}

type CourseRankingDTO struct {
	CourseID    int64   `json:"courseId"`
	Title       string  `json:"title"`
	Enrollments int     `json:"enrollments"`
	Revenue     float64 `json:"revenue"`
}

type EnrollmentTrendDTO struct {
	Months     []MonthlyTrendDTO  `json:"months"`
	TopCourses []CourseRankingDTO `json:"topCourses"`
}

func toEnrollmentTrendDTO(t domain.EnrollmentTrend) EnrollmentTrendDTO {
	dto := EnrollmentTrendDTO{
		Months:     make([]MonthlyTrendDTO, len(t.Months)),
		TopCourses: make([]CourseRankingDTO, len(t.TopCourses)),
	}
	for i, m := range t.Months {
		dto.Months[i] = MonthlyTrendDTO(m)
	}
	for i, c := range t.TopCourses {
		dto.TopCourses[i] = CourseRankingDTO(c)
	}
	return dto
}

type CoursePerformanceDTO struct {
	CourseID        int64   `json:"courseId"`
	Title           string  `json:"title"`
	Enrollments     int     `json:"enrollments"`
	AverageProgress float64 `json:"averageProgress"`
	Completions     int     `json:"completions"`
	DropoffRate     float64 `json:"dropoffRate"`
}

type QuizPerformanceDTO struct {
	QuizID       int64   `json:"quizId"`
	CourseID     int64   `json:"courseId"`
	Title        string  `json:"title"`
	AverageScore float64 `json:"averageScore"`
	Attempts     int     `json:"attempts"`
	PassRate     float64 `json:"passRate"`
}

type PerformanceDTO struct {
	Courses []CoursePerformanceDTO `json:"courses"`
	Quizzes []QuizPerformanceDTO   `json:"quizzes"`
}

func toPerformanceDTO(p domain.Performance) PerformanceDTO {
	dto := PerformanceDTO{
		Courses: make([]CoursePerformanceDTO, len(p.Courses)),
		Quizzes: make([]QuizPerformanceDTO, len(p.Quizzes)),
	}
	for i, c := range p.Courses {
		dto.Courses[i] = CoursePerformanceDTO(c)
	}
	for i, q := range p.Quizzes {
		dto.Quizzes[i] = QuizPerformanceDTO(q)
	}
	return dto
}

type DailyActiveDTO struct {
	Date        string `json:"date"`
	ActiveUsers int    `json:"activeUsers"`
}

type LessonEngagementDTO struct {
	LessonID         int64   `json:"lessonId"`
	CourseID         int64   `json:"courseId"`
	Title            string  `json:"title"`
	Views            int     `json:"views"`
	Completions      int     `json:"completions"`
	AverageWatchTime float64 `json:"averageWatchTime"`
	CompletionRate   float64 `json:"completionRate"`
}

type BucketDTO struct {
	Label string `json:"label"`
	Min   int    `json:"min"`
	Max   int    `json:"max"`
	Count int    `json:"count"`
}

type EngagementDTO struct {
	DailyActive       []DailyActiveDTO      `json:"dailyActive"`
	Lessons           []LessonEngagementDTO `json:"lessons"`
	CompletionBuckets []BucketDTO           `json:"completionBuckets"`
}

func toBucketDTOs(buckets []domain.EngagementBucket) []BucketDTO {
	dtos := make([]BucketDTO, len(buckets))
	for i, b := range buckets {
		dtos[i] = BucketDTO(b)
	}
	return dtos
}

func toEngagementDTO(e domain.Engagement) EngagementDTO {
	dto := EngagementDTO{
		DailyActive:       make([]DailyActiveDTO, len(e.DailyActive)),
		Lessons:           make([]LessonEngagementDTO, len(e.Lessons)),
		CompletionBuckets: toBucketDTOs(e.CompletionBuckets),
	}
	for i, d := range e.DailyActive {
		dto.DailyActive[i] = DailyActiveDTO(d)
	}
	for i, l := range e.Lessons {
		dto.Lessons[i] = LessonEngagementDTO(l)
	}
	return dto
}

type PopularCourseDTO struct {
	CourseID       int64   `json:"courseId"`
	Title          string  `json:"title"`
	Enrollments    int     `json:"enrollments"`
	Completions    int     `json:"completions"`
	CompletionRate float64 `json:"completionRate"`
}

func toPopularDTOs(list []domain.PopularCourse) []PopularCourseDTO {
	dtos := make([]PopularCourseDTO, len(list))
	for i, c := range list {
		dtos[i] = PopularCourseDTO(c)
	}
	return dtos
}

type InstructorStatsDTO struct {
	InstructorID      int64   `json:"instructorId"`
	TotalCourses      int     `json:"totalCourses"`
	TotalStudents     int     `json:"totalStudents"`
	TotalEnrollments  int     `json:"totalEnrollments"`
	Completions       int     `json:"completions"`
	TotalRevenue      float64 `json:"totalRevenue"`
	AverageCompletion float64 `json:"averageCompletion"`
}

type CourseAnalyticsDTO struct {
	CourseID          int64       `json:"courseId"`
	Title             string      `json:"title"`
	Enrollments       int         `json:"enrollments"`
	NotStarted        int         `json:"notStarted"`
	InProgress        int         `json:"inProgress"`
	Completed         int         `json:"completed"`
	AverageCompletion float64     `json:"averageCompletion"`
	AverageWatchTime  float64     `json:"averageWatchTime"`
	Distribution      []BucketDTO `json:"distribution"`
}

func toCourseAnalyticsDTO(a domain.CourseProgressAnalytics) CourseAnalyticsDTO {
	return CourseAnalyticsDTO{
		CourseID:          a.CourseID,
		Title:             a.Title,
		Enrollments:       a.Enrollments,
		NotStarted:        a.NotStarted,
		InProgress:        a.InProgress,
		Completed:         a.Completed,
		AverageCompletion: a.AverageCompletion,
		AverageWatchTime:  a.AverageWatchTime,
		Distribution:      toBucketDTOs(a.Distribution),
	}
}
