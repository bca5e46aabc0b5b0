package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/coursetrack/internal/domain"
)

func enrollment(courseID, studentID int64, pct int, started time.Time) domain.CourseProgress {
	return domain.CourseProgress{
		CourseID:             courseID,
		StudentID:            studentID,
		CompletionPercentage: pct,
		Status:               domain.DeriveStatus(pct),
		StartedAt:            started,
	}
}

func TestRound2(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{62.5, 62.5},
		{33.333333, 33.33},
		{66.666666, 66.67},
		{0.125, 0.13},
		{-0.125, -0.13},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, round2(tt.in), "round2(%v)", tt.in)
	}
}

func TestPercent_ZeroWhole(t *testing.T) {
	assert.Equal(t, 0.0, percent(0, 0))
	assert.Equal(t, 0.0, percent(5, 0))
	assert.Equal(t, 50.0, percent(1, 2))
}

func TestBuildOverview(t *testing.T) {
	courses := []domain.Course{{ID: 1}, {ID: 2}}
	now := time.Now()
	enrollments := []domain.CourseProgress{
		enrollment(1, 10, 100, now),
		enrollment(1, 11, 40, now),
		enrollment(2, 10, 0, now),
	}
	payments := []domain.Payment{{CourseID: 1, Amount: 19.99}, {CourseID: 2, Amount: 5.01}}

	got := buildOverview(courses, enrollments, payments)

	assert.Equal(t, domain.Overview{
		TotalStudents:    2,
		TotalCourses:     2,
		TotalEnrollments: 3,
		TotalRevenue:     25,
		CompletionRate:   33.33,
	}, got)
}

func TestBuildOverview_Empty(t *testing.T) {
	assert.Equal(t, domain.Overview{}, buildOverview(nil, nil, nil))
}

func TestBuildEnrollmentTrend_MonthlyBuckets(t *testing.T) {
	jan := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 3, 0, 0, 0, 0, time.UTC)
	courses := []domain.Course{{ID: 1, Title: "Go"}}
	enrollments := []domain.CourseProgress{
		enrollment(1, 1, 0, feb),
		enrollment(1, 2, 0, jan),
		enrollment(1, 3, 0, jan),
		enrollment(1, 4, 0, jan),
	}
	since := monthWindowStart(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 12)

	got := buildEnrollmentTrend(courses, enrollments, nil, since, 10)

	assert.Equal(t, []domain.MonthlyTrend{
		{Month: "2024-01", Enrollments: 3, Revenue: 0},
		{Month: "2024-02", Enrollments: 1, Revenue: 0},
	}, got.Months)
	require.Len(t, got.TopCourses, 1)
	assert.Equal(t, 4, got.TopCourses[0].Enrollments)
}

func TestBuildEnrollmentTrend_WindowAndRanking(t *testing.T) {
	old := time.Date(2022, 6, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	courses := []domain.Course{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}}
	enrollments := []domain.CourseProgress{
		enrollment(2, 1, 0, old),
		enrollment(2, 2, 0, recent),
		enrollment(3, 1, 0, recent),
		enrollment(3, 2, 0, recent),
		enrollment(1, 3, 0, recent),
		enrollment(1, 4, 0, recent),
	}
	payments := []domain.Payment{
		{CourseID: 1, Amount: 30, CreatedAt: recent},
		{CourseID: 3, Amount: 10, CreatedAt: old},
	}
	since := monthWindowStart(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 12)

	got := buildEnrollmentTrend(courses, enrollments, payments, since, 2)

	assert.Equal(t, []domain.MonthlyTrend{{Month: "2024-03", Enrollments: 5, Revenue: 30}}, got.Months)
	// All three courses have 2 enrollments; revenue breaks the tie, then id.
	require.Len(t, got.TopCourses, 2)
	assert.Equal(t, int64(1), got.TopCourses[0].CourseID)
	assert.Equal(t, int64(3), got.TopCourses[1].CourseID)
}

func TestBuildEnrollmentTrend_Empty(t *testing.T) {
	got := buildEnrollmentTrend(nil, nil, nil, time.Now(), 10)
	assert.NotNil(t, got.Months)
	assert.NotNil(t, got.TopCourses)
	assert.Empty(t, got.Months)
}

func TestMonthWindowStart_CrossesYear(t *testing.T) {
	got := monthWindowStart(time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC), 12)
	assert.Equal(t, time.Date(2023, 4, 1, 0, 0, 0, 0, time.UTC), got)
}

func TestBuildPerformance(t *testing.T) {
	now := time.Now()
	courses := []domain.Course{{ID: 1, Title: "Go"}, {ID: 2, Title: "Empty"}}
	var enrollments []domain.CourseProgress
	for i, pct := range []int{100, 100, 100, 100, 50, 50, 50, 25, 25, 25} {
		enrollments = append(enrollments, enrollment(1, int64(i+1), pct, now))
	}
	quizzes := []domain.Quiz{{ID: 7, CourseID: 1, Title: "Q1"}, {ID: 8, CourseID: 1, Title: "Q2"}}
	attempts := []domain.QuizAttempt{
		{QuizID: 7, Score: 80, Passed: true},
		{QuizID: 7, Score: 40, Passed: false},
		{QuizID: 7, Score: 95, Passed: true},
	}

	got := buildPerformance(courses, enrollments, quizzes, attempts)

	require.Len(t, got.Courses, 2)
	assert.Equal(t, domain.CoursePerformance{
		CourseID: 1, Title: "Go", Enrollments: 10, AverageProgress: 62.5, Completions: 4, DropoffRate: 60,
	}, got.Courses[0])
	assert.Equal(t, domain.CoursePerformance{CourseID: 2, Title: "Empty"}, got.Courses[1])

	require.Len(t, got.Quizzes, 2)
	assert.Equal(t, 3, got.Quizzes[0].Attempts)
	assert.Equal(t, 71.67, got.Quizzes[0].AverageScore)
	assert.Equal(t, 66.67, got.Quizzes[0].PassRate)
	assert.Equal(t, domain.QuizPerformance{QuizID: 8, CourseID: 1, Title: "Q2"}, got.Quizzes[1])
}

func TestBuildDailyActive(t *testing.T) {
	day1 := time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 11, 23, 59, 0, 0, time.UTC)
	rows := []domain.LessonProgress{
		{StudentID: 1, LessonID: 1, CreatedAt: day1, UpdatedAt: day2},
		{StudentID: 1, LessonID: 2, CreatedAt: day1, UpdatedAt: day1},
		{StudentID: 2, LessonID: 1, CreatedAt: day2, UpdatedAt: day2},
		{StudentID: 3, LessonID: 1, CreatedAt: day1.AddDate(0, -2, 0), UpdatedAt: day1.AddDate(0, -2, 0)},
	}
	since := dayWindowStart(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), 30)

	got := buildDailyActive(rows, since)

	assert.Equal(t, []domain.DailyActiveUsers{
		{Date: "2024-03-10", ActiveUsers: 1},
		{Date: "2024-03-11", ActiveUsers: 2},
	}, got)
}

func TestBuildLessonEngagement(t *testing.T) {
	lessons := []domain.Lesson{
		{ID: 1, CourseID: 1, Title: "Intro", Duration: 300},
		{ID: 2, CourseID: 1, Title: "Setup", Duration: 600},
		{ID: 3, CourseID: 1, Title: "Unwatched", Duration: 60},
	}
	rows := []domain.LessonProgress{
		{LessonID: 2, StudentID: 1, WatchTime: 100, IsCompleted: true},
		{LessonID: 2, StudentID: 2, WatchTime: 50},
		{LessonID: 2, StudentID: 3, WatchTime: 0},
		{LessonID: 1, StudentID: 1, WatchTime: 300, IsCompleted: true},
	}

	got := buildLessonEngagement(lessons, rows)

	require.Len(t, got, 3)
	assert.Equal(t, domain.LessonEngagement{
		LessonID: 2, CourseID: 1, Title: "Setup", Views: 3, Completions: 1, AverageWatchTime: 50, CompletionRate: 33.33,
	}, got[0])
	assert.Equal(t, int64(1), got[1].LessonID)
	assert.Equal(t, 100.0, got[1].CompletionRate)
	assert.Equal(t, domain.LessonEngagement{LessonID: 3, CourseID: 1, Title: "Unwatched"}, got[2])
}

func TestCompletionBuckets(t *testing.T) {
	now := time.Now()
	var enrollments []domain.CourseProgress
	for _, pct := range []int{0, 0, 1, 25, 26, 75, 99, 100} {
		enrollments = append(enrollments, enrollment(1, 1, pct, now))
	}

	got := completionBuckets(enrollments)

	counts := make([]int, len(got))
	for i, b := range got {
		counts[i] = b.Count
	}
	assert.Equal(t, []int{2, 2, 1, 1, 1, 1}, counts)
	assert.Len(t, completionBuckets(nil), 6)
}

func TestBuildPopular(t *testing.T) {
	now := time.Now()
	courses := []domain.Course{{ID: 1, Title: "A"}, {ID: 2, Title: "B"}, {ID: 3, Title: "C"}}
	enrollments := []domain.CourseProgress{
		enrollment(1, 1, 100, now),
		enrollment(1, 2, 10, now),
		enrollment(2, 1, 100, now),
		enrollment(2, 2, 100, now),
		enrollment(3, 1, 100, now),
	}

	got := buildPopular(courses, enrollments, 10)

	require.Len(t, got, 3)
	assert.Equal(t, []int64{2, 3, 1}, []int64{got[0].CourseID, got[1].CourseID, got[2].CourseID})
	assert.Equal(t, 50.0, got[2].CompletionRate)
	assert.Len(t, buildPopular(courses, enrollments, 1), 1)
}

func TestBuildCourseProgressAnalytics(t *testing.T) {
	now := time.Now()
	course := domain.Course{ID: 1, Title: "Go"}
	enrollments := []domain.CourseProgress{
		enrollment(1, 1, 0, now),
		enrollment(1, 2, 50, now),
		enrollment(1, 3, 100, now),
	}
	rows := []domain.LessonProgress{{WatchTime: 60}, {WatchTime: 240}}

	got := buildCourseProgressAnalytics(course, enrollments, rows)

	assert.Equal(t, 3, got.Enrollments)
	assert.Equal(t, 1, got.NotStarted)
	assert.Equal(t, 1, got.InProgress)
	assert.Equal(t, 1, got.Completed)
	assert.Equal(t, 50.0, got.AverageCompletion)
	assert.Equal(t, 100.0, got.AverageWatchTime)
	assert.Len(t, got.Distribution, 6)

	empty := buildCourseProgressAnalytics(course, nil, nil)
	assert.Zero(t, empty.AverageCompletion)
	assert.Zero(t, empty.AverageWatchTime)
}
