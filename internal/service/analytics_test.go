package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/coursetrack/internal/domain"
)

func ptr(v int64) *int64 { return &v }

func (e *testEnv) enroll(t *testing.T, courseID, studentID int64, pct int, started time.Time) {
	t.Helper()
	cp := &domain.CourseProgress{
		StudentID:            studentID,
		CourseID:             courseID,
		CompletionPercentage: pct,
		Status:               domain.DeriveStatus(pct),
		StartedAt:            started,
	}
	require.NoError(t, e.db.Progress().CreateCourseProgress(context.Background(), cp))
}

func TestAnalyticsService_Scope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other := env.addUser(t, "other-inst@example.com", domain.RoleInstructor)
	own, _ := env.addCourse(t, env.instructor.ID, 1)
	foreign, _ := env.addCourse(t, other.ID, 1)

	tests := []struct {
		name    string
		scope   domain.AnalyticsScope
		wantErr error
	}{
		{"instructor own course", domain.AnalyticsScope{RequesterID: env.instructor.ID, CourseID: ptr(own.ID)}, nil},
		{"instructor other course", domain.AnalyticsScope{RequesterID: env.instructor.ID, CourseID: ptr(foreign.ID)}, domain.ErrForbidden},
		{"instructor own scope", domain.AnalyticsScope{RequesterID: env.instructor.ID, InstructorID: ptr(env.instructor.ID)}, nil},
		{"instructor other scope", domain.AnalyticsScope{RequesterID: env.instructor.ID, InstructorID: ptr(other.ID)}, domain.ErrForbidden},
		{"instructor platform", domain.AnalyticsScope{RequesterID: env.instructor.ID}, domain.ErrForbidden},
		{"student platform", domain.AnalyticsScope{RequesterID: env.student.ID}, domain.ErrForbidden},
		{"admin platform", domain.AnalyticsScope{RequesterID: env.admin.ID}, nil},
		{"admin foreign course", domain.AnalyticsScope{RequesterID: env.admin.ID, CourseID: ptr(foreign.ID)}, nil},
		{"unknown requester", domain.AnalyticsScope{RequesterID: 999}, domain.ErrNotFound},
		{"unknown course", domain.AnalyticsScope{RequesterID: env.admin.ID, CourseID: ptr(999)}, domain.ErrNotFound},
		{"unknown instructor", domain.AnalyticsScope{RequesterID: env.admin.ID, InstructorID: ptr(999)}, domain.ErrNotFound},
		{"course outside instructor", domain.AnalyticsScope{RequesterID: env.admin.ID, InstructorID: ptr(env.instructor.ID), CourseID: ptr(foreign.ID)}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.analytics.Overview(ctx, tt.scope)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnalyticsService_Overview_ScopedToInstructor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	other := env.addUser(t, "other-inst@example.com", domain.RoleInstructor)
	s2 := env.addUser(t, "s2@example.com", domain.RoleStudent)
	own, _ := env.addCourse(t, env.instructor.ID, 1)
	foreign, _ := env.addCourse(t, other.ID, 1)
	now := env.clock.Now()

	env.enroll(t, own.ID, env.student.ID, 100, now)
	env.enroll(t, own.ID, s2.ID, 0, now)
	env.enroll(t, foreign.ID, env.student.ID, 100, now)
	for _, p := range []*domain.Payment{
		{StudentID: env.student.ID, CourseID: own.ID, Amount: 20, Status: domain.PaymentCompleted},
		{StudentID: s2.ID, CourseID: own.ID, Amount: 20, Status: domain.PaymentRefunded},
		{StudentID: env.student.ID, CourseID: foreign.ID, Amount: 99, Status: domain.PaymentCompleted},
	} {
		require.NoError(t, env.db.Payments().Create(ctx, p))
	}

	got, err := env.analytics.Overview(ctx, domain.AnalyticsScope{RequesterID: env.instructor.ID, InstructorID: ptr(env.instructor.ID)})
	require.NoError(t, err)
	assert.Equal(t, domain.Overview{
		TotalStudents:    2,
		TotalCourses:     1,
		TotalEnrollments: 2,
		TotalRevenue:     20,
		CompletionRate:   50,
	}, got)

	platform, err := env.analytics.Overview(ctx, domain.AnalyticsScope{RequesterID: env.admin.ID})
	require.NoError(t, err)
	assert.Equal(t, 2, platform.TotalCourses)
	assert.Equal(t, 3, platform.TotalEnrollments)
	assert.Equal(t, 119.0, platform.TotalRevenue)
}

func TestAnalyticsService_Overview_Empty(t *testing.T) {
	env := newTestEnv(t)
	got, err := env.analytics.Overview(context.Background(), domain.AnalyticsScope{RequesterID: env.admin.ID})
	require.NoError(t, err)
	assert.Equal(t, domain.Overview{}, got)
}

func TestAnalyticsService_EnrollmentTrend(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	course, _ := env.addCourse(t, env.instructor.ID, 1)
	jan := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)

	for i, started := range []time.Time{jan, jan, jan, feb} {
		s := env.addUser(t, "trend"+string(rune('a'+i))+"@example.com", domain.RoleStudent)
		env.enroll(t, course.ID, s.ID, 0, started)
	}

	got, err := env.analytics.EnrollmentTrend(ctx, domain.AnalyticsScope{RequesterID: env.instructor.ID, CourseID: ptr(course.ID)}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, []domain.MonthlyTrend{
		{Month: "2024-01", Enrollments: 3, Revenue: 0},
		{Month: "2024-02", Enrollments: 1, Revenue: 0},
	}, got.Months)
	require.Len(t, got.TopCourses, 1)
	assert.Equal(t, domain.CourseRanking{CourseID: course.ID, Title: course.Title, Enrollments: 4}, got.TopCourses[0])
}

func TestAnalyticsService_Performance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	course, lessons := env.addCourse(t, env.instructor.ID, 1)
	now := env.clock.Now()

	var students []*domain.User
	for i, pct := range []int{100, 100, 100, 100, 75, 75, 25, 25, 25, 0} {
		s := env.addUser(t, "perf"+string(rune('a'+i))+"@example.com", domain.RoleStudent)
		students = append(students, s)
		env.enroll(t, course.ID, s.ID, pct, now)
	}

	quiz := &domain.Quiz{LessonID: lessons[0].ID, Title: "Check", PassingScore: 70}
	require.NoError(t, env.db.Quizzes().CreateQuiz(ctx, quiz))
	for i, score := range []float64{90, 60, 70, 100} {
		a := &domain.QuizAttempt{QuizID: quiz.ID, StudentID: students[i].ID, Score: score, Passed: score >= quiz.PassingScore}
		require.NoError(t, env.db.Quizzes().CreateAttempt(ctx, a))
	}

	got, err := env.analytics.Performance(ctx, domain.AnalyticsScope{RequesterID: env.instructor.ID, CourseID: ptr(course.ID)})
	require.NoError(t, err)
	require.Len(t, got.Courses, 1)
	assert.Equal(t, 62.5, got.Courses[0].AverageProgress)
	assert.Equal(t, 4, got.Courses[0].Completions)
	assert.Equal(t, 60.0, got.Courses[0].DropoffRate)

	require.Len(t, got.Quizzes, 1)
	assert.Equal(t, 4, got.Quizzes[0].Attempts)
	assert.Equal(t, 80.0, got.Quizzes[0].AverageScore)
	assert.Equal(t, 75.0, got.Quizzes[0].PassRate)
}

func TestAnalyticsService_Engagement(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	course, lessons := env.addCourse(t, env.instructor.ID, 2)
	s2 := env.addUser(t, "s2@example.com", domain.RoleStudent)

	_, err := env.progress.CompleteLesson(ctx, env.student, lessons[0].ID, env.student.ID, intPtr(100))
	require.NoError(t, err)
	_, err = env.progress.UpdateWatchTime(ctx, s2, lessons[0].ID, s2.ID, 20, nil)
	require.NoError(t, err)

	env.clock.Set(env.clock.Now().Add(24 * time.Hour))
	_, err = env.progress.CompleteLesson(ctx, env.student, lessons[1].ID, env.student.ID, nil)
	require.NoError(t, err)

	got, err := env.analytics.Engagement(ctx, domain.AnalyticsScope{RequesterID: env.instructor.ID, CourseID: ptr(course.ID)}, 0)
	require.NoError(t, err)

	assert.Equal(t, []domain.DailyActiveUsers{
		{Date: "2024-03-15", ActiveUsers: 2},
		{Date: "2024-03-16", ActiveUsers: 1},
	}, got.DailyActive)

	require.Len(t, got.Lessons, 2)
	assert.Equal(t, lessons[0].ID, got.Lessons[0].LessonID)
	assert.Equal(t, 2, got.Lessons[0].Views)
	assert.Equal(t, 60.0, got.Lessons[0].AverageWatchTime)
	assert.Equal(t, 50.0, got.Lessons[0].CompletionRate)

	require.Len(t, got.CompletionBuckets, 6)
	assert.Equal(t, 1, got.CompletionBuckets[5].Count)
}

func TestAnalyticsService_InstructorStatsAndCourseAnalytics(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	course, lessons := env.addCourse(t, env.instructor.ID, 2)
	env.addCourse(t, env.instructor.ID, 0)

	_, err := env.progress.CompleteLesson(ctx, env.student, lessons[0].ID, env.student.ID, intPtr(90))
	require.NoError(t, err)
	require.NoError(t, env.db.Payments().Create(ctx, &domain.Payment{
		StudentID: env.student.ID, CourseID: course.ID, Amount: 20, Status: domain.PaymentCompleted,
	}))

	stats, err := env.analytics.InstructorStats(ctx, env.instructor, env.instructor.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InstructorStats{
		InstructorID:      env.instructor.ID,
		TotalCourses:      2,
		TotalStudents:     1,
		TotalEnrollments:  1,
		TotalRevenue:      20,
		AverageCompletion: 50,
	}, stats)

	_, err = env.analytics.InstructorStats(ctx, env.student, env.instructor.ID)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	ca, err := env.analytics.CourseProgressAnalytics(ctx, env.instructor, course.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, ca.Enrollments)
	assert.Equal(t, 1, ca.InProgress)
	assert.Equal(t, 90.0, ca.AverageWatchTime)

	popular, err := env.analytics.PopularCoursesByCompletion(ctx, domain.AnalyticsScope{RequesterID: env.admin.ID}, 0)
	require.NoError(t, err)
	assert.Len(t, popular, 2)
}
