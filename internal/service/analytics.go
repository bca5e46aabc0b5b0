package service

import (
	"context"
	"fmt"
	"time"

	"github.com/msomdec/coursetrack/internal/domain"
	"github.com/msomdec/coursetrack/internal/policy"
)

const (
	DefaultTrendMonths    = 12
	DefaultTopCourses     = 10
	DefaultEngagementDays = 30
	DefaultPopularCourses = 10
)

// AnalyticsService produces read-only summaries over progress, payment and
// quiz facts. It never writes.
type AnalyticsService struct {
	users    domain.UserRepository
	content  domain.ContentRepository
	progress domain.ProgressRepository
	payments domain.PaymentRepository
	quizzes  domain.QuizRepository
	now      func() time.Time
}

// NewAnalyticsService creates a new AnalyticsService.
func NewAnalyticsService(
	users domain.UserRepository,
	content domain.ContentRepository,
	progress domain.ProgressRepository,
	payments domain.PaymentRepository,
	quizzes domain.QuizRepository,
) *AnalyticsService {
	return &AnalyticsService{
		users:    users,
		content:  content,
		progress: progress,
		payments: payments,
		quizzes:  quizzes,
		now:      time.Now,
	}
}

// SetClock replaces the time source used for trailing windows.
func (s *AnalyticsService) SetClock(now func() time.Time) {
	s.now = now
}

// resolveScope returns the courses the scope spans after checking the
// requester may see them.
func (s *AnalyticsService) resolveScope(ctx context.Context, scope domain.AnalyticsScope) ([]domain.Course, error) {
	requester, err := s.users.GetByID(ctx, scope.RequesterID)
	if err != nil {
		return nil, wrapNotFound(err, "user", scope.RequesterID)
	}

	if scope.InstructorID != nil {
		if _, err := s.users.GetByID(ctx, *scope.InstructorID); err != nil {
			return nil, wrapNotFound(err, "instructor", *scope.InstructorID)
		}
	}

	switch {
	case scope.CourseID != nil:
		course, err := s.content.GetCourse(ctx, *scope.CourseID)
		if err != nil {
			return nil, wrapNotFound(err, "course", *scope.CourseID)
		}
		if err := policy.RequireCourseAnalytics(requester, course); err != nil {
			return nil, err
		}
		if scope.InstructorID != nil && course.InstructorID != *scope.InstructorID {
			return nil, fmt.Errorf("%w: course %d is not taught by instructor %d", domain.ErrInvalidInput, course.ID, *scope.InstructorID)
		}
		return []domain.Course{*course}, nil

	case scope.InstructorID != nil:
		if !policy.CanViewCourseAnalytics(requester.ID, *scope.InstructorID, requester.Role) {
			return nil, fmt.Errorf("%w: user %d may not view analytics of instructor %d", domain.ErrForbidden, requester.ID, *scope.InstructorID)
		}
		return s.content.ListCoursesByInstructor(ctx, *scope.InstructorID)

	default:
		if !policy.CanViewPlatform(requester.Role) {
			return nil, fmt.Errorf("%w: platform analytics require an admin", domain.ErrForbidden)
		}
		return s.content.ListCourses(ctx)
	}
}

func (s *AnalyticsService) Overview(ctx context.Context, scope domain.AnalyticsScope) (domain.Overview, error) {
	courses, err := s.resolveScope(ctx, scope)
	if err != nil {
		return domain.Overview{}, err
	}
	ids := courseIDs(courses)
	enrollments, err := s.progress.ListCourseProgressByCourses(ctx, ids)
	if err != nil {
		return domain.Overview{}, fmt.Errorf("list enrollments: %w", err)
	}
	payments, err := s.payments.ListCompletedByCourses(ctx, ids)
	if err != nil {
		return domain.Overview{}, fmt.Errorf("list payments: %w", err)
	}
	return buildOverview(courses, enrollments, payments), nil
}

// EnrollmentTrend buckets enrollments and revenue by month over the trailing
// windowMonths and ranks the topN courses by enrollment.
func (s *AnalyticsService) EnrollmentTrend(ctx context.Context, scope domain.AnalyticsScope, windowMonths, topN int) (domain.EnrollmentTrend, error) {
	if windowMonths <= 0 {
		windowMonths = DefaultTrendMonths
	}
	if topN <= 0 {
		topN = DefaultTopCourses
	}
	courses, err := s.resolveScope(ctx, scope)
	if err != nil {
		return domain.EnrollmentTrend{}, err
	}
	ids := courseIDs(courses)
	enrollments, err := s.progress.ListCourseProgressByCourses(ctx, ids)
	if err != nil {
		return domain.EnrollmentTrend{}, fmt.Errorf("list enrollments: %w", err)
	}
	payments, err := s.payments.ListCompletedByCourses(ctx, ids)
	if err != nil {
		return domain.EnrollmentTrend{}, fmt.Errorf("list payments: %w", err)
	}
	since := monthWindowStart(s.now(), windowMonths)
	return buildEnrollmentTrend(courses, enrollments, payments, since, topN), nil
}

func (s *AnalyticsService) Performance(ctx context.Context, scope domain.AnalyticsScope) (domain.Performance, error) {
	courses, err := s.resolveScope(ctx, scope)
	if err != nil {
		return domain.Performance{}, err
	}
	ids := courseIDs(courses)
	enrollments, err := s.progress.ListCourseProgressByCourses(ctx, ids)
	if err != nil {
		return domain.Performance{}, fmt.Errorf("list enrollments: %w", err)
	}
	quizzes, err := s.quizzes.ListQuizzesByCourses(ctx, ids)
	if err != nil {
		return domain.Performance{}, fmt.Errorf("list quizzes: %w", err)
	}
	attempts, err := s.quizzes.ListAttemptsByCourses(ctx, ids)
	if err != nil {
		return domain.Performance{}, fmt.Errorf("list quiz attempts: %w", err)
	}
	return buildPerformance(courses, enrollments, quizzes, attempts), nil
}

// Engagement reports daily active students over the trailing windowDays,
// per-lesson engagement and the completion distribution.
func (s *AnalyticsService) Engagement(ctx context.Context, scope domain.AnalyticsScope, windowDays int) (domain.Engagement, error) {
	if windowDays <= 0 {
		windowDays = DefaultEngagementDays
	}
	courses, err := s.resolveScope(ctx, scope)
	if err != nil {
		return domain.Engagement{}, err
	}
	ids := courseIDs(courses)
	lessons, err := s.content.ListLessonsByCourses(ctx, ids)
	if err != nil {
		return domain.Engagement{}, fmt.Errorf("list lessons: %w", err)
	}
	rows, err := s.progress.ListLessonProgressByCourses(ctx, ids)
	if err != nil {
		return domain.Engagement{}, fmt.Errorf("list lesson progress: %w", err)
	}
	enrollments, err := s.progress.ListCourseProgressByCourses(ctx, ids)
	if err != nil {
		return domain.Engagement{}, fmt.Errorf("list enrollments: %w", err)
	}

	since := dayWindowStart(s.now(), windowDays)
	return domain.Engagement{
		DailyActive:       buildDailyActive(rows, since),
		Lessons:           buildLessonEngagement(lessons, rows),
		CompletionBuckets: completionBuckets(enrollments),
	}, nil
}

func (s *AnalyticsService) PopularCoursesByCompletion(ctx context.Context, scope domain.AnalyticsScope, limit int) ([]domain.PopularCourse, error) {
	if limit <= 0 {
		limit = DefaultPopularCourses
	}
	courses, err := s.resolveScope(ctx, scope)
	if err != nil {
		return nil, err
	}
	enrollments, err := s.progress.ListCourseProgressByCourses(ctx, courseIDs(courses))
	if err != nil {
		return nil, fmt.Errorf("list enrollments: %w", err)
	}
	return buildPopular(courses, enrollments, limit), nil
}

func (s *AnalyticsService) InstructorStats(ctx context.Context, actor *domain.User, instructorID int64) (domain.InstructorStats, error) {
	courses, err := s.resolveScope(ctx, domain.AnalyticsScope{RequesterID: actor.ID, InstructorID: &instructorID})
	if err != nil {
		return domain.InstructorStats{}, err
	}
	ids := courseIDs(courses)
	enrollments, err := s.progress.ListCourseProgressByCourses(ctx, ids)
	if err != nil {
		return domain.InstructorStats{}, fmt.Errorf("list enrollments: %w", err)
	}
	payments, err := s.payments.ListCompletedByCourses(ctx, ids)
	if err != nil {
		return domain.InstructorStats{}, fmt.Errorf("list payments: %w", err)
	}
	return buildInstructorStats(instructorID, courses, enrollments, payments), nil
}

func (s *AnalyticsService) CourseProgressAnalytics(ctx context.Context, actor *domain.User, courseID int64) (domain.CourseProgressAnalytics, error) {
	courses, err := s.resolveScope(ctx, domain.AnalyticsScope{RequesterID: actor.ID, CourseID: &courseID})
	if err != nil {
		return domain.CourseProgressAnalytics{}, err
	}
	ids := []int64{courseID}
	enrollments, err := s.progress.ListCourseProgressByCourses(ctx, ids)
	if err != nil {
		return domain.CourseProgressAnalytics{}, fmt.Errorf("list enrollments: %w", err)
	}
	rows, err := s.progress.ListLessonProgressByCourses(ctx, ids)
	if err != nil {
		return domain.CourseProgressAnalytics{}, fmt.Errorf("list lesson progress: %w", err)
	}
	return buildCourseProgressAnalytics(courses[0], enrollments, rows), nil
}
