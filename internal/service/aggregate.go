package service

import (
	"cmp"
	"math"
	"slices"
	"time"

	"github.com/msomdec/coursetrack/internal/domain"
)

// The functions in this file are total over their inputs: empty facts give
// zero values and non-nil slices, never NaN.

// round2 rounds half away from zero to two decimals.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// percent returns 100 * part / whole rounded to two decimals, 0 when whole
// is zero.
func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return round2(100 * float64(part) / float64(whole))
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return round2(sum / float64(n))
}

func courseIDs(courses []domain.Course) []int64 {
	ids := make([]int64, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
	}
	return ids
}

func isComplete(cp domain.CourseProgress) bool {
	return cp.CompletionPercentage >= 100
}

func buildOverview(courses []domain.Course, enrollments []domain.CourseProgress, payments []domain.Payment) domain.Overview {
	students := make(map[int64]struct{})
	completed := 0
	for _, e := range enrollments {
		students[e.StudentID] = struct{}{}
		if isComplete(e) {
			completed++
		}
	}
	var revenue float64
	for _, p := range payments {
		revenue += p.Amount
	}
	return domain.Overview{
		TotalStudents:    len(students),
		TotalCourses:     len(courses),
		TotalEnrollments: len(enrollments),
		TotalRevenue:     round2(revenue),
		CompletionRate:   percent(completed, len(enrollments)),
	}
}

// monthWindowStart returns the first instant of the oldest month in a
// trailing window that includes the month of now.
func monthWindowStart(now time.Time, months int) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()-time.Month(months-1), 1, 0, 0, 0, 0, time.UTC)
}

// dayWindowStart returns midnight UTC of the oldest day in a trailing window
// that includes today.
func dayWindowStart(now time.Time, days int) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), now.Day()-(days-1), 0, 0, 0, 0, time.UTC)
}

// buildEnrollmentTrend buckets enrollments by StartedAt month and completed
// payments by CreatedAt month. Only months with data appear. The course
// ranking covers all time.
func buildEnrollmentTrend(courses []domain.Course, enrollments []domain.CourseProgress, payments []domain.Payment, since time.Time, topN int) domain.EnrollmentTrend {
	months := make(map[string]*domain.MonthlyTrend)
	bucket := func(t time.Time) *domain.MonthlyTrend {
		key := t.UTC().Format("2006-01")
		m, ok := months[key]
		if !ok {
			m = &domain.MonthlyTrend{Month: key}
			months[key] = m
		}
		return m
	}

	enrolled := make(map[int64]int)
	revenue := make(map[int64]float64)
	for _, e := range enrollments {
		enrolled[e.CourseID]++
		if !e.StartedAt.Before(since) {
			bucket(e.StartedAt).Enrollments++
		}
	}
	for _, p := range payments {
		revenue[p.CourseID] += p.Amount
		if !p.CreatedAt.Before(since) {
			bucket(p.CreatedAt).Revenue += p.Amount
		}
	}

	trend := domain.EnrollmentTrend{
		Months:     make([]domain.MonthlyTrend, 0, len(months)),
		TopCourses: make([]domain.CourseRanking, 0, len(courses)),
	}
	for _, m := range months {
		m.Revenue = round2(m.Revenue)
		trend.Months = append(trend.Months, *m)
	}
	slices.SortFunc(trend.Months, func(a, b domain.MonthlyTrend) int {
		return cmp.Compare(a.Month, b.Month)
	})

	for _, c := range courses {
		trend.TopCourses = append(trend.TopCourses, domain.CourseRanking{
			CourseID:    c.ID,
			Title:       c.Title,
			Enrollments: enrolled[c.ID],
			Revenue:     round2(revenue[c.ID]),
		})
	}
	slices.SortFunc(trend.TopCourses, func(a, b domain.CourseRanking) int {
		return cmp.Or(
			cmp.Compare(b.Enrollments, a.Enrollments),
			cmp.Compare(b.Revenue, a.Revenue),
			cmp.Compare(a.CourseID, b.CourseID),
		)
	})
	if len(trend.TopCourses) > topN {
		trend.TopCourses = trend.TopCourses[:topN]
	}
	return trend
}

type courseTally struct {
	enrollments int
	completions int
	pctSum      int
}

func tallyCourses(enrollments []domain.CourseProgress) map[int64]*courseTally {
	tally := make(map[int64]*courseTally)
	for _, e := range enrollments {
		t, ok := tally[e.CourseID]
		if !ok {
			t = &courseTally{}
			tally[e.CourseID] = t
		}
		t.enrollments++
		t.pctSum += e.CompletionPercentage
		if isComplete(e) {
			t.completions++
		}
	}
	return tally
}

func buildPerformance(courses []domain.Course, enrollments []domain.CourseProgress, quizzes []domain.Quiz, attempts []domain.QuizAttempt) domain.Performance {
	tally := tallyCourses(enrollments)
	perf := domain.Performance{
		Courses: make([]domain.CoursePerformance, 0, len(courses)),
		Quizzes: make([]domain.QuizPerformance, 0, len(quizzes)),
	}
	for _, c := range courses {
		cp := domain.CoursePerformance{CourseID: c.ID, Title: c.Title}
		if t, ok := tally[c.ID]; ok {
			cp.Enrollments = t.enrollments
			cp.Completions = t.completions
			cp.AverageProgress = mean(float64(t.pctSum), t.enrollments)
			cp.DropoffRate = dropoffRate(t.completions, t.enrollments)
		}
		perf.Courses = append(perf.Courses, cp)
	}

	type quizTally struct {
		attempts int
		passed   int
		scoreSum float64
	}
	byQuiz := make(map[int64]*quizTally)
	for _, a := range attempts {
		t, ok := byQuiz[a.QuizID]
		if !ok {
			t = &quizTally{}
			byQuiz[a.QuizID] = t
		}
		t.attempts++
		t.scoreSum += a.Score
		if a.Passed {
			t.passed++
		}
	}
	for _, q := range quizzes {
		qp := domain.QuizPerformance{QuizID: q.ID, CourseID: q.CourseID, Title: q.Title}
		if t, ok := byQuiz[q.ID]; ok {
			qp.Attempts = t.attempts
			qp.AverageScore = mean(t.scoreSum, t.attempts)
			qp.PassRate = percent(t.passed, t.attempts)
		}
		perf.Quizzes = append(perf.Quizzes, qp)
	}
	return perf
}

// dropoffRate is the share of enrollments that have not reached 100%.
func dropoffRate(completions, enrollments int) float64 {
	if enrollments == 0 {
		return 0
	}
	return round2(100 * (1 - float64(completions)/float64(enrollments)))
}

// buildDailyActive counts distinct students per UTC day. A lesson row marks
// its student active on the day it was created and the day it was last
// updated.
func buildDailyActive(rows []domain.LessonProgress, since time.Time) []domain.DailyActiveUsers {
	days := make(map[string]map[int64]struct{})
	mark := func(t time.Time, student int64) {
		if t.Before(since) {
			return
		}
		key := t.UTC().Format(time.DateOnly)
		if days[key] == nil {
			days[key] = make(map[int64]struct{})
		}
		days[key][student] = struct{}{}
	}
	for _, r := range rows {
		mark(r.CreatedAt, r.StudentID)
		mark(r.UpdatedAt, r.StudentID)
	}

	out := make([]domain.DailyActiveUsers, 0, len(days))
	for day, students := range days {
		out = append(out, domain.DailyActiveUsers{Date: day, ActiveUsers: len(students)})
	}
	slices.SortFunc(out, func(a, b domain.DailyActiveUsers) int {
		return cmp.Compare(a.Date, b.Date)
	})
	return out
}

// buildLessonEngagement reports every lesson in scope. Views are lesson
// progress rows; average watch time uses the recorded watch time.
func buildLessonEngagement(lessons []domain.Lesson, rows []domain.LessonProgress) []domain.LessonEngagement {
	type lessonTally struct {
		views       int
		completions int
		watchSum    int
	}
	byLesson := make(map[int64]*lessonTally)
	for _, r := range rows {
		t, ok := byLesson[r.LessonID]
		if !ok {
			t = &lessonTally{}
			byLesson[r.LessonID] = t
		}
		t.views++
		t.watchSum += r.WatchTime
		if r.IsCompleted {
			t.completions++
		}
	}

	out := make([]domain.LessonEngagement, 0, len(lessons))
	for _, l := range lessons {
		le := domain.LessonEngagement{LessonID: l.ID, CourseID: l.CourseID, Title: l.Title}
		if t, ok := byLesson[l.ID]; ok {
			le.Views = t.views
			le.Completions = t.completions
			le.AverageWatchTime = mean(float64(t.watchSum), t.views)
			le.CompletionRate = percent(t.completions, t.views)
		}
		out = append(out, le)
	}
	slices.SortFunc(out, func(a, b domain.LessonEngagement) int {
		return cmp.Or(cmp.Compare(b.Views, a.Views), cmp.Compare(a.LessonID, b.LessonID))
	})
	return out
}

// completionBuckets groups enrollments by completion percentage. Every
// bucket is always present.
func completionBuckets(enrollments []domain.CourseProgress) []domain.EngagementBucket {
	buckets := []domain.EngagementBucket{
		{Label: "0%", Min: 0, Max: 0},
		{Label: "1-25%", Min: 1, Max: 25},
		{Label: "26-50%", Min: 26, Max: 50},
		{Label: "51-75%", Min: 51, Max: 75},
		{Label: "76-99%", Min: 76, Max: 99},
		{Label: "100%", Min: 100, Max: 100},
	}
	for _, e := range enrollments {
		pct := min(max(e.CompletionPercentage, 0), 100)
		for i := range buckets {
			if pct >= buckets[i].Min && pct <= buckets[i].Max {
				buckets[i].Count++
				break
			}
		}
	}
	return buckets
}

// buildPopular ranks courses by completions, then completion rate, then id.
func buildPopular(courses []domain.Course, enrollments []domain.CourseProgress, limit int) []domain.PopularCourse {
	tally := tallyCourses(enrollments)
	out := make([]domain.PopularCourse, 0, len(courses))
	for _, c := range courses {
		pc := domain.PopularCourse{CourseID: c.ID, Title: c.Title}
		if t, ok := tally[c.ID]; ok {
			pc.Enrollments = t.enrollments
			pc.Completions = t.completions
			pc.CompletionRate = percent(t.completions, t.enrollments)
		}
		out = append(out, pc)
	}
	slices.SortFunc(out, func(a, b domain.PopularCourse) int {
		return cmp.Or(
			cmp.Compare(b.Completions, a.Completions),
			cmp.Compare(b.CompletionRate, a.CompletionRate),
			cmp.Compare(a.CourseID, b.CourseID),
		)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func buildInstructorStats(instructorID int64, courses []domain.Course, enrollments []domain.CourseProgress, payments []domain.Payment) domain.InstructorStats {
	overview := buildOverview(courses, enrollments, payments)
	stats := domain.InstructorStats{
		InstructorID:     instructorID,
		TotalCourses:     overview.TotalCourses,
		TotalStudents:    overview.TotalStudents,
		TotalEnrollments: overview.TotalEnrollments,
		TotalRevenue:     overview.TotalRevenue,
	}
	var pctSum int
	for _, e := range enrollments {
		pctSum += e.CompletionPercentage
		if isComplete(e) {
			stats.Completions++
		}
	}
	stats.AverageCompletion = mean(float64(pctSum), len(enrollments))
	return stats
}

// buildCourseProgressAnalytics summarises one course. Average watch time is
// total recorded watch time per enrolled student.
func buildCourseProgressAnalytics(course domain.Course, enrollments []domain.CourseProgress, rows []domain.LessonProgress) domain.CourseProgressAnalytics {
	a := domain.CourseProgressAnalytics{
		CourseID:     course.ID,
		Title:        course.Title,
		Enrollments:  len(enrollments),
		Distribution: completionBuckets(enrollments),
	}
	var pctSum int
	for _, e := range enrollments {
		pctSum += e.CompletionPercentage
		switch domain.DeriveStatus(e.CompletionPercentage) {
		case domain.StatusCompleted:
			a.Completed++
		case domain.StatusInProgress:
			a.InProgress++
		default:
			a.NotStarted++
		}
	}
	var watchSum int
	for _, r := range rows {
		watchSum += r.WatchTime
	}
	a.AverageCompletion = mean(float64(pctSum), len(enrollments))
	a.AverageWatchTime = mean(float64(watchSum), len(enrollments))
	return a
}
