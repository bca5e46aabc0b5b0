package domain

// AnalyticsScope selects the courses an analytics query spans. With neither
// InstructorID nor CourseID set the scope is platform-wide.
type AnalyticsScope struct {
	RequesterID  int64
	InstructorID *int64
	CourseID     *int64
}

type Overview struct {
	TotalStudents    int
	TotalCourses     int
	TotalEnrollments int
	TotalRevenue     float64
	CompletionRate   float64
}

// MonthlyTrend is one YYYY-MM bucket of enrollments and completed revenue.
type MonthlyTrend struct {
	Month       string
	Enrollments int
	Revenue     float64
}

type CourseRanking struct {
	CourseID    int64
	Title       string
	Enrollments int
	Revenue     float64
}

type EnrollmentTrend struct {
	Months     []MonthlyTrend
	TopCourses []CourseRanking
}

type CoursePerformance struct {
	CourseID        int64
	Title           string
	Enrollments     int
	AverageProgress float64
	Completions     int
	DropoffRate     float64
}

type QuizPerformance struct {
	QuizID       int64
	CourseID     int64
	Title        string
	AverageScore float64
	Attempts     int
	PassRate     float64
}

type Performance struct {
	Courses []CoursePerformance
	Quizzes []QuizPerformance
}

// DailyActiveUsers is one YYYY-MM-DD bucket of distinct active students.
type DailyActiveUsers struct {
	Date        string
	ActiveUsers int
}

type LessonEngagement struct {
	LessonID         int64
	CourseID         int64
	Title            string
	Views            int
	Completions      int
	AverageWatchTime float64
	CompletionRate   float64
}

// EngagementBucket counts enrollments whose completion percentage falls in
// [Min, Max].
type EngagementBucket struct {
	Label string
	Min   int
	Max   int
	Count int
}

type Engagement struct {
	DailyActive       []DailyActiveUsers
	Lessons           []LessonEngagement
	CompletionBuckets []EngagementBucket
}

type PopularCourse struct {
	CourseID       int64
	Title          string
	Enrollments    int
	Completions    int
	CompletionRate float64
}

type InstructorStats struct {
	InstructorID      int64
	TotalCourses      int
	TotalStudents     int
	TotalEnrollments  int
	Completions       int
	TotalRevenue      float64
	AverageCompletion float64
}

type CourseProgressAnalytics struct {
	CourseID          int64
	Title             string
	Enrollments       int
	NotStarted        int
	InProgress        int
	Completed         int
	AverageCompletion float64
	AverageWatchTime  float64
	Distribution      []EngagementBucket
}
