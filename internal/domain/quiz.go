package domain

import (
	"context"
	"time"
)

type Quiz struct {
	ID           int64
	LessonID     int64
	CourseID     int64
	Title        string
	PassingScore float64
}

// QuizAttempt records one submission. Score is a percentage in [0, 100].
type QuizAttempt struct {
	ID        int64
	QuizID    int64
	StudentID int64
	Score     float64
	Passed    bool
	CreatedAt time.Time
}

type QuizRepository interface {
	CreateQuiz(ctx context.Context, quiz *Quiz) error
	CreateAttempt(ctx context.Context, attempt *QuizAttempt) error
	ListQuizzesByCourses(ctx context.Context, courseIDs []int64) ([]Quiz, error)
	ListAttemptsByCourses(ctx context.Context, courseIDs []int64) ([]QuizAttempt, error)
}
