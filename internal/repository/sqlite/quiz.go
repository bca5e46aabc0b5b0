package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/coursetrack/internal/domain"
)

// quizRepo implements domain.QuizRepository using SQLite.
type quizRepo struct {
	db *sql.DB
}

// CreateQuiz fills CourseID from the quiz's lesson.
func (r *quizRepo) CreateQuiz(ctx context.Context, q *domain.Quiz) error {
	err := r.db.QueryRowContext(ctx, "SELECT course_id FROM lessons WHERE id = ?", q.LessonID).Scan(&q.CourseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: lesson %d", domain.ErrNotFound, q.LessonID)
		}
		return fmt.Errorf("get quiz lesson: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO quizzes (lesson_id, course_id, title, passing_score) VALUES (?, ?, ?, ?)",
		q.LessonID, q.CourseID, q.Title, q.PassingScore,
	)
	if err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	q.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get quiz id: %w", err)
	}
	return nil
}

func (r *quizRepo) CreateAttempt(ctx context.Context, a *domain.QuizAttempt) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO quiz_attempts (quiz_id, student_id, score, passed, created_at) VALUES (?, ?, ?, ?, ?)",
		a.QuizID, a.StudentID, a.Score, a.Passed, a.CreatedAt,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: quiz %d or student %d", domain.ErrNotFound, a.QuizID, a.StudentID)
		}
		return fmt.Errorf("insert quiz attempt: %w", err)
	}
	a.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get quiz attempt id: %w", err)
	}
	return nil
}

func (r *quizRepo) ListQuizzesByCourses(ctx context.Context, courseIDs []int64) ([]domain.Quiz, error) {
	if len(courseIDs) == 0 {
		return []domain.Quiz{}, nil
	}
	placeholders, args := inClause(courseIDs)
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, lesson_id, course_id, title, passing_score FROM quizzes WHERE course_id IN ("+placeholders+") ORDER BY id",
		args...)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	quizzes := []domain.Quiz{}
	for rows.Next() {
		var q domain.Quiz
		if err := rows.Scan(&q.ID, &q.LessonID, &q.CourseID, &q.Title, &q.PassingScore); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (r *quizRepo) ListAttemptsByCourses(ctx context.Context, courseIDs []int64) ([]domain.QuizAttempt, error) {
	if len(courseIDs) == 0 {
		return []domain.QuizAttempt{}, nil
	}
	placeholders, args := inClause(courseIDs)
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.quiz_id, a.student_id, a.score, a.passed, a.created_at
		 FROM quiz_attempts a JOIN quizzes q ON q.id = a.quiz_id
		 WHERE q.course_id IN (`+placeholders+`) ORDER BY a.id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("list quiz attempts: %w", err)
	}
	defer rows.Close()

	attempts := []domain.QuizAttempt{}
	for rows.Next() {
		var a domain.QuizAttempt
		if err := rows.Scan(&a.ID, &a.QuizID, &a.StudentID, &a.Score, &a.Passed, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan quiz attempt: %w", err)
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}
