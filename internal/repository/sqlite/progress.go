package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/coursetrack/internal/domain"
)

// progressRepo implements domain.ProgressRepository using SQLite.
type progressRepo struct {
	db *sql.DB
}

const courseProgressColumns = `id, student_id, course_id, status, completion_percentage,
	completed_lessons, total_lessons, started_at, completed_at, last_accessed_at, certificate_earned`

func scanCourseProgress(row interface{ Scan(...any) error }, p *domain.CourseProgress) error {
	return row.Scan(&p.ID, &p.StudentID, &p.CourseID, &p.Status, &p.CompletionPercentage,
		&p.CompletedLessons, &p.TotalLessons, &p.StartedAt, &p.CompletedAt, &p.LastAccessedAt, &p.CertificateEarned)
}

const lessonProgressColumns = `id, student_id, lesson_id, course_id, is_completed, completed_at,
	watch_time, last_position, created_at, updated_at`

func scanLessonProgress(row interface{ Scan(...any) error }, p *domain.LessonProgress) error {
	return row.Scan(&p.ID, &p.StudentID, &p.LessonID, &p.CourseID, &p.IsCompleted, &p.CompletedAt,
		&p.WatchTime, &p.LastPosition, &p.CreatedAt, &p.UpdatedAt)
}

func (r *progressRepo) GetByID(ctx context.Context, id int64) (*domain.CourseProgress, error) {
	p := &domain.CourseProgress{}
	err := scanCourseProgress(r.db.QueryRowContext(ctx,
		"SELECT "+courseProgressColumns+" FROM course_progress WHERE id = ?", id), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get course progress: %w", err)
	}
	return p, nil
}

func (r *progressRepo) GetCourseProgress(ctx context.Context, courseID, studentID int64) (*domain.CourseProgress, error) {
	p := &domain.CourseProgress{}
	err := scanCourseProgress(r.db.QueryRowContext(ctx,
		"SELECT "+courseProgressColumns+" FROM course_progress WHERE course_id = ? AND student_id = ?",
		courseID, studentID), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get course progress: %w", err)
	}
	return p, nil
}

func (r *progressRepo) ListByUser(ctx context.Context, studentID int64) ([]domain.CourseProgress, error) {
	return r.listCourseProgress(ctx,
		"SELECT "+courseProgressColumns+" FROM course_progress WHERE student_id = ? ORDER BY last_accessed_at DESC, id",
		studentID)
}

func (r *progressRepo) ListCourseProgressByCourses(ctx context.Context, courseIDs []int64) ([]domain.CourseProgress, error) {
	if len(courseIDs) == 0 {
		return []domain.CourseProgress{}, nil
	}
	placeholders, args := inClause(courseIDs)
	return r.listCourseProgress(ctx,
		"SELECT "+courseProgressColumns+" FROM course_progress WHERE course_id IN ("+placeholders+") ORDER BY id",
		args...)
}

func (r *progressRepo) listCourseProgress(ctx context.Context, query string, args ...any) ([]domain.CourseProgress, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list course progress: %w", err)
	}
	defer rows.Close()

	list := []domain.CourseProgress{}
	for rows.Next() {
		var p domain.CourseProgress
		if err := scanCourseProgress(rows, &p); err != nil {
			return nil, fmt.Errorf("scan course progress: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// CreateCourseProgress inserts a new enrollment row. It returns
// domain.ErrConflict when a row for (student, course) already exists.
func (r *progressRepo) CreateCourseProgress(ctx context.Context, p *domain.CourseProgress) error {
	now := time.Now().UTC()
	if p.StartedAt.IsZero() {
		p.StartedAt = now
	}
	if p.LastAccessedAt.IsZero() {
		p.LastAccessedAt = p.StartedAt
	}
	if p.Status == "" {
		p.Status = domain.DeriveStatus(p.CompletionPercentage)
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO course_progress (student_id, course_id, status, completion_percentage,
		 completed_lessons, total_lessons, started_at, completed_at, last_accessed_at, certificate_earned)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.StudentID, p.CourseID, p.Status, p.CompletionPercentage,
		p.CompletedLessons, p.TotalLessons, p.StartedAt, p.CompletedAt, p.LastAccessedAt, p.CertificateEarned,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrConflict
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: student %d or course %d", domain.ErrNotFound, p.StudentID, p.CourseID)
		}
		return fmt.Errorf("insert course progress: %w", err)
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get course progress id: %w", err)
	}
	return nil
}

func (r *progressRepo) UpdateCourseProgress(ctx context.Context, p *domain.CourseProgress) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE course_progress SET status = ?, completion_percentage = ?, completed_lessons = ?,
		 total_lessons = ?, completed_at = ?, last_accessed_at = ?, certificate_earned = ?
		 WHERE id = ?`,
		p.Status, p.CompletionPercentage, p.CompletedLessons,
		p.TotalLessons, p.CompletedAt, p.LastAccessedAt, p.CertificateEarned, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update course progress: %w", err)
	}
	return expectOneRow(result)
}

func (r *progressRepo) DeleteCourseProgress(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM course_progress WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete course progress: %w", err)
	}
	return expectOneRow(result)
}

func (r *progressRepo) GetLessonProgress(ctx context.Context, lessonID, studentID int64) (*domain.LessonProgress, error) {
	p := &domain.LessonProgress{}
	err := scanLessonProgress(r.db.QueryRowContext(ctx,
		"SELECT "+lessonProgressColumns+" FROM lesson_progress WHERE lesson_id = ? AND student_id = ?",
		lessonID, studentID), p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get lesson progress: %w", err)
	}
	return p, nil
}

// CreateLessonProgress inserts a new row. It returns domain.ErrConflict when
// a row for (student, lesson) already exists.
func (r *progressRepo) CreateLessonProgress(ctx context.Context, p *domain.LessonProgress) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = p.CreatedAt
	}

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO lesson_progress (student_id, lesson_id, course_id, is_completed, completed_at,
		 watch_time, last_position, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.StudentID, p.LessonID, p.CourseID, p.IsCompleted, p.CompletedAt,
		p.WatchTime, p.LastPosition, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return domain.ErrConflict
		}
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: student %d or lesson %d", domain.ErrNotFound, p.StudentID, p.LessonID)
		}
		return fmt.Errorf("insert lesson progress: %w", err)
	}

	p.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get lesson progress id: %w", err)
	}
	return nil
}

// UpdateLessonProgress writes the row back. watch_time is clamped in SQL with
// MAX so a stale writer can never lower it.
func (r *progressRepo) UpdateLessonProgress(ctx context.Context, p *domain.LessonProgress) error {
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = time.Now().UTC()
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE lesson_progress SET is_completed = ?, completed_at = ?,
		 watch_time = MAX(watch_time, ?), last_position = ?, updated_at = ?
		 WHERE id = ?`,
		p.IsCompleted, p.CompletedAt, p.WatchTime, p.LastPosition, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update lesson progress: %w", err)
	}
	return expectOneRow(result)
}

func (r *progressRepo) ListLessonProgress(ctx context.Context, courseID, studentID int64) ([]domain.LessonProgress, error) {
	return r.listLessonProgress(ctx,
		"SELECT "+lessonProgressColumns+" FROM lesson_progress WHERE course_id = ? AND student_id = ? ORDER BY lesson_id",
		courseID, studentID)
}

func (r *progressRepo) ListLessonProgressByCourses(ctx context.Context, courseIDs []int64) ([]domain.LessonProgress, error) {
	if len(courseIDs) == 0 {
		return []domain.LessonProgress{}, nil
	}
	placeholders, args := inClause(courseIDs)
	return r.listLessonProgress(ctx,
		"SELECT "+lessonProgressColumns+" FROM lesson_progress WHERE course_id IN ("+placeholders+") ORDER BY id",
		args...)
}

func (r *progressRepo) listLessonProgress(ctx context.Context, query string, args ...any) ([]domain.LessonProgress, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lesson progress: %w", err)
	}
	defer rows.Close()

	list := []domain.LessonProgress{}
	for rows.Next() {
		var p domain.LessonProgress
		if err := scanLessonProgress(rows, &p); err != nil {
			return nil, fmt.Errorf("scan lesson progress: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}

// GetCourseProgressStats only counts progress rows whose lesson still belongs
// to the course, so lessons moved or deleted after completion drop out.
func (r *progressRepo) GetCourseProgressStats(ctx context.Context, courseID, studentID int64) (domain.CourseProgressStats, error) {
	var stats domain.CourseProgressStats
	err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*), COALESCE(SUM(duration), 0) FROM lessons WHERE course_id = ?", courseID,
	).Scan(&stats.TotalLessons, &stats.TotalDuration)
	if err != nil {
		return stats, fmt.Errorf("count course lessons: %w", err)
	}

	err = r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE WHEN lp.is_completed THEN 1 ELSE 0 END), 0), COALESCE(SUM(lp.watch_time), 0)
		 FROM lesson_progress lp
		 JOIN lessons l ON l.id = lp.lesson_id
		 WHERE l.course_id = ? AND lp.student_id = ?`,
		courseID, studentID,
	).Scan(&stats.CompletedLessons, &stats.TotalWatchTime)
	if err != nil {
		return stats, fmt.Errorf("count completed lessons: %w", err)
	}
	return stats, nil
}

func (r *progressRepo) ResetCourseProgress(ctx context.Context, courseID, studentID int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM lesson_progress
		 WHERE student_id = ? AND (course_id = ? OR lesson_id IN (SELECT id FROM lessons WHERE course_id = ?))`,
		studentID, courseID, courseID,
	); err != nil {
		return fmt.Errorf("delete lesson progress: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		`UPDATE course_progress SET status = ?, completion_percentage = 0, completed_lessons = 0,
		 completed_at = NULL, certificate_earned = 0, last_accessed_at = ?
		 WHERE course_id = ? AND student_id = ?`,
		domain.StatusNotStarted, time.Now().UTC(), courseID, studentID,
	)
	if err != nil {
		return fmt.Errorf("zero course progress: %w", err)
	}
	if err := expectOneRow(result); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func expectOneRow(result sql.Result) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
