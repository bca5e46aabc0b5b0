package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/msomdec/coursetrack/internal/domain"
)

// contentRepo implements domain.ContentRepository using SQLite.
type contentRepo struct {
	db *sql.DB
}

func (r *contentRepo) CreateCourse(ctx context.Context, course *domain.Course) error {
	if course.CreatedAt.IsZero() {
		course.CreatedAt = time.Now().UTC()
	}
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO courses (instructor_id, title, description, price, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		course.InstructorID, course.Title, course.Description, course.Price, course.CreatedAt,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: instructor %d", domain.ErrNotFound, course.InstructorID)
		}
		return fmt.Errorf("insert course: %w", err)
	}
	course.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get course id: %w", err)
	}
	return nil
}

func (r *contentRepo) CreateModule(ctx context.Context, module *domain.Module) error {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO modules (course_id, title, sort_order) VALUES (?, ?, ?)",
		module.CourseID, module.Title, module.Order,
	)
	if err != nil {
		if isForeignKeyError(err) {
			return fmt.Errorf("%w: course %d", domain.ErrNotFound, module.CourseID)
		}
		return fmt.Errorf("insert module: %w", err)
	}
	module.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get module id: %w", err)
	}
	return nil
}

// CreateLesson fills CourseID from the parent module.
func (r *contentRepo) CreateLesson(ctx context.Context, lesson *domain.Lesson) error {
	module, err := r.GetModule(ctx, lesson.ModuleID)
	if err != nil {
		return err
	}
	lesson.CourseID = module.CourseID

	result, err := r.db.ExecContext(ctx,
		`INSERT INTO lessons (module_id, course_id, title, duration, sort_order)
		 VALUES (?, ?, ?, ?, ?)`,
		lesson.ModuleID, lesson.CourseID, lesson.Title, lesson.Duration, lesson.Order,
	)
	if err != nil {
		return fmt.Errorf("insert lesson: %w", err)
	}
	lesson.ID, err = result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get lesson id: %w", err)
	}
	return nil
}

const courseColumns = "id, instructor_id, title, description, price, created_at"

func scanCourse(row interface{ Scan(...any) error }, c *domain.Course) error {
	return row.Scan(&c.ID, &c.InstructorID, &c.Title, &c.Description, &c.Price, &c.CreatedAt)
}

func (r *contentRepo) GetCourse(ctx context.Context, id int64) (*domain.Course, error) {
	c := &domain.Course{}
	err := scanCourse(r.db.QueryRowContext(ctx, "SELECT "+courseColumns+" FROM courses WHERE id = ?", id), c)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get course: %w", err)
	}
	return c, nil
}

func (r *contentRepo) ListCourses(ctx context.Context) ([]domain.Course, error) {
	return r.listCourses(ctx, "SELECT "+courseColumns+" FROM courses ORDER BY id")
}

func (r *contentRepo) ListCoursesByInstructor(ctx context.Context, instructorID int64) ([]domain.Course, error) {
	return r.listCourses(ctx, "SELECT "+courseColumns+" FROM courses WHERE instructor_id = ? ORDER BY id", instructorID)
}

func (r *contentRepo) listCourses(ctx context.Context, query string, args ...any) ([]domain.Course, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	defer rows.Close()

	courses := []domain.Course{}
	for rows.Next() {
		var c domain.Course
		if err := scanCourse(rows, &c); err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		courses = append(courses, c)
	}
	return courses, rows.Err()
}

func (r *contentRepo) GetModule(ctx context.Context, id int64) (*domain.Module, error) {
	m := &domain.Module{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, course_id, title, sort_order FROM modules WHERE id = ?", id,
	).Scan(&m.ID, &m.CourseID, &m.Title, &m.Order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get module: %w", err)
	}
	return m, nil
}

func (r *contentRepo) ListModules(ctx context.Context, courseID int64) ([]domain.Module, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, course_id, title, sort_order FROM modules WHERE course_id = ? ORDER BY sort_order, id", courseID)
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	modules := []domain.Module{}
	for rows.Next() {
		var m domain.Module
		if err := rows.Scan(&m.ID, &m.CourseID, &m.Title, &m.Order); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		modules = append(modules, m)
	}
	return modules, rows.Err()
}

func (r *contentRepo) GetLesson(ctx context.Context, id int64) (*domain.Lesson, error) {
	l := &domain.Lesson{}
	err := r.db.QueryRowContext(ctx,
		"SELECT id, module_id, course_id, title, duration, sort_order FROM lessons WHERE id = ?", id,
	).Scan(&l.ID, &l.ModuleID, &l.CourseID, &l.Title, &l.Duration, &l.Order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("get lesson: %w", err)
	}
	return l, nil
}

func (r *contentRepo) ListLessons(ctx context.Context, moduleID int64) ([]domain.Lesson, error) {
	return r.listLessons(ctx,
		`SELECT id, module_id, course_id, title, duration, sort_order
		 FROM lessons WHERE module_id = ? ORDER BY sort_order, id`, moduleID)
}

func (r *contentRepo) ListLessonsByCourses(ctx context.Context, courseIDs []int64) ([]domain.Lesson, error) {
	if len(courseIDs) == 0 {
		return []domain.Lesson{}, nil
	}
	placeholders, args := inClause(courseIDs)
	return r.listLessons(ctx,
		`SELECT id, module_id, course_id, title, duration, sort_order
		 FROM lessons WHERE course_id IN (`+placeholders+`) ORDER BY id`, args...)
}

func (r *contentRepo) listLessons(ctx context.Context, query string, args ...any) ([]domain.Lesson, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lessons: %w", err)
	}
	defer rows.Close()

	lessons := []domain.Lesson{}
	for rows.Next() {
		var l domain.Lesson
		if err := rows.Scan(&l.ID, &l.ModuleID, &l.CourseID, &l.Title, &l.Duration, &l.Order); err != nil {
			return nil, fmt.Errorf("scan lesson: %w", err)
		}
		lessons = append(lessons, l)
	}
	return lessons, rows.Err()
}

func (r *contentRepo) CountLessons(ctx context.Context, courseID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM lessons WHERE course_id = ?", courseID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return n, nil
}

func (r *contentRepo) ReorderModules(ctx context.Context, courseID int64, orderedIDs []int64) error {
	return r.reorder(ctx, "modules", "course_id", courseID, orderedIDs)
}

func (r *contentRepo) ReorderLessons(ctx context.Context, moduleID int64, orderedIDs []int64) error {
	return r.reorder(ctx, "lessons", "module_id", moduleID, orderedIDs)
}

// reorder checks that orderedIDs is exactly the parent's child set and
// rewrites sort_order inside one transaction. table and parentColumn are
// fixed identifiers from this file, never user input.
func (r *contentRepo) reorder(ctx context.Context, table, parentColumn string, parentID int64, orderedIDs []int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, "SELECT id FROM "+table+" WHERE "+parentColumn+" = ?", parentID)
	if err != nil {
		return fmt.Errorf("list %s: %w", table, err)
	}
	children := make(map[int64]bool)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan %s id: %w", table, err)
		}
		children[id] = false
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	if len(orderedIDs) != len(children) {
		return fmt.Errorf("%w: expected %d %s ids, got %d", domain.ErrInvalidInput, len(children), table, len(orderedIDs))
	}
	for _, id := range orderedIDs {
		seen, ok := children[id]
		if !ok {
			return fmt.Errorf("%w: %s %d does not belong to parent %d", domain.ErrInvalidInput, table, id, parentID)
		}
		if seen {
			return fmt.Errorf("%w: %s %d listed twice", domain.ErrInvalidInput, table, id)
		}
		children[id] = true
	}

	for i, id := range orderedIDs {
		if _, err := tx.ExecContext(ctx, "UPDATE "+table+" SET sort_order = ? WHERE id = ?", i+1, id); err != nil {
			return fmt.Errorf("update %s order: %w", table, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
