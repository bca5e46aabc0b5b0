package domain

import (
	"context"
	"time"
)

// Course is owned by a single instructor.
type Course struct {
	ID           int64
	InstructorID int64
	Title        string
	Description  string
	Price        float64
	CreatedAt    time.Time
}

type Module struct {
	ID       int64
	CourseID int64
	Title    string
	Order    int
}

// Lesson belongs to a module; CourseID is denormalized from the module so
// progress rows can be scoped to a course without a join.
type Lesson struct {
	ID       int64
	ModuleID int64
	CourseID int64
	Title    string
	Duration int // Nominal length in seconds
	Order    int
}

// ContentRepository exposes course structure. The progress core only reads
// it; the write methods exist for authoring tools and seeding.
type ContentRepository interface {
	CreateCourse(ctx context.Context, course *Course) error
	CreateModule(ctx context.Context, module *Module) error
	CreateLesson(ctx context.Context, lesson *Lesson) error

	GetCourse(ctx context.Context, id int64) (*Course, error)
	ListCourses(ctx context.Context) ([]Course, error)
	ListCoursesByInstructor(ctx context.Context, instructorID int64) ([]Course, error)
	GetModule(ctx context.Context, id int64) (*Module, error)
	ListModules(ctx context.Context, courseID int64) ([]Module, error)
	GetLesson(ctx context.Context, id int64) (*Lesson, error)
	ListLessons(ctx context.Context, moduleID int64) ([]Lesson, error)
	ListLessonsByCourses(ctx context.Context, courseIDs []int64) ([]Lesson, error)
	CountLessons(ctx context.Context, courseID int64) (int, error)

	// ReorderModules and ReorderLessons assign Order = index+1 to every id
	// in a single transaction. Either all rows change or none do.
	ReorderModules(ctx context.Context, courseID int64, orderedIDs []int64) error
	ReorderLessons(ctx context.Context, moduleID int64, orderedIDs []int64) error
}
