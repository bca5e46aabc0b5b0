package service

import (
	"context"
	"fmt"

	"github.com/msomdec/coursetrack/internal/domain"
	"github.com/msomdec/coursetrack/internal/policy"
)

// ContentService exposes course structure reads and the reorder operations.
type ContentService struct {
	content domain.ContentRepository
}

// NewContentService creates a new ContentService.
func NewContentService(content domain.ContentRepository) *ContentService {
	return &ContentService{content: content}
}

// ReorderModules sets module order to the position of each id in orderedIDs.
// orderedIDs must list every module of the course exactly once.
func (s *ContentService) ReorderModules(ctx context.Context, actor *domain.User, courseID int64, orderedIDs []int64) error {
	course, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		return wrapNotFound(err, "course", courseID)
	}
	if err := policy.RequireManageCourse(actor, course); err != nil {
		return err
	}
	if err := s.content.ReorderModules(ctx, courseID, orderedIDs); err != nil {
		return fmt.Errorf("reorder modules: %w", err)
	}
	return nil
}

// ReorderLessons sets lesson order within a module. orderedIDs must list
// every lesson of the module exactly once.
func (s *ContentService) ReorderLessons(ctx context.Context, actor *domain.User, moduleID int64, orderedIDs []int64) error {
	module, err := s.content.GetModule(ctx, moduleID)
	if err != nil {
		return wrapNotFound(err, "module", moduleID)
	}
	course, err := s.content.GetCourse(ctx, module.CourseID)
	if err != nil {
		return wrapNotFound(err, "course", module.CourseID)
	}
	if err := policy.RequireManageCourse(actor, course); err != nil {
		return err
	}
	if err := s.content.ReorderLessons(ctx, moduleID, orderedIDs); err != nil {
		return fmt.Errorf("reorder lessons: %w", err)
	}
	return nil
}

func (s *ContentService) GetCourse(ctx context.Context, courseID int64) (*domain.Course, error) {
	course, err := s.content.GetCourse(ctx, courseID)
	if err != nil {
		return nil, wrapNotFound(err, "course", courseID)
	}
	return course, nil
}

// ListCourses returns every course for admins and the instructor's own
// courses otherwise.
func (s *ContentService) ListCourses(ctx context.Context, actor *domain.User) ([]domain.Course, error) {
	if policy.CanViewPlatform(actor.Role) {
		return s.content.ListCourses(ctx)
	}
	return s.content.ListCoursesByInstructor(ctx, actor.ID)
}
