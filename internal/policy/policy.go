// Package policy decides who may read or change progress and analytics.
// Every function is a pure predicate over records the caller already
// fetched; none of them touch storage.
package policy

import (
	"fmt"

	"github.com/msomdec/coursetrack/internal/domain"
)

// CanView reports whether the requester may read the subject's progress.
func CanView(requesterID, subjectID int64, role domain.Role) bool {
	return requesterID == subjectID || role == domain.RoleAdmin
}

// CanMutate reports whether the requester may change the subject's progress.
// Students act on their own rows; admins may act on anyone's behalf.
func CanMutate(requesterID, subjectID int64, role domain.Role) bool {
	return requesterID == subjectID || role == domain.RoleAdmin
}

// CanViewCourseAnalytics reports whether the requester may read aggregates
// for a course taught by instructorID.
func CanViewCourseAnalytics(requesterID, instructorID int64, role domain.Role) bool {
	return requesterID == instructorID || role == domain.RoleAdmin
}

// CanManageCourse reports whether the requester may restructure a course.
func CanManageCourse(requesterID, instructorID int64, role domain.Role) bool {
	return requesterID == instructorID || role == domain.RoleAdmin
}

// CanViewPlatform reports whether the requester may read unscoped analytics.
func CanViewPlatform(role domain.Role) bool {
	return role == domain.RoleAdmin
}

func RequireView(actor *domain.User, subjectID int64) error {
	if !CanView(actor.ID, subjectID, actor.Role) {
		return fmt.Errorf("%w: user %d may not view progress of user %d", domain.ErrForbidden, actor.ID, subjectID)
	}
	return nil
}

func RequireMutate(actor *domain.User, subjectID int64) error {
	if !CanMutate(actor.ID, subjectID, actor.Role) {
		return fmt.Errorf("%w: user %d may not change progress of user %d", domain.ErrForbidden, actor.ID, subjectID)
	}
	return nil
}

func RequireCourseAnalytics(actor *domain.User, course *domain.Course) error {
	if !CanViewCourseAnalytics(actor.ID, course.InstructorID, actor.Role) {
		return fmt.Errorf("%w: user %d may not view analytics of course %d", domain.ErrForbidden, actor.ID, course.ID)
	}
	return nil
}

func RequireManageCourse(actor *domain.User, course *domain.Course) error {
	if !CanManageCourse(actor.ID, course.InstructorID, actor.Role) {
		return fmt.Errorf("%w: user %d may not manage course %d", domain.ErrForbidden, actor.ID, course.ID)
	}
	return nil
}
