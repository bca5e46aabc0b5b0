package policy_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/msomdec/coursetrack/internal/domain"
	"github.com/msomdec/coursetrack/internal/policy"
)

func TestCanView(t *testing.T) {
	tests := []struct {
		name      string
		requester int64
		subject   int64
		role      domain.Role
		want      bool
	}{
		{"self student", 1, 1, domain.RoleStudent, true},
		{"other student", 1, 2, domain.RoleStudent, false},
		{"instructor on student", 3, 2, domain.RoleInstructor, false},
		{"admin on anyone", 9, 2, domain.RoleAdmin, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.CanView(tt.requester, tt.subject, tt.role))
			assert.Equal(t, tt.want, policy.CanMutate(tt.requester, tt.subject, tt.role))
		})
	}
}

func TestCanViewCourseAnalytics(t *testing.T) {
	assert.True(t, policy.CanViewCourseAnalytics(5, 5, domain.RoleInstructor))
	assert.False(t, policy.CanViewCourseAnalytics(5, 6, domain.RoleInstructor))
	assert.False(t, policy.CanViewCourseAnalytics(1, 6, domain.RoleStudent))
	assert.True(t, policy.CanViewCourseAnalytics(1, 6, domain.RoleAdmin))
}

func TestCanViewPlatform(t *testing.T) {
	assert.True(t, policy.CanViewPlatform(domain.RoleAdmin))
	assert.False(t, policy.CanViewPlatform(domain.RoleInstructor))
	assert.False(t, policy.CanViewPlatform(domain.RoleStudent))
}

func TestRequireHelpersReturnForbidden(t *testing.T) {
	student := &domain.User{ID: 1, Role: domain.RoleStudent}
	instructor := &domain.User{ID: 5, Role: domain.RoleInstructor}
	course := &domain.Course{ID: 10, InstructorID: 6}

	require.ErrorIs(t, policy.RequireView(student, 2), domain.ErrForbidden)
	require.ErrorIs(t, policy.RequireMutate(student, 2), domain.ErrForbidden)
	require.ErrorIs(t, policy.RequireCourseAnalytics(instructor, course), domain.ErrForbidden)
	require.ErrorIs(t, policy.RequireManageCourse(instructor, course), domain.ErrForbidden)

	require.NoError(t, policy.RequireView(student, 1))
	course.InstructorID = 5
	require.NoError(t, policy.RequireCourseAnalytics(instructor, course))
	require.NoError(t, policy.RequireManageCourse(instructor, course))
}
