package view

import (
	"context"
	"strings"
	"testing"

	"github.com/msomdec/coursetrack/internal/domain"
)

func TestLessonRows_EscapesTitles(t *testing.T) {
	var sb strings.Builder
	err := LessonRows([]domain.LessonEngagement{
		{LessonID: 4, Title: `<script>alert("x")</script>`, Views: 2, Completions: 1, AverageWatchTime: 12.5, CompletionRate: 50},
	}).Render(context.Background(), &sb)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := sb.String()
	if strings.Contains(out, "<script>") {
		t.Fatalf("title was not escaped: %s", out)
	}
	if !strings.Contains(out, `<tr id="lesson-4">`) || !strings.Contains(out, "<td>50.00%</td>") {
		t.Fatalf("unexpected row markup: %s", out)
	}
}

func TestLoadMoreLessons(t *testing.T) {
	tests := []struct {
		total, shown int
		want         string
	}{
		{12, 10, `data-on-click="@get(&#39;/dashboard/analytics/lessons?offset=10&#39;)"`},
		{12, 10, "Show more (2 remaining)"},
		{12, 12, `<div id="load-more-lessons"></div>`},
		{0, 0, `<div id="load-more-lessons"></div>`},
	}
	for _, tt := range tests {
		var sb strings.Builder
		if err := LoadMoreLessons(tt.total, tt.shown).Render(context.Background(), &sb); err != nil {
			t.Fatalf("Render: %v", err)
		}
		if !strings.Contains(sb.String(), tt.want) {
			t.Errorf("LoadMoreLessons(%d, %d) = %s, want it to contain %s", tt.total, tt.shown, sb.String(), tt.want)
		}
	}
}

func TestDashboardPage(t *testing.T) {
	var sb strings.Builder
	err := DashboardPage(DashboardData{
		DisplayName:  "Ada & Co",
		ScopeLabel:   "All courses",
		Overview:     domain.Overview{TotalStudents: 3, TotalRevenue: 19.5},
		Popular:      []domain.PopularCourse{{CourseID: 1, Title: "Go", Enrollments: 2, Completions: 1, CompletionRate: 50}},
		Buckets:      []domain.EngagementBucket{{Label: "100", Min: 100, Max: 100, Count: 1}},
		TotalLessons: 0,
	}).Render(context.Background(), &sb)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"Ada &amp; Co",
		"<dd>19.50</dd>",
		"<li>Go &middot; 1 of 2 completed (50.00%)</li>",
		"<li>100: 1</li>",
		`<tbody id="lesson-engagement-list"></tbody>`,
		`<div id="load-more-lessons"></div>`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected page to contain %q", want)
		}
	}
}
