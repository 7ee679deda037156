package matching

import (
	"math"
	"testing"
	"time"

	"github.com/talenthub/ai-gateway/internal/store"
)

func TestParseExperienceYears(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want float64
	}{
		{"3+ years of backend development", 3},
		{"at least 2 yrs with Go", 2},
		{"1.5 years in data engineering", 1.5},
		{"5 Years experience required", 5},
		{"no experience requirement", 0},
		{"", 0},
	}

	for _, tt := range tests {
		if got := parseExperienceYears(tt.text); got != tt.want {
			t.Fatalf("%q: got %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestGraduateMetadataSumsIntervals(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	grad := &store.Graduate{
		Skills:    []string{"go"},
		Education: "bachelor",
		WorkHistory: []store.WorkExperience{
			// Two years, closed.
			{StartDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)},
			// Ongoing for one year.
			{StartDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)},
			// Corrupt: end before start, ignored.
			{StartDate: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)},
			// Missing start, ignored.
			{EndDate: time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}

	meta := graduateMetadata(grad, now)

	if math.Abs(meta.ExperienceYears-3) > 0.02 {
		t.Fatalf("expected roughly 3 years, got %v", meta.ExperienceYears)
	}
	if meta.LatestExperienceYear != 2026 {
		t.Fatalf("ongoing position should set the latest year to now, got %d", meta.LatestExperienceYear)
	}
	if len(meta.Skills) != 1 || meta.Education != "bachelor" {
		t.Fatalf("profile fields not carried over: %+v", meta)
	}
}

func TestJobMetadata(t *testing.T) {
	t.Parallel()

	job := &store.Job{
		Skills:       []string{"go", "sql"},
		Education:    "bachelor",
		Requirements: "3+ years building services",
		UpdatedAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}

	meta := jobMetadata(job)

	if meta.ExperienceYears != 3 {
		t.Fatalf("experience not parsed: %v", meta.ExperienceYears)
	}
	if meta.UpdatedAt != "2026-05-01T12:00:00Z" {
		t.Fatalf("unexpected timestamp format: %s", meta.UpdatedAt)
	}
}
