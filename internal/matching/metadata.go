package matching

import (
	"regexp"
	"strconv"
	"time"

	"github.com/talenthub/ai-gateway/internal/aiservice"
	"github.com/talenthub/ai-gateway/internal/store"
)

const hoursPerYear = 24 * 365.25

// experiencePattern pulls an experience requirement like "3+ years" or
// "2 yrs" out of a job posting's free-text requirements.
var experiencePattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*\+?\s*(?:years?|yrs?)`)

// parseExperienceYears returns the first experience-years figure mentioned in
// the text, or 0 when none is found.
func parseExperienceYears(text string) float64 {
	match := experiencePattern.FindStringSubmatch(text)
	if match == nil {
		return 0
	}

	years, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0
	}
	return years
}

// jobMetadata builds the scorer metadata for one posting.
func jobMetadata(j *store.Job) *aiservice.JobMetadata {
	return &aiservice.JobMetadata{
		Skills:          j.Skills,
		Education:       j.Education,
		ExperienceYears: parseExperienceYears(j.Requirements),
		UpdatedAt:       j.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// graduateMetadata builds the scorer metadata for one graduate. Experience
// years are summed across work history intervals; an entry whose end predates
// its start contributes nothing. Ongoing positions count up to now.
func graduateMetadata(g *store.Graduate, now time.Time) *aiservice.GraduateMetadata {
	var (
		total      float64
		latestYear int
	)

	for _, entry := range g.WorkHistory {
		if entry.StartDate.IsZero() {
			continue
		}

		end := entry.EndDate
		if end.IsZero() {
			end = now
		}
		if end.Before(entry.StartDate) {
			continue
		}

		total += end.Sub(entry.StartDate).Hours() / hoursPerYear
		if year := end.Year(); year > latestYear {
			latestYear = year
		}
	}

	return &aiservice.GraduateMetadata{
		Skills:               g.Skills,
		Education:            g.Education,
		ExperienceYears:      total,
		LatestExperienceYear: latestYear,
	}
}
