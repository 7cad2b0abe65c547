package matching

import (
	"fmt"
	"math"

	"whitecarrot/internal/domain"
)

// minReportedMatch is the floor of the match percentage shown in an analysis
const minReportedMatch = 10

// AnalysisResult is the detailed breakdown written back to an application
type AnalysisResult struct {
	Detail domain.AnalysisDetail
	// Score is the unfloored match percentage
	Score  float64
	Status domain.ApplicationStatus
}

// Analyze builds the detailed breakdown of an application. An applied
// application scoring above fastTrackAbove is moved to selected.
func Analyze(job domain.Job, candidate domain.Candidate, status domain.ApplicationStatus, fastTrackAbove float64) AnalysisResult {
	m := Score(job.Skills, candidate.Skills)

	required := max(m.Required, 1)
	pct := int(math.Round(float64(len(m.Matched)) / float64(required) * 100))

	improvements := make([]string, 0, len(m.Missing))
	for _, skill := range m.Missing {
		improvements = append(improvements, fmt.Sprintf("Take a course on %s or add a project using %s.", skill, skill))
	}

	if float64(pct) > fastTrackAbove && status == domain.StatusApplied {
		status = domain.StatusSelected
	}

	return AnalysisResult{
		Detail: domain.AnalysisDetail{
			MatchPercentage: max(pct, minReportedMatch),
			Strengths:       m.Matched,
			Weaknesses:      m.Missing,
			MissingSkills:   m.Missing,
			Improvements:    improvements,
		},
		Score:  float64(pct),
		Status: status,
	}
}
