// Package matching holds the deterministic screening heuristics: skill
// overlap scoring, the automatic screening decision, the detailed
// application analysis, skill inference and the resume optimizer.
package matching

import (
	"math"
	"strings"
)

// NoSkillsScore is the neutral score given when a job declares no skills
const NoSkillsScore = 50.0

// Match is the overlap between a job's skills and a candidate's skills
type Match struct {
	// Matched and Missing use the job's spelling of each skill
	Matched    []string `json:"matched"`
	Missing    []string `json:"missing"`
	Required   int      `json:"required"`
	Percentage float64  `json:"percentage"`
}

// Rounded returns the percentage rounded half away from zero, as shown to users
func (m Match) Rounded() int {
	return int(math.Round(m.Percentage))
}

// Score compares skills case-insensitively after trimming. A job without
// skills scores NoSkillsScore.
func Score(jobSkills, candidateSkills []string) Match {
	have := make(map[string]struct{}, len(candidateSkills))
	for _, s := range candidateSkills {
		have[normalize(s)] = struct{}{}
	}

	m := Match{
		Matched:  []string{},
		Missing:  []string{},
		Required: len(jobSkills),
	}
	for _, s := range jobSkills {
		if _, ok := have[normalize(s)]; ok {
			m.Matched = append(m.Matched, s)
		} else {
			m.Missing = append(m.Missing, s)
		}
	}

	if len(jobSkills) == 0 {
		m.Percentage = NoSkillsScore
		return m
	}
	m.Percentage = float64(len(m.Matched)) / float64(len(jobSkills)) * 100
	return m
}

func normalize(skill string) string {
	return strings.ToLower(strings.TrimSpace(skill))
}
