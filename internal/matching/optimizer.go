package matching

import (
	"cmp"
	"slices"

	"whitecarrot/internal/domain"
)

const (
	maxAddedSkills   = 4
	maxCourseEntries = 2
)

// Recommendation points the candidate at follow-up material
type Recommendation struct {
	Type  string `json:"type"` // course or dsa
	Label string `json:"label"`
	Link  string `json:"link"`
}

// Optimization is the outcome of tailoring a profile to one company
type Optimization struct {
	Company         string           `json:"company"`
	AddedSkills     []string         `json:"addedSkills"`
	Skills          []string         `json:"skills"`
	Recommendations []Recommendation `json:"recommendations"`
	ScorePre        float64          `json:"scorePre"`
	ScorePost       float64          `json:"scorePost"`
}

// Optimize suggests the skills a candidate should add to match a company's
// jobs. The most demanded missing skills are added first, ties broken
// alphabetically.
func Optimize(candidate domain.Candidate, jobs []domain.Job, company domain.Company) Optimization {
	have := make(map[string]struct{}, len(candidate.Skills))
	for _, s := range candidate.Skills {
		have[normalize(s)] = struct{}{}
	}

	demand := map[string]int{}
	spelling := map[string]string{}
	for _, j := range jobs {
		seen := map[string]struct{}{}
		for _, s := range j.Skills {
			key := normalize(s)
			if _, ok := have[key]; ok {
				continue
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			demand[key]++
			if _, ok := spelling[key]; !ok {
				spelling[key] = s
			}
		}
	}

	keys := make([]string, 0, len(demand))
	for k := range demand {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		if c := cmp.Compare(demand[b], demand[a]); c != 0 {
			return c
		}
		return cmp.Compare(a, b)
	})
	if len(keys) > maxAddedSkills {
		keys = keys[:maxAddedSkills]
	}

	added := make([]string, 0, len(keys))
	for _, k := range keys {
		added = append(added, spelling[k])
	}

	skills := slices.Concat(candidate.Skills, added)
	if skills == nil {
		skills = []string{}
	}

	recs := make([]Recommendation, 0, maxCourseEntries+1)
	for _, s := range added[:min(len(added), maxCourseEntries)] {
		recs = append(recs, Recommendation{Type: "course", Label: "Learn " + s, Link: "learn"})
	}
	recs = append(recs, Recommendation{Type: "dsa", Label: company.Name + " interview problem set", Link: "dsa"})

	return Optimization{
		Company:         company.Name,
		AddedSkills:     added,
		Skills:          skills,
		Recommendations: recs,
		ScorePre:        meanScore(jobs, candidate.Skills),
		ScorePost:       meanScore(jobs, skills),
	}
}

func meanScore(jobs []domain.Job, skills []string) float64 {
	if len(jobs) == 0 {
		return 0
	}
	var total float64
	for _, j := range jobs {
		total += Score(j.Skills, skills).Percentage
	}
	return total / float64(len(jobs))
}
