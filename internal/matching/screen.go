package matching

import (
	"fmt"
	"strings"

	"whitecarrot/internal/domain"
)

// Thresholds are percentages in [0,100]
type Thresholds struct {
	RejectBelow    float64
	FastTrackAbove float64
}

// DefaultThresholds reject below 80% and fast-track above 80%
var DefaultThresholds = Thresholds{RejectBelow: 80, FastTrackAbove: 80}

// Screening is the outcome of the automatic screen run when a candidate applies
type Screening struct {
	Match    Match
	Status   domain.ApplicationStatus
	Summary  string
	Rejected bool
	// Reason is set only for rejected applications
	Reason    string
	FastTrack bool
}

// Screener decides whether an application goes forward
type Screener struct {
	thresholds Thresholds
}

// NewScreener creates a screener with the given thresholds
func NewScreener(t Thresholds) *Screener {
	return &Screener{thresholds: t}
}

// Thresholds returns the configured thresholds
func (s *Screener) Thresholds() Thresholds {
	return s.thresholds
}

// Screen scores candidate against job. Jobs without skills are never
// auto-rejected.
func (s *Screener) Screen(job domain.Job, candidate domain.Candidate) Screening {
	m := Score(job.Skills, candidate.Skills)
	out := Screening{
		Match:     m,
		Status:    domain.StatusApplied,
		FastTrack: m.Percentage > s.thresholds.FastTrackAbove,
	}

	out.Summary = fmt.Sprintf("Match Score: %d%%. Matched %d of %d required skills.",
		m.Rounded(), len(m.Matched), m.Required)
	if out.FastTrack {
		out.Summary += " FAST TRACK RECOMMENDED."
	}

	if m.Required > 0 && m.Percentage < s.thresholds.RejectBelow {
		out.Status = domain.StatusRejected
		out.Rejected = true
		out.Reason = fmt.Sprintf(
			"Your profile match score (%d%%) is below our minimum threshold of %s%%. We recommend improving your skills in: %s",
			m.Rounded(), formatThreshold(s.thresholds.RejectBelow), strings.Join(m.Missing, ", "))
	}
	return out
}

func formatThreshold(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", v), "0"), ".")
}
