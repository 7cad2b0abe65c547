package formatters

import (
	"encoding/json"
	"testing"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/matching"
	"whitecarrot/internal/proctoring"
	"whitecarrot/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scoreReport() types.ScoreReport {
	return types.ScoreReport{
		JobTitle:      "Frontend Engineer",
		CandidateName: "John Doe",
		Match: matching.Match{
			Matched:    []string{"React"},
			Missing:    []string{"Node.js"},
			Required:   2,
			Percentage: 50,
		},
		Status: domain.StatusRejected,
		Reason: "Missing skills: Node.js",
	}
}

func TestRegistryFormats(t *testing.T) {
	registry := NewFormatterRegistry()

	tests := []struct {
		name     string
		data     any
		format   string
		contains []string
	}{
		{
			name:     "score text",
			data:     scoreReport(),
			format:   "text",
			contains: []string{"=== MATCH SCORE ===", "Score: 50.00% (1 of 2 skills)", "Decision: rejected", "- Node.js"},
		},
		{
			name:     "score markdown",
			data:     scoreReport(),
			format:   "markdown",
			contains: []string{"# Match Score", "**Decision:** `rejected`", "## Reason"},
		},
		{
			name: "application text",
			data: types.ApplicationReport{
				ApplicationID: "app-1",
				JobTitle:      "Backend Engineer",
				CandidateName: "Jane",
				Status:        domain.StatusSelected,
				Analysis: domain.AnalysisDetail{
					MatchPercentage: 100,
					Strengths:       []string{"Go"},
				},
			},
			format:   "text",
			contains: []string{"Application: app-1", "Match: 100%", "- Go", "Weaknesses:\n(none)"},
		},
		{
			name: "application markdown",
			data: types.ApplicationReport{
				ApplicationID: "app-2",
				Analysis: domain.AnalysisDetail{
					MissingSkills: []string{"Kubernetes"},
					Improvements:  []string{"Take a course on Kubernetes"},
				},
			},
			format:   "markdown",
			contains: []string{"# Application app-2", "- Kubernetes", "1. Take a course on Kubernetes"},
		},
		{
			name: "job listing markdown escapes pipes",
			data: types.JobListing{
				Count: 1,
				Jobs:  []domain.Job{{ID: "job-1", Title: "A|B", Location: "Berlin", Type: domain.JobFullTime}},
			},
			format:   "markdown",
			contains: []string{"| job-1 | A\\|B | Berlin | Full-time |"},
		},
		{
			name:     "empty job listing",
			data:     types.JobListing{},
			format:   "text",
			contains: []string{"No jobs match the search."},
		},
		{
			name: "proctor text",
			data: types.ProctorReport{
				Frames:        4,
				Status:        proctoring.StatusTerminated,
				CriticalCount: 3,
				TerminatedAt:  4,
				Alerts:        []proctoring.Alert{{Type: proctoring.AlertNoFace, Severity: proctoring.SeverityCritical, Message: "No face detected"}},
			},
			format:   "text",
			contains: []string{"Terminated at frame: 4", "- [critical] no_face: No face detected"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := registry.Format(tt.data, tt.format)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestJSONFallback(t *testing.T) {
	out, err := GlobalRegistry.Format(scoreReport(), "json")
	require.NoError(t, err)

	var decoded types.ScoreReport
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, domain.StatusRejected, decoded.Status)

	out, err = GlobalRegistry.Format(map[string]int{"a": 1}, "json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, out)
}

func TestUnknownFormat(t *testing.T) {
	_, err := GlobalRegistry.Format(scoreReport(), "yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no formatter found for format 'yaml'")

	_, err = GlobalRegistry.Format(map[string]int{}, "text")
	assert.Error(t, err)
}

func TestFormatterTypeMismatch(t *testing.T) {
	_, err := (&ScoreTextFormatter{}).Format(types.JobListing{})
	assert.EqualError(t, err, "expected ScoreReport, got types.JobListing")
}

func TestSupportedFormats(t *testing.T) {
	assert.ElementsMatch(t, []string{"json", "text", "markdown"}, GlobalRegistry.GetSupportedFormats())
}
