// Package types holds the report shapes printed by the CLI commands.
package types

import (
	"whitecarrot/internal/domain"
	"whitecarrot/internal/matching"
	"whitecarrot/internal/proctoring"
)

// ScoreReport is the output of the score command
type ScoreReport struct {
	JobTitle      string                   `json:"jobTitle,omitempty"`
	CandidateName string                   `json:"candidateName,omitempty"`
	Match         matching.Match           `json:"match"`
	Status        domain.ApplicationStatus `json:"status"`
	Summary       string                   `json:"summary"`
	Reason        string                   `json:"reason,omitempty"`
	FastTrack     bool                     `json:"fastTrack"`
	RejectBelow   float64                  `json:"rejectBelow"`
}

// ApplicationReport is the output of the analyze command
type ApplicationReport struct {
	ApplicationID string                   `json:"applicationId"`
	JobTitle      string                   `json:"jobTitle"`
	CandidateName string                   `json:"candidateName"`
	Status        domain.ApplicationStatus `json:"status"`
	Score         float64                  `json:"score"`
	Analysis      domain.AnalysisDetail    `json:"analysis"`
}

// JobListing is the output of the jobs command
type JobListing struct {
	Query    string       `json:"query,omitempty"`
	Location string       `json:"location,omitempty"`
	Count    int          `json:"count"`
	Jobs     []domain.Job `json:"jobs"`
}

// ProctorReport is the output of the proctor command
type ProctorReport struct {
	Frames        int                `json:"frames"`
	Status        proctoring.Status  `json:"status"`
	CriticalCount int                `json:"criticalCount"`
	Alerts        []proctoring.Alert `json:"alerts"`
	// TerminatedAt is the 1-based frame that ended the test, 0 when it ran to the end
	TerminatedAt int                `json:"terminatedAt,omitempty"`
	Violations   []proctoring.Alert `json:"violations,omitempty"`
}
