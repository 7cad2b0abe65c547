package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
)

// ApplicationStatus is where an application sits in the hiring pipeline.
// Transitions are not guarded; any update may set any status.
type ApplicationStatus string

const (
	StatusApplied       ApplicationStatus = "applied"
	StatusScreening     ApplicationStatus = "screening"
	StatusTestPending   ApplicationStatus = "test_pending"
	StatusTestCompleted ApplicationStatus = "test_completed"
	StatusInterview     ApplicationStatus = "interview"
	StatusSelected      ApplicationStatus = "selected"
	StatusRejected      ApplicationStatus = "rejected"
	StatusOfferPending  ApplicationStatus = "offer_pending"
	StatusOfferAccepted ApplicationStatus = "offer_accepted"
)

// Statuses lists every application status in pipeline order
var Statuses = []ApplicationStatus{
	StatusApplied, StatusScreening, StatusTestPending, StatusTestCompleted,
	StatusInterview, StatusSelected, StatusRejected, StatusOfferPending, StatusOfferAccepted,
}

// Valid reports whether s is a known status
func (s ApplicationStatus) Valid() bool {
	return slices.Contains(Statuses, s)
}

// RejectedBy names who rejected an application
type RejectedBy string

const (
	RejectedByAI      RejectedBy = "AI"
	RejectedByCompany RejectedBy = "Company"
)

// RejectionInfo records why and when an application was rejected
type RejectionInfo struct {
	RejectedBy RejectedBy `json:"rejectedBy"`
	Reason     string     `json:"reason"`
	RejectedAt string     `json:"rejectedAt"`
	EmailSent  bool       `json:"emailSent"`
}

// InterviewResult is the outcome of a completed interview
type InterviewResult string

const (
	InterviewPassed InterviewResult = "passed"
	InterviewFailed InterviewResult = "failed"
)

// InterviewData tracks the interview stage of an application
type InterviewData struct {
	ScheduledAt string          `json:"scheduledAt,omitempty"`
	Completed   bool            `json:"completed"`
	Result      InterviewResult `json:"result,omitempty"`
}

// AnalysisDetail is the structured form of an application analysis
type AnalysisDetail struct {
	MatchPercentage int      `json:"matchPercentage"`
	Strengths       []string `json:"strengths"`
	Weaknesses      []string `json:"weaknesses"`
	MissingSkills   []string `json:"missingSkills"`
	Improvements    []string `json:"improvements"`
}

// Analysis is either a one-line summary written at screening time or a
// structured breakdown written by a later analysis. It serializes as a JSON
// string or object accordingly.
type Analysis struct {
	Summary string
	Detail  *AnalysisDetail
}

// SummaryAnalysis wraps a one-line summary
func SummaryAnalysis(summary string) *Analysis {
	return &Analysis{Summary: summary}
}

// DetailedAnalysis wraps a structured breakdown
func DetailedAnalysis(detail AnalysisDetail) *Analysis {
	return &Analysis{Detail: &detail}
}

// String renders the analysis for humans
func (a *Analysis) String() string {
	if a == nil {
		return ""
	}
	if a.Detail != nil {
		return fmt.Sprintf("Match %d%%, missing %d skill(s)", a.Detail.MatchPercentage, len(a.Detail.MissingSkills))
	}
	return a.Summary
}

func (a Analysis) MarshalJSON() ([]byte, error) {
	if a.Detail != nil {
		return json.Marshal(a.Detail)
	}
	return json.Marshal(a.Summary)
}

func (a *Analysis) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*a = Analysis{}
		return nil
	}
	if trimmed[0] == '"' {
		var summary string
		if err := json.Unmarshal(trimmed, &summary); err != nil {
			return err
		}
		*a = Analysis{Summary: summary}
		return nil
	}
	var detail AnalysisDetail
	if err := json.Unmarshal(trimmed, &detail); err != nil {
		return fmt.Errorf("aiAnalysis must be a string or an object: %w", err)
	}
	*a = Analysis{Detail: &detail}
	return nil
}

// Application links a candidate to a job
type Application struct {
	ID             string            `json:"id"`
	JobID          string            `json:"jobId"`
	CandidateID    string            `json:"candidateId"`
	Status         ApplicationStatus `json:"status"`
	Score          *float64          `json:"score,omitempty"`
	AIAnalysis     *Analysis         `json:"aiAnalysis,omitempty"`
	TestScore      *float64          `json:"testScore,omitempty"`
	AppliedAt      string            `json:"appliedAt"`
	InterviewData  *InterviewData    `json:"interviewData,omitempty"`
	OfferLetterURL string            `json:"offerLetterUrl,omitempty"`
	RejectionInfo  *RejectionInfo    `json:"rejectionInfo,omitempty"`
}

// ApplicationWithCandidate is an application joined with its candidate
type ApplicationWithCandidate struct {
	Application
	Candidate *Candidate `json:"candidate,omitempty"`
}

// ApplicationWithJob is an application joined with its job
type ApplicationWithJob struct {
	Application
	Job *Job `json:"job,omitempty"`
}

// Float returns a pointer to v, for the optional numeric fields
func Float(v float64) *float64 {
	return &v
}
