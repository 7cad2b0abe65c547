package proctoring

import (
	"sync"
	"time"

	"whitecarrot/internal/errors"
)

// DefaultCriticalLimit is the number of accumulated critical alerts that
// terminates a test
const DefaultCriticalLimit = 3

// Status is the lifecycle state of a proctored test
type Status string

const (
	StatusActive     Status = "active"
	StatusTerminated Status = "terminated"
	StatusSubmitted  Status = "submitted"
)

// CaseResult is the outcome of one test case run by the client
type CaseResult struct {
	Input    string `json:"input"`
	Expected string `json:"expected"`
	Output   string `json:"output"`
	Passed   bool   `json:"passed"`
}

// FrameOutcome is what a frame did to the session
type FrameOutcome struct {
	Alerts []Alert `json:"alerts"`
	// Terminated is true only for the frame that ended the test
	Terminated bool `json:"terminated"`
	// Violations lists the critical alerts behind a termination
	Violations []Alert `json:"violations,omitempty"`
}

// SessionState is a point-in-time view of a session
type SessionState struct {
	ID            string         `json:"id"`
	CandidateID   string         `json:"candidateId"`
	QuestionID    string         `json:"questionId"`
	ApplicationID string         `json:"applicationId,omitempty"`
	Status        Status         `json:"status"`
	StartedAt     time.Time      `json:"startedAt"`
	Frames        int            `json:"frames"`
	Alerts        []Alert        `json:"alerts"`
	CriticalCount int            `json:"criticalCount"`
	Counters      map[string]int `json:"counters"`
	Score         *float64       `json:"score,omitempty"`
}

// Session is one proctored coding test
type Session struct {
	ID            string
	CandidateID   string
	QuestionID    string
	ApplicationID string
	StartedAt     time.Time

	mu            sync.Mutex
	monitor       *Monitor
	criticalLimit int
	status        Status
	alerts        []Alert
	critical      int
	frames        int
	score         *float64
	lastActivity  time.Time
}

// NewSession starts an active session
func NewSession(id string, thresholds Thresholds, criticalLimit int) *Session {
	if criticalLimit < 1 {
		criticalLimit = DefaultCriticalLimit
	}
	now := time.Now()
	return &Session{
		ID:            id,
		StartedAt:     now,
		monitor:       NewMonitor(thresholds),
		criticalLimit: criticalLimit,
		status:        StatusActive,
		lastActivity:  now,
	}
}

func (s *Session) closedError() error {
	return errors.NewConflictError(errors.ErrCodeSessionTerminated, "Test session is no longer active").
		WithContext("session_id", s.ID).
		WithContext("status", string(s.status))
}

// Observe feeds one frame to the monitor. The test terminates exactly once,
// on the frame that brings the critical alert count to the limit.
func (s *Session) Observe(faces []Face) (FrameOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return FrameOutcome{}, s.closedError()
	}

	alerts, err := s.monitor.Observe(faces)
	if err != nil {
		return FrameOutcome{}, err
	}
	s.frames++
	s.lastActivity = time.Now()

	out := FrameOutcome{Alerts: alerts}
	if out.Alerts == nil {
		out.Alerts = []Alert{}
	}
	for _, a := range alerts {
		s.alerts = append(s.alerts, a)
		if a.Severity == SeverityCritical {
			s.critical++
		}
	}

	if s.critical >= s.criticalLimit {
		s.status = StatusTerminated
		out.Terminated = true
		out.Violations = s.criticalAlerts()
	}
	return out, nil
}

// Submit grades the test as the share of passed cases. A session with no
// cases scores zero.
func (s *Session) Submit(results []CaseResult) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != StatusActive {
		return 0, s.closedError()
	}

	score := Grade(results)
	s.score = &score
	s.status = StatusSubmitted
	s.lastActivity = time.Now()
	return score, nil
}

// Reopen returns a submitted session to active so a submission whose
// results could not be stored can be retried
func (s *Session) Reopen() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status == StatusSubmitted {
		s.status = StatusActive
		s.score = nil
	}
}

// Grade returns passed / total * 100, or 0 for no results
func Grade(results []CaseResult) float64 {
	if len(results) == 0 {
		return 0
	}
	passed := 0
	for _, r := range results {
		if r.Passed {
			passed++
		}
	}
	return float64(passed) / float64(len(results)) * 100
}

// State returns a snapshot of the session
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	counters := map[string]int{}
	for k, v := range s.monitor.Counts() {
		counters[string(k)] = v
	}
	alerts := make([]Alert, len(s.alerts))
	copy(alerts, s.alerts)

	return SessionState{
		ID:            s.ID,
		CandidateID:   s.CandidateID,
		QuestionID:    s.QuestionID,
		ApplicationID: s.ApplicationID,
		Status:        s.status,
		StartedAt:     s.StartedAt,
		Frames:        s.frames,
		Alerts:        alerts,
		CriticalCount: s.critical,
		Counters:      counters,
		Score:         s.score,
	}
}

func (s *Session) criticalAlerts() []Alert {
	var out []Alert
	for _, a := range s.alerts {
		if a.Severity == SeverityCritical {
			out = append(out, a)
		}
	}
	return out
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}
