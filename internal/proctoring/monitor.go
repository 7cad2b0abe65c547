package proctoring

import (
	"fmt"
	"time"

	"whitecarrot/internal/domain"
)

// AlertType names the behaviour behind an alert
type AlertType string

const (
	AlertNoFace        AlertType = "no_face"
	AlertMultipleFaces AlertType = "multiple_faces"
	AlertLookingAway   AlertType = "looking_away"
	AlertSpeaking      AlertType = "speaking"
)

// Severity grades an alert; only critical alerts count toward termination
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Alert is one suspicious observation
type Alert struct {
	Type      AlertType `json:"type"`
	Severity  Severity  `json:"severity"`
	Timestamp string    `json:"timestamp"`
	Message   string    `json:"message"`
}

// Thresholds are the number of consecutive suspicious frames tolerated per
// alert type. An alert fires on every frame past the threshold.
type Thresholds struct {
	NoFace        int
	MultipleFaces int
	LookingAway   int
	Speaking      int
}

// DefaultThresholds match the reference client
var DefaultThresholds = Thresholds{NoFace: 3, MultipleFaces: 2, LookingAway: 5, Speaking: 10}

// Monitor keeps the consecutive-frame counters of one test taker. It is not
// safe for concurrent use; Session serializes access.
type Monitor struct {
	thresholds Thresholds
	counts     map[AlertType]int
	now        func() time.Time
}

// NewMonitor creates a monitor with zeroed counters
func NewMonitor(t Thresholds) *Monitor {
	return &Monitor{
		thresholds: t,
		counts:     map[AlertType]int{},
		now:        time.Now,
	}
}

// Counts returns a copy of the current counters
func (m *Monitor) Counts() map[AlertType]int {
	out := make(map[AlertType]int, len(m.counts))
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}

// Observe processes the faces detected in one frame and returns the alerts
// it raises. Gaze and speaking counters only move on single-face frames.
func (m *Monitor) Observe(faces []Face) ([]Alert, error) {
	var gaze Gaze
	if len(faces) == 1 {
		g, err := AnalyzeFace(faces[0])
		if err != nil {
			return nil, err
		}
		gaze = g
	}

	var alerts []Alert
	stamp := domain.Timestamp(m.now())

	raise := func(t AlertType, limit int, hit bool, severity Severity, message string) {
		if !hit {
			m.counts[t] = 0
			return
		}
		m.counts[t]++
		if m.counts[t] > limit {
			alerts = append(alerts, Alert{Type: t, Severity: severity, Timestamp: stamp, Message: message})
		}
	}

	raise(AlertNoFace, m.thresholds.NoFace, len(faces) == 0, SeverityCritical,
		"No face detected - candidate may have left the frame")
	raise(AlertMultipleFaces, m.thresholds.MultipleFaces, len(faces) > 1, SeverityCritical,
		"Multiple faces detected - candidate may not be alone")

	if len(faces) == 1 {
		severity := SeverityWarning
		if gaze.Direction == Down {
			severity = SeverityCritical
		}
		raise(AlertLookingAway, m.thresholds.LookingAway, gaze.LookingAway, severity,
			fmt.Sprintf("Candidate looking %s - possible cheating", gaze.Direction))
		raise(AlertSpeaking, m.thresholds.Speaking, gaze.MouthOpen, SeverityCritical,
			"Candidate appears to be speaking - may be communicating with someone")
	}

	return alerts, nil
}
