package proctoring

import (
	"testing"
	"time"

	"whitecarrot/internal/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// face builds a 100x100 detection at the origin with eyes at eyeY, the
// given eye spacing around noseX, and the mouth at mouthY
func face(eyeY, eyeSpacing, noseX, mouthY float64) Face {
	return Face{
		TopLeft:     Point{0, 0},
		BottomRight: Point{100, 100},
		Landmarks: []Point{
			{50 - eyeSpacing/2, eyeY},
			{50 + eyeSpacing/2, eyeY},
			{noseX, 55},
			{50, mouthY},
			{5, 50},
			{95, 50},
		},
	}
}

var (
	centered   = face(50, 40, 50, 60)
	lookDown   = face(70, 40, 50, 60)
	lookUp     = face(30, 40, 50, 60)
	turnedLeft = face(50, 10, 40, 60)
	speaking   = face(50, 40, 50, 70)
)

func TestAnalyzeFace(t *testing.T) {
	tests := []struct {
		name      string
		face      Face
		away      bool
		direction Direction
		mouthOpen bool
	}{
		{"centered", centered, false, Center, false},
		{"down", lookDown, true, Down, false},
		{"up", lookUp, true, Up, false},
		{"left", turnedLeft, true, Left, false},
		{"right", face(50, 10, 60, 60), true, Right, false},
		{"speaking", speaking, false, Center, true},
		{"sideways overrides down", face(70, 10, 60, 60), true, Right, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := AnalyzeFace(tt.face)
			require.NoError(t, err)
			assert.Equal(t, tt.away, g.LookingAway)
			assert.Equal(t, tt.direction, g.Direction)
			assert.Equal(t, tt.mouthOpen, g.MouthOpen)
			assert.InDelta(t, 0.85, g.Confidence, 0.0001)
		})
	}
}

func TestAnalyzeFaceNeedsLandmarks(t *testing.T) {
	_, err := AnalyzeFace(Face{BottomRight: Point{10, 10}, Landmarks: []Point{{1, 1}}})
	require.Error(t, err)
	assert.Equal(t, errors.ErrorTypeValidation, errors.TypeOf(err))
}

func observeN(t *testing.T, m *Monitor, faces []Face, n int) []Alert {
	t.Helper()
	var last []Alert
	for range n {
		alerts, err := m.Observe(faces)
		require.NoError(t, err)
		last = alerts
	}
	return last
}

func TestMonitorThresholds(t *testing.T) {
	tests := []struct {
		name     string
		faces    []Face
		quiet    int
		alert    AlertType
		severity Severity
		message  string
	}{
		{"no face", nil, 3, AlertNoFace, SeverityCritical, "No face detected - candidate may have left the frame"},
		{"multiple faces", []Face{centered, centered}, 2, AlertMultipleFaces, SeverityCritical, "Multiple faces detected - candidate may not be alone"},
		{"looking down", []Face{lookDown}, 5, AlertLookingAway, SeverityCritical, "Candidate looking down - possible cheating"},
		{"looking left", []Face{turnedLeft}, 5, AlertLookingAway, SeverityWarning, "Candidate looking left - possible cheating"},
		{"speaking", []Face{speaking}, 10, AlertSpeaking, SeverityCritical, "Candidate appears to be speaking - may be communicating with someone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewMonitor(DefaultThresholds)
			assert.Empty(t, observeN(t, m, tt.faces, tt.quiet), "no alert up to the threshold")

			alerts := observeN(t, m, tt.faces, 1)
			require.Len(t, alerts, 1)
			assert.Equal(t, tt.alert, alerts[0].Type)
			assert.Equal(t, tt.severity, alerts[0].Severity)
			assert.Equal(t, tt.message, alerts[0].Message)

			assert.Len(t, observeN(t, m, tt.faces, 1), 1, "every frame past the threshold alerts")
		})
	}
}

func TestMonitorResetsOnCleanFrame(t *testing.T) {
	m := NewMonitor(DefaultThresholds)
	observeN(t, m, nil, 3)
	observeN(t, m, []Face{centered}, 1)
	assert.Equal(t, 0, m.Counts()[AlertNoFace])
	assert.Empty(t, observeN(t, m, nil, 3))
}

func TestMonitorRejectsMalformedFaceWithoutSideEffects(t *testing.T) {
	m := NewMonitor(DefaultThresholds)
	observeN(t, m, nil, 2)

	_, err := m.Observe([]Face{{Landmarks: []Point{{0, 0}}}})
	require.Error(t, err)
	assert.Equal(t, 2, m.Counts()[AlertNoFace])
}

func TestSessionTerminatesOnThirdCriticalAlert(t *testing.T) {
	s := NewSession("s1", DefaultThresholds, DefaultCriticalLimit)

	for i := 0; i < 5; i++ {
		out, err := s.Observe(nil)
		require.NoError(t, err)
		assert.False(t, out.Terminated, "frame %d", i+1)
	}
	assert.Equal(t, 2, s.State().CriticalCount)
	assert.Equal(t, StatusActive, s.State().Status)

	out, err := s.Observe(nil)
	require.NoError(t, err)
	assert.True(t, out.Terminated)
	assert.Len(t, out.Violations, 3)
	assert.Equal(t, StatusTerminated, s.State().Status)

	_, err = s.Observe(nil)
	assert.True(t, errors.IsConflict(err))
	_, err = s.Submit([]CaseResult{{Passed: true}})
	assert.True(t, errors.IsConflict(err))
}

func TestWarningsDoNotTerminate(t *testing.T) {
	s := NewSession("s1", DefaultThresholds, DefaultCriticalLimit)
	for range 20 {
		out, err := s.Observe([]Face{turnedLeft})
		require.NoError(t, err)
		assert.False(t, out.Terminated)
	}
	state := s.State()
	assert.Equal(t, 0, state.CriticalCount)
	assert.Len(t, state.Alerts, 15)
}

func TestSubmit(t *testing.T) {
	tests := []struct {
		name    string
		results []CaseResult
		score   float64
	}{
		{"none", nil, 0},
		{"all", []CaseResult{{Passed: true}, {Passed: true}}, 100},
		{"three of four", []CaseResult{{Passed: true}, {Passed: true}, {Passed: true}, {Passed: false}}, 75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("s", DefaultThresholds, 3)
			score, err := s.Submit(tt.results)
			require.NoError(t, err)
			assert.InDelta(t, tt.score, score, 0.0001)
			assert.Equal(t, StatusSubmitted, s.State().Status)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry(RegistryConfig{Thresholds: DefaultThresholds, CriticalLimit: 3, SessionTTL: time.Minute, CleanupInterval: time.Hour}, nil)
	defer r.Close()

	s := r.Start("cand", "dsa-1", "app-1")
	got, err := r.Get(s.ID)
	require.NoError(t, err)
	assert.Same(t, s, got)
	assert.Equal(t, "dsa-1", got.State().QuestionID)

	_, err = r.Get("missing")
	assert.True(t, errors.IsNotFound(err))

	assert.Equal(t, 0, r.cleanup(time.Now()))
	assert.Equal(t, 1, r.cleanup(time.Now().Add(2*time.Minute)))
	_, err = r.Get(s.ID)
	assert.True(t, errors.IsNotFound(err))

	r.Close()
	r.Close()
}
