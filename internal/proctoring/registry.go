package proctoring

import (
	"sync"
	"time"

	"whitecarrot/internal/errors"

	"github.com/google/uuid"
)

// RegistryConfig tunes the session registry
type RegistryConfig struct {
	Thresholds      Thresholds
	CriticalLimit   int
	SessionTTL      time.Duration // idle sessions older than this are dropped
	CleanupInterval time.Duration
}

// Registry holds the live proctored sessions
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session
	cfg      RegistryConfig
	done     chan struct{}
	once     sync.Once
	logger   *errors.Logger
}

// NewRegistry creates a registry and starts its cleanup loop
func NewRegistry(cfg RegistryConfig, logger *errors.Logger) *Registry {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 2 * time.Hour
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = 10 * time.Minute
	}
	r := &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		done:     make(chan struct{}),
		logger:   logger,
	}
	go r.cleanupRoutine()
	return r
}

// Start opens a session for a candidate working on a question
func (r *Registry) Start(candidateID, questionID, applicationID string) *Session {
	s := NewSession(uuid.NewString(), r.cfg.Thresholds, r.cfg.CriticalLimit)
	s.CandidateID = candidateID
	s.QuestionID = questionID
	s.ApplicationID = applicationID

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns a live session
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, errors.NewNotFoundError(errors.ErrCodeSessionNotFound, "Test session not found").
			WithContext("session_id", id)
	}
	return s, nil
}

// Remove forgets a session
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

// GetStats returns registry statistics
func (r *Registry) GetStats() map[string]any {
	r.mu.Lock()
	defer r.mu.Unlock()

	byStatus := map[Status]int{}
	for _, s := range r.sessions {
		byStatus[s.State().Status]++
	}
	return map[string]any{
		"sessions":    len(r.sessions),
		"active":      byStatus[StatusActive],
		"terminated":  byStatus[StatusTerminated],
		"submitted":   byStatus[StatusSubmitted],
		"session_ttl": r.cfg.SessionTTL.String(),
	}
}

func (r *Registry) cleanupRoutine() {
	ticker := time.NewTicker(r.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanup(time.Now())
		case <-r.done:
			return
		}
	}
}

// cleanup drops sessions idle for longer than the TTL
func (r *Registry) cleanup(now time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		if now.Sub(s.idleSince()) > r.cfg.SessionTTL {
			delete(r.sessions, id)
			removed++
		}
	}

	if r.logger != nil {
		r.logger.Debug("Proctoring session cleanup completed",
			"removed", removed,
			"remaining_sessions", len(r.sessions))
	}
	return removed
}

// Close stops the cleanup loop
func (r *Registry) Close() {
	r.once.Do(func() { close(r.done) })
}
