// Package ats combines the store with screening, proctoring and candidate
// notifications. HTTP handlers, MCP tools and CLI commands all go through it.
package ats

import (
	"context"
	"io"
	"log/slog"
	"math/rand/v2"
	"time"

	"whitecarrot/internal/config"
	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/matching"
	"whitecarrot/internal/notify"
	"whitecarrot/internal/proctoring"
	"whitecarrot/internal/store"
)

// DefaultOfferLetterURL is attached to applications that pass the interview
const DefaultOfferLetterURL = "https://www.w3.org/WAI/ER/tests/xhtml/testfiles/resources/pdf/dummy.pdf"

// Metrics receives business events. The observability manager implements it.
type Metrics interface {
	RecordScreening(ctx context.Context, status string, score float64, fastTrack bool)
	RecordInterview(ctx context.Context, result string)
	RecordProctoringAlert(ctx context.Context, alertType, severity string)
	RecordTestOutcome(ctx context.Context, outcome string, score float64)
	RecordNotification(ctx context.Context, kind string, err error)
}

type nopMetrics struct{}

func (nopMetrics) RecordScreening(context.Context, string, float64, bool) {}
func (nopMetrics) RecordInterview(context.Context, string)                {}
func (nopMetrics) RecordProctoringAlert(context.Context, string, string)  {}
func (nopMetrics) RecordTestOutcome(context.Context, string, float64)     {}
func (nopMetrics) RecordNotification(context.Context, string, error)      {}

// Options configures a Service. Nil fields fall back to defaults.
type Options struct {
	// Screening is used as given; nil selects the configuration defaults
	Screening *config.ScreeningConfig
	Notifier  notify.Notifier
	Registry  *proctoring.Registry
	Metrics   Metrics
	Logger    *errors.Logger
	// Rand returns a value in [0,1) and drives the simulated interview
	Rand func() float64
	Now  func() time.Time
}

// Service is the ATS business layer
type Service struct {
	store    *store.Store
	screener *matching.Screener
	notifier notify.Notifier
	registry *proctoring.Registry
	metrics  Metrics
	logger   *errors.Logger

	passRate       float64
	offerLetterURL string
	rand           func() float64
	now            func() time.Time
}

// New creates a service over st
func New(st *store.Store, opts Options) *Service {
	screening := config.Default().Screening
	if opts.Screening != nil {
		screening = *opts.Screening
	}
	thresholds := matching.Thresholds{
		RejectBelow:    screening.RejectBelow,
		FastTrackAbove: screening.FastTrackAbove,
	}

	if opts.Logger == nil {
		opts.Logger = errors.NewLoggerTo(io.Discard, slog.LevelError)
	}

	s := &Service{
		store:          st,
		screener:       matching.NewScreener(thresholds),
		notifier:       opts.Notifier,
		registry:       opts.Registry,
		metrics:        opts.Metrics,
		logger:         opts.Logger,
		passRate:       screening.InterviewPassRate,
		offerLetterURL: screening.OfferLetterURL,
		rand:           opts.Rand,
		now:            opts.Now,
	}
	if s.notifier == nil {
		s.notifier = notify.NewLogNotifier("", opts.Logger)
	}
	if s.registry == nil {
		s.registry = proctoring.NewRegistry(proctoring.RegistryConfig{
			Thresholds:    proctoring.DefaultThresholds,
			CriticalLimit: proctoring.DefaultCriticalLimit,
		}, opts.Logger)
	}
	if s.metrics == nil {
		s.metrics = nopMetrics{}
	}
	if s.offerLetterURL == "" {
		s.offerLetterURL = DefaultOfferLetterURL
	}
	if s.rand == nil {
		s.rand = rand.Float64
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// Store exposes the underlying store for plain CRUD
func (s *Service) Store() *store.Store {
	return s.store
}

// Registry exposes the live proctoring sessions
func (s *Service) Registry() *proctoring.Registry {
	return s.registry
}

// Thresholds returns the screening thresholds in use
func (s *Service) Thresholds() matching.Thresholds {
	return s.screener.Thresholds()
}

// NotifierStats reports the circuit breaker of the notification transport
func (s *Service) NotifierStats() map[string]any {
	if n, ok := s.notifier.(interface{ Stats() map[string]any }); ok {
		return n.Stats()
	}
	return map[string]any{"enabled": false}
}

// Close stops the proctoring registry and the notifier
func (s *Service) Close() error {
	s.registry.Close()
	return s.notifier.Close()
}

func (s *Service) timestamp() string {
	return domain.Timestamp(s.now())
}

// send delivers msg and reports whether it went out. Delivery failures are
// logged, never returned: the triggering operation has already been stored.
func (s *Service) send(ctx context.Context, msg notify.Message) bool {
	err := s.notifier.Send(ctx, msg)
	s.metrics.RecordNotification(ctx, string(msg.Kind), err)
	if err != nil {
		s.logger.LogError(err, "Failed to send notification", "kind", msg.Kind, "to", msg.To)
		return false
	}
	return true
}

func recipient(c domain.Candidate) notify.Recipient {
	return notify.Recipient{Name: c.Name, Email: c.Email}
}
