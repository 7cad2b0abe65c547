package observability

import (
	"context"
	"fmt"
	"time"

	"whitecarrot/internal/config"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric types understood by RecordBusinessMetric
const (
	MetricApplicationScreened = "application_screened"
	MetricInterviewCompleted  = "interview_completed"
	MetricProctoringAlert     = "proctoring_alert"
	MetricTestFinished        = "test_finished"
	MetricNotificationSent    = "notification_sent"
	MetricFileUploaded        = "file_uploaded"
	MetricRateLimitHit        = "rate_limit_hit"
)

// Metrics holds all custom metrics for WhiteCarrot. A zero Metrics drops
// every measurement.
type Metrics struct {
	// Screening metrics
	ApplicationsScreened metric.Int64Counter
	MatchScore           metric.Float64Histogram
	InterviewsCompleted  metric.Int64Counter

	// Proctoring metrics
	ProctoringAlerts metric.Int64Counter
	TestsFinished    metric.Int64Counter
	TestScore        metric.Float64Histogram

	// Delivery metrics
	NotificationsSent metric.Int64Counter
	FilesUploaded     metric.Int64Counter
	UploadSize        metric.Int64Histogram

	// Infrastructure metrics
	StoreOperationDuration metric.Float64Histogram
	StoreErrors            metric.Int64Counter
	RateLimitHits          metric.Int64Counter
}

func newMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}
	var err error

	counters := []struct {
		target      *metric.Int64Counter
		name        string
		description string
	}{
		{&m.ApplicationsScreened, "whitecarrot_applications_screened_total", "Applications screened on submission"},
		{&m.InterviewsCompleted, "whitecarrot_interviews_completed_total", "Simulated interviews completed"},
		{&m.ProctoringAlerts, "whitecarrot_proctoring_alerts_total", "Alerts raised by the proctoring monitor"},
		{&m.TestsFinished, "whitecarrot_tests_finished_total", "Proctored tests submitted or terminated"},
		{&m.NotificationsSent, "whitecarrot_notifications_total", "Candidate notifications attempted"},
		{&m.FilesUploaded, "whitecarrot_uploads_total", "Upload attempts"},
		{&m.StoreErrors, "whitecarrot_store_errors_total", "Failed store round trips"},
		{&m.RateLimitHits, "whitecarrot_rate_limit_hits_total", "Total number of rate limit hits"},
	}
	for _, c := range counters {
		*c.target, err = meter.Int64Counter(c.name, metric.WithDescription(c.description))
		if err != nil {
			return nil, fmt.Errorf("failed to create %s metric: %w", c.name, err)
		}
	}

	m.MatchScore, err = meter.Float64Histogram(
		"whitecarrot_match_score_percent",
		metric.WithDescription("Skill match percentage of screened applications"),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(10, 25, 50, 60, 70, 80, 90, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create match score metric: %w", err)
	}

	m.TestScore, err = meter.Float64Histogram(
		"whitecarrot_test_score_percent",
		metric.WithDescription("Scores of submitted coding tests"),
		metric.WithUnit("%"),
		metric.WithExplicitBucketBoundaries(25, 50, 75, 100),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create test score metric: %w", err)
	}

	m.UploadSize, err = meter.Int64Histogram(
		"whitecarrot_upload_size_bytes",
		metric.WithDescription("Size of accepted uploads"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create upload size metric: %w", err)
	}

	m.StoreOperationDuration, err = meter.Float64Histogram(
		"whitecarrot_store_operation_duration_seconds",
		metric.WithDescription("Time spent loading and saving the ATS document"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create store duration metric: %w", err)
	}

	return m, nil
}

// RecordBusinessMetric adds one to the counter behind metricType
func (m *Metrics) RecordBusinessMetric(ctx context.Context, metricType string, success bool, attributes ...attribute.KeyValue) {
	attrs := append([]attribute.KeyValue{
		attribute.Bool("success", success),
	}, attributes...)

	var counter metric.Int64Counter
	switch metricType {
	case MetricApplicationScreened:
		counter = m.ApplicationsScreened
	case MetricInterviewCompleted:
		counter = m.InterviewsCompleted
	case MetricProctoringAlert:
		counter = m.ProctoringAlerts
	case MetricTestFinished:
		counter = m.TestsFinished
	case MetricNotificationSent:
		counter = m.NotificationsSent
	case MetricFileUploaded:
		counter = m.FilesUploaded
	case MetricRateLimitHit:
		counter = m.RateLimitHits
	}
	if counter != nil {
		counter.Add(ctx, 1, metric.WithAttributes(attrs...))
	}
}

// custom returns the custom metric switches. Without a full configuration
// everything is tracked.
func (om *ObservabilityManager) custom() config.CustomMetricsConfig {
	if om.fullConfig == nil {
		return config.CustomMetricsConfig{
			BusinessMetrics: config.BusinessMetricsConfig{Enabled: true, TrackScreening: true, TrackProctoring: true, TrackUploadSizes: true},
			Infrastructure:  config.InfrastructureMetricsConfig{Enabled: true, TrackRateLimits: true, TrackStore: true},
		}
	}
	return om.fullConfig.Observability.CustomMetrics
}

// RecordScreening counts an application screen and its match score
func (om *ObservabilityManager) RecordScreening(ctx context.Context, status string, score float64, fastTrack bool) {
	c := om.custom().BusinessMetrics
	if !c.Enabled || !c.TrackScreening {
		return
	}
	m := om.GetMetrics()
	m.RecordBusinessMetric(ctx, MetricApplicationScreened, true,
		attribute.String("status", status),
		attribute.Bool("fast_track", fastTrack))
	if m.MatchScore != nil {
		m.MatchScore.Record(ctx, score, metric.WithAttributes(attribute.String("status", status)))
	}
}

// RecordInterview counts a simulated interview outcome
func (om *ObservabilityManager) RecordInterview(ctx context.Context, result string) {
	c := om.custom().BusinessMetrics
	if !c.Enabled || !c.TrackScreening {
		return
	}
	om.GetMetrics().RecordBusinessMetric(ctx, MetricInterviewCompleted, true, attribute.String("result", result))
}

// RecordProctoringAlert counts one monitor alert
func (om *ObservabilityManager) RecordProctoringAlert(ctx context.Context, alertType, severity string) {
	c := om.custom().BusinessMetrics
	if !c.Enabled || !c.TrackProctoring {
		return
	}
	om.GetMetrics().RecordBusinessMetric(ctx, MetricProctoringAlert, true,
		attribute.String("alert_type", alertType),
		attribute.String("severity", severity))
}

// RecordTestOutcome counts a finished test. Scores are only recorded for
// submitted tests.
func (om *ObservabilityManager) RecordTestOutcome(ctx context.Context, outcome string, score float64) {
	c := om.custom().BusinessMetrics
	if !c.Enabled || !c.TrackProctoring {
		return
	}
	m := om.GetMetrics()
	m.RecordBusinessMetric(ctx, MetricTestFinished, true, attribute.String("outcome", outcome))
	if outcome == "submitted" && m.TestScore != nil {
		m.TestScore.Record(ctx, score)
	}
}

// RecordNotification counts a delivery attempt
func (om *ObservabilityManager) RecordNotification(ctx context.Context, kind string, err error) {
	if !om.custom().BusinessMetrics.Enabled {
		return
	}
	om.GetMetrics().RecordBusinessMetric(ctx, MetricNotificationSent, err == nil, attribute.String("kind", kind))
}

// RecordUpload counts an upload attempt and the size of accepted files
func (om *ObservabilityManager) RecordUpload(ctx context.Context, extension string, size int64, err error) {
	c := om.custom().BusinessMetrics
	if !c.Enabled {
		return
	}
	m := om.GetMetrics()
	m.RecordBusinessMetric(ctx, MetricFileUploaded, err == nil, attribute.String("extension", extension))
	if err == nil && c.TrackUploadSizes && m.UploadSize != nil {
		m.UploadSize.Record(ctx, size, metric.WithAttributes(attribute.String("extension", extension)))
	}
}

// RecordRateLimitHit counts a rejected request
func (om *ObservabilityManager) RecordRateLimitHit(ctx context.Context, keyType, path string) {
	c := om.custom().Infrastructure
	if !c.Enabled || !c.TrackRateLimits {
		return
	}
	om.GetMetrics().RecordBusinessMetric(ctx, MetricRateLimitHit, true,
		attribute.String("key_type", keyType),
		attribute.String("endpoint", path))
}

// RecordStoreOperation times one persistence round trip
func (om *ObservabilityManager) RecordStoreOperation(ctx context.Context, operation string, duration time.Duration, err error) {
	c := om.custom().Infrastructure
	if !c.Enabled || !c.TrackStore {
		return
	}
	m := om.GetMetrics()
	attrs := metric.WithAttributes(
		attribute.String("operation", operation),
		attribute.Bool("success", err == nil),
	)
	if m.StoreOperationDuration != nil {
		m.StoreOperationDuration.Record(ctx, duration.Seconds(), attrs)
	}
	if err != nil && m.StoreErrors != nil {
		m.StoreErrors.Add(ctx, 1, attrs)
	}
}
