package ats

import (
	"context"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/matching"
	"whitecarrot/internal/notify"
)

// Apply screens the candidate against the job and stores the application.
// A candidate below the rejection threshold is rejected on the spot and
// told so by email.
func (s *Service) Apply(ctx context.Context, jobID, candidateID string) (domain.Application, error) {
	job, err := s.store.GetJob(ctx, jobID)
	if err != nil {
		return domain.Application{}, err
	}
	candidate, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return domain.Application{}, err
	}

	screening := s.screener.Screen(job, candidate)
	app := domain.Application{
		JobID:       job.ID,
		CandidateID: candidate.ID,
		Status:      screening.Status,
		Score:       domain.Float(screening.Match.Percentage),
		AIAnalysis:  domain.SummaryAnalysis(screening.Summary),
	}
	if screening.Rejected {
		app.RejectionInfo = &domain.RejectionInfo{
			RejectedBy: domain.RejectedByAI,
			Reason:     screening.Reason,
			RejectedAt: s.timestamp(),
		}
	}

	app, err = s.store.InsertApplication(ctx, app)
	if err != nil {
		return domain.Application{}, err
	}
	s.metrics.RecordScreening(ctx, string(app.Status), screening.Match.Percentage, screening.FastTrack)
	s.logger.Info("Application screened",
		"application_id", app.ID,
		"job_id", job.ID,
		"candidate_id", candidate.ID,
		"score", screening.Match.Rounded(),
		"status", app.Status)

	if !screening.Rejected {
		return app, nil
	}
	if !s.send(ctx, notify.RejectionEmail(recipient(candidate), job.Title, screening.Reason)) {
		return app, nil
	}
	return s.markEmailSent(ctx, app)
}

func (s *Service) markEmailSent(ctx context.Context, app domain.Application) (domain.Application, error) {
	updated, err := s.store.ModifyApplication(ctx, app.ID, func(a *domain.Application) error {
		if a.RejectionInfo != nil {
			a.RejectionInfo.EmailSent = true
		}
		return nil
	})
	if err != nil {
		// the email went out; the stored flag is the only thing missing
		s.logger.LogError(err, "Failed to record sent email", "application_id", app.ID)
		return app, nil
	}
	return updated, nil
}

// AnalyzeApplication replaces the screening summary with a structured
// breakdown. An applied application above the fast-track threshold is moved
// to selected. When the job or candidate no longer exists the application is
// returned unchanged.
func (s *Service) AnalyzeApplication(ctx context.Context, id string) (domain.Application, error) {
	app, err := s.store.GetApplication(ctx, id)
	if err != nil {
		return domain.Application{}, err
	}
	job, err := s.store.GetJob(ctx, app.JobID)
	if errors.IsNotFound(err) {
		return app, nil
	}
	if err != nil {
		return domain.Application{}, err
	}
	candidate, err := s.store.GetCandidate(ctx, app.CandidateID)
	if errors.IsNotFound(err) {
		return app, nil
	}
	if err != nil {
		return domain.Application{}, err
	}

	result := matching.Analyze(job, candidate, app.Status, s.screener.Thresholds().FastTrackAbove)
	return s.store.ModifyApplication(ctx, id, func(a *domain.Application) error {
		a.AIAnalysis = domain.DetailedAnalysis(result.Detail)
		a.Score = domain.Float(result.Score)
		a.Status = result.Status
		return nil
	})
}

// SubmitInterview completes the simulated interview. A pass moves the
// application to offer_pending with an offer letter, a failure rejects it.
func (s *Service) SubmitInterview(ctx context.Context, id string) (domain.Application, error) {
	passed := s.rand() < s.passRate
	now := s.timestamp()

	app, err := s.store.ModifyApplication(ctx, id, func(a *domain.Application) error {
		data := domain.InterviewData{Completed: true, ScheduledAt: now}
		if passed {
			data.Result = domain.InterviewPassed
			a.Status = domain.StatusOfferPending
			a.OfferLetterURL = s.offerLetterURL
		} else {
			data.Result = domain.InterviewFailed
			a.Status = domain.StatusRejected
		}
		a.InterviewData = &data
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	s.metrics.RecordInterview(ctx, string(app.InterviewData.Result))
	return app, nil
}
