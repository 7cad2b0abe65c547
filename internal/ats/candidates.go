package ats

import (
	"context"
	"slices"
	"strings"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/matching"
	"whitecarrot/internal/notify"
)

// OptimizeResult is a tailored profile and the advice that produced it
type OptimizeResult struct {
	Candidate    domain.Candidate      `json:"candidate"`
	Optimization matching.Optimization `json:"optimization"`
}

// OptimizeResume adds the skills most demanded by company's jobs to the
// candidate profile. company may be a slug or a display name.
func (s *Service) OptimizeResume(ctx context.Context, candidateID, company string) (OptimizeResult, error) {
	candidate, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return OptimizeResult{}, err
	}
	target, err := s.findCompany(ctx, company)
	if err != nil {
		return OptimizeResult{}, err
	}
	jobs, err := s.store.ListJobs(ctx, target.ID)
	if err != nil {
		return OptimizeResult{}, err
	}

	opt := matching.Optimize(candidate, jobs, target)
	if len(opt.AddedSkills) > 0 {
		candidate, err = s.store.ModifyCandidate(ctx, candidateID, func(c *domain.Candidate) error {
			c.Skills = opt.Skills
			return nil
		})
		if err != nil {
			return OptimizeResult{}, err
		}
	}

	s.logger.Info("Resume optimized",
		"candidate_id", candidateID,
		"company", target.Slug,
		"added_skills", len(opt.AddedSkills))
	return OptimizeResult{Candidate: candidate.Redacted(), Optimization: opt}, nil
}

func (s *Service) findCompany(ctx context.Context, key string) (domain.Company, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.Company{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "company is required", nil)
	}
	company, err := s.store.GetCompany(ctx, key)
	if err == nil || !errors.IsNotFound(err) {
		return company, err
	}
	companies, err := s.store.ListCompanies(ctx)
	if err != nil {
		return domain.Company{}, err
	}
	for _, c := range companies {
		if strings.EqualFold(c.Name, key) {
			return c, nil
		}
	}
	return domain.Company{}, errors.NewNotFoundError(errors.ErrCodeCompanyNotFound, "Company not found").
		WithContext("company", key)
}

// HackathonRegistration is the outcome of RegisterHackathon
type HackathonRegistration struct {
	Candidate         domain.Candidate `json:"candidate"`
	AlreadyRegistered bool             `json:"alreadyRegistered"`
	EmailSent         bool             `json:"emailSent"`
}

// RegisterHackathon records the registration once and confirms it by email.
// Registering again is a no-op.
func (s *Service) RegisterHackathon(ctx context.Context, candidateID, hackathonID string) (HackathonRegistration, error) {
	hackathonID = strings.TrimSpace(hackathonID)
	if hackathonID == "" {
		return HackathonRegistration{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "hackathonId is required", nil)
	}

	candidate, err := s.store.GetCandidate(ctx, candidateID)
	if err != nil {
		return HackathonRegistration{}, err
	}
	if slices.Contains(candidate.RegisteredHackathons, hackathonID) {
		return HackathonRegistration{Candidate: candidate.Redacted(), AlreadyRegistered: true}, nil
	}

	candidate, err = s.store.ModifyCandidate(ctx, candidateID, func(c *domain.Candidate) error {
		if !slices.Contains(c.RegisteredHackathons, hackathonID) {
			c.RegisteredHackathons = append(c.RegisteredHackathons, hackathonID)
		}
		return nil
	})
	if err != nil {
		return HackathonRegistration{}, err
	}

	sent := s.send(ctx, notify.HackathonEmail(recipient(candidate), hackathonID))
	return HackathonRegistration{Candidate: candidate.Redacted(), EmailSent: sent}, nil
}
