package ats

import (
	"context"

	"whitecarrot/internal/careers"
	"whitecarrot/internal/domain"
	"whitecarrot/internal/matching"
)

// CreateJob stores a job. A job posted without skills gets the skills
// mentioned in its title and description.
func (s *Service) CreateJob(ctx context.Context, job domain.Job) (domain.Job, error) {
	if len(job.Skills) == 0 {
		job.Skills = matching.InferSkills(job.Title, job.Description+" "+job.DetailedJobDescription)
	}
	return s.store.CreateJob(ctx, job)
}

// SearchJobs returns the jobs accepted by f across all companies
func (s *Service) SearchJobs(ctx context.Context, f careers.Filter) ([]domain.Job, error) {
	return s.store.SearchJobs(ctx, f.Match)
}

// CareersPage builds the public careers page of the company with slug
func (s *Service) CareersPage(ctx context.Context, slug, query string) (careers.Page, error) {
	company, err := s.store.GetCompany(ctx, slug)
	if err != nil {
		return careers.Page{}, err
	}
	jobs, err := s.store.ListJobs(ctx, company.ID)
	if err != nil {
		return careers.Page{}, err
	}
	return careers.BuildPage(company, jobs, query), nil
}
