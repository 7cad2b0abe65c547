package store

import (
	"context"
	"slices"
	"strings"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
)

func jobNotFound(id string) error {
	return errors.NewNotFoundError(errors.ErrCodeJobNotFound, "Job not found").WithContext("job_id", id)
}

// ListJobs returns the jobs of one company
func (s *Store) ListJobs(ctx context.Context, companyID string) ([]domain.Job, error) {
	var out []domain.Job
	err := s.read(ctx, func(d *Data) error {
		for _, j := range d.Jobs {
			if j.CompanyID == companyID {
				out = append(out, j.Clone())
			}
		}
		return nil
	})
	return out, err
}

// ListAllJobs returns every job
func (s *Store) ListAllJobs(ctx context.Context) ([]domain.Job, error) {
	var out []domain.Job
	err := s.read(ctx, func(d *Data) error {
		out = cloneAll(d.Jobs)
		return nil
	})
	return out, err
}

// GetJob returns the job with the given id
func (s *Store) GetJob(ctx context.Context, id string) (domain.Job, error) {
	var out domain.Job
	err := s.read(ctx, func(d *Data) error {
		i := slices.IndexFunc(d.Jobs, func(j domain.Job) bool { return j.ID == id })
		if i < 0 {
			return jobNotFound(id)
		}
		out = d.Jobs[i].Clone()
		return nil
	})
	return out, err
}

// CreateJob stores a new job, assigning its id and publication time
func (s *Store) CreateJob(ctx context.Context, job domain.Job) (domain.Job, error) {
	if strings.TrimSpace(job.Title) == "" {
		return domain.Job{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "job title is required", nil)
	}
	err := s.mutate(ctx, "create_job", func(d *Data) error {
		if !slices.ContainsFunc(d.Companies, func(c domain.Company) bool { return c.ID == job.CompanyID }) {
			return companyNotFound(job.CompanyID)
		}
		job.ID = s.newID()
		job.PublishedAt = s.timestamp()
		if job.Slug == "" {
			job.Slug = Slugify(job.Title + " " + strings.Split(job.Location, ",")[0])
		}
		if job.Skills == nil {
			job.Skills = []string{}
		}
		if job.Requirements == nil {
			job.Requirements = []string{}
		}
		d.Jobs = append(d.Jobs, job.Clone())
		return nil
	})
	if err != nil {
		return domain.Job{}, err
	}
	return job, nil
}

// UpdateJob merges patch into the job
func (s *Store) UpdateJob(ctx context.Context, id string, patch Patch) (domain.Job, error) {
	var out domain.Job
	err := s.mutate(ctx, "update_job", func(d *Data) error {
		i := slices.IndexFunc(d.Jobs, func(j domain.Job) bool { return j.ID == id })
		if i < 0 {
			return jobNotFound(id)
		}
		updated, err := applyPatch(d.Jobs[i], patch)
		if err != nil {
			return err
		}
		d.Jobs[i] = updated
		out = updated.Clone()
		return nil
	})
	return out, err
}

// SearchJobs returns the jobs accepted by match, in document order
func (s *Store) SearchJobs(ctx context.Context, match func(domain.Job) bool) ([]domain.Job, error) {
	out := []domain.Job{}
	err := s.read(ctx, func(d *Data) error {
		for _, j := range d.Jobs {
			if match == nil || match(j) {
				out = append(out, j.Clone())
			}
		}
		return nil
	})
	return out, err
}
