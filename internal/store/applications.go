package store

import (
	"context"
	"slices"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
)

func applicationNotFound(id string) error {
	return errors.NewNotFoundError(errors.ErrCodeApplicationNotFound, "Application not found").WithContext("application_id", id)
}

// InsertApplication stores a new application. The job and candidate must
// exist and a candidate can apply to a job only once.
func (s *Store) InsertApplication(ctx context.Context, app domain.Application) (domain.Application, error) {
	if app.Status == "" {
		app.Status = domain.StatusApplied
	}
	if !app.Status.Valid() {
		return domain.Application{}, invalidStatus(app.Status)
	}
	err := s.mutate(ctx, "insert_application", func(d *Data) error {
		if !slices.ContainsFunc(d.Jobs, func(j domain.Job) bool { return j.ID == app.JobID }) {
			return jobNotFound(app.JobID)
		}
		if !slices.ContainsFunc(d.Candidates, func(c domain.Candidate) bool { return c.ID == app.CandidateID }) {
			return candidateNotFound(app.CandidateID)
		}
		if slices.ContainsFunc(d.Applications, func(a domain.Application) bool {
			return a.JobID == app.JobID && a.CandidateID == app.CandidateID
		}) {
			return errors.NewConflictError(errors.ErrCodeDuplicateApp, "You have already applied to this job").
				WithContext("job_id", app.JobID)
		}
		if app.ID == "" {
			app.ID = s.newID()
		}
		if app.AppliedAt == "" {
			app.AppliedAt = s.timestamp()
		}
		d.Applications = append(d.Applications, app.Clone())
		return nil
	})
	if err != nil {
		return domain.Application{}, err
	}
	return app, nil
}

// GetApplication returns the application with the given id
func (s *Store) GetApplication(ctx context.Context, id string) (domain.Application, error) {
	var out domain.Application
	err := s.read(ctx, func(d *Data) error {
		i := slices.IndexFunc(d.Applications, func(a domain.Application) bool { return a.ID == id })
		if i < 0 {
			return applicationNotFound(id)
		}
		out = d.Applications[i].Clone()
		return nil
	})
	return out, err
}

// ApplicationsForJob returns the applications of a job joined with their
// candidates. Passwords are stripped.
func (s *Store) ApplicationsForJob(ctx context.Context, jobID string) ([]domain.ApplicationWithCandidate, error) {
	out := []domain.ApplicationWithCandidate{}
	err := s.read(ctx, func(d *Data) error {
		for _, a := range d.Applications {
			if a.JobID != jobID {
				continue
			}
			joined := domain.ApplicationWithCandidate{Application: a.Clone()}
			if i := slices.IndexFunc(d.Candidates, func(c domain.Candidate) bool { return c.ID == a.CandidateID }); i >= 0 {
				c := d.Candidates[i].Clone().Redacted()
				joined.Candidate = &c
			}
			out = append(out, joined)
		}
		return nil
	})
	return out, err
}

// ApplicationsByCandidate returns a candidate's applications joined with
// their jobs
func (s *Store) ApplicationsByCandidate(ctx context.Context, candidateID string) ([]domain.ApplicationWithJob, error) {
	out := []domain.ApplicationWithJob{}
	err := s.read(ctx, func(d *Data) error {
		for _, a := range d.Applications {
			if a.CandidateID != candidateID {
				continue
			}
			joined := domain.ApplicationWithJob{Application: a.Clone()}
			if i := slices.IndexFunc(d.Jobs, func(j domain.Job) bool { return j.ID == a.JobID }); i >= 0 {
				j := d.Jobs[i].Clone()
				joined.Job = &j
			}
			out = append(out, joined)
		}
		return nil
	})
	return out, err
}

// UpdateApplication merges patch into the application. Any known status
// may be set.
func (s *Store) UpdateApplication(ctx context.Context, id string, patch Patch) (domain.Application, error) {
	var out domain.Application
	err := s.mutate(ctx, "update_application", func(d *Data) error {
		i := slices.IndexFunc(d.Applications, func(a domain.Application) bool { return a.ID == id })
		if i < 0 {
			return applicationNotFound(id)
		}
		updated, err := applyPatch(d.Applications[i], patch, "interviewData", "rejectionInfo")
		if err != nil {
			return err
		}
		if !updated.Status.Valid() {
			return invalidStatus(updated.Status)
		}
		d.Applications[i] = updated
		out = updated.Clone()
		return nil
	})
	return out, err
}

// ModifyApplication applies fn to the stored application and persists the
// result
func (s *Store) ModifyApplication(ctx context.Context, id string, fn func(a *domain.Application) error) (domain.Application, error) {
	var out domain.Application
	err := s.mutate(ctx, "modify_application", func(d *Data) error {
		i := slices.IndexFunc(d.Applications, func(a domain.Application) bool { return a.ID == id })
		if i < 0 {
			return applicationNotFound(id)
		}
		a := d.Applications[i]
		if err := fn(&a); err != nil {
			return err
		}
		if !a.Status.Valid() {
			return invalidStatus(a.Status)
		}
		a.ID = id
		d.Applications[i] = a.Clone()
		out = a
		return nil
	})
	return out, err
}

func invalidStatus(status domain.ApplicationStatus) error {
	return errors.NewValidationError(errors.ErrCodeInvalidRequest, "unknown application status", nil).
		WithContext("status", string(status))
}

// ReplaceApplication overwrites the stored application with app
func (s *Store) ReplaceApplication(ctx context.Context, app domain.Application) (domain.Application, error) {
	return s.ModifyApplication(ctx, app.ID, func(a *domain.Application) error {
		*a = app
		return nil
	})
}
