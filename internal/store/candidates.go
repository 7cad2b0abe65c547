package store

import (
	"context"
	"slices"
	"strings"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
)

func candidateNotFound(key string) error {
	return errors.NewNotFoundError(errors.ErrCodeCandidateNotFound, "Candidate not found").WithContext("candidate", key)
}

// CreateCandidate registers a new candidate. Emails are unique regardless
// of case.
func (s *Store) CreateCandidate(ctx context.Context, c domain.Candidate) (domain.Candidate, error) {
	c.Email = strings.TrimSpace(c.Email)
	if c.Email == "" || strings.TrimSpace(c.Name) == "" {
		return domain.Candidate{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "name and email are required", nil)
	}
	err := s.mutate(ctx, "create_candidate", func(d *Data) error {
		if slices.ContainsFunc(d.Candidates, func(existing domain.Candidate) bool { return equalFold(existing.Email, c.Email) }) {
			return errors.NewConflictError(errors.ErrCodeAccountExists, "An account with this email already exists")
		}
		if c.ID == "" {
			c.ID = s.newID()
		}
		if c.Skills == nil {
			c.Skills = []string{}
		}
		d.Candidates = append(d.Candidates, c.Clone())
		return nil
	})
	if err != nil {
		return domain.Candidate{}, err
	}
	return c, nil
}

// GetCandidate returns the candidate with the given id
func (s *Store) GetCandidate(ctx context.Context, id string) (domain.Candidate, error) {
	var out domain.Candidate
	err := s.read(ctx, func(d *Data) error {
		i := slices.IndexFunc(d.Candidates, func(c domain.Candidate) bool { return c.ID == id })
		if i < 0 {
			return candidateNotFound(id)
		}
		out = d.Candidates[i].Clone()
		return nil
	})
	return out, err
}

// GetCandidateByEmail looks a candidate up by email, ignoring case
func (s *Store) GetCandidateByEmail(ctx context.Context, email string) (domain.Candidate, error) {
	var out domain.Candidate
	err := s.read(ctx, func(d *Data) error {
		i := slices.IndexFunc(d.Candidates, func(c domain.Candidate) bool { return equalFold(c.Email, email) })
		if i < 0 {
			return candidateNotFound(email)
		}
		out = d.Candidates[i].Clone()
		return nil
	})
	return out, err
}

// LoginCandidate checks the demo credentials of a candidate
func (s *Store) LoginCandidate(ctx context.Context, email, password string) (domain.Candidate, error) {
	c, err := s.GetCandidateByEmail(ctx, email)
	if err != nil || c.Password != password {
		return domain.Candidate{}, errors.NewForbiddenError(errors.ErrCodeInvalidCredentials, "Invalid email or password")
	}
	return c, nil
}

// UpdateCandidate merges patch into the candidate
func (s *Store) UpdateCandidate(ctx context.Context, id string, patch Patch) (domain.Candidate, error) {
	var out domain.Candidate
	err := s.mutate(ctx, "update_candidate", func(d *Data) error {
		i := slices.IndexFunc(d.Candidates, func(c domain.Candidate) bool { return c.ID == id })
		if i < 0 {
			return candidateNotFound(id)
		}
		updated, err := applyPatch(d.Candidates[i], patch)
		if err != nil {
			return err
		}
		d.Candidates[i] = updated
		out = updated.Clone()
		return nil
	})
	return out, err
}

// ModifyCandidate applies fn to the stored candidate and persists the result
func (s *Store) ModifyCandidate(ctx context.Context, id string, fn func(c *domain.Candidate) error) (domain.Candidate, error) {
	var out domain.Candidate
	err := s.mutate(ctx, "modify_candidate", func(d *Data) error {
		i := slices.IndexFunc(d.Candidates, func(c domain.Candidate) bool { return c.ID == id })
		if i < 0 {
			return candidateNotFound(id)
		}
		c := d.Candidates[i]
		if err := fn(&c); err != nil {
			return err
		}
		c.ID = id
		d.Candidates[i] = c.Clone()
		out = c
		return nil
	})
	return out, err
}
