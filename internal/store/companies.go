package store

import (
	"context"
	"regexp"
	"slices"
	"strings"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
)

func companyNotFound(key string) error {
	return errors.NewNotFoundError(errors.ErrCodeCompanyNotFound, "Company not found").WithContext("company", key)
}

// ListCompanies returns every company
func (s *Store) ListCompanies(ctx context.Context) ([]domain.Company, error) {
	var out []domain.Company
	err := s.read(ctx, func(d *Data) error {
		out = cloneAll(d.Companies)
		return nil
	})
	return out, err
}

// GetCompany returns the company with the given slug
func (s *Store) GetCompany(ctx context.Context, slug string) (domain.Company, error) {
	var out domain.Company
	err := s.read(ctx, func(d *Data) error {
		i := slices.IndexFunc(d.Companies, func(c domain.Company) bool { return c.Slug == slug })
		if i < 0 {
			return companyNotFound(slug)
		}
		out = d.Companies[i].Clone()
		return nil
	})
	return out, err
}

// GetCompanyByID returns the company with the given id
func (s *Store) GetCompanyByID(ctx context.Context, id string) (domain.Company, error) {
	var out domain.Company
	err := s.read(ctx, func(d *Data) error {
		i := slices.IndexFunc(d.Companies, func(c domain.Company) bool { return c.ID == id })
		if i < 0 {
			return companyNotFound(id)
		}
		out = d.Companies[i].Clone()
		return nil
	})
	return out, err
}

// UpdateCompany merges patch into the company. Branding fields are merged
// individually; every other field is replaced.
func (s *Store) UpdateCompany(ctx context.Context, id string, patch Patch) (domain.Company, error) {
	var out domain.Company
	err := s.mutate(ctx, "update_company", func(d *Data) error {
		i := slices.IndexFunc(d.Companies, func(c domain.Company) bool { return c.ID == id })
		if i < 0 {
			return companyNotFound(id)
		}
		updated, err := applyPatch(d.Companies[i], patch, "branding")
		if err != nil {
			return err
		}
		if updated.Slug == "" {
			return errors.NewValidationError(errors.ErrCodeInvalidRequest, "company slug cannot be empty", nil)
		}
		if j := slices.IndexFunc(d.Companies, func(c domain.Company) bool { return c.Slug == updated.Slug && c.ID != id }); j >= 0 {
			return errors.NewConflictError(errors.ErrCodeAccountExists, "company slug already in use").WithContext("slug", updated.Slug)
		}
		d.Companies[i] = updated
		out = updated.Clone()
		return nil
	})
	return out, err
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// Slugify lowercases name and joins its words with dashes
func Slugify(name string) string {
	return whitespaceRun.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}
