package store

import (
	"context"
	"slices"
	"strings"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
)

// Default branding given to companies created at recruiter signup
const (
	DefaultPrimaryColor   = "#0066FF"
	DefaultSecondaryColor = "#00CCFF"
	DefaultFontFamily     = "Inter"
)

// RecruiterSignup is the input of CreateRecruiter
type RecruiterSignup struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	CompanyName string `json:"companyName"`
}

func recruiterNotFound(key string) error {
	return errors.NewNotFoundError(errors.ErrCodeRecruiterNotFound, "Recruiter not found").WithContext("recruiter", key)
}

// GetRecruiter returns the recruiter with the given id
func (s *Store) GetRecruiter(ctx context.Context, id string) (domain.Recruiter, error) {
	var out domain.Recruiter
	err := s.read(ctx, func(d *Data) error {
		i := slices.IndexFunc(d.Recruiters, func(r domain.Recruiter) bool { return r.ID == id })
		if i < 0 {
			return recruiterNotFound(id)
		}
		out = d.Recruiters[i].Clone()
		return nil
	})
	return out, err
}

// GetRecruiterByEmail looks a recruiter up by email or username, ignoring case
func (s *Store) GetRecruiterByEmail(ctx context.Context, login string) (domain.Recruiter, error) {
	var out domain.Recruiter
	err := s.read(ctx, func(d *Data) error {
		i := slices.IndexFunc(d.Recruiters, func(r domain.Recruiter) bool {
			return equalFold(r.Email, login) || equalFold(r.Username, login)
		})
		if i < 0 {
			return recruiterNotFound(login)
		}
		out = d.Recruiters[i].Clone()
		return nil
	})
	return out, err
}

// LoginRecruiter checks the demo credentials of a recruiter
func (s *Store) LoginRecruiter(ctx context.Context, login, password string) (domain.Recruiter, error) {
	r, err := s.GetRecruiterByEmail(ctx, login)
	if err != nil || r.Password != password {
		return domain.Recruiter{}, errors.NewForbiddenError(errors.ErrCodeInvalidCredentials, "Invalid credentials")
	}
	return r, nil
}

// CreateRecruiter registers an admin recruiter together with a new company
// named after the signup
func (s *Store) CreateRecruiter(ctx context.Context, in RecruiterSignup) (domain.Recruiter, domain.Company, error) {
	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.CompanyName) == "" {
		return domain.Recruiter{}, domain.Company{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "email, username and company name are required", nil)
	}

	var (
		recruiter domain.Recruiter
		company   domain.Company
	)
	err := s.mutate(ctx, "create_recruiter", func(d *Data) error {
		if slices.ContainsFunc(d.Recruiters, func(r domain.Recruiter) bool {
			return equalFold(r.Email, in.Email) || equalFold(r.Username, in.Username)
		}) {
			return errors.NewConflictError(errors.ErrCodeAccountExists, "Email or username already exists")
		}

		company = domain.Company{
			ID:   s.newID(),
			Slug: Slugify(in.CompanyName),
			Name: strings.TrimSpace(in.CompanyName),
			Branding: domain.Branding{
				PrimaryColor:   DefaultPrimaryColor,
				SecondaryColor: DefaultSecondaryColor,
				FontFamily:     DefaultFontFamily,
			},
			Sections: []domain.Section{},
		}
		if slices.ContainsFunc(d.Companies, func(c domain.Company) bool { return c.Slug == company.Slug }) {
			return errors.NewConflictError(errors.ErrCodeAccountExists, "A company with this name already exists").
				WithContext("slug", company.Slug)
		}

		recruiter = domain.Recruiter{
			ID:        s.newID(),
			Email:     strings.TrimSpace(in.Email),
			Username:  strings.TrimSpace(in.Username),
			Password:  in.Password,
			CompanyID: company.ID,
			Name:      in.Name,
			Role:      domain.RoleAdmin,
		}
		d.Companies = append(d.Companies, company)
		d.Recruiters = append(d.Recruiters, recruiter)
		return nil
	})
	if err != nil {
		return domain.Recruiter{}, domain.Company{}, err
	}
	return recruiter, company, nil
}
