package store

import (
	"context"
	"slices"
	"strings"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
)

func questionNotFound(id string) error {
	return errors.NewNotFoundError(errors.ErrCodeQuestionNotFound, "Question not found").WithContext("question_id", id)
}

// ListQuestions returns the coding questions of a company, or all of them
// when companyID is empty
func (s *Store) ListQuestions(ctx context.Context, companyID string) ([]domain.DSAQuestion, error) {
	out := []domain.DSAQuestion{}
	err := s.read(ctx, func(d *Data) error {
		for _, q := range d.DSAQuestions {
			if companyID == "" || q.CompanyID == companyID {
				out = append(out, q.Clone())
			}
		}
		return nil
	})
	return out, err
}

// GetQuestion returns the question with the given id
func (s *Store) GetQuestion(ctx context.Context, id string) (domain.DSAQuestion, error) {
	var out domain.DSAQuestion
	err := s.read(ctx, func(d *Data) error {
		i := slices.IndexFunc(d.DSAQuestions, func(q domain.DSAQuestion) bool { return q.ID == id })
		if i < 0 {
			return questionNotFound(id)
		}
		out = d.DSAQuestions[i].Clone()
		return nil
	})
	return out, err
}

// CreateQuestion stores a new question with a "dsa-" prefixed id
func (s *Store) CreateQuestion(ctx context.Context, q domain.DSAQuestion) (domain.DSAQuestion, error) {
	if strings.TrimSpace(q.Title) == "" {
		return domain.DSAQuestion{}, errors.NewValidationError(errors.ErrCodeInvalidRequest, "question title is required", nil)
	}
	err := s.mutate(ctx, "create_question", func(d *Data) error {
		if !slices.ContainsFunc(d.Companies, func(c domain.Company) bool { return c.ID == q.CompanyID }) {
			return companyNotFound(q.CompanyID)
		}
		q.ID = "dsa-" + s.shortID()
		q.CreatedAt = s.timestamp()
		if q.Hints == nil {
			q.Hints = []string{}
		}
		if q.TestCases == nil {
			q.TestCases = []domain.TestCase{}
		}
		if q.Tags == nil {
			q.Tags = []string{}
		}
		d.DSAQuestions = append(d.DSAQuestions, q.Clone())
		return nil
	})
	if err != nil {
		return domain.DSAQuestion{}, err
	}
	return q, nil
}

// UpdateQuestion merges patch into the question
func (s *Store) UpdateQuestion(ctx context.Context, id string, patch Patch) (domain.DSAQuestion, error) {
	var out domain.DSAQuestion
	err := s.mutate(ctx, "update_question", func(d *Data) error {
		i := slices.IndexFunc(d.DSAQuestions, func(q domain.DSAQuestion) bool { return q.ID == id })
		if i < 0 {
			return questionNotFound(id)
		}
		updated, err := applyPatch(d.DSAQuestions[i], patch, "starterCode")
		if err != nil {
			return err
		}
		d.DSAQuestions[i] = updated
		out = updated.Clone()
		return nil
	})
	return out, err
}

// DeleteQuestion removes the question
func (s *Store) DeleteQuestion(ctx context.Context, id string) error {
	return s.mutate(ctx, "delete_question", func(d *Data) error {
		i := slices.IndexFunc(d.DSAQuestions, func(q domain.DSAQuestion) bool { return q.ID == id })
		if i < 0 {
			return questionNotFound(id)
		}
		d.DSAQuestions = slices.Delete(d.DSAQuestions, i, i+1)
		return nil
	})
}
