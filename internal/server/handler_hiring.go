package server

import (
	"context"
	"net/http"

	"whitecarrot/internal/careers"
	"whitecarrot/internal/domain"
	"whitecarrot/internal/store"
)

// Companies

func (s *Server) listCompanies(ctx context.Context, r *http.Request) (int, any, error) {
	companies, err := s.Service.Store().ListCompanies(ctx)
	return http.StatusOK, companies, err
}

func (s *Server) getCompany(ctx context.Context, r *http.Request) (int, any, error) {
	company, err := s.Service.Store().GetCompany(ctx, r.PathValue("slug"))
	return http.StatusOK, company, err
}

func (s *Server) careersPage(ctx context.Context, r *http.Request) (int, any, error) {
	page, err := s.Service.CareersPage(ctx, r.PathValue("slug"), r.URL.Query().Get("q"))
	return http.StatusOK, page, err
}

// updateCompany patches a company by id; the route reuses the slug segment
func (s *Server) updateCompany(ctx context.Context, r *http.Request) (int, any, error) {
	var patch store.Patch
	if err := decode(r, &patch); err != nil {
		return 0, nil, err
	}
	company, err := s.Service.Store().UpdateCompany(ctx, r.PathValue("slug"), patch)
	return http.StatusOK, company, err
}

// Jobs

// listJobs serves the job board. Without search parameters it lists the jobs
// of one company, or all of them.
func (s *Server) listJobs(ctx context.Context, r *http.Request) (int, any, error) {
	query := r.URL.Query()
	filter := careers.Filter{
		Query:     query.Get("q"),
		Location:  query.Get("loc"),
		Types:     careers.ParseTypes(query["type"]...),
		CompanyID: query.Get("companyId"),
	}

	var (
		jobs []domain.Job
		err  error
	)
	switch {
	case filter.Query != "" || filter.Location != "" || len(filter.Types) > 0:
		jobs, err = s.Service.SearchJobs(ctx, filter)
	case filter.CompanyID != "":
		jobs, err = s.Service.Store().ListJobs(ctx, filter.CompanyID)
	default:
		jobs, err = s.Service.Store().ListAllJobs(ctx)
	}
	return http.StatusOK, jobs, err
}

func (s *Server) createJob(ctx context.Context, r *http.Request) (int, any, error) {
	var job domain.Job
	if err := decode(r, &job); err != nil {
		return 0, nil, err
	}
	created, err := s.Service.CreateJob(ctx, job)
	return http.StatusCreated, created, err
}

func (s *Server) getJob(ctx context.Context, r *http.Request) (int, any, error) {
	job, err := s.Service.Store().GetJob(ctx, r.PathValue("id"))
	return http.StatusOK, job, err
}

func (s *Server) updateJob(ctx context.Context, r *http.Request) (int, any, error) {
	var patch store.Patch
	if err := decode(r, &patch); err != nil {
		return 0, nil, err
	}
	job, err := s.Service.Store().UpdateJob(ctx, r.PathValue("id"), patch)
	return http.StatusOK, job, err
}

func (s *Server) jobApplications(ctx context.Context, r *http.Request) (int, any, error) {
	apps, err := s.Service.Store().ApplicationsForJob(ctx, r.PathValue("id"))
	return http.StatusOK, apps, err
}

// Candidates

func (s *Server) createCandidate(ctx context.Context, r *http.Request) (int, any, error) {
	var candidate domain.Candidate
	if err := decode(r, &candidate); err != nil {
		return 0, nil, err
	}
	created, err := s.Service.Store().CreateCandidate(ctx, candidate)
	return http.StatusCreated, created.Redacted(), err
}

func (s *Server) loginCandidate(ctx context.Context, r *http.Request) (int, any, error) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	candidate, err := s.Service.Store().LoginCandidate(ctx, req.Email, req.Password)
	return http.StatusOK, candidate.Redacted(), err
}

func (s *Server) findCandidate(ctx context.Context, r *http.Request) (int, any, error) {
	email := r.URL.Query().Get("email")
	if err := required("email", email); err != nil {
		return 0, nil, err
	}
	candidate, err := s.Service.Store().GetCandidateByEmail(ctx, email)
	return http.StatusOK, candidate.Redacted(), err
}

func (s *Server) getCandidate(ctx context.Context, r *http.Request) (int, any, error) {
	candidate, err := s.Service.Store().GetCandidate(ctx, r.PathValue("id"))
	return http.StatusOK, candidate.Redacted(), err
}

func (s *Server) updateCandidate(ctx context.Context, r *http.Request) (int, any, error) {
	var patch store.Patch
	if err := decode(r, &patch); err != nil {
		return 0, nil, err
	}
	candidate, err := s.Service.Store().UpdateCandidate(ctx, r.PathValue("id"), patch)
	return http.StatusOK, candidate.Redacted(), err
}

func (s *Server) candidateApplications(ctx context.Context, r *http.Request) (int, any, error) {
	apps, err := s.Service.Store().ApplicationsByCandidate(ctx, r.PathValue("id"))
	return http.StatusOK, apps, err
}

func (s *Server) optimizeResume(ctx context.Context, r *http.Request) (int, any, error) {
	var req OptimizeRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	result, err := s.Service.OptimizeResume(ctx, r.PathValue("id"), req.Company)
	return http.StatusOK, result, err
}

func (s *Server) registerHackathon(ctx context.Context, r *http.Request) (int, any, error) {
	var req HackathonRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	registration, err := s.Service.RegisterHackathon(ctx, r.PathValue("id"), req.HackathonID)
	return http.StatusOK, registration, err
}

// Applications

func (s *Server) apply(ctx context.Context, r *http.Request) (int, any, error) {
	var req ApplyRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	if err := required("jobId", req.JobID); err != nil {
		return 0, nil, err
	}
	if err := required("candidateId", req.CandidateID); err != nil {
		return 0, nil, err
	}
	app, err := s.Service.Apply(ctx, req.JobID, req.CandidateID)
	return http.StatusCreated, app, err
}

func (s *Server) updateApplication(ctx context.Context, r *http.Request) (int, any, error) {
	var patch store.Patch
	if err := decode(r, &patch); err != nil {
		return 0, nil, err
	}
	app, err := s.Service.Store().UpdateApplication(ctx, r.PathValue("id"), patch)
	return http.StatusOK, app, err
}

func (s *Server) analyzeApplication(ctx context.Context, r *http.Request) (int, any, error) {
	app, err := s.Service.AnalyzeApplication(ctx, r.PathValue("id"))
	return http.StatusOK, app, err
}

func (s *Server) submitInterview(ctx context.Context, r *http.Request) (int, any, error) {
	app, err := s.Service.SubmitInterview(ctx, r.PathValue("id"))
	return http.StatusOK, app, err
}

// Recruiters

func (s *Server) signupRecruiter(ctx context.Context, r *http.Request) (int, any, error) {
	var req store.RecruiterSignup
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	recruiter, company, err := s.Service.Store().CreateRecruiter(ctx, req)
	return http.StatusCreated, RecruiterSession{Recruiter: recruiter.Redacted(), Company: company}, err
}

func (s *Server) loginRecruiter(ctx context.Context, r *http.Request) (int, any, error) {
	var req LoginRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	recruiter, err := s.Service.Store().LoginRecruiter(ctx, req.Email, req.Password)
	if err != nil {
		return 0, nil, err
	}
	company, err := s.Service.Store().GetCompanyByID(ctx, recruiter.CompanyID)
	return http.StatusOK, RecruiterSession{Recruiter: recruiter.Redacted(), Company: company}, err
}

func (s *Server) getRecruiter(ctx context.Context, r *http.Request) (int, any, error) {
	recruiter, err := s.Service.Store().GetRecruiter(ctx, r.PathValue("id"))
	return http.StatusOK, recruiter.Redacted(), err
}

// Coding questions

func (s *Server) listQuestions(ctx context.Context, r *http.Request) (int, any, error) {
	questions, err := s.Service.Store().ListQuestions(ctx, r.URL.Query().Get("companyId"))
	return http.StatusOK, questions, err
}

func (s *Server) createQuestion(ctx context.Context, r *http.Request) (int, any, error) {
	var q domain.DSAQuestion
	if err := decode(r, &q); err != nil {
		return 0, nil, err
	}
	created, err := s.Service.Store().CreateQuestion(ctx, q)
	return http.StatusCreated, created, err
}

func (s *Server) getQuestion(ctx context.Context, r *http.Request) (int, any, error) {
	q, err := s.Service.Store().GetQuestion(ctx, r.PathValue("id"))
	return http.StatusOK, q, err
}

func (s *Server) updateQuestion(ctx context.Context, r *http.Request) (int, any, error) {
	var patch store.Patch
	if err := decode(r, &patch); err != nil {
		return 0, nil, err
	}
	q, err := s.Service.Store().UpdateQuestion(ctx, r.PathValue("id"), patch)
	return http.StatusOK, q, err
}

func (s *Server) deleteQuestion(ctx context.Context, r *http.Request) (int, any, error) {
	return http.StatusNoContent, nil, s.Service.Store().DeleteQuestion(ctx, r.PathValue("id"))
}
