package server

import (
	"net/http"
	"slices"
	"strings"

	"whitecarrot/internal/observability"
)

// route binds one API pattern to its operation
type route struct {
	pattern   string
	operation string
	fn        apiFunc
}

func (s *Server) apiRoutes() []route {
	return []route{
		{"GET /api/companies", "list_companies", s.listCompanies},
		{"GET /api/companies/{slug}", "get_company", s.getCompany},
		{"GET /api/companies/{slug}/careers", "careers_page", s.careersPage},
		{"PATCH /api/companies/{slug}", "update_company", s.updateCompany},

		{"GET /api/jobs", "list_jobs", s.listJobs},
		{"POST /api/jobs", "create_job", s.createJob},
		{"GET /api/jobs/{id}", "get_job", s.getJob},
		{"PATCH /api/jobs/{id}", "update_job", s.updateJob},
		{"GET /api/jobs/{id}/applications", "job_applications", s.jobApplications},

		{"POST /api/candidates", "create_candidate", s.createCandidate},
		{"POST /api/candidates/login", "login_candidate", s.loginCandidate},
		{"GET /api/candidates", "find_candidate", s.findCandidate},
		{"GET /api/candidates/{id}", "get_candidate", s.getCandidate},
		{"PATCH /api/candidates/{id}", "update_candidate", s.updateCandidate},
		{"GET /api/candidates/{id}/applications", "candidate_applications", s.candidateApplications},
		{"POST /api/candidates/{id}/optimize", "optimize_resume", s.optimizeResume},
		{"POST /api/candidates/{id}/hackathons", "register_hackathon", s.registerHackathon},

		{"POST /api/applications", "apply", s.apply},
		{"PATCH /api/applications/{id}", "update_application", s.updateApplication},
		{"POST /api/applications/{id}/analyze", "analyze_application", s.analyzeApplication},
		{"POST /api/applications/{id}/interview", "submit_interview", s.submitInterview},

		{"POST /api/recruiters", "signup_recruiter", s.signupRecruiter},
		{"POST /api/recruiters/login", "login_recruiter", s.loginRecruiter},
		{"GET /api/recruiters/{id}", "get_recruiter", s.getRecruiter},

		{"GET /api/questions", "list_questions", s.listQuestions},
		{"POST /api/questions", "create_question", s.createQuestion},
		{"GET /api/questions/{id}", "get_question", s.getQuestion},
		{"PATCH /api/questions/{id}", "update_question", s.updateQuestion},
		{"DELETE /api/questions/{id}", "delete_question", s.deleteQuestion},

		{"POST /api/proctoring/sessions", "start_test", s.startTest},
		{"GET /api/proctoring/sessions/{id}", "get_session", s.getSession},
		{"POST /api/proctoring/sessions/{id}/frames", "record_frame", s.recordFrame},
		{"POST /api/proctoring/sessions/{id}/submit", "submit_test", s.submitTest},
	}
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes(om *observability.ObservabilityManager) *http.ServeMux {
	mux := http.NewServeMux()

	// Add middleware layers with observability
	rateLimitHandler := s.createRateLimitMiddleware(om)
	requestLimitHandler := s.requestSizeLimitMiddleware()

	traced := observability.ObservabilityMiddleware(om)

	mux.HandleFunc("GET /{$}", s.rootHandler)
	mux.HandleFunc("GET /health", traced(s.healthHandler))
	mux.HandleFunc("GET /stats", traced(s.statsHandler))
	mux.HandleFunc("GET /uploads/{name}", s.uploadedFileHandler)

	// The uploader enforces its own, larger body limit
	mux.HandleFunc("POST /api/upload",
		rateLimitHandler(s.authMiddleware(s.createUploadHandler(om))),
	)

	for _, rt := range s.apiRoutes() {
		mux.HandleFunc(rt.pattern,
			rateLimitHandler(
				s.authMiddleware(requestLimitHandler(s.createHandler(om, rt.operation, rt.fn))),
			),
		)
	}

	return mux
}

// Handler returns the complete HTTP handler: routes, CORS and tracing
func (s *Server) Handler(om *observability.ObservabilityManager) http.Handler {
	return om.HTTPMiddleware()(s.corsMiddleware(s.setupRoutes(om)))
}

// corsMiddleware answers preflight requests and tags responses for the
// allowed browser origins
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && s.originAllowed(origin) {
			h := w.Header()
			if slices.Contains(s.AllowedOrigins, "*") {
				h.Set("Access-Control-Allow-Origin", "*")
			} else {
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			}
			h.Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-API-Key")
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) originAllowed(origin string) bool {
	for _, allowed := range s.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr)
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", r.RemoteAddr,
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", http.StatusUnauthorized)
			return
		}

		s.Logger.Debug("API authentication successful",
			"endpoint", r.URL.Path,
			"client_ip", r.RemoteAddr,
			"api_key_prefix", maskAPIKey(apiKey))

		next(w, r)
	}
}

// requestAPIKey reads X-API-Key, falling back to a Bearer token
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}

			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
