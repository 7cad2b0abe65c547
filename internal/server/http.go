package server

import (
	"time"

	"whitecarrot/internal/ats"
	"whitecarrot/internal/config"
	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/observability"
	"whitecarrot/internal/proctoring"
	"whitecarrot/internal/upload"
)

// ApplyRequest is the body of POST /api/applications
type ApplyRequest struct {
	JobID       string `json:"jobId"`
	CandidateID string `json:"candidateId"`
}

// LoginRequest is the body of the candidate and recruiter login endpoints.
// Recruiters may log in with their username in Email.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// OptimizeRequest names the company a resume is optimized for
type OptimizeRequest struct {
	Company string `json:"company"`
}

type HackathonRequest struct {
	HackathonID string `json:"hackathonId"`
}

// FrameRequest carries the faces detected in one webcam frame
type FrameRequest struct {
	Faces []proctoring.Face `json:"faces"`
}

type SubmitRequest struct {
	Results []proctoring.CaseResult `json:"results"`
}

// RecruiterSession is returned by recruiter signup and login
type RecruiterSession struct {
	Recruiter domain.Recruiter `json:"recruiter"`
	Company   domain.Company   `json:"company"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	TLSConfig config.TLSConfig

	// Serves the certificate pair when TLS is enabled
	CertReloader *CertReloader

	// API Authentication
	APIKeys map[string]bool

	// Browser origins allowed by the CORS middleware
	AllowedOrigins []string

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit for JSON endpoints
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	// Domain services
	Service       *ats.Service
	Uploader      *upload.Uploader
	Observability *observability.ObservabilityManager

	Logger *errors.Logger
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	TLSConfig      config.TLSConfig
	APIKeys        []string
	AllowedOrigins []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
}

// Dependencies are the services the handlers call into. Observability may
// be nil, Start then creates its own manager.
type Dependencies struct {
	Service       *ats.Service
	Uploader      *upload.Uploader
	Observability *observability.ObservabilityManager
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, deps Dependencies, logger *errors.Logger) *Server {
	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(
			cfg.RateLimit.RequestsPerMin,
			cfg.RateLimit.Window,
			cfg.RateLimit.BurstCapacity,
			logger,
		)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		TLSConfig:      cfg.TLSConfig,
		APIKeys:        apiKeyMap,
		AllowedOrigins: cfg.AllowedOrigins,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Service:        deps.Service,
		Uploader:       deps.Uploader,
		Observability:  deps.Observability,
		Logger:         logger,
	}
}
