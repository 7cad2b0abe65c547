package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"whitecarrot/internal/ats"
	"whitecarrot/internal/config"
	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/observability"
	"whitecarrot/internal/store"
	"whitecarrot/internal/upload"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)

func newTestServer(t *testing.T, configure func(*ServerConfig)) http.Handler {
	t.Helper()
	ctx := context.Background()
	logger := errors.NewLoggerTo(io.Discard, slog.LevelError)

	st, err := store.New(ctx, store.NewMemoryPersister(), store.Options{
		SeedOnEmpty: true,
		Now:         func() time.Time { return time.Date(2025, 12, 10, 8, 30, 0, 0, time.UTC) },
	})
	require.NoError(t, err)

	svc := ats.New(st, ats.Options{Logger: logger, Rand: func() float64 { return 0.5 }})
	t.Cleanup(func() { _ = svc.Close() })

	om, err := observability.NewObservabilityManager(observability.ObservabilityConfig{Enabled: false}, nil)
	require.NoError(t, err)

	cfg := ServerConfig{
		Host:           "localhost",
		Port:           "0",
		Version:        "test",
		AllowedOrigins: []string{"*"},
		MaxRequestSize: 1 << 20,
	}
	if configure != nil {
		configure(&cfg)
	}

	s := NewServer(config.Default(), cfg, Dependencies{
		Service:       svc,
		Uploader:      upload.New(config.UploadConfig{Dir: filepath.Join(t.TempDir(), "uploads")}, om, logger),
		Observability: om,
	}, logger)
	t.Cleanup(s.cleanupRateLimiter)
	return s.Handler(om)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRootHealthAndStats(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ATS Backend Server Running", rec.Body.String())

	rec = do(t, h, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	health := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "whitecarrot", health["service"])

	rec = do(t, h, http.MethodGet, "/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[map[string]any](t, rec)
	assert.Equal(t, map[string]any{"enabled": false}, stats["rate_limiting"])
	assert.Contains(t, stats, "screening")

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/nope", nil).Code)
}

func TestCompanyRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/companies/acme-corp", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme Corp", decodeBody[domain.Company](t, rec).Name)

	rec = do(t, h, http.MethodGet, "/api/companies/initech", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeCompanyNotFound, decodeBody[ErrorResponse](t, rec).Error)

	rec = do(t, h, http.MethodGet, "/api/companies/acme-corp/careers?q=engineer", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Sections []domain.Section `json:"sections"`
		Jobs     []domain.Job     `json:"jobs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Sections, 2)
	assert.Equal(t, "s1", page.Sections[0].ID)
	for _, j := range page.Jobs {
		assert.Contains(t, strings.ToLower(j.Title), "engineer")
	}

	rec = do(t, h, http.MethodPatch, "/api/companies/c1", map[string]any{
		"branding": map[string]any{"primaryColor": "#111111"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decodeBody[domain.Company](t, rec)
	assert.Equal(t, "#111111", updated.Branding.PrimaryColor)
	assert.NotEmpty(t, updated.Branding.FontFamily, "branding is merged, not replaced")
}

func TestJobRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/jobs?companyId=c1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	jobs := decodeBody[[]domain.Job](t, rec)
	require.NotEmpty(t, jobs)
	for _, j := range jobs {
		assert.Equal(t, "c1", j.CompanyID)
	}

	rec = do(t, h, http.MethodGet, "/api/jobs?loc=berlin&type=full-time", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	for _, j := range decodeBody[[]domain.Job](t, rec) {
		assert.Contains(t, strings.ToLower(j.Location), "berlin")
		assert.Equal(t, domain.JobFullTime, j.Type)
	}

	rec = do(t, h, http.MethodPost, "/api/jobs", map[string]any{
		"companyId":   "c1",
		"title":       "Platform Engineer",
		"description": "<p>Run Docker and Kubernetes clusters</p>",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decodeBody[domain.Job](t, rec)
	assert.Equal(t, []string{"Docker", "Kubernetes"}, created.Skills)

	rec = do(t, h, http.MethodGet, "/api/jobs/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/jobs/job-0/applications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password123")
}

func TestApplicationRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/api/applications", ApplyRequest{JobID: "job-16", CandidateID: "john-doe-123"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	app := decodeBody[domain.Application](t, rec)
	assert.Equal(t, domain.StatusRejected, app.Status)
	require.NotNil(t, app.RejectionInfo)
	assert.True(t, app.RejectionInfo.EmailSent)

	rec = do(t, h, http.MethodPost, "/api/applications", ApplyRequest{JobID: "job-16", CandidateID: "john-doe-123"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/applications", ApplyRequest{CandidateID: "john-doe-123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "jobId is required", decodeBody[ErrorResponse](t, rec).Message)

	rec = do(t, h, http.MethodPost, "/api/applications/app-demo-1/interview", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, domain.StatusOfferPending, decodeBody[domain.Application](t, rec).Status)

	rec = do(t, h, http.MethodPost, "/api/applications/missing/analyze", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestJSONBodyValidation(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) { c.MaxRequestSize = 64 })

	req := httptest.NewRequest(http.MethodPost, "/api/applications", strings.NewReader(`{"jobId":"job-2"}`))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Message, "content-type")

	rec = do(t, h, http.MethodPost, "/api/jobs", map[string]string{"title": strings.Repeat("x", 100)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, decodeBody[ErrorResponse](t, rec).Message, "too large")
}

func TestCandidateRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/api/candidates/login", LoginRequest{Email: "JOHN.DOE@example.com", Password: "password123"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password123")

	rec = do(t, h, http.MethodPost, "/api/candidates/login", LoginRequest{Email: "john.doe@example.com", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/candidates?email=john.doe@example.com", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "john-doe-123", decodeBody[domain.Candidate](t, rec).ID)

	rec = do(t, h, http.MethodGet, "/api/candidates", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/candidates", map[string]string{"name": "Ada", "email": "ada@example.com", "password": "pw"})
	require.Equal(t, http.StatusCreated, rec.Code)
	rec = do(t, h, http.MethodPost, "/api/candidates", map[string]string{"name": "Ada", "email": "ADA@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/candidates/john-doe-123/hackathons", HackathonRequest{HackathonID: "hack-2"})
	require.Equal(t, http.StatusOK, rec.Code)
	reg := decodeBody[ats.HackathonRegistration](t, rec)
	assert.False(t, reg.AlreadyRegistered)
	assert.True(t, reg.EmailSent)

	rec = do(t, h, http.MethodPost, "/api/candidates/john-doe-123/optimize", OptimizeRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/candidates/john-doe-123/applications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]domain.ApplicationWithJob](t, rec), 1)
}

func TestRecruiterRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	signup := store.RecruiterSignup{
		Name: "Bruce", Email: "bruce@wayne.test", Username: "bwayne",
		Password: "secret", CompanyName: "Wayne  Enterprises",
	}
	rec := do(t, h, http.MethodPost, "/api/recruiters", signup)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	session := decodeBody[RecruiterSession](t, rec)
	assert.Equal(t, "wayne-enterprises", session.Company.Slug)
	assert.Equal(t, domain.RoleAdmin, session.Recruiter.Role)
	assert.Empty(t, session.Recruiter.Password)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/recruiters", signup).Code)

	rec = do(t, h, http.MethodPost, "/api/recruiters/login", LoginRequest{Email: "bwayne", Password: "secret"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, session.Company.ID, decodeBody[RecruiterSession](t, rec).Company.ID)

	rec = do(t, h, http.MethodGet, "/api/recruiters/rec-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestQuestionRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodGet, "/api/questions?companyId=c4", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, decodeBody[[]domain.DSAQuestion](t, rec))

	rec = do(t, h, http.MethodPatch, "/api/questions/dsa-1", map[string]any{"title": "Two Sum II"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Two Sum II", decodeBody[domain.DSAQuestion](t, rec).Title)

	rec = do(t, h, http.MethodDelete, "/api/questions/dsa-2", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/questions/dsa-2", nil).Code)
}

func TestProctoringRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := do(t, h, http.MethodPost, "/api/proctoring/sessions", ats.TestRequest{
		CandidateID: "john-doe-123", QuestionID: "dsa-1", ApplicationID: "app-demo-1",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	start := decodeBody[ats.TestStart](t, rec)
	assert.Len(t, start.Question.TestCases, 3, "hidden cases stay on the server")

	path := "/api/proctoring/sessions/" + start.Session.ID
	var outcome map[string]any
	for range 6 {
		rec = do(t, h, http.MethodPost, path+"/frames", FrameRequest{})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		outcome = decodeBody[map[string]any](t, rec)
	}
	assert.Equal(t, true, outcome["terminated"])

	rec = do(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "terminated", decodeBody[map[string]any](t, rec)["status"])

	rec = do(t, h, http.MethodPost, path+"/submit", SubmitRequest{})
	assert.Equal(t, http.StatusConflict, rec.Code)

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/api/proctoring/sessions/unknown", nil).Code)
}

func uploadRequest(t *testing.T, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField("note", "no file"))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadRoutes(t *testing.T) {
	h := newTestServer(t, nil)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "avatar.png", "image/png", pngBytes))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	result := decodeBody[upload.Result](t, rec)
	assert.Equal(t, "File uploaded successfully", result.Message)
	assert.Equal(t, "/uploads/"+result.Filename, result.FilePath)

	rec = do(t, h, http.MethodGet, result.FilePath, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, pngBytes, rec.Body.Bytes())

	// stored files are served one at a time, never listed
	rec = do(t, h, http.MethodGet, "/uploads/", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, rec.Body.String(), result.Filename)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/uploads/missing.png", nil).Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "", "", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Please upload a file"}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, uploadRequest(t, "script.exe", "application/octet-stream", []byte("MZ")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t,
		`{"message":"Error: File upload only supports the following filetypes - /doc|docx|pdf|jpg|jpeg|png/"}`,
		rec.Body.String())
}

func TestAuthMiddleware(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) { c.APIKeys = []string{"test-key-123456"} })

	tests := []struct {
		name   string
		header map[string]string
		want   int
	}{
		{"missing key", nil, http.StatusUnauthorized},
		{"wrong key", map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"x-api-key", map[string]string{"X-API-Key": "test-key-123456"}, http.StatusOK},
		{"bearer", map[string]string{"Authorization": "Bearer test-key-123456"}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/companies", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/health", nil).Code, "health stays public")
}

func TestRateLimiting(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) {
		c.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 1, ByIP: true, Window: time.Minute}
	})

	assert.Equal(t, http.StatusOK, do(t, h, http.MethodGet, "/api/companies", nil).Code)
	rec := do(t, h, http.MethodGet, "/api/companies", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "Rate limit exceeded", decodeBody[ErrorResponse](t, rec).Error)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestServer(t, func(c *ServerConfig) { c.AllowedOrigins = []string{"https://careers.acme.test"} })

	req := httptest.NewRequest(http.MethodOptions, "/api/jobs", nil)
	req.Header.Set("Origin", "https://careers.acme.test")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://careers.acme.test", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/companies", nil)
	req.Header.Set("Origin", "https://evil.test")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{errors.NewValidationError(errors.ErrCodeInvalidRequest, "bad", nil), http.StatusBadRequest},
		{errors.NewNotFoundError(errors.ErrCodeJobNotFound, "gone"), http.StatusNotFound},
		{errors.NewConflictError(errors.ErrCodeDuplicateApp, "dup"), http.StatusConflict},
		{errors.NewForbiddenError(errors.ErrCodeInvalidCredentials, "creds"), http.StatusUnauthorized},
		{errors.NewForbiddenError(errors.ErrCodeInvalidRequest, "not yours"), http.StatusForbidden},
		{errors.NewStorageError(errors.ErrCodeStoreSave, "disk", nil), http.StatusServiceUnavailable},
		{errors.NewNetworkError(errors.ErrCodeNotifyFailed, "broker", nil), http.StatusServiceUnavailable},
		{io.ErrUnexpectedEOF, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestGetClientIP(t *testing.T) {
	tests := []struct {
		name   string
		header map[string]string
		remote string
		want   string
	}{
		{"remote addr", nil, "10.0.0.1:1234", "10.0.0.1"},
		{"forwarded for", map[string]string{"X-Forwarded-For": "garbage, 203.0.113.7, 10.0.0.2"}, "10.0.0.1:1234", "203.0.113.7"},
		{"real ip", map[string]string{"X-Real-IP": "198.51.100.4"}, "10.0.0.1:1234", "198.51.100.4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, getClientIP(req))
		})
	}
}
