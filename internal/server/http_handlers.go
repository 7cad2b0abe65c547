package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"whitecarrot/internal/errors"
)

// Banner is the body of GET /
const Banner = "ATS Backend Server Running"

// rootHandler answers liveness probes on the bare root path
func (s *Server) rootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := io.WriteString(w, Banner); err != nil {
		log.Printf("Failed to write banner: %v", err)
	}
}

// healthHandler reports the state of the store backend and the notification
// transport. An open circuit breaker degrades the service.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":  "healthy",
		"service": "whitecarrot",
		"version": s.Version,
	}

	storeStatus := s.Service.Store().BackendStats()
	notifyStatus := s.Service.NotifierStats()
	response["circuit_breakers"] = map[string]any{
		"store":  storeStatus,
		"notify": notifyStatus,
	}
	response["proctoring"] = s.Service.Registry().GetStats()

	status := http.StatusOK
	if breakerOpen(storeStatus) || breakerOpen(notifyStatus) {
		response["status"] = "degraded"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, response)
}

func breakerOpen(stats map[string]any) bool {
	state, _ := stats["state"].(string)
	return state == "open"
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	thresholds := s.Service.Thresholds()
	response := map[string]any{
		"service": "whitecarrot",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"screening": map[string]any{
			"reject_below":     thresholds.RejectBelow,
			"fast_track_above": thresholds.FastTrackAbove,
		},
		"proctoring": s.Service.Registry().GetStats(),
		"store":      s.Service.Store().BackendStats(),
	}

	// Add rate limiting stats if enabled
	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// parseJSONRequest parses JSON request body into the provided struct
func parseJSONRequest(r *http.Request, v any) error {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		return fmt.Errorf("content-type must be application/json")
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			return fmt.Errorf("request body too large (limit is %d bytes)", maxBytesErr.Limit)
		}
		return fmt.Errorf("failed to read request body: %w", err)
	}
	defer func() {
		if err := r.Body.Close(); err != nil {
			log.Printf("Failed to close request body: %v", err)
		}
	}()

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to parse JSON: %w", err)
	}

	return nil
}

// uploadedFileHandler serves one stored upload. Directories are never
// listed.
func (s *Server) uploadedFileHandler(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	path := filepath.Join(s.Uploader.Dir(), filepath.Base(name))
	info, err := os.Stat(path)
	if name == "" || name != filepath.Base(name) || err != nil || !info.Mode().IsRegular() {
		writeErrorResponse(w, "FILE_NOT_FOUND", "File not found", http.StatusNotFound)
		return
	}
	http.ServeFile(w, r, path)
}

// writeJSON encodes v with the given status
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
	})
}

// statusFor maps an error type to the HTTP status returned for it
func statusFor(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeConflict:
		return http.StatusConflict
	case errors.ErrorTypeForbidden:
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) && appErr.Code == errors.ErrCodeInvalidCredentials {
			return http.StatusUnauthorized
		}
		return http.StatusForbidden
	case errors.ErrorTypeStorage, errors.ErrorTypeNetwork:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeAppError writes err with the status of its type. The error field
// carries the code, the message the human readable text.
func (s *Server) writeAppError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	code, message := "INTERNAL_ERROR", err.Error()
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		code, message = appErr.Code, appErr.Message
	}
	if status >= http.StatusInternalServerError {
		s.Logger.LogError(err, "Request failed")
	}
	writeErrorResponse(w, code, message, status)
}
