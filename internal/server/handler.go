package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"whitecarrot/internal/ats"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// apiFunc runs one API operation and returns the status and body to send
type apiFunc func(ctx context.Context, r *http.Request) (int, any, error)

// createHandler wraps fn in a span named after the operation and turns its
// result into a JSON response
func (s *Server) createHandler(om *observability.ObservabilityManager, operation string, fn apiFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		tracer := om.Tracer("whitecarrot.api")
		ctx, span := tracer.Start(ctx, "api."+operation)
		defer span.End()

		span.SetAttributes(attribute.String("operation", operation))

		status, body, err := fn(ctx, r.WithContext(ctx))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
			s.writeAppError(w, err)
			return
		}

		span.SetAttributes(attribute.Bool("success", true))
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, body)
	}
}

// decode parses the JSON body of r into v, reporting failures as
// validation errors
func decode(r *http.Request, v any) error {
	if err := parseJSONRequest(r, v); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, err.Error(), err)
	}
	return nil
}

func required(field, value string) error {
	if value == "" {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest, field+" is required", nil)
	}
	return nil
}

// createUploadHandler stores the file of a multipart request. Errors use the
// message-only body browser clients of the upload form expect.
func (s *Server) createUploadHandler(om *observability.ObservabilityManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := om.Tracer("whitecarrot.api").Start(r.Context(), "api.upload")
		defer span.End()

		result, err := s.Uploader.Receive(w, r.WithContext(ctx))
		if err != nil {
			span.RecordError(err)
			span.SetAttributes(attribute.String("error.type", string(errors.TypeOf(err))))
			message := err.Error()
			var appErr *errors.AppError
			if stderrors.As(err, &appErr) {
				message = appErr.Message
			}
			status := statusFor(err)
			if status >= http.StatusInternalServerError {
				s.Logger.LogError(err, "Upload failed")
			}
			writeJSON(w, status, map[string]string{"message": message})
			return
		}

		span.SetAttributes(
			attribute.String("upload.filename", result.Filename),
			attribute.Int("upload.detected_skills", len(result.Skills)),
		)
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *Server) startTest(ctx context.Context, r *http.Request) (int, any, error) {
	var req ats.TestRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	start, err := s.Service.StartTest(ctx, req)
	if err != nil {
		return 0, nil, err
	}
	return http.StatusCreated, start, nil
}

func (s *Server) getSession(ctx context.Context, r *http.Request) (int, any, error) {
	state, err := s.Service.Session(r.PathValue("id"))
	return http.StatusOK, state, err
}

func (s *Server) recordFrame(ctx context.Context, r *http.Request) (int, any, error) {
	var req FrameRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	outcome, err := s.Service.RecordFrame(ctx, r.PathValue("id"), req.Faces)
	return http.StatusOK, outcome, err
}

func (s *Server) submitTest(ctx context.Context, r *http.Request) (int, any, error) {
	var req SubmitRequest
	if err := decode(r, &req); err != nil {
		return 0, nil, err
	}
	submission, err := s.Service.SubmitTest(ctx, r.PathValue("id"), req.Results)
	return http.StatusOK, submission, err
}

// createRateLimitMiddleware adds observability to rate limiting
func (s *Server) createRateLimitMiddleware(om *observability.ObservabilityManager) func(http.HandlerFunc) http.HandlerFunc {
	originalMiddleware := s.rateLimitMiddleware()

	return func(next http.HandlerFunc) http.HandlerFunc {
		limited := originalMiddleware(next)
		return func(w http.ResponseWriter, r *http.Request) {
			// Wrap the ResponseWriter to detect rate limit responses
			wrapper := &responseWrapper{ResponseWriter: w, statusCode: http.StatusOK}

			limited(wrapper, r)

			if wrapper.statusCode == http.StatusTooManyRequests {
				om.RecordRateLimitHit(r.Context(), rateLimitKeyType(r, s.RateLimit), r.URL.Path)
			}
		}
	}
}

// responseWrapper wraps http.ResponseWriter to capture status code
type responseWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWrapper) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
