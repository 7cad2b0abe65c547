// Package upload stores resumes and images posted to the upload endpoint.
package upload

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"time"

	"whitecarrot/internal/config"
	"whitecarrot/internal/errors"
)

// FieldName is the multipart field holding the file
const FieldName = "file"

// DefaultMaxFileSize is the upload cap when none is configured
const DefaultMaxFileSize int64 = 5 * 1024 * 1024

// multipartOverhead leaves room for boundaries and part headers around a
// file of the maximum size
const multipartOverhead = 64 * 1024

// DefaultAllowedTypes are the accepted file extensions
var DefaultAllowedTypes = []string{"doc", "docx", "pdf", "jpg", "jpeg", "png"}

// mediaTypes maps each extension to the content types a browser declares for it
var mediaTypes = map[string][]string{
	"doc":  {"application/msword"},
	"docx": {"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
	"pdf":  {"application/pdf"},
	"jpg":  {"image/jpeg", "image/jpg"},
	"jpeg": {"image/jpeg", "image/jpg"},
	"png":  {"image/png"},
}

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// Recorder receives one event per upload attempt
type Recorder interface {
	RecordUpload(ctx context.Context, extension string, size int64, err error)
}

// Result is returned to the client after a successful upload
type Result struct {
	Message  string `json:"message"`
	FilePath string `json:"filePath"`
	Filename string `json:"filename"`
	// Skills lists the known skills found in a PDF or DOCX resume
	Skills []string `json:"detectedSkills,omitempty"`
}

// Uploader validates and stores uploaded files
type Uploader struct {
	dir      string
	maxSize  int64
	allowed  []string
	inspect  bool
	recorder Recorder
	logger   *errors.Logger
	now      func() time.Time
}

// New creates an uploader from the upload configuration
func New(cfg config.UploadConfig, recorder Recorder, logger *errors.Logger) *Uploader {
	u := &Uploader{
		dir:      cfg.Dir,
		maxSize:  cfg.MaxFileSize,
		inspect:  cfg.InspectDocuments,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
	if u.dir == "" {
		u.dir = "uploads"
	}
	if u.maxSize <= 0 {
		u.maxSize = DefaultMaxFileSize
	}
	for _, t := range cfg.AllowedTypes {
		t = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(t), "."))
		if _, known := mediaTypes[t]; known && !slices.Contains(u.allowed, t) {
			u.allowed = append(u.allowed, t)
		}
	}
	if len(u.allowed) == 0 {
		u.allowed = DefaultAllowedTypes
	}
	return u
}

// Dir is where files are written
func (u *Uploader) Dir() string {
	return u.dir
}

// Receive reads the file field of a multipart request and stores it
func (u *Uploader) Receive(w http.ResponseWriter, r *http.Request) (Result, error) {
	r.Body = http.MaxBytesReader(w, r.Body, u.maxSize+multipartOverhead)
	if err := r.ParseMultipartForm(u.maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return Result{}, u.record(r.Context(), "", 0, u.tooLarge())
		case stderrors.Is(err, http.ErrNotMultipart), stderrors.Is(err, http.ErrMissingBoundary):
			return Result{}, u.record(r.Context(), "", 0, missingFile())
		default:
			return Result{}, u.record(r.Context(), "", 0,
				errors.NewValidationError(errors.ErrCodeInvalidRequest, "Malformed multipart body", err))
		}
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile(FieldName)
	if err != nil {
		return Result{}, u.record(r.Context(), "", 0, missingFile())
	}
	defer file.Close()

	return u.Save(r.Context(), header.Filename, header.Header.Get("Content-Type"), file)
}

// Save validates one file and writes it as <unix-millis>-<name> under the
// upload directory
func (u *Uploader) Save(ctx context.Context, name, contentType string, body io.Reader) (Result, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if err := u.checkType(ext, contentType); err != nil {
		return Result{}, u.record(ctx, ext, 0, err)
	}

	data, err := io.ReadAll(io.LimitReader(body, u.maxSize+1))
	if err != nil {
		return Result{}, u.record(ctx, ext, 0, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to read upload", err))
	}
	if int64(len(data)) > u.maxSize {
		return Result{}, u.record(ctx, ext, int64(len(data)), u.tooLarge())
	}

	var skills []string
	if u.inspect {
		text, err := inspect(ext, data)
		if err != nil {
			return Result{}, u.record(ctx, ext, int64(len(data)), err)
		}
		skills = detectSkills(text)
	}

	filename := fmt.Sprintf("%d-%s", u.now().UnixMilli(), sanitizeName(name))
	if err := os.MkdirAll(u.dir, 0o755); err != nil {
		return Result{}, u.record(ctx, ext, 0, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to create upload directory", err))
	}
	if err := os.WriteFile(filepath.Join(u.dir, filename), data, 0o644); err != nil {
		return Result{}, u.record(ctx, ext, 0, errors.NewIOError(errors.ErrCodeFileNotReadable, "Failed to store upload", err))
	}

	if u.logger != nil {
		u.logger.Info("File saved", "filename", filename, "size", len(data))
	}
	_ = u.record(ctx, ext, int64(len(data)), nil)
	return Result{
		Message:  "File uploaded successfully",
		FilePath: "/uploads/" + filename,
		Filename: filename,
		Skills:   skills,
	}, nil
}

func (u *Uploader) checkType(ext, contentType string) error {
	if !slices.Contains(u.allowed, ext) {
		return u.unsupported(ext, contentType)
	}
	declared, _, err := mime.ParseMediaType(contentType)
	if err != nil || !slices.Contains(mediaTypes[ext], strings.ToLower(declared)) {
		return u.unsupported(ext, contentType)
	}
	return nil
}

func (u *Uploader) unsupported(ext, contentType string) error {
	return errors.NewValidationError(errors.ErrCodeUploadType,
		"Error: File upload only supports the following filetypes - /"+strings.Join(u.allowed, "|")+"/", nil).
		WithContext("extension", ext).
		WithContext("content_type", contentType)
}

func (u *Uploader) tooLarge() error {
	return errors.NewValidationError(errors.ErrCodeUploadTooLarge,
		fmt.Sprintf("File too large. Maximum size is %s", humanSize(u.maxSize)), nil)
}

func missingFile() error {
	return errors.NewValidationError(errors.ErrCodeUploadMissing, "Please upload a file", nil)
}

func (u *Uploader) record(ctx context.Context, ext string, size int64, err error) error {
	if u.recorder != nil {
		u.recorder.RecordUpload(ctx, ext, size, err)
	}
	return err
}

// sanitizeName keeps the base name of an upload and replaces every run of
// characters outside [A-Za-z0-9._-] with an underscore
func sanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	base = unsafeNameChars.ReplaceAllString(base, "_")
	base = strings.TrimLeft(base, ".")
	if base == "" || base == "_" {
		return "upload"
	}
	return base
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}
