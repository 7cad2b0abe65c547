package common

import (
	"fmt"
	"slices"

	"whitecarrot/internal/errors"
)

// ValidateOutputFormat checks format against the configured formats. An
// empty list allows any format.
func ValidateOutputFormat(format string, supportedFormats []string) error {
	if len(supportedFormats) == 0 || slices.Contains(supportedFormats, format) {
		return nil
	}

	return errors.NewValidationError(errors.ErrCodeInvalidFormat,
		fmt.Sprintf("unsupported output format '%s'. Supported formats: %v", format, supportedFormats), nil)
}

// ResolveOutputFormat applies the default format when none was requested
// and validates the result
func ResolveOutputFormat(cfg *CommandConfig, defaultFormat string, supportedFormats []string) error {
	if cfg.OutputFormat == "" {
		cfg.OutputFormat = defaultFormat
	}
	return ValidateOutputFormat(cfg.OutputFormat, supportedFormats)
}
