package formatters

import (
	"encoding/json"
	"fmt"
	"strings"

	"whitecarrot/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "ScoreReport", &ScoreTextFormatter{})
	registry.RegisterFormatter("markdown", "ScoreReport", &ScoreMarkdownFormatter{})
	registry.RegisterFormatter("text", "ApplicationReport", &ApplicationTextFormatter{})
	registry.RegisterFormatter("markdown", "ApplicationReport", &ApplicationMarkdownFormatter{})
	registry.RegisterFormatter("text", "JobListing", &JobListingTextFormatter{})
	registry.RegisterFormatter("markdown", "JobListing", &JobListingMarkdownFormatter{})
	registry.RegisterFormatter("text", "ProctorReport", &ProctorTextFormatter{})
	registry.RegisterFormatter("markdown", "ProctorReport", &ProctorMarkdownFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case types.ScoreReport:
		return "ScoreReport"
	case types.ApplicationReport:
		return "ApplicationReport"
	case types.JobListing:
		return "JobListing"
	case types.ProctorReport:
		return "ProctorReport"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData) + "\n", nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

func writeList(output *strings.Builder, items []string, empty string) {
	if len(items) == 0 {
		output.WriteString(empty)
		output.WriteString("\n")
		return
	}
	for _, item := range items {
		fmt.Fprintf(output, "- %s\n", item)
	}
}

// ScoreTextFormatter handles text formatting for match scores
type ScoreTextFormatter struct{}

func (stf *ScoreTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreReport)
	if !ok {
		return "", fmt.Errorf("expected ScoreReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== MATCH SCORE ===\n\n")
	if result.JobTitle != "" {
		fmt.Fprintf(&output, "Job: %s\n", result.JobTitle)
	}
	if result.CandidateName != "" {
		fmt.Fprintf(&output, "Candidate: %s\n", result.CandidateName)
	}
	fmt.Fprintf(&output, "Score: %.2f%% (%d of %d skills)\n", result.Match.Percentage, len(result.Match.Matched), result.Match.Required)
	fmt.Fprintf(&output, "Decision: %s\n", result.Status)
	if result.FastTrack {
		output.WriteString("Fast track: yes\n")
	}
	output.WriteString("\n")

	output.WriteString("Matched Skills:\n")
	writeList(&output, result.Match.Matched, "(none)")
	output.WriteString("\nMissing Skills:\n")
	writeList(&output, result.Match.Missing, "(none)")

	if result.Reason != "" {
		output.WriteString("\nReason:\n")
		output.WriteString(result.Reason)
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (stf *ScoreTextFormatter) SupportedType() string {
	return "ScoreReport"
}

// ScoreMarkdownFormatter handles markdown formatting for match scores
type ScoreMarkdownFormatter struct{}

func (smf *ScoreMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ScoreReport)
	if !ok {
		return "", fmt.Errorf("expected ScoreReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Match Score\n\n")
	if result.JobTitle != "" {
		fmt.Fprintf(&output, "**Job:** %s\n\n", result.JobTitle)
	}
	if result.CandidateName != "" {
		fmt.Fprintf(&output, "**Candidate:** %s\n\n", result.CandidateName)
	}
	fmt.Fprintf(&output, "**Score:** %.2f%%\n\n", result.Match.Percentage)
	fmt.Fprintf(&output, "**Decision:** `%s`\n\n", result.Status)

	output.WriteString("## Matched Skills\n\n")
	writeList(&output, result.Match.Matched, "_None_")
	output.WriteString("\n## Missing Skills\n\n")
	writeList(&output, result.Match.Missing, "_None_")

	if result.Reason != "" {
		output.WriteString("\n## Reason\n\n")
		output.WriteString(result.Reason)
		output.WriteString("\n")
	}

	return output.String(), nil
}

func (smf *ScoreMarkdownFormatter) SupportedType() string {
	return "ScoreReport"
}

// ApplicationTextFormatter handles text formatting for application analyses
type ApplicationTextFormatter struct{}

func (atf *ApplicationTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ApplicationReport)
	if !ok {
		return "", fmt.Errorf("expected ApplicationReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== APPLICATION ANALYSIS ===\n\n")
	fmt.Fprintf(&output, "Application: %s\n", result.ApplicationID)
	fmt.Fprintf(&output, "Job: %s\n", result.JobTitle)
	fmt.Fprintf(&output, "Candidate: %s\n", result.CandidateName)
	fmt.Fprintf(&output, "Status: %s\n", result.Status)
	fmt.Fprintf(&output, "Match: %d%%\n\n", result.Analysis.MatchPercentage)

	output.WriteString("Strengths:\n")
	writeList(&output, result.Analysis.Strengths, "(none)")
	output.WriteString("\nWeaknesses:\n")
	writeList(&output, result.Analysis.Weaknesses, "(none)")
	output.WriteString("\nImprovements:\n")
	writeList(&output, result.Analysis.Improvements, "(none)")

	return output.String(), nil
}

func (atf *ApplicationTextFormatter) SupportedType() string {
	return "ApplicationReport"
}

// ApplicationMarkdownFormatter handles markdown formatting for application analyses
type ApplicationMarkdownFormatter struct{}

func (amf *ApplicationMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ApplicationReport)
	if !ok {
		return "", fmt.Errorf("expected ApplicationReport, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "# Application %s\n\n", result.ApplicationID)
	fmt.Fprintf(&output, "**%s** for **%s**\n\n", result.CandidateName, result.JobTitle)
	fmt.Fprintf(&output, "- Status: `%s`\n", result.Status)
	fmt.Fprintf(&output, "- Match: %d%%\n\n", result.Analysis.MatchPercentage)

	output.WriteString("## Strengths\n\n")
	writeList(&output, result.Analysis.Strengths, "_None_")
	output.WriteString("\n## Missing Skills\n\n")
	writeList(&output, result.Analysis.MissingSkills, "_None_")

	if len(result.Analysis.Improvements) > 0 {
		output.WriteString("\n## Improvements\n\n")
		for i, improvement := range result.Analysis.Improvements {
			fmt.Fprintf(&output, "%d. %s\n", i+1, improvement)
		}
	}

	return output.String(), nil
}

func (amf *ApplicationMarkdownFormatter) SupportedType() string {
	return "ApplicationReport"
}

// JobListingTextFormatter handles text formatting for job searches
type JobListingTextFormatter struct{}

func (jtf *JobListingTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobListing)
	if !ok {
		return "", fmt.Errorf("expected JobListing, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "=== JOBS (%d) ===\n\n", result.Count)
	if result.Count == 0 {
		output.WriteString("No jobs match the search.\n")
		return output.String(), nil
	}
	for _, job := range result.Jobs {
		fmt.Fprintf(&output, "%s  %s\n", job.ID, job.Title)
		fmt.Fprintf(&output, "    %s | %s", job.Location, job.Type)
		if job.SalaryRange != "" {
			fmt.Fprintf(&output, " | %s", job.SalaryRange)
		}
		output.WriteString("\n")
		if len(job.Skills) > 0 {
			fmt.Fprintf(&output, "    Skills: %s\n", strings.Join(job.Skills, ", "))
		}
	}

	return output.String(), nil
}

func (jtf *JobListingTextFormatter) SupportedType() string {
	return "JobListing"
}

// JobListingMarkdownFormatter renders job searches as a table
type JobListingMarkdownFormatter struct{}

func (jmf *JobListingMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.JobListing)
	if !ok {
		return "", fmt.Errorf("expected JobListing, got %T", data)
	}

	var output strings.Builder

	fmt.Fprintf(&output, "# Jobs (%d)\n\n", result.Count)
	if result.Count == 0 {
		output.WriteString("_No jobs match the search._\n")
		return output.String(), nil
	}
	output.WriteString("| ID | Title | Location | Type | Skills |\n")
	output.WriteString("|---|---|---|---|---|\n")
	for _, job := range result.Jobs {
		fmt.Fprintf(&output, "| %s | %s | %s | %s | %s |\n",
			job.ID, escapeCell(job.Title), escapeCell(job.Location), job.Type, escapeCell(strings.Join(job.Skills, ", ")))
	}

	return output.String(), nil
}

func (jmf *JobListingMarkdownFormatter) SupportedType() string {
	return "JobListing"
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// ProctorTextFormatter handles text formatting for proctoring replays
type ProctorTextFormatter struct{}

func (ptf *ProctorTextFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ProctorReport)
	if !ok {
		return "", fmt.Errorf("expected ProctorReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== PROCTORING REPLAY ===\n\n")
	fmt.Fprintf(&output, "Frames: %d\n", result.Frames)
	fmt.Fprintf(&output, "Status: %s\n", result.Status)
	fmt.Fprintf(&output, "Critical alerts: %d\n", result.CriticalCount)
	if result.TerminatedAt > 0 {
		fmt.Fprintf(&output, "Terminated at frame: %d\n", result.TerminatedAt)
	}
	output.WriteString("\n")

	if len(result.Alerts) == 0 {
		output.WriteString("No alerts raised.\n")
		return output.String(), nil
	}
	output.WriteString("Alerts:\n")
	for _, alert := range result.Alerts {
		fmt.Fprintf(&output, "- [%s] %s: %s\n", alert.Severity, alert.Type, alert.Message)
	}

	return output.String(), nil
}

func (ptf *ProctorTextFormatter) SupportedType() string {
	return "ProctorReport"
}

// ProctorMarkdownFormatter handles markdown formatting for proctoring replays
type ProctorMarkdownFormatter struct{}

func (pmf *ProctorMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(types.ProctorReport)
	if !ok {
		return "", fmt.Errorf("expected ProctorReport, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Proctoring Replay\n\n")
	fmt.Fprintf(&output, "- Frames: %d\n", result.Frames)
	fmt.Fprintf(&output, "- Status: `%s`\n", result.Status)
	fmt.Fprintf(&output, "- Critical alerts: %d\n\n", result.CriticalCount)

	if len(result.Violations) > 0 {
		fmt.Fprintf(&output, "## Violations (frame %d)\n\n", result.TerminatedAt)
		for i, v := range result.Violations {
			fmt.Fprintf(&output, "%d. **%s**: %s\n", i+1, v.Type, v.Message)
		}
		output.WriteString("\n")
	}

	if len(result.Alerts) > 0 {
		output.WriteString("## Alerts\n\n")
		output.WriteString("| Severity | Type | Message |\n")
		output.WriteString("|---|---|---|\n")
		for _, alert := range result.Alerts {
			fmt.Fprintf(&output, "| %s | %s | %s |\n", alert.Severity, alert.Type, escapeCell(alert.Message))
		}
	}

	return output.String(), nil
}

func (pmf *ProctorMarkdownFormatter) SupportedType() string {
	return "ProctorReport"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
