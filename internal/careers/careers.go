// Package careers builds the public careers page of a company and the
// filters of the job board.
package careers

import (
	"cmp"
	"slices"
	"strings"

	"whitecarrot/internal/domain"
)

// Page is the rendered careers page data
type Page struct {
	Company  domain.Company   `json:"company"`
	Sections []domain.Section `json:"sections"`
	Jobs     []domain.Job     `json:"jobs"`
	Query    string           `json:"query,omitempty"`
}

// BuildPage orders the company sections, sanitizes their content and keeps
// the jobs whose title contains query
func BuildPage(company domain.Company, jobs []domain.Job, query string) Page {
	sections := slices.Clone(company.Sections)
	slices.SortStableFunc(sections, func(a, b domain.Section) int {
		return cmp.Compare(a.Order, b.Order)
	})
	for i := range sections {
		sections[i].Content = SanitizeHTML(sections[i].Content)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	matched := []domain.Job{}
	for _, j := range jobs {
		if q == "" || strings.Contains(strings.ToLower(j.Title), q) {
			matched = append(matched, j)
		}
	}

	company.Sections = sections
	return Page{
		Company:  company,
		Sections: sections,
		Jobs:     matched,
		Query:    query,
	}
}

// Filter selects jobs on the job board. Zero fields match everything.
type Filter struct {
	// Query matches the title or any skill, case-insensitively
	Query     string           `json:"q,omitempty"`
	Location  string           `json:"loc,omitempty"`
	Types     []domain.JobType `json:"type,omitempty"`
	CompanyID string           `json:"companyId,omitempty"`
}

// Match reports whether job passes every set criterion
func (f Filter) Match(job domain.Job) bool {
	if f.CompanyID != "" && job.CompanyID != f.CompanyID {
		return false
	}
	if len(f.Types) > 0 && !slices.Contains(f.Types, job.Type) {
		return false
	}
	if loc := strings.ToLower(strings.TrimSpace(f.Location)); loc != "" &&
		!strings.Contains(strings.ToLower(job.Location), loc) {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" {
		if strings.Contains(strings.ToLower(job.Title), q) {
			return true
		}
		return slices.ContainsFunc(job.Skills, func(s string) bool {
			return strings.Contains(strings.ToLower(s), q)
		})
	}
	return true
}

// Apply returns the jobs accepted by f
func (f Filter) Apply(jobs []domain.Job) []domain.Job {
	out := []domain.Job{}
	for _, j := range jobs {
		if f.Match(j) {
			out = append(out, j)
		}
	}
	return out
}

// ParseTypes splits a comma separated type list, dropping unknown values
func ParseTypes(values ...string) []domain.JobType {
	known := []domain.JobType{domain.JobFullTime, domain.JobPartTime, domain.JobContract, domain.JobRemote}
	var out []domain.JobType
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			part = strings.TrimSpace(part)
			i := slices.IndexFunc(known, func(t domain.JobType) bool { return strings.EqualFold(string(t), part) })
			if i >= 0 && !slices.Contains(out, known[i]) {
				out = append(out, known[i])
			}
		}
	}
	return out
}
