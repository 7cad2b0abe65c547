package careers

import (
	"testing"

	"whitecarrot/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPage(t *testing.T) {
	company := domain.Company{
		ID:   "c1",
		Name: "Acme Corp",
		Sections: []domain.Section{
			{ID: "s2", Order: 2, Content: "<p>Perks</p>"},
			{ID: "s1", Order: 1, Content: `<p onclick="steal()">About</p><script>alert(1)</script>`},
		},
	}
	jobs := []domain.Job{
		{ID: "j1", Title: "Frontend Engineer"},
		{ID: "j2", Title: "Data Analyst"},
	}

	page := BuildPage(company, jobs, "engineer")

	require.Len(t, page.Sections, 2)
	assert.Equal(t, "s1", page.Sections[0].ID)
	assert.Equal(t, "<p>About</p>", page.Sections[0].Content)
	require.Len(t, page.Jobs, 1)
	assert.Equal(t, "j1", page.Jobs[0].ID)

	assert.Equal(t, "s2", company.Sections[0].ID, "input company must not be reordered")
	assert.Len(t, BuildPage(company, jobs, "").Jobs, 2)
}

func TestSanitizeHTML(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "We are hiring", "We are hiring"},
		{"keeps formatting", "<p>Hello <b>world</b></p>", "<p>Hello <b>world</b></p>"},
		{"drops script", "<p>a</p><script>x()</script>", "<p>a</p>"},
		{"drops iframe", `<iframe src="https://evil"></iframe><p>b</p>`, "<p>b</p>"},
		{"drops handlers", `<img src="/a.png" onerror="x()"/>`, `<img src="/a.png"/>`},
		{"drops javascript urls", `<a href=" JavaScript:alert(1)">x</a>`, "<a>x</a>"},
		{"keeps safe links", `<a href="https://acme.test/jobs">jobs</a>`, `<a href="https://acme.test/jobs">jobs</a>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SanitizeHTML(tt.in))
		})
	}
}

func TestFilter(t *testing.T) {
	jobs := []domain.Job{
		{ID: "1", CompanyID: "c1", Title: "Frontend Engineer", Location: "Berlin, Germany", Type: domain.JobFullTime, Skills: []string{"React", "CSS"}},
		{ID: "2", CompanyID: "c2", Title: "Data Analyst", Location: "Dubai, United Arab Emirates", Type: domain.JobContract, Skills: []string{"SQL"}},
		{ID: "3", CompanyID: "c1", Title: "Sales Representative", Location: "Berlin, Germany", Type: domain.JobPartTime, Skills: []string{"CRM"}},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{"empty matches all", Filter{}, []string{"1", "2", "3"}},
		{"query on title", Filter{Query: "analyst"}, []string{"2"}},
		{"query on skill", Filter{Query: "rea"}, []string{"1"}},
		{"location", Filter{Location: "berlin"}, []string{"1", "3"}},
		{"types", Filter{Types: []domain.JobType{domain.JobContract, domain.JobPartTime}}, []string{"2", "3"}},
		{"company", Filter{CompanyID: "c2"}, []string{"2"}},
		{"combined", Filter{Query: "e", Location: "Berlin", Types: []domain.JobType{domain.JobPartTime}}, []string{"3"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ids := []string{}
			for _, j := range tt.filter.Apply(jobs) {
				ids = append(ids, j.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestParseTypes(t *testing.T) {
	assert.Equal(t,
		[]domain.JobType{domain.JobFullTime, domain.JobRemote},
		ParseTypes("full-time, Remote", "Full-time", "Freelance"))
	assert.Nil(t, ParseTypes(""))
}
