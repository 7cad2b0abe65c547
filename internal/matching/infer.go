package matching

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// KnownSkills is the vocabulary recognized in job descriptions
var KnownSkills = []string{
	"React", "Node.js", "TypeScript", "JavaScript", "Python", "Java",
	"SQL", "PostgreSQL", "Excel", "Git", "CSS", "Docker", "AWS", "Kubernetes",
	"API Design", "Software Development", "Data Analysis",
	"Figma", "UI/UX", "Prototyping",
	"SEO", "Content Strategy", "Social Media", "Copywriting", "Editing",
	"CRM", "Negotiation", "Communication", "Sales",
	"Leadership", "Project Management", "Agile", "Problem Solving",
}

var skillPatterns = compileSkillPatterns(KnownSkills)

func compileSkillPatterns(skills []string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, len(skills))
	for i, s := range skills {
		patterns[i] = regexp.MustCompile(`(?i)(?:^|[^\w.+#/])` + regexp.QuoteMeta(s) + `(?:[^\w+#/]|$)`)
	}
	return patterns
}

// InferSkills guesses the skills of a job posted without any. Known skill
// names found in the description win; otherwise engineering titles get
// React and Node.js and every other title gets Communication and Sales.
func InferSkills(title, description string) []string {
	if found := FindSkills(PlainText(description)); len(found) > 0 {
		return found
	}

	if strings.Contains(title, "Engineer") {
		return []string{"React", "Node.js"}
	}
	return []string{"Communication", "Sales"}
}

// FindSkills returns the known skills mentioned in text, in vocabulary order
func FindSkills(text string) []string {
	var found []string
	for i, p := range skillPatterns {
		if p.MatchString(text) {
			found = append(found, KnownSkills[i])
		}
	}
	return found
}

// PlainText strips markup from an HTML fragment. Text that does not parse
// is returned unchanged.
func PlainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return fragment
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	doc.Find("script, style").Remove()

	var parts []string
	doc.Find("body").Contents().Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	return strings.Join(parts, " ")
}
