// Package domain holds the ATS entities exactly as they appear in the
// persisted document.
package domain

// SectionType is the kind of block shown on a careers page
type SectionType string

const (
	SectionHero    SectionType = "hero"
	SectionAbout   SectionType = "about"
	SectionGallery SectionType = "gallery"
	SectionCulture SectionType = "culture"
	SectionPerks   SectionType = "perks"
	SectionText    SectionType = "text"
)

// Branding is the visual identity of a company careers page
type Branding struct {
	LogoURL        string `json:"logoUrl,omitempty"`
	PrimaryColor   string `json:"primaryColor"`
	SecondaryColor string `json:"secondaryColor"`
	HeroVideoURL   string `json:"heroVideoUrl,omitempty"`
	HeroImageURL   string `json:"heroImageUrl,omitempty"`
	FontFamily     string `json:"fontFamily,omitempty"`
}

// Section is one ordered block of a careers page
type Section struct {
	ID       string      `json:"id"`
	Type     SectionType `json:"type"`
	Title    string      `json:"title"`
	Content  string      `json:"content"`
	Order    int         `json:"order"`
	ImageURL string      `json:"imageUrl,omitempty"`
}

// Company owns jobs, recruiters and coding questions
type Company struct {
	ID       string    `json:"id"`
	Slug     string    `json:"slug"`
	Name     string    `json:"name"`
	Branding Branding  `json:"branding"`
	Sections []Section `json:"sections"`
}

// JobType is the contract type of a job
type JobType string

const (
	JobFullTime JobType = "Full-time"
	JobPartTime JobType = "Part-time"
	JobContract JobType = "Contract"
	JobRemote   JobType = "Remote"
)

// WorkPolicy is where the work happens
type WorkPolicy string

const (
	PolicyRemote WorkPolicy = "Remote"
	PolicyOnSite WorkPolicy = "On-site"
	PolicyHybrid WorkPolicy = "Hybrid"
)

// Job is a posting on a company careers page
type Job struct {
	ID                     string     `json:"id"`
	CompanyID              string     `json:"companyId"`
	Title                  string     `json:"title"`
	Location               string     `json:"location"`
	Type                   JobType    `json:"type"`
	WorkPolicy             WorkPolicy `json:"workPolicy,omitempty"`
	Department             string     `json:"department,omitempty"`
	ExperienceLevel        string     `json:"experienceLevel,omitempty"`
	Description            string     `json:"description"`
	DetailedJobDescription string     `json:"detailedJobDescription,omitempty"`
	CompanyDescription     string     `json:"companyDescription,omitempty"`
	Responsibilities       []string   `json:"responsibilities,omitempty"`
	Requirements           []string   `json:"requirements"`
	Benefits               []string   `json:"benefits,omitempty"`
	SalaryRange            string     `json:"salaryRange,omitempty"`
	PublishedAt            string     `json:"publishedAt"`
	Skills                 []string   `json:"skills"`
	Slug                   string     `json:"slug,omitempty"`
}

// TestResult is a coding assessment outcome kept on the candidate profile
type TestResult struct {
	TestName string  `json:"testName"`
	Score    float64 `json:"score"`
	Date     string  `json:"date"`
}

// Project is a portfolio entry
type Project struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	URL         string `json:"url,omitempty"`
}

// CodingStats counts solved problems per difficulty
type CodingStats struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Total  int `json:"total"`
}

// CodingProfile links a competitive programming account
type CodingProfile struct {
	Platform string       `json:"platform"`
	Rank     string       `json:"rank,omitempty"`
	URL      string       `json:"url"`
	Stats    *CodingStats `json:"stats,omitempty"`
}

// College is the candidate's education record
type College struct {
	Name       string  `json:"name"`
	IsVerified bool    `json:"isVerified"`
	CGPA       float64 `json:"cgpa,omitempty"`
	Degree     string  `json:"degree,omitempty"`
	Batch      string  `json:"batch,omitempty"`
}

// Candidate is a job seeker
type Candidate struct {
	ID                   string          `json:"id"`
	Name                 string          `json:"name"`
	Email                string          `json:"email"`
	EmailVerified        bool            `json:"emailVerified,omitempty"`
	Password             string          `json:"password,omitempty"`
	ResumeURL            string          `json:"resumeUrl,omitempty"`
	ResumeVersions       []string        `json:"resumeVersions,omitempty"`
	ProfileImage         string          `json:"profileImage,omitempty"`
	Skills               []string        `json:"skills"`
	Role                 string          `json:"role,omitempty"`
	Bio                  string          `json:"bio,omitempty"`
	Location             string          `json:"location,omitempty"`
	ExperienceLevel      string          `json:"experienceLevel,omitempty"`
	Certifications       []string        `json:"certifications,omitempty"`
	TestResults          []TestResult    `json:"testResults,omitempty"`
	Projects             []Project       `json:"projects,omitempty"`
	CodingProfiles       []CodingProfile `json:"codingProfiles,omitempty"`
	RegisteredHackathons []string        `json:"registeredHackathons,omitempty"`
	GithubURL            string          `json:"githubUrl,omitempty"`
	College              *College        `json:"college,omitempty"`
}

// Redacted returns a copy without the password
func (c Candidate) Redacted() Candidate {
	c.Password = ""
	return c
}

// RecruiterRole is the recruiter's permission level inside a company
type RecruiterRole string

const (
	RoleHR            RecruiterRole = "HR"
	RoleHiringManager RecruiterRole = "Hiring Manager"
	RoleAdmin         RecruiterRole = "Admin"
)

// Recruiter manages one company
type Recruiter struct {
	ID        string        `json:"id"`
	Email     string        `json:"email"`
	Username  string        `json:"username"`
	Password  string        `json:"password,omitempty"`
	CompanyID string        `json:"companyId"`
	Name      string        `json:"name"`
	Role      RecruiterRole `json:"role"`
}

// Redacted returns a copy without the password
func (r Recruiter) Redacted() Recruiter {
	r.Password = ""
	return r
}

// Difficulty grades a coding question
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// TestCase is one input/output pair of a coding question
type TestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expectedOutput"`
	IsHidden       bool   `json:"isHidden"`
}

// StarterCode holds the editor templates per language
type StarterCode struct {
	JavaScript string `json:"javascript"`
	Python     string `json:"python"`
	Java       string `json:"java"`
}

// DSAQuestion is a coding question used in proctored assessments
type DSAQuestion struct {
	ID          string      `json:"id"`
	CompanyID   string      `json:"companyId"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Difficulty  Difficulty  `json:"difficulty"`
	TimeLimit   int         `json:"timeLimit"` // minutes
	Hints       []string    `json:"hints"`
	TestCases   []TestCase  `json:"testCases"`
	StarterCode StarterCode `json:"starterCode"`
	Tags        []string    `json:"tags"`
	CreatedBy   string      `json:"createdBy"`
	CreatedAt   string      `json:"createdAt"`
}

// Public returns a copy without hidden test cases
func (q DSAQuestion) Public() DSAQuestion {
	visible := make([]TestCase, 0, len(q.TestCases))
	for _, tc := range q.TestCases {
		if !tc.IsHidden {
			visible = append(visible, tc)
		}
	}
	q.TestCases = visible
	return q
}
