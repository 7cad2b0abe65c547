package domain

import "slices"

// Clone methods return copies that share no memory with the receiver.
// The store hands these out so callers never alias its state.

func (c Company) Clone() Company {
	c.Sections = slices.Clone(c.Sections)
	return c
}

func (j Job) Clone() Job {
	j.Responsibilities = slices.Clone(j.Responsibilities)
	j.Requirements = slices.Clone(j.Requirements)
	j.Benefits = slices.Clone(j.Benefits)
	j.Skills = slices.Clone(j.Skills)
	return j
}

func (c Candidate) Clone() Candidate {
	c.ResumeVersions = slices.Clone(c.ResumeVersions)
	c.Skills = slices.Clone(c.Skills)
	c.Certifications = slices.Clone(c.Certifications)
	c.TestResults = slices.Clone(c.TestResults)
	c.Projects = slices.Clone(c.Projects)
	c.RegisteredHackathons = slices.Clone(c.RegisteredHackathons)
	if c.CodingProfiles != nil {
		profiles := make([]CodingProfile, len(c.CodingProfiles))
		for i, p := range c.CodingProfiles {
			p.Stats = clonePtr(p.Stats)
			profiles[i] = p
		}
		c.CodingProfiles = profiles
	}
	c.College = clonePtr(c.College)
	return c
}

func (d AnalysisDetail) Clone() AnalysisDetail {
	d.Strengths = slices.Clone(d.Strengths)
	d.Weaknesses = slices.Clone(d.Weaknesses)
	d.MissingSkills = slices.Clone(d.MissingSkills)
	d.Improvements = slices.Clone(d.Improvements)
	return d
}

func (a Application) Clone() Application {
	a.Score = clonePtr(a.Score)
	a.TestScore = clonePtr(a.TestScore)
	a.InterviewData = clonePtr(a.InterviewData)
	a.RejectionInfo = clonePtr(a.RejectionInfo)
	if a.AIAnalysis != nil {
		analysis := Analysis{Summary: a.AIAnalysis.Summary}
		if a.AIAnalysis.Detail != nil {
			detail := a.AIAnalysis.Detail.Clone()
			analysis.Detail = &detail
		}
		a.AIAnalysis = &analysis
	}
	return a
}

func (r Recruiter) Clone() Recruiter {
	return r
}

func (q DSAQuestion) Clone() DSAQuestion {
	q.Hints = slices.Clone(q.Hints)
	q.TestCases = slices.Clone(q.TestCases)
	q.Tags = slices.Clone(q.Tags)
	return q
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
