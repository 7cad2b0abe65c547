package ats

import (
	"context"
	"strings"

	"whitecarrot/internal/domain"
	"whitecarrot/internal/errors"
	"whitecarrot/internal/notify"
	"whitecarrot/internal/proctoring"
)

// TestRequest starts a proctored coding test
type TestRequest struct {
	CandidateID   string `json:"candidateId"`
	QuestionID    string `json:"questionId"`
	ApplicationID string `json:"applicationId,omitempty"`
}

// TestStart is a new session together with the question to solve
type TestStart struct {
	Session  proctoring.SessionState `json:"session"`
	Question domain.DSAQuestion      `json:"question"`
}

// StartTest opens a proctoring session. The question is returned without
// its hidden test cases.
func (s *Service) StartTest(ctx context.Context, req TestRequest) (TestStart, error) {
	if _, err := s.store.GetCandidate(ctx, req.CandidateID); err != nil {
		return TestStart{}, err
	}
	question, err := s.store.GetQuestion(ctx, req.QuestionID)
	if err != nil {
		return TestStart{}, err
	}
	if req.ApplicationID != "" {
		app, err := s.store.GetApplication(ctx, req.ApplicationID)
		if err != nil {
			return TestStart{}, err
		}
		if app.CandidateID != req.CandidateID {
			return TestStart{}, errors.NewForbiddenError(errors.ErrCodeInvalidRequest, "Application belongs to another candidate").
				WithContext("application_id", req.ApplicationID)
		}
	}

	session := s.registry.Start(req.CandidateID, req.QuestionID, req.ApplicationID)
	s.logger.Info("Proctored test started",
		"session_id", session.ID,
		"candidate_id", req.CandidateID,
		"question_id", req.QuestionID)
	return TestStart{Session: session.State(), Question: question.Public()}, nil
}

// Session returns the state of a live session
func (s *Service) Session(id string) (proctoring.SessionState, error) {
	session, err := s.registry.Get(id)
	if err != nil {
		return proctoring.SessionState{}, err
	}
	return session.State(), nil
}

// RecordFrame feeds one frame to a session. The frame that terminates the
// test disqualifies the candidate.
func (s *Service) RecordFrame(ctx context.Context, sessionID string, faces []proctoring.Face) (proctoring.FrameOutcome, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return proctoring.FrameOutcome{}, err
	}
	out, err := session.Observe(faces)
	if err != nil {
		return proctoring.FrameOutcome{}, err
	}

	for _, a := range out.Alerts {
		s.metrics.RecordProctoringAlert(ctx, string(a.Type), string(a.Severity))
	}
	if out.Terminated {
		s.metrics.RecordTestOutcome(ctx, string(proctoring.StatusTerminated), 0)
		s.disqualify(ctx, session, out.Violations)
	}
	return out, nil
}

// disqualify rejects the linked application and emails the candidate. The
// session is already terminated, so failures are only logged.
func (s *Service) disqualify(ctx context.Context, session *proctoring.Session, alerts []proctoring.Alert) {
	violations := make([]notify.Violation, len(alerts))
	messages := make([]string, len(alerts))
	for i, a := range alerts {
		violations[i] = notify.Violation{Timestamp: a.Timestamp, Message: a.Message}
		messages[i] = a.Message
	}

	s.logger.Warn("Proctored test terminated",
		"session_id", session.ID,
		"candidate_id", session.CandidateID,
		"violations", len(alerts))

	candidate, err := s.store.GetCandidate(ctx, session.CandidateID)
	if err != nil {
		s.logger.LogError(err, "Failed to load disqualified candidate", "session_id", session.ID)
		return
	}
	title := session.QuestionID
	if q, err := s.store.GetQuestion(ctx, session.QuestionID); err == nil {
		title = q.Title
	}

	sent := s.send(ctx, notify.DisqualificationEmail(recipient(candidate), title, violations))
	if session.ApplicationID == "" {
		return
	}

	reason := "Disqualified from coding test: " + strings.Join(messages, "; ")
	_, err = s.store.ModifyApplication(ctx, session.ApplicationID, func(a *domain.Application) error {
		a.Status = domain.StatusRejected
		a.RejectionInfo = &domain.RejectionInfo{
			RejectedBy: domain.RejectedByAI,
			Reason:     reason,
			RejectedAt: s.timestamp(),
			EmailSent:  sent,
		}
		return nil
	})
	if err != nil {
		s.logger.LogError(err, "Failed to reject disqualified application", "application_id", session.ApplicationID)
	}
}

// TestSubmission is the graded outcome of a test
type TestSubmission struct {
	Session     proctoring.SessionState `json:"session"`
	Score       float64                 `json:"score"`
	Application *domain.Application     `json:"application,omitempty"`
}

// SubmitTest grades the test, records the score on the linked application
// and appends the result to the candidate profile. When either write fails
// the session is reopened so the submission can be retried.
func (s *Service) SubmitTest(ctx context.Context, sessionID string, results []proctoring.CaseResult) (TestSubmission, error) {
	session, err := s.registry.Get(sessionID)
	if err != nil {
		return TestSubmission{}, err
	}
	score, err := session.Submit(results)
	if err != nil {
		return TestSubmission{}, err
	}

	out, err := s.recordSubmission(ctx, session, score)
	if err != nil {
		session.Reopen()
		s.logger.LogError(err, "Failed to record test submission", "session_id", sessionID)
		return TestSubmission{}, err
	}
	s.metrics.RecordTestOutcome(ctx, string(proctoring.StatusSubmitted), score)
	out.Session = session.State()
	return out, nil
}

// recordSubmission writes the application first: setting its score is
// idempotent, while appending a test result is not
func (s *Service) recordSubmission(ctx context.Context, session *proctoring.Session, score float64) (TestSubmission, error) {
	out := TestSubmission{Score: score}
	if session.ApplicationID != "" {
		app, err := s.store.ModifyApplication(ctx, session.ApplicationID, func(a *domain.Application) error {
			a.TestScore = domain.Float(score)
			a.Status = domain.StatusTestCompleted
			return nil
		})
		if err != nil {
			return out, err
		}
		out.Application = &app
	}

	testName := session.QuestionID
	if q, err := s.store.GetQuestion(ctx, session.QuestionID); err == nil {
		testName = q.Title
	}
	_, err := s.store.ModifyCandidate(ctx, session.CandidateID, func(c *domain.Candidate) error {
		c.TestResults = append(c.TestResults, domain.TestResult{
			TestName: testName,
			Score:    score,
			Date:     s.timestamp(),
		})
		return nil
	})
	return out, err
}
