// Package notify renders the candidate emails and hands them to a transport.
package notify

import (
	"fmt"
	"strings"
)

// Kind names the template behind a message
type Kind string

const (
	KindRejection        Kind = "ai_rejection"
	KindDisqualification Kind = "test_disqualification"
	KindHackathon        Kind = "hackathon_registration"
)

// Message is one outgoing email
type Message struct {
	Kind    Kind   `json:"kind"`
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Recipient is the addressee of a message
type Recipient struct {
	Name  string
	Email string
}

// Violation is one proctoring alert listed in a disqualification email
type Violation struct {
	Timestamp string
	Message   string
}

// RejectionEmail tells a candidate the screening turned the application down
func RejectionEmail(to Recipient, jobTitle, reason string) Message {
	body := fmt.Sprintf("Dear %s,\n\n"+
		"Thank you for applying for the %s position. After careful review by our AI screening system, "+
		"we regret to inform you that we will not be moving forward with your application at this time.\n\n"+
		"Reason: %s\n\n"+
		"We encourage you to apply for other positions that may be a better match for your skills and experience.\n\n"+
		"Best regards,\nThe Hiring Team",
		to.Name, jobTitle, reason)

	return Message{
		Kind:    KindRejection,
		To:      to.Email,
		Subject: "Application Update - " + jobTitle,
		Body:    body,
	}
}

// DisqualificationEmail tells a candidate the proctored test was terminated
func DisqualificationEmail(to Recipient, questionTitle string, violations []Violation) Message {
	reasons := make([]string, len(violations))
	timeline := make([]string, len(violations))
	for i, v := range violations {
		reasons[i] = v.Message
		timeline[i] = fmt.Sprintf("• %s: %s", v.Timestamp, v.Message)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Dear %s,\n\n", to.Name)
	fmt.Fprintf(&b, "We regret to inform you that your test submission for %q has been\n", questionTitle)
	b.WriteString("automatically rejected due to suspicious activity detected by our AI proctoring system.\n\n")
	b.WriteString("VIOLATIONS DETECTED:\n")
	b.WriteString("- " + strings.Join(reasons, "\n- ") + "\n\n")
	b.WriteString("Our AI monitoring system detected the following behaviors during your test:\n")
	b.WriteString(strings.Join(timeline, "\n") + "\n\n")
	b.WriteString("As per our testing policy, any form of cheating or suspicious behavior results in\n")
	b.WriteString("immediate disqualification. Your test has been flagged and will not be reviewed.\n\n")
	b.WriteString("If you believe this is an error, please contact our support team with your test ID.\n\n")
	b.WriteString("This decision is final and cannot be appealed.\n\n")
	b.WriteString("Best regards,\nAutomated Proctoring System")

	return Message{
		Kind:    KindDisqualification,
		To:      to.Email,
		Subject: "Test Disqualification - " + questionTitle,
		Body:    b.String(),
	}
}

// HackathonEmail confirms a hackathon registration
func HackathonEmail(to Recipient, hackathonID string) Message {
	return Message{
		Kind:    KindHackathon,
		To:      to.Email,
		Subject: "Hackathon Registration Confirmed - " + hackathonID,
		Body: fmt.Sprintf("Dear %s,\n\nYou are registered for hackathon %s. "+
			"We will send the problem statement and schedule before the event starts.\n\n"+
			"Best regards,\nThe Hiring Team", to.Name, hackathonID),
	}
}
