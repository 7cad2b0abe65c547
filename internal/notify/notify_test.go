package notify

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"whitecarrot/internal/config"
	"whitecarrot/internal/errors"

	"github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRejectionEmail(t *testing.T) {
	msg := RejectionEmail(Recipient{Name: "John Doe", Email: "john@example.com"}, "Backend Developer", "too few skills")

	assert.Equal(t, KindRejection, msg.Kind)
	assert.Equal(t, "john@example.com", msg.To)
	assert.Equal(t, "Application Update - Backend Developer", msg.Subject)
	assert.Equal(t, "Dear John Doe,\n\n"+
		"Thank you for applying for the Backend Developer position. After careful review by our AI screening system, "+
		"we regret to inform you that we will not be moving forward with your application at this time.\n\n"+
		"Reason: too few skills\n\n"+
		"We encourage you to apply for other positions that may be a better match for your skills and experience.\n\n"+
		"Best regards,\nThe Hiring Team", msg.Body)
}

func TestDisqualificationEmail(t *testing.T) {
	msg := DisqualificationEmail(Recipient{Name: "Ada", Email: "ada@example.com"}, "Two Sum", []Violation{
		{Timestamp: "t1", Message: "No face detected"},
		{Timestamp: "t2", Message: "Multiple faces detected"},
	})

	assert.Equal(t, "Test Disqualification - Two Sum", msg.Subject)
	assert.Contains(t, msg.Body, "VIOLATIONS DETECTED:\n- No face detected\n- Multiple faces detected\n")
	assert.Contains(t, msg.Body, "• t2: Multiple faces detected")
	assert.Contains(t, msg.Body, `"Two Sum"`)
	assert.Contains(t, msg.Body, "Automated Proctoring System")
}

func TestLogNotifier(t *testing.T) {
	n := NewLogNotifier("hiring@example.com", nil)
	require.NoError(t, n.Send(context.Background(), HackathonEmail(Recipient{Name: "A", Email: "a@x.io"}, "hack-1")))

	sent := n.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "hiring@example.com", sent[0].From)
	assert.Equal(t, KindHackathon, sent[0].Kind)
}

func TestNewTransports(t *testing.T) {
	n, err := New(config.NotifyConfig{Transport: TransportLog}, nil)
	require.NoError(t, err)
	assert.IsType(t, &LogNotifier{}, n)

	_, err = New(config.NotifyConfig{Transport: "smtp"}, nil)
	assert.Equal(t, errors.ErrorTypeConfig, errors.TypeOf(err))
}

type fakeChannel struct {
	fail      error
	exchange  string
	key       string
	published []amqp.Publishing
}

func (f *fakeChannel) Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	if f.fail != nil {
		return f.fail
	}
	f.exchange, f.key = exchange, key
	f.published = append(f.published, msg)
	return nil
}

func TestAMQPNotifierPublishesJSON(t *testing.T) {
	ch := &fakeChannel{}
	n := newAMQPNotifier(ch, config.NotifyConfig{
		Sender: "hiring@example.com",
		AMQP:   config.AMQPConfig{Exchange: "whitecarrot.notifications", RoutingKey: "email"},
	}, nil)

	require.NoError(t, n.Send(context.Background(), RejectionEmail(Recipient{Name: "J", Email: "j@x.io"}, "QA Engineer", "r")))

	require.Len(t, ch.published, 1)
	assert.Equal(t, "whitecarrot.notifications", ch.exchange)
	assert.Equal(t, "email.ai_rejection", ch.key)
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	var got Message
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &got))
	assert.Equal(t, "hiring@example.com", got.From)
	assert.Equal(t, "Application Update - QA Engineer", got.Subject)
}

func TestAMQPNotifierBreakerOpens(t *testing.T) {
	ch := &fakeChannel{fail: stderrors.New("connection reset")}
	n := newAMQPNotifier(ch, config.NotifyConfig{
		AMQP: config.AMQPConfig{Exchange: "x", RoutingKey: "email"},
		CircuitBreaker: config.CircuitBreakerConfig{
			Enabled: true, MaxRequests: 1, Interval: time.Minute, Timeout: time.Minute,
			MinRequests: 2, FailureThreshold: 0.5,
		},
	}, nil)

	for range 2 {
		err := n.Send(context.Background(), Message{Kind: KindHackathon})
		assert.Equal(t, errors.ErrorTypeNetwork, errors.TypeOf(err))
	}
	assert.Equal(t, "open", n.Stats()["state"])

	ch.fail = nil
	err := n.Send(context.Background(), Message{Kind: KindHackathon})
	require.Error(t, err, "open breaker rejects without publishing")
	assert.Empty(t, ch.published)
}
