package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	config "github.com/phillip/community-platform-go/config"
)

// Mailer delivers transactional HTML email.
type Mailer interface {
	Send(ctx context.Context, to, name, subject, body string) error
}

// email request payload for ZeptoMail API
type emailRequest struct {
	From     emailAddress  `json:"from"`
	To       []toRecipient `json:"to"`
	Subject  string        `json:"subject"`
	HtmlBody string        `json:"htmlbody"`
}

type emailAddress struct {
	Address string `json:"address"`
}

type toRecipient struct {
	Email emailWithName `json:"email_address"`
}

type emailWithName struct {
	Address string `json:"address"`
	Name    string `json:"name"`
}

// ZeptoMailer sends through the ZeptoMail HTTP API behind a circuit breaker
// so an outage does not stall registrations.
type ZeptoMailer struct {
	cfg    config.MailConfig
	client *http.Client
	cb     *gobreaker.CircuitBreaker
	log    *zap.Logger
}

// NewMailer returns a ZeptoMailer when mail is configured, else a mailer
// that drops messages.
func NewMailer(cfg config.MailConfig, log *zap.Logger) Mailer {
	if !cfg.Enabled() {
		return NopMailer{}
	}
	return &ZeptoMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: 15 * time.Second},
		cb:     newBreaker("zeptomail", log),
		log:    log,
	}
}

func newBreaker(name string, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 2
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

func (m *ZeptoMailer) Send(ctx context.Context, to, name, subject, body string) error {
	payload := emailRequest{
		From: emailAddress{Address: m.cfg.From},
		To: []toRecipient{
			{Email: emailWithName{Address: to, Name: name}},
		},
		Subject:  subject,
		HtmlBody: body,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal email payload: %w", err)
	}

	_, err = m.cb.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.APIURL, bytes.NewReader(jsonData))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set("Authorization", m.cfg.APIKey)

		resp, err := m.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("zeptomail API error: %s", resp.Status)
		}
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}

	m.log.Info("email sent", zap.String("to", to), zap.String("subject", subject))
	return nil
}

type NopMailer struct{}

func (NopMailer) Send(context.Context, string, string, string, string) error { return nil }

// WelcomeEmail builds the message sent after registration.
func WelcomeEmail(username string) (subject, body string) {
	subject = "Welcome to the community"
	body = fmt.Sprintf(
		"<p>Hi %s,</p><p>Your account is ready. Say hello in the newcomers forum, "+
			"find local businesses and resources, and RSVP to upcoming events.</p>",
		html.EscapeString(username),
	)
	return subject, body
}

// SendAsync delivers in the background and only logs failures.
func SendAsync(m Mailer, log *zap.Logger, to, name, subject, body string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := m.Send(ctx, to, name, subject, body); err != nil {
			log.Warn("email delivery failed", zap.String("to", to), zap.Error(err))
		}
	}()
}
