// Package notify delivers crisis alerts to emergency contacts over SMS and
// email. Delivery is best-effort: every attempt is reported in the result set
// and no failure propagates to the conversational flow.
package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/smtp"
	"net/url"
	"strings"
	"time"

	"mindwell/internal/config"
)

// Contacts are the emergency channels configured for a user. Empty fields
// disable the channel.
type Contacts struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

// Sent records one successful delivery.
type Sent struct {
	Type      string    `json:"type"`
	To        string    `json:"to"`
	Timestamp time.Time `json:"timestamp"`
}

// Failed records one failed delivery attempt.
type Failed struct {
	Type  string `json:"type"`
	To    string `json:"to"`
	Error string `json:"error"`
}

// Results is the per-channel outcome of one alert fan-out.
type Results struct {
	NotificationsSent   []Sent   `json:"notifications_sent"`
	NotificationsFailed []Failed `json:"notifications_failed"`
	TotalAttempted      int      `json:"total_attempted"`
	TotalSuccessful     int      `json:"total_successful"`
	Suppressed          bool     `json:"suppressed,omitempty"`
	Reason              string   `json:"reason,omitempty"`
}

// SMSSender sends one text message.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// EmailSender sends one email.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) error
}

// TwilioSender posts to the Twilio Messages REST endpoint.
type TwilioSender struct {
	accountSID string
	authToken  string
	from       string
	baseURL    string
	client     *http.Client
}

// NewTwilioSender builds the SMS channel from config. Returns nil when the
// credentials are absent, which disables SMS rather than failing startup.
func NewTwilioSender(cfg config.TwilioConfig) *TwilioSender {
	if cfg.AccountSID == "" || cfg.AuthToken == "" || cfg.FromNumber == "" {
		return nil
	}
	return &TwilioSender{
		accountSID: cfg.AccountSID,
		authToken:  cfg.AuthToken,
		from:       cfg.FromNumber,
		baseURL:    "https://api.twilio.com",
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

func (t *TwilioSender) SendSMS(ctx context.Context, to, body string) error {
	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", t.baseURL, t.accountSID)
	form := url.Values{}
	form.Set("To", to)
	form.Set("From", t.from)
	form.Set("Body", body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("build twilio request: %w", err)
	}
	req.SetBasicAuth(t.accountSID, t.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("twilio request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("twilio status %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	return nil
}

// SMTPSender delivers over authenticated SMTP with STARTTLS.
type SMTPSender struct {
	host     string
	port     int
	address  string
	password string
}

// NewSMTPSender builds the email channel from config, nil when unconfigured.
func NewSMTPSender(cfg config.SMTPConfig) *SMTPSender {
	if cfg.Host == "" || cfg.Address == "" || cfg.Password == "" {
		return nil
	}
	port := cfg.Port
	if port == 0 {
		port = 587
	}
	return &SMTPSender{host: cfg.Host, port: port, address: cfg.Address, password: cfg.Password}
}

func (s *SMTPSender) SendEmail(_ context.Context, to, subject, body string) error {
	msg := strings.Join([]string{
		"From: " + s.address,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=UTF-8",
		"",
		body,
	}, "\r\n")

	auth := smtp.PlainAuth("", s.address, s.password, s.host)
	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := smtp.SendMail(addr, auth, s.address, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}
