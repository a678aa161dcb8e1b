// Package mail delivers QR code emails through the Mailjet v3.1 send API.
package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fossuok/qr-event-backend/config"
)

const mailjetSendURL = "https://api.mailjet.com/v3.1/send"

// Mailer sends transactional email via Mailjet.
type Mailer struct {
	cfg    config.MailjetConfig
	http   *http.Client
	logger *zap.Logger
}

// NewMailer creates a Mailjet mailer with a bounded request timeout.
func NewMailer(cfg config.MailjetConfig, logger *zap.Logger) *Mailer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Mailer{
		cfg:    cfg,
		http:   &http.Client{Timeout: 15 * time.Second},
		logger: logger,
	}
}

// Configured reports whether Mailjet credentials are present.
func (m *Mailer) Configured() bool {
	return m.cfg.APIKey != "" && m.cfg.APISecret != ""
}

type mailjetMessage struct {
	From     mailjetAddress   `json:"From"`
	To       []mailjetAddress `json:"To"`
	Subject  string           `json:"Subject"`
	HTMLPart string           `json:"HTMLPart"`
}

type mailjetAddress struct {
	Email string `json:"Email"`
	Name  string `json:"Name,omitempty"`
}

// SendQRCode emails the rendered QR code to a newly registered user.
// Missing credentials log-and-skip so registration never depends on mail
// being configured.
func (m *Mailer) SendQRCode(ctx context.Context, email, name, qrDataURL string) error {
	if !m.Configured() {
		m.logger.Warn("mailjet credentials missing, skipping email", zap.String("recipient", email))
		return nil
	}

	body := struct {
		Messages []mailjetMessage `json:"Messages"`
	}{
		Messages: []mailjetMessage{{
			From:    mailjetAddress{Email: m.cfg.SenderEmail, Name: m.cfg.SenderName},
			To:      []mailjetAddress{{Email: email, Name: name}},
			Subject: fmt.Sprintf("Your QR Code for %s", m.cfg.SenderName),
			HTMLPart: fmt.Sprintf(
				"<h3>Hi %s,</h3><p>Thank you for registering! Here is your QR code:</p><img src='%s' alt='QR Code' /><p>Show this at the entrance.</p>",
				name, qrDataURL),
		}},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, mailjetSendURL, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(m.cfg.APIKey, m.cfg.APISecret)

	resp, err := m.http.Do(req)
	if err != nil {
		return fmt.Errorf("mailjet send: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("mailjet send status: %d", resp.StatusCode)
	}

	m.logger.Info("qr email sent", zap.String("recipient", email))
	return nil
}
