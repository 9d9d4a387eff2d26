package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	"github.com/username/cardfolio/backend/src/config"
	"github.com/username/cardfolio/backend/src/logger"
)

func NewEmailService() EmailService {
	if config.Cfg == nil {
		slog.Error("Configuration (config.Cfg) is nil. Email service will default to mock.")
		return &MockEmailService{}
	}

	provider := strings.ToLower(config.Cfg.EmailServiceProvider)
	logger.L.Info("Initializing email service", "provider", provider)

	switch provider {
	case "mailgun":
		if config.Cfg.MailgunDomain == "" || config.Cfg.MailgunPrivateAPIKey == "" || config.Cfg.SenderEmail == "" {
			logger.L.Warn("Mailgun configuration incomplete (Domain, API Key, or SenderEmail missing). Falling back to MockEmailService.")
			return &MockEmailService{NotifyEmail: config.Cfg.ReviewNotifyEmail}
		}
		mg := mailgun.NewMailgun(config.Cfg.MailgunDomain, config.Cfg.MailgunPrivateAPIKey)
		logger.L.Info("Mailgun client initialized", "domain", config.Cfg.MailgunDomain)
		return &MailgunEmailService{
			mg:          mg,
			senderEmail: config.Cfg.SenderEmail,
			senderName:  config.Cfg.SenderName,
			notifyEmail: config.Cfg.ReviewNotifyEmail,
		}
	default:
		logger.L.Info("Defaulting to MockEmailService.")
		return &MockEmailService{NotifyEmail: config.Cfg.ReviewNotifyEmail}
	}
}

type MailgunEmailService struct {
	mg          mailgun.Mailgun
	senderEmail string
	senderName  string
	notifyEmail string
}

func (s *MailgunEmailService) SendManualReviewAlert(jobID, fileName, bankName string) error {
	if s.notifyEmail == "" {
		logger.L.Warn("Manual review alert skipped: no notification email configured", "jobId", jobID)
		return nil
	}
	from := fmt.Sprintf("%s <%s>", s.senderName, s.senderEmail)
	subject := "Statement import needs manual review"
	if bankName == "" {
		bankName = "unknown bank"
	}

	plainTextBody := fmt.Sprintf(`A statement import could not be processed automatically.

Job ID:   %s
File:     %s
Bank:     %s

The extraction confidence was below the automatic processing threshold.
Please review the uploaded statement and enter the items manually.`, jobID, fileName, bankName)

	message := s.mg.NewMessage(from, subject, plainTextBody, s.notifyEmail)
	message.AddTag("manual-review")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*20)
	defer cancel()
	resp, id, err := s.mg.Send(ctx, message)
	if err != nil {
		logger.L.Error("Failed to send manual review alert via Mailgun", "error", err, "jobId", jobID, "mailgunResp", resp, "mailgunId", id)
		return fmt.Errorf("mailgun send failed: %w. Response: %s", err, resp)
	}
	logger.L.Info("Manual review alert sent via Mailgun", "jobId", jobID, "id", id, "mailgunResp", resp)
	return nil
}

type MockEmailService struct {
	NotifyEmail string
}

func (m *MockEmailService) SendManualReviewAlert(jobID, fileName, bankName string) error {
	logger.L.Info("MockEmailService: Would send manual review alert.",
		"to", m.NotifyEmail, "jobId", jobID, "fileName", fileName, "bankName", bankName)
	return nil
}
