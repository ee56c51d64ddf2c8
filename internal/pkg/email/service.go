// internal/pkg/email/service.go
package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"

	"github.com/MuhammadAwais984/storefront/internal/config"
	"github.com/sirupsen/logrus"
)

// Sender delivers a rendered email
type Sender interface {
	Send(ctx context.Context, email *Email) error
}

// EmailService renders templates and hands messages to the configured sender
type EmailService struct {
	config    *config.Config
	sender    Sender
	templates map[string]*template.Template
	log       logrus.FieldLogger
}

// NewEmailService creates a new email service for cfg.Email.Provider
func NewEmailService(cfg *config.Config, log logrus.FieldLogger) (*EmailService, error) {
	log = log.WithField("component", "email")

	var sender Sender
	switch cfg.Email.Provider {
	case "", "log":
		sender = &LogSender{log: log}
	case "smtp":
		sender = NewSMTPSender(cfg.Email)
	default:
		return nil, fmt.Errorf("unsupported email provider: %s", cfg.Email.Provider)
	}

	return NewEmailServiceWithSender(cfg, sender, log)
}

// NewEmailServiceWithSender builds the service around an explicit sender
func NewEmailServiceWithSender(cfg *config.Config, sender Sender, log logrus.FieldLogger) (*EmailService, error) {
	templates, err := parseTemplates()
	if err != nil {
		return nil, err
	}
	return &EmailService{
		config:    cfg,
		sender:    sender,
		templates: templates,
		log:       log,
	}, nil
}

// SendEmail sends an email using the configured provider
func (s *EmailService) SendEmail(ctx context.Context, email *Email) error {
	if len(email.To) == 0 {
		return fmt.Errorf("email has no recipients")
	}
	if err := s.sender.Send(ctx, email); err != nil {
		return fmt.Errorf("failed to send %s email: %w", email.Type, err)
	}
	return nil
}

// SendOrderConfirmationEmail sends order confirmation email
func (s *EmailService) SendOrderConfirmationEmail(ctx context.Context, data OrderConfirmationData) error {
	data.EmailTemplateData = s.base(data.UserName, data.UserEmail)

	htmlContent, err := s.renderTemplate("order_confirmation", data)
	if err != nil {
		return fmt.Errorf("failed to render order confirmation template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{data.UserEmail},
		Subject:     fmt.Sprintf("Order Confirmation - %s", data.OrderNumber),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderConfirmation,
	})
}

// SendOrderStatusUpdateEmail sends order status update email
func (s *EmailService) SendOrderStatusUpdateEmail(ctx context.Context, data OrderStatusUpdateData) error {
	data.EmailTemplateData = s.base(data.UserName, data.UserEmail)

	htmlContent, err := s.renderTemplate("order_status_update", data)
	if err != nil {
		return fmt.Errorf("failed to render order status update template: %w", err)
	}

	return s.SendEmail(ctx, &Email{
		To:          []string{data.UserEmail},
		Subject:     fmt.Sprintf("Order %s is now %s", data.OrderNumber, data.Status),
		HTMLContent: htmlContent,
		Type:        EmailTypeOrderStatusUpdate,
	})
}

func (s *EmailService) base(userName, userEmail string) EmailTemplateData {
	return GetBaseTemplateData(s.config.Email.FromName, s.config.Email.SiteURL, userName, userEmail)
}

// renderTemplate renders an email template with data
func (s *EmailService) renderTemplate(templateName string, data interface{}) (string, error) {
	tmpl, exists := s.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}
	return buf.String(), nil
}

// LogSender writes emails to the log instead of delivering them
type LogSender struct {
	log logrus.FieldLogger
}

// NewLogSender creates a sender for development environments
func NewLogSender(log logrus.FieldLogger) *LogSender {
	return &LogSender{log: log}
}

func (l *LogSender) Send(_ context.Context, email *Email) error {
	l.log.WithFields(logrus.Fields{
		"to":      email.To,
		"subject": email.Subject,
		"type":    email.Type,
		"bytes":   len(email.HTMLContent),
	}).Info("email not delivered (log provider)")
	return nil
}
