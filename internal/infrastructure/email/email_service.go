package email

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/sirupsen/logrus"

	config "github.com/Akiyuki89/my-best-ddd-architecture/configs"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/domain/apperr"
	"github.com/Akiyuki89/my-best-ddd-architecture/internal/core/ports"
)

const (
	verificationTemplate  = "verification.html"
	passwordResetTemplate = "password_reset.html"

	verificationSubject  = "Email Verification"
	passwordResetSubject = "Password Reset"
)

//go:embed templates/*.html
var templateFS embed.FS

// MailClient is the part of the SendGrid client the sender uses.
type MailClient interface {
	SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error)
}

// SendGridSender implements ports.NotificationSender over SendGrid.
type SendGridSender struct {
	fromEmail string
	fromName  string
	client    MailClient
	templates *template.Template
	logger    *logrus.Logger
}

var _ ports.NotificationSender = (*SendGridSender)(nil)

// NewSendGridSender creates a sender backed by the SendGrid API.
func NewSendGridSender(cfg *config.EmailConfig, logger *logrus.Logger) (*SendGridSender, error) {
	return NewSender(cfg, sendgrid.NewSendClient(cfg.SendGridAPIKey), logger)
}

// NewSender creates a sender using client for delivery.
func NewSender(cfg *config.EmailConfig, client MailClient, logger *logrus.Logger) (*SendGridSender, error) {
	templates, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to load email templates: %w", err)
	}

	return &SendGridSender{
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		client:    client,
		templates: templates,
		logger:    logger,
	}, nil
}

type verificationData struct {
	AppName string
	Code    string
	Year    int
}

type passwordResetData struct {
	AppName  string
	ResetURL string
	Year     int
}

func (s *SendGridSender) SendVerificationEmail(ctx context.Context, to, code string) error {
	body, err := s.render(verificationTemplate, verificationData{AppName: s.fromName, Code: code, Year: time.Now().Year()})
	if err != nil {
		return err
	}
	return s.send(ctx, to, verificationSubject, body)
}

func (s *SendGridSender) SendPasswordResetEmail(ctx context.Context, to, resetURL string) error {
	body, err := s.render(passwordResetTemplate, passwordResetData{AppName: s.fromName, ResetURL: resetURL, Year: time.Now().Year()})
	if err != nil {
		return err
	}
	return s.send(ctx, to, passwordResetSubject, body)
}

func (s *SendGridSender) render(name string, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", apperr.Internal(fmt.Sprintf("failed to render template %s", name), err)
	}
	return buf.String(), nil
}

func (s *SendGridSender) send(ctx context.Context, to, subject, htmlContent string) error {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	recipient := mail.NewEmail("", to)
	message := mail.NewSingleEmail(from, subject, recipient, "", htmlContent)

	fields := logrus.Fields{"to": to, "subject": subject}

	response, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		if s.logger != nil {
			s.logger.WithFields(fields).WithError(err).Error("failed to send email")
		}
		return apperr.DeliveryFailure("failed to send email", err)
	}
	if response.StatusCode >= 300 {
		if s.logger != nil {
			fields["status_code"] = response.StatusCode
			s.logger.WithFields(fields).Error("email provider rejected message")
		}
		return apperr.DeliveryFailure(fmt.Sprintf("email provider returned status %d", response.StatusCode), nil)
	}

	if s.logger != nil {
		fields["status_code"] = response.StatusCode
		s.logger.WithFields(fields).Info("email sent")
	}
	return nil
}
