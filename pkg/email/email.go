package email

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"

	"nmo-web-backend/config"
)

// EmailService sends operator notifications via SMTP
type EmailService struct {
	host      string
	port      string
	username  string
	password  string
	fromEmail string
	toEmail   string
	send      func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// ProjectRequestEmailData holds the data for new project request emails
type ProjectRequestEmailData struct {
	RequestID   string
	UserName    string
	Email       string
	PhoneNumber string
	ProjectDesc string
	ReceivedAt  time.Time
}

// NewEmailService creates a new email service from the SMTP configuration
func NewEmailService(cfg *config.Config) *EmailService {
	from := cfg.SMTPFromEmail
	if from == "" {
		from = cfg.SMTPUsername
	}
	return &EmailService{
		host:      cfg.SMTPHost,
		port:      cfg.SMTPPort,
		username:  cfg.SMTPUsername,
		password:  cfg.SMTPPassword,
		fromEmail: from,
		toEmail:   cfg.ContactEmailTo,
		send:      smtp.SendMail,
	}
}

var projectRequestTemplate = template.Must(template.New("project_request").Parse(`<!DOCTYPE html>
<html dir="rtl" lang="ar">
<head>
    <meta charset="UTF-8">
    <title>طلب مشروع جديد</title>
</head>
<body style="font-family: Tahoma, Arial, sans-serif; line-height: 1.6; color: #333;">
    <h2>طلب مشروع جديد</h2>
    <p><strong>رقم الطلب:</strong> {{.RequestID}}</p>
    <p><strong>الاسم:</strong> {{.UserName}}</p>
    <p><strong>البريد الإلكتروني:</strong> {{.Email}}</p>
    <p><strong>رقم الجوال:</strong> {{.PhoneNumber}}</p>
    <p><strong>وصف المشروع:</strong></p>
    <blockquote style="border-right: 4px solid #0a7; padding: 8px 12px; background: #f7f7f7;">{{.ProjectDesc}}</blockquote>
    <p style="color: #888; font-size: 12px;">{{.ReceivedAt.Format "2006-01-02 15:04 MST"}}</p>
</body>
</html>`))

// BuildProjectRequestMessage renders the full MIME message
func (s *EmailService) BuildProjectRequestMessage(data ProjectRequestEmailData) ([]byte, error) {
	var body bytes.Buffer
	if err := projectRequestTemplate.Execute(&body, data); err != nil {
		return nil, fmt.Errorf("failed to execute email template: %w", err)
	}

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Reply-To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s",
		s.fromEmail,
		s.toEmail,
		headerValue(data.Email),
		headerValue(fmt.Sprintf("New project request from %s", data.UserName)),
		body.String(),
	))
	return msg, nil
}

// SendProjectRequestEmail sends a new project request to the configured recipient
func (s *EmailService) SendProjectRequestEmail(data ProjectRequestEmailData) error {
	if !s.IsConfigured() {
		return fmt.Errorf("email service is not configured")
	}

	msg, err := s.BuildProjectRequestMessage(data)
	if err != nil {
		return err
	}

	auth := smtp.PlainAuth("", s.username, s.password, s.host)
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	if err := s.send(addr, auth, s.fromEmail, []string{s.toEmail}, msg); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// IsConfigured checks if the email service has valid SMTP configuration
func (s *EmailService) IsConfigured() bool {
	return s.host != "" && s.username != "" && s.password != "" && s.toEmail != ""
}

// headerValue drops line breaks so form input cannot inject headers
func headerValue(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}
