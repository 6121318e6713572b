// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/biologist/catalog-backend/internal/config"
	"github.com/biologist/catalog-backend/internal/models"
)

type NotificationService struct {
	config *config.Config
	send   func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(config *config.Config) *NotificationService {
	return &NotificationService{
		config: config,
		send:   smtp.SendMail,
	}
}

// SendEnquiryNotification tells staff about a new enquiry.
func (s *NotificationService) SendEnquiryNotification(enquiry *models.Enquiry, product *models.Product, variant *models.ProductVariant) error {
	to := s.config.Email.NotifyEmail
	if to == "" {
		to = s.config.Email.FromEmail
	}

	tmpl := s.getEmailTemplate("enquiry")
	data := map[string]interface{}{
		"Name":          enquiry.Name,
		"Email":         enquiry.Email,
		"Phone":         enquiry.Phone,
		"Message":       enquiry.Message,
		"ProductName":   product.Name,
		"CatalogNumber": variant.CatalogNumber,
		"Variant":       variant.DisplayLabel(),
		"SiteName":      s.config.Email.FromName,
	}

	subject := fmt.Sprintf(tmpl.Subject, product.Name, variant.CatalogNumber)
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(to, subject, body)
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{
			"to":      to,
			"subject": subject,
		}).Info("SMTP not configured, email not sent")
		return nil
	}

	// Setup authentication
	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	// Compose message
	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	// Send email
	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return s.send(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"enquiry": {
			Subject: "New enquiry: %s (%s)",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>New product enquiry</h2>
	<p><strong>Product:</strong> {{.ProductName}}</p>
	<p><strong>Catalog number:</strong> {{.CatalogNumber}} ({{.Variant}})</p>
	<p><strong>From:</strong> {{.Name}} &lt;{{.Email}}&gt;{{if .Phone}}, {{.Phone}}{{end}}</p>
	<p>{{.Message}}</p>
	<p>{{.SiteName}}</p>
</body>
</html>`,
		},
	}

	if template, exists := templates[templateType]; exists {
		return template
	}

	// Default template
	return EmailTemplate{
		Subject: "Notification: %s (%s)",
		Body:    `<html><body><p>{{.Message}}</p></body></html>`,
	}
}
