// internal/services/notification_service_test.go
package services

import (
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/biologist/catalog-backend/internal/models"
)

func TestSendEnquiryNotification(t *testing.T) {
	cfg := testConfig(t)
	cfg.Email.SMTPHost = "smtp.example.com"
	cfg.Email.SMTPPort = "587"

	var gotAddr string
	var gotTo []string
	var gotMsg string
	service := NewNotificationService(cfg)
	service.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		return nil
	}

	err := service.SendEnquiryNotification(
		&models.Enquiry{Name: "Ada", Email: "ada@example.com", Message: "Need <5> kits"},
		&models.Product{Name: "Kit A"},
		&models.ProductVariant{CatalogNumber: "A-1", Quantity: "10", Unit: "ml"},
	)
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"sales@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "Subject: New enquiry: Kit A (A-1)")
	assert.Contains(t, gotMsg, "A-1 (10 ml)")
	assert.Contains(t, gotMsg, "Need &lt;5&gt; kits")
}

func TestSendEnquiryNotificationWithoutSMTP(t *testing.T) {
	service := NewNotificationService(testConfig(t))
	service.send = func(string, smtp.Auth, string, []string, []byte) error {
		t.Fatal("send must not be called without SMTP host")
		return nil
	}

	err := service.SendEnquiryNotification(&models.Enquiry{}, &models.Product{}, &models.ProductVariant{})
	assert.NoError(t, err)
}
