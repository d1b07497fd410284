package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"nmo-web-backend/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testService() *EmailService {
	return NewEmailService(&config.Config{
		SMTPHost:       "smtp.example.com",
		SMTPPort:       "587",
		SMTPUsername:   "bot@example.com",
		SMTPPassword:   "secret",
		ContactEmailTo: "sales@example.com",
	})
}

func testData() ProjectRequestEmailData {
	return ProjectRequestEmailData{
		RequestID:   "doc-1",
		UserName:    "Ahmed Ali",
		Email:       "a@b.com",
		PhoneNumber: "0551234567",
		ProjectDesc: "Need a landing page for my startup",
		ReceivedAt:  time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestBuildProjectRequestMessage(t *testing.T) {
	s := testService()

	t.Run("Renders headers and body", func(t *testing.T) {
		msg, err := s.BuildProjectRequestMessage(testData())
		require.NoError(t, err)

		text := string(msg)
		assert.Contains(t, text, "From: bot@example.com\r\n")
		assert.Contains(t, text, "To: sales@example.com\r\n")
		assert.Contains(t, text, "Reply-To: a@b.com\r\n")
		assert.Contains(t, text, "Subject: New project request from Ahmed Ali\r\n")
		assert.Contains(t, text, "doc-1")
		assert.Contains(t, text, "2024-05-01 10:30 UTC")
	})

	t.Run("Strips line breaks from header values", func(t *testing.T) {
		data := testData()
		data.UserName = "Eve\r\nBcc: victim@example.com"
		data.Email = "x@y.com\nCc: victim@example.com"

		msg, err := s.BuildProjectRequestMessage(data)
		require.NoError(t, err)

		headers := strings.SplitN(string(msg), "\r\n\r\n", 2)[0]
		assert.NotContains(t, headers, "\r\nBcc:")
		assert.NotContains(t, headers, "\r\nCc:")
	})

	t.Run("Escapes HTML from the form", func(t *testing.T) {
		data := testData()
		data.ProjectDesc = "<script>alert(1)</script>"

		msg, err := s.BuildProjectRequestMessage(data)
		require.NoError(t, err)
		assert.NotContains(t, string(msg), "<script>")
	})
}

func TestSendProjectRequestEmail(t *testing.T) {
	t.Run("Sends to the configured recipient", func(t *testing.T) {
		s := testService()
		var gotAddr, gotFrom string
		var gotTo []string
		s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
			gotAddr, gotFrom, gotTo = addr, from, to
			return nil
		}

		require.NoError(t, s.SendProjectRequestEmail(testData()))
		assert.Equal(t, "smtp.example.com:587", gotAddr)
		assert.Equal(t, "bot@example.com", gotFrom)
		assert.Equal(t, []string{"sales@example.com"}, gotTo)
	})

	t.Run("Wraps transport errors", func(t *testing.T) {
		s := testService()
		s.send = func(string, smtp.Auth, string, []string, []byte) error {
			return errors.New("connection reset")
		}

		err := s.SendProjectRequestEmail(testData())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
	})

	t.Run("Refuses when not configured", func(t *testing.T) {
		s := NewEmailService(&config.Config{SMTPHost: "smtp.example.com"})
		s.send = func(string, smtp.Auth, string, []string, []byte) error {
			t.Fatal("send must not be called")
			return nil
		}

		assert.False(t, s.IsConfigured())
		assert.Error(t, s.SendProjectRequestEmail(testData()))
	})
}
