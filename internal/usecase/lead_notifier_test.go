package usecase_test

import (
	"context"
	"testing"

	"nmo-web-backend/internal/domain"
	"nmo-web-backend/internal/usecase"
	"nmo-web-backend/pkg/email"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendProjectRequestEmail(data email.ProjectRequestEmailData) error {
	args := m.Called(data)
	return args.Error(0)
}

func TestEmailLeadNotifier(t *testing.T) {
	req := domain.SubmissionRequest{
		UserName:    "Ahmed Ali",
		Email:       "a@b.com",
		PhoneNumber: "0551234567",
		ProjectDesc: "Need a landing page for my startup",
	}

	t.Run("Forwards the stored request", func(t *testing.T) {
		mailer := new(MockMailer)
		mailer.On("SendProjectRequestEmail", mock.MatchedBy(func(d email.ProjectRequestEmailData) bool {
			return d.RequestID == "doc-1" && d.UserName == req.UserName && d.PhoneNumber == req.PhoneNumber
		})).Return(nil)

		require.NoError(t, usecase.NewEmailLeadNotifier(mailer).NotifyRequest(context.Background(), "doc-1", req))
		mailer.AssertExpectations(t)
	})

	t.Run("Skips cancelled contexts", func(t *testing.T) {
		mailer := new(MockMailer)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.ErrorIs(t, usecase.NewEmailLeadNotifier(mailer).NotifyRequest(ctx, "doc-1", req), context.Canceled)
		mailer.AssertNotCalled(t, "SendProjectRequestEmail", mock.Anything)
	})
}
