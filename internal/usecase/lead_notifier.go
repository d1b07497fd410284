package usecase

import (
	"context"
	"time"

	"nmo-web-backend/internal/domain"
	"nmo-web-backend/pkg/email"
)

// ProjectRequestMailer is the part of the email service the notifier needs
type ProjectRequestMailer interface {
	SendProjectRequestEmail(data email.ProjectRequestEmailData) error
}

type emailLeadNotifier struct {
	mailer ProjectRequestMailer
	now    func() time.Time
}

// NewEmailLeadNotifier forwards stored requests to the operators' inbox
func NewEmailLeadNotifier(mailer ProjectRequestMailer) LeadNotifier {
	return &emailLeadNotifier{mailer: mailer, now: time.Now}
}

func (n *emailLeadNotifier) NotifyRequest(ctx context.Context, id string, req domain.SubmissionRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return n.mailer.SendProjectRequestEmail(email.ProjectRequestEmailData{
		RequestID:   id,
		UserName:    req.UserName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		ProjectDesc: req.ProjectDesc,
		ReceivedAt:  n.now(),
	})
}
