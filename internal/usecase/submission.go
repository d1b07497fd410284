package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nmo-web-backend/internal/domain"
	"nmo-web-backend/pkg/logger"
	"nmo-web-backend/pkg/validation"

	"github.com/go-playground/validator/v10"
)

// User-facing messages rendered in the error dialog
const (
	MsgSubmitTimedOut = "انتهت مهلة الإرسال. يرجى المحاولة مرة أخرى."
	MsgSubmitFailed   = "فشل في إرسال الطلب. يرجى المحاولة مرة أخرى."
	MsgUnexpected     = "حدث خطأ غير متوقع. يرجى المحاولة مرة أخرى."
)

const (
	DefaultSubmitTimeout   = 5 * time.Second
	DefaultFallbackLatency = 1500 * time.Millisecond
)

// LeadNotifier tells operators about a stored request
type LeadNotifier interface {
	NotifyRequest(ctx context.Context, id string, req domain.SubmissionRequest) error
}

// SubmissionOptions tune the workflow timings
type SubmissionOptions struct {
	// RecordKind is the store collection requests are written to.
	// It must match the collection the connector checks during initialization.
	RecordKind      string
	SubmitTimeout   time.Duration
	FallbackLatency time.Duration
	Now             func() time.Time
	Notifier        LeadNotifier
}

type submissionUsecase struct {
	connector domain.StoreConnector
	validate  *validator.Validate
	opts      SubmissionOptions
}

// NewSubmissionUsecase creates the project request workflow
func NewSubmissionUsecase(connector domain.StoreConnector, validate *validator.Validate, opts SubmissionOptions) domain.SubmissionUsecase {
	if validate == nil {
		validate = validation.New()
	}
	if opts.RecordKind == "" {
		opts.RecordKind = domain.RecordKindRequest
	}
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = DefaultSubmitTimeout
	}
	if opts.FallbackLatency <= 0 {
		opts.FallbackLatency = DefaultFallbackLatency
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &submissionUsecase{
		connector: connector,
		validate:  validate,
		opts:      opts,
	}
}

// Validate checks every field independently. The phone value is normalized
// to ASCII digits and written back through the presenter before matching.
// The returned fields carry the trimmed and normalized values.
func (uc *submissionUsecase) Validate(fields domain.FormFields, p domain.Presenter) (domain.ValidationResult, domain.FormFields) {
	normalized := domain.FormFields{
		Name:        validation.TrimInput(fields.Name),
		Email:       validation.TrimInput(fields.Email),
		Phone:       validation.NormalizeDigits(validation.TrimInput(fields.Phone)),
		Description: validation.TrimInput(fields.Description),
	}
	p.UpdatePhone(normalized.Phone)

	result := domain.ValidationResult{}
	err := uc.validate.Struct(validation.ProjectRequest{
		Name:        normalized.Name,
		Description: normalized.Description,
		Phone:       normalized.Phone,
		Email:       normalized.Email,
	})
	if err != nil {
		failed := validation.FailedFields(err)
		if failed == nil {
			// Not a field error (e.g. bad validator setup); reject everything
			logger.Log.Error("Form validation failed unexpectedly", "error", err)
			failed = []string{string(domain.FieldName), string(domain.FieldDescription), string(domain.FieldPhone), string(domain.FieldEmail)}
		}
		for _, f := range failed {
			result.Add(domain.Field(f))
		}
	}

	p.MarkFieldErrors(result)
	return result, normalized
}

// Submit writes the request through the connector, falling back to a
// simulated success when the store is unavailable or denies permission.
func (uc *submissionUsecase) Submit(ctx context.Context, req domain.SubmissionRequest) domain.SubmissionOutcome {
	state := uc.connector.Initialize(ctx)
	if state != domain.ConnectorReady {
		logger.Log.Info("Store not ready, using fallback simulation", "connector_state", state.String())
		return uc.simulate(ctx)
	}

	id, err := uc.connector.Write(ctx, uc.opts.RecordKind, req.Fields())
	if err != nil {
		switch {
		case domain.IsPermissionDenied(err):
			// Backend permission misconfiguration must not block the visitor.
			logger.Log.Warn("Store denied permission, using fallback simulation", "error", err)
			return uc.simulate(ctx)
		case errors.Is(err, domain.ErrConnectorUnavailable):
			logger.Log.Warn("Store not fully ready, using fallback simulation", "error", err)
			return uc.simulate(ctx)
		}
		logger.Log.Error("Failed to store project request", "error", err)
		return domain.Failed(err)
	}

	logger.Log.Info("Project request stored", "id", id)
	uc.notify(id, req)
	return domain.Succeeded(id)
}

func (uc *submissionUsecase) simulate(ctx context.Context) domain.SubmissionOutcome {
	timer := time.NewTimer(uc.opts.FallbackLatency)
	defer timer.Stop()

	select {
	case <-timer.C:
		return domain.SimulatedSuccess(fmt.Sprintf("simulated-%d", uc.opts.Now().UnixMilli()))
	case <-ctx.Done():
		return domain.Failed(ctx.Err())
	}
}

func (uc *submissionUsecase) notify(id string, req domain.SubmissionRequest) {
	if uc.opts.Notifier == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := uc.opts.Notifier.NotifyRequest(ctx, id, req); err != nil {
			logger.Log.Warn("Failed to notify operators", "id", id, "error", err)
		}
	}()
}

// HandleSubmit runs one submission attempt: validate, race the submit against
// the timeout, then render exactly one outcome. The loading indicator is
// always released exactly once.
func (uc *submissionUsecase) HandleSubmit(ctx context.Context, fields domain.FormFields, p domain.Presenter) domain.AttemptResult {
	a := newAttempt()

	a.transition(domain.StateValidating)
	result, normalized := uc.Validate(fields, p)
	if !result.Valid() {
		a.transition(domain.StateIdle)
		return domain.AttemptResult{State: domain.StateIdle, Validation: result}
	}
	req := domain.NewSubmissionRequest(normalized)

	a.transition(domain.StateSubmitting)
	p.ShowLoading()
	var hideOnce sync.Once
	defer hideOnce.Do(p.HideLoading)

	outcome, timedOut := uc.race(ctx, req)

	if outcome.Succeeded {
		a.transition(domain.StateSucceeded)
		p.ResetForm()
		p.ShowSuccess(outcome.ID)
	} else {
		a.transition(domain.StateFailed)
		p.ShowError(userMessage(outcome, timedOut))
	}
	hideOnce.Do(p.HideLoading)
	final := a.state
	a.transition(domain.StateIdle)

	return domain.AttemptResult{
		State:      final,
		Validation: result,
		Outcome:    &outcome,
		TimedOut:   timedOut,
	}
}

// race returns whichever comes first: the submit outcome or the timeout.
// The submit keeps running on a detached context after a timeout; its late
// outcome is only logged.
func (uc *submissionUsecase) race(ctx context.Context, req domain.SubmissionRequest) (domain.SubmissionOutcome, bool) {
	results := make(chan domain.SubmissionOutcome, 1)
	submitCtx := context.WithoutCancel(ctx)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				logger.Log.Error("Submit panicked", "panic", r)
				results <- domain.Failed(fmt.Errorf("%w: %v", domain.ErrUnexpected, r))
			}
		}()
		results <- uc.Submit(submitCtx, req)
	}()

	timer := time.NewTimer(uc.opts.SubmitTimeout)
	defer timer.Stop()

	select {
	case outcome := <-results:
		return outcome, false
	case <-timer.C:
		logger.Log.Warn("Form submission timeout", "timeout", uc.opts.SubmitTimeout)
		go discardLate(results)
		return domain.Failed(domain.ErrSubmissionTimedOut), true
	case <-ctx.Done():
		go discardLate(results)
		return domain.Failed(ctx.Err()), false
	}
}

func discardLate(results <-chan domain.SubmissionOutcome) {
	outcome := <-results
	logger.Log.Info("Late submission outcome discarded",
		"succeeded", outcome.Succeeded,
		"id", outcome.ID,
		"simulated", outcome.Simulated,
		"error", outcome.Message,
	)
}

func userMessage(outcome domain.SubmissionOutcome, timedOut bool) string {
	switch {
	case timedOut:
		return MsgSubmitTimedOut
	case errors.Is(outcome.Err, domain.ErrUnexpected):
		return MsgUnexpected
	default:
		return MsgSubmitFailed
	}
}

// attempt tracks the workflow state of one HandleSubmit call
type attempt struct {
	state domain.WorkflowState
}

func newAttempt() *attempt {
	return &attempt{state: domain.StateIdle}
}

func (a *attempt) transition(to domain.WorkflowState) {
	logger.Log.Debug("Submission state change", "from", a.state, "to", to)
	a.state = to
}
