package domain

import (
	"context"
	"sort"
	"strings"
)

// RecordKindRequest is the store collection that receives project requests
const RecordKindRequest = "requests"

// FormFields holds the raw values of the project request form
type FormFields struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Phone       string `json:"phone"`
	Description string `json:"description"`
}

// SubmissionRequest is the payload persisted for one submission attempt.
// Build it with NewSubmissionRequest; it is not modified afterwards.
type SubmissionRequest struct {
	UserName    string `json:"userName"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phoneNumber"`
	ProjectDesc string `json:"projectDesc"`
}

// NewSubmissionRequest builds the payload from (already validated) form values
func NewSubmissionRequest(f FormFields) SubmissionRequest {
	return SubmissionRequest{
		UserName:    strings.TrimSpace(f.Name),
		Email:       strings.TrimSpace(f.Email),
		PhoneNumber: strings.TrimSpace(f.Phone),
		ProjectDesc: strings.TrimSpace(f.Description),
	}
}

// Fields returns the document fields written to the store
func (r SubmissionRequest) Fields() map[string]any {
	return map[string]any{
		"userName":    r.UserName,
		"email":       r.Email,
		"phoneNumber": r.PhoneNumber,
		"projectDesc": r.ProjectDesc,
	}
}

// Field identifies one validated form field
type Field string

const (
	FieldName        Field = "name"
	FieldDescription Field = "description"
	FieldPhone       Field = "phone"
	FieldEmail       Field = "email"
)

// ValidationResult is the set of fields that failed validation
type ValidationResult map[Field]struct{}

func (v ValidationResult) Add(f Field) {
	v[f] = struct{}{}
}

func (v ValidationResult) Has(f Field) bool {
	_, ok := v[f]
	return ok
}

func (v ValidationResult) Valid() bool {
	return len(v) == 0
}

// Fields returns the failing fields in a stable order
func (v ValidationResult) Fields() []Field {
	out := make([]Field, 0, len(v))
	for f := range v {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Presenter renders the visible side of a submission attempt.
// The workflow calls ShowLoading and HideLoading at most once each per attempt,
// and ShowSuccess/ShowError at most once in total.
type Presenter interface {
	MarkFieldErrors(result ValidationResult)
	UpdatePhone(normalized string)
	ShowLoading()
	HideLoading()
	ResetForm()
	ShowSuccess(id string)
	ShowError(message string)
}

// SubmissionUsecase defines the project request workflow
type SubmissionUsecase interface {
	// Validate checks the form and surfaces errors through the presenter
	Validate(fields FormFields, p Presenter) (ValidationResult, FormFields)
	// Submit persists an already validated request
	Submit(ctx context.Context, req SubmissionRequest) SubmissionOutcome
	// HandleSubmit runs one full validate, submit and render cycle
	HandleSubmit(ctx context.Context, fields FormFields, p Presenter) AttemptResult
}
