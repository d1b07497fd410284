package v1

import (
	"sync"

	"nmo-web-backend/internal/domain"
)

// httpPresenter records what the workflow renders so the handler can turn
// it into a single JSON response
type httpPresenter struct {
	mu            sync.Mutex
	fieldErrors   domain.ValidationResult
	phone         string
	loadingShown  int
	loadingHidden int
	formReset     bool
	successID     string
	errorMessage  string
	dialogs       int
}

var _ domain.Presenter = (*httpPresenter)(nil)

func (p *httpPresenter) MarkFieldErrors(result domain.ValidationResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fieldErrors = result
}

func (p *httpPresenter) UpdatePhone(normalized string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.phone = normalized
}

func (p *httpPresenter) ShowLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadingShown++
}

func (p *httpPresenter) HideLoading() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadingHidden++
}

func (p *httpPresenter) ResetForm() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.formReset = true
}

func (p *httpPresenter) ShowSuccess(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.successID = id
	p.dialogs++
}

func (p *httpPresenter) ShowError(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errorMessage = message
	p.dialogs++
}
