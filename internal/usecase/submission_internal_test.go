package usecase

import (
	"testing"
	"time"

	"nmo-web-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSubmissionUsecaseAppliesDefaults(t *testing.T) {
	uc, ok := NewSubmissionUsecase(nil, nil, SubmissionOptions{}).(*submissionUsecase)
	require.True(t, ok)

	assert.Equal(t, domain.RecordKindRequest, uc.opts.RecordKind)
	assert.Equal(t, 5*time.Second, uc.opts.SubmitTimeout)
	assert.Equal(t, 1500*time.Millisecond, uc.opts.FallbackLatency)
	assert.NotNil(t, uc.opts.Now)
	assert.NotNil(t, uc.validate)
}

func TestNewSubmissionUsecaseKeepsOverrides(t *testing.T) {
	uc := NewSubmissionUsecase(nil, nil, SubmissionOptions{
		RecordKind:      "leads",
		SubmitTimeout:   time.Second,
		FallbackLatency: 20 * time.Millisecond,
	}).(*submissionUsecase)

	assert.Equal(t, "leads", uc.opts.RecordKind)
	assert.Equal(t, time.Second, uc.opts.SubmitTimeout)
	assert.Equal(t, 20*time.Millisecond, uc.opts.FallbackLatency)
}
