package connector

import (
	"context"
	"errors"
)

// Unconfigured is a driver that never connects. It keeps the site in
// fallback mode when no store backend is configured.
type Unconfigured struct {
	Reason string
}

func (u Unconfigured) Name() string {
	return "unconfigured"
}

func (u Unconfigured) Connect(ctx context.Context) (Handle, error) {
	if u.Reason == "" {
		return nil, errors.New("no store backend configured")
	}
	return nil, errors.New(u.Reason)
}
