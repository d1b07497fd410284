package usecase

import (
	"context"

	"nmo-web-backend/internal/domain"
	"nmo-web-backend/pkg/redis"
)

type HealthUsecase interface {
	Check(ctx context.Context) map[string]string
}

type healthUsecase struct {
	connector domain.StoreConnector
}

func NewHealthUsecase(connector domain.StoreConnector) HealthUsecase {
	return &healthUsecase{connector: connector}
}

// Check reports readiness without forcing store initialization. The site
// stays operational in fallback mode, so status is always "ok".
func (u *healthUsecase) Check(ctx context.Context) map[string]string {
	rateLimit := "memory"
	if redis.HealthCheck(ctx) == nil {
		rateLimit = "redis"
	}
	return map[string]string{
		"status":     "ok",
		"store":      u.connector.State().String(),
		"rate_limit": rateLimit,
	}
}
