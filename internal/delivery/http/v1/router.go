package v1

import (
	"net/http"
	"time"

	"nmo-web-backend/config"
	"nmo-web-backend/internal/delivery/http/middleware"
	"nmo-web-backend/internal/delivery/http/response"
	"nmo-web-backend/internal/domain"
	"nmo-web-backend/internal/usecase"
	"nmo-web-backend/pkg/security"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	SubmissionUC domain.SubmissionUsecase
	HealthUC     usecase.HealthUsecase
	Config       *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	window := time.Duration(deps.Config.RateLimitWindowSeconds) * time.Second

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.Origins())) // CORS must be first
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimitMiddleware(middleware.GlobalRateLimitConfig(deps.Config.RateLimitGlobalThreshold, window)))

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational", deps.HealthUC.Check(c.Request.Context()))
	})

	// Public routes
	submitLimiter := middleware.RateLimitMiddleware(middleware.SubmitRateLimitConfig(deps.Config.RateLimitSubmitThreshold, window))
	tracker := security.NewValidationTracker(security.ValidationTrackerConfig{
		LogLimit: deps.Config.ValidationFailureLogLimit,
		Window:   window,
	}, nil)
	NewSubmissionHandler(v1, deps.SubmissionUC, tracker, submitLimiter)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
