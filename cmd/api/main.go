package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nmo-web-backend/config"
	_ "nmo-web-backend/docs" // Important for Swagger
	"nmo-web-backend/internal/connector"
	v1 "nmo-web-backend/internal/delivery/http/v1"
	"nmo-web-backend/internal/infra/firestore"
	"nmo-web-backend/internal/repository/postgres"
	"nmo-web-backend/internal/usecase"
	"nmo-web-backend/pkg/email"
	"nmo-web-backend/pkg/logger"
	"nmo-web-backend/pkg/redis"
	"nmo-web-backend/pkg/security"
	"nmo-web-backend/pkg/validation"
)

// @title           Nmo Web Backend API
// @version         1.0
// @description     Project request intake for the Nmo marketing site.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Loggers
	logger.Init()
	logger.Log.Info("Starting nmo web backend", "port", cfg.Port, "store_backend", cfg.StoreBackend)
	secLogger := security.InitSecurityLogger("nmo-web-backend", os.Getenv("GIN_MODE"))
	defer secLogger.Sync()

	// 3. Setup Redis (rate limiting); in-memory fallback when unavailable
	if err := redis.Initialize(redis.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword}); err != nil {
		logger.Log.Warn("Redis unavailable - rate limiting uses in-memory fallback", "error", err)
	}
	defer redis.Close()

	// 4. Setup Store Connector; initialization runs in the background
	storeConn := connector.New(newStoreDriver(cfg), connector.Options{
		Collection:     cfg.StoreCollection,
		ConnectTimeout: cfg.StoreConnectTimeout,
	})
	storeConn.Start()
	defer storeConn.Close()

	// 5. Setup Email Service
	opts := usecase.SubmissionOptions{
		RecordKind:      cfg.StoreCollection,
		SubmitTimeout:   cfg.SubmitTimeout,
		FallbackLatency: cfg.FallbackLatency,
	}
	emailService := email.NewEmailService(cfg)
	if emailService.IsConfigured() {
		opts.Notifier = usecase.NewEmailLeadNotifier(emailService)
	} else {
		logger.Log.Warn("Email service not fully configured - operators will not be notified of new requests")
	}

	// 6. Setup UseCases
	submissionUC := usecase.NewSubmissionUsecase(storeConn, validation.New(), opts)
	healthUC := usecase.NewHealthUsecase(storeConn)

	// 7. Setup Router
	router := v1.NewRouter(v1.RouterDeps{
		SubmissionUC: submissionUC,
		HealthUC:     healthUC,
		Config:       cfg,
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Error("Listen failed", "error", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	// Leave room for an in-flight submission to hit its timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.SubmitTimeout+5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", "error", err)
	}

	logger.Log.Info("Server exiting")
}

func newStoreDriver(cfg *config.Config) connector.Driver {
	switch cfg.StoreBackend {
	case "firestore":
		return firestore.NewDriver(firestore.Config{
			ProjectID: cfg.FirestoreProjectID,
			APIKey:    cfg.FirestoreAPIKey,
			Database:  cfg.FirestoreDatabase,
			Endpoint:  cfg.FirestoreEndpoint,
		})
	case "postgres":
		return postgres.NewDriver(cfg.DBUrl)
	default:
		return connector.Unconfigured{Reason: "unknown store backend " + cfg.StoreBackend}
	}
}
