package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/anonto42/memomap/backend/internal/middleware"
	"github.com/anonto42/memomap/backend/internal/push"
	"github.com/anonto42/memomap/backend/internal/repositories"
	"github.com/anonto42/memomap/backend/internal/router"
	"github.com/anonto42/memomap/backend/internal/storage"
	"github.com/anonto42/memomap/backend/pkg/config"
	"github.com/anonto42/memomap/backend/pkg/firebase"
	"github.com/anonto42/memomap/backend/pkg/logger"
	"github.com/anonto42/memomap/backend/pkg/metrics"
	"github.com/anonto42/memomap/backend/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	// Initialize database connections
	db, err := config.InitDB(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize databases")
	}
	defer db.CloseDB()

	if err := repositories.AutoMigrate(db.Postgres); err != nil {
		log.WithError(err).Fatal("Failed to auto migrate models")
	}
	log.Info("PostgreSQL auto-migrations completed.")

	ctx := context.Background()
	var mongoDB *mongo.Database
	if db.Mongo != nil {
		mongoDB = db.Mongo.Database(cfg.MongoDatabase)
		if err := repositories.NewMongoGeocodeCacheRepository(mongoDB).EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("Failed to create geocode cache indexes")
		}
	}

	// Initialize Firebase. Without credentials avatars live in memory and
	// only the API's own tokens are accepted.
	var (
		verifier middleware.TokenVerifier
		store    storage.ObjectStore = storage.NewMemoryStore()
	)
	if cfg.FirebaseCredentialsPath != "" {
		app, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.GCPProjectID, cfg.AvatarBucket)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Firebase")
		}
		verifier = app.AuthClient
		bucket, err := app.StorageClient.Bucket(cfg.AvatarBucket)
		if err != nil {
			log.WithError(err).Fatal("Failed to open avatar bucket")
		}
		store = storage.NewGCSStore(bucket, cfg.GCPProjectID)
	} else {
		log.Warn("FIREBASE_CREDENTIALS_PATH not set, using in-memory avatar storage")
	}
	if err := storage.EnsureBucket(ctx, store, log); err != nil {
		log.WithError(err).Fatal("Failed to prepare avatar bucket")
	}

	vapid := push.VAPID{PublicKey: cfg.VAPIDPublicKey, PrivateKey: cfg.VAPIDPrivateKey, Subject: cfg.VAPIDSubject}
	if !vapid.Configured() {
		if cfg.IsProduction() {
			log.Fatal("VAPID_PUBLIC_KEY and VAPID_PRIVATE_KEY are required in production")
		}
		vapid, err = push.GenerateVAPID(cfg.VAPIDSubject)
		if err != nil {
			log.WithError(err).Fatal("Failed to generate VAPID keys")
		}
		log.Warn("Using generated VAPID keys, push subscriptions will not survive a restart")
	}

	m := metrics.New()
	go serveMetrics(cfg.MetricsPort, m, log)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.Validator = validators.NewValidator()
	config.SetupMiddleware(e, log, m)

	svc := router.SetupRoutes(e, router.Deps{
		Config:   cfg,
		Postgres: db.Postgres,
		Mongo:    mongoDB,
		Firebase: verifier,
		Store:    store,
		Push:     push.NewWebPushSender(vapid),
		VAPIDKey: vapid.PublicKey,
		Logger:   log,
		Metrics:  m,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server stopped unexpectedly")
		}
	}()
	log.WithField("port", cfg.Port).Info("Server started")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server shutdown failed")
	}
	svc.Notifications.Shutdown()
	log.Info("Server exited")
}

func serveMetrics(port string, m *metrics.Metrics, log *logrus.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	log.WithField("port", port).Info("Metrics server started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Metrics server stopped")
	}
}
