package router

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"github.com/anonto42/memomap/backend/internal/geocode"
	"github.com/anonto42/memomap/backend/internal/handlers"
	"github.com/anonto42/memomap/backend/internal/middleware"
	"github.com/anonto42/memomap/backend/internal/push"
	"github.com/anonto42/memomap/backend/internal/repositories"
	"github.com/anonto42/memomap/backend/internal/services"
	"github.com/anonto42/memomap/backend/internal/storage"
	"github.com/anonto42/memomap/backend/pkg/config"
	"github.com/anonto42/memomap/backend/pkg/metrics"
)

// Deps is everything the API needs from the outside world. Mongo, Firebase
// and Push are optional.
type Deps struct {
	Config   *config.Config
	Postgres *gorm.DB
	Mongo    *mongo.Database
	Firebase middleware.TokenVerifier
	Store    storage.ObjectStore
	Push     push.Sender
	VAPIDKey string
	Logger   *logrus.Logger
	Metrics  *metrics.Metrics

	// NotificationOptions are passed through to the notification service.
	NotificationOptions []services.NotificationOption
}

// Services is the wired service layer. It is shared by the HTTP API and the
// seed command.
type Services struct {
	Users         *services.UserService
	Groups        *services.GroupService
	Friends       *services.FriendService
	Follows       *services.FollowService
	Memos         *services.MemoService
	Comments      *services.CommentService
	Avatars       *services.AvatarService
	Notifications *services.NotificationService
	Geocoder      *geocode.Client
}

// NewServices builds the repositories and the services on top of them.
func NewServices(deps Deps) *Services {
	cfg := deps.Config
	db := deps.Postgres

	userRepo := repositories.NewPostgresUserRepository(db)
	groupRepo := repositories.NewPostgresGroupRepository(db)
	friendRepo := repositories.NewPostgresFriendRepository(db)
	followRepo := repositories.NewPostgresFollowRepository(db)
	memoRepo := repositories.NewPostgresMemoRepository(db)
	commentRepo := repositories.NewPostgresCommentRepository(db)
	notificationRepo := repositories.NewPostgresNotificationRepository(db)
	subscriptionRepo := repositories.NewPostgresSubscriptionRepository(db)

	notifications := services.NewNotificationService(
		notificationRepo, subscriptionRepo, deps.Push, deps.VAPIDKey,
		deps.Logger, deps.Metrics, deps.NotificationOptions...,
	)
	memos := services.NewMemoService(memoRepo, groupRepo, deps.Logger)

	var cache geocode.Cache
	if deps.Mongo != nil {
		cache = repositories.NewMongoGeocodeCacheRepository(deps.Mongo)
	}
	geocoder := geocode.NewClient(geocode.Config{
		BaseURL:  cfg.MapboxBaseURL,
		Token:    cfg.MapboxToken,
		RPS:      cfg.GeocodeRPS,
		CacheTTL: cfg.GeocodeCacheTTL,
	}, cache, deps.Logger, deps.Metrics)

	return &Services{
		Users: services.NewUserService(userRepo, deps.Logger),
		Groups: services.NewGroupService(groupRepo, userRepo, notifications, services.GroupLimits{
			OnCreate: cfg.GroupCapOnCreate,
			OnJoin:   cfg.GroupCapOnJoin,
		}, deps.Logger, deps.Metrics),
		Friends:       services.NewFriendService(friendRepo, userRepo, notifications, deps.Logger, deps.Metrics),
		Follows:       services.NewFollowService(followRepo, userRepo, notifications, deps.Logger, deps.Metrics),
		Memos:         memos,
		Comments:      services.NewCommentService(commentRepo, memos, userRepo, notifications, deps.Logger, nil),
		Avatars:       services.NewAvatarService(deps.Store, userRepo, cfg.AvatarMaxBytes, deps.Logger),
		Notifications: notifications,
		Geocoder:      geocoder,
	}
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, deps Deps) *Services {
	logger := deps.Logger
	svc := NewServices(deps)

	// Health check - always accessible
	checks := map[string]handlers.Pinger{"postgres": handlers.GormPinger(deps.Postgres)}
	if deps.Mongo != nil {
		client := deps.Mongo.Client()
		checks["mongo"] = func(ctx context.Context) error { return client.Ping(ctx, nil) }
	}
	e.GET("/health", handlers.HealthCheck(checks))

	var firebaseAuth *middleware.FirebaseAuthenticator
	if deps.Firebase != nil {
		firebaseAuth = middleware.NewFirebaseAuthenticator(deps.Firebase, svc.Users)
	}

	// --- Unprotected routes ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(svc.Users, firebaseAuth, deps.Config.JWTSecret, logger)
	authHandler.RegisterAuthRoutes(authGroup)
	logger.Info("Auth routes configured.")

	notificationHandler := handlers.NewNotificationHandler(svc.Notifications, svc.Users, logger)
	notificationHandler.RegisterPublicRoutes(e.Group("/api/v1"))

	// --- Protected routes (require authentication) ---
	api := e.Group("/api/v1")
	api.Use(middleware.JWTAuthMiddleware(deps.Config.JWTSecret, firebaseAuth))
	logger.WithField("firebase", firebaseAuth != nil).Info("Authentication middleware applied to /api/v1 group.")

	handlers.NewUserHandler(svc.Users, svc.Avatars, svc.Follows, logger).RegisterProfileRoutes(api)
	handlers.NewGroupHandler(svc.Groups, logger).RegisterGroupRoutes(api)
	handlers.NewMemoHandler(svc.Memos, logger).RegisterMemoRoutes(api)
	handlers.NewCommentHandler(svc.Comments, logger).RegisterCommentRoutes(api)
	handlers.NewFriendshipHandler(svc.Friends, logger).RegisterFriendshipRoutes(api)
	handlers.NewFollowHandler(svc.Follows, logger).RegisterFollowRoutes(api)
	handlers.NewGeoHandler(svc.Geocoder, logger).RegisterGeoRoutes(api)
	notificationHandler.RegisterNotificationRoutes(api)

	logger.Info("All routes configured.")
	return svc
}
