package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/handlers"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/auth"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/cache"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/config"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/events"
	pfirestore "github.com/unfazed24072005io/luxe-jewellery/internal/platform/firestore"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/observability"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/secrets"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/storage"
	firestoreRepo "github.com/unfazed24072005io/luxe-jewellery/internal/repositories/firestore"
	"github.com/unfazed24072005io/luxe-jewellery/internal/services"
)

func main() {
	ctx := context.Background()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")
	ctx = observability.WithLogger(ctx, logger)

	envValues, err := config.EnvironmentValues()
	if err != nil {
		logger.Fatal("failed to read environment values", zap.Error(err))
	}

	resolver, err := secrets.NewResolver(ctx,
		secrets.WithProject(secretsProject(envValues)),
		secrets.WithLogger(logger.Named("secrets")),
	)
	if err != nil {
		logger.Fatal("failed to initialise secret resolver", zap.Error(err))
	}
	defer func() {
		if err := resolver.Close(); err != nil {
			logger.Warn("secret resolver close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx, config.WithSecretResolver(resolver))
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("invalid configuration", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore, pfirestore.WithDialTimeout(cfg.Firestore.DialTimeout))
	if _, err := firestoreProvider.Client(ctx); err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		if err := firestoreProvider.Close(); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	productRepo, err := firestoreRepo.NewProductRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise product repository", zap.Error(err))
	}
	collectionRepo, err := firestoreRepo.NewCollectionRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise collection repository", zap.Error(err))
	}
	blogRepo, err := firestoreRepo.NewBlogRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise blog repository", zap.Error(err))
	}

	storageClient, err := gcs.NewClient(ctx)
	if err != nil {
		logger.Fatal("failed to initialise storage client", zap.Error(err))
	}
	defer func() {
		if err := storageClient.Close(); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()
	uploader, err := storage.NewUploader(storageClient, cfg.Storage.ImagesBucket, cfg.Storage.PublicBaseURL,
		storage.WithMaxObjectBytes(cfg.Storage.MaxUploadBytes),
	)
	if err != nil {
		logger.Fatal("failed to initialise image uploader", zap.Error(err))
	}

	healthChecks := []handlers.HealthOption{
		handlers.WithHealthCheck("firestore", firestoreProvider.Ping),
	}

	var store cache.Store
	switch cfg.Cache.Backend {
	case config.CacheBackendRedis:
		redisStore, err := cache.NewRedis(ctx, cache.RedisOptions{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
			TTL:      cfg.Cache.TTL,
		})
		if err != nil {
			logger.Fatal("failed to initialise redis cache", zap.Error(err))
		}
		defer func() {
			if err := redisStore.Close(); err != nil {
				logger.Warn("redis close error", zap.Error(err))
			}
		}()
		healthChecks = append(healthChecks, handlers.WithHealthCheck("cache", redisStore.Ping))
		store = redisStore
	case config.CacheBackendNone:
		store = cache.Nop{}
	default:
		store = cache.NewMemory(cfg.Cache.TTL)
	}

	catalogService, err := services.NewCatalogService(services.CatalogServiceDeps{
		Products:     productRepo,
		Collections:  collectionRepo,
		Blogs:        blogRepo,
		Cache:        store,
		Logger:       logger.Named("catalog"),
		QueryTimeout: cfg.Catalog.QueryTimeout,
	})
	if err != nil {
		logger.Fatal("failed to initialise catalog service", zap.Error(err))
	}
	membershipResolver, err := services.NewMembershipResolver(catalogService)
	if err != nil {
		logger.Fatal("failed to initialise membership resolver", zap.Error(err))
	}
	storefrontService, err := services.NewStorefrontService(catalogService)
	if err != nil {
		logger.Fatal("failed to initialise storefront service", zap.Error(err))
	}

	listenCtx, stopListening := context.WithCancel(ctx)
	var listenWG sync.WaitGroup
	var publisher services.ChangePublisher
	if cfg.Events.Topic != "" || cfg.Events.Subscription != "" {
		pubsubClient, err := pubsub.NewClient(ctx, cfg.Firebase.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()

		if cfg.Events.Topic != "" {
			changePublisher, err := events.NewPubSubPublisher(pubsubClient.Topic(cfg.Events.Topic))
			if err != nil {
				logger.Fatal("failed to initialise change publisher", zap.Error(err))
			}
			defer changePublisher.Stop()
			publisher = changePublisher
		}

		if cfg.Events.Subscription != "" {
			listener, err := events.NewListener(pubsubClient.Subscription(cfg.Events.Subscription),
				func(ctx context.Context, change domain.CatalogChange) error {
					return catalogService.Invalidate(ctx, change.Kind)
				},
				logger.Named("events"),
			)
			if err != nil {
				logger.Fatal("failed to initialise change listener", zap.Error(err))
			}
			listenWG.Add(1)
			go func() {
				defer listenWG.Done()
				if err := listener.Run(listenCtx); err != nil {
					logger.Error("catalog change listener stopped", zap.Error(err))
				}
			}()
		}
	}

	editSlot := services.NewEditSlot(time.Now)
	gateway, err := services.NewAdminGateway(services.AdminGatewayDeps{
		Products:    productRepo,
		Collections: collectionRepo,
		Blogs:       blogRepo,
		Images:      uploader,
		Invalidator: catalogService,
		Publisher:   publisher,
		EditSlot:    editSlot,
		Logger:      logger.Named("admin"),
		Clock:       time.Now,
	})
	if err != nil {
		logger.Fatal("failed to initialise admin gateway", zap.Error(err))
	}

	firebaseClient, err := auth.NewFirebaseClient(ctx, cfg.Firebase)
	if err != nil {
		logger.Fatal("failed to initialise firebase auth", zap.Error(err))
	}
	sessionGate, err := auth.NewSessionGate(firebaseClient, cfg.Admin.SessionTTL, cfg.Admin.AllowedRoles,
		auth.WithRoleClaim(cfg.Admin.RoleClaim),
		auth.WithVerificationTimeout(cfg.Admin.VerifyTimeout),
	)
	if err != nil {
		logger.Fatal("failed to initialise session gate", zap.Error(err))
	}

	publicHandlers := handlers.NewPublicHandlers(
		handlers.WithPublicCatalogService(catalogService),
		handlers.WithPublicMembershipResolver(membershipResolver),
		handlers.WithPublicStorefrontService(storefrontService),
		handlers.WithPublicBlogRenderer(services.NewBlogRenderer()),
		handlers.WithPublicPriceCeiling(cfg.Catalog.DefaultPriceCeiling),
	)
	adminHandlers := handlers.NewAdminHandlers(
		handlers.WithAdminSessionGate(sessionGate, auth.CookieSettings{
			Name:   cfg.Admin.CookieName,
			Secure: cfg.Admin.SecureCookie,
		}),
		handlers.WithAdminGateway(gateway),
		handlers.WithAdminStorefrontService(storefrontService),
		handlers.WithAdminMembershipResolver(membershipResolver),
		handlers.WithAdminEditSlot(editSlot),
		handlers.WithAdminMaxUploadBytes(cfg.Storage.MaxUploadBytes),
	)

	projectID := cfg.Firebase.ProjectID
	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.InjectLoggerMiddleware(logger.Named("http")),
			observability.TraceMiddleware(projectID),
			observability.RecoveryMiddleware(logger.Named("http")),
			observability.RequestLoggerMiddleware(),
		),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(healthChecks...)),
		handlers.WithPublicRoutes(publicHandlers.Routes),
		handlers.WithAdminRoutes(adminHandlers.Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr), zap.String("environment", cfg.Environment))
	go func() {
		serverLogger.Info("luxe storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	stopListening()
	listenWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func secretsProject(env map[string]string) string {
	for _, key := range []string{"LUXE_SECRETS_PROJECT_ID", "LUXE_FIREBASE_PROJECT_ID"} {
		if value := strings.TrimSpace(env[key]); value != "" {
			return value
		}
	}
	return ""
}
