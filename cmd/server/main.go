package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/finlay-davidson/flog-it/internal/adapter/auth"
	"github.com/finlay-davidson/flog-it/internal/adapter/http/handler"
	"github.com/finlay-davidson/flog-it/internal/adapter/http/middleware"
	"github.com/finlay-davidson/flog-it/internal/adapter/http/router"
	natsAdapter "github.com/finlay-davidson/flog-it/internal/adapter/messaging/nats"
	"github.com/finlay-davidson/flog-it/internal/adapter/repository/cache"
	mongoRepo "github.com/finlay-davidson/flog-it/internal/adapter/repository/mongodb"
	pgRepo "github.com/finlay-davidson/flog-it/internal/adapter/repository/postgres"
	"github.com/finlay-davidson/flog-it/internal/adapter/storage/s3"
	"github.com/finlay-davidson/flog-it/internal/config"
	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/listing/media"
	"github.com/finlay-davidson/flog-it/internal/listing/usecase"
	"github.com/finlay-davidson/flog-it/internal/mailer"
	"github.com/finlay-davidson/flog-it/internal/platform/logger"
	"github.com/finlay-davidson/flog-it/internal/platform/metrics"
	"github.com/finlay-davidson/flog-it/internal/platform/tracer"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// 1. Load configuration (.env is optional)
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// 2. Initialize Logger
	appLogger, err := logger.New(&logger.LoggerConfig{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputFile: cfg.LogOutputFile,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = appLogger.Sync() }()
	appLogger.Info("Application starting...",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.String("store_driver", cfg.StoreDriver),
		zap.String("auth_mode", cfg.AuthMode),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 3. Initialize OpenTelemetry Tracer
	tp, err := tracer.InitTracer(ctx, cfg.ServiceName, cfg.OTELEndpoint, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize tracer", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}()

	// 4. Listing store
	store, err := openListingStore(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open listing store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer store.close()
	repo := store.listings

	// 5. Object store
	storage, err := s3.NewS3Storage(ctx, s3.Options{
		Endpoint:      cfg.MinIOEndpoint,
		AccessKey:     cfg.MinIOAccessKey,
		SecretKey:     cfg.MinIOSecretKey,
		Bucket:        cfg.MinIOBucket,
		UseSSL:        cfg.MinIOUseSSL,
		PublicBaseURL: cfg.BucketBaseURL(),
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize object storage", zap.Error(err))
	}

	// 6. Optional collaborators. Interfaces stay nil when not configured.
	var listingCache usecase.ListingCache
	if cfg.RedisAddress != "" {
		redisCache, err := cache.NewListingCache(ctx, cache.Options{
			Addr:     cfg.RedisAddress,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			appLogger.Fatal("Failed to connect to Redis", zap.String("addr", cfg.RedisAddress), zap.Error(err))
		}
		defer func() { _ = redisCache.Close() }()
		listingCache = redisCache
		appLogger.Info("Redis listing cache initialized", zap.Duration("ttl", cfg.CacheTTL))
	} else {
		appLogger.Info("Redis listing cache disabled (REDIS_ADDRESS not set)")
	}

	var (
		events        usecase.EventPublisher
		natsPublisher *natsAdapter.Publisher
	)
	if cfg.NATSURL != "" {
		natsPublisher, err = natsAdapter.NewPublisher(cfg.NATSURL, appLogger, cfg.ServiceName)
		if err != nil {
			appLogger.Fatal("Failed to initialize NATS publisher", zap.Error(err))
		}
		defer natsPublisher.Close()
		events = natsPublisher
	} else {
		appLogger.Info("NATS events disabled (NATS_URL not set)")
	}

	var listingMailer usecase.Mailer
	smtpMailer, err := mailer.NewSMTPMailer(mailer.Config{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Email:    cfg.SMTPEmail,
		Password: cfg.SMTPPassword,
	}, appLogger)
	switch {
	case err == nil:
		listingMailer = smtpMailer
	case errors.Is(err, mailer.ErrIncompleteConfig):
		appLogger.Info("Listing emails disabled (SMTP settings incomplete)")
	default:
		appLogger.Fatal("Failed to initialize mailer", zap.Error(err))
	}

	// 7. Usecases
	guard := usecase.NewOwnershipGuard(repo, appLogger)
	listingUC := usecase.NewListingUsecase(repo, store.profiles, guard, listingCache, events, listingMailer, appLogger)
	photoUC := usecase.NewPhotoUsecase(storage, media.NewCodec(cfg.ImageQuality, cfg.ThumbSize, cfg.MaxImagePixels), repo, guard,
		cfg.MaxImageBytes, listingCache, events, appLogger)
	reconcileUC := usecase.NewReconcileUsecase(storage, repo, guard, usecase.DefaultOrphanGrace, listingCache, events, appLogger)

	if natsPublisher != nil {
		sub := natsAdapter.NewReconcileSubscriber(natsPublisher.Conn(), reconcileUC, cfg.ServiceName, appLogger)
		if err := sub.Start(); err != nil {
			appLogger.Fatal("Failed to subscribe to reconcile requests", zap.Error(err))
		}
		defer sub.Stop()
	}

	var background sync.WaitGroup
	background.Add(1)
	go func() {
		defer background.Done()
		reconcileUC.Run(ctx, cfg.ReconcileInterval)
	}()

	// 8. Token verifier
	var verifier middleware.TokenVerifier
	switch cfg.AuthMode {
	case config.AuthModeRemote:
		verifier = auth.NewRemoteVerifier(cfg.AuthServiceURL, cfg.AuthAPIKey, &http.Client{Timeout: 10 * time.Second})
	default:
		verifier = auth.NewJWTVerifier(cfg.JWTSecret)
	}

	// 9. Metrics
	metricsManager := metrics.NewMetricsManager(cfg.ServiceName)
	metricsSrv := metrics.NewMetricsServer(cfg.PrometheusMetricsPort, metricsManager)
	go metrics.StartMetricsServer(metricsSrv, appLogger)

	// 10. HTTP server
	listingHandler := handler.NewListingHandler(listingUC, photoUC, reconcileUC, metricsManager, handler.Limits{
		MaxImageBytes:       cfg.MaxImageBytes,
		MaxImagesPerRequest: cfg.MaxImagesPerRequest,
	}, appLogger)

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: router.New(router.Options{
			Handler:        listingHandler,
			Verifier:       verifier,
			Metrics:        metricsManager,
			AllowedOrigins: cfg.AllowedOrigins(),
			Logger:         appLogger,
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// 11. Graceful Shutdown
	select {
	case <-ctx.Done():
		appLogger.Info("Received shutdown signal")
	case err := <-serveErr:
		appLogger.Error("HTTP server failed", zap.Error(err))
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	if metricsSrv != nil {
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			appLogger.Error("Metrics server shutdown failed", zap.Error(err))
		}
	}
	background.Wait()
	appLogger.Info("Application shutting down...")
}

// listingStore is the configured database backend.
type listingStore struct {
	listings domain.ListingRepository
	profiles domain.ProfileRepository
	close    func()
}

// openListingStore connects the configured listing and profile repositories.
func openListingStore(ctx context.Context, cfg *config.Config, log *logger.Logger) (*listingStore, error) {
	switch cfg.StoreDriver {
	case config.StoreDriverMongo:
		client, err := mongoRepo.Connect(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		closeFn := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Error("Error disconnecting from MongoDB", zap.Error(err))
			}
		}
		log.Info("Connected to MongoDB", zap.String("database", cfg.MongoDatabase))
		db := client.Database(cfg.MongoDatabase)
		return &listingStore{
			listings: mongoRepo.NewListingRepository(db, log),
			profiles: mongoRepo.NewProfileRepository(db, log),
			close:    closeFn,
		}, nil

	default:
		db, err := pgRepo.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		closeFn := func() {
			if err := pgRepo.Close(db); err != nil {
				log.Error("Error closing Postgres connection", zap.Error(err))
			}
		}
		listings := pgRepo.NewListingRepository(db, log)
		profiles := pgRepo.NewProfileRepository(db, log)
		if err := listings.Migrate(ctx); err != nil {
			closeFn()
			return nil, err
		}
		if err := profiles.Migrate(ctx); err != nil {
			closeFn()
			return nil, err
		}
		log.Info("Connected to Postgres")
		return &listingStore{listings: listings, profiles: profiles, close: closeFn}, nil
	}
}
