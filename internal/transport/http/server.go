package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/cache"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/config"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/database"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/handler"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/identity"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/logger"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/payment"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/queue"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/redis"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/repository"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/service"
	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/storage"
)

const shutdownTimeout = 15 * time.Second

func Run() error {
	// 1. Load Configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 2. Connect to Database
	provider := database.NewProvider(func(ctx context.Context) (*sqlx.DB, error) {
		return database.Connect(ctx, cfg)
	})
	defer provider.Close()

	db, err := provider.Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Info("database connected", "host", cfg.DBHost, "name", cfg.DBName)

	// 3. Optional Redis: domain events and webhook dedupe
	var publisher queue.Publisher = queue.NoopPublisher{}
	var deduper cache.Deduper = cache.NoopDeduper{}
	if cfg.RedisURL != "" {
		rdb, err := redis.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		defer rdb.Close()
		publisher = queue.NewPublisher(rdb.Client, log)
		deduper = cache.NewWebhookDeduper(rdb.Client)
		log.Info("redis connected")
	} else {
		log.Warn("REDIS_URL not set; domain events are dropped and webhook dedupe is off")
	}

	// 4. External collaborators
	authProvider, err := newIdentityProvider(ctx, cfg)
	if err != nil {
		return err
	}

	var bucket storage.Bucket
	if r2, err := storage.NewR2Bucket(ctx, cfg); err != nil {
		log.Warn("object storage disabled", "reason", err)
	} else {
		bucket = r2
	}

	var gateway payment.Gateway
	if stripeGateway, err := payment.NewStripeGateway(cfg.StripeSecretKey, cfg.StripeWebhookSecret); err != nil {
		log.Warn("payments disabled", "reason", err)
	} else {
		gateway = stripeGateway
	}

	// 5. Repositories and services
	accountRepo := repository.NewAccountRepository(db)
	publicIndex := repository.NewPublicLessonIndex(db)
	ownerIndex := repository.NewOwnerLessonIndex(db)
	lessonReportRepo := repository.NewLessonReportRepository(db)
	reportRepo := repository.NewReportRepository(db)
	postRepo := repository.NewPostRepository(db)

	lessonStore := service.NewLessonStore(publicIndex, ownerIndex, publisher, log).
		WithTx(repository.NewLessonTxRunner(db))
	lessonService := service.NewLessonService(lessonStore, publicIndex, ownerIndex, accountRepo, lessonReportRepo, log)
	accountService := service.NewAccountService(accountRepo, lessonService, authProvider, publisher, log, cfg.DefaultAvatarURL)
	reportService := service.NewReportService(reportRepo)
	postService := service.NewPostService(postRepo)
	mediaService := service.NewMediaService(bucket)
	paymentService := service.NewPaymentService(gateway, accountService, deduper, log, cfg.PremiumPriceMinor, cfg.PremiumCurrency)

	router := NewRouter(RouterConfig{
		UserHandler:    handler.NewUserHandler(accountService, log),
		LessonHandler:  handler.NewLessonHandler(lessonService, log),
		ReportHandler:  handler.NewReportHandler(reportService, log),
		PostHandler:    handler.NewPostHandler(postService, log),
		MediaHandler:   handler.NewMediaHandler(mediaService, log),
		PaymentHandler: handler.NewPaymentHandler(paymentService, log),
		Verifier:       authProvider,
		Accounts:       accountRepo,
		Logger:         log,
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// 6. Serve until SIGINT/SIGTERM
	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "addr", srv.Addr, "auth_provider", cfg.AuthProvider)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

func newIdentityProvider(ctx context.Context, cfg *config.Config) (identity.Provider, error) {
	switch cfg.AuthProvider {
	case config.AuthProviderJWT:
		return identity.NewJWTProvider(cfg.JWTSecret)
	case config.AuthProviderFirebase:
		return identity.NewFirebaseProvider(ctx, cfg.FirebaseProjectID, cfg.FirebaseClientEmail, cfg.FirebasePrivateKey)
	default:
		return nil, fmt.Errorf("unknown AUTH_PROVIDER %q", cfg.AuthProvider)
	}
}
