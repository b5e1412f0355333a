package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/Ojay1963/Delxta/config"
	"github.com/Ojay1963/Delxta/internal/clients"
	"github.com/Ojay1963/Delxta/internal/delivery"
	"github.com/Ojay1963/Delxta/internal/repository"
	"github.com/Ojay1963/Delxta/internal/usecase"
	"github.com/Ojay1963/Delxta/pkg/db"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.JSONFormatter{})

	app := &cli.App{
		Name:  "checkout_service",
		Usage: "restaurant checkout, order materialization and payment reconciliation",
		Before: func(c *cli.Context) error {
			cfg, err := config.LoadConfig(logger)
			if err != nil {
				return err
			}
			logger.SetLevel(config.ParseLogLevel(cfg.LogLevel, logger))
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API",
				Action: func(c *cli.Context) error { return serve(c.Context, logger) },
			},
			{
				Name:  "migrate",
				Usage: "apply database migrations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "down", Usage: "roll back this many migrations instead of applying"},
				},
				Action: func(c *cli.Context) error { return migrateDB(c.Int("down"), logger) },
			},
			{
				Name:   "purge-sessions",
				Usage:  "delete checkout sessions that expired without producing an order",
				Action: func(c *cli.Context) error { return purgeSessions(c.Context, logger) },
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunContext(ctx, os.Args); err != nil {
		logger.Fatalf("checkout_service: %v", err)
	}
}

func openDatabase(logger *logrus.Logger) (*config.Config, *sqlx.DB, error) {
	cfg, err := config.LoadConfig(logger)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Connect(cfg.DatabaseURL, db.DefaultPoolOptions)
	if err != nil {
		logger.Errorf("Failed to connect to database: %v", err)
		return nil, nil, err
	}
	logger.Info("Database connection established.")
	return cfg, database, nil
}

func migrateDB(downSteps int, logger *logrus.Logger) error {
	_, database, err := openDatabase(logger)
	if err != nil {
		return err
	}
	defer database.Close()

	if downSteps > 0 {
		return repository.MigrateDown(database, downSteps, logger)
	}
	return repository.MigrateUp(database, logger)
}

func purgeSessions(ctx context.Context, logger *logrus.Logger) error {
	cfg, database, err := openDatabase(logger)
	if err != nil {
		return err
	}
	defer database.Close()

	sessions := usecase.NewSessionStore(
		repository.NewPostgresCheckoutSessionRepository(database, logger),
		usecase.SettingsFromConfig(cfg),
		logger,
	)
	n, err := sessions.PurgeExpired(ctx)
	if err != nil {
		return err
	}
	logger.Infof("Purged %d expired checkout sessions", n)
	return nil
}

// newNotifier prefers RabbitMQ and falls back to logging. Sends run off the request path.
// A nil Notifier disables notifications.
func newNotifier(cfg *config.Config, logger *logrus.Logger) (clients.Notifier, func()) {
	if !cfg.OrderNotificationsEnabled {
		logger.Info("Order notifications disabled.")
		return nil, func() {}
	}
	if cfg.RabbitMQURL != "" {
		rabbit, err := clients.NewRabbitNotifier(cfg.RabbitMQURL, cfg.NotificationsExchange, logger)
		if err == nil {
			async := clients.NewAsyncNotifier(rabbit, logger)
			return async, func() {
				_ = async.Close()
				_ = rabbit.Close()
			}
		}
		logger.Warnf("RabbitMQ unavailable, logging notifications instead: %v", err)
	}
	async := clients.NewAsyncNotifier(clients.NewLogNotifier(logger), logger)
	return async, func() { _ = async.Close() }
}

func serve(ctx context.Context, logger *logrus.Logger) error {
	logger.Info("Starting Checkout Service...")
	cfg, database, err := openDatabase(logger)
	if err != nil {
		return err
	}
	defer database.Close()

	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set to serve the API")
	}

	catalogClient, err := clients.NewCatalogGRPCClient(cfg.CatalogGrpcTarget, logger, 5*time.Second)
	if err != nil {
		return err
	}
	defer catalogClient.Close()

	gateway := clients.NewPaystackClient(cfg.PaystackBaseURL, cfg.PaystackSecretKey, cfg.GatewayTimeout, logger)
	notifier, closeNotifier := newNotifier(cfg, logger)
	defer closeNotifier()

	// --- Dependency Injection ---
	orderRepo := repository.NewPostgresOrderRepository(database, logger)
	sessionRepo := repository.NewPostgresCheckoutSessionRepository(database, logger)
	logger.Info("Repositories initialized.")

	settings := usecase.SettingsFromConfig(cfg)
	drafts := usecase.NewDraftBuilder(catalogClient, settings.DeliveryFee, logger)
	sessions := usecase.NewSessionStore(sessionRepo, settings, logger)
	materializer := usecase.NewMaterializer(orderRepo, notifier, logger)
	orderUseCase := usecase.NewOrderUseCase(drafts, orderRepo, notifier, logger)
	checkoutUseCase := usecase.NewCheckoutUseCase(drafts, sessions, materializer, orderRepo, gateway, settings, logger)
	logger.Info("Use cases initialized.")

	gin.SetMode(gin.ReleaseMode)
	router := delivery.NewRouter(
		delivery.NewOrderHandler(orderUseCase, logger),
		delivery.NewCheckoutHandler(checkoutUseCase, logger),
		cfg.JWTSecret,
		logger,
	)
	srv := &http.Server{
		Addr:              cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Starting HTTP server on port %s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorf("HTTP server failed: %v", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	err = g.Wait()
	logger.Info("Checkout Service stopped.")
	return err
}
