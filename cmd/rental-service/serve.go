package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/cache"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/fulfillment"
	httpapi "github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/inventory"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/metrics"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quickbooks"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/quote"
	"github.com/andreasstove999/ecommerce-system/services/rental-service-go/internal/sequence"
)

type eventPublisher interface {
	quote.CreatedPublisher
	fulfillment.PlanPublisher
}

func (a *app) serve(parent context.Context) error {
	cfg, logger := a.cfg, a.logger
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	// --- DB ---
	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Error("db connect", zap.Error(err))
		return err
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			logger.Error("db migrate", zap.Error(err))
			return err
		}
	}

	m := metrics.New()

	// --- cache ---
	var categoryCache catalog.CategoryCache
	if rc := cache.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword); rc != nil {
		defer rc.Close()
		categoryCache = cache.NewCategoryCache(rc, cfg.CategoryCacheTTL, logger)
		logger.Info("category cache enabled", zap.String("addr", cfg.RedisAddr))
	}

	// --- AMQP ---
	var pub eventPublisher = events.NopPublisher{}
	if cfg.RabbitURL != "" {
		conn, err := events.Dial(cfg.RabbitURL)
		if err != nil {
			logger.Error("rabbitmq connect", zap.Error(err))
			return err
		}
		defer conn.Close()

		p, err := events.NewPublisher(conn, sequence.NewRepository(pool), events.PublisherOptions{
			PublishEnveloped: cfg.PublishEnveloped,
		})
		if err != nil {
			logger.Error("event publisher", zap.Error(err))
			return err
		}
		defer p.Close()
		pub = p
	} else {
		logger.Info("RABBITMQ_URL not set, events disabled")
	}

	// --- domain ---
	invRepo := inventory.NewPostgresRepository(pool)
	planner := fulfillment.NewService(invRepo, logger.Named("fulfillment"),
		fulfillment.WithPublisher(pub),
		fulfillment.WithRecorder(m),
	)

	qbCfg := quickbooks.Config{
		ClientID:     cfg.QuickBooks.ClientID,
		ClientSecret: cfg.QuickBooks.ClientSecret,
		RedirectURI:  cfg.QuickBooks.RedirectURI,
		Environment:  cfg.QuickBooks.Environment,
	}
	qb := quickbooks.NewClient(qbCfg, quickbooks.NewPostgresTokenStore(pool), logger.Named("quickbooks"))

	quoteOpts := []quote.Option{quote.WithPublisher(pub), quote.WithRecorder(m)}
	if qbCfg.Configured() {
		quoteOpts = append(quoteOpts, quote.WithEstimates(qb))

		refresher, err := quickbooks.StartRefresher(qb, cfg.QuickBooks.RefreshSchedule, cfg.QuickBooks.RefreshWindow, logger.Named("quickbooks"))
		if err != nil {
			logger.Error("quickbooks refresher", zap.Error(err))
			return err
		}
		defer func() { <-refresher.Stop().Done() }()
	}
	quotes := quote.NewService(quote.NewPostgresRepository(pool), logger.Named("quote"), quoteOpts...)

	// --- HTTP ---
	r := httpapi.NewRouter(httpapi.Deps{
		Logger:           logger.Named("http"),
		Metrics:          m,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		Equipment:        httpapi.NewEquipmentHandler(catalog.NewPostgresRepository(pool, categoryCache), logger),
		Inventory:        httpapi.NewInventoryHandler(invRepo, planner, inventory.NewService(invRepo), logger),
		Quotes:           httpapi.NewQuoteHandler(quotes, logger),
		QuickBooks:       httpapi.NewQuickBooksHandler(qb, logger),
	})

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// --- graceful shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		logger.Error("http server failed", zap.Error(runErr))
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	_ = httpServer.Shutdown(shutdownCtx)
	cancel()

	logger.Info("shutdown complete")
	return runErr
}
