package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/huutix/storefront/internal/affiliate"
	"github.com/huutix/storefront/internal/cache"
	"github.com/huutix/storefront/internal/cart"
	"github.com/huutix/storefront/internal/checkout"
	"github.com/huutix/storefront/internal/config"
	"github.com/huutix/storefront/internal/db"
	"github.com/huutix/storefront/internal/kafka"
	"github.com/huutix/storefront/internal/logger"
	"github.com/huutix/storefront/internal/pricing"
	"github.com/huutix/storefront/internal/repository/postgresql"
	"github.com/huutix/storefront/internal/server"
)

func main() {
	log := logger.New()
	defer func() {
		_ = log.Sync()
	}()

	cfg, err := config.Load()
	if err != nil {
		zap.S().Fatalw("failed to load config", "error", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := runMigrations(cfg); err != nil {
		zap.S().Fatalw("failed to run migrations", "error", err)
	}

	database, err := db.NewDb(ctx, cfg.DSN())
	if err != nil {
		zap.S().Fatalw("failed to connect to database", "error", err)
	}
	defer database.Close()

	if cfg.AdminPassword != "" {
		if err := db.SeedAdmin(ctx, database, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			zap.S().Fatalw("failed to seed admin user", "error", err)
		}
	}

	orders := postgresql.NewOrderRepo(database)
	affiliates := postgresql.NewAffiliateRepo(database)
	requests := postgresql.NewStaffRequestRepo(database)
	payouts := postgresql.NewPayoutRepo(database)
	coupons := postgresql.NewCouponRepo(database)
	flashCodes := postgresql.NewFlashCodeRepo(database)
	testimonials := postgresql.NewTestimonialRepo(database)
	settingsRepo := postgresql.NewSettingsRepo(database)
	adminUsers := postgresql.NewAdminUserRepo(database)
	outbox := postgresql.NewOutboxTaskRepo()

	settingsCache := cache.NewSettingsCache(settingsRepo)
	if err := settingsCache.LoadInitialData(ctx); err != nil {
		zap.S().Fatalw("failed to load site settings", "error", err)
	}

	pricingSvc := pricing.NewService(affiliates, coupons, flashCodes)
	checkoutMgr := checkout.NewManager(database, pricingSvc, orders, affiliates, outbox, settingsCache, cfg.KafkaTopic)
	partners := affiliate.NewService(database, affiliates, payouts, requests, outbox, cfg.KafkaTopic)

	producer := kafka.NewWriterProducer(cfg.KafkaBrokers)
	publisher := kafka.NewPublisher(database, outbox, producer, kafka.PublisherConfig{
		PollInterval: 2 * time.Second,
		BatchSize:    20,
		MaxAttempts:  5,
	})

	srv := server.New(server.Deps{
		Orders:        orders,
		Affiliates:    affiliates,
		Requests:      requests,
		Payouts:       payouts,
		Coupons:       coupons,
		Testimonials:  testimonials,
		Settings:      settingsRepo,
		AdminUsers:    adminUsers,
		Checkout:      checkoutMgr,
		Partners:      partners,
		Carts:         cart.NewStore(),
		Pricing:       pricingSvc,
		SettingsCache: settingsCache,
		Producer:      producer,
		AuditTopic:    cfg.KafkaTopic,
	})

	metricsServer := &http.Server{
		Addr:    ":" + cfg.MetricsPort,
		Handler: promhttp.Handler(),
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return srv.Run(groupCtx, cfg.HTTPPort)
	})

	group.Go(func() error {
		zap.S().Infow("metrics server starting", "port", cfg.MetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		publisher.Run(groupCtx)
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorw("http server shutdown failed", "error", err)
		}
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			zap.S().Errorw("metrics server shutdown failed", "error", err)
		}
		publisher.Shutdown()
		return nil
	})

	if err := group.Wait(); err != nil {
		zap.S().Fatalw("service stopped with error", "error", err)
	}
	zap.S().Info("service stopped")
}

func runMigrations(cfg *config.Config) error {
	m, err := migrate.New(cfg.MigrationsPath, cfg.MigrateURL())
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}
	return nil
}
