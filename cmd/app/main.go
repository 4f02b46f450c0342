package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Domenick1991/gearbooking/config"
	"github.com/Domenick1991/gearbooking/internal/bootstrap"
	"github.com/Domenick1991/gearbooking/internal/cache"
	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/kafka"
	"github.com/Domenick1991/gearbooking/internal/logger"
	"github.com/Domenick1991/gearbooking/internal/repository"
	"github.com/Domenick1991/gearbooking/internal/service/availability"
	"github.com/Domenick1991/gearbooking/internal/service/booking"
	"github.com/Domenick1991/gearbooking/internal/service/catalog"
	"github.com/Domenick1991/gearbooking/internal/service/pricing"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	zl, err := logger.NewNamed(cfg.App.Env, cfg.Log.Level, "gearbooking-api")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	resultCache := cache.Open(ctx, cfg.Cache, cfg.Redis, zl)
	executor := database.New(pool, resultCache, database.ConfigFrom(cfg.Database, cfg.Cache), zl, registry)
	defer executor.Close()

	if cfg.Database.MigrateOnStart {
		if err := database.Migrate(ctx, executor); err != nil {
			zl.Fatal("migrate schema", zap.Error(err))
		}
	}

	systemUser, err := uuid.Parse(cfg.Booking.SystemUserID)
	if err != nil {
		zl.Fatal("parse system user id", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
	defer func() {
		if err := producer.Close(); err != nil {
			zl.Warn("close kafka producer", zap.Error(err))
		}
	}()
	if err := producer.CheckConnection(ctx); err != nil {
		zl.Warn("kafka not reachable, events will be dropped until it is", zap.Error(err))
	}

	ttl := cfg.Cache.DefaultTTL()
	bookingRepo := repository.NewBookingRepository(ttl)
	equipmentRepo := repository.NewEquipmentRepository(ttl)
	bookingService := booking.NewBookingService(
		executor,
		bookingRepo,
		equipmentRepo,
		repository.NewHistoryRepository(ttl),
		availability.NewChecker(bookingRepo, cfg.Booking.HoldPending),
		pricing.NewCalculator(cfg.Pricing.ServiceFeeBps, cfg.Pricing.InsuranceFeeBps),
		booking.WithProducer(producer, cfg.Kafka.BookingTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithPaymentsTopic(cfg.Kafka.PaymentsTopic),
		booking.WithSystemUser(systemUser),
		booking.WithLogger(zl),
	)

	if err := bootstrap.Run(ctx, cfg, bootstrap.Deps{
		Bookings: bookingService,
		Catalog:  catalog.NewCatalogService(executor, equipmentRepo),
		Stats:    executor,
		Gatherer: registry,
		Log:      zl,
	}); err != nil {
		zl.Fatal("server error", zap.Error(err))
	}
}
