package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/gearbooking/config"
	"github.com/Domenick1991/gearbooking/internal/cache"
	"github.com/Domenick1991/gearbooking/internal/database"
	"github.com/Domenick1991/gearbooking/internal/kafka"
	"github.com/Domenick1991/gearbooking/internal/logger"
	"github.com/Domenick1991/gearbooking/internal/notify"
	"github.com/Domenick1991/gearbooking/internal/repository"
	"github.com/Domenick1991/gearbooking/internal/scheduler"
	"github.com/Domenick1991/gearbooking/internal/service/availability"
	"github.com/Domenick1991/gearbooking/internal/service/booking"
	"github.com/Domenick1991/gearbooking/internal/service/pricing"
	"github.com/google/uuid"
	kafkaGo "github.com/segmentio/kafka-go"
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

	zl, err := logger.NewNamed(cfg.App.Env, cfg.Log.Level, "gearbooking-worker")
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
	executor := database.New(pool, cache.OpenShared(ctx, cfg.Cache, cfg.Redis, zl), database.ConfigFrom(cfg.Database, cfg.Cache), zl, nil)
	defer executor.Close()

	systemUser, err := uuid.Parse(cfg.Booking.SystemUserID)
	if err != nil {
		zl.Fatal("parse system user id", zap.Error(err))
	}

	producer := kafka.NewProducer(cfg.Kafka.Brokers, zl)
	defer producer.Close()

	ttl := cfg.Cache.DefaultTTL()
	bookingRepo := repository.NewBookingRepository(ttl)
	bookingService := booking.NewBookingService(
		executor,
		bookingRepo,
		repository.NewEquipmentRepository(ttl),
		repository.NewHistoryRepository(ttl),
		availability.NewChecker(bookingRepo, cfg.Booking.HoldPending),
		pricing.NewCalculator(cfg.Pricing.ServiceFeeBps, cfg.Pricing.InsuranceFeeBps),
		booking.WithProducer(producer, cfg.Kafka.BookingTopic),
		booking.WithNotificationsTopic(cfg.Kafka.NotificationsTopic),
		booking.WithPaymentsTopic(cfg.Kafka.PaymentsTopic),
		booking.WithSystemUser(systemUser),
		booking.WithLogger(zl),
	)

	sched, err := scheduler.New(cfg.Worker, bookingService, zl)
	if err != nil {
		zl.Fatal("init scheduler", zap.Error(err))
	}
	// catch up on anything missed while the worker was down
	if err := sched.RunOnce(ctx); err != nil {
		zl.Error("startup sweep failed", zap.Error(err))
	}
	sched.Start()

	consumer := kafka.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.GroupID, cfg.Kafka.NotificationsTopic, zl)
	defer consumer.Close()

	notifier := notify.NewNotifier(zl)

	go func() {
		if err := consumer.Consume(ctx, func(ctx context.Context, msg kafkaGo.Message) error {
			event, err := kafka.DecodeBookingEvent(msg)
			if err != nil {
				zl.Warn("skipping undecodable event", zap.Int64("offset", msg.Offset), zap.Error(err))
				return nil
			}
			return notifier.Send(ctx, event)
		}); err != nil {
			zl.Error("consumer stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sched.Stop(stopCtx); err != nil {
		zl.Warn("sweeps still running at shutdown", zap.Error(err))
	}
}
