package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"marketplace/cmd"
	httpadapter "marketplace/internal/adapters/in/http"
	"marketplace/internal/adapters/out/postgres/orderrepo"
	"marketplace/internal/jobs"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	configs := getConfigs(logger)

	gormDB, err := openDatabase(configs)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	root, err := cmd.NewCompositionRoot(configs, gormDB, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := root.Close(); err != nil {
			logger.Error("shutdown cleanup failed", "error", err)
		}
	}()

	jobManager, err := buildJobs(root, logger)
	if err != nil {
		logger.Error("failed to build jobs", "error", err)
		os.Exit(1)
	}
	if err := jobManager.StartAll(); err != nil {
		logger.Error("failed to start jobs", "error", err)
		os.Exit(1)
	}
	defer jobManager.StopAll()

	startWebServer(root, configs, logger)
}

func openDatabase(configs cmd.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		configs.DBHost, configs.DBPort, configs.DBUser,
		configs.DBPassword, configs.DBName, configs.DBSslMode)

	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := gormDB.AutoMigrate(&orderrepo.OrderDTO{}); err != nil {
		return nil, err
	}

	return gormDB, nil
}

func buildJobs(root *cmd.CompositionRoot, logger *slog.Logger) (*jobs.JobManager, error) {
	expireHandler, err := root.CreateExpireStaleOrdersCommandHandler()
	if err != nil {
		return nil, err
	}

	return jobs.NewJobManager(
		expireHandler,
		root.CreateRetryCourierSchedulingCommandHandler(),
		logger,
	), nil
}

func startWebServer(root *cmd.CompositionRoot, configs cmd.Config, logger *slog.Logger) {
	server := httpadapter.NewServer(
		root.CreateCheckoutCommandHandler(),
		root.CreateConfirmPaymentCommandHandler(),
		root.CreateCommitOrderCommandHandler(),
		root.CreateDeclineOrderCommandHandler(),
		root.CreateCancelOrderCommandHandler(),
		root.CreateCancelAfterMissedPickupCommandHandler(),
		root.CreateMarkCollectedCommandHandler(),
		root.CreateMarkDeliveredCommandHandler(),
		root.CreateGetOrderQueryHandler(),
		root.CreateGetSellerOrdersQueryHandler(),
		root.ReservationStore(),
		configs.PaymentSecretKey,
		logger,
	)

	e := echo.New()
	e.HideBanner = true
	server.RegisterRoutes(e)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start("0.0.0.0:" + configs.HTTPPort); err != nil {
			logger.Info("web server stopped", "error", err)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("web server shutdown failed", "error", err)
	}
}

func getConfigs(logger *slog.Logger) cmd.Config {
	if err := godotenv.Load(".env"); err != nil {
		logger.Info("no .env file found, using process environment")
	}

	return cmd.Config{
		HTTPPort:   envOr("HTTP_PORT", "8080"),
		DBHost:     os.Getenv("DB_HOST"),
		DBPort:     envOr("DB_PORT", "5432"),
		DBUser:     os.Getenv("DB_USER"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     os.Getenv("DB_NAME"),
		DBSslMode:  envOr("DB_SSLMODE", "disable"),

		RedisAddr: envOr("REDIS_ADDR", "localhost:6379"),

		KafkaHost:             os.Getenv("KAFKA_HOST"),
		KafkaOrderEventsTopic: envOr("KAFKA_ORDER_EVENTS_TOPIC", "order-events"),

		PaymentBaseURL:   os.Getenv("PAYMENT_BASE_URL"),
		PaymentSecretKey: os.Getenv("PAYMENT_SECRET_KEY"),
		PaymentSandbox:   envBool("PAYMENT_SANDBOX", false),

		CourierProviders:    os.Getenv("COURIER_PROVIDERS"),
		CourierAPIKey:       os.Getenv("COURIER_API_KEY"),
		CourierQuoteTimeout: time.Duration(envInt("COURIER_QUOTE_TIMEOUT_MS", 3000)) * time.Millisecond,
		FallbackDeliveryFee: envInt("FALLBACK_DELIVERY_FEE", 500),

		PlatformFeeBps: envInt("PLATFORM_FEE_BPS", 1000),

		NotifyBaseURL:  os.Getenv("NOTIFY_BASE_URL"),
		ReservationTTL: time.Duration(envInt("RESERVATION_TTL_MINUTES", 30)) * time.Minute,

		ExpiryPendingCommitTTL:   time.Duration(envInt("EXPIRY_PENDING_COMMIT_HOURS", 48)) * time.Hour,
		ExpiryCollectionTTL:      time.Duration(envInt("EXPIRY_COLLECTION_DAYS", 7)) * 24 * time.Hour,
		ExpiryAutoDeliverTTL:     time.Duration(envInt("EXPIRY_AUTO_DELIVER_DAYS", 14)) * 24 * time.Hour,
		ExpiryAutoDeliverEnabled: envBool("EXPIRY_AUTO_DELIVER_ENABLED", true),
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func envInt(key string, fallback int64) int64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		slog.Warn("ignoring malformed numeric env value", "key", key, "value", raw)
		return fallback
	}
	return value
}

func envBool(key string, fallback bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		slog.Warn("ignoring malformed boolean env value", "key", key, "value", raw)
		return fallback
	}
	return value
}
