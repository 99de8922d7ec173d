package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/labcare/pmc-service/config"
	"github.com/labcare/pmc-service/internal/broker"
	"github.com/labcare/pmc-service/internal/cache"
	"github.com/labcare/pmc-service/internal/database/postgres"
	"github.com/labcare/pmc-service/internal/logger"
	"github.com/labcare/pmc-service/internal/maintenance"
	"github.com/labcare/pmc-service/internal/middleware"

	pmcH "github.com/labcare/pmc-service/internal/maintenance/handler"
	pmcListenerPkg "github.com/labcare/pmc-service/internal/maintenance/listener"
	pmcRepoPkg "github.com/labcare/pmc-service/internal/maintenance/repository"
	pmcUCPkg "github.com/labcare/pmc-service/internal/maintenance/usecase"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
		ServiceName:       "pmc-service",
	}

	if cfg.Server.AppEnv == "development" || cfg.Server.AppEnv == "dev" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Unit of Work (binds report, asset and service-log repositories)
	uow := pmcRepoPkg.NewUnitOfWork(db)

	// 5. Initialize Redis. The service still runs without it, reading from Postgres.
	var readCache maintenance.ReadCache
	if cfg.Redis.Enabled {
		redisClient, err := cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, report reads are uncached", zap.Error(err))
		} else {
			defer redisClient.Close()
			readCache = redisClient
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
		}
	}

	// 5.5 Initialize Kafka producer and consumer
	var (
		publisher     maintenance.EventPublisher
		kafkaConsumer *broker.KafkaConsumer
	)
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.EventsTopic,
		})
		defer producer.Close()
		publisher = producer

		kafkaConsumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.SubmissionsTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		defer kafkaConsumer.Close()
		appLogger.Info("Connected to Kafka",
			zap.Strings("brokers", cfg.Kafka.Brokers),
			zap.String("submissions_topic", cfg.Kafka.SubmissionsTopic),
			zap.String("events_topic", cfg.Kafka.EventsTopic),
		)
	}

	// 6. Initialize UseCase
	pmcUC := pmcUCPkg.NewMaintenanceUseCase(uow, readCache, publisher, pmcUCPkg.Config{
		CacheTTL:       cfg.Cache.ReportDetailTTL,
		CacheKeyPrefix: cfg.Cache.KeyPrefix,
	}, appLogger)

	// 6.5 Initialize Listener
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if kafkaConsumer != nil {
		pmcListener := pmcListenerPkg.NewSubmissionListener(kafkaConsumer, pmcUC, appLogger)
		go pmcListener.Start(ctx)
	}

	// 7. Initialize Handler
	pmcHandler := pmcH.NewMaintenanceHandler(pmcUC, appLogger)

	// 8. Start gRPC Server
	port := cfg.Server.GRPCPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	lis, err := net.Listen("tcp", port)
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(middleware.ContextInterceptor(appLogger)),
	)

	// Register Services
	pmcH.RegisterMaintenanceServiceServer(grpcServer, pmcHandler)

	// Register Reflection
	reflection.Register(grpcServer)

	appLogger.Info("Starting gRPC server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}
