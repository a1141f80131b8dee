package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	nats "github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/config"
	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/repository"
	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/service"
	externalHttp "github.com/Motje3/QR-Scanner-Tracking-sub000/internal/transport/http"
	"github.com/Motje3/QR-Scanner-Tracking-sub000/pkg/cache"
	"github.com/Motje3/QR-Scanner-Tracking-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}
	log, err := logger.New(logger.Options{Service: "tracking-api", Dir: cfg.LogDir, Production: cfg.IsProduction()})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	loc, err := cfg.Location()
	if err != nil {
		log.Fatal("invalid TIME_ZONE", zap.String("tz", cfg.TimeZone), zap.Error(err))
	}

	// подключаем Postgres
	db, err := sql.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		log.Fatal("failed to connect to Postgres", zap.Error(err))
	}
	defer func() { _ = db.Close() }()
	if err := db.Ping(); err != nil {
		log.Fatal("failed to ping Postgres", zap.Error(err))
	}

	// Применяем миграции Postgres с помощью golang-migrate
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal("failed to create migrate driver", zap.Error(err))
	}
	m, err := migrate.NewWithDatabaseInstance(
		"file://"+filepath.Join(cfg.MigrationsDir, "postgres"), "postgres", driver,
	)
	if err != nil {
		log.Fatal("failed to create migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to apply migrations", zap.Error(err))
	}

	// подключаем Redis
	cacheClient := cache.NewRedisClient(&redis.Options{Addr: cfg.RedisAddr}, "tracking:")
	// подключаем NATS
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("tracking-api"))
	if err != nil {
		log.Fatal("failed to connect to NATS", zap.Error(err))
	}
	events := logger.NewClient(nc, cfg.NATSSubject, log.Named("events"))

	// создаем репозитории и сервисы
	shipments := service.NewShipmentService(repository.NewShipmentRepository(db), cacheClient, events, cfg.RedisTTL)
	issues := service.NewIssueReportService(repository.NewIssueReportRepository(db), cacheClient, events, cfg.RedisTTL)
	stats := service.NewStatsService(repository.NewStatsRepository(db), loc)

	// настраиваем HTTP маршруты и middleware
	r := mux.NewRouter()
	r.Use(externalHttp.RequestIDMiddleware)
	r.Use(externalHttp.LoggingMiddleware(log.Named("http")))
	r.Use(externalHttp.ActorMiddleware(cfg.JWTSecret))
	h := externalHttp.NewHandler(shipments, issues, stats, log.Named("http"))
	h.AddReadinessCheck("postgres", db.PingContext)
	h.AddReadinessCheck("redis", cacheClient.Ping)
	h.RegisterRoutes(r)
	if cfg.JWTSecret == "" {
		log.Warn("JWT_SECRET is empty, actor is taken from the " + externalHttp.DevActorHeader + " header")
	}

	// запускаем HTTP сервер с поддержкой graceful shutdown
	srvHttp := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("starting server", zap.String("addr", cfg.HTTPAddr))
		if err := srvHttp.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srvHttp.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", zap.Error(err))
	}
	if err := cacheClient.Close(); err != nil {
		log.Warn("failed to close Redis client", zap.Error(err))
	}
	// корректно дренируем и закрываем NATS-соединение
	if err := nc.Drain(); err != nil {
		log.Warn("failed to drain NATS connection", zap.Error(err))
	}
	nc.Close()
	log.Info("server exited properly")
}
