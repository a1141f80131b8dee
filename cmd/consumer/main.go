package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	_ "github.com/ClickHouse/clickhouse-go"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/clickhouse"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/config"
	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/consumer"
	"github.com/Motje3/QR-Scanner-Tracking-sub000/internal/repository"
	"github.com/Motje3/QR-Scanner-Tracking-sub000/pkg/logger"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		panic(err)
	}
	log, err := logger.New(logger.Options{Service: "tracking-consumer", Dir: cfg.LogDir, Production: cfg.IsProduction()})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	// Подключаемся к NATS
	nc, err := nats.Connect(cfg.NATSURL, nats.Name("tracking-consumer"))
	if err != nil {
		log.Fatal("failed to connect to NATS", zap.Error(err))
	}
	defer nc.Close()

	// Подключаемся к ClickHouse
	db, err := sql.Open("clickhouse", cfg.ClickhouseDSN)
	if err != nil {
		log.Fatal("failed to connect to ClickHouse", zap.Error(err))
	}
	defer func() { _ = db.Close() }()

	// Применяем миграции ClickHouse с помощью golang-migrate
	driver, err := clickhouse.WithInstance(db, &clickhouse.Config{})
	if err != nil {
		log.Fatal("failed to create ClickHouse migrate driver", zap.Error(err))
	}
	m, err := migrate.NewWithDatabaseInstance(
		"file://"+filepath.Join(cfg.MigrationsDir, "clickhouse"), "clickhouse", driver,
	)
	if err != nil {
		log.Fatal("failed to create ClickHouse migrate instance", zap.Error(err))
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		log.Fatal("failed to apply ClickHouse migrations", zap.Error(err))
	}

	// Создаём репозиторий и консьюмера
	repo := repository.NewClickhouseRepo(db, log.Named("clickhouse"))
	cons := consumer.NewConsumer(repo, cfg.BatchSize, log.Named("consumer"))

	// Периодически сбрасываем неполный пакет
	sched := cron.New()
	if _, err := cons.ScheduleFlush(sched, cfg.FlushSchedule); err != nil {
		log.Fatal("invalid FLUSH_SCHEDULE", zap.String("schedule", cfg.FlushSchedule), zap.Error(err))
	}
	sched.Start()

	// HTTP-сервер для healthz и readyz
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, map[string]interface{}{"status": "ok"})
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if !nc.IsConnected() {
			writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unavailable", "nats": nc.Status().String()})
			return
		}
		if err := db.PingContext(ctx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, map[string]interface{}{"status": "unavailable", "clickhouse": err.Error()})
			return
		}
		writeStatus(w, http.StatusOK, map[string]interface{}{"status": "ready", "pending": cons.Pending(), "dropped": cons.Dropped()})
	})
	healthSrv := &http.Server{Addr: ":" + cfg.ConsumerPort, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.Info("starting health server", zap.String("port", cfg.ConsumerPort))
		if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("health server failed", zap.Error(err))
		}
	}()

	// Подписываемся на тему NATS
	sub, err := nc.Subscribe(cfg.NATSSubject, func(msg *nats.Msg) {
		if err := cons.HandleMessage(context.Background(), msg.Data); err != nil {
			log.Warn("failed to handle message", zap.Error(err))
		}
	})
	if err != nil {
		log.Fatal("failed to subscribe", zap.String("subject", cfg.NATSSubject), zap.Error(err))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	log.Info("shutting down consumer")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := healthSrv.Shutdown(ctx); err != nil {
		log.Warn("health server shutdown failed", zap.Error(err))
	}
	// Отписываемся, останавливаем планировщик и сбрасываем оставшиеся события
	if err := sub.Unsubscribe(); err != nil {
		log.Warn("failed to unsubscribe", zap.Error(err))
	}
	<-sched.Stop().Done()
	if err := cons.Flush(ctx); err != nil {
		log.Error("failed to flush consumer events", zap.Error(err), zap.Int("pending", cons.Pending()))
	}
}

func writeStatus(w http.ResponseWriter, status int, body map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
