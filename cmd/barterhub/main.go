package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rajivgeraev/barterhub/internal/auth"
	"github.com/rajivgeraev/barterhub/internal/config"
	"github.com/rajivgeraev/barterhub/internal/db"
	"github.com/rajivgeraev/barterhub/internal/events"
	applog "github.com/rajivgeraev/barterhub/internal/logger"
	"github.com/rajivgeraev/barterhub/internal/realtime"
	"github.com/rajivgeraev/barterhub/internal/server"
	"github.com/rajivgeraev/barterhub/internal/websocket"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}

	logger := applog.New(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализируем базу данных
	pool, err := db.NewPool(ctx, cfg, logger)
	if err != nil {
		logger.WithError(err).Fatal("❌ Ошибка при инициализации базы данных")
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.RunMigrations(ctx, pool, logger); err != nil {
			logger.WithError(err).Fatal("❌ Ошибка при применении миграций")
		}
	}

	jwtService := auth.NewJWTService(cfg.JWTSecret, cfg.JWTAudience)
	manager := websocket.NewManager(logger)

	// Доставка уведомлений: через Redis между инстансами или напрямую в локальные соединения
	var push realtime.Publisher = realtime.NewLocalPublisher(manager)
	if cfg.RedisURL != "" {
		client, err := realtime.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.WithError(err).Fatal("❌ Ошибка подключения к Redis")
		}
		defer client.Close()

		push = realtime.NewRedisPublisher(client, realtime.DefaultChannel)
		relay := realtime.NewRelay(client, realtime.DefaultChannel, manager, logger)
		go func() {
			if err := relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.WithError(err).Error("Redis relay остановлен")
			}
		}()
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		defer producer.Close()
		publisher = producer
	}

	srv := server.New(cfg, server.Deps{
		Store:    db.NewStore(pool),
		Tokens:   jwtService,
		Events:   publisher,
		Realtime: push,
	}, logger)
	manager.OnNotificationRead(srv.Notifications.MarkRead)

	realtimeServer := &http.Server{
		Addr:              ":" + cfg.RealtimePort,
		Handler:           server.RealtimeHandler(websocket.NewHandler(manager, jwtService)),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Infof("✅ Realtime-лента запущена на порту %s", cfg.RealtimePort)
		if err := realtimeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("❌ Ошибка realtime-сервера")
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("Остановка BarterHub API")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		manager.Shutdown()
		if err := realtimeServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Ошибка остановки realtime-сервера")
		}
		if err := srv.App.ShutdownWithContext(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Ошибка остановки HTTP-сервера")
		}
	}()

	// Запускаем сервер
	logger.Infof("✅ BarterHub API запущен на порту %s", cfg.Port)
	if err := srv.App.Listen(":" + cfg.Port); err != nil {
		logger.WithError(err).Fatal("❌ Ошибка HTTP-сервера")
	}

	// Дожидаемся уведомлений и событий по уже зафиксированным операциям
	drainCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Cascade.Shutdown(drainCtx); err != nil {
		logger.WithError(err).Warn("Не все побочные эффекты завершены")
	}
}
