package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"freshscan/config"
	telegram "freshscan/internal/api"
	"freshscan/internal/container"
	"freshscan/internal/httpc"
	"freshscan/internal/infrastructure/camera"
	"freshscan/internal/infrastructure/imaging"
	"freshscan/internal/infrastructure/inference"
	"freshscan/internal/infrastructure/storage"
	"freshscan/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zlog, err := logger.New(cfg.LogMode)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync(zlog)

	if cfg.TelegramToken == "" {
		zlog.Fatal("TELEGRAM_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Камера хоста
	cam := camera.NewGoCVCamera(camera.Config{
		Device: cfg.CameraDevice,
		Width:  cfg.CameraWidth,
		Height: cfg.CameraHeight,
	}, zlog)

	// Клиент модулей классификации
	uploader := inference.NewClient(cfg.InferenceBaseURL, httpc.NewClient(cfg.UploadTimeout), zlog)

	// Собираем сервисы приложения
	appContainer := container.New(container.Deps{
		Users:      storage.NewMemoryUserRepository(),
		Camera:     cam,
		Encoder:    imaging.NewEncoder(cfg.JPEGQuality, zlog),
		Uploader:   uploader,
		Normalizer: inference.Normalizer{},
		Log:        zlog,
	})
	defer appContainer.Close()

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, httpc.NewClient(cfg.UploadTimeout), zlog)
	if err != nil {
		zlog.Fatal("failed to create bot", zap.Error(err))
	}

	zlog.Info("bot is running",
		zap.String("inference", cfg.InferenceBaseURL),
		zap.String("camera", cfg.CameraDevice),
	)
	if err := bot.Run(ctx); err != nil {
		zlog.Error("bot stopped", zap.Error(err))
	}
	zlog.Info("shutting down")
}
