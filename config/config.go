package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultInferenceURL  = "http://127.0.0.1:8000"
	defaultCameraDevice  = "0"
	defaultUploadTimeout = 30 * time.Second
	defaultJPEGQuality   = 85
)

type Config struct {
	TelegramToken string

	// InferenceBaseURL адрес сервера модулей классификации
	InferenceBaseURL string
	UploadTimeout    time.Duration

	CameraDevice string
	CameraWidth  int
	CameraHeight int

	JPEGQuality int
	// LogMode "release" включает JSON-логи, иначе консольный вывод
	LogMode string
}

func Load() (*Config, error) {
	// Загружаем .env файл (игнорируем ошибку если файла нет)
	_ = godotenv.Load()

	cfg := &Config{
		TelegramToken:    os.Getenv("TELEGRAM_TOKEN"),
		InferenceBaseURL: envOr("INFERENCE_BASE_URL", defaultInferenceURL),
		CameraDevice:     envOr("CAMERA_DEVICE", defaultCameraDevice),
		LogMode:          os.Getenv("LOG_MODE"),
	}

	var err error
	if cfg.CameraWidth, err = envInt("CAMERA_WIDTH", 0); err != nil {
		return nil, err
	}
	if cfg.CameraHeight, err = envInt("CAMERA_HEIGHT", 0); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality, err = envInt("JPEG_QUALITY", defaultJPEGQuality); err != nil {
		return nil, err
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, fmt.Errorf("JPEG_QUALITY must be in 1..100, got %d", cfg.JPEGQuality)
	}

	cfg.UploadTimeout = defaultUploadTimeout
	if v := os.Getenv("UPLOAD_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid UPLOAD_TIMEOUT %q", v)
		}
		cfg.UploadTimeout = d
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q", key, v)
	}
	return n, nil
}
