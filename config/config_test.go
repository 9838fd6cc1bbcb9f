package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"INFERENCE_BASE_URL", "CAMERA_DEVICE", "CAMERA_WIDTH", "CAMERA_HEIGHT", "UPLOAD_TIMEOUT", "JPEG_QUALITY"} {
		t.Setenv(key, "")
	}
	t.Setenv("TELEGRAM_TOKEN", "token")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "token", cfg.TelegramToken)
	require.Equal(t, "http://127.0.0.1:8000", cfg.InferenceBaseURL)
	require.Equal(t, "0", cfg.CameraDevice)
	require.Equal(t, 30*time.Second, cfg.UploadTimeout)
	require.Equal(t, 85, cfg.JPEGQuality)
	require.Zero(t, cfg.CameraWidth)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("INFERENCE_BASE_URL", "http://inference:9000")
	t.Setenv("CAMERA_DEVICE", "/dev/video2")
	t.Setenv("CAMERA_WIDTH", "1280")
	t.Setenv("CAMERA_HEIGHT", "720")
	t.Setenv("UPLOAD_TIMEOUT", "5s")
	t.Setenv("JPEG_QUALITY", "70")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://inference:9000", cfg.InferenceBaseURL)
	require.Equal(t, "/dev/video2", cfg.CameraDevice)
	require.Equal(t, 1280, cfg.CameraWidth)
	require.Equal(t, 720, cfg.CameraHeight)
	require.Equal(t, 5*time.Second, cfg.UploadTimeout)
	require.Equal(t, 70, cfg.JPEGQuality)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"CAMERA_WIDTH":   "wide",
		"UPLOAD_TIMEOUT": "soon",
		"JPEG_QUALITY":   "101",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			t.Setenv(key, value)
			_, err := Load()
			require.Error(t, err)
		})
	}
}
