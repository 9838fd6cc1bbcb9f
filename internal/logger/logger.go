package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New создаёт логгер. mode "release" включает JSON-вывод для продакшена,
// любое другое значение даёт цветной консольный вывод.
func New(mode string) (*zap.Logger, error) {
	var config zap.Config

	if mode == "release" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	return config.Build()
}

// Sync сбрасывает буфер логгера. Ошибка sync для stderr игнорируется.
func Sync(log *zap.Logger) {
	if log != nil {
		_ = log.Sync()
	}
}
