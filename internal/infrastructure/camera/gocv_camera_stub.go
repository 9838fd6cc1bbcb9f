//go:build !gocv
// +build !gocv

package camera

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"freshscan/internal/domain/entity"
	"freshscan/internal/domain/port"
)

// GoCVCamera заглушка для сборки без OpenCV.
type GoCVCamera struct {
	cfg Config
	log *zap.Logger
}

// NewGoCVCamera создаёт камеру-заглушку (без OpenCV).
func NewGoCVCamera(cfg Config, log *zap.Logger) *GoCVCamera {
	if log == nil {
		log = zap.NewNop()
	}
	return &GoCVCamera{cfg: cfg, log: log.Named("camera")}
}

// Open всегда возвращает ErrDeviceUnavailable, если сборка без тега gocv.
func (c *GoCVCamera) Open(context.Context) (port.Stream, error) {
	c.log.Warn("camera requested but binary was built without gocv", zap.String("device", c.cfg.Device))
	return nil, fmt.Errorf("%w: gocv build tag is not enabled", entity.ErrDeviceUnavailable)
}

var _ port.Camera = (*GoCVCamera)(nil)
