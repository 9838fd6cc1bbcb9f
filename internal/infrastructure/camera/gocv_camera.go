//go:build gocv
// +build gocv

package camera

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"go.uber.org/zap"
	"gocv.io/x/gocv"
	"golang.org/x/image/draw"

	"freshscan/internal/domain/entity"
	"freshscan/internal/domain/port"
)

// GoCVCamera открывает устройство через gocv.VideoCapture.
type GoCVCamera struct {
	cfg Config
	log *zap.Logger
}

// NewGoCVCamera создаёт камеру с заданной конфигурацией.
func NewGoCVCamera(cfg Config, log *zap.Logger) *GoCVCamera {
	if log == nil {
		log = zap.NewNop()
	}
	return &GoCVCamera{cfg: cfg, log: log.Named("camera")}
}

type openResult struct {
	vc  *gocv.VideoCapture
	err error
}

// Open открывает устройство. gocv не принимает контекст, поэтому открытие
// идёт в отдельной горутине; при отмене ctx устройство закрывается после
// завершения открытия.
func (c *GoCVCamera) Open(ctx context.Context) (port.Stream, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrDeviceUnavailable, err)
	}

	ch := make(chan openResult, 1)
	go func() {
		vc, err := gocv.OpenVideoCapture(c.cfg.Device)
		ch <- openResult{vc: vc, err: err}
	}()

	select {
	case <-ctx.Done():
		go func() {
			if r := <-ch; r.vc != nil {
				r.vc.Close()
			}
		}()
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			if r.vc != nil {
				r.vc.Close()
			}
			return nil, fmt.Errorf("%w: %v", entity.ErrDeviceUnavailable, r.err)
		}
		if !r.vc.IsOpened() {
			r.vc.Close()
			return nil, fmt.Errorf("%w: device %s is not opened", entity.ErrDeviceUnavailable, c.cfg.Device)
		}
		if c.cfg.Width > 0 {
			r.vc.Set(gocv.VideoCaptureFrameWidth, float64(c.cfg.Width))
			r.vc.Set(gocv.VideoCaptureFrameHeight, float64(c.cfg.Height))
		}
		c.log.Info("camera opened", zap.String("device", c.cfg.Device))
		return &gocvStream{vc: r.vc, log: c.log}, nil
	}
}

type gocvStream struct {
	mu     sync.Mutex
	vc     *gocv.VideoCapture
	closed bool
	log    *zap.Logger
}

// Read читает кадр и переводит его в RGBA.
func (s *gocvStream) Read() (entity.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return entity.Frame{}, entity.ErrNoActiveStream
	}

	mat := gocv.NewMat()
	defer mat.Close()

	if ok := s.vc.Read(&mat); !ok || mat.Empty() {
		return entity.Frame{}, errors.New("camera returned an empty frame")
	}

	img, err := mat.ToImage()
	if err != nil {
		return entity.Frame{}, fmt.Errorf("convert frame: %w", err)
	}

	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	return entity.Frame{Pix: rgba.Pix, Width: b.Dx(), Height: b.Dy()}, nil
}

// Close закрывает устройство. Повторный вызов ничего не делает.
func (s *gocvStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.log.Info("camera closed")
	return s.vc.Close()
}

var _ port.Camera = (*GoCVCamera)(nil)
