// Package imaging готовит изображения к отправке: PNG для кадров камеры,
// JPEG с уменьшением для модулей с ограничением размера.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	"image/png"
	"math"
	"net/http"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"freshscan/internal/domain/entity"
	"freshscan/internal/domain/port"
)

// DefaultJPEGQuality качество JPEG после уменьшения
const DefaultJPEGQuality = 85

// Encoder реализует port.ImageEncoder на image/* и x/image/draw.
type Encoder struct {
	Quality int
	log     *zap.Logger
}

// NewEncoder создаёт кодировщик. quality вне 1..100 заменяется на DefaultJPEGQuality.
func NewEncoder(quality int, log *zap.Logger) *Encoder {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Encoder{Quality: quality, log: log.Named("imaging")}
}

// FromFile возвращает байты файла без изменений, определяя только размеры.
func (e *Encoder) FromFile(data []byte, mimeType string) (*entity.CapturedImage, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty file", entity.ErrInvalidImage)
	}
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = http.DetectContentType(data)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero dimensions", entity.ErrInvalidImage)
	}

	buf := make([]byte, len(data))
	copy(buf, data)

	return &entity.CapturedImage{
		Source:   entity.SourceFile,
		Data:     buf,
		MimeType: mimeType,
		Width:    cfg.Width,
		Height:   cfg.Height,
	}, nil
}

// FromFrame кодирует RGBA-кадр в PNG в исходном разрешении.
func (e *Encoder) FromFrame(frame entity.Frame) (*entity.CapturedImage, error) {
	if frame.Width <= 0 || frame.Height <= 0 {
		return nil, fmt.Errorf("%w: frame %dx%d", entity.ErrInvalidImage, frame.Width, frame.Height)
	}
	if len(frame.Pix) < 4*frame.Width*frame.Height {
		return nil, fmt.Errorf("%w: short pixel buffer (%d bytes for %dx%d)",
			entity.ErrInvalidImage, len(frame.Pix), frame.Width, frame.Height)
	}

	img := &image.RGBA{
		Pix:    frame.Pix,
		Stride: 4 * frame.Width,
		Rect:   image.Rect(0, 0, frame.Width, frame.Height),
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}

	return &entity.CapturedImage{
		Source:   entity.SourceLiveFrame,
		Data:     buf.Bytes(),
		MimeType: "image/png",
		Width:    frame.Width,
		Height:   frame.Height,
	}, nil
}

// Resize уменьшает изображение до размеров в пределах maxWidth×maxHeight с
// сохранением пропорций и перекодирует в JPEG. Если изображение уже помещается,
// возвращается без изменений.
func (e *Encoder) Resize(img *entity.CapturedImage, maxWidth, maxHeight int) (*entity.CapturedImage, error) {
	if !img.Valid() {
		return nil, fmt.Errorf("%w: nothing to resize", entity.ErrInvalidImage)
	}
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("invalid bound %dx%d", maxWidth, maxHeight)
	}
	if img.Width <= maxWidth && img.Height <= maxHeight {
		return img, nil
	}

	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", entity.ErrInvalidImage, err)
	}

	w, h := FitWithin(img.Width, img.Height, maxWidth, maxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: e.Quality}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}

	e.log.Debug("image resized",
		zap.Int("from_width", img.Width), zap.Int("from_height", img.Height),
		zap.Int("to_width", w), zap.Int("to_height", h),
		zap.Int("bytes", buf.Len()),
	)

	return &entity.CapturedImage{
		Source:   img.Source,
		Data:     buf.Bytes(),
		MimeType: "image/jpeg",
		Width:    w,
		Height:   h,
	}, nil
}

// FitWithin считает размеры после равномерного уменьшения. Ограничивающая
// сторона получает ровно свою границу, вторая равна round(dim * bound / side).
// Вторая сторона не меньше 1 пикселя: для очень вытянутых изображений
// (например 1000×2 в 224×224) пропорция при этом не сохраняется.
func FitWithin(width, height, maxWidth, maxHeight int) (int, int) {
	if width <= maxWidth && height <= maxHeight {
		return width, height
	}

	sx := float64(maxWidth) / float64(width)
	sy := float64(maxHeight) / float64(height)
	if sx <= sy {
		h := int(math.Round(float64(height) * float64(maxWidth) / float64(width)))
		return maxWidth, clamp(h, 1, maxHeight)
	}
	w := int(math.Round(float64(width) * float64(maxHeight) / float64(height)))
	return clamp(w, 1, maxWidth), maxHeight
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

var _ port.ImageEncoder = (*Encoder)(nil)
