package port

import (
	"context"
	"encoding/json"

	"freshscan/internal/domain/entity"
)

// ImageEncoder готовит изображение к отправке
type ImageEncoder interface {
	FromFile(data []byte, mimeType string) (*entity.CapturedImage, error)
	FromFrame(frame entity.Frame) (*entity.CapturedImage, error)
	Resize(img *entity.CapturedImage, maxWidth, maxHeight int) (*entity.CapturedImage, error)
}

// Uploader отправляет изображение на эндпоинт модуля
type Uploader interface {
	// Upload выполняет ровно одну попытку и возвращает тело ответа 2xx
	Upload(ctx context.Context, module entity.Module, img *entity.CapturedImage) (json.RawMessage, error)
}

// ResponseNormalizer приводит ответ сервера к форме модуля
type ResponseNormalizer interface {
	Normalize(module entity.Module, raw json.RawMessage) (entity.NormalizedResult, error)
}
