package entity

import (
	"time"

	"github.com/google/uuid"
)

// NormalizedResult — результат модуля, приведённый к фиксированной форме.
// Реализуется только типами этого пакета.
type NormalizedResult interface {
	Shape() ResponseShape
	sealed()
}

// LabelField одна пара ключ/значение из ответа label-extraction
type LabelField struct {
	Key   string
	Value string
}

// LabelsResult поля этикетки в порядке ответа сервера
type LabelsResult struct {
	Fields []LabelField
}

// ExpiryResult даты срока годности
type ExpiryResult struct {
	HighestDate    string
	RawText        string
	ExtractedDates []string
}

// FreshnessResult прогноз срока хранения
type FreshnessResult struct {
	PredictedShelfLife float64
}

// BrandResult ответ brand-recognition без изменений.
// Контракт сервера не зафиксирован, поэтому структура не разбирается.
// Raw может не быть корректным JSON.
type BrandResult struct {
	Raw []byte
}

func (LabelsResult) Shape() ResponseShape    { return ShapeLabels }
func (ExpiryResult) Shape() ResponseShape    { return ShapeExpiry }
func (FreshnessResult) Shape() ResponseShape { return ShapeFreshness }
func (BrandResult) Shape() ResponseShape     { return ShapeBrand }

func (LabelsResult) sealed()    {}
func (ExpiryResult) sealed()    {}
func (FreshnessResult) sealed() {}
func (BrandResult) sealed()     {}

// UploadStatus статус попытки загрузки
type UploadStatus string

const (
	UploadPending UploadStatus = "pending"
	UploadSuccess UploadStatus = "success"
	UploadError   UploadStatus = "error"
)

// UploadResult одна попытка отправки изображения. Следующая попытка заменяет её целиком.
type UploadResult struct {
	ID         uuid.UUID
	ModuleID   ModuleID
	Status     UploadStatus
	Payload    NormalizedResult
	Err        error
	StartedAt  time.Time
	FinishedAt time.Time
}

// NewUploadResult создаёт попытку в статусе pending.
func NewUploadResult(moduleID ModuleID) *UploadResult {
	return &UploadResult{
		ID:        uuid.New(),
		ModuleID:  moduleID,
		Status:    UploadPending,
		StartedAt: time.Now(),
	}
}

// Succeed завершает попытку с результатом.
func (r *UploadResult) Succeed(payload NormalizedResult) {
	r.Status = UploadSuccess
	r.Payload = payload
	r.Err = nil
	r.FinishedAt = time.Now()
}

// Fail завершает попытку с ошибкой.
func (r *UploadResult) Fail(err error) {
	r.Status = UploadError
	r.Payload = nil
	r.Err = err
	r.FinishedAt = time.Now()
}
