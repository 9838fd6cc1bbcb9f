package port

import (
	"context"

	"freshscan/internal/domain/entity"
)

// Camera открывает видеоустройство
type Camera interface {
	// Open запрашивает доступ к устройству. Возвращает ошибку, обёрнутую в
	// entity.ErrDeviceUnavailable, если устройства нет или доступ запрещён.
	Open(ctx context.Context) (Stream, error)
}

// Stream открытый поток с устройства
type Stream interface {
	// Read читает текущий кадр в разрешении устройства
	Read() (entity.Frame, error)

	// Close останавливает поток и освобождает устройство
	Close() error
}
