package port

import (
	"context"

	"freshscan/internal/domain/entity"
)

// UserRepository интерфейс хранилища операторов
type UserRepository interface {
	// Get возвращает оператора по ID, создаёт нового если не найден
	Get(ctx context.Context, userID, chatID int64) (*entity.User, error)

	// Save сохраняет оператора
	Save(ctx context.Context, user *entity.User) error

	// SelectModule меняет активный модуль оператора
	SelectModule(ctx context.Context, userID int64, module entity.ModuleID) error
}
