package storage

import (
	"context"
	"sync"

	"freshscan/internal/domain/entity"
	"freshscan/internal/domain/port"
)

// MemoryUserRepository in-memory хранилище операторов
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[int64]*entity.User
}

// NewMemoryUserRepository создаёт новое in-memory хранилище
func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[int64]*entity.User),
	}
}

// Get возвращает копию оператора по ID, создаёт нового если не найден
func (r *MemoryUserRepository) Get(ctx context.Context, userID, chatID int64) (*entity.User, error) {
	r.mu.RLock()
	user, exists := r.users[userID]
	r.mu.RUnlock()

	if exists {
		u := *user
		return &u, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Другой запрос мог создать оператора между блокировками.
	if user, exists := r.users[userID]; exists {
		u := *user
		return &u, nil
	}
	newUser := entity.NewUser(userID, chatID)
	r.users[userID] = newUser

	u := *newUser
	return &u, nil
}

// Save сохраняет оператора
func (r *MemoryUserRepository) Save(ctx context.Context, user *entity.User) error {
	u := *user
	r.mu.Lock()
	r.users[user.ID] = &u
	r.mu.Unlock()

	return nil
}

// SelectModule меняет активный модуль оператора
func (r *MemoryUserRepository) SelectModule(ctx context.Context, userID int64, module entity.ModuleID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if user, exists := r.users[userID]; exists {
		user.SelectModule(module)
	}

	return nil
}

// Проверка реализации интерфейса
var _ port.UserRepository = (*MemoryUserRepository)(nil)
