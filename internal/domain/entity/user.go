package entity

// User оператор бота
type User struct {
	ID           int64    // Telegram User ID
	ChatID       int64    // Telegram Chat ID
	ActiveModule ModuleID // Модуль, к которому относятся команды и фото
}

// NewUser создаёт оператора с модулем по умолчанию
func NewUser(userID, chatID int64) *User {
	return &User{
		ID:           userID,
		ChatID:       chatID,
		ActiveModule: ModuleLabel,
	}
}

// SelectModule переключает активный модуль
func (u *User) SelectModule(id ModuleID) {
	u.ActiveModule = id
}
