package repository

import (
	"github.com/yourusername/quizdash-api/internal/domain/entity"
)

// UserRepository определяет методы для работы с профилями пользователей
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uint) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
	Update(user *entity.User) error
	MarkEmailVerified(userID uint) error

	// AddToTotalScore прибавляет очки завершенной сессии к накопленному счету.
	// Реализация читает текущее значение и записывает сумму (read-then-write);
	// см. DESIGN.md о сознательно сохраненной гонке lost-update.
	AddToTotalScore(userID uint, delta int64) error

	// GetLeaderboard возвращает топ пользователей по накопленному счету
	GetLeaderboard(limit int) ([]entity.User, error)
}
