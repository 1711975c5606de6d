package repository

import (
	"github.com/yourusername/quizdash-api/internal/domain/entity"
)

// AttemptRepository определяет методы для работы с записями о попытках.
// Попытки insert-only: записываются при завершении сессии и не изменяются.
type AttemptRepository interface {
	Create(attempt *entity.QuizAttempt) error
	GetByUserID(userID uint, limit, offset int) ([]entity.QuizAttempt, error)
}
