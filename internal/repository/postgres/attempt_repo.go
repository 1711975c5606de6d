package postgres

import (
	"gorm.io/gorm"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
)

// AttemptRepo реализует repository.AttemptRepository
type AttemptRepo struct {
	db *gorm.DB
}

// NewAttemptRepo создает новый репозиторий попыток
func NewAttemptRepo(db *gorm.DB) *AttemptRepo {
	return &AttemptRepo{db: db}
}

// Create сохраняет запись о завершенной сессии
func (r *AttemptRepo) Create(attempt *entity.QuizAttempt) error {
	return r.db.Create(attempt).Error
}

// GetByUserID возвращает историю попыток пользователя, новые первыми
func (r *AttemptRepo) GetByUserID(userID uint, limit, offset int) ([]entity.QuizAttempt, error) {
	var attempts []entity.QuizAttempt
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&attempts).Error
	return attempts, err
}
