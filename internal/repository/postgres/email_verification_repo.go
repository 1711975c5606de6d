package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
)

// EmailVerificationRepo реализует repository.EmailVerificationRepository
type EmailVerificationRepo struct {
	db *gorm.DB
}

// NewEmailVerificationRepo создает новый репозиторий кодов подтверждения
func NewEmailVerificationRepo(db *gorm.DB) *EmailVerificationRepo {
	return &EmailVerificationRepo{db: db}
}

// Create сохраняет новый код подтверждения
func (r *EmailVerificationRepo) Create(code *entity.EmailVerificationCode) error {
	return r.db.Create(code).Error
}

// GetLatestActiveByUserID возвращает последний непогашенный код пользователя
func (r *EmailVerificationRepo) GetLatestActiveByUserID(userID uint) (*entity.EmailVerificationCode, error) {
	var code entity.EmailVerificationCode
	err := r.db.Where("user_id = ? AND consumed_at IS NULL", userID).
		Order("created_at DESC").
		First(&code).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &code, nil
}

// IncrementAttempts увеличивает счетчик неудачных попыток ввода кода
func (r *EmailVerificationRepo) IncrementAttempts(id uint) error {
	return r.db.Model(&entity.EmailVerificationCode{}).
		Where("id = ?", id).
		UpdateColumn("attempt_count", gorm.Expr("attempt_count + ?", 1)).
		Error
}

// MarkConsumed помечает код использованным
func (r *EmailVerificationRepo) MarkConsumed(id uint) error {
	return r.db.Model(&entity.EmailVerificationCode{}).
		Where("id = ?", id).
		Update("consumed_at", time.Now()).Error
}

// DeleteByUserID удаляет все коды пользователя (перед выпуском нового)
func (r *EmailVerificationRepo) DeleteByUserID(userID uint) error {
	return r.db.Where("user_id = ?", userID).
		Delete(&entity.EmailVerificationCode{}).Error
}
