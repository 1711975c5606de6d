package repository

import "github.com/yourusername/quizdash-api/internal/domain/entity"

// EmailVerificationRepository хранит коды подтверждения email
type EmailVerificationRepository interface {
	Create(code *entity.EmailVerificationCode) error
	GetLatestActiveByUserID(userID uint) (*entity.EmailVerificationCode, error)
	IncrementAttempts(id uint) error
	MarkConsumed(id uint) error
	DeleteByUserID(userID uint) error
}
