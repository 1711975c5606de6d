package repository

import (
	"github.com/yourusername/quizdash-api/internal/domain/entity"
)

// RefreshTokenRepository интерфейс для работы с refresh-токенами
type RefreshTokenRepository interface {
	// Create сохраняет новый refresh-токен
	Create(token *entity.RefreshToken) error

	// GetByHash находит refresh-токен по SHA-256 хешу его значения
	GetByHash(tokenHash string) (*entity.RefreshToken, error)

	// Revoke помечает токен отозванным с причиной
	Revoke(tokenHash string, reason string) error

	// RevokeAllForUser отзывает все активные токены пользователя
	RevokeAllForUser(userID uint, reason string) error

	// EnforceSessionLimit отзывает самые старые активные токены пользователя,
	// оставляя не более limit активных сессий
	EnforceSessionLimit(userID uint, limit int) error

	// CleanupExpired удаляет просроченные и отозванные токены, возвращает число удаленных
	CleanupExpired() (int64, error)
}
