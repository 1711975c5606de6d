package postgres

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
)

// RefreshTokenRepo реализует repository.RefreshTokenRepository
type RefreshTokenRepo struct {
	db *gorm.DB
}

// NewRefreshTokenRepo создает новый репозиторий refresh-токенов
func NewRefreshTokenRepo(db *gorm.DB) *RefreshTokenRepo {
	return &RefreshTokenRepo{db: db}
}

// Create сохраняет новый refresh-токен
func (r *RefreshTokenRepo) Create(token *entity.RefreshToken) error {
	return r.db.Create(token).Error
}

// GetByHash находит refresh-токен по SHA-256 хешу значения
func (r *RefreshTokenRepo) GetByHash(tokenHash string) (*entity.RefreshToken, error) {
	var token entity.RefreshToken
	err := r.db.Where("token_hash = ?", tokenHash).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &token, nil
}

// Revoke помечает токен отозванным
func (r *RefreshTokenRepo) Revoke(tokenHash string, reason string) error {
	return r.db.Model(&entity.RefreshToken{}).
		Where("token_hash = ? AND revoked_at IS NULL", tokenHash).
		Updates(map[string]interface{}{
			"revoked_at": time.Now(),
			"reason":     reason,
		}).Error
}

// RevokeAllForUser отзывает все активные токены пользователя
func (r *RefreshTokenRepo) RevokeAllForUser(userID uint, reason string) error {
	return r.db.Model(&entity.RefreshToken{}).
		Where("user_id = ? AND revoked_at IS NULL", userID).
		Updates(map[string]interface{}{
			"revoked_at": time.Now(),
			"reason":     reason,
		}).Error
}

// EnforceSessionLimit отзывает самые старые активные токены пользователя,
// оставляя не более limit активных сессий
func (r *RefreshTokenRepo) EnforceSessionLimit(userID uint, limit int) error {
	if limit <= 0 {
		return nil
	}

	var tokens []entity.RefreshToken
	err := r.db.Where("user_id = ? AND revoked_at IS NULL AND expires_at > ?", userID, time.Now()).
		Order("created_at DESC").
		Find(&tokens).Error
	if err != nil {
		return err
	}

	if len(tokens) <= limit {
		return nil
	}

	// Все токены после первых limit (самых свежих) отзываем
	ids := make([]uint, 0, len(tokens)-limit)
	for _, t := range tokens[limit:] {
		ids = append(ids, t.ID)
	}

	return r.db.Model(&entity.RefreshToken{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{
			"revoked_at": time.Now(),
			"reason":     "session limit exceeded",
		}).Error
}

// CleanupExpired удаляет просроченные и отозванные токены
func (r *RefreshTokenRepo) CleanupExpired() (int64, error) {
	result := r.db.Where("expires_at < ? OR revoked_at IS NOT NULL", time.Now()).
		Delete(&entity.RefreshToken{})
	return result.RowsAffected, result.Error
}
