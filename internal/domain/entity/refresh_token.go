package entity

import "time"

// RefreshToken хранит запись о refresh-токене (модель hash-only: сырой токен
// знает только клиент, в БД лежит SHA-256 хеш).
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"not null;index" json:"user_id"`
	TokenHash string     `gorm:"column:token_hash;type:text;not null;uniqueIndex" json:"-"`
	IPAddress string     `gorm:"size:50;not null;default:''" json:"ip_address"`
	UserAgent string     `gorm:"type:text;not null;default:''" json:"user_agent"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	Reason    string     `gorm:"size:255" json:"reason,omitempty"`
}

// TableName определяет имя таблицы для GORM
func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

// NewRefreshToken создает запись refresh-токена по готовому SHA-256 хешу
func NewRefreshToken(userID uint, tokenHash, ipAddress, userAgent string, expiresAt time.Time) *RefreshToken {
	return &RefreshToken{
		UserID:    userID,
		TokenHash: tokenHash,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

// IsValid проверяет, что токен не отозван и не истек
func (rt *RefreshToken) IsValid() bool {
	return rt.RevokedAt == nil && rt.ExpiresAt.After(time.Now())
}

// Revoke помечает токен отозванным с указанием причины
func (rt *RefreshToken) Revoke(reason string) {
	now := time.Now()
	rt.RevokedAt = &now
	rt.Reason = reason
}
