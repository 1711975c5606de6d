package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	"github.com/yourusername/quizdash-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
)

// blacklistKeyPrefix — префикс ключей блеклиста access-токенов в Redis
const blacklistKeyPrefix = "jwt:blacklist:"

// Claims представляет claims JWT access-токена
type Claims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// JWTService создает и проверяет access-токены (HS256).
// Отозванные токены хранятся в Redis-блеклисте по jti до истечения срока.
type JWTService struct {
	secret    []byte
	accessTTL time.Duration
	cache     repository.CacheRepository
}

// NewJWTService создает новый сервис JWT и возвращает ошибку при проблемах
func NewJWTService(secret string, expirationHrs int, cache repository.CacheRepository) (*JWTService, error) {
	if secret == "" {
		return nil, fmt.Errorf("JWT secret is required")
	}
	if expirationHrs <= 0 {
		expirationHrs = 24
	}
	if cache == nil {
		return nil, fmt.Errorf("CacheRepository is required for JWTService")
	}
	return &JWTService{
		secret:    []byte(secret),
		accessTTL: time.Duration(expirationHrs) * time.Hour,
		cache:     cache,
	}, nil
}

// AccessTokenTTL возвращает время жизни access-токена
func (s *JWTService) AccessTokenTTL() time.Duration {
	return s.accessTTL
}

// GenerateAccessToken выпускает подписанный access-токен для пользователя
func (s *JWTService) GenerateAccessToken(user *entity.User) (string, *Claims, error) {
	now := time.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, claims, nil
}

// ParseToken проверяет подпись, срок действия и блеклист access-токена
func (s *JWTService) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok && ve.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperrors.ErrExpiredToken
		}
		return nil, apperrors.ErrUnauthorized
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrUnauthorized
	}

	// Проверяем блеклист (logout). Ошибка Redis здесь не фатальна:
	// лучше пропустить запрос, чем положить всю аутентификацию (fail-open).
	if claims.ID != "" {
		blacklisted, err := s.cache.Exists(blacklistKeyPrefix + claims.ID)
		if err != nil {
			log.Printf("[JWTService] Ошибка проверки блеклиста для jti=%s: %v", claims.ID, err)
		} else if blacklisted {
			return nil, apperrors.ErrUnauthorized
		}
	}

	return claims, nil
}

// InvalidateToken помещает access-токен в блеклист до истечения его срока
func (s *JWTService) InvalidateToken(claims *Claims) error {
	if claims == nil || claims.ID == "" {
		return nil
	}
	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl <= 0 {
		return nil // токен и так истек
	}
	return s.cache.Set(blacklistKeyPrefix+claims.ID, "1", ttl)
}

// GenerateRefreshToken генерирует криптослучайный refresh-токен.
// Возвращает сырое значение (для клиента) и SHA-256 хеш (для БД).
func GenerateRefreshToken() (raw string, hash string, err error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate refresh token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	return raw, HashRefreshToken(raw), nil
}

// HashRefreshToken возвращает SHA-256 хеш сырого refresh-токена
func HashRefreshToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
