package service

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"math/big"
	"time"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	"github.com/yourusername/quizdash-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
	"github.com/yourusername/quizdash-api/pkg/auth"
)

// verificationCodeTTL — срок действия кода подтверждения email
const verificationCodeTTL = 15 * time.Minute

// TokenPair — пара токенов, выдаваемая клиенту при login/refresh
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"` // срок access-токена в секундах
}

// AuthServiceConfig — настройки аутентификации
type AuthServiceConfig struct {
	// SessionLimit — максимум одновременных refresh-сессий на пользователя
	SessionLimit int
	// RefreshTokenLifetime — срок жизни refresh-токена
	RefreshTokenLifetime time.Duration
	// EmailVerificationEnabled включает подтверждение email при регистрации
	EmailVerificationEnabled bool
}

// AuthService реализует регистрацию, вход, ротацию refresh-токенов,
// выход и подтверждение email
type AuthService struct {
	userRepo         repository.UserRepository
	refreshTokenRepo repository.RefreshTokenRepository
	verificationRepo repository.EmailVerificationRepository
	jwtService       *auth.JWTService
	emailSender      EmailSender
	cfg              AuthServiceConfig
}

// NewAuthService создает новый сервис аутентификации
func NewAuthService(
	userRepo repository.UserRepository,
	refreshTokenRepo repository.RefreshTokenRepository,
	verificationRepo repository.EmailVerificationRepository,
	jwtService *auth.JWTService,
	emailSender EmailSender,
	cfg AuthServiceConfig,
) *AuthService {
	if cfg.SessionLimit <= 0 {
		cfg.SessionLimit = 5
	}
	if cfg.RefreshTokenLifetime <= 0 {
		cfg.RefreshTokenLifetime = 720 * time.Hour
	}
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		verificationRepo: verificationRepo,
		jwtService:       jwtService,
		emailSender:      emailSender,
		cfg:              cfg,
	}
}

// Register создает нового пользователя и, если включено подтверждение email,
// отправляет код на указанный адрес. Пустой avatar заменяется значением
// по умолчанию на уровне схемы.
func (s *AuthService) Register(username, email, password, avatar string) (*entity.User, error) {
	// Проверяем уникальность заранее для дружелюбных сообщений;
	// гонку на вставке закрывает unique-индекс в БД (ErrConflict из репозитория)
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, fmt.Errorf("%w: email is already registered", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if _, err := s.userRepo.GetByUsername(username); err == nil {
		return nil, fmt.Errorf("%w: username is already taken", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	user := &entity.User{
		Username: username,
		Email:    email,
		Password: password, // хешируется в BeforeSave
		Avatar:   avatar,
		Role:     entity.RoleUser,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, err
	}

	if s.cfg.EmailVerificationEnabled {
		if err := s.issueVerificationCode(user); err != nil {
			// Регистрация не откатывается: код можно запросить повторно
			log.Printf("[AuthService] Не удалось отправить код подтверждения для user_id=%d: %v", user.ID, err)
		}
	}

	log.Printf("[AuthService] Зарегистрирован пользователь id=%d username=%s", user.ID, user.Username)
	return user, nil
}

// Login проверяет учетные данные и выдает пару токенов
func (s *AuthService) Login(email, password, ipAddress, userAgent string) (*TokenPair, *entity.User, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
		}
		return nil, nil, err
	}

	if !user.CheckPassword(password) {
		return nil, nil, fmt.Errorf("%w: invalid email or password", apperrors.ErrUnauthorized)
	}

	pair, err := s.issueTokenPair(user, ipAddress, userAgent)
	if err != nil {
		return nil, nil, err
	}

	log.Printf("[AuthService] Вход пользователя id=%d ip=%s", user.ID, ipAddress)
	return pair, user, nil
}

// Refresh ротирует refresh-токен: старый отзывается, выдается новая пара.
// Повторное использование уже отозванного токена трактуется как компрометация:
// отзываются все сессии пользователя.
func (s *AuthService) Refresh(rawRefreshToken, ipAddress, userAgent string) (*TokenPair, error) {
	tokenHash := auth.HashRefreshToken(rawRefreshToken)

	stored, err := s.refreshTokenRepo.GetByHash(tokenHash)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid refresh token", apperrors.ErrUnauthorized)
		}
		return nil, err
	}

	if stored.RevokedAt != nil {
		log.Printf("[AuthService] Повторное использование отозванного refresh-токена user_id=%d ip=%s. Отзываем все сессии.",
			stored.UserID, ipAddress)
		if err := s.refreshTokenRepo.RevokeAllForUser(stored.UserID, "refresh token reuse detected"); err != nil {
			log.Printf("[AuthService] Не удалось отозвать сессии user_id=%d: %v", stored.UserID, err)
		}
		return nil, fmt.Errorf("%w: refresh token reuse detected", apperrors.ErrUnauthorized)
	}

	if !stored.IsValid() {
		return nil, fmt.Errorf("%w: refresh token expired", apperrors.ErrExpiredToken)
	}

	user, err := s.userRepo.GetByID(stored.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokenRepo.Revoke(tokenHash, "rotated"); err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}

	return s.issueTokenPair(user, ipAddress, userAgent)
}

// Logout отзывает refresh-токен и помещает access-токен в блеклист
func (s *AuthService) Logout(claims *auth.Claims, rawRefreshToken string) error {
	if rawRefreshToken != "" {
		tokenHash := auth.HashRefreshToken(rawRefreshToken)
		if err := s.refreshTokenRepo.Revoke(tokenHash, "logout"); err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[AuthService] Не удалось отозвать refresh-токен при выходе user_id=%d: %v", claims.UserID, err)
		}
	}

	if err := s.jwtService.InvalidateToken(claims); err != nil {
		return fmt.Errorf("failed to blacklist access token: %w", err)
	}

	log.Printf("[AuthService] Выход пользователя id=%d", claims.UserID)
	return nil
}

// VerifyEmail проверяет код подтверждения и помечает email подтвержденным
func (s *AuthService) VerifyEmail(userID uint, code string) error {
	record, err := s.verificationRepo.GetLatestActiveByUserID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: no active verification code", apperrors.ErrValidation)
		}
		return err
	}

	now := time.Now()
	if record.IsConsumed() {
		return fmt.Errorf("%w: verification code already used", apperrors.ErrValidation)
	}
	if record.IsExpired(now) {
		return fmt.Errorf("%w: verification code expired", apperrors.ErrExpiredToken)
	}
	if record.AttemptCount >= record.MaxAttempts {
		return fmt.Errorf("%w: too many attempts, request a new code", apperrors.ErrValidation)
	}

	if !codeMatches(code, record.CodeSalt, record.CodeHash) {
		if err := s.verificationRepo.IncrementAttempts(record.ID); err != nil {
			log.Printf("[AuthService] Не удалось увеличить счетчик попыток для code_id=%d: %v", record.ID, err)
		}
		return fmt.Errorf("%w: invalid verification code", apperrors.ErrValidation)
	}

	if err := s.verificationRepo.MarkConsumed(record.ID); err != nil {
		return fmt.Errorf("failed to consume verification code: %w", err)
	}
	if err := s.userRepo.MarkEmailVerified(userID); err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	log.Printf("[AuthService] Email подтвержден для user_id=%d", userID)
	return nil
}

// ResendVerificationCode выпускает и отправляет новый код подтверждения.
// Предыдущие коды пользователя инвалидируются.
func (s *AuthService) ResendVerificationCode(userID uint) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}
	if user.EmailVerifiedAt != nil {
		return fmt.Errorf("%w: email is already verified", apperrors.ErrValidation)
	}
	return s.issueVerificationCode(user)
}

// CleanupRefreshTokens удаляет просроченные refresh-токены (фоновая задача)
func (s *AuthService) CleanupRefreshTokens() {
	deleted, err := s.refreshTokenRepo.CleanupExpired()
	if err != nil {
		log.Printf("[AuthService] Ошибка очистки refresh-токенов: %v", err)
		return
	}
	if deleted > 0 {
		log.Printf("[AuthService] Очистка refresh-токенов: удалено %d записей", deleted)
	}
}

// issueTokenPair выдает access+refresh и применяет лимит сессий
func (s *AuthService) issueTokenPair(user *entity.User, ipAddress, userAgent string) (*TokenPair, error) {
	accessToken, _, err := s.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, err
	}

	rawRefresh, refreshHash, err := auth.GenerateRefreshToken()
	if err != nil {
		return nil, err
	}

	record := entity.NewRefreshToken(user.ID, refreshHash, ipAddress, userAgent,
		time.Now().Add(s.cfg.RefreshTokenLifetime))
	if err := s.refreshTokenRepo.Create(record); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	if err := s.refreshTokenRepo.EnforceSessionLimit(user.ID, s.cfg.SessionLimit); err != nil {
		log.Printf("[AuthService] Не удалось применить лимит сессий для user_id=%d: %v", user.ID, err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: rawRefresh,
		ExpiresIn:    int64(s.jwtService.AccessTokenTTL().Seconds()),
	}, nil
}

// issueVerificationCode генерирует 6-значный код, сохраняет его хеш
// и отправляет код письмом
func (s *AuthService) issueVerificationCode(user *entity.User) error {
	if err := s.verificationRepo.DeleteByUserID(user.ID); err != nil {
		log.Printf("[AuthService] Не удалось удалить старые коды user_id=%d: %v", user.ID, err)
	}

	code, err := generateNumericCode(6)
	if err != nil {
		return fmt.Errorf("failed to generate verification code: %w", err)
	}

	salt, err := generateSalt()
	if err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	record := &entity.EmailVerificationCode{
		UserID:      user.ID,
		Email:       user.Email,
		CodeHash:    hashCode(code, salt),
		CodeSalt:    salt,
		ExpiresAt:   time.Now().Add(verificationCodeTTL),
		MaxAttempts: 5,
	}
	if err := s.verificationRepo.Create(record); err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	return s.emailSender.SendVerificationCode(user.Email, user.Username, code)
}

// generateNumericCode возвращает криптослучайный цифровой код заданной длины
func generateNumericCode(length int) (string, error) {
	digits := make([]byte, length)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", err
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

func generateSalt() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

func hashCode(code, salt string) string {
	sum := sha256.Sum256([]byte(salt + code))
	return hex.EncodeToString(sum[:])
}

// codeMatches сравнивает код с хешом за константное время
func codeMatches(code, salt, expectedHash string) bool {
	actual := hashCode(code, salt)
	return subtle.ConstantTimeCompare([]byte(actual), []byte(expectedHash)) == 1
}
