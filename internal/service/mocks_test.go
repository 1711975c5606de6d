package service

import (
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
)

// MockUserRepo — мок UserRepository
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) GetByUsername(username string) (*entity.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *MockUserRepo) Update(user *entity.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepo) MarkEmailVerified(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

func (m *MockUserRepo) AddToTotalScore(userID uint, delta int64) error {
	args := m.Called(userID, delta)
	return args.Error(0)
}

func (m *MockUserRepo) GetLeaderboard(limit int) ([]entity.User, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

// MockQuestionRepo — мок QuestionRepository
type MockQuestionRepo struct {
	mock.Mock
}

func (m *MockQuestionRepo) Create(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepo) GetByID(id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) Update(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *MockQuestionRepo) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockQuestionRepo) ListAll() ([]entity.Question, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *MockQuestionRepo) GetByCategories(categories []entity.Category, limit int) ([]entity.Question, error) {
	args := m.Called(categories, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

// MockAttemptRepo — мок AttemptRepository
type MockAttemptRepo struct {
	mock.Mock
}

func (m *MockAttemptRepo) Create(attempt *entity.QuizAttempt) error {
	args := m.Called(attempt)
	return args.Error(0)
}

func (m *MockAttemptRepo) GetByUserID(userID uint, limit, offset int) ([]entity.QuizAttempt, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.QuizAttempt), args.Error(1)
}

// MockRefreshTokenRepo — мок RefreshTokenRepository
type MockRefreshTokenRepo struct {
	mock.Mock
}

func (m *MockRefreshTokenRepo) Create(token *entity.RefreshToken) error {
	args := m.Called(token)
	return args.Error(0)
}

func (m *MockRefreshTokenRepo) GetByHash(tokenHash string) (*entity.RefreshToken, error) {
	args := m.Called(tokenHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.RefreshToken), args.Error(1)
}

func (m *MockRefreshTokenRepo) Revoke(tokenHash string, reason string) error {
	args := m.Called(tokenHash, reason)
	return args.Error(0)
}

func (m *MockRefreshTokenRepo) RevokeAllForUser(userID uint, reason string) error {
	args := m.Called(userID, reason)
	return args.Error(0)
}

func (m *MockRefreshTokenRepo) EnforceSessionLimit(userID uint, limit int) error {
	args := m.Called(userID, limit)
	return args.Error(0)
}

func (m *MockRefreshTokenRepo) CleanupExpired() (int64, error) {
	args := m.Called()
	return args.Get(0).(int64), args.Error(1)
}

// MockEmailVerificationRepo — мок EmailVerificationRepository
type MockEmailVerificationRepo struct {
	mock.Mock
}

func (m *MockEmailVerificationRepo) Create(code *entity.EmailVerificationCode) error {
	args := m.Called(code)
	return args.Error(0)
}

func (m *MockEmailVerificationRepo) GetLatestActiveByUserID(userID uint) (*entity.EmailVerificationCode, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.EmailVerificationCode), args.Error(1)
}

func (m *MockEmailVerificationRepo) IncrementAttempts(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockEmailVerificationRepo) MarkConsumed(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockEmailVerificationRepo) DeleteByUserID(userID uint) error {
	args := m.Called(userID)
	return args.Error(0)
}

// MockCacheRepo — мок CacheRepository
type MockCacheRepo struct {
	mock.Mock
}

func (m *MockCacheRepo) Set(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) Get(key string) (string, error) {
	args := m.Called(key)
	return args.String(0), args.Error(1)
}

func (m *MockCacheRepo) Delete(key string) error {
	args := m.Called(key)
	return args.Error(0)
}

func (m *MockCacheRepo) Exists(key string) (bool, error) {
	args := m.Called(key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCacheRepo) SetJSON(key string, value interface{}, expiration time.Duration) error {
	args := m.Called(key, value, expiration)
	return args.Error(0)
}

func (m *MockCacheRepo) GetJSON(key string, dest interface{}) error {
	args := m.Called(key, dest)
	return args.Error(0)
}
