package service

import (
	"errors"
	"fmt"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	"github.com/yourusername/quizdash-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
)

// UserService работает с профилями пользователей и историей попыток
type UserService struct {
	userRepo    repository.UserRepository
	attemptRepo repository.AttemptRepository
}

// NewUserService создает новый сервис пользователей
func NewUserService(userRepo repository.UserRepository, attemptRepo repository.AttemptRepository) *UserService {
	return &UserService{
		userRepo:    userRepo,
		attemptRepo: attemptRepo,
	}
}

// GetByID возвращает профиль пользователя
func (s *UserService) GetByID(id uint) (*entity.User, error) {
	return s.userRepo.GetByID(id)
}

// UpdateProfile обновляет отображаемое имя и аватар пользователя
func (s *UserService) UpdateProfile(userID uint, username, avatar string) (*entity.User, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}

	if username != "" && username != user.Username {
		// Имя должно остаться уникальным
		existing, err := s.userRepo.GetByUsername(username)
		if err == nil && existing.ID != userID {
			return nil, fmt.Errorf("%w: username is already taken", apperrors.ErrConflict)
		}
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		user.Username = username
	}
	if avatar != "" {
		user.Avatar = avatar
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetAttempts возвращает историю попыток пользователя, новые первыми
func (s *UserService) GetAttempts(userID uint, limit, offset int) ([]entity.QuizAttempt, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.attemptRepo.GetByUserID(userID, limit, offset)
}
