package postgres

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
)

// UserRepo реализует repository.UserRepository
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo создает новый репозиторий пользователей
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create создает нового пользователя
func (r *UserRepo) Create(user *entity.User) error {
	err := r.db.Create(user).Error
	if err != nil {
		// Дубликат username или email
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: username or email already taken", apperrors.ErrConflict)
		}
		return err
	}
	return nil
}

// GetByID возвращает пользователя по ID
func (r *UserRepo) GetByID(id uint) (*entity.User, error) {
	var user entity.User
	err := r.db.First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail возвращает пользователя по email
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername возвращает пользователя по имени пользователя
func (r *UserRepo) GetByUsername(username string) (*entity.User, error) {
	var user entity.User
	err := r.db.Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// Update обновляет информацию о пользователе
func (r *UserRepo) Update(user *entity.User) error {
	return r.db.Save(user).Error
}

// MarkEmailVerified проставляет отметку о подтверждении email
func (r *UserRepo) MarkEmailVerified(userID uint) error {
	return r.db.Model(&entity.User{}).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"email_verified_at": time.Now(),
			"updated_at":        time.Now(),
		}).Error
}

// AddToTotalScore прибавляет очки сессии к накопленному счету пользователя.
// Чтение и запись выполняются в одной транзакции, но это по-прежнему
// read-then-write, а не атомарный инкремент: параллельные сессии одного
// пользователя могут потерять обновление. Поведение сохранено намеренно.
func (r *UserRepo) AddToTotalScore(userID uint, delta int64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user entity.User
		if err := tx.First(&user, userID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return err
		}

		user.TotalScore += delta
		return tx.Save(&user).Error
	})
}

// GetLeaderboard возвращает топ пользователей по накопленному счету.
// Сортировка по total_score DESC с ID для стабильности порядка.
func (r *UserRepo) GetLeaderboard(limit int) ([]entity.User, error) {
	var users []entity.User
	err := r.db.Order("total_score DESC, id ASC").
		Limit(limit).
		Select("id", "username", "avatar", "total_score").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}
