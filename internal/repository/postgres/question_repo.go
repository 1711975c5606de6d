package postgres

import (
	"errors"

	"gorm.io/gorm"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
)

// QuestionRepo реализует repository.QuestionRepository
type QuestionRepo struct {
	db *gorm.DB
}

// NewQuestionRepo создает новый репозиторий вопросов
func NewQuestionRepo(db *gorm.DB) *QuestionRepo {
	return &QuestionRepo{db: db}
}

// Create создает новый вопрос
func (r *QuestionRepo) Create(question *entity.Question) error {
	return r.db.Create(question).Error
}

// GetByID возвращает вопрос по ID
func (r *QuestionRepo) GetByID(id uint) (*entity.Question, error) {
	var question entity.Question
	err := r.db.First(&question, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &question, nil
}

// Update обновляет все поля вопроса
func (r *QuestionRepo) Update(question *entity.Question) error {
	return r.db.Save(question).Error
}

// Delete удаляет вопрос
func (r *QuestionRepo) Delete(id uint) error {
	result := r.db.Delete(&entity.Question{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListAll возвращает все вопросы для админ-листинга, новые первыми
func (r *QuestionRepo) ListAll() ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Order("created_at DESC").Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// GetByCategories возвращает до limit вопросов из указанных категорий.
// RANDOM() на стороне БД дает разный состав выборки между сессиями, когда
// вопросов больше лимита; итоговый порядок сессия перемешивает сама.
func (r *QuestionRepo) GetByCategories(categories []entity.Category, limit int) ([]entity.Question, error) {
	var questions []entity.Question
	err := r.db.Where("category IN ?", categories).
		Order("RANDOM()").
		Limit(limit).
		Find(&questions).Error
	if err != nil {
		return nil, err
	}
	return questions, nil
}
