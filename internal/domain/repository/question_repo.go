package repository

import (
	"github.com/yourusername/quizdash-api/internal/domain/entity"
)

// QuestionRepository определяет методы для работы с банком вопросов
type QuestionRepository interface {
	Create(question *entity.Question) error
	GetByID(id uint) (*entity.Question, error)
	Update(question *entity.Question) error
	Delete(id uint) error

	// ListAll возвращает все вопросы для админ-панели, новые первыми
	ListAll() ([]entity.Question, error)

	// GetByCategories возвращает до limit вопросов, категория которых входит
	// в переданный набор. Порядок случайный на стороне БД; итоговую
	// перестановку сессия делает сама.
	GetByCategories(categories []entity.Category, limit int) ([]entity.Question, error)
}
