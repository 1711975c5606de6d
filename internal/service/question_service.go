package service

import (
	"fmt"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	"github.com/yourusername/quizdash-api/internal/domain/repository"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
)

// QuestionService реализует CRUD банка вопросов для админ-панели
type QuestionService struct {
	questionRepo repository.QuestionRepository
}

// NewQuestionService создает новый сервис вопросов
func NewQuestionService(questionRepo repository.QuestionRepository) *QuestionService {
	return &QuestionService{questionRepo: questionRepo}
}

// Create добавляет вопрос в банк после валидации
func (s *QuestionService) Create(question *entity.Question) error {
	if err := question.Validate(); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}
	return s.questionRepo.Create(question)
}

// GetByID возвращает вопрос по ID
func (s *QuestionService) GetByID(id uint) (*entity.Question, error) {
	return s.questionRepo.GetByID(id)
}

// ListAll возвращает весь банк вопросов, новые первыми
func (s *QuestionService) ListAll() ([]entity.Question, error) {
	return s.questionRepo.ListAll()
}

// Update заменяет содержимое существующего вопроса.
// Активные сессии не затрагиваются: они работают с копией,
// снятой при старте.
func (s *QuestionService) Update(id uint, updated *entity.Question) (*entity.Question, error) {
	if err := updated.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
	}

	question, err := s.questionRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	question.Text = updated.Text
	question.OptionA = updated.OptionA
	question.OptionB = updated.OptionB
	question.OptionC = updated.OptionC
	question.OptionD = updated.OptionD
	question.CorrectAnswer = updated.CorrectAnswer
	question.Category = updated.Category

	if err := s.questionRepo.Update(question); err != nil {
		return nil, err
	}
	return question, nil
}

// Delete удаляет вопрос из банка
func (s *QuestionService) Delete(id uint) error {
	return s.questionRepo.Delete(id)
}
