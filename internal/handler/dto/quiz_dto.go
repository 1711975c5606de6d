package dto

import (
	"time"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
)

// StartSessionRequest — запрос запуска квиз-сессии
type StartSessionRequest struct {
	Categories []string `json:"categories" binding:"required,min=1"`
}

// SubmitAnswerRequest — ответ на текущий вопрос сессии
type SubmitAnswerRequest struct {
	Answer string `json:"answer" binding:"required,oneof=A B C D"`
}

// CategoryResponse — категория квиза для экрана выбора
type CategoryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// QuestionRequest — создание/обновление вопроса в админ-панели
type QuestionRequest struct {
	Text          string `json:"question" binding:"required"`
	OptionA       string `json:"option_a" binding:"required"`
	OptionB       string `json:"option_b" binding:"required"`
	OptionC       string `json:"option_c" binding:"required"`
	OptionD       string `json:"option_d" binding:"required"`
	CorrectAnswer string `json:"correct_answer" binding:"required,oneof=A B C D"`
	Category      string `json:"category" binding:"required"`
}

// ToEntity преобразует запрос в сущность вопроса
func (r *QuestionRequest) ToEntity() *entity.Question {
	return &entity.Question{
		Text:          r.Text,
		OptionA:       r.OptionA,
		OptionB:       r.OptionB,
		OptionC:       r.OptionC,
		OptionD:       r.OptionD,
		CorrectAnswer: r.CorrectAnswer,
		Category:      entity.Category(r.Category),
	}
}

// QuestionAdminResponse — вопрос в админ-панели (с правильным ответом)
type QuestionAdminResponse struct {
	ID            uint      `json:"id"`
	Text          string    `json:"question"`
	OptionA       string    `json:"option_a"`
	OptionB       string    `json:"option_b"`
	OptionC       string    `json:"option_c"`
	OptionD       string    `json:"option_d"`
	CorrectAnswer string    `json:"correct_answer"`
	Category      string    `json:"category"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// NewQuestionAdminResponse создает ответ админ-панели из сущности
func NewQuestionAdminResponse(q *entity.Question) QuestionAdminResponse {
	return QuestionAdminResponse{
		ID:            q.ID,
		Text:          q.Text,
		OptionA:       q.OptionA,
		OptionB:       q.OptionB,
		OptionC:       q.OptionC,
		OptionD:       q.OptionD,
		CorrectAnswer: q.CorrectAnswer,
		Category:      string(q.Category),
		CreatedAt:     q.CreatedAt,
		UpdatedAt:     q.UpdatedAt,
	}
}

// AttemptResponse — запись истории попыток пользователя
type AttemptResponse struct {
	ID             uint      `json:"id"`
	Category       string    `json:"category"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewAttemptResponse создает AttemptResponse из сущности
func NewAttemptResponse(a *entity.QuizAttempt) AttemptResponse {
	return AttemptResponse{
		ID:             a.ID,
		Category:       string(a.Category),
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		CreatedAt:      a.CreatedAt,
	}
}
