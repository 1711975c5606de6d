package entity

import (
	"fmt"
	"strings"
	"time"
)

// OptionLabels — допустимые метки вариантов ответа
var OptionLabels = []string{"A", "B", "C", "D"}

// Question представляет вопрос банка вопросов.
// Правильный ответ скрыт от клиента и раскрывается только после блокировки вопроса.
type Question struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	Text          string    `gorm:"size:500;not null" json:"question"`
	OptionA       string    `gorm:"size:255;not null" json:"option_a"`
	OptionB       string    `gorm:"size:255;not null" json:"option_b"`
	OptionC       string    `gorm:"size:255;not null" json:"option_c"`
	OptionD       string    `gorm:"size:255;not null" json:"option_d"`
	CorrectAnswer string    `gorm:"size:1;not null" json:"-"` // "A".."D", скрыто от клиента
	Category      Category  `gorm:"size:20;not null;index" json:"category"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// TableName определяет имя таблицы для GORM
func (Question) TableName() string {
	return "questions"
}

// Option возвращает текст варианта по метке ("A".."D")
func (q *Question) Option(label string) (string, bool) {
	switch label {
	case "A":
		return q.OptionA, true
	case "B":
		return q.OptionB, true
	case "C":
		return q.OptionC, true
	case "D":
		return q.OptionD, true
	}
	return "", false
}

// IsCorrect проверяет, совпадает ли метка с правильным ответом.
// Сравнение строгое: только точное совпадение метки засчитывается.
func (q *Question) IsCorrect(label string) bool {
	return label != "" && label == q.CorrectAnswer
}

// IsValidLabel проверяет, является ли метка допустимой
func IsValidLabel(label string) bool {
	switch label {
	case "A", "B", "C", "D":
		return true
	}
	return false
}

// Validate проверяет инварианты вопроса перед записью в хранилище:
// непустой текст, четыре непустых варианта, категория из перечисления,
// правильный ответ указывает на один из непустых вариантов.
func (q *Question) Validate() error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("question text is required")
	}
	for _, label := range OptionLabels {
		text, _ := q.Option(label)
		if strings.TrimSpace(text) == "" {
			return fmt.Errorf("option %s is required", label)
		}
	}
	if !IsValidLabel(q.CorrectAnswer) {
		return fmt.Errorf("correct_answer must be one of A, B, C, D")
	}
	if !q.Category.IsValid() {
		return fmt.Errorf("unknown category: %s", q.Category)
	}
	return nil
}
