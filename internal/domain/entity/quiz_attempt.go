package entity

import "time"

// QuizAttempt представляет сохраненную запись об одной завершенной сессии.
// Создается один раз при завершении и никогда не изменяется.
// Category — репрезентативная категория сессии (первая из выбранных).
type QuizAttempt struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UserID         uint      `gorm:"not null;index" json:"user_id"`
	Category       Category  `gorm:"size:20;not null" json:"category"`
	Score          int       `gorm:"not null;default:0" json:"score"`
	TotalQuestions int       `gorm:"not null;default:0" json:"total_questions"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName определяет имя таблицы для GORM
func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}
