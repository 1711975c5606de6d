package quizrun

import (
	"time"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	"github.com/yourusername/quizdash-api/internal/domain/repository"
)

// Config содержит настройки квиз-сессий
type Config struct {
	// QuestionLimit — максимум вопросов, выбираемых на сессию
	QuestionLimit int
	// CountdownSec — таймер на один вопрос в секундах
	CountdownSec int
	// RevealDelay — пауза показа правильного ответа перед следующим вопросом
	RevealDelay time.Duration
	// CompletedTTL — сколько держать завершенную сессию в памяти для чтения результата
	CompletedTTL time.Duration
}

// DefaultConfig возвращает конфигурацию по умолчанию:
// 20 вопросов, 15 секунд на вопрос, 1.5 секунды показа ответа
func DefaultConfig() *Config {
	return &Config{
		QuestionLimit: 20,
		CountdownSec:  15,
		RevealDelay:   1500 * time.Millisecond,
		CompletedTTL:  30 * time.Minute,
	}
}

// LeaderboardInvalidator сбрасывает кеш лидерборда после обновления счета
type LeaderboardInvalidator interface {
	InvalidateCache()
}

// Dependencies содержит зависимости раннера сессий
type Dependencies struct {
	QuestionRepo repository.QuestionRepository
	AttemptRepo  repository.AttemptRepository
	UserRepo     repository.UserRepository
	// Leaderboard может быть nil (например, в тестах)
	Leaderboard LeaderboardInvalidator
}

// State — состояние квиз-сессии
type State string

const (
	// StateAwaitingAnswer — вопрос показан, идет отсчет, ответа еще нет
	StateAwaitingAnswer State = "awaiting_answer"
	// StateLocked — ответ принят или время вышло, показывается правильный ответ
	StateLocked State = "locked"
	// StateComplete — все вопросы пройдены, итог зафиксирован
	StateComplete State = "complete"
)

// QuestionView — вопрос в том виде, в котором его видит клиент (без правильного ответа)
type QuestionView struct {
	Number   int             `json:"number"` // 1-based, для отображения "Question N of M"
	Text     string          `json:"question"`
	OptionA  string          `json:"option_a"`
	OptionB  string          `json:"option_b"`
	OptionC  string          `json:"option_c"`
	OptionD  string          `json:"option_d"`
	Category entity.Category `json:"category"`
}

// RevealView раскрывает правильный ответ после блокировки вопроса.
// CorrectAnswer помечен всегда; Selected непуст, только если пользователь успел ответить.
type RevealView struct {
	CorrectAnswer string `json:"correct_answer"`
	Selected      string `json:"selected,omitempty"`
	WasCorrect    bool   `json:"was_correct"`
}

// Snapshot — согласованный срез состояния сессии для клиента
type Snapshot struct {
	ID             string        `json:"id"`
	State          State         `json:"state"`
	QuestionIndex  int           `json:"question_index"` // 0-based
	TotalQuestions int           `json:"total_questions"`
	SecondsLeft    int           `json:"seconds_left"`
	Score          int           `json:"score"`
	Question       *QuestionView `json:"question,omitempty"`
	Reveal         *RevealView   `json:"reveal,omitempty"`
}

// Типы событий, транслируемых подписчикам сессии (WebSocket)
const (
	EventQuestion = "session:question"
	EventTick     = "session:tick"
	EventReveal   = "session:reveal"
	EventComplete = "session:complete"
)

// Event — событие сессии для подписчиков
type Event struct {
	Type string                 `json:"type"`
	Data map[string]interface{} `json:"data"`
}
