package quizrun

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
)

// Runner управляет активными квиз-сессиями в памяти процесса.
// Один пользователь может иметь не более одной активной сессии:
// запуск новой отменяет предыдущую.
type Runner struct {
	cfg  *Config
	deps *Dependencies
	ctx  context.Context

	mu       sync.RWMutex
	sessions map[string]*Session // session ID -> сессия
	byUser   map[uint]string     // user ID -> session ID
}

// NewRunner создает раннер и запускает фоновую горутину очистки.
// При отмене ctx все активные сессии останавливаются.
func NewRunner(ctx context.Context, cfg *Config, deps *Dependencies) *Runner {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	r := &Runner{
		cfg:      cfg,
		deps:     deps,
		ctx:      ctx,
		sessions: make(map[string]*Session),
		byUser:   make(map[uint]string),
	}
	go r.janitor()
	return r
}

// StartSession запускает новую сессию для пользователя по выбранным категориям.
// Вопросы выбираются из банка случайно и дополнительно перемешиваются,
// чтобы порядок отличался между перезапусками.
func (r *Runner) StartSession(userID uint, categories []entity.Category) (*Session, error) {
	if len(categories) == 0 {
		return nil, fmt.Errorf("%w: at least one category is required", apperrors.ErrValidation)
	}
	for _, cat := range categories {
		if !cat.IsValid() {
			return nil, fmt.Errorf("%w: unknown category '%s'", apperrors.ErrValidation, cat)
		}
	}

	questions, err := r.deps.QuestionRepo.GetByCategories(categories, r.cfg.QuestionLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions for selected categories", apperrors.ErrNoQuestions)
	}

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	session := newSession(r.ctx, uuid.NewString(), userID, categories, questions, r.cfg, r.deps)

	r.mu.Lock()
	// Предыдущая сессия пользователя (если была) отменяется
	if oldID, ok := r.byUser[userID]; ok {
		if old, ok := r.sessions[oldID]; ok {
			old.discard()
			delete(r.sessions, oldID)
			log.Printf("[QuizRun] Сессия %s пользователя %d заменена новой", oldID, userID)
		}
	}
	r.sessions[session.ID] = session
	r.byUser[userID] = session.ID
	r.mu.Unlock()

	go session.run()

	log.Printf("[QuizRun] Запущена сессия %s: user_id=%d categories=%v questions=%d",
		session.ID, userID, categories, len(questions))
	return session, nil
}

// GetSession возвращает сессию по ID с проверкой владельца.
// Чужая сессия недоступна даже при знании ее ID.
func (r *Runner) GetSession(sessionID string, userID uint) (*Session, error) {
	r.mu.RLock()
	session, ok := r.sessions[sessionID]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: session not found", apperrors.ErrNotFound)
	}
	if session.UserID != userID {
		return nil, fmt.Errorf("%w: session belongs to another user", apperrors.ErrForbidden)
	}
	return session, nil
}

// ActiveCount возвращает число сессий в памяти (для health/отладки)
func (r *Runner) ActiveCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// janitor периодически удаляет завершенные сессии, чей результат
// уже не нужен держать в памяти
func (r *Runner) janitor() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			return
		case <-ticker.C:
			r.cleanup()
		}
	}
}

func (r *Runner) cleanup() {
	cutoff := time.Now().Add(-r.cfg.CompletedTTL)

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, s := range r.sessions {
		s.mu.Lock()
		expired := s.state == StateComplete && s.finishedAt.Before(cutoff)
		s.mu.Unlock()

		if expired {
			s.discard()
			delete(r.sessions, id)
			if r.byUser[s.UserID] == id {
				delete(r.byUser, s.UserID)
			}
			removed++
		}
	}
	if removed > 0 {
		log.Printf("[QuizRun] Очистка: удалено %d завершенных сессий, осталось %d", removed, len(r.sessions))
	}
}
