package quizrun

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
)

// Session — активная квиз-сессия одного пользователя.
// Все мутации состояния защищены mu; таймингом управляет
// единственная горутина run(), запущенная раннером.
type Session struct {
	ID         string
	UserID     uint
	Categories []entity.Category
	CreatedAt  time.Time

	cfg  *Config
	deps *Dependencies

	mu         sync.Mutex
	state      State
	questions  []entity.Question
	index      int
	score      int
	answered   bool
	selected   string // "" при таймауте
	deadline   time.Time
	finishedAt time.Time

	// lockedCh сигнализирует run() о досрочной блокировке вопроса (ответ принят)
	lockedCh chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	subsMu sync.Mutex
	subs   map[chan Event]struct{}
}

// newSession создает сессию с первым вопросом в состоянии AwaitingAnswer.
// Вопросы уже перемешаны вызывающей стороной.
func newSession(parent context.Context, id string, userID uint, categories []entity.Category, questions []entity.Question, cfg *Config, deps *Dependencies) *Session {
	ctx, cancel := context.WithCancel(parent)
	return &Session{
		ID:         id,
		UserID:     userID,
		Categories: categories,
		CreatedAt:  time.Now(),
		cfg:        cfg,
		deps:       deps,
		state:      StateAwaitingAnswer,
		questions:  questions,
		deadline:   time.Now().Add(time.Duration(cfg.CountdownSec) * time.Second),
		lockedCh:   make(chan struct{}, 1),
		ctx:        ctx,
		cancel:     cancel,
		subs:       make(map[chan Event]struct{}),
	}
}

// Snapshot возвращает согласованный срез состояния сессии
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// snapshotLocked формирует Snapshot; вызывать только под mu
func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:             s.ID,
		State:          s.state,
		QuestionIndex:  s.index,
		TotalQuestions: len(s.questions),
		SecondsLeft:    s.secondsLeftLocked(),
		Score:          s.score,
	}

	switch s.state {
	case StateAwaitingAnswer:
		snap.Question = s.questionViewLocked()
	case StateLocked:
		snap.Question = s.questionViewLocked()
		snap.Reveal = s.revealViewLocked()
	}
	return snap
}

func (s *Session) questionViewLocked() *QuestionView {
	q := s.questions[s.index]
	return &QuestionView{
		Number:   s.index + 1,
		Text:     q.Text,
		OptionA:  q.OptionA,
		OptionB:  q.OptionB,
		OptionC:  q.OptionC,
		OptionD:  q.OptionD,
		Category: q.Category,
	}
}

func (s *Session) revealViewLocked() *RevealView {
	q := s.questions[s.index]
	return &RevealView{
		CorrectAnswer: q.CorrectAnswer,
		Selected:      s.selected,
		WasCorrect:    s.selected != "" && q.IsCorrect(s.selected),
	}
}

// secondsLeftLocked считает остаток таймера с округлением вверх,
// чтобы только что показанный вопрос отдавал полный отсчет
func (s *Session) secondsLeftLocked() int {
	if s.state != StateAwaitingAnswer {
		return 0
	}
	left := time.Until(s.deadline)
	if left <= 0 {
		return 0
	}
	secs := int((left + time.Second - 1) / time.Second)
	if secs > s.cfg.CountdownSec {
		secs = s.cfg.CountdownSec
	}
	return secs
}

// State возвращает текущее состояние сессии
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Result возвращает итоговый счет сессии. ok=false, пока сессия не завершена.
func (s *Session) Result() (score int, total int, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateComplete {
		return 0, 0, false
	}
	return s.score, len(s.questions), true
}

// SubmitAnswer фиксирует ответ пользователя на текущий вопрос.
// Повторные вызовы для уже заблокированного вопроса — no-op:
// возвращается актуальный снимок, счет не меняется.
func (s *Session) SubmitAnswer(label string) Snapshot {
	s.mu.Lock()

	if s.state != StateAwaitingAnswer || s.answered {
		snap := s.snapshotLocked()
		s.mu.Unlock()
		return snap
	}

	s.answered = true
	s.selected = label
	if s.questions[s.index].IsCorrect(label) {
		s.score++
	}
	s.state = StateLocked

	snap := s.snapshotLocked()
	reveal := *snap.Reveal

	// Будим run() для перехода к показу ответа без ожидания тика.
	// Сигнал отправляется под mu: advance() сбрасывает канал под тем же
	// mu, поэтому сигнал всегда относится к текущему вопросу
	select {
	case s.lockedCh <- struct{}{}:
	default:
	}
	s.mu.Unlock()

	s.publish(Event{Type: EventReveal, Data: map[string]interface{}{
		"session_id":     s.ID,
		"question_index": snap.QuestionIndex,
		"reveal":         reveal,
		"score":          snap.Score,
	}})

	return snap
}

// lockOnTimeout блокирует вопрос по истечении таймера (ответа не было).
// Если ответ успел прийти первым, ничего не делает.
func (s *Session) lockOnTimeout() {
	s.mu.Lock()

	if s.state != StateAwaitingAnswer || s.answered {
		s.mu.Unlock()
		return
	}

	s.answered = true
	s.selected = ""
	s.state = StateLocked

	snap := s.snapshotLocked()
	reveal := *snap.Reveal
	s.mu.Unlock()

	s.publish(Event{Type: EventReveal, Data: map[string]interface{}{
		"session_id":     s.ID,
		"question_index": snap.QuestionIndex,
		"reveal":         reveal,
		"score":          snap.Score,
		"timed_out":      true,
	}})
}

// advance переводит сессию к следующему вопросу со свежим таймером.
// Возвращает true, если вопросы закончились и сессия завершена.
func (s *Session) advance() bool {
	s.mu.Lock()

	// Если фаза ожидания завершилась по тику одновременно с ответом,
	// сигнал ответа мог остаться неизрасходованным в канале. Сбрасываем
	// его до взвода нового вопроса, иначе он мгновенно оборвет следующую
	// фазу ожидания без отсчета и без окна для ответа
	select {
	case <-s.lockedCh:
	default:
	}

	if s.index+1 >= len(s.questions) {
		s.state = StateComplete
		s.finishedAt = time.Now()
		s.mu.Unlock()
		return true
	}

	s.index++
	s.answered = false
	s.selected = ""
	s.deadline = time.Now().Add(time.Duration(s.cfg.CountdownSec) * time.Second)
	s.state = StateAwaitingAnswer

	view := *s.questionViewLocked()
	total := len(s.questions)
	secondsLeft := s.secondsLeftLocked()
	s.mu.Unlock()

	s.publish(Event{Type: EventQuestion, Data: map[string]interface{}{
		"session_id":      s.ID,
		"question":        view,
		"total_questions": total,
		"seconds_left":    secondsLeft,
	}})
	return false
}

// run — горутина-владелец таймингов сессии: отсчет, блокировка по
// таймауту, пауза показа ответа, переход к следующему вопросу
func (s *Session) run() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		// Фаза отсчета: ждем ответа или истечения таймера
		awaiting := true
		for awaiting {
			select {
			case <-s.ctx.Done():
				return
			case <-s.lockedCh:
				awaiting = false
			case <-ticker.C:
				s.mu.Lock()
				left := s.secondsLeftLocked()
				state := s.state
				index := s.index
				s.mu.Unlock()

				if state != StateAwaitingAnswer {
					awaiting = false
					break
				}
				if left <= 0 {
					s.lockOnTimeout()
					awaiting = false
					break
				}
				s.publish(Event{Type: EventTick, Data: map[string]interface{}{
					"session_id":     s.ID,
					"question_index": index,
					"seconds_left":   left,
				}})
			}
		}

		// Фаза показа ответа перед переходом дальше
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(s.cfg.RevealDelay):
		}

		if s.advance() {
			s.complete()
			return
		}
	}
}

// complete фиксирует итог завершенной сессии: сохраняет попытку,
// прибавляет счет к профилю и сбрасывает кеш лидерборда.
// Ошибки персистентности не влияют на результат, который видит клиент.
func (s *Session) complete() {
	s.mu.Lock()
	score := s.score
	total := len(s.questions)
	category := s.primaryCategoryLocked()
	s.mu.Unlock()

	attempt := &entity.QuizAttempt{
		UserID:         s.UserID,
		Category:       category,
		Score:          score,
		TotalQuestions: total,
	}
	if err := s.deps.AttemptRepo.Create(attempt); err != nil {
		log.Printf("[QuizRun] Не удалось сохранить попытку для user_id=%d session=%s: %v", s.UserID, s.ID, err)
	}

	if score > 0 {
		if err := s.deps.UserRepo.AddToTotalScore(s.UserID, int64(score)); err != nil {
			log.Printf("[QuizRun] Не удалось обновить total_score для user_id=%d: %v", s.UserID, err)
		} else if s.deps.Leaderboard != nil {
			s.deps.Leaderboard.InvalidateCache()
		}
	}

	grade := CalculateGrade(score, total)
	s.publish(Event{Type: EventComplete, Data: map[string]interface{}{
		"session_id":      s.ID,
		"score":           score,
		"total_questions": total,
		"percentage":      grade.Percentage,
		"grade":           grade.Grade,
		"message":         grade.Message,
		"celebrate":       grade.Celebrate,
	}})

	log.Printf("[QuizRun] Сессия %s завершена: user_id=%d score=%d/%d", s.ID, s.UserID, score, total)
}

// primaryCategoryLocked возвращает категорию для записи попытки.
// При мультикатегорийной сессии записывается первая выбранная.
func (s *Session) primaryCategoryLocked() entity.Category {
	if len(s.Categories) > 0 {
		return s.Categories[0]
	}
	return s.questions[0].Category
}

// Subscribe регистрирует подписчика событий сессии.
// Возвращает канал событий и функцию отписки.
func (s *Session) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 32)

	s.subsMu.Lock()
	s.subs[ch] = struct{}{}
	s.subsMu.Unlock()

	unsubscribe := func() {
		s.subsMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subsMu.Unlock()
	}
	return ch, unsubscribe
}

// publish рассылает событие всем подписчикам без блокировки:
// медленный подписчик теряет события, но не тормозит сессию
func (s *Session) publish(ev Event) {
	s.subsMu.Lock()
	defer s.subsMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Done возвращает канал, закрываемый при остановке сессии
func (s *Session) Done() <-chan struct{} {
	return s.ctx.Done()
}

// discard останавливает горутину сессии (замена сессии или janitor)
func (s *Session) discard() {
	s.cancel()
}
