package quizrun

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
	apperrors "github.com/yourusername/quizdash-api/internal/pkg/errors"
)

// mockQuestionRepo — мок QuestionRepository
type mockQuestionRepo struct {
	mock.Mock
}

func (m *mockQuestionRepo) Create(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *mockQuestionRepo) GetByID(id uint) (*entity.Question, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Question), args.Error(1)
}

func (m *mockQuestionRepo) Update(question *entity.Question) error {
	args := m.Called(question)
	return args.Error(0)
}

func (m *mockQuestionRepo) Delete(id uint) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *mockQuestionRepo) ListAll() ([]entity.Question, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

func (m *mockQuestionRepo) GetByCategories(categories []entity.Category, limit int) ([]entity.Question, error) {
	args := m.Called(categories, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.Question), args.Error(1)
}

// mockAttemptRepo — мок AttemptRepository
type mockAttemptRepo struct {
	mock.Mock
}

func (m *mockAttemptRepo) Create(attempt *entity.QuizAttempt) error {
	args := m.Called(attempt)
	return args.Error(0)
}

func (m *mockAttemptRepo) GetByUserID(userID uint, limit, offset int) ([]entity.QuizAttempt, error) {
	args := m.Called(userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.QuizAttempt), args.Error(1)
}

// mockUserRepo — мок UserRepository (используется только AddToTotalScore)
type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(user *entity.User) error                  { return m.Called(user).Error(0) }
func (m *mockUserRepo) Update(user *entity.User) error                  { return m.Called(user).Error(0) }
func (m *mockUserRepo) MarkEmailVerified(userID uint) error             { return m.Called(userID).Error(0) }
func (m *mockUserRepo) AddToTotalScore(userID uint, delta int64) error {
	return m.Called(userID, delta).Error(0)
}

func (m *mockUserRepo) GetByID(id uint) (*entity.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) GetByEmail(email string) (*entity.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) GetByUsername(username string) (*entity.User, error) {
	args := m.Called(username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.User), args.Error(1)
}

func (m *mockUserRepo) GetLeaderboard(limit int) ([]entity.User, error) {
	args := m.Called(limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.User), args.Error(1)
}

// countingInvalidator считает сбросы кеша лидерборда
type countingInvalidator struct {
	calls int32
}

func (c *countingInvalidator) InvalidateCache() {
	atomic.AddInt32(&c.calls, 1)
}

func (c *countingInvalidator) count() int32 {
	return atomic.LoadInt32(&c.calls)
}

// Все вопросы с правильным ответом "B": тесты отвечают "B" для
// правильного ответа и "A" для неправильного независимо от перемешивания
func testQuestions(n int) []entity.Question {
	questions := make([]entity.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, entity.Question{
			ID:            uint(i + 1),
			Text:          "test question",
			OptionA:       "wrong",
			OptionB:       "right",
			OptionC:       "wrong",
			OptionD:       "wrong",
			CorrectAnswer: "B",
			Category:      entity.CategoryOS,
		})
	}
	return questions
}

// testConfig — ускоренные тайминги, чтобы тесты не ждали полный отсчет
func testConfig() *Config {
	return &Config{
		QuestionLimit: 20,
		CountdownSec:  2,
		RevealDelay:   20 * time.Millisecond,
		CompletedTTL:  time.Minute,
	}
}

func newTestRunner(t *testing.T, questions []entity.Question) (*Runner, *mockAttemptRepo, *mockUserRepo, *countingInvalidator) {
	t.Helper()

	questionRepo := new(mockQuestionRepo)
	questionRepo.On("GetByCategories", mock.Anything, mock.Anything).Return(questions, nil)

	attemptRepo := new(mockAttemptRepo)
	attemptRepo.On("Create", mock.Anything).Return(nil)

	userRepo := new(mockUserRepo)
	userRepo.On("AddToTotalScore", mock.Anything, mock.Anything).Return(nil)

	invalidator := &countingInvalidator{}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	runner := NewRunner(ctx, testConfig(), &Dependencies{
		QuestionRepo: questionRepo,
		AttemptRepo:  attemptRepo,
		UserRepo:     userRepo,
		Leaderboard:  invalidator,
	})
	return runner, attemptRepo, userRepo, invalidator
}

// waitForEvent читает события до появления нужного типа
func waitForEvent(t *testing.T, events <-chan Event, eventType string) {
	t.Helper()
	deadline := time.After(3 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type == eventType {
				return
			}
		case <-deadline:
			t.Fatalf("не дождались события %s", eventType)
		}
	}
}

func TestRunner_StartSession_Validation(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, testQuestions(3))

	// Пустой список категорий отклоняется до обращения к хранилищу
	_, err := runner.StartSession(1, nil)
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	// Неизвестная категория тоже
	_, err = runner.StartSession(1, []entity.Category{"history"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestRunner_StartSession_NoQuestions(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, []entity.Question{})

	_, err := runner.StartSession(1, []entity.Category{entity.CategoryAI})

	assert.ErrorIs(t, err, apperrors.ErrNoQuestions)
}

func TestRunner_StartSession_InitialSnapshot(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, testQuestions(3))

	session, err := runner.StartSession(1, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)

	snap := session.Snapshot()
	assert.Equal(t, StateAwaitingAnswer, snap.State)
	assert.Equal(t, 0, snap.QuestionIndex)
	assert.Equal(t, 3, snap.TotalQuestions)
	assert.Equal(t, 2, snap.SecondsLeft, "таймер первого вопроса должен быть полным")
	require.NotNil(t, snap.Question)
	assert.Equal(t, 1, snap.Question.Number)
	assert.Nil(t, snap.Reveal, "правильный ответ не раскрывается до блокировки")
}

func TestSession_SubmitAnswer_CorrectAndIdempotent(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, testQuestions(3))

	session, err := runner.StartSession(1, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)

	// Правильный ответ блокирует вопрос и засчитывает очко
	snap := session.SubmitAnswer("B")
	assert.Equal(t, StateLocked, snap.State)
	assert.Equal(t, 1, snap.Score)
	require.NotNil(t, snap.Reveal)
	assert.Equal(t, "B", snap.Reveal.CorrectAnswer)
	assert.True(t, snap.Reveal.WasCorrect)

	// Повторный ответ на заблокированный вопрос — no-op
	snap = session.SubmitAnswer("A")
	assert.Equal(t, 1, snap.Score, "повторный ответ не должен менять счет")
	assert.Equal(t, "B", snap.Reveal.Selected, "выбор не должен перезаписываться")
}

func TestSession_WrongAnswer(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, testQuestions(2))

	session, err := runner.StartSession(1, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)

	snap := session.SubmitAnswer("A")
	assert.Equal(t, StateLocked, snap.State)
	assert.Equal(t, 0, snap.Score)
	require.NotNil(t, snap.Reveal)
	assert.False(t, snap.Reveal.WasCorrect)
	assert.Equal(t, "A", snap.Reveal.Selected)
}

func TestSession_AdvancesWithFreshCountdown(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, testQuestions(3))

	session, err := runner.StartSession(1, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)

	session.SubmitAnswer("B")

	// После паузы показа ответа сессия переходит к следующему вопросу
	require.Eventually(t, func() bool {
		snap := session.Snapshot()
		return snap.State == StateAwaitingAnswer && snap.QuestionIndex == 1
	}, 2*time.Second, 10*time.Millisecond, "сессия должна перейти ко второму вопросу")

	snap := session.Snapshot()
	assert.Equal(t, 2, snap.SecondsLeft, "таймер должен сброситься для нового вопроса")
	assert.Nil(t, snap.Reveal)
	assert.Equal(t, 2, snap.Question.Number)
}

func TestSession_TimeoutLocksWithoutScore(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, testQuestions(2))

	session, err := runner.StartSession(1, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)

	// Не отвечаем: по истечении таймера вопрос блокируется без очка
	// и сессия переходит дальше
	require.Eventually(t, func() bool {
		snap := session.Snapshot()
		return snap.QuestionIndex == 1
	}, 5*time.Second, 20*time.Millisecond, "таймаут должен продвинуть сессию")

	assert.Equal(t, 0, session.Snapshot().Score)
}

func TestSession_CompletePersistsAttempt(t *testing.T) {
	runner, attemptRepo, userRepo, invalidator := newTestRunner(t, testQuestions(1))

	session, err := runner.StartSession(7, []entity.Category{entity.CategoryDSA})
	require.NoError(t, err)

	session.SubmitAnswer("B")

	require.Eventually(t, func() bool {
		return session.State() == StateComplete
	}, 2*time.Second, 10*time.Millisecond, "сессия должна завершиться после последнего вопроса")

	score, total, done := session.Result()
	assert.True(t, done)
	assert.Equal(t, 1, score)
	assert.Equal(t, 1, total)

	// Попытка сохранена, счет профиля обновлен, кеш лидерборда сброшен
	require.Eventually(t, func() bool {
		return invalidator.count() == 1
	}, 2*time.Second, 10*time.Millisecond)

	attemptRepo.AssertCalled(t, "Create", mock.MatchedBy(func(a *entity.QuizAttempt) bool {
		return a.UserID == 7 && a.Score == 1 && a.TotalQuestions == 1 && a.Category == entity.CategoryDSA
	}))
	userRepo.AssertCalled(t, "AddToTotalScore", uint(7), int64(1))
}

func TestSession_ZeroScoreSkipsScoreUpdate(t *testing.T) {
	runner, attemptRepo, userRepo, _ := newTestRunner(t, testQuestions(1))

	session, err := runner.StartSession(3, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	session.SubmitAnswer("A")

	// Событие завершения публикуется после персистентности
	waitForEvent(t, events, EventComplete)

	// Попытка записывается даже с нулевым счетом, но профиль не трогаем
	attemptRepo.AssertCalled(t, "Create", mock.MatchedBy(func(a *entity.QuizAttempt) bool {
		return a.UserID == 3 && a.Score == 0
	}))
	userRepo.AssertNotCalled(t, "AddToTotalScore", mock.Anything, mock.Anything)
}

func TestSession_AdvanceDropsStaleLockSignal(t *testing.T) {
	// Воспроизводим пограничный случай: ответ пришел на границе тика,
	// run() вышел из фазы ожидания по тику (увидев StateLocked), и сигнал
	// ответа остался неизрасходованным в канале. Переход к следующему
	// вопросу обязан его сбросить, иначе следующий вопрос закончится
	// мгновенно — без отсчета и без окна для ответа.
	cfg := testConfig()
	session := newSession(context.Background(), "boundary-session", 1,
		[]entity.Category{entity.CategoryOS}, testQuestions(3), cfg, &Dependencies{})
	defer session.discard()

	// Ответ блокирует вопрос и ставит сигнал в канал; run() не запущен,
	// поэтому сигнал никто не потребляет — как при выходе по тику
	snap := session.SubmitAnswer("B")
	require.Equal(t, StateLocked, snap.State)

	require.False(t, session.advance())

	// Новый вопрос взведен с чистым состоянием и полным таймером
	snap = session.Snapshot()
	assert.Equal(t, StateAwaitingAnswer, snap.State)
	assert.Equal(t, 1, snap.QuestionIndex)
	assert.Equal(t, cfg.CountdownSec, snap.SecondsLeft, "таймер нового вопроса должен быть полным")
	assert.Nil(t, snap.Reveal)

	// Канал пуст: устаревший сигнал не должен пережить переход
	select {
	case <-session.lockedCh:
		t.Fatal("сигнал блокировки предыдущего вопроса должен сбрасываться при переходе")
	default:
	}

	// Новый вопрос принимает ответ как обычно
	snap = session.SubmitAnswer("B")
	assert.Equal(t, StateLocked, snap.State)
	assert.Equal(t, 2, snap.Score)
}

func TestSession_EveryQuestionGetsReveal(t *testing.T) {
	// Каждый вопрос проходит через раскрытие ответа: ни один не может
	// быть пропущен без фазы Locked, даже при ответах на границе тика
	runner, _, _, _ := newTestRunner(t, testQuestions(3))

	session, err := runner.StartSession(1, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	reveals := 0
	answered := map[int]bool{}
	deadline := time.After(15 * time.Second)
	for {
		// Отвечаем на текущий вопрос, если еще не отвечали
		snap := session.Snapshot()
		if snap.State == StateAwaitingAnswer && !answered[snap.QuestionIndex] {
			answered[snap.QuestionIndex] = true
			session.SubmitAnswer("B")
		}

		select {
		case ev := <-events:
			switch ev.Type {
			case EventReveal:
				reveals++
			case EventComplete:
				assert.Equal(t, 3, reveals, "каждый вопрос должен пройти через раскрытие ответа")
				return
			}
		case <-deadline:
			t.Fatalf("сессия не завершилась, раскрытий: %d", reveals)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestRunner_GetSession_Ownership(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, testQuestions(2))

	session, err := runner.StartSession(1, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)

	// Владелец получает сессию
	got, err := runner.GetSession(session.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, session.ID, got.ID)

	// Чужая сессия недоступна
	_, err = runner.GetSession(session.ID, 2)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	// Несуществующий ID
	_, err = runner.GetSession("nonexistent", 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestRunner_StartSession_ReplacesPrevious(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, testQuestions(2))

	first, err := runner.StartSession(1, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)

	second, err := runner.StartSession(1, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// Старая сессия удалена и остановлена
	_, err = runner.GetSession(first.ID, 1)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	select {
	case <-first.Done():
	case <-time.After(time.Second):
		t.Fatal("горутина первой сессии должна быть остановлена")
	}
}

func TestSession_SubscribeReceivesEvents(t *testing.T) {
	runner, _, _, _ := newTestRunner(t, testQuestions(1))

	session, err := runner.StartSession(1, []entity.Category{entity.CategoryOS})
	require.NoError(t, err)

	events, unsubscribe := session.Subscribe()
	defer unsubscribe()

	session.SubmitAnswer("B")

	// Сначала раскрытие ответа, затем завершение
	waitForEvent(t, events, EventReveal)
	waitForEvent(t, events, EventComplete)
}
