package service

import (
	"fmt"
	"log"
	"time"

	"github.com/yourusername/quizdash-api/internal/domain/repository"
)

const leaderboardCacheKey = "leaderboard:top"

// LeaderboardEntry — строка лидерборда
type LeaderboardEntry struct {
	Rank       int    `json:"rank"`
	UserID     uint   `json:"user_id"`
	Username   string `json:"username"`
	Avatar     string `json:"avatar"`
	TotalScore int64  `json:"total_score"`
}

// LeaderboardService отдает топ пользователей по накопленному счету.
// Результат кешируется в Redis на короткий TTL, чтобы страница
// лидерборда не ходила в Postgres на каждый запрос.
type LeaderboardService struct {
	userRepo  repository.UserRepository
	cacheRepo repository.CacheRepository
	size      int
	cacheTTL  time.Duration
}

// NewLeaderboardService создает новый сервис лидерборда
func NewLeaderboardService(userRepo repository.UserRepository, cacheRepo repository.CacheRepository, size int, cacheTTL time.Duration) *LeaderboardService {
	if size <= 0 {
		size = 10
	}
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}
	return &LeaderboardService{
		userRepo:  userRepo,
		cacheRepo: cacheRepo,
		size:      size,
		cacheTTL:  cacheTTL,
	}
}

// GetTop возвращает топ лидерборда, сначала пробуя кеш.
// Ошибки кеша не фатальны: при недоступном Redis читаем из БД напрямую.
func (s *LeaderboardService) GetTop() ([]LeaderboardEntry, error) {
	if s.cacheRepo != nil {
		var cached []LeaderboardEntry
		if err := s.cacheRepo.GetJSON(leaderboardCacheKey, &cached); err == nil {
			return cached, nil
		}
	}

	users, err := s.userRepo.GetLeaderboard(s.size)
	if err != nil {
		return nil, fmt.Errorf("failed to load leaderboard: %w", err)
	}

	entries := make([]LeaderboardEntry, 0, len(users))
	for i, u := range users {
		entries = append(entries, LeaderboardEntry{
			Rank:       i + 1,
			UserID:     u.ID,
			Username:   u.Username,
			Avatar:     u.Avatar,
			TotalScore: u.TotalScore,
		})
	}

	if s.cacheRepo != nil {
		if err := s.cacheRepo.SetJSON(leaderboardCacheKey, entries, s.cacheTTL); err != nil {
			log.Printf("[LeaderboardService] Не удалось записать кеш лидерборда: %v", err)
		}
	}
	return entries, nil
}

// InvalidateCache сбрасывает кеш после обновления счета пользователя,
// чтобы свежий результат попал в лидерборд без ожидания TTL
func (s *LeaderboardService) InvalidateCache() {
	if s.cacheRepo == nil {
		return
	}
	if err := s.cacheRepo.Delete(leaderboardCacheKey); err != nil {
		log.Printf("[LeaderboardService] Не удалось сбросить кеш лидерборда: %v", err)
	}
}
