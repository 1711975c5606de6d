package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/quizdash-api/internal/domain/entity"
)

func TestLeaderboardService_GetTop_CacheMiss(t *testing.T) {
	// Arrange
	userRepo := new(MockUserRepo)
	cacheRepo := new(MockCacheRepo)
	svc := NewLeaderboardService(userRepo, cacheRepo, 10, 30*time.Second)

	cacheRepo.On("GetJSON", leaderboardCacheKey, mock.Anything).Return(errors.New("cache miss"))
	userRepo.On("GetLeaderboard", 10).Return([]entity.User{
		{ID: 1, Username: "alice", Avatar: "🦊", TotalScore: 150},
		{ID: 2, Username: "bob", Avatar: "🐸", TotalScore: 120},
	}, nil)
	cacheRepo.On("SetJSON", leaderboardCacheKey, mock.Anything, 30*time.Second).Return(nil)

	// Act
	entries, err := svc.GetTop()

	// Assert
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, int64(150), entries[0].TotalScore)
	assert.Equal(t, 2, entries[1].Rank, "ранги присваиваются по порядку выборки")
	userRepo.AssertExpectations(t)
	cacheRepo.AssertExpectations(t)
}

func TestLeaderboardService_GetTop_CacheHit(t *testing.T) {
	userRepo := new(MockUserRepo)
	cacheRepo := new(MockCacheRepo)
	svc := NewLeaderboardService(userRepo, cacheRepo, 10, 30*time.Second)

	cacheRepo.On("GetJSON", leaderboardCacheKey, mock.Anything).
		Run(func(args mock.Arguments) {
			dest := args.Get(1).(*[]LeaderboardEntry)
			*dest = []LeaderboardEntry{{Rank: 1, UserID: 1, Username: "cached", TotalScore: 99}}
		}).
		Return(nil)

	entries, err := svc.GetTop()

	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "cached", entries[0].Username)
	// При попадании в кеш БД не трогаем
	userRepo.AssertNotCalled(t, "GetLeaderboard")
}

func TestLeaderboardService_GetTop_CacheWriteFailureNotFatal(t *testing.T) {
	userRepo := new(MockUserRepo)
	cacheRepo := new(MockCacheRepo)
	svc := NewLeaderboardService(userRepo, cacheRepo, 10, 30*time.Second)

	cacheRepo.On("GetJSON", leaderboardCacheKey, mock.Anything).Return(errors.New("cache miss"))
	userRepo.On("GetLeaderboard", 10).Return([]entity.User{{ID: 1, Username: "alice"}}, nil)
	cacheRepo.On("SetJSON", leaderboardCacheKey, mock.Anything, 30*time.Second).Return(errors.New("redis down"))

	entries, err := svc.GetTop()

	assert.NoError(t, err, "ошибка записи кеша не должна ломать ответ")
	assert.Len(t, entries, 1)
}

func TestLeaderboardService_InvalidateCache(t *testing.T) {
	userRepo := new(MockUserRepo)
	cacheRepo := new(MockCacheRepo)
	svc := NewLeaderboardService(userRepo, cacheRepo, 10, 30*time.Second)

	cacheRepo.On("Delete", leaderboardCacheKey).Return(nil)

	svc.InvalidateCache()

	cacheRepo.AssertExpectations(t)
}
