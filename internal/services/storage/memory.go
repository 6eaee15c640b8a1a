package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/openrouter-tgbot-go/internal/models"
)

// MemoryStorage implements storage in process memory. Profiles live in a
// go-cache instance, history in mutex-guarded per-user slices. Used for
// single-node deployments and as the backend under tests.
type MemoryStorage struct {
	profiles *cache.Cache
	logger   *logrus.Logger

	mu        sync.RWMutex
	histories map[int64][]models.HistoryTurn
	tuned     map[int64]struct{}
	active    map[int64]time.Time
}

func NewMemoryStorage(logger *logrus.Logger) *MemoryStorage {
	return &MemoryStorage{
		profiles:  cache.New(cache.NoExpiration, cache.NoExpiration),
		logger:    logger,
		histories: make(map[int64][]models.HistoryTurn),
		tuned:     make(map[int64]struct{}),
		active:    make(map[int64]time.Time),
	}
}

func (m *MemoryStorage) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	if val, found := m.profiles.Get(profileKey(userID)); found {
		// Copy so callers cannot mutate the stored profile in place.
		profile := *val.(*models.UserProfile)
		return &profile, nil
	}
	return nil, nil
}

func (m *MemoryStorage) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	stored := *profile
	m.profiles.Set(profileKey(profile.UserID), &stored, cache.NoExpiration)
	return nil
}

func (m *MemoryStorage) UpdateProfile(ctx context.Context, userID int64, patch models.ProfilePatch) error {
	val, found := m.profiles.Get(profileKey(userID))
	if !found {
		return fmt.Errorf("profile not found: %d", userID)
	}

	profile := *val.(*models.UserProfile)
	applyPatch(&profile, patch)
	m.profiles.Set(profileKey(userID), &profile, cache.NoExpiration)

	if patch.AIModel != nil || patch.Temperature != nil {
		m.mu.Lock()
		m.tuned[userID] = struct{}{}
		m.mu.Unlock()
	}
	return nil
}

func (m *MemoryStorage) RecentHistory(ctx context.Context, userID int64, limit int) ([]models.HistoryTurn, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	history := m.histories[userID]
	start := 0
	if len(history) > limit {
		start = len(history) - limit
	}

	window := make([]models.HistoryTurn, len(history)-start)
	copy(window, history[start:])
	return window, nil
}

func (m *MemoryStorage) AppendHistory(ctx context.Context, userID int64, role, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.histories[userID] = append(m.histories[userID], models.HistoryTurn{
		UserID:   userID,
		Role:     role,
		Content:  content,
		Sequence: int64(len(m.histories[userID])) + 1,
	})
	return nil
}

func (m *MemoryStorage) ClearHistory(ctx context.Context, userID int64) error {
	m.mu.Lock()
	delete(m.histories, userID)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) Stats(ctx context.Context) (*models.BotStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	today := time.Now().UTC().Truncate(24 * time.Hour)
	var activeToday int64
	for _, seen := range m.active {
		if !seen.UTC().Truncate(24 * time.Hour).Before(today) {
			activeToday++
		}
	}

	return &models.BotStats{
		TotalUsers:        int64(m.profiles.ItemCount()),
		ActiveToday:       activeToday,
		UsersWithSettings: int64(len(m.tuned)),
	}, nil
}

func (m *MemoryStorage) MarkActive(ctx context.Context, userID int64) error {
	m.mu.Lock()
	m.active[userID] = time.Now()
	m.mu.Unlock()
	return nil
}
