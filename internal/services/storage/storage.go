package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/openrouter-tgbot-go/internal/config"
	"github.com/openrouter-tgbot-go/internal/models"
)

// Storage interface defines profile and history operations.
// A missing profile is (nil, nil), not an error.
type Storage interface {
	// Profile operations
	GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error)
	CreateProfile(ctx context.Context, profile *models.UserProfile) error
	UpdateProfile(ctx context.Context, userID int64, patch models.ProfilePatch) error

	// History operations
	RecentHistory(ctx context.Context, userID int64, limit int) ([]models.HistoryTurn, error)
	AppendHistory(ctx context.Context, userID int64, role, content string) error
	ClearHistory(ctx context.Context, userID int64) error

	// Stats operations
	Stats(ctx context.Context) (*models.BotStats, error)
	MarkActive(ctx context.Context, userID int64) error
}

// Manager wraps the configured storage backend
type Manager struct {
	storage Storage
	logger  *logrus.Logger
}

// NewManager creates a new storage manager
func NewManager(cfg *config.Config, logger *logrus.Logger) (*Manager, error) {
	var storage Storage

	switch cfg.Storage.Type {
	case "redis":
		redisStorage, err := NewRedisStorage(cfg, logger)
		if err != nil {
			return nil, err
		}
		storage = redisStorage
	case "memory":
		storage = NewMemoryStorage(logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}

	return &Manager{storage: storage, logger: logger}, nil
}

func (m *Manager) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	return m.storage.GetProfile(ctx, userID)
}

func (m *Manager) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	return m.storage.CreateProfile(ctx, profile)
}

func (m *Manager) UpdateProfile(ctx context.Context, userID int64, patch models.ProfilePatch) error {
	return m.storage.UpdateProfile(ctx, userID, patch)
}

func (m *Manager) RecentHistory(ctx context.Context, userID int64, limit int) ([]models.HistoryTurn, error) {
	return m.storage.RecentHistory(ctx, userID, limit)
}

func (m *Manager) AppendHistory(ctx context.Context, userID int64, role, content string) error {
	return m.storage.AppendHistory(ctx, userID, role, content)
}

func (m *Manager) ClearHistory(ctx context.Context, userID int64) error {
	return m.storage.ClearHistory(ctx, userID)
}

func (m *Manager) Stats(ctx context.Context) (*models.BotStats, error) {
	return m.storage.Stats(ctx)
}

func (m *Manager) MarkActive(ctx context.Context, userID int64) error {
	return m.storage.MarkActive(ctx, userID)
}

// RedisStorage implements storage using Redis. Profiles are JSON values,
// history is a Redis list per user so insertion order is the turn sequence.
type RedisStorage struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewRedisStorage(cfg *config.Config, logger *logrus.Logger) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Storage.Redis.Addr,
		Password: cfg.Storage.Redis.Password,
		DB:       cfg.Storage.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &RedisStorage{client: client, logger: logger}, nil
}

func profileKey(userID int64) string { return fmt.Sprintf("profile:%d", userID) }
func historyKey(userID int64) string { return fmt.Sprintf("history:%d", userID) }

func activeKey(day time.Time) string {
	return fmt.Sprintf("active:%s", day.UTC().Format("2006-01-02"))
}

func (r *RedisStorage) GetProfile(ctx context.Context, userID int64) (*models.UserProfile, error) {
	data, err := r.client.Get(ctx, profileKey(userID)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var profile models.UserProfile
	if err := json.Unmarshal([]byte(data), &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *RedisStorage) CreateProfile(ctx context.Context, profile *models.UserProfile) error {
	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, profileKey(profile.UserID), data, 0).Err(); err != nil {
		return err
	}

	return r.client.SAdd(ctx, "users", profile.UserID).Err()
}

func (r *RedisStorage) UpdateProfile(ctx context.Context, userID int64, patch models.ProfilePatch) error {
	profile, err := r.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if profile == nil {
		return fmt.Errorf("profile not found: %d", userID)
	}

	applyPatch(profile, patch)

	data, err := json.Marshal(profile)
	if err != nil {
		return err
	}

	if err := r.client.Set(ctx, profileKey(userID), data, 0).Err(); err != nil {
		return err
	}

	if patch.AIModel != nil || patch.Temperature != nil {
		return r.client.SAdd(ctx, "users:tuned", userID).Err()
	}
	return nil
}

func (r *RedisStorage) RecentHistory(ctx context.Context, userID int64, limit int) ([]models.HistoryTurn, error) {
	total, err := r.client.LLen(ctx, historyKey(userID)).Result()
	if err != nil {
		return nil, err
	}

	entries, err := r.client.LRange(ctx, historyKey(userID), int64(-limit), -1).Result()
	if err != nil {
		return nil, err
	}

	// LRange with a negative start returns the list tail, oldest first.
	turns := make([]models.HistoryTurn, 0, len(entries))
	base := total - int64(len(entries))
	for i, entry := range entries {
		var turn models.HistoryTurn
		if err := json.Unmarshal([]byte(entry), &turn); err != nil {
			return nil, err
		}
		turn.UserID = userID
		turn.Sequence = base + int64(i) + 1
		turns = append(turns, turn)
	}

	return turns, nil
}

func (r *RedisStorage) AppendHistory(ctx context.Context, userID int64, role, content string) error {
	data, err := json.Marshal(models.HistoryTurn{Role: role, Content: content})
	if err != nil {
		return err
	}
	return r.client.RPush(ctx, historyKey(userID), data).Err()
}

func (r *RedisStorage) ClearHistory(ctx context.Context, userID int64) error {
	return r.client.Del(ctx, historyKey(userID)).Err()
}

func (r *RedisStorage) Stats(ctx context.Context) (*models.BotStats, error) {
	total, err := r.client.SCard(ctx, "users").Result()
	if err != nil {
		return nil, err
	}
	active, err := r.client.SCard(ctx, activeKey(time.Now())).Result()
	if err != nil {
		return nil, err
	}
	tuned, err := r.client.SCard(ctx, "users:tuned").Result()
	if err != nil {
		return nil, err
	}

	return &models.BotStats{
		TotalUsers:        total,
		ActiveToday:       active,
		UsersWithSettings: tuned,
	}, nil
}

func (r *RedisStorage) MarkActive(ctx context.Context, userID int64) error {
	key := activeKey(time.Now())
	if err := r.client.SAdd(ctx, key, userID).Err(); err != nil {
		return err
	}
	// Daily sets expire on their own after two days.
	return r.client.Expire(ctx, key, 48*time.Hour).Err()
}

func applyPatch(profile *models.UserProfile, patch models.ProfilePatch) {
	if patch.AIModel != nil {
		profile.AIModel = *patch.AIModel
	}
	if patch.Temperature != nil {
		profile.Temperature = *patch.Temperature
	}
	if patch.LastSeen != nil {
		profile.LastSeen = *patch.LastSeen
	}
}
