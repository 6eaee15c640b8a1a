// Package profilesvc owns profile lifecycle and settings updates on top of
// the profile store: creation on first contact, last-seen touches and
// validated mutation of the AI settings.
package profilesvc

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openrouter-tgbot-go/internal/models"
	"github.com/openrouter-tgbot-go/internal/services/storage"
)

// Service manages user profiles
type Service struct {
	storage      storage.Storage
	defaultModel string
	defaultTemp  float64
	logger       *logrus.Logger
}

// New creates a profile service. defaultModel and defaultTemp seed new
// profiles.
func New(store storage.Storage, defaultModel string, defaultTemp float64, logger *logrus.Logger) *Service {
	return &Service{
		storage:      store,
		defaultModel: defaultModel,
		defaultTemp:  defaultTemp,
		logger:       logger,
	}
}

// Get returns the profile, or nil when the user is unknown.
func (s *Service) Get(ctx context.Context, userID int64) (*models.UserProfile, error) {
	return s.storage.GetProfile(ctx, userID)
}

// Ensure creates the profile on first contact and touches last_seen on every
// later one. The caller passes transport-level identity fields.
func (s *Service) Ensure(ctx context.Context, identity models.UserProfile) (*models.UserProfile, error) {
	profile, err := s.storage.GetProfile(ctx, identity.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if profile == nil {
		profile = &identity
		profile.AIModel = s.defaultModel
		profile.Temperature = s.defaultTemp
		profile.CreatedAt = now
		profile.LastSeen = now
		if err := s.storage.CreateProfile(ctx, profile); err != nil {
			return nil, err
		}
		s.logger.WithField("user_id", profile.UserID).Info("Profile created")
		return profile, nil
	}

	if err := s.storage.UpdateProfile(ctx, identity.UserID, models.ProfilePatch{LastSeen: &now}); err != nil {
		s.logger.WithError(err).WithField("user_id", identity.UserID).Warn("Failed to touch last_seen")
	}
	profile.LastSeen = now
	return profile, nil
}

// Touch updates last_seen without requiring the full identity.
func (s *Service) Touch(ctx context.Context, userID int64) {
	now := time.Now()
	if err := s.storage.UpdateProfile(ctx, userID, models.ProfilePatch{LastSeen: &now}); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Debug("Failed to touch last_seen")
	}
}

// UpdateModel sets the user's model identifier. The value is opaque text;
// anything non-empty is accepted, bad identifiers surface later from the
// completion endpoint.
func (s *Service) UpdateModel(ctx context.Context, userID int64, model string) bool {
	if model == "" {
		return false
	}
	if err := s.storage.UpdateProfile(ctx, userID, models.ProfilePatch{AIModel: &model}); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to update model")
		return false
	}
	return true
}

// ParseTemperature validates raw user input. Only real numbers in the closed
// interval [0.0, 1.0] are accepted; rejection happens before any store write.
func ParseTemperature(raw string) (float64, bool) {
	temp, err := strconv.ParseFloat(raw, 64)
	if err != nil || temp < 0.0 || temp > 1.0 {
		return 0, false
	}
	return temp, true
}

// UpdateTemperature persists an already-validated temperature.
func (s *Service) UpdateTemperature(ctx context.Context, userID int64, temp float64) bool {
	if err := s.storage.UpdateProfile(ctx, userID, models.ProfilePatch{Temperature: &temp}); err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Error("Failed to update temperature")
		return false
	}
	return true
}
