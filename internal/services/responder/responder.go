// Package responder coordinates the response-generation pipeline: profile
// lookup, bounded history retrieval, prompt assembly, the remote completion
// call and history persistence.
package responder

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/openrouter-tgbot-go/internal/models"
	"github.com/openrouter-tgbot-go/internal/outcome"
	"github.com/openrouter-tgbot-go/internal/services/ai"
	"github.com/openrouter-tgbot-go/internal/services/prompt"
	"github.com/openrouter-tgbot-go/internal/services/storage"
)

// Responder generates replies to user messages
type Responder struct {
	storage       storage.Storage
	completions   ai.Service
	hasCredential func() bool
	windowSize    int
	logger        *logrus.Logger

	mu    sync.Mutex
	locks map[int64]*sync.Mutex
}

// New creates a new responder. hasCredential is checked once per call before
// any store access; windowSize bounds the history included in a prompt.
func New(store storage.Storage, completions ai.Service, hasCredential func() bool, windowSize int, logger *logrus.Logger) *Responder {
	return &Responder{
		storage:       store,
		completions:   completions,
		hasCredential: hasCredential,
		windowSize:    windowSize,
		logger:        logger,
		locks:         make(map[int64]*sync.Mutex),
	}
}

// Generate produces a reply for the user's message. Failures come back as
// outcome errors; no fault escapes this boundary unclassified. On success
// exactly two turns are appended, user first, then assistant. Appends are
// best-effort relative to the reply: a failed write is logged, the reply is
// still returned.
func (r *Responder) Generate(ctx context.Context, userID int64, messageText string) (string, error) {
	if !r.hasCredential() {
		r.logger.Error("Completion credential is not configured")
		return "", outcome.ErrConfig
	}

	profile, err := r.storage.GetProfile(ctx, userID)
	if err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("Failed to load profile")
		return "", outcome.Transient(err)
	}
	if profile == nil {
		return "", outcome.ErrUserUnknown
	}

	// Reads of the window and the paired appends form a per-user critical
	// section. Concurrent requests for the same user must not interleave
	// their turn pairs or double-read the same window.
	lock := r.userLock(userID)
	lock.Lock()
	defer lock.Unlock()

	window, err := r.storage.RecentHistory(ctx, userID, r.windowSize)
	if err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("Failed to load history")
		return "", outcome.Transient(err)
	}

	messages := prompt.Assemble(profile, window, messageText)

	reply, err := r.completions.Complete(ctx, messages, profile.AIModel, profile.Temperature)
	if err != nil {
		// Already classified by the client; nothing is persisted for a
		// failed exchange.
		return "", err
	}

	if err := r.storage.AppendHistory(ctx, userID, models.RoleUser, messageText); err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("Failed to append user turn")
		// Without the user turn the assistant turn would break ordering.
		return reply, nil
	}
	if err := r.storage.AppendHistory(ctx, userID, models.RoleAssistant, reply); err != nil {
		r.logger.WithError(err).WithField("user_id", userID).Error("Failed to append assistant turn")
	}

	return reply, nil
}

func (r *Responder) userLock(userID int64) *sync.Mutex {
	r.mu.Lock()
	defer r.mu.Unlock()

	lock, ok := r.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[userID] = lock
	}
	return lock
}
