// Package confirm implements the two-step confirmation flow that gates
// destructive actions. Each request is a short-lived record keyed by an
// opaque token; resolution is idempotent, the first choice wins.
package confirm

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"
)

// Action identifies the destructive operation being confirmed
type Action string

const ActionClearHistory Action = "clear_history"

// State of a confirmation request. Confirmed and Cancelled are terminal.
type State int

const (
	Pending State = iota
	Confirmed
	Cancelled
)

// Resolution is the result of resolving a pending request
type Resolution struct {
	Action Action
	UserID int64
	State  State
}

// Manager tracks pending confirmation requests. Entries expire after ttl;
// an expired entry behaves exactly like a cancelled one with respect to
// store mutation, since resolving it becomes a no-op.
type Manager struct {
	mu      sync.Mutex
	pending *cache.Cache
	logger  *logrus.Logger
}

type request struct {
	action Action
	userID int64
}

// NewManager creates a confirmation manager with the given pending TTL.
func NewManager(ttl time.Duration, logger *logrus.Logger) *Manager {
	return &Manager{
		pending: cache.New(ttl, ttl/2),
		logger:  logger,
	}
}

// Begin registers a pending request and returns its correlation token.
func (m *Manager) Begin(userID int64, action Action) string {
	token := newToken()

	m.mu.Lock()
	m.pending.SetDefault(token, &request{action: action, userID: userID})
	m.mu.Unlock()

	m.logger.WithFields(logrus.Fields{
		"user_id": userID,
		"action":  string(action),
	}).Debug("Confirmation requested")

	return token
}

// Resolve applies the user's choice to the pending request. The returned
// bool is false when the token is unknown, expired or already resolved;
// callers still acknowledge the button press but perform no mutation.
func (m *Manager) Resolve(token string, confirmed bool) (Resolution, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	val, found := m.pending.Get(token)
	if !found {
		return Resolution{}, false
	}
	m.pending.Delete(token)

	req := val.(*request)
	state := Cancelled
	if confirmed {
		state = Confirmed
	}

	m.logger.WithFields(logrus.Fields{
		"user_id":   req.userID,
		"action":    string(req.action),
		"confirmed": confirmed,
	}).Debug("Confirmation resolved")

	return Resolution{Action: req.action, UserID: req.userID, State: state}, true
}

func newToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand never fails on supported platforms
		panic(err)
	}
	return hex.EncodeToString(buf)
}
