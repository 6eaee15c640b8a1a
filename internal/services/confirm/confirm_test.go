package confirm

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func newTestManager() *Manager {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewManager(time.Minute, log)
}

func TestResolveConfirm(t *testing.T) {
	m := newTestManager()
	token := m.Begin(7, ActionClearHistory)

	res, ok := m.Resolve(token, true)
	if !ok {
		t.Fatal("expected pending request to resolve")
	}
	if res.State != Confirmed {
		t.Fatalf("expected Confirmed, got %v", res.State)
	}
	if res.UserID != 7 || res.Action != ActionClearHistory {
		t.Fatalf("resolution lost the request identity: %+v", res)
	}
}

func TestResolveCancel(t *testing.T) {
	m := newTestManager()
	token := m.Begin(7, ActionClearHistory)

	res, ok := m.Resolve(token, false)
	if !ok {
		t.Fatal("expected pending request to resolve")
	}
	if res.State != Cancelled {
		t.Fatalf("expected Cancelled, got %v", res.State)
	}
}

func TestSecondResolutionIsNoOp(t *testing.T) {
	m := newTestManager()
	token := m.Begin(7, ActionClearHistory)

	if _, ok := m.Resolve(token, true); !ok {
		t.Fatal("first resolution must succeed")
	}
	if _, ok := m.Resolve(token, true); ok {
		t.Fatal("second confirm on a resolved token must be a no-op")
	}
	if _, ok := m.Resolve(token, false); ok {
		t.Fatal("cancel after resolution must be a no-op")
	}
}

func TestUnknownTokenIsNoOp(t *testing.T) {
	m := newTestManager()
	if _, ok := m.Resolve("deadbeef", true); ok {
		t.Fatal("unknown token must not resolve")
	}
}

func TestTokensAreUnique(t *testing.T) {
	m := newTestManager()
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		token := m.Begin(int64(i), ActionClearHistory)
		if seen[token] {
			t.Fatalf("duplicate token issued: %s", token)
		}
		seen[token] = true
	}
}

func TestExpiredRequestBehavesLikeCancelled(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	m := NewManager(10*time.Millisecond, log)

	token := m.Begin(7, ActionClearHistory)
	time.Sleep(30 * time.Millisecond)

	if _, ok := m.Resolve(token, true); ok {
		t.Fatal("expired token must not resolve")
	}
}
