package responder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/openrouter-tgbot-go/internal/models"
	"github.com/openrouter-tgbot-go/internal/outcome"
	"github.com/openrouter-tgbot-go/internal/services/storage"
)

type fakeCompletions struct {
	reply string
	err   error
	calls int
	seen  []models.Message
}

func (f *fakeCompletions) Complete(ctx context.Context, messages []models.Message, modelID string, temperature float64) (string, error) {
	f.calls++
	f.seen = messages
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func seedProfile(t *testing.T, store storage.Storage, userID int64) {
	t.Helper()
	err := store.CreateProfile(context.Background(), &models.UserProfile{
		UserID:       userID,
		FirstName:    "Ana",
		LanguageCode: "en",
		AIModel:      "test-model",
		Temperature:  0.7,
		CreatedAt:    time.Now(),
		LastSeen:     time.Now(),
	})
	if err != nil {
		t.Fatalf("failed to seed profile: %v", err)
	}
}

func TestGenerateUnknownUserWritesNothing(t *testing.T) {
	store := storage.NewMemoryStorage(quietLogger())
	completions := &fakeCompletions{reply: "hi"}
	r := New(store, completions, func() bool { return true }, 8, quietLogger())

	_, err := r.Generate(context.Background(), 42, "hello")
	if !errors.Is(err, outcome.ErrUserUnknown) {
		t.Fatalf("expected user-unknown outcome, got %v", err)
	}
	if completions.calls != 0 {
		t.Fatal("completion must not be called for an unknown user")
	}

	history, _ := store.RecentHistory(context.Background(), 42, 10)
	if len(history) != 0 {
		t.Fatalf("expected no history writes, got %d turns", len(history))
	}
}

func TestGenerateMissingCredential(t *testing.T) {
	store := storage.NewMemoryStorage(quietLogger())
	seedProfile(t, store, 1)
	completions := &fakeCompletions{reply: "hi"}
	r := New(store, completions, func() bool { return false }, 8, quietLogger())

	_, err := r.Generate(context.Background(), 1, "hello")
	if !errors.Is(err, outcome.ErrConfig) {
		t.Fatalf("expected config outcome, got %v", err)
	}
	if completions.calls != 0 {
		t.Fatal("completion must not be called without a credential")
	}
}

func TestGenerateSuccessAppendsPairInOrder(t *testing.T) {
	store := storage.NewMemoryStorage(quietLogger())
	seedProfile(t, store, 1)
	completions := &fakeCompletions{reply: "red, green, blue, yellow"}
	r := New(store, completions, func() bool { return true }, 8, quietLogger())

	reply, err := r.Generate(context.Background(), 1, "List 6 colors")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if reply != "red, green, blue, yellow" {
		t.Fatalf("unexpected reply: %q", reply)
	}

	history, err := store.RecentHistory(context.Background(), 1, 10)
	if err != nil {
		t.Fatalf("RecentHistory failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected exactly 2 turns, got %d", len(history))
	}
	if history[0].Role != models.RoleUser || history[0].Content != "List 6 colors" {
		t.Fatalf("first turn must be the user message: %+v", history[0])
	}
	if history[1].Role != models.RoleAssistant || history[1].Content != reply {
		t.Fatalf("second turn must be the assistant reply: %+v", history[1])
	}
}

func TestGenerateWindowExcludesCurrentMessage(t *testing.T) {
	store := storage.NewMemoryStorage(quietLogger())
	seedProfile(t, store, 1)
	store.AppendHistory(context.Background(), 1, models.RoleUser, "old question")
	store.AppendHistory(context.Background(), 1, models.RoleAssistant, "old answer")

	completions := &fakeCompletions{reply: "ok"}
	r := New(store, completions, func() bool { return true }, 8, quietLogger())

	if _, err := r.Generate(context.Background(), 1, "new question"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// system + 2 history turns + current turn
	if len(completions.seen) != 4 {
		t.Fatalf("expected 4 prompt messages, got %d", len(completions.seen))
	}
	for _, m := range completions.seen[1:3] {
		if m.Content == "new question" {
			t.Fatal("history window must not contain the current message")
		}
	}
	if completions.seen[3].Content != "new question" {
		t.Fatalf("current message must be last: %+v", completions.seen[3])
	}
}

func TestGenerateBoundsHistoryWindow(t *testing.T) {
	store := storage.NewMemoryStorage(quietLogger())
	seedProfile(t, store, 1)
	for i := 0; i < 6; i++ {
		store.AppendHistory(context.Background(), 1, models.RoleUser, "q")
		store.AppendHistory(context.Background(), 1, models.RoleAssistant, "a")
	}

	completions := &fakeCompletions{reply: "ok"}
	r := New(store, completions, func() bool { return true }, 4, quietLogger())

	if _, err := r.Generate(context.Background(), 1, "latest"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// system + 4-turn window + current turn
	if len(completions.seen) != 6 {
		t.Fatalf("expected 6 prompt messages with window 4, got %d", len(completions.seen))
	}
}

func TestGenerateTransientFailureLeavesHistoryUnchanged(t *testing.T) {
	store := storage.NewMemoryStorage(quietLogger())
	seedProfile(t, store, 1)
	store.AppendHistory(context.Background(), 1, models.RoleUser, "earlier")

	completions := &fakeCompletions{err: outcome.Transient(errors.New("connection refused"))}
	r := New(store, completions, func() bool { return true }, 8, quietLogger())

	_, err := r.Generate(context.Background(), 1, "hello")
	if !errors.Is(err, outcome.ErrTransient) {
		t.Fatalf("expected transient outcome, got %v", err)
	}

	history, _ := store.RecentHistory(context.Background(), 1, 10)
	if len(history) != 1 {
		t.Fatalf("history must be unchanged after a failed call, got %d turns", len(history))
	}
}

func TestGenerateFormatFailureLeavesHistoryUnchanged(t *testing.T) {
	store := storage.NewMemoryStorage(quietLogger())
	seedProfile(t, store, 1)

	completions := &fakeCompletions{err: outcome.BadFormat(errors.New("no choices"))}
	r := New(store, completions, func() bool { return true }, 8, quietLogger())

	_, err := r.Generate(context.Background(), 1, "hello")
	if !errors.Is(err, outcome.ErrBadFormat) {
		t.Fatalf("expected format outcome, got %v", err)
	}

	history, _ := store.RecentHistory(context.Background(), 1, 10)
	if len(history) != 0 {
		t.Fatalf("history must stay empty after a failed call, got %d turns", len(history))
	}
}

func TestGenerateUsesProfileModelAndTemperature(t *testing.T) {
	store := storage.NewMemoryStorage(quietLogger())
	seedProfile(t, store, 1)

	var gotModel string
	var gotTemp float64
	completions := completionFunc(func(ctx context.Context, messages []models.Message, modelID string, temperature float64) (string, error) {
		gotModel = modelID
		gotTemp = temperature
		return "ok", nil
	})

	r := New(store, completions, func() bool { return true }, 8, quietLogger())
	if _, err := r.Generate(context.Background(), 1, "hi"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if gotModel != "test-model" {
		t.Fatalf("expected profile model, got %q", gotModel)
	}
	if gotTemp != 0.7 {
		t.Fatalf("expected profile temperature, got %v", gotTemp)
	}
}

type completionFunc func(ctx context.Context, messages []models.Message, modelID string, temperature float64) (string, error)

func (f completionFunc) Complete(ctx context.Context, messages []models.Message, modelID string, temperature float64) (string, error) {
	return f(ctx, messages, modelID, temperature)
}
