package profilesvc

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/openrouter-tgbot-go/internal/models"
	"github.com/openrouter-tgbot-go/internal/services/storage"
)

func newTestService() (*Service, *storage.MemoryStorage) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	store := storage.NewMemoryStorage(log)
	return New(store, "default-model", 0.7, log), store
}

func TestParseTemperatureBoundaries(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{"0.0", true},
		{"1.0", true},
		{"0.5", true},
		{"1.5", false},
		{"-0.1", false},
		{"abc", false},
		{"", false},
	}

	for _, tc := range cases {
		if _, ok := ParseTemperature(tc.raw); ok != tc.ok {
			t.Errorf("ParseTemperature(%q): got ok=%v, want %v", tc.raw, ok, tc.ok)
		}
	}
}

func TestRejectedTemperatureWritesNothing(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	svc.Ensure(ctx, models.UserProfile{UserID: 1})

	if _, ok := ParseTemperature("1.5"); ok {
		t.Fatal("1.5 must be rejected")
	}

	profile, _ := store.GetProfile(ctx, 1)
	if profile.Temperature != 0.7 {
		t.Fatalf("temperature must stay at default, got %v", profile.Temperature)
	}
}

func TestUpdateTemperaturePersists(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	svc.Ensure(ctx, models.UserProfile{UserID: 1})

	if !svc.UpdateTemperature(ctx, 1, 1.0) {
		t.Fatal("valid temperature update must succeed")
	}

	profile, _ := store.GetProfile(ctx, 1)
	if profile.Temperature != 1.0 {
		t.Fatalf("expected 1.0, got %v", profile.Temperature)
	}
}

func TestUpdateModelRejectsEmpty(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Ensure(ctx, models.UserProfile{UserID: 1})

	if svc.UpdateModel(ctx, 1, "") {
		t.Fatal("empty model id must be rejected")
	}
	if !svc.UpdateModel(ctx, 1, "any/model:free") {
		t.Fatal("non-empty model id must be accepted as opaque text")
	}
}

func TestEnsureCreatesWithDefaults(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	profile, err := svc.Ensure(ctx, models.UserProfile{
		UserID:    1,
		FirstName: "Ana",
	})
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if profile.AIModel != "default-model" {
		t.Fatalf("expected default model, got %q", profile.AIModel)
	}
	if profile.Temperature != 0.7 {
		t.Fatalf("expected default temperature, got %v", profile.Temperature)
	}
	if profile.CreatedAt.IsZero() || profile.LastSeen.IsZero() {
		t.Fatal("timestamps must be set on creation")
	}
}

func TestEnsureKeepsExistingSettings(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	svc.Ensure(ctx, models.UserProfile{UserID: 1, FirstName: "Ana"})
	svc.UpdateModel(ctx, 1, "custom/model")

	profile, err := svc.Ensure(ctx, models.UserProfile{UserID: 1, FirstName: "Ana"})
	if err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}
	if profile.AIModel != "custom/model" {
		t.Fatalf("a second /start must not reset settings, got %q", profile.AIModel)
	}
}
