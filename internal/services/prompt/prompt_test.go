package prompt

import (
	"strings"
	"testing"

	"github.com/openrouter-tgbot-go/internal/models"
)

func TestAssembleSystemHistoryAndUserOrder(t *testing.T) {
	profile := &models.UserProfile{FirstName: "Ana", LanguageCode: "en"}
	window := []models.HistoryTurn{
		{Role: models.RoleUser, Content: "hello"},
		{Role: models.RoleAssistant, Content: "hi there"},
	}

	messages := Assemble(profile, window, "what's next?")

	if len(messages) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(messages))
	}
	if messages[0].Role != models.RoleSystem {
		t.Fatalf("expected system first, got %q", messages[0].Role)
	}
	if !strings.Contains(messages[0].Content, "Ana") {
		t.Fatalf("system prompt should mention the user name: %q", messages[0].Content)
	}
	if !strings.Contains(messages[0].Content, "en") {
		t.Fatalf("system prompt should mention the language: %q", messages[0].Content)
	}
	if messages[1].Content != "hello" || messages[2].Content != "hi there" {
		t.Fatalf("history not in stored order: %v", messages[1:3])
	}
	if messages[3].Role != models.RoleUser || messages[3].Content != "what's next?" {
		t.Fatalf("expected current user turn last, got %+v", messages[3])
	}
}

func TestAssembleEmptyHistory(t *testing.T) {
	profile := &models.UserProfile{FirstName: "Ana", LanguageCode: "en"}

	messages := Assemble(profile, nil, "List 6 colors")

	if len(messages) != 2 {
		t.Fatalf("expected system + user only, got %d messages", len(messages))
	}
	if messages[1].Role != models.RoleUser || messages[1].Content != "List 6 colors" {
		t.Fatalf("unexpected user turn: %+v", messages[1])
	}
}

func TestAssembleCurrentMessageAppearsOnce(t *testing.T) {
	profile := &models.UserProfile{FirstName: "Ana"}
	window := []models.HistoryTurn{
		{Role: models.RoleUser, Content: "earlier question"},
	}

	messages := Assemble(profile, window, "current question")

	count := 0
	for _, m := range messages {
		if m.Content == "current question" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("current message must appear exactly once, found %d times", count)
	}
}

func TestAssembleFallbacks(t *testing.T) {
	messages := Assemble(&models.UserProfile{}, nil, "hi")

	if !strings.Contains(messages[0].Content, FallbackName) {
		t.Fatalf("expected fallback name in system prompt: %q", messages[0].Content)
	}
	if !strings.Contains(messages[0].Content, FallbackLanguage) {
		t.Fatalf("expected fallback language in system prompt: %q", messages[0].Content)
	}
}

func TestAssembleIsPure(t *testing.T) {
	profile := &models.UserProfile{FirstName: "Ana", LanguageCode: "en"}
	window := []models.HistoryTurn{{Role: models.RoleUser, Content: "q"}}

	first := Assemble(profile, window, "again")
	second := Assemble(profile, window, "again")

	if len(first) != len(second) {
		t.Fatalf("assembly is not deterministic: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("assembly differs at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}
