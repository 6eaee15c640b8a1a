// Package prompt builds the ordered message list for a completion request.
// Assembly is a pure function over the profile, the history window and the
// current user message.
package prompt

import (
	"fmt"

	"github.com/openrouter-tgbot-go/internal/models"
)

// Defaults applied when the profile lacks the corresponding field.
const (
	FallbackName     = "друг"
	FallbackLanguage = "ru"
)

const systemTemplate = `You are a Telegram assistant.
User name: %s.
Language: %s.

Answer in the user's language and keep the context of previous messages in mind.
Be brief and to the point. If a list would be long, cut it to 4 items.
Always finish the last sentence completely.`

// Assemble returns system + history window (oldest first) + exactly one user
// turn for the current message. The window must not already contain the
// current message; callers fetch history before appending the new turn.
func Assemble(profile *models.UserProfile, window []models.HistoryTurn, userMessage string) []models.Message {
	name := profile.FirstName
	if name == "" {
		name = FallbackName
	}
	lang := profile.LanguageCode
	if lang == "" {
		lang = FallbackLanguage
	}

	messages := make([]models.Message, 0, len(window)+2)
	messages = append(messages, models.Message{
		Role:    models.RoleSystem,
		Content: fmt.Sprintf(systemTemplate, name, lang),
	})

	for _, turn := range window {
		messages = append(messages, models.Message{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	messages = append(messages, models.Message{
		Role:    models.RoleUser,
		Content: userMessage,
	})

	return messages
}
