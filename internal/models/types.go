package models

import (
	"time"
)

// Roles recorded in dialogue history and sent to the completion endpoint.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a single chat-completion message
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// UserProfile represents a registered user and their AI settings
type UserProfile struct {
	UserID       int64     `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	FirstName    string    `json:"first_name,omitempty"`
	LastName     string    `json:"last_name,omitempty"`
	LanguageCode string    `json:"language_code,omitempty"`
	IsBot        bool      `json:"is_bot"`
	AIModel      string    `json:"ai_model"`
	Temperature  float64   `json:"temperature"`
	CreatedAt    time.Time `json:"created_at"`
	LastSeen     time.Time `json:"last_seen"`
}

// ProfilePatch carries a partial profile update. Nil fields are left untouched.
type ProfilePatch struct {
	AIModel     *string
	Temperature *float64
	LastSeen    *time.Time
}

// HistoryTurn is one recorded message in a user's dialogue history.
// Sequence is assigned by the store in insertion order.
type HistoryTurn struct {
	UserID   int64  `json:"user_id"`
	Role     string `json:"role"`
	Content  string `json:"content"`
	Sequence int64  `json:"sequence"`
}

// BotStats holds aggregate counters for the /stats command
type BotStats struct {
	TotalUsers        int64
	ActiveToday       int64
	UsersWithSettings int64
}
