package domain

import "time"

// Message roles, matching the generation backend's conversation roles.
const (
	RoleUser  = "user"
	RoleModel = "model"
)

const DefaultChatTitle = "New Chat"

// Chat is a user-owned conversation with the assistant.
type Chat struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Message struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chatId"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleModel
}
