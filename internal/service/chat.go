package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Zarakkhan-dev/automated-review-system/internal/ai"
	"github.com/Zarakkhan-dev/automated-review-system/internal/chatfmt"
	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
	"github.com/Zarakkhan-dev/automated-review-system/internal/repository"
	apperrors "github.com/Zarakkhan-dev/automated-review-system/pkg/errors"
)

const maxChatTitleLength = 200

type AddMessageInput struct {
	UserID  string
	ChatID  string
	Role    string
	Content string
}

// GenerateInput is a prompt plus earlier user messages, oldest first.
type GenerateInput struct {
	Prompt  string
	History []string
}

// ChatService implements the assistant chat: conversations, their
// messages and model replies.
type ChatService struct {
	chats  repository.ChatRepository
	model  ai.ChatGenerator
	logger *slog.Logger
}

func NewChatService(chats repository.ChatRepository, model ai.ChatGenerator, logger *slog.Logger) *ChatService {
	return &ChatService{chats: chats, model: model, logger: logger}
}

// ListChats returns the user's chats, most recently active first.
func (s *ChatService) ListChats(ctx context.Context, userID string) ([]domain.Chat, error) {
	chats, err := s.chats.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	return chats, nil
}

// CreateChat starts a conversation. A blank title becomes "New Chat".
func (s *ChatService) CreateChat(ctx context.Context, userID, title string) (*domain.Chat, error) {
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	chat := &domain.Chat{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.chats.Create(ctx, chat); err != nil {
		return nil, fmt.Errorf("create chat: %w", err)
	}

	s.logger.InfoContext(ctx, "chat created",
		slog.String("chat_id", chat.ID),
		slog.String("user_id", userID),
	)
	return chat, nil
}

// GetChat returns a chat with its messages, oldest first.
func (s *ChatService) GetChat(ctx context.Context, userID, chatID string) (*domain.Chat, error) {
	if err := validateID("chat", chatID); err != nil {
		return nil, err
	}
	chat, err := s.chats.Get(ctx, chatID, userID)
	if err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}
	messages, err := s.chats.ListMessages(ctx, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	chat.Messages = messages
	return chat, nil
}

func (s *ChatService) RenameChat(ctx context.Context, userID, chatID, title string) (*domain.Chat, error) {
	if err := validateID("chat", chatID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" {
		return nil, apperrors.InvalidInput("title is required")
	}
	title, err := normalizeTitle(title)
	if err != nil {
		return nil, err
	}

	chat, err := s.chats.Rename(ctx, chatID, userID, title)
	if err != nil {
		return nil, fmt.Errorf("rename chat: %w", err)
	}
	return chat, nil
}

// DeleteChat removes the chat and all of its messages.
func (s *ChatService) DeleteChat(ctx context.Context, userID, chatID string) error {
	if err := validateID("chat", chatID); err != nil {
		return err
	}
	if err := s.chats.Delete(ctx, chatID, userID); err != nil {
		return fmt.Errorf("delete chat: %w", err)
	}

	s.logger.InfoContext(ctx, "chat deleted",
		slog.String("chat_id", chatID),
		slog.String("user_id", userID),
	)
	return nil
}

// AddMessage stores a message in one of the user's chats.
func (s *ChatService) AddMessage(ctx context.Context, input AddMessageInput) (*domain.Message, error) {
	if input.ChatID == "" || input.Role == "" || strings.TrimSpace(input.Content) == "" {
		return nil, apperrors.InvalidInput("chatId, role and content are required")
	}
	if !domain.IsValidRole(input.Role) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("role must be %q or %q", domain.RoleUser, domain.RoleModel))
	}
	if err := validateID("chat", input.ChatID); err != nil {
		return nil, err
	}

	if _, err := s.chats.Get(ctx, input.ChatID, input.UserID); err != nil {
		return nil, fmt.Errorf("get chat: %w", err)
	}

	msg := &domain.Message{
		ID:        uuid.NewString(),
		ChatID:    input.ChatID,
		Role:      input.Role,
		Content:   input.Content,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.chats.AddMessage(ctx, msg); err != nil {
		return nil, fmt.Errorf("add message: %w", err)
	}
	return msg, nil
}

// Generate asks the model to answer prompt in the context of history and
// returns the answer rendered as HTML.
func (s *ChatService) Generate(ctx context.Context, input GenerateInput) (string, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return "", apperrors.InvalidInput("prompt is required")
	}

	history := make([]ai.Turn, 0, len(input.History))
	for _, h := range input.History {
		history = append(history, ai.Turn{Role: ai.RoleUser, Text: h})
	}

	raw, err := s.model.Chat(ctx, history, input.Prompt)
	if err != nil {
		s.logger.ErrorContext(ctx, "chat generation failed",
			slog.Int("history_turns", len(history)),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, ai.ErrCircuitOpen) {
			return "", apperrors.ServiceUnavailable("Failed to generate response", err)
		}
		return "", apperrors.InternalMessage("Failed to generate response", err)
	}
	return chatfmt.Format(raw), nil
}

func normalizeTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return domain.DefaultChatTitle, nil
	}
	if len(title) > maxChatTitleLength {
		return "", apperrors.InvalidInput(fmt.Sprintf("title must be at most %d characters", maxChatTitleLength))
	}
	return title, nil
}
