package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Zarakkhan-dev/automated-review-system/internal/domain"
	"github.com/Zarakkhan-dev/automated-review-system/pkg/database"
	apperrors "github.com/Zarakkhan-dev/automated-review-system/pkg/errors"
)

const chatColumns = `id, user_id, title, created_at, updated_at`

// ChatRepository implements chat and message persistence using PostgreSQL.
type ChatRepository struct {
	pool database.DBTX
}

// NewChatRepository creates a new PostgreSQL-backed chat repository.
func NewChatRepository(pool database.DBTX) *ChatRepository {
	return &ChatRepository{pool: pool}
}

// ListByUser returns the user's chats, most recently active first.
func (r *ChatRepository) ListByUser(ctx context.Context, userID string) (_ []domain.Chat, err error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE user_id = $1 ORDER BY updated_at DESC`

	ctx, end := database.TraceQuery(ctx, "ListChats", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list chats: %w", err)
	}
	defer rows.Close()

	chats := []domain.Chat{}
	for rows.Next() {
		c, err := scanChat(rows)
		if err != nil {
			return nil, err
		}
		chats = append(chats, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate chat rows: %w", err)
	}

	return chats, nil
}

// Create inserts a new chat.
func (r *ChatRepository) Create(ctx context.Context, chat *domain.Chat) (err error) {
	query := `INSERT INTO chats (` + chatColumns + `) VALUES ($1, $2, $3, $4, $5)`

	ctx, end := database.TraceQuery(ctx, "CreateChat", query)
	defer func() { end(err) }()

	if _, err = r.pool.Exec(ctx, query, chat.ID, chat.UserID, chat.Title, chat.CreatedAt, chat.UpdatedAt); err != nil {
		return fmt.Errorf("insert chat: %w", err)
	}
	return nil
}

// Get returns the chat if it belongs to userID.
func (r *ChatRepository) Get(ctx context.Context, id, userID string) (_ *domain.Chat, err error) {
	query := `SELECT ` + chatColumns + ` FROM chats WHERE id = $1 AND user_id = $2`

	ctx, end := database.TraceQuery(ctx, "GetChat", query)
	defer func() { end(err) }()

	c, err := scanChat(r.pool.QueryRow(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Chat", "")
		}
		return nil, err
	}
	return c, nil
}

// ListMessages returns a chat's messages oldest first.
func (r *ChatRepository) ListMessages(ctx context.Context, chatID string) (_ []domain.Message, err error) {
	query := `
		SELECT id, chat_id, role, content, created_at
		FROM messages
		WHERE chat_id = $1
		ORDER BY created_at, id`

	ctx, end := database.TraceQuery(ctx, "ListMessages", query)
	defer func() { end(err) }()

	rows, err := r.pool.Query(ctx, query, chatID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	msgs := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		if err = rows.Scan(&m.ID, &m.ChatID, &m.Role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msgs = append(msgs, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}

	return msgs, nil
}

// Rename sets the chat title and bumps updated_at.
func (r *ChatRepository) Rename(ctx context.Context, id, userID, title string) (_ *domain.Chat, err error) {
	query := `
		UPDATE chats SET title = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + chatColumns

	ctx, end := database.TraceQuery(ctx, "RenameChat", query)
	defer func() { end(err) }()

	c, err := scanChat(r.pool.QueryRow(ctx, query, id, userID, title))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("Chat", "")
		}
		return nil, err
	}
	return c, nil
}

// Delete removes the chat and its messages in one transaction.
func (r *ChatRepository) Delete(ctx context.Context, id, userID string) (err error) {
	ctx, end := database.TraceQuery(ctx, "DeleteChat", "delete chat tx")
	defer func() { end(err) }()

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `DELETE FROM chats WHERE id = $1 AND user_id = $2`, id, userID)
		if err != nil {
			return fmt.Errorf("delete chat: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return apperrors.NotFound("Chat", "")
		}
		if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE chat_id = $1`, id); err != nil {
			return fmt.Errorf("delete chat messages: %w", err)
		}
		return nil
	})
}

// AddMessage inserts msg and touches the parent chat in one transaction.
func (r *ChatRepository) AddMessage(ctx context.Context, msg *domain.Message) (err error) {
	ctx, end := database.TraceQuery(ctx, "AddMessage", "add message tx")
	defer func() { end(err) }()

	return database.InTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO messages (id, chat_id, role, content, created_at) VALUES ($1, $2, $3, $4, $5)`,
			msg.ID, msg.ChatID, msg.Role, msg.Content, msg.CreatedAt,
		); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
		if _, err := tx.Exec(ctx, `UPDATE chats SET updated_at = $2 WHERE id = $1`, msg.ChatID, msg.CreatedAt); err != nil {
			return fmt.Errorf("touch chat: %w", err)
		}
		return nil
	})
}

func scanChat(row pgx.Row) (*domain.Chat, error) {
	var c domain.Chat
	if err := row.Scan(&c.ID, &c.UserID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan chat row: %w", err)
	}
	return &c, nil
}
