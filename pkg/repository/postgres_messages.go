package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/beq-project/beq/pkg/models"
)

// PostgresMessages implements Messages over database/sql.
type PostgresMessages struct {
	db    *sql.DB
	clock models.Clock
}

// NewPostgresMessages creates a Postgres-backed message repository.
func NewPostgresMessages(db *sql.DB, clock models.Clock) *PostgresMessages {
	return &PostgresMessages{db: db, clock: clock}
}

func (r *PostgresMessages) Create(ctx context.Context, req models.CreateMessageRequest) (*models.Message, error) {
	if req.ConversationID == "" {
		return nil, NewValidationError("conversation_id", "required")
	}
	if req.UserID == "" {
		return nil, NewValidationError("user_id", "required")
	}
	if req.Role == "" {
		return nil, NewValidationError("role", "required")
	}
	if req.Content == "" {
		return nil, NewValidationError("content", "required")
	}

	msg := &models.Message{
		ID:             models.NewID(),
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		Role:           req.Role,
		Content:        req.Content,
		ToolCallID:     req.ToolCallID,
		CreatedAt:      r.clock.Now(),
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, user_id, role, content, tool_call_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		msg.ID, msg.ConversationID, msg.UserID, msg.Role, msg.Content, msg.ToolCallID, msg.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return msg, nil
}

func (r *PostgresMessages) ListConversation(ctx context.Context, conversationID string) ([]*models.Message, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, conversation_id, user_id, role, content, tool_call_id, created_at
		FROM messages WHERE conversation_id = $1 ORDER BY created_at, id`,
		conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation messages: %w", err)
	}
	defer rows.Close()

	var msgs []*models.Message
	for rows.Next() {
		var m models.Message
		if err := rows.Scan(&m.ID, &m.ConversationID, &m.UserID, &m.Role,
			&m.Content, &m.ToolCallID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.CreatedAt = m.CreatedAt.UTC()
		msgs = append(msgs, &m)
	}
	return msgs, rows.Err()
}

// PostgresResources implements Resources over database/sql.
type PostgresResources struct {
	db *sql.DB
}

// NewPostgresResources creates a Postgres-backed resource repository.
func NewPostgresResources(db *sql.DB) *PostgresResources {
	return &PostgresResources{db: db}
}

func (r *PostgresResources) List(ctx context.Context, filters models.ResourceFilters) ([]*models.Resource, error) {
	query := `SELECT id, title, url, topic, summary, created_at FROM resources WHERE 1=1`
	args := []any{}
	if filters.Topic != "" {
		args = append(args, filters.Topic)
		query += fmt.Sprintf(" AND topic = $%d", len(args))
	}
	if filters.Query != "" {
		args = append(args, "%"+filters.Query+"%")
		query += fmt.Sprintf(" AND (title ILIKE $%d OR summary ILIKE $%d)", len(args), len(args))
	}
	query += " ORDER BY created_at DESC"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list resources: %w", err)
	}
	defer rows.Close()

	var resources []*models.Resource
	for rows.Next() {
		var res models.Resource
		if err := rows.Scan(&res.ID, &res.Title, &res.URL, &res.Topic, &res.Summary, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resource: %w", err)
		}
		resources = append(resources, &res)
	}
	return resources, rows.Err()
}

// NewPostgresStore bundles the Postgres repositories.
func NewPostgresStore(db *sql.DB, clock models.Clock) *Store {
	return &Store{
		Bricks:    NewPostgresBricks(db, clock),
		Quantas:   NewPostgresQuantas(db, clock),
		Messages:  NewPostgresMessages(db, clock),
		Resources: NewPostgresResources(db),
	}
}
