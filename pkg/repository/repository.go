// Package repository persists Bricks, Quantas, conversation history, and the
// resource catalog. Two implementations exist: Postgres for production and an
// in-memory one for tests and local development without a database.
package repository

import (
	"context"

	"github.com/beq-project/beq/pkg/models"
)

// Bricks manages durable user goals.
type Bricks interface {
	Create(ctx context.Context, req models.CreateBrickRequest) (*models.Brick, error)
	Get(ctx context.Context, userID, brickID string) (*models.Brick, error)
	Update(ctx context.Context, userID, brickID string, req models.UpdateBrickRequest) (*models.Brick, error)
	// Delete removes a brick. With cascade, its quantas are removed in the
	// same transaction; without, deletion fails while quantas exist.
	Delete(ctx context.Context, userID, brickID string, cascade bool) error
	List(ctx context.Context, userID string, filters models.BrickFilters) ([]*models.Brick, error)
}

// Quantas manages the decomposition steps of Bricks.
type Quantas interface {
	Create(ctx context.Context, userID string, req models.CreateQuantaRequest) (*models.Quanta, error)
	Get(ctx context.Context, userID, quantaID string) (*models.Quanta, error)
	Update(ctx context.Context, userID, quantaID string, req models.UpdateQuantaRequest) (*models.Quanta, error)
	Delete(ctx context.Context, userID, quantaID string) error
	List(ctx context.Context, userID string, filters models.QuantaFilters) ([]*models.Quanta, error)
}

// Messages is the durable conversation history.
type Messages interface {
	Create(ctx context.Context, req models.CreateMessageRequest) (*models.Message, error)
	ListConversation(ctx context.Context, conversationID string) ([]*models.Message, error)
}

// Resources is the stored resource catalog surfaced by the resource tools.
type Resources interface {
	List(ctx context.Context, filters models.ResourceFilters) ([]*models.Resource, error)
}

// Store bundles all repositories behind one injection point.
type Store struct {
	Bricks    Bricks
	Quantas   Quantas
	Messages  Messages
	Resources Resources
}
